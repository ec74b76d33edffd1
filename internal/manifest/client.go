package manifest

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/afero"
)

// Client fetches the manifest from a fixed URL. It never retries.
type Client struct {
	URL       string
	HTTP      *http.Client
	UserAgent string
}

// NewClient returns a Client for url using http.DefaultClient.
func NewClient(url string) *Client {
	return &Client{URL: url, HTTP: http.DefaultClient}
}

// Fetch issues a single GET and decodes the response body.
func (c *Client) Fetch(ctx context.Context) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, &Error{Kind: Transport, Source: c.URL, Err: err}
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, &Error{Kind: Transport, Source: c.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Kind:   Transport,
			Source: c.URL,
			Err:    fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	return Decode(resp.Body, c.URL)
}

// FileSource reads a manifest document from a file, for offline use and
// for publishing pipelines that stage the manifest locally.
type FileSource struct {
	Fs   afero.Fs
	Path string
}

// Fetch reads and decodes the manifest file.
func (s *FileSource) Fetch(_ context.Context) ([]Entry, error) {
	fs := s.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	f, err := fs.Open(s.Path)
	if err != nil {
		return nil, &Error{Kind: Transport, Source: s.Path, Err: err}
	}
	defer f.Close()

	return Decode(f, s.Path)
}

// NewSource picks a Client for http(s) locations and a FileSource otherwise.
//
//nolint:ireturn // factory returns interface by design
func NewSource(location, userAgent string) Source {
	lower := strings.ToLower(location)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		c := NewClient(location)
		c.UserAgent = userAgent
		return c
	}
	return &FileSource{Fs: afero.NewOsFs(), Path: strings.TrimPrefix(location, "file://")}
}
