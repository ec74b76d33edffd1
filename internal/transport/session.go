package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SessionOpts configures a host session.
type SessionOpts struct {
	UserAgent string
	// RoundTripper overrides the session's own connection pool (tests).
	RoundTripper http.RoundTripper
}

// Session is a single persistent keep-alive connection to one host. It is
// owned by one batch attempt and must be closed when the attempt ends.
type Session struct {
	host      Host
	client    *http.Client
	transport *http.Transport
	userAgent string
	closed    bool
}

// NewSession opens a session to host. No connection is dialed until the
// first request.
func NewSession(host Host, opts SessionOpts) *Session {
	s := &Session{host: host, userAgent: opts.UserAgent}

	rt := opts.RoundTripper
	if rt == nil {
		base, ok := http.DefaultTransport.(*http.Transport)
		if ok {
			s.transport = base.Clone()
		} else {
			s.transport = &http.Transport{}
		}
		s.transport.MaxIdleConns = 1
		s.transport.MaxIdleConnsPerHost = 1
		s.transport.MaxConnsPerHost = 1
		s.transport.DisableKeepAlives = false
		rt = s.transport
	}
	s.client = &http.Client{Transport: rt}
	return s
}

// Host returns the host this session talks to.
func (s *Session) Host() Host { return s.host }

// Response is a streaming file response.
type Response struct {
	Body          io.ReadCloser
	StatusCode    int
	ContentLength int64 // -1 when unknown
	LastModified  string
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}

// ModTime parses the Last-Modified header as UTC. ok is false when the
// header is absent.
func (r *Response) ModTime() (t time.Time, ok bool, err error) {
	if r.LastModified == "" {
		return time.Time{}, false, nil
	}
	t, err = http.ParseTime(r.LastModified)
	if err != nil {
		return time.Time{}, true, fmt.Errorf("parse Last-Modified %q: %w", r.LastModified, err)
	}
	return t.UTC(), true, nil
}

// Get issues a streaming GET for remotePath. The caller must close Body.
// Non-2xx responses are returned, not converted to errors.
func (s *Session) Get(ctx context.Context, remotePath string) (*Response, error) {
	if s.closed {
		return nil, fmt.Errorf("session to %s is closed", s.host)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.host.URL(remotePath), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Connection", "keep-alive")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	return &Response{
		Body:          resp.Body,
		StatusCode:    resp.StatusCode,
		ContentLength: resp.ContentLength,
		LastModified:  resp.Header.Get("Last-Modified"),
	}, nil
}

// Discard drains and closes a response body so the connection can be
// reused for the next request.
func Discard(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64*1024))
	_ = body.Close()
}

// Close releases the session's connection. Safe to call more than once;
// only the first call has an effect.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.transport != nil {
		s.transport.CloseIdleConnections()
	} else {
		s.client.CloseIdleConnections()
	}
	return nil
}
