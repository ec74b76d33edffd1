package transport

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultFilesPrefix is the path segment under which hosts serve files.
const DefaultFilesPrefix = "/files"

// Host is a parsed content host or mirror.
type Host struct {
	// Name is the host as the user wrote it, used in messages.
	Name string
	base url.URL
}

// ParseHost parses a host argument into a Host.
//
// Supported formats:
//   - cdn.example.com               → https://cdn.example.com
//   - cdn.example.com:8443          → https://cdn.example.com:8443
//   - https://cdn.example.com/base  → files served under /base
//   - http://127.0.0.1:8080         → plain HTTP (tests, local mirrors)
func ParseHost(arg string) (Host, error) {
	raw := strings.TrimSpace(arg)
	if raw == "" {
		return Host{}, fmt.Errorf("empty host")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Host{}, fmt.Errorf("parse host %q: %w", arg, err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return Host{}, fmt.Errorf("host %q: unsupported scheme %q", arg, u.Scheme)
	}
	if u.Hostname() == "" {
		return Host{}, fmt.Errorf("host %q: missing hostname", arg)
	}

	base := url.URL{
		Scheme: u.Scheme,
		Host:   u.Host,
		Path:   strings.TrimSuffix(u.Path, "/"),
	}
	return Host{Name: strings.TrimSpace(arg), base: base}, nil
}

// IsZero reports whether h is the zero Host (no host configured).
func (h Host) IsZero() bool {
	return h.base.Host == ""
}

// URL returns the absolute URL for a slash-rooted remote path.
func (h Host) URL(remotePath string) string {
	u := h.base
	u.Path = h.base.Path + remotePath
	return u.String()
}

func (h Host) String() string {
	if h.Name != "" {
		return h.Name
	}
	return h.base.Host
}

// RemotePath joins the files prefix and a slash-rooted manifest path.
func RemotePath(prefix, manifestPath string) string {
	prefix = "/" + strings.Trim(prefix, "/")
	if prefix == "/" {
		return manifestPath
	}
	return prefix + manifestPath
}
