package engine

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bamsammich/mirrorsync/internal/digest"
	"github.com/bamsammich/mirrorsync/internal/manifest"
	"github.com/bamsammich/mirrorsync/internal/transport"
)

// fakeMirror serves files by remote path and records every request.
type fakeMirror struct {
	srv *httptest.Server

	mu           sync.Mutex
	files        map[string][]byte
	status       map[string]int
	lastModified map[string]string
	requests     []string
	userAgents   []string

	conns atomic.Int32
}

func newFakeMirror(t *testing.T, files map[string][]byte) *fakeMirror {
	t.Helper()

	m := &fakeMirror{
		files:        make(map[string][]byte),
		status:       make(map[string]int),
		lastModified: make(map[string]string),
	}
	for p, data := range files {
		m.files[p] = data
	}

	m.srv = httptest.NewUnstartedServer(http.HandlerFunc(m.serve))
	m.srv.Config.ConnState = func(_ net.Conn, state http.ConnState) {
		if state == http.StateNew {
			m.conns.Add(1)
		}
	}
	m.srv.Start()
	t.Cleanup(m.srv.Close)
	return m
}

func (m *fakeMirror) serve(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.requests = append(m.requests, r.URL.Path)
	m.userAgents = append(m.userAgents, r.UserAgent())
	code, failing := m.status[r.URL.Path]
	data, ok := m.files[r.URL.Path]
	lm := m.lastModified[r.URL.Path]
	m.mu.Unlock()

	if failing {
		http.Error(w, http.StatusText(code), code)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	if lm != "" {
		w.Header().Set("Last-Modified", lm)
	}
	_, _ = w.Write(data)
}

func (m *fakeMirror) host(t *testing.T) transport.Host {
	t.Helper()
	h, err := transport.ParseHost(m.srv.URL)
	require.NoError(t, err)
	return h
}

func (m *fakeMirror) failWith(remotePath string, code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status[remotePath] = code
}

func (m *fakeMirror) setLastModified(remotePath, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastModified[remotePath] = value
}

func (m *fakeMirror) requested() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.requests...)
}

// staticSource is a manifest.Source returning fixed entries or an error.
type staticSource struct {
	entries []manifest.Entry
	err     error
}

func (s staticSource) Fetch(context.Context) ([]manifest.Entry, error) {
	return s.entries, s.err
}

func md5Hex(t *testing.T, data []byte) string {
	t.Helper()
	sum, err := digest.HashReader(digest.MD5, bytes.NewReader(data))
	require.NoError(t, err)
	return sum
}

// testTree is the standard published content used by the engine tests.
type testTree struct {
	entries []manifest.Entry
	remote  map[string][]byte // keyed by remote path
}

func newTestTree(t *testing.T, files ...[2]string) testTree {
	t.Helper()
	tree := testTree{remote: make(map[string][]byte)}
	for _, f := range files {
		data := []byte(f[1])
		tree.entries = append(tree.entries, manifest.Entry{Path: f[0], Digest: md5Hex(t, data)})
		tree.remote[transport.RemotePath(transport.DefaultFilesPrefix, f[0])] = data
	}
	return tree
}

func (tt testTree) source() manifest.Source {
	return staticSource{entries: tt.entries}
}

func (m *fakeMirror) agents() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.userAgents...)
}
