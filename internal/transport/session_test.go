package transport_test

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/mirrorsync/internal/transport"
)

func newCountingServer(t *testing.T, h http.Handler) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var conns atomic.Int32
	srv := httptest.NewUnstartedServer(h)
	srv.Config.ConnState = func(_ net.Conn, state http.ConnState) {
		if state == http.StateNew {
			conns.Add(1)
		}
	}
	srv.Start()
	t.Cleanup(srv.Close)
	return srv, &conns
}

func TestSession_ReusesConnection(t *testing.T) {
	srv, conns := newCountingServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.URL.Path)
	}))

	host, err := transport.ParseHost(srv.URL)
	require.NoError(t, err)

	s := transport.NewSession(host, transport.SessionOpts{UserAgent: "test"})
	defer s.Close()

	for _, p := range []string{"/files/a", "/files/b", "/files/c"} {
		resp, err := s.Get(context.Background(), p)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		assert.Equal(t, p, string(body))
		assert.True(t, resp.OK())
	}

	assert.Equal(t, int32(1), conns.Load())
}

func TestSession_ResponseMetadata(t *testing.T) {
	modTime := time.Date(2024, 3, 9, 12, 30, 0, 0, time.UTC)
	srv, _ := newCountingServer(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Last-Modified", modTime.Format(http.TimeFormat))
		w.Header().Set("Content-Length", "5")
		_, _ = io.WriteString(w, "hello")
	}))

	host, err := transport.ParseHost(srv.URL)
	require.NoError(t, err)
	s := transport.NewSession(host, transport.SessionOpts{})
	defer s.Close()

	resp, err := s.Get(context.Background(), "/files/x")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, int64(5), resp.ContentLength)
	got, ok, err := resp.ModTime()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, modTime.Equal(got))
	assert.Equal(t, time.UTC, got.Location())
}

func TestSession_NonOKReturned(t *testing.T) {
	srv, _ := newCountingServer(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))

	host, err := transport.ParseHost(srv.URL)
	require.NoError(t, err)
	s := transport.NewSession(host, transport.SessionOpts{})
	defer s.Close()

	resp, err := s.Get(context.Background(), "/files/x")
	require.NoError(t, err)
	transport.Discard(resp.Body)
	assert.False(t, resp.OK())
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestSession_GetAfterClose(t *testing.T) {
	host, err := transport.ParseHost("cdn.example.com")
	require.NoError(t, err)
	s := transport.NewSession(host, transport.SessionOpts{})
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Get(context.Background(), "/files/x")
	assert.Error(t, err)
}

func TestResponse_ModTime(t *testing.T) {
	r := &transport.Response{}
	_, ok, err := r.ModTime()
	require.NoError(t, err)
	assert.False(t, ok)

	r.LastModified = "yesterday-ish"
	_, ok, err = r.ModTime()
	assert.True(t, ok)
	assert.Error(t, err)
}
