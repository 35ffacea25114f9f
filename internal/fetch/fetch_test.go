package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(t *testing.T) *Fetcher {
	f := New(nil)
	f.Dir = t.TempDir()
	f.MaxBackoff = time.Millisecond
	return f
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("http://example.com/a.mp4"))
	assert.True(t, IsURL("https://example.com/a.mp4"))
	assert.False(t, IsURL("ftp://example.com/a.mp4"))
	assert.False(t, IsURL("/tmp/a.mp4"))
	assert.False(t, IsURL("C:\\media\\a.mp4"))
	assert.False(t, IsURL("http://"))
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("\x00\x00\x00\x08free"))
	}))
	defer srv.Close()

	path, err := newTestFetcher(t).Fetch(context.Background(), srv.URL+"/a.mp4")
	require.NoError(t, err)
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\x00\x00\x00\x08free", string(data))
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	path, err := newTestFetcher(t).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	defer os.Remove(path)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchGivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestFetcher(t).Fetch(context.Background(), srv.URL)
	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusInternalServerError, serr.Code)
	assert.Equal(t, int32(DefaultMaxRetries+1), calls.Load())
}

func TestFetchClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	_, err := f.Fetch(context.Background(), srv.URL)
	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusNotFound, serr.Code)
	assert.Equal(t, int32(1), calls.Load())

	entries, err := os.ReadDir(f.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no temp file left behind")
}

func TestFetchRejectsNonURL(t *testing.T) {
	_, err := newTestFetcher(t).Fetch(context.Background(), "/tmp/a.mp4")
	assert.Error(t, err)
}

func TestFetchCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestFetcher(t).Fetch(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}
