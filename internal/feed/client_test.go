package feed

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientFetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/xml", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte("<ndm></ndm>"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	body, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "<ndm></ndm>", string(body))
}

func TestClientFetch_Non200IsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := c.Fetch(context.Background())
	require.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "502")
}

func TestClientFetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 50*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := c.Fetch(context.Background())
	require.ErrorIs(t, err, ErrUpstream)
}

func TestClientFetch_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(srv.URL, 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := c.Fetch(ctx)
	require.Error(t, err)
}
