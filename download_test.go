package gdata

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownload(t *testing.T) {
	payload := []byte("spreadsheet,data\n1,2\n")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "text/csv")
		w.Write(payload)
	}))
	defer server.Close()

	var lastRead, lastTotal int64
	progress := func(read, total int64) {
		lastRead = read
		lastTotal = total
	}

	svc := newTestService(server.URL, &staticAuthorizer{header: "token"})
	stream, err := svc.Download(context.Background(), testDomain, server.URL, progress)
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, "text/csv", stream.ContentType())
	assert.Equal(t, int64(len(payload)), stream.ContentLength())

	got, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, int64(len(payload)), lastRead)
	assert.Equal(t, int64(len(payload)), lastTotal)
}

func TestDownload_CancelledBeforeStart(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestService(server.URL, nil).Download(ctx, testDomain, server.URL, nil)
	assert.True(t, IsCancelled(err))
	assert.Zero(t, requests)
}

func TestDownload_CancelledMidStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("partial content"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := newTestService(server.URL, nil).Download(ctx, testDomain, server.URL, nil)
	require.NoError(t, err)
	defer stream.Close()

	cancel()
	_, err = io.ReadAll(stream)
	assert.True(t, IsCancelled(err))
}

func TestDownload_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestService(server.URL, nil).Download(context.Background(), testDomain, server.URL, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDownload_RefreshesExpiredAuthorization(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Header.Get("Authorization") != "fresh-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte("doc"))
	}))
	defer server.Close()

	auth := &refreshingAuthorizer{staticAuthorizer: staticAuthorizer{header: "stale-token"}}
	stream, err := newTestService(server.URL, auth).Download(context.Background(), testDomain, server.URL, nil)
	require.NoError(t, err)
	defer stream.Close()

	got, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, "doc", string(got))
	assert.Equal(t, 2, requests)
	assert.Equal(t, int32(1), auth.refreshed.Load())
}
