package download

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *Client {
	return New(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})))
}

func TestDownload_HTTP(t *testing.T) {
	payload := strings.Repeat("x", 1<<20)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		_, _ = io.WriteString(w, payload)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "archive.zip")
	var lastCurrent, lastTotal int64
	err := newTestClient().Download(context.Background(), srv.URL, dest, func(current, total int64) {
		lastCurrent, lastTotal = current, total
	})
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Len(t, data, len(payload))
	assert.Equal(t, int64(len(payload)), lastCurrent)
	assert.Equal(t, int64(len(payload)), lastTotal)
}

func TestDownload_HTTPChunked(t *testing.T) {
	// Без Content-Length сервер отвечает chunked-передачей, итоговый
	// размер неизвестен и в прогрессе остается нулевым.
	payload := strings.Repeat("x", 1<<20)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, payload)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "archive.zip")
	var lastCurrent, lastTotal int64
	err := newTestClient().Download(context.Background(), srv.URL, dest, func(current, total int64) {
		lastCurrent, lastTotal = current, total
	})
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Len(t, data, len(payload))
	assert.Equal(t, int64(len(payload)), lastCurrent)
	assert.Equal(t, int64(0), lastTotal)
}

func TestDownload_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "archive.zip")
	err := newTestClient().Download(context.Background(), srv.URL, dest, func(int64, int64) {})
	assert.ErrorContains(t, err, "unexpected status")
}

func TestDownload_LocalFile(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source.zip")
	require.NoError(t, os.WriteFile(source, []byte("local-bytes"), 0o644))

	dest := filepath.Join(dir, "copy.zip")
	err := newTestClient().Download(context.Background(), source, dest, func(int64, int64) {})
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "local-bytes", string(data))
}

func TestDownload_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	source := filepath.Join(dir, "source.zip")
	require.NoError(t, os.WriteFile(source, []byte("data"), 0o644))

	err := newTestClient().Download(ctx, source, filepath.Join(dir, "copy.zip"), func(int64, int64) {})
	assert.ErrorIs(t, err, context.Canceled)
}
