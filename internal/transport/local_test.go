package transport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/archive-delivery/internal/pipeline"
)

type uploaderStub struct {
	calls []string
	err   error
}

func (u *uploaderStub) Upload(_ context.Context, localPath, destination string) error {
	u.calls = append(u.calls, localPath+"->"+destination)
	return u.err
}

func newLocalForTest(t *testing.T, uploader Uploader) (*Local, string) {
	t.Helper()
	base := t.TempDir()
	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	tr, err := NewLocal(base, 42, uploader, log)
	require.NoError(t, err)
	return tr, filepath.Join(base, "42")
}

func TestLocal_SendProgressOverwritesInPlace(t *testing.T) {
	tr, dir := newLocalForTest(t, nil)

	require.NoError(t, tr.SendProgress(context.Background(), "Starting download..."))
	require.NoError(t, tr.SendProgress(context.Background(), "Extracting archive..."))

	data, err := os.ReadFile(filepath.Join(dir, "status.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Extracting archive...", string(data))
}

func TestLocal_SendFile(t *testing.T) {
	tr, dir := newLocalForTest(t, nil)

	src := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(src, []byte("content"), 0o644))

	id1, err := tr.SendFile(context.Background(), src, pipeline.FileOptions{Name: "[VIP] report HD.txt"})
	require.NoError(t, err)
	assert.Equal(t, "001_[VIP] report HD.txt", id1)

	id2, err := tr.SendFile(context.Background(), src, pipeline.FileOptions{})
	require.NoError(t, err)
	assert.Equal(t, "002_report.txt", id2, "falls back to the source file name")

	data, err := os.ReadFile(filepath.Join(dir, id1))
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
}

func TestLocal_Mirror(t *testing.T) {
	uploader := &uploaderStub{}
	tr, dir := newLocalForTest(t, uploader)

	require.NoError(t, tr.Mirror(context.Background(), "001_report.txt", "backups/archive"))
	require.Len(t, uploader.calls, 1)
	assert.Equal(t, filepath.Join(dir, "001_report.txt")+"->backups/archive", uploader.calls[0])
}

func TestLocal_MirrorWithoutUploader(t *testing.T) {
	tr, _ := newLocalForTest(t, nil)
	assert.NoError(t, tr.Mirror(context.Background(), "001_report.txt", "backups/archive"))
}

func TestLocal_MirrorError(t *testing.T) {
	uploader := &uploaderStub{err: errors.New("bucket unavailable")}
	tr, _ := newLocalForTest(t, uploader)
	assert.Error(t, tr.Mirror(context.Background(), "001_report.txt", "backups/archive"))
}
