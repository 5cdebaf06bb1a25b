package extract

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/mholt/archiver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractor() *Extractor {
	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	return New("7z", log)
}

func TestExtract_Zip(t *testing.T) {
	dir := t.TempDir()
	srcDir := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(srcDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "a.txt"), []byte("alpha"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "b.txt"), []byte("beta"), 0o644))

	archivePath := filepath.Join(dir, "bundle.zip")
	require.NoError(t, archiver.Archive([]string{
		filepath.Join(srcDir, "a.txt"),
		filepath.Join(srcDir, "b.txt"),
	}, archivePath))

	destDir := filepath.Join(dir, "out")
	require.NoError(t, newTestExtractor().Extract(context.Background(), archivePath, "", destDir))

	data, err := os.ReadFile(filepath.Join(destDir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(data))
}

func TestExtract_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newTestExtractor().Extract(ctx, "whatever.zip", "", t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUtilityError(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		want   string
	}{
		{
			name:   "wrong password",
			stderr: "Extracting archive\nERROR: Wrong password : secret.7z\n",
			want:   "Wrong password",
		},
		{
			name:   "generic error line",
			stderr: "Scanning\nERROR: CRC Failed : data.bin\n",
			want:   "CRC Failed : data.bin",
		},
		{
			name:   "unstructured output",
			stderr: "  cannot open archive  \n",
			want:   "cannot open archive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, utilityError(tt.stderr))
		})
	}
}
