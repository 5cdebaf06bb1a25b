// Package extract реализует распаковку архивов: чистый Go-распаковщик для
// обычных форматов и внешняя утилита 7z для защищенных паролем и проприетарных.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/mholt/archiver/v3"

	"github.com/magabrotheeeer/archive-delivery/internal/lib/format"
	"github.com/magabrotheeeer/archive-delivery/internal/lib/sl"
)

// Расширения, которые распаковываются без внешней утилиты.
var nativeExtensions = map[string]struct{}{
	"zip": {}, "tar": {}, "gz": {}, "bz2": {}, "tgz": {}, "tbz2": {},
}

// Extractor выбирает способ распаковки по расширению и наличию пароля.
type Extractor struct {
	sevenZipPath string
	log          *slog.Logger
}

// New создает новый Extractor. sevenZipPath — путь к бинарю 7z.
func New(sevenZipPath string, log *slog.Logger) *Extractor {
	return &Extractor{sevenZipPath: sevenZipPath, log: log}
}

// Extract распаковывает archivePath в destDir. Пароль передается утилите
// как есть; текст ошибки утилиты возвращается дословно, без ретраев.
func (e *Extractor) Extract(ctx context.Context, archivePath, password, destDir string) error {
	const op = "extract.Extract"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	ext := format.Extension(archivePath)
	if _, ok := nativeExtensions[ext]; ok && password == "" {
		err := archiver.Unarchive(archivePath, destDir)
		if err == nil {
			return nil
		}
		// Поврежденные и нестандартные архивы пробуем добить утилитой.
		e.log.Warn("native extraction failed, falling back to 7z", sl.Err(err))
	}
	return e.extractWithUtility(ctx, archivePath, password, destDir)
}

func (e *Extractor) extractWithUtility(ctx context.Context, archivePath, password, destDir string) error {
	const op = "extract.extractWithUtility"

	// -p без значения отключает интерактивный запрос пароля.
	args := []string{"x", archivePath, "-o" + destDir, "-p" + password, "-y"}
	cmd := exec.CommandContext(ctx, e.sevenZipPath, args...)

	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := utilityError(stderr.String()); msg != "" {
			return errors.New(msg)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// utilityError выделяет человекочитаемую причину сбоя из stderr утилиты.
func utilityError(stderr string) string {
	if strings.Contains(stderr, "Wrong password") {
		return "Wrong password"
	}
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "ERROR:"); ok {
			return strings.TrimSpace(rest)
		}
	}
	return strings.TrimSpace(stderr)
}
