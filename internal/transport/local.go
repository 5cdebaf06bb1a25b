// Package transport реализует доставку распакованных файлов получателю.
// Локальный транспорт раскладывает файлы по каталогу пользователя и ведет
// одно статусное сообщение; зеркалирование выполняется через Uploader.
package transport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/magabrotheeeer/archive-delivery/internal/pipeline"
)

// Uploader загружает локальный файл во внешнее хранилище-зеркало.
type Uploader interface {
	Upload(ctx context.Context, localPath, destination string) error
}

// Local транспорт доставки в каталог на диске. Каждый доставленный файл
// получает порядковый номер, статус задания хранится в одном файле и
// перезаписывается на месте.
type Local struct {
	dir      string
	uploader Uploader // nil отключает зеркалирование
	log      *slog.Logger

	mu  sync.Mutex
	seq int
}

// NewLocal создает транспорт для одного пользователя поверх baseDir.
func NewLocal(baseDir string, userID int64, uploader Uploader, log *slog.Logger) (*Local, error) {
	const op = "transport.NewLocal"

	dir := filepath.Join(baseDir, strconv.FormatInt(userID, 10))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Local{dir: dir, uploader: uploader, log: log}, nil
}

// SendProgress перезаписывает статусное сообщение задания.
func (t *Local) SendProgress(ctx context.Context, text string) error {
	const op = "transport.SendProgress"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if err := os.WriteFile(filepath.Join(t.dir, "status.txt"), []byte(text), 0o644); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SendFile копирует файл в каталог доставки под преобразованным именем.
// Возвращает идентификатор доставки — имя файла в каталоге пользователя.
func (t *Local) SendFile(ctx context.Context, path string, opts pipeline.FileOptions) (string, error) {
	const op = "transport.SendFile"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	name := opts.Name
	if name == "" {
		name = filepath.Base(path)
	}

	t.mu.Lock()
	t.seq++
	deliveryID := fmt.Sprintf("%03d_%s", t.seq, name)
	t.mu.Unlock()

	if err := copyFile(path, filepath.Join(t.dir, deliveryID)); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	t.log.Debug("file delivered", slog.String("delivery_id", deliveryID))
	return deliveryID, nil
}

// Mirror загружает уже доставленный файл во внешнее хранилище.
func (t *Local) Mirror(ctx context.Context, deliveryID, destination string) error {
	const op = "transport.Mirror"
	if t.uploader == nil {
		return nil
	}
	if err := t.uploader.Upload(ctx, filepath.Join(t.dir, deliveryID), destination); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
