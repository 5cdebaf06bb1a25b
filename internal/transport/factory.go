package transport

import (
	"log/slog"

	"github.com/magabrotheeeer/archive-delivery/internal/pipeline"
)

// Factory создает транспорт доставки для каждого пользователя.
// Uploader общий для всех пользователей и может быть nil, если
// зеркалирование не настроено.
type Factory struct {
	baseDir  string
	uploader Uploader
	log      *slog.Logger
}

// NewFactory создает новую Factory.
func NewFactory(baseDir string, uploader Uploader, log *slog.Logger) *Factory {
	return &Factory{
		baseDir:  baseDir,
		uploader: uploader,
		log:      log,
	}
}

// ForUser возвращает транспорт, доставляющий файлы в каталог пользователя.
func (f *Factory) ForUser(userID int64) (pipeline.Transport, error) {
	return NewLocal(f.baseDir, userID, f.uploader, f.log)
}
