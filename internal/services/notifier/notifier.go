// Package notifier потребляет события из очередей доставок: уведомления
// об истекающих тарифах пересылаются получателям, события заданий
// журналируются для наблюдения.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/archive-delivery/internal/lib/format"
	"github.com/magabrotheeeer/archive-delivery/internal/lib/sl"
	"github.com/magabrotheeeer/archive-delivery/internal/models"
)

// Notifier доставляет текстовые уведомления пользователю вне контекста задания.
type Notifier interface {
	Notify(ctx context.Context, userID int64, text string) error
}

// Service обработчики сообщений очередей доставок.
type Service struct {
	notifier Notifier
	log      *slog.Logger
}

// New создает новый Service. Notifier может быть nil, тогда уведомления
// только журналируются.
func New(notifier Notifier, log *slog.Logger) *Service {
	return &Service{
		notifier: notifier,
		log:      log,
	}
}

// HandleExpiryNotice обрабатывает уведомление об истекающем платном тарифе.
func (s *Service) HandleExpiryNotice(body []byte) error {
	const op = "notifier.HandleExpiryNotice"

	var notice models.ExpiryNotice
	if err := json.Unmarshal(body, &notice); err != nil {
		s.log.Error("failed to unmarshal expiry notice", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	text := fmt.Sprintf("Your %s plan expires on %s. Renew to keep your limits.",
		notice.Tier, format.Date(&notice.Expiry))

	s.log.Info("plan expiry notice",
		sl.UserID(notice.UserID),
		slog.String("tier", notice.Tier),
		slog.Time("expiry", notice.Expiry))

	if s.notifier == nil {
		return nil
	}
	if err := s.notifier.Notify(context.Background(), notice.UserID, text); err != nil {
		s.log.Error("failed to deliver expiry notice", sl.Err(err), sl.UserID(notice.UserID))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// HandleJobEvent журналирует событие жизненного цикла задания.
func (s *Service) HandleJobEvent(body []byte) error {
	const op = "notifier.HandleJobEvent"

	var event models.JobEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal job event", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("job finished",
		sl.UserID(event.UserID),
		slog.String("filename", event.Filename),
		slog.String("status", event.Status),
		slog.Int("delivered", event.Delivered),
		slog.Int("total", event.Total))
	return nil
}
