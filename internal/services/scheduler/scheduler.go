// Package scheduler содержит фоновые задачи обслуживания пользователей:
// суточный сброс счетчиков и оповещение об истекающих платных тарифах.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/archive-delivery/internal/lib/sl"
	"github.com/magabrotheeeer/archive-delivery/internal/models"
	"github.com/magabrotheeeer/archive-delivery/internal/rabbitmq"
)

// UserRepository описывает методы хранилища, нужные планировщику.
type UserRepository interface {
	ResetAllDailyCounts(ctx context.Context, resetAt time.Time) (int, error)
	FindPremiumExpiringToday(ctx context.Context) ([]*models.User, error)
}

// Publisher публикует сообщение в обменник доставок.
type Publisher interface {
	Publish(routingKey string, message any) error
}

// Service планировщик фоновых задач.
type Service struct {
	repo      UserRepository
	publisher Publisher
	log       *slog.Logger

	now func() time.Time
}

// New создает новый Service.
func New(repo UserRepository, publisher Publisher, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// RunDailyReset обнуляет суточные счетчики сразу и далее раз в сутки.
func (s *Service) RunDailyReset(ctx context.Context) {
	s.runDailyReset(ctx)

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runDailyReset(ctx)
		}
	}
}

func (s *Service) runDailyReset(ctx context.Context) {
	s.log.Info("starting daily count reset")
	count, err := s.repo.ResetAllDailyCounts(ctx, s.now().UTC())
	if err != nil {
		s.log.Error("failed to reset daily counts", sl.Err(err))
		return
	}
	s.log.Info("daily counts reset", slog.Int("users", count))
}

// RunExpiryNotices публикует уведомления об истекающих сегодня тарифах
// сразу и далее раз в сутки.
func (s *Service) RunExpiryNotices(ctx context.Context) {
	s.runExpiryNotices(ctx)

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runExpiryNotices(ctx)
		}
	}
}

func (s *Service) runExpiryNotices(ctx context.Context) {
	s.log.Info("starting expiry notice sweep")
	users, err := s.repo.FindPremiumExpiringToday(ctx)
	if err != nil {
		s.log.Error("failed to find expiring users", sl.Err(err))
		return
	}
	if len(users) == 0 {
		s.log.Info("no expiring paid plans found")
		return
	}
	s.log.Info("found expiring paid plans", slog.Int("count", len(users)))
	for _, user := range users {
		notice := models.ExpiryNotice{
			UserID:   user.ID,
			Username: user.Username,
			Tier:     string(user.Tier),
		}
		if user.PremiumExpiry != nil {
			notice.Expiry = *user.PremiumExpiry
		}
		if err := s.publisher.Publish(rabbitmq.ExpiryNoticeRoutingKey, notice); err != nil {
			s.log.Error("failed to publish expiry notice", sl.Err(err), sl.UserID(user.ID))
		}
	}
}
