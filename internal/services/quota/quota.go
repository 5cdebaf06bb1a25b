// Package quota содержит бизнес-логику проверки суточной квоты и лимита
// размера файла по тарифу пользователя, а также учет выполненных заданий.
package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/archive-delivery/internal/lib/format"
	"github.com/magabrotheeeer/archive-delivery/internal/lib/sl"
	"github.com/magabrotheeeer/archive-delivery/internal/models"
	"github.com/magabrotheeeer/archive-delivery/internal/storage/repository"
	"github.com/magabrotheeeer/archive-delivery/internal/tiers"
)

// ErrNotRegistered возвращается для пользователя, которого нет в хранилище.
// Вызывающий обязан предложить пользователю сначала зарегистрироваться.
var ErrNotRegistered = errors.New("user is not registered")

// UserRepository определяет методы хранилища, нужные квотированию.
type UserRepository interface {
	// GetUser возвращает пользователя по ID.
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	// UpdateUserTier записывает тариф и дату его истечения.
	UpdateUserTier(ctx context.Context, userID int64, tier tiers.Tier, expiry *time.Time) error
	// ResetDailyCount обнуляет суточный счетчик и сдвигает момент сброса.
	ResetDailyCount(ctx context.Context, userID int64, resetAt time.Time) error
	// IncrementDailyCount увеличивает суточный счетчик на единицу.
	IncrementDailyCount(ctx context.Context, userID int64) error
	// InsertDownloadLog добавляет запись в журнал скачиваний.
	InsertDownloadLog(ctx context.Context, entry models.DownloadLog) error
}

// Decision результат проверки допуска.
type Decision struct {
	Allowed bool
	Reason  string     // Текст для пользователя при отказе
	Tier    tiers.Tier // Эффективный тариф на момент проверки
}

// PlanStats сводка тарифа и использования для пользователя.
type PlanStats struct {
	Tier          tiers.Tier
	DailyUsed     int
	DailyLimit    int
	MaxFileSize   int64
	PremiumExpiry *time.Time
	JoinDate      time.Time
}

// Service реализует проверку квот поверх репозитория пользователей.
type Service struct {
	repo UserRepository
	log  *slog.Logger
	now  func() time.Time
}

// New создает новый Service.
func New(repo UserRepository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

// refresh лениво приводит запись пользователя в актуальное состояние:
// понижает истекший платный тариф до бесплатного и сбрасывает суточный
// счетчик, если с последнего сброса прошли сутки. Обе правки идемпотентны,
// повторное применение безвредно.
func (s *Service) refresh(ctx context.Context, user *models.User) error {
	const op = "quota.refresh"
	now := s.now()

	if user.Tier != tiers.Free && user.PremiumExpiry != nil && user.PremiumExpiry.Before(now) {
		if err := s.repo.UpdateUserTier(ctx, user.ID, tiers.Free, nil); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		s.log.Info("premium expired, demoted to free", sl.UserID(user.ID),
			slog.String("old_tier", string(user.Tier)))
		user.Tier = tiers.Free
		user.PremiumExpiry = nil
	}

	if user.LastReset.Before(now.Add(-24 * time.Hour)) {
		if err := s.repo.ResetDailyCount(ctx, user.ID, now); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		user.DailyCount = 0
		user.LastReset = now
	}
	return nil
}

func (s *Service) loadUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, err
	}
	return user, nil
}

// EvaluateQuota решает, допускать ли новое задание по суточной квоте.
func (s *Service) EvaluateQuota(ctx context.Context, userID int64) (*Decision, error) {
	const op = "quota.EvaluateQuota"

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.refresh(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	limit := tiers.LimitFor(user.Tier)
	if user.DailyCount >= limit.DailyFiles {
		return &Decision{
			Allowed: false,
			Reason: fmt.Sprintf("Daily limit reached! You can extract %d file(s) per day.",
				limit.DailyFiles),
			Tier: user.Tier,
		}, nil
	}
	return &Decision{Allowed: true, Tier: user.Tier}, nil
}

// EvaluateSize проверяет размер файла против лимита тарифа.
// Проверка независима от квоты и квоту не расходует.
func (s *Service) EvaluateSize(ctx context.Context, userID, fileSize int64) (*Decision, error) {
	const op = "quota.EvaluateSize"

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.refresh(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	limit := tiers.LimitFor(user.Tier)
	if fileSize > limit.MaxSizeBytes {
		return &Decision{
			Allowed: false,
			Reason: fmt.Sprintf("File too large! Your tier allows max %s, file size: %s.",
				format.Size(limit.MaxSizeBytes), format.Size(fileSize)),
			Tier: user.Tier,
		}, nil
	}
	return &Decision{Allowed: true, Tier: user.Tier}, nil
}

// Account учитывает одно успешно выполненное задание: увеличивает суточный
// счетчик ровно на единицу и пишет одну запись в журнал скачиваний.
// Вызывается один раз на задание, а не на каждый доставленный файл.
func (s *Service) Account(ctx context.Context, userID int64, filename string, size int64) error {
	const op = "quota.Account"

	if err := s.repo.IncrementDailyCount(ctx, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.InsertDownloadLog(ctx, models.DownloadLog{
		UserID:    userID,
		Filename:  filename,
		Size:      size,
		Timestamp: s.now(),
	}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("accounted completed job", sl.UserID(userID), slog.String("filename", filename))
	return nil
}

// Stats возвращает сводку тарифа и использования для пользователя.
func (s *Service) Stats(ctx context.Context, userID int64) (*PlanStats, error) {
	const op = "quota.Stats"

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.refresh(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	limit := tiers.LimitFor(user.Tier)
	return &PlanStats{
		Tier:          user.Tier,
		DailyUsed:     user.DailyCount,
		DailyLimit:    limit.DailyFiles,
		MaxFileSize:   limit.MaxSizeBytes,
		PremiumExpiry: user.PremiumExpiry,
		JoinDate:      user.JoinDate,
	}, nil
}
