// Package settings содержит бизнес-логику настроек доставки пользователя,
// включая кеширование.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/archive-delivery/internal/lib/sl"
	"github.com/magabrotheeeer/archive-delivery/internal/models"
	"github.com/magabrotheeeer/archive-delivery/internal/storage/repository"
)

// Repository определяет методы хранилища настроек.
type Repository interface {
	GetUserSettings(ctx context.Context, userID int64) (*models.UserSettings, error)
	UpsertUserSettings(ctx context.Context, st models.UserSettings) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Service читает и обновляет настройки пользователя со сквозным кешем.
// Отсутствующая запись означает настройки по умолчанию: дефолты
// проставляются один раз здесь, а не по месту каждого чтения.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// New создает новый Service.
func New(repo Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

func cacheKey(userID int64) string {
	return fmt.Sprintf("settings:%d", userID)
}

// UserSettings возвращает настройки пользователя из кеша или хранилища.
// Для пользователя без сохраненных настроек возвращаются значения по умолчанию.
func (s *Service) UserSettings(ctx context.Context, userID int64) (models.UserSettings, error) {
	const op = "settings.UserSettings"

	var cached models.UserSettings
	found, err := s.cache.Get(cacheKey(userID), &cached)
	if err != nil {
		s.log.Warn("settings cache read failed", sl.Err(err))
	}
	if found && err == nil {
		return cached, nil
	}

	st, err := s.repo.GetUserSettings(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.DefaultSettings(userID), nil
		}
		return models.UserSettings{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Set(cacheKey(userID), st, time.Hour); err != nil {
		s.log.Warn("failed to cache settings", slog.String("key", cacheKey(userID)), sl.Err(err))
	}
	return *st, nil
}

// Update сохраняет настройки и инвалидирует кеш.
func (s *Service) Update(ctx context.Context, st models.UserSettings) error {
	const op = "settings.Update"

	if err := s.repo.UpsertUserSettings(ctx, st); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Invalidate(cacheKey(st.UserID)); err != nil {
		s.log.Warn("failed to invalidate settings cache",
			slog.String("key", cacheKey(st.UserID)), sl.Err(err))
	}
	s.log.Info("updated user settings", sl.UserID(st.UserID))
	return nil
}
