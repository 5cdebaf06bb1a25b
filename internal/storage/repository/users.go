package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/archive-delivery/internal/models"
	"github.com/magabrotheeeer/archive-delivery/internal/tiers"
)

// RegisterUser сохраняет нового пользователя или обновляет имя существующего.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) error {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (id, username, first_name, join_date, tier, daily_count, last_reset)
			  VALUES ($1, $2, $3, $4, $5, 0, $4)
			  ON CONFLICT (id) DO UPDATE
			  SET username = EXCLUDED.username, first_name = EXCLUDED.first_name;`
	if _, err := s.DB.ExecContext(ctx, query,
		user.ID, user.Username, user.FirstName, user.JoinDate, string(user.Tier)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetUser возвращает пользователя по его ID.
func (s *Storage) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, username, first_name, join_date, tier, premium_expiry,
			      daily_count, last_reset, is_banned
			  FROM users
			  WHERE id = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, userID)

	var tier string
	var premiumExpiry sql.NullTime
	if err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.JoinDate, &tier,
		&premiumExpiry, &u.DailyCount, &u.LastReset, &u.IsBanned); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	parsed, err := tiers.Parse(tier)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	u.Tier = parsed
	if premiumExpiry.Valid {
		u.PremiumExpiry = &premiumExpiry.Time
	}
	return u, nil
}

// UpdateUserTier записывает тариф и дату его истечения.
func (s *Storage) UpdateUserTier(ctx context.Context, userID int64, tier tiers.Tier, expiry *time.Time) error {
	const op = "storage.UpdateUserTier"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET tier = $1, premium_expiry = $2
			  WHERE id = $3`
	if _, err := s.DB.ExecContext(ctx, query, string(tier), expiry, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ResetDailyCount обнуляет суточный счетчик пользователя.
func (s *Storage) ResetDailyCount(ctx context.Context, userID int64, resetAt time.Time) error {
	const op = "storage.ResetDailyCount"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET daily_count = 0, last_reset = $1
			  WHERE id = $2`
	if _, err := s.DB.ExecContext(ctx, query, resetAt, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// IncrementDailyCount увеличивает суточный счетчик пользователя на единицу.
func (s *Storage) IncrementDailyCount(ctx context.Context, userID int64) error {
	const op = "storage.IncrementDailyCount"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET daily_count = daily_count + 1
			  WHERE id = $1`
	if _, err := s.DB.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ResetAllDailyCounts обнуляет суточные счетчики всех пользователей
// и возвращает число затронутых записей.
func (s *Storage) ResetAllDailyCounts(ctx context.Context, resetAt time.Time) (int, error) {
	const op = "storage.ResetAllDailyCounts"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET daily_count = 0, last_reset = $1`
	result, err := s.DB.ExecContext(ctx, query, resetAt)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// FindPremiumExpiringToday находит пользователей с истекающим сегодня платным тарифом.
func (s *Storage) FindPremiumExpiringToday(ctx context.Context) ([]*models.User, error) {
	const op = "storage.FindPremiumExpiringToday"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, username, first_name, join_date, tier, premium_expiry,
			      daily_count, last_reset, is_banned
			  FROM users
			  WHERE tier <> 'free' AND premium_expiry::DATE = CURRENT_DATE;`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		var u models.User
		var tier string
		var premiumExpiry sql.NullTime
		if err = rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.JoinDate, &tier,
			&premiumExpiry, &u.DailyCount, &u.LastReset, &u.IsBanned); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		parsed, err := tiers.Parse(tier)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		u.Tier = parsed
		if premiumExpiry.Valid {
			u.PremiumExpiry = &premiumExpiry.Time
		}
		result = append(result, &u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
