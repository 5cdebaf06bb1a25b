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

// CreateRedeemCode сохраняет новый неиспользованный код активации.
func (s *Storage) CreateRedeemCode(ctx context.Context, code models.RedeemCode) error {
	const op = "storage.CreateRedeemCode"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO redeem_codes (code, plan_type, duration_days, created_date)
			  VALUES ($1, $2, $3, $4)`
	if _, err := s.DB.ExecContext(ctx, query,
		code.Code, string(code.PlanType), code.DurationDays, code.CreatedDate); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FindRedeemCode возвращает код активации по его значению.
func (s *Storage) FindRedeemCode(ctx context.Context, code string) (*models.RedeemCode, error) {
	const op = "storage.FindRedeemCode"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT code, plan_type, duration_days, is_used, used_by, created_date, used_date
			  FROM redeem_codes
			  WHERE code = $1`
	rc := &models.RedeemCode{}
	row := s.DB.QueryRowContext(ctx, query, code)

	var planType string
	var usedBy sql.NullInt64
	var usedDate sql.NullTime
	if err := row.Scan(&rc.Code, &planType, &rc.DurationDays, &rc.IsUsed,
		&usedBy, &rc.CreatedDate, &usedDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	parsed, err := tiers.Parse(planType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rc.PlanType = parsed
	if usedBy.Valid {
		rc.UsedBy = &usedBy.Int64
	}
	if usedDate.Valid {
		rc.UsedDate = &usedDate.Time
	}
	return rc, nil
}

// MarkRedeemCodeUsed условно помечает код использованным. Возвращает true,
// если именно этот вызов перевел код в использованное состояние: условие
// WHERE NOT is_used гарантирует не более одной успешной активации при гонке.
func (s *Storage) MarkRedeemCodeUsed(ctx context.Context, code string, userID int64, usedAt time.Time) (bool, error) {
	const op = "storage.MarkRedeemCodeUsed"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE redeem_codes
			  SET is_used = TRUE, used_by = $1, used_date = $2
			  WHERE code = $3 AND NOT is_used`
	result, err := s.DB.ExecContext(ctx, query, userID, usedAt, code)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected == 1, nil
}
