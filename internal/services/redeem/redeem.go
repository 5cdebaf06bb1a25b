// Package redeem содержит бизнес-логику активации кодов платных тарифов:
// вычисление нового тарифа и даты истечения, гарантию одноразовости кода
// и выпуск новых кодов администратором.
package redeem

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/magabrotheeeer/archive-delivery/internal/lib/sl"
	"github.com/magabrotheeeer/archive-delivery/internal/models"
	"github.com/magabrotheeeer/archive-delivery/internal/storage/repository"
	"github.com/magabrotheeeer/archive-delivery/internal/tiers"
)

var (
	// ErrInvalidCode код не существует.
	ErrInvalidCode = errors.New("invalid redeem code")
	// ErrAlreadyUsed код уже был активирован.
	ErrAlreadyUsed = errors.New("redeem code already used")
	// ErrNotRegistered пользователь не зарегистрирован.
	ErrNotRegistered = errors.New("user is not registered")
)

// Action итог активации кода.
type Action string

const (
	// ActionUpgraded тариф кода выше текущего, тариф заменен.
	ActionUpgraded Action = "upgraded"
	// ActionExtended тот же тариф, срок продлен от текущей даты истечения.
	ActionExtended Action = "extended"
	// ActionActivated свежая активация: free, истекший тариф или код ниже текущего.
	ActionActivated Action = "activated"
)

// Repository определяет методы хранилища для активации кодов.
type Repository interface {
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	UpdateUserTier(ctx context.Context, userID int64, tier tiers.Tier, expiry *time.Time) error
	FindRedeemCode(ctx context.Context, code string) (*models.RedeemCode, error)
	// MarkRedeemCodeUsed условно помечает код использованным и возвращает true,
	// если именно этот вызов перевел код в использованное состояние.
	MarkRedeemCodeUsed(ctx context.Context, code string, userID int64, usedAt time.Time) (bool, error)
	CreateRedeemCode(ctx context.Context, code models.RedeemCode) error
}

// Result итог успешной активации.
type Result struct {
	Tier         tiers.Tier
	Expiry       time.Time
	Action       Action
	DurationDays int
}

// Service реализует активацию и выпуск кодов.
type Service struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

// New создает новый Service.
func New(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

// Redeem активирует код для пользователя.
//
// Иерархия тарифов free < premium < ultra_premium. Код с тарифом выше
// текущего — upgrade с заменой срока; тот же платный тариф — продление от
// текущей даты истечения, либо свежая активация если срок уже истек; код с
// тарифом ниже текущего — свежая активация тарифа кода, то есть осознанное
// понижение.
//
// Код помечается использованным до записи нового тарифа: условное обновление
// в хранилище гарантирует не более одной успешной активации при гонке.
func (s *Service) Redeem(ctx context.Context, userID int64, code string) (*Result, error) {
	const op = "redeem.Redeem"

	code = strings.ToUpper(strings.TrimSpace(code))

	redeemCode, err := s.repo.FindRedeemCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if redeemCode.IsUsed {
		return nil, ErrAlreadyUsed
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	duration := time.Duration(redeemCode.DurationDays) * 24 * time.Hour

	var expiry time.Time
	var action Action
	switch {
	case redeemCode.PlanType.Level() > user.Tier.Level():
		expiry = now.Add(duration)
		action = ActionUpgraded
	case redeemCode.PlanType.Level() == user.Tier.Level() && user.Tier != tiers.Free:
		if user.PremiumExpiry != nil && user.PremiumExpiry.After(now) {
			expiry = user.PremiumExpiry.Add(duration)
			action = ActionExtended
		} else {
			expiry = now.Add(duration)
			action = ActionActivated
		}
	default:
		expiry = now.Add(duration)
		action = ActionActivated
	}

	marked, err := s.repo.MarkRedeemCodeUsed(ctx, code, userID, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !marked {
		// Параллельная активация успела первой.
		return nil, ErrAlreadyUsed
	}

	if err := s.repo.UpdateUserTier(ctx, userID, redeemCode.PlanType, &expiry); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("redeem code applied", sl.UserID(userID),
		slog.String("code", code),
		slog.String("action", string(action)),
		slog.String("tier", string(redeemCode.PlanType)))

	return &Result{
		Tier:         redeemCode.PlanType,
		Expiry:       expiry,
		Action:       action,
		DurationDays: redeemCode.DurationDays,
	}, nil
}

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateCode выпускает новый шестисимвольный код для тарифа plan на days дней.
func (s *Service) GenerateCode(ctx context.Context, plan tiers.Tier, days int) (*models.RedeemCode, error) {
	const op = "redeem.GenerateCode"

	if plan == tiers.Free {
		return nil, fmt.Errorf("%s: cannot issue a code for the free tier", op)
	}

	raw := make([]byte, 6)
	for i := range raw {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		raw[i] = codeAlphabet[n.Int64()]
	}

	code := models.RedeemCode{
		Code:         string(raw),
		PlanType:     plan,
		DurationDays: days,
		CreatedDate:  s.now(),
	}
	if err := s.repo.CreateRedeemCode(ctx, code); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("issued redeem code", slog.String("tier", string(plan)), slog.Int("days", days))
	return &code, nil
}
