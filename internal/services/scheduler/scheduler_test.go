package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/archive-delivery/internal/models"
	"github.com/magabrotheeeer/archive-delivery/internal/rabbitmq"
	"github.com/magabrotheeeer/archive-delivery/internal/tiers"
)

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) ResetAllDailyCounts(ctx context.Context, resetAt time.Time) (int, error) {
	args := m.Called(ctx, resetAt)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) FindPremiumExpiringToday(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]*models.User)
	return users, args.Error(1)
}

type publisherMock struct {
	mock.Mock
}

func (m *publisherMock) Publish(routingKey string, message any) error {
	args := m.Called(routingKey, message)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRunDailyReset_Once(t *testing.T) {
	repo := new(RepoMock)
	pub := new(publisherMock)
	s := New(repo, pub, newNoopLogger())

	fixed := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	repo.On("ResetAllDailyCounts", mock.Anything, fixed).Return(17, nil).Once()

	s.runDailyReset(context.Background())

	repo.AssertExpectations(t)
}

func TestRunExpiryNotices_PublishesPerUser(t *testing.T) {
	repo := new(RepoMock)
	pub := new(publisherMock)
	s := New(repo, pub, newNoopLogger())

	expiry := time.Date(2026, 8, 31, 23, 59, 0, 0, time.UTC)
	users := []*models.User{
		{ID: 1, Username: "alice", Tier: tiers.Premium, PremiumExpiry: &expiry},
		{ID: 2, Username: "bob", Tier: tiers.UltraPremium, PremiumExpiry: &expiry},
	}

	repo.On("FindPremiumExpiringToday", mock.Anything).Return(users, nil).Once()
	pub.On("Publish", rabbitmq.ExpiryNoticeRoutingKey, mock.MatchedBy(func(m any) bool {
		notice, ok := m.(models.ExpiryNotice)
		return ok && notice.Expiry.Equal(expiry)
	})).Return(nil).Twice()

	s.runExpiryNotices(context.Background())

	repo.AssertExpectations(t)
	pub.AssertExpectations(t)

	require.Len(t, pub.Calls, 2)
	first := pub.Calls[0].Arguments.Get(1).(models.ExpiryNotice)
	assert.Equal(t, int64(1), first.UserID)
	assert.Equal(t, "alice", first.Username)
	assert.Equal(t, "premium", first.Tier)
}

func TestRunExpiryNotices_NoUsers(t *testing.T) {
	repo := new(RepoMock)
	pub := new(publisherMock)
	s := New(repo, pub, newNoopLogger())

	repo.On("FindPremiumExpiringToday", mock.Anything).Return([]*models.User(nil), nil).Once()

	s.runExpiryNotices(context.Background())

	repo.AssertExpectations(t)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestRunExpiryNotices_PublishFailureContinues(t *testing.T) {
	repo := new(RepoMock)
	pub := new(publisherMock)
	s := New(repo, pub, newNoopLogger())

	expiry := time.Now().UTC()
	users := []*models.User{
		{ID: 1, Username: "alice", Tier: tiers.Premium, PremiumExpiry: &expiry},
		{ID: 2, Username: "bob", Tier: tiers.Premium, PremiumExpiry: &expiry},
	}

	repo.On("FindPremiumExpiringToday", mock.Anything).Return(users, nil).Once()
	pub.On("Publish", rabbitmq.ExpiryNoticeRoutingKey, mock.Anything).
		Return(errors.New("channel closed")).Once()
	pub.On("Publish", rabbitmq.ExpiryNoticeRoutingKey, mock.Anything).
		Return(nil).Once()

	s.runExpiryNotices(context.Background())

	repo.AssertExpectations(t)
	pub.AssertNumberOfCalls(t, "Publish", 2)
}
