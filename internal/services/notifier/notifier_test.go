package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/archive-delivery/internal/models"
)

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) Notify(ctx context.Context, userID int64, text string) error {
	args := m.Called(ctx, userID, text)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestHandleExpiryNotice(t *testing.T) {
	notifierMock := new(NotifierMock)
	s := New(notifierMock, newNoopLogger())

	notice := models.ExpiryNotice{
		UserID:   42,
		Username: "alice",
		Tier:     "premium",
		Expiry:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}
	body, err := json.Marshal(notice)
	require.NoError(t, err)

	notifierMock.On("Notify", mock.Anything, int64(42), mock.MatchedBy(func(text string) bool {
		return text != ""
	})).Return(nil).Once()

	err = s.HandleExpiryNotice(body)
	assert.NoError(t, err)
	notifierMock.AssertExpectations(t)
}

func TestHandleExpiryNotice_InvalidJSON(t *testing.T) {
	s := New(nil, newNoopLogger())

	err := s.HandleExpiryNotice([]byte("{broken"))
	assert.Error(t, err)
}

func TestHandleExpiryNotice_NilNotifierLogsOnly(t *testing.T) {
	s := New(nil, newNoopLogger())

	body, err := json.Marshal(models.ExpiryNotice{UserID: 42, Tier: "premium"})
	require.NoError(t, err)

	assert.NoError(t, s.HandleExpiryNotice(body))
}

func TestHandleExpiryNotice_DeliveryFailure(t *testing.T) {
	notifierMock := new(NotifierMock)
	s := New(notifierMock, newNoopLogger())

	body, err := json.Marshal(models.ExpiryNotice{UserID: 42, Tier: "premium"})
	require.NoError(t, err)

	notifierMock.On("Notify", mock.Anything, int64(42), mock.Anything).
		Return(errors.New("chat unreachable")).Once()

	assert.Error(t, s.HandleExpiryNotice(body))
	notifierMock.AssertExpectations(t)
}

func TestHandleJobEvent(t *testing.T) {
	s := New(nil, newNoopLogger())

	event := models.JobEvent{
		UserID:    42,
		Filename:  "photos.zip",
		Status:    "completed",
		Delivered: 10,
		Total:     10,
		Timestamp: time.Now().UTC(),
	}
	body, err := json.Marshal(event)
	require.NoError(t, err)

	assert.NoError(t, s.HandleJobEvent(body))
	assert.Error(t, s.HandleJobEvent([]byte("not json")))
}
