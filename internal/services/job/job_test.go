package job

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/archive-delivery/internal/models"
	"github.com/magabrotheeeer/archive-delivery/internal/pipeline"
	"github.com/magabrotheeeer/archive-delivery/internal/registry"
)

type RunnerMock struct{ mock.Mock }

func (m *RunnerMock) Admit(ctx context.Context, req models.ArchiveRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *RunnerMock) Execute(ctx context.Context, req models.ArchiveRequest, tr pipeline.Transport) *pipeline.Outcome {
	return m.Called(ctx, req, tr).Get(0).(*pipeline.Outcome)
}

type transportStub struct{}

func (transportStub) SendProgress(context.Context, string) error { return nil }
func (transportStub) SendFile(context.Context, string, pipeline.FileOptions) (string, error) {
	return "", nil
}
func (transportStub) Mirror(context.Context, string, string) error { return nil }

type factoryStub struct {
	err error
}

func (f factoryStub) ForUser(int64) (pipeline.Transport, error) {
	if f.err != nil {
		return nil, f.err
	}
	return transportStub{}, nil
}

type publisherMock struct {
	mu     sync.Mutex
	events []models.JobEvent
	keys   []string
}

func (p *publisherMock) Publish(routingKey string, message any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	p.events = append(p.events, message.(models.JobEvent))
	return nil
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func testRequest() models.ArchiveRequest {
	return models.ArchiveRequest{UserID: 100, FileName: "photos.zip", FileSize: 1024}
}

func TestSubmit_RunsJobAndPublishesEvent(t *testing.T) {
	runner := new(RunnerMock)
	publisher := &publisherMock{}
	svc := New(runner, factoryStub{}, registry.New(), publisher, newNoopLogger(), 2)
	req := testRequest()

	runner.On("Admit", mock.Anything, req).Return(nil).Once()
	runner.On("Execute", mock.Anything, req, mock.Anything).
		Return(&pipeline.Outcome{Status: pipeline.StatusCompleted, Delivered: 3, Total: 3}).Once()

	require.NoError(t, svc.Submit(context.Background(), req))
	svc.Wait()

	runner.AssertExpectations(t)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, "job", publisher.keys[0])
	assert.Equal(t, int64(100), publisher.events[0].UserID)
	assert.Equal(t, "completed", publisher.events[0].Status)
	assert.Equal(t, 3, publisher.events[0].Delivered)
}

func TestSubmit_AdmissionFailureIsSynchronous(t *testing.T) {
	runner := new(RunnerMock)
	publisher := &publisherMock{}
	svc := New(runner, factoryStub{}, registry.New(), publisher, newNoopLogger(), 2)
	req := testRequest()

	runner.On("Admit", mock.Anything, req).Return(pipeline.ErrQuotaExceeded).Once()

	err := svc.Submit(context.Background(), req)
	assert.ErrorIs(t, err, pipeline.ErrQuotaExceeded)
	svc.Wait()

	runner.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, publisher.events)
}

func TestSubmit_TransportFactoryFailure(t *testing.T) {
	runner := new(RunnerMock)
	svc := New(runner, factoryStub{err: errors.New("no delivery dir")}, registry.New(), nil, newNoopLogger(), 2)

	err := svc.Submit(context.Background(), testRequest())
	assert.Error(t, err)
	runner.AssertNotCalled(t, "Admit", mock.Anything, mock.Anything)
}

func TestSubmit_BoundedConcurrencyCompletesAll(t *testing.T) {
	runner := new(RunnerMock)
	svc := New(runner, factoryStub{}, registry.New(), nil, newNoopLogger(), 1)

	var mu sync.Mutex
	executed := 0
	for i := int64(1); i <= 5; i++ {
		req := models.ArchiveRequest{UserID: i, FileName: "a.zip", FileSize: 1}
		runner.On("Admit", mock.Anything, req).Return(nil).Once()
		runner.On("Execute", mock.Anything, req, mock.Anything).
			Run(func(mock.Arguments) {
				mu.Lock()
				executed++
				mu.Unlock()
			}).
			Return(&pipeline.Outcome{Status: pipeline.StatusCompleted}).Once()
		require.NoError(t, svc.Submit(context.Background(), req))
	}
	svc.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, executed)
}

func TestCancel_DelegatesToRegistry(t *testing.T) {
	reg := registry.New()
	svc := New(new(RunnerMock), factoryStub{}, reg, nil, newNoopLogger(), 1)

	assert.False(t, svc.Cancel(100), "no active job to cancel")

	require.NoError(t, reg.Start(100, "extraction", "photos.zip"))
	assert.True(t, svc.Cancel(100))
	assert.Empty(t, svc.Active())
}

func TestRejectionReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{pipeline.ErrUnsupportedType, "unsupported_type"},
		{pipeline.ErrQuotaExceeded, "quota_exceeded"},
		{pipeline.ErrFileTooLarge, "file_too_large"},
		{registry.ErrAlreadyActive, "already_active"},
		{errors.New("boom"), "other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, rejectionReason(tt.err))
	}
}
