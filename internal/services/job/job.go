// Package job содержит бизнес-логику управления заданиями доставки:
// синхронный допуск, асинхронное исполнение с ограничением параллелизма,
// отмена и публикация терминальных событий.
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/archive-delivery/internal/lib/sl"
	"github.com/magabrotheeeer/archive-delivery/internal/metrics"
	"github.com/magabrotheeeer/archive-delivery/internal/models"
	"github.com/magabrotheeeer/archive-delivery/internal/pipeline"
	"github.com/magabrotheeeer/archive-delivery/internal/rabbitmq"
	"github.com/magabrotheeeer/archive-delivery/internal/registry"
	"github.com/magabrotheeeer/archive-delivery/internal/services/quota"
)

// Runner проводит задание через фазу допуска и стадии конвейера.
type Runner interface {
	Admit(ctx context.Context, req models.ArchiveRequest) error
	Execute(ctx context.Context, req models.ArchiveRequest, tr pipeline.Transport) *pipeline.Outcome
}

// TransportFactory выдает транспорт доставки для пользователя.
type TransportFactory interface {
	ForUser(userID int64) (pipeline.Transport, error)
}

// Publisher публикует события заданий во внешнюю очередь.
type Publisher interface {
	Publish(routingKey string, message any) error
}

// Registry операции реестра, нужные сервису: отмена и снимок активных процессов.
type Registry interface {
	RequestCancel(userID int64) bool
	Active() []registry.ActiveProcess
}

// Service управляет жизненным циклом заданий доставки.
// Отказ в допуске возвращается вызывающему синхронно; допущенное задание
// исполняется в фоне, параллелизм ограничен семафором.
type Service struct {
	runner     Runner
	transports TransportFactory
	registry   Registry
	publisher  Publisher // nil отключает публикацию событий
	log        *slog.Logger

	sem chan struct{}
	wg  sync.WaitGroup
}

// New создает новый Service. maxConcurrent ограничивает число одновременно
// исполняемых заданий.
func New(runner Runner, transports TransportFactory, reg Registry,
	publisher Publisher, log *slog.Logger, maxConcurrent int) *Service {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Service{
		runner:     runner,
		transports: transports,
		registry:   reg,
		publisher:  publisher,
		log:        log,
		sem:        make(chan struct{}, maxConcurrent),
	}
}

// Submit допускает задание и запускает его исполнение в фоне.
// Ошибка допуска означает, что задание не стартовало и ничего не заняло.
func (s *Service) Submit(ctx context.Context, req models.ArchiveRequest) error {
	const op = "job.Submit"

	tr, err := s.transports.ForUser(req.UserID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.runner.Admit(ctx, req); err != nil {
		metrics.JobsRejected.WithLabelValues(rejectionReason(err)).Inc()
		return err
	}
	metrics.JobsStarted.Inc()
	metrics.ActiveJobs.Inc()

	s.wg.Add(1)
	// Исполнение переживает HTTP-запрос, породивший задание.
	execCtx := context.WithoutCancel(ctx)
	go func() {
		defer s.wg.Done()
		defer metrics.ActiveJobs.Dec()

		s.sem <- struct{}{}
		defer func() { <-s.sem }()

		start := time.Now()
		outcome := s.runner.Execute(execCtx, req, tr)

		metrics.JobsFinished.WithLabelValues(string(outcome.Status)).Inc()
		metrics.JobDuration.Observe(time.Since(start).Seconds())
		metrics.FilesDelivered.Add(float64(outcome.Delivered))

		s.publishEvent(req, outcome)
		s.log.Info("job finished",
			sl.UserID(req.UserID),
			slog.String("status", string(outcome.Status)),
			slog.Int("delivered", outcome.Delivered))
	}()
	return nil
}

// Cancel запрашивает отмену активного задания пользователя.
// Возвращает false, если активного задания нет.
func (s *Service) Cancel(userID int64) bool {
	return s.registry.RequestCancel(userID)
}

// Active возвращает снимок активных заданий.
func (s *Service) Active() []registry.ActiveProcess {
	return s.registry.Active()
}

// Wait блокируется до завершения всех запущенных заданий.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) publishEvent(req models.ArchiveRequest, outcome *pipeline.Outcome) {
	if s.publisher == nil {
		return
	}
	event := models.JobEvent{
		UserID:    req.UserID,
		Filename:  req.FileName,
		Status:    string(outcome.Status),
		Delivered: outcome.Delivered,
		Total:     outcome.Total,
		Timestamp: time.Now().UTC(),
	}
	if err := s.publisher.Publish(rabbitmq.JobEventsRoutingKey, event); err != nil {
		s.log.Warn("failed to publish job event", sl.Err(err))
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, pipeline.ErrUnsupportedType):
		return "unsupported_type"
	case errors.Is(err, pipeline.ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, pipeline.ErrFileTooLarge):
		return "file_too_large"
	case errors.Is(err, registry.ErrAlreadyActive):
		return "already_active"
	case errors.Is(err, quota.ErrNotRegistered):
		return "not_registered"
	default:
		return "other"
	}
}
