// Package scheduler собирает сервис фоновых задач: суточный сброс
// счетчиков и рассылку уведомлений об истекающих тарифах.
package scheduler

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/archive-delivery/internal/config"
	"github.com/magabrotheeeer/archive-delivery/internal/rabbitmq"
	schedulerservice "github.com/magabrotheeeer/archive-delivery/internal/services/scheduler"
	"github.com/magabrotheeeer/archive-delivery/internal/storage/repository"
)

// App сервис фоновых задач.
type App struct {
	service *schedulerservice.Service
	logger  *slog.Logger
	db      *repository.Storage
	amqp    *amqp.Connection
}

// New собирает зависимости планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitURL, cfg.RabbitRetries, cfg.RabbitDelay)
	if err != nil {
		return nil, err
	}
	channel, err := rabbitmq.SetupChannel(conn, rabbitmq.DeliveryQueues())
	if err != nil {
		return nil, err
	}

	publisher := rabbitmq.ChannelPublisher{Channel: channel}
	service := schedulerservice.New(db, publisher, logger)

	return &App{
		service: service,
		logger:  logger,
		db:      db,
		amqp:    conn,
	}, nil
}

// Run запускает фоновые циклы и блокируется до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	go a.service.RunDailyReset(ctx)
	go a.service.RunExpiryNotices(ctx)

	<-ctx.Done()
	a.logger.Info("shutting down scheduler")
	a.amqp.Close()
	a.db.DB.Close()
	return nil
}
