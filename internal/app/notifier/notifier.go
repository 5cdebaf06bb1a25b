// Package notifier собирает сервис потребления очередей доставок.
package notifier

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/archive-delivery/internal/config"
	"github.com/magabrotheeeer/archive-delivery/internal/rabbitmq"
	notifierservice "github.com/magabrotheeeer/archive-delivery/internal/services/notifier"
)

// App сервис уведомлений.
type App struct {
	service *notifierservice.Service
	channel *amqp.Channel
	logger  *slog.Logger
	amqp    *amqp.Connection
}

// New собирает зависимости сервиса уведомлений.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitURL, cfg.RabbitRetries, cfg.RabbitDelay)
	if err != nil {
		return nil, err
	}
	channel, err := rabbitmq.SetupChannel(conn, rabbitmq.DeliveryQueues())
	if err != nil {
		return nil, err
	}

	service := notifierservice.New(nil, logger)

	return &App{
		service: service,
		channel: channel,
		logger:  logger,
		amqp:    conn,
	}, nil
}

// Run подписывается на очереди доставок и блокируется до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	go func() {
		if err := rabbitmq.ConsumerMessage(ctx, a.channel, "deliveries.expiry", a.service.HandleExpiryNotice); err != nil {
			a.logger.Error("expiry consumer stopped", slog.Any("err", err))
		}
	}()
	go func() {
		if err := rabbitmq.ConsumerMessage(ctx, a.channel, "deliveries.jobs", a.service.HandleJobEvent); err != nil {
			a.logger.Error("job events consumer stopped", slog.Any("err", err))
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutting down notifier")
	a.amqp.Close()
	return nil
}
