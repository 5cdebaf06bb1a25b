// Package archivedelivery собирает основной сервис доставки архивов:
// хранилище, кеш, брокер, конвейер и HTTP API.
package archivedelivery

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/archive-delivery/internal/cache"
	"github.com/magabrotheeeer/archive-delivery/internal/config"
	"github.com/magabrotheeeer/archive-delivery/internal/download"
	"github.com/magabrotheeeer/archive-delivery/internal/extract"
	"github.com/magabrotheeeer/archive-delivery/internal/lib/jwt"
	"github.com/magabrotheeeer/archive-delivery/internal/migrations"
	"github.com/magabrotheeeer/archive-delivery/internal/pipeline"
	"github.com/magabrotheeeer/archive-delivery/internal/rabbitmq"
	"github.com/magabrotheeeer/archive-delivery/internal/registry"
	jobservice "github.com/magabrotheeeer/archive-delivery/internal/services/job"
	quotaservice "github.com/magabrotheeeer/archive-delivery/internal/services/quota"
	redeemservice "github.com/magabrotheeeer/archive-delivery/internal/services/redeem"
	settingsservice "github.com/magabrotheeeer/archive-delivery/internal/services/settings"
	"github.com/magabrotheeeer/archive-delivery/internal/storage/repository"
	"github.com/magabrotheeeer/archive-delivery/internal/transport"
)

// App основной сервис доставки архивов.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	amqp   *amqp.Connection
	jobs   *jobservice.Service
}

// New собирает все зависимости сервиса.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
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

	quotaService := quotaservice.New(db, logger)
	redeemService := redeemservice.New(db, logger)
	settingsService := settingsservice.New(db, cacheRedis, logger)

	reg := registry.New()
	downloader := download.New(logger)
	extractor := extract.New(cfg.SevenZipPath, logger)

	pipe := pipeline.New(quotaService, reg, downloader, extractor,
		settingsService, db, logger, cfg.Download)

	var uploader transport.Uploader
	if cfg.Mirror.Bucket != "" {
		uploader = transport.NewMirrorClient(cfg.Mirror, logger)
	}
	transports := transport.NewFactory(cfg.DeliveryDir, uploader, logger)

	publisher := rabbitmq.ChannelPublisher{Channel: channel}
	jobService := jobservice.New(pipe, transports, reg, publisher, logger, cfg.MaxConcurrent)

	maker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, db, jobService, quotaService, redeemService,
		settingsService, maker, cfg.AdminPasswordHash)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		amqp:   conn,
		jobs:   jobService,
	}, nil
}

// Run запускает HTTP-сервер и блокируется до отмены контекста. При
// завершении дожидается исполняющихся заданий доставки.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.logger.Info("waiting for running jobs to finish")
		a.jobs.Wait()
		a.amqp.Close()
		a.db.DB.Close()
		return err
	}
}
