// Package archivedelivery предоставляет маршруты для основного приложения.
package archivedelivery

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/archive-delivery/internal/http/handlers/admin/codecreate"
	adminlogin "github.com/magabrotheeeer/archive-delivery/internal/http/handlers/admin/login"
	"github.com/magabrotheeeer/archive-delivery/internal/http/handlers/health"
	"github.com/magabrotheeeer/archive-delivery/internal/http/handlers/job/jobactive"
	"github.com/magabrotheeeer/archive-delivery/internal/http/handlers/job/jobcancel"
	"github.com/magabrotheeeer/archive-delivery/internal/http/handlers/job/jobcreate"
	"github.com/magabrotheeeer/archive-delivery/internal/http/handlers/redeem/activate"
	"github.com/magabrotheeeer/archive-delivery/internal/http/handlers/user/plan"
	"github.com/magabrotheeeer/archive-delivery/internal/http/handlers/user/register"
	"github.com/magabrotheeeer/archive-delivery/internal/http/handlers/user/settingsread"
	"github.com/magabrotheeeer/archive-delivery/internal/http/handlers/user/settingsupdate"
	"github.com/magabrotheeeer/archive-delivery/internal/http/middlewarectx"
	"github.com/magabrotheeeer/archive-delivery/internal/lib/jwt"
	jobservice "github.com/magabrotheeeer/archive-delivery/internal/services/job"
	quotaservice "github.com/magabrotheeeer/archive-delivery/internal/services/quota"
	redeemservice "github.com/magabrotheeeer/archive-delivery/internal/services/redeem"
	settingsservice "github.com/magabrotheeeer/archive-delivery/internal/services/settings"
	"github.com/magabrotheeeer/archive-delivery/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger,
	db *repository.Storage,
	jobService *jobservice.Service,
	quotaService *quotaservice.Service,
	redeemService *redeemservice.Service,
	settingsService *settingsservice.Service,
	maker jwt.Maker, adminHash string) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Get("/health", health.New(logger).ServeHTTP)
		r.Post("/users", register.New(logger, db).ServeHTTP)
		r.Get("/users/{id}/plan", plan.New(logger, quotaService).ServeHTTP)
		r.Get("/users/{id}/settings", settingsread.New(logger, settingsService).ServeHTTP)
		r.Put("/users/{id}/settings", settingsupdate.New(logger, settingsService).ServeHTTP)

		r.Post("/jobs", jobcreate.New(logger, jobService).ServeHTTP)
		r.Post("/jobs/{user_id}/cancel", jobcancel.New(logger, jobService).ServeHTTP)
		r.Get("/jobs/active", jobactive.New(logger, jobService).ServeHTTP)

		r.Post("/redeem", activate.New(logger, redeemService).ServeHTTP)

		r.Post("/admin/login", adminlogin.New(logger, maker, adminHash).ServeHTTP)

		// Административная группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(maker, logger))
			r.Use(middlewarectx.RequireRole("admin", logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/admin/codes", codecreate.New(logger, redeemService).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
