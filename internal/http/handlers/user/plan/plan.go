// Package plan реализует HTTP-обработчик сводки тарифа и использования.
package plan

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/archive-delivery/internal/http/response"
	"github.com/magabrotheeeer/archive-delivery/internal/lib/format"
	"github.com/magabrotheeeer/archive-delivery/internal/lib/sl"
	"github.com/magabrotheeeer/archive-delivery/internal/services/quota"
)

// Service описывает интерфейс бизнес-логики сводки тарифа.
type Service interface {
	Stats(ctx context.Context, userID int64) (*quota.PlanStats, error)
}

// Handler обрабатывает запросы сводки тарифа.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Сводка тарифа пользователя
// @Description Возвращает тариф, суточное использование и лимиты пользователя.
// @Tags Users
// @Produce  json
// @Param id path int true "ID пользователя"
// @Success 200 {object} map[string]any "Сводка тарифа"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /users/{id}/plan [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.plan"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || userID <= 0 {
		log.Error("invalid user id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid user id"))
		return
	}

	stats, err := h.service.Stats(r.Context(), userID)
	if err != nil {
		if errors.Is(err, quota.ErrNotRegistered) {
			log.Error("user not registered", sl.UserID(userID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user is not registered"))
			return
		}
		log.Error("failed to load plan stats", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not load plan stats"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"tier":           string(stats.Tier),
		"daily_used":     stats.DailyUsed,
		"daily_limit":    stats.DailyLimit,
		"max_file_size":  format.Size(stats.MaxFileSize),
		"premium_expiry": format.Date(stats.PremiumExpiry),
		"join_date":      stats.JoinDate,
	}))
}
