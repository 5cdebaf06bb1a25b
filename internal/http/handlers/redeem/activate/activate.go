// Package activate реализует HTTP-обработчик активации кода платного тарифа.
package activate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/archive-delivery/internal/http/response"
	"github.com/magabrotheeeer/archive-delivery/internal/lib/format"
	"github.com/magabrotheeeer/archive-delivery/internal/lib/sl"
	"github.com/magabrotheeeer/archive-delivery/internal/metrics"
	"github.com/magabrotheeeer/archive-delivery/internal/services/redeem"
)

// Request входные данные активации кода.
type Request struct {
	UserID int64  `json:"user_id" validate:"required,gt=0"`
	Code   string `json:"code" validate:"required,len=6,alphanum"`
}

// Service описывает интерфейс бизнес-логики активации кодов.
type Service interface {
	Redeem(ctx context.Context, userID int64, code string) (*redeem.Result, error)
}

// Handler обрабатывает запросы активации кодов.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Активировать код платного тарифа
// @Description Активирует одноразовый код: повышает, продлевает или включает платный тариф.
// @Tags Redeem
// @Accept  json
// @Produce  json
// @Param request body Request true "Пользователь и код"
// @Success 200 {object} map[string]any "Код активирован"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Код или пользователь не найден"
// @Failure 409 {object} response.ErrorResponse "Код уже использован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /redeem [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.redeem.activate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	result, err := h.service.Redeem(r.Context(), req.UserID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, redeem.ErrInvalidCode):
			log.Error("invalid redeem code", sl.UserID(req.UserID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("invalid redeem code"))
		case errors.Is(err, redeem.ErrAlreadyUsed):
			log.Error("redeem code already used", sl.UserID(req.UserID))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("redeem code already used"))
		case errors.Is(err, redeem.ErrNotRegistered):
			log.Error("user not registered", sl.UserID(req.UserID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user is not registered"))
		default:
			log.Error("failed to redeem code", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not redeem code"))
		}
		return
	}
	metrics.CodesRedeemed.WithLabelValues(string(result.Action)).Inc()

	log.Info("redeem code activated", sl.UserID(req.UserID),
		slog.String("action", string(result.Action)), slog.String("tier", string(result.Tier)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"action":        string(result.Action),
		"tier":          string(result.Tier),
		"expiry":        format.Date(&result.Expiry),
		"duration_days": result.DurationDays,
	}))
}
