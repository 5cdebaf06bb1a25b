// Package codecreate реализует HTTP-обработчик выпуска кодов активации
// платных тарифов. Доступен только с ролью admin.
package codecreate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/archive-delivery/internal/http/response"
	"github.com/magabrotheeeer/archive-delivery/internal/lib/sl"
	"github.com/magabrotheeeer/archive-delivery/internal/models"
	"github.com/magabrotheeeer/archive-delivery/internal/tiers"
)

// Request входные данные для выпуска кода.
type Request struct {
	PlanType     string `json:"plan_type" validate:"required,oneof=premium ultra_premium"`
	DurationDays int    `json:"duration_days" validate:"required,gt=0"`
}

// Service описывает интерфейс бизнес-логики выпуска кодов.
type Service interface {
	GenerateCode(ctx context.Context, plan tiers.Tier, days int) (*models.RedeemCode, error)
}

// Handler обрабатывает запросы на выпуск кодов активации.
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
// @Summary Выпустить код активации
// @Description Создает одноразовый код активации платного тарифа.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body Request true "Тариф и длительность"
// @Success 200 {object} map[string]any "Код создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/codes [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.codecreate"

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

	plan, err := tiers.Parse(req.PlanType)
	if err != nil {
		log.Error("unknown plan type", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("unknown plan type"))
		return
	}

	code, err := h.service.GenerateCode(r.Context(), plan, req.DurationDays)
	if err != nil {
		log.Error("failed to generate redeem code", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not generate redeem code"))
		return
	}

	log.Info("redeem code created", slog.String("plan", string(code.PlanType)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"code":          code.Code,
		"plan_type":     string(code.PlanType),
		"duration_days": code.DurationDays,
	}))
}
