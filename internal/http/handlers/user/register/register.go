// Package register реализует HTTP-обработчик регистрации пользователя.
// Повторная регистрация обновляет имя и не трогает тариф и счетчики.
package register

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/archive-delivery/internal/http/response"
	"github.com/magabrotheeeer/archive-delivery/internal/lib/sl"
	"github.com/magabrotheeeer/archive-delivery/internal/models"
	"github.com/magabrotheeeer/archive-delivery/internal/tiers"
)

// Request входные данные регистрации.
type Request struct {
	UserID    int64  `json:"user_id" validate:"required,gt=0"`
	Username  string `json:"username" validate:"max=255"`
	FirstName string `json:"first_name" validate:"max=255"`
}

// Service описывает интерфейс хранилища пользователей.
type Service interface {
	RegisterUser(ctx context.Context, user models.User) error
}

// Handler обрабатывает запросы регистрации.
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
// @Summary Зарегистрировать пользователя
// @Description Создает пользователя с бесплатным тарифом или обновляет имя существующего.
// @Tags Users
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные пользователя"
// @Success 200 {object} map[string]any "Пользователь зарегистрирован"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /users [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.register"

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

	user := models.User{
		ID:        req.UserID,
		Username:  req.Username,
		FirstName: req.FirstName,
		JoinDate:  time.Now().UTC(),
		Tier:      tiers.Free,
	}
	if err := h.service.RegisterUser(r.Context(), user); err != nil {
		log.Error("failed to register user", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not register user"))
		return
	}

	log.Info("user registered", sl.UserID(req.UserID))
	render.JSON(w, r, response.OK())
}
