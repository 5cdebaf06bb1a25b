// Package login реализует HTTP-обработчик входа администратора.
//
// Пароль сверяется с bcrypt-хешем из конфигурации; при успехе возвращается
// JWT с ролью admin для остальных административных конечных точек.
package login

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/archive-delivery/internal/http/response"
	"github.com/magabrotheeeer/archive-delivery/internal/lib/jwt"
	"github.com/magabrotheeeer/archive-delivery/internal/lib/password"
	"github.com/magabrotheeeer/archive-delivery/internal/lib/sl"
)

// AdminUsername единственная учетная запись административного API.
const AdminUsername = "admin"

// Request входные данные для входа администратора.
type Request struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6"`
}

// Handler обрабатывает запросы входа администратора.
type Handler struct {
	log       *slog.Logger
	maker     jwt.Maker
	adminHash string // bcrypt-хеш пароля администратора из конфигурации
	validate  *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, maker jwt.Maker, adminHash string) *Handler {
	return &Handler{
		log:       log,
		maker:     maker,
		adminHash: adminHash,
		validate:  validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Вход администратора
// @Description Аутентифицирует администратора по паролю. Возвращает JWT с ролью admin.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body Request true "Учетные данные администратора"
// @Success 200 {object} map[string]any "Успешная авторизация"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /admin/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.login"

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

	if req.Username != AdminUsername || password.CompareHash(h.adminHash, req.Password) != nil {
		log.Error("invalid credentials", slog.String("username", req.Username))
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid credentials"))
		return
	}

	token, err := h.maker.GenerateToken(req.Username, "admin")
	if err != nil {
		log.Error("failed to generate token", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not generate token"))
		return
	}

	log.Info("admin login success")
	render.JSON(w, r, response.OKWithData(map[string]any{
		"token":    token,
		"role":     "admin",
		"username": req.Username,
	}))
}
