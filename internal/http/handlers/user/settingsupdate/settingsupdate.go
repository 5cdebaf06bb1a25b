// Package settingsupdate реализует HTTP-обработчик обновления настроек доставки.
package settingsupdate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/archive-delivery/internal/http/response"
	"github.com/magabrotheeeer/archive-delivery/internal/lib/sl"
	"github.com/magabrotheeeer/archive-delivery/internal/models"
)

// Request входные данные обновления настроек. Отсутствующие указательные
// поля сохраняются как NULL.
type Request struct {
	UploadAsDocument     bool    `json:"upload_as_document"`
	CustomCaption        *string `json:"custom_caption"`
	Thumbnail            *string `json:"thumbnail"`
	CaptionReplacements  string  `json:"caption_replacements" validate:"max=1024"`
	FilenameReplacements string  `json:"filename_replacements" validate:"max=1024"`
	FilenamePrefix       *string `json:"filename_prefix"`
	FilenameSuffix       *string `json:"filename_suffix"`
}

// Service описывает интерфейс бизнес-логики настроек.
type Service interface {
	Update(ctx context.Context, st models.UserSettings) error
}

// Handler обрабатывает запросы обновления настроек.
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
// @Summary Обновить настройки доставки
// @Description Полностью перезаписывает настройки преобразования имен и подписей пользователя.
// @Tags Users
// @Accept  json
// @Produce  json
// @Param id path int true "ID пользователя"
// @Param request body Request true "Новые настройки"
// @Success 200 {object} map[string]any "Настройки обновлены"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ID"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /users/{id}/settings [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.settingsupdate"

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

	st := models.UserSettings{
		UserID:               userID,
		UploadAsDocument:     req.UploadAsDocument,
		CustomCaption:        req.CustomCaption,
		Thumbnail:            req.Thumbnail,
		CaptionReplacements:  req.CaptionReplacements,
		FilenameReplacements: req.FilenameReplacements,
		FilenamePrefix:       req.FilenamePrefix,
		FilenameSuffix:       req.FilenameSuffix,
	}
	if err := h.service.Update(r.Context(), st); err != nil {
		log.Error("failed to update user settings", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update user settings"))
		return
	}

	log.Info("user settings updated", sl.UserID(userID))
	render.JSON(w, r, response.OK())
}
