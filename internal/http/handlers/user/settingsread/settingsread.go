// Package settingsread реализует HTTP-обработчик чтения настроек доставки.
package settingsread

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/archive-delivery/internal/http/response"
	"github.com/magabrotheeeer/archive-delivery/internal/lib/sl"
	"github.com/magabrotheeeer/archive-delivery/internal/models"
)

// Service описывает интерфейс бизнес-логики настроек.
type Service interface {
	UserSettings(ctx context.Context, userID int64) (models.UserSettings, error)
}

// Handler обрабатывает запросы чтения настроек.
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
// @Summary Настройки доставки пользователя
// @Description Возвращает настройки преобразования имен и подписей; для нового пользователя — значения по умолчанию.
// @Tags Users
// @Produce  json
// @Param id path int true "ID пользователя"
// @Success 200 {object} map[string]any "Настройки доставки"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /users/{id}/settings [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.settingsread"

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

	st, err := h.service.UserSettings(r.Context(), userID)
	if err != nil {
		log.Error("failed to load user settings", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not load user settings"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"upload_as_document":    st.UploadAsDocument,
		"custom_caption":        st.CustomCaption,
		"thumbnail":             st.Thumbnail,
		"caption_replacements":  st.CaptionReplacements,
		"filename_replacements": st.FilenameReplacements,
		"filename_prefix":       st.FilenamePrefix,
		"filename_suffix":       st.FilenameSuffix,
	}))
}
