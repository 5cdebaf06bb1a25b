// Package jobcancel реализует HTTP-обработчик отмены активного задания.
// Отмена кооперативная: задание сворачивается на ближайшей контрольной точке.
package jobcancel

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/archive-delivery/internal/http/response"
	"github.com/magabrotheeeer/archive-delivery/internal/lib/sl"
)

// Service описывает интерфейс бизнес-логики отмены.
type Service interface {
	Cancel(userID int64) bool
}

// Handler обрабатывает запросы отмены заданий.
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
// @Summary Отменить активное задание пользователя
// @Description Запрашивает кооперативную отмену; уже доставленные файлы остаются у получателя.
// @Tags Jobs
// @Produce  json
// @Param user_id path int true "ID пользователя"
// @Success 200 {object} map[string]any "Отмена запрошена"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Нет активного задания"
// @Router /jobs/{user_id}/cancel [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.job.jobcancel"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil || userID <= 0 {
		log.Error("invalid user id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid user id"))
		return
	}

	if !h.service.Cancel(userID) {
		log.Info("no active process to cancel", sl.UserID(userID))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("no active process found"))
		return
	}

	log.Info("cancellation requested", sl.UserID(userID))
	render.JSON(w, r, response.OK())
}
