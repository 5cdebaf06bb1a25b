// Package jobactive реализует HTTP-обработчик снимка активных заданий.
package jobactive

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/archive-delivery/internal/http/response"
	"github.com/magabrotheeeer/archive-delivery/internal/registry"
)

// Service описывает интерфейс снимка активных заданий.
type Service interface {
	Active() []registry.ActiveProcess
}

// Handler обрабатывает запросы списка активных заданий.
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
// @Summary Активные задания
// @Description Возвращает снимок всех исполняющихся заданий доставки.
// @Tags Jobs
// @Produce  json
// @Success 200 {object} map[string]any "Список активных заданий"
// @Router /jobs/active [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	active := h.service.Active()

	items := make([]map[string]any, 0, len(active))
	for _, p := range active {
		items = append(items, map[string]any{
			"user_id":    p.UserID,
			"type":       p.Type,
			"filename":   p.Filename,
			"started_at": p.StartedAt,
		})
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"count": len(items),
		"jobs":  items,
	}))
}
