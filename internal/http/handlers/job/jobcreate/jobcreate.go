// Package jobcreate реализует HTTP-обработчик постановки задания доставки.
//
// Отказ в допуске возвращается синхронно с кодом, соответствующим причине;
// допущенное задание исполняется в фоне, ответ не ждет его завершения.
package jobcreate

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
	"github.com/magabrotheeeer/archive-delivery/internal/lib/sl"
	"github.com/magabrotheeeer/archive-delivery/internal/models"
	"github.com/magabrotheeeer/archive-delivery/internal/pipeline"
	"github.com/magabrotheeeer/archive-delivery/internal/registry"
	"github.com/magabrotheeeer/archive-delivery/internal/services/quota"
)

// Request входные данные задания доставки.
type Request struct {
	UserID   int64  `json:"user_id" validate:"required,gt=0"`
	FileName string `json:"file_name" validate:"required,max=512"`
	FileSize int64  `json:"file_size" validate:"required,gt=0"`
	Source   string `json:"source" validate:"required"`
	Password string `json:"password"`
}

// Service описывает интерфейс бизнес-логики заданий.
type Service interface {
	Submit(ctx context.Context, req models.ArchiveRequest) error
}

// Handler обрабатывает запросы постановки заданий.
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
// @Summary Поставить задание доставки архива
// @Description Допускает задание по квоте и запускает его исполнение в фоне.
// @Tags Jobs
// @Accept  json
// @Produce  json
// @Param request body Request true "Параметры задания"
// @Success 202 {object} map[string]any "Задание принято"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Пользователь не зарегистрирован"
// @Failure 409 {object} response.ErrorResponse "Уже есть активное задание"
// @Failure 413 {object} response.ErrorResponse "Файл превышает лимит тарифа"
// @Failure 415 {object} response.ErrorResponse "Неподдерживаемый тип архива"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 429 {object} response.ErrorResponse "Суточная квота исчерпана"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /jobs [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.job.jobcreate"

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

	err := h.service.Submit(r.Context(), models.ArchiveRequest{
		UserID:   req.UserID,
		FileName: req.FileName,
		FileSize: req.FileSize,
		Source:   req.Source,
		Password: req.Password,
	})
	if err != nil {
		status := admissionStatus(err)
		log.Error("job rejected", sl.Err(err), slog.Int("status", status))
		w.WriteHeader(status)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	log.Info("job accepted", sl.UserID(req.UserID), slog.String("filename", req.FileName))
	w.WriteHeader(http.StatusAccepted)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"accepted": true,
	}))
}

func admissionStatus(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, pipeline.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, pipeline.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, registry.ErrAlreadyActive):
		return http.StatusConflict
	case errors.Is(err, quota.ErrNotRegistered):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
