// Package read реализует просмотр одной задачи вместе с её лидами.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/lead-forge/internal/http/middlewarectx"
	"github.com/magabrotheeeer/lead-forge/internal/http/response"
	"github.com/magabrotheeeer/lead-forge/internal/lib/sl"
	"github.com/magabrotheeeer/lead-forge/internal/models"
	leadservice "github.com/magabrotheeeer/lead-forge/internal/services/lead"
)

// Handler управляет HTTP-запросами на просмотр задачи с лидами.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс чтения задачи вместе с лидами.
type Service interface {
	GetJobWithLeads(ctx context.Context, jobID int64, username string) (*models.Job, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Задача с лидами
// @Description Возвращает задачу обогащения пользователя вместе со всеми её лидами.
// @Tags Jobs
// @Security BearerAuth
// @Produce  json
// @Param id path int true "Идентификатор задачи"
// @Success 200 {object} map[string]any "Задача с лидами"
// @Failure 400 {object} response.ErrorResponse "Некорректный идентификатор"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Задача не найдена"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /jobs/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.job.read"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	username, ok := middlewarectx.Username(r.Context())
	if !ok {
		log.Error("username not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	jobID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Error("invalid job id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid job id"))
		return
	}

	job, err := h.service.GetJobWithLeads(r.Context(), jobID, username)
	if err != nil {
		if errors.Is(err, leadservice.ErrJobNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("job not found"))
			return
		}
		log.Error("failed to get job", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not get job"))
		return
	}

	render.JSON(w, r, response.OKWithData(job))
}
