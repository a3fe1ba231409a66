// Package list реализует выдачу списка задач обогащения пользователя.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/lead-forge/internal/http/middlewarectx"
	"github.com/magabrotheeeer/lead-forge/internal/http/response"
	"github.com/magabrotheeeer/lead-forge/internal/lib/sl"
	"github.com/magabrotheeeer/lead-forge/internal/models"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Handler управляет HTTP-запросами на получение списка задач.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс чтения задач пользователя.
type Service interface {
	ListJobs(ctx context.Context, username string, limit, offset int) ([]*models.Job, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список задач пользователя
// @Description Возвращает задачи обогащения текущего пользователя, новые первыми.
// @Tags Jobs
// @Security BearerAuth
// @Produce  json
// @Param limit query int false "Максимум задач в ответе" default(20)
// @Param offset query int false "Смещение" default(0)
// @Success 200 {object} map[string]any "Список задач"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /jobs [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.job.list"
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

	limit := queryInt(r, "limit", defaultLimit)
	if limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	jobs, err := h.service.ListJobs(r.Context(), username, limit, offset)
	if err != nil {
		log.Error("failed to list jobs", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list jobs"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"jobs":  jobs,
		"count": len(jobs),
	}))
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
