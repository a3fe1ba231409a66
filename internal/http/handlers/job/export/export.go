// Package export реализует выгрузку лидов задачи в CSV-файл.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/lead-forge/internal/http/middlewarectx"
	"github.com/magabrotheeeer/lead-forge/internal/http/response"
	"github.com/magabrotheeeer/lead-forge/internal/lib/sl"
	leadservice "github.com/magabrotheeeer/lead-forge/internal/services/lead"
)

// Handler управляет HTTP-запросами на выгрузку лидов в CSV.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс экспорта лидов задачи.
type Service interface {
	ExportCSV(ctx context.Context, jobID int64, username string) ([]byte, string, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Выгрузить лиды задачи в CSV
// @Description Возвращает CSV-файл со всеми лидами задачи как вложение.
// @Tags Jobs
// @Security BearerAuth
// @Produce  text/csv
// @Param id path int true "Идентификатор задачи"
// @Success 200 {string} string "CSV-файл с лидами"
// @Failure 400 {object} response.ErrorResponse "Некорректный идентификатор"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Задача не найдена"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /jobs/{id}/export [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.job.export"
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

	data, filename, err := h.service.ExportCSV(r.Context(), jobID, username)
	if err != nil {
		if errors.Is(err, leadservice.ErrJobNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("job not found"))
			return
		}
		log.Error("failed to export leads", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not export leads"))
		return
	}

	log.Info("leads exported", slog.Int64("job_id", jobID), slog.String("filename", filename))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Error("failed to write csv body", sl.Err(err))
	}
}
