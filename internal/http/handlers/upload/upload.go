// Package upload реализует HTTP-обработчик загрузки CSV со списком доменов.
//
// Handler принимает multipart-файл, разбирает из него домены и отправляет
// пачку на обогащение. За каждый обработанный лид списывается кредит.
package upload

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/lead-forge/internal/http/middlewarectx"
	"github.com/magabrotheeeer/lead-forge/internal/http/response"
	"github.com/magabrotheeeer/lead-forge/internal/lib/csvio"
	"github.com/magabrotheeeer/lead-forge/internal/lib/sl"
	batchservice "github.com/magabrotheeeer/lead-forge/internal/services/batch"
)

// maxUploadSize ограничивает размер загружаемого CSV.
const maxUploadSize = 5 << 20 // 5 MiB

// Handler управляет HTTP-запросами на загрузку CSV с доменами.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс пакетной обработки доменов.
type Service interface {
	ProcessDomains(ctx context.Context, username, sourceLabel string, domains []string) (*batchservice.Result, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Загрузить CSV с доменами
// @Description Принимает CSV-файл со списком доменов и обогащает каждый из них,
// @Description списывая по кредиту за лид. Возвращает итог обработки пачки.
// @Tags Jobs
// @Security BearerAuth
// @Accept  multipart/form-data
// @Produce  json
// @Param file formData file true "CSV с колонкой domain или website"
// @Success 200 {object} map[string]any "Итог обработки пачки"
// @Failure 400 {object} response.ErrorResponse "Файл отсутствует или не разбирается"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 402 {object} response.ErrorResponse "Кредиты на месяц исчерпаны"
// @Failure 422 {object} response.ErrorResponse "В файле нет ни одного домена"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при обработке"
// @Router /uploads [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.upload"
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

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		log.Error("failed to read uploaded file", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("file is required"))
		return
	}
	defer file.Close()

	domains, err := csvio.ParseDomains(file)
	if err != nil {
		log.Error("failed to parse csv", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("could not parse csv file"))
		return
	}
	if len(domains) == 0 {
		log.Warn("csv contains no domains", slog.String("filename", header.Filename))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("no domains found in file"))
		return
	}
	log.Info("csv parsed", slog.String("filename", header.Filename), slog.Int("domains", len(domains)))

	result, err := h.service.ProcessDomains(r.Context(), username, header.Filename, domains)
	if err != nil {
		if errors.Is(err, batchservice.ErrQuotaExceeded) {
			log.Warn("quota exceeded", slog.String("username", username))
			w.WriteHeader(http.StatusPaymentRequired)
			render.JSON(w, r, response.Error("monthly credit quota exceeded"))
			return
		}
		log.Error("failed to process batch", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not process file"))
		return
	}

	log.Info("batch processed",
		slog.Int64("job_id", result.JobID), slog.Int("processed", result.Processed))
	render.JSON(w, r, response.OKWithData(result))
}
