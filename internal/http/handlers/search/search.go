// Package search реализует поиск бизнесов по запросу и их обогащение.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/lead-forge/internal/http/middlewarectx"
	"github.com/magabrotheeeer/lead-forge/internal/http/response"
	"github.com/magabrotheeeer/lead-forge/internal/lib/sl"
	"github.com/magabrotheeeer/lead-forge/internal/models"
	batchservice "github.com/magabrotheeeer/lead-forge/internal/services/batch"
)

// Handler управляет HTTP-запросами на поиск и обогащение бизнесов.
type Handler struct {
	log      *slog.Logger
	searcher Searcher
	service  Service
	validate *validator.Validate
}

// Searcher описывает интерфейс поиска бизнесов во внешнем каталоге.
type Searcher interface {
	Search(ctx context.Context, query, country, state string) ([]models.BusinessResult, error)
}

// Service описывает интерфейс пакетной обработки найденных бизнесов.
type Service interface {
	ProcessBusinesses(ctx context.Context, username, sourceLabel string, businesses []models.BusinessResult) (*batchservice.Result, error)
}

// New создает новый Handler с переданными логгером, поисковиком и сервисом.
func New(log *slog.Logger, searcher Searcher, service Service) *Handler {
	return &Handler{
		log:      log,
		searcher: searcher,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Найти и обогатить бизнесы
// @Description Ищет бизнесы по запросу и локации во внешнем каталоге,
// @Description обогащает найденные и списывает по кредиту за лид.
// @Tags Jobs
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param request body models.SearchRequest true "Параметры поиска"
// @Success 200 {object} map[string]any "Итог обработки пачки"
// @Failure 400 {object} response.ErrorResponse "Некорректное тело запроса"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 402 {object} response.ErrorResponse "Кредиты на месяц исчерпаны"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при поиске"
// @Router /search [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.search"
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

	var req models.SearchRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode request"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var validateErr validator.ValidationErrors
		errors.As(err, &validateErr)
		log.Error("invalid request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(validateErr))
		return
	}

	businesses, err := h.searcher.Search(r.Context(), req.Query, req.Country, req.State)
	if err != nil {
		log.Error("business search failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("business search failed"))
		return
	}
	if len(businesses) == 0 {
		log.Info("search returned no businesses", slog.String("query", req.Query))
		render.JSON(w, r, response.OKWithData(map[string]any{
			"message": "no businesses found for this search",
		}))
		return
	}

	sourceLabel := fmt.Sprintf("Search: %s in %s, %s", req.Query, req.State, req.Country)
	result, err := h.service.ProcessBusinesses(r.Context(), username, sourceLabel, businesses)
	if err != nil {
		if errors.Is(err, batchservice.ErrQuotaExceeded) {
			log.Warn("quota exceeded", slog.String("username", username))
			w.WriteHeader(http.StatusPaymentRequired)
			render.JSON(w, r, response.Error("monthly credit quota exceeded"))
			return
		}
		log.Error("failed to process batch", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not process search results"))
		return
	}

	log.Info("search batch processed",
		slog.Int64("job_id", result.JobID), slog.Int("processed", result.Processed))
	render.JSON(w, r, response.OKWithData(result))
}
