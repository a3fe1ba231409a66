// Package credits реализует выдачу остатка кредитов и текущего тарифа.
package credits

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/lead-forge/internal/http/middlewarectx"
	"github.com/magabrotheeeer/lead-forge/internal/http/response"
	"github.com/magabrotheeeer/lead-forge/internal/lib/sl"
	"github.com/magabrotheeeer/lead-forge/internal/models"
)

// freeDefaultCredits остаток для пользователя без подписки.
const freeDefaultCredits = 10

// Handler управляет HTTP-запросами на просмотр остатка кредитов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс чтения подписки и остатка кредитов.
type Service interface {
	GetActiveSubscription(ctx context.Context, username string) (*models.UserSubscription, error)
	AvailableCredits(ctx context.Context, username string) (int, error)
	ResetIfDue(ctx context.Context, username string) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Остаток кредитов
// @Description Возвращает тариф пользователя, использованные за месяц кредиты и остаток.
// @Tags Billing
// @Security BearerAuth
// @Produce  json
// @Success 200 {object} map[string]any "Тариф и остаток кредитов"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /credits [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.credits"
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

	if err := h.service.ResetIfDue(r.Context(), username); err != nil {
		log.Error("failed to reset usage", sl.Err(err))
	}

	sub, err := h.service.GetActiveSubscription(r.Context(), username)
	if err != nil {
		log.Error("failed to get subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not get subscription"))
		return
	}
	available, err := h.service.AvailableCredits(r.Context(), username)
	if err != nil {
		log.Error("failed to get available credits", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not get available credits"))
		return
	}

	plan := models.FreePlanName
	limit := freeDefaultCredits
	used := 0
	if sub != nil {
		used = sub.LeadsUsedThisMonth
		if sub.Plan != nil {
			plan = sub.Plan.Name
			limit = sub.Plan.LeadLimit
		}
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"plan":              plan,
		"lead_limit":        limit,
		"used_this_month":   used,
		"remaining_credits": available,
	}))
}
