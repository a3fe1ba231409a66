// Package checkout реализует создание платёжной сессии для выбранного тарифа.
package checkout

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/lead-forge/internal/http/middlewarectx"
	"github.com/magabrotheeeer/lead-forge/internal/http/response"
	"github.com/magabrotheeeer/lead-forge/internal/lib/sl"
	"github.com/magabrotheeeer/lead-forge/internal/models"
	paymentservice "github.com/magabrotheeeer/lead-forge/internal/services/payment"
)

// Handler управляет HTTP-запросами на создание платёжной сессии.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс создания платёжной сессии.
type Service interface {
	CreateCheckout(ctx context.Context, username string, planID int64) (string, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать платёжную сессию
// @Description Создает у платёжного провайдера сессию оплаты выбранного тарифа
// @Description и возвращает ссылку для перехода на страницу оплаты.
// @Tags Billing
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param request body models.CheckoutRequest true "Идентификатор тарифа"
// @Success 200 {object} map[string]any "Ссылка на страницу оплаты"
// @Failure 400 {object} response.ErrorResponse "Некорректный или бесплатный тариф"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка платёжного провайдера"
// @Router /payments/checkout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.checkout"
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

	var req models.CheckoutRequest
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

	url, err := h.service.CreateCheckout(r.Context(), username, req.PlanID)
	if err != nil {
		if errors.Is(err, paymentservice.ErrInvalidPlan) {
			log.Warn("invalid plan requested", slog.Int64("plan_id", req.PlanID))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("plan is unknown or not payable"))
			return
		}
		log.Error("failed to create checkout session", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create checkout session"))
		return
	}

	log.Info("checkout session created", slog.Int64("plan_id", req.PlanID))
	render.JSON(w, r, response.OKWithData(map[string]any{"checkout_url": url}))
}
