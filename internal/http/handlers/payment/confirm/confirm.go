// Package confirm реализует подтверждение оплаты после возврата с checkout-страницы.
package confirm

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/lead-forge/internal/http/response"
	"github.com/magabrotheeeer/lead-forge/internal/lib/sl"
)

// Handler управляет HTTP-запросами на подтверждение оплаты.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс активации подписки по оплаченной сессии.
type Service interface {
	ConfirmCheckout(ctx context.Context, sessionID string) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Подтвердить оплату
// @Description Проверяет статус платёжной сессии и активирует подписку,
// @Description отменяя предыдущую активную, если она была.
// @Tags Billing
// @Security BearerAuth
// @Produce  json
// @Param session_id query string true "Идентификатор платёжной сессии"
// @Success 200 {object} response.Response "Подписка активирована"
// @Failure 400 {object} response.ErrorResponse "Сессия не указана или не оплачена"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Router /payments/confirm [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.confirm"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		log.Error("session_id is missing")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("session_id is required"))
		return
	}

	if err := h.service.ConfirmCheckout(r.Context(), sessionID); err != nil {
		log.Error("failed to confirm checkout", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("payment is not confirmed"))
		return
	}

	log.Info("subscription activated", slog.String("session_id", sessionID))
	render.JSON(w, r, response.OK())
}
