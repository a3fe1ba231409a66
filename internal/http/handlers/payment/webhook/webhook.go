// Package webhook реализует приём событий от платёжного провайдера.
//
// Обработчик не требует авторизации: подлинность запроса проверяется
// подписью тела по общему секрету.
package webhook

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/lead-forge/internal/http/response"
	"github.com/magabrotheeeer/lead-forge/internal/lib/sl"
	"github.com/magabrotheeeer/lead-forge/internal/paymentprovider"
)

// maxWebhookBody ограничивает размер тела события.
const maxWebhookBody = 1 << 20 // 1 MiB

// Handler управляет HTTP-запросами с событиями платёжного провайдера.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс обработки событий провайдера.
type Service interface {
	HandleWebhook(ctx context.Context, body []byte, signature string) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Webhook платёжного провайдера
// @Description Принимает события об изменении подписок и синхронизирует их статус.
// @Tags Billing
// @Accept  json
// @Produce  json
// @Success 200 {object} response.Response "Событие обработано"
// @Failure 400 {object} response.ErrorResponse "Неверная подпись или тело"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to read body"))
		return
	}

	signature := r.Header.Get(paymentprovider.SignatureHeader)
	if err := h.service.HandleWebhook(r.Context(), body, signature); err != nil {
		log.Error("failed to handle webhook", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("webhook rejected"))
		return
	}

	render.JSON(w, r, response.OK())
}
