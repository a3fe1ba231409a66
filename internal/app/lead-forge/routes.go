// Package leadforge предоставляет маршруты для основного приложения.
package leadforge

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/lead-forge/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/lead-forge/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/lead-forge/internal/http/handlers/credits"
	"github.com/magabrotheeeer/lead-forge/internal/http/handlers/health"
	"github.com/magabrotheeeer/lead-forge/internal/http/handlers/job/export"
	"github.com/magabrotheeeer/lead-forge/internal/http/handlers/job/list"
	"github.com/magabrotheeeer/lead-forge/internal/http/handlers/job/read"
	"github.com/magabrotheeeer/lead-forge/internal/http/handlers/job/remove"
	"github.com/magabrotheeeer/lead-forge/internal/http/handlers/payment/checkout"
	"github.com/magabrotheeeer/lead-forge/internal/http/handlers/payment/confirm"
	"github.com/magabrotheeeer/lead-forge/internal/http/handlers/payment/webhook"
	"github.com/magabrotheeeer/lead-forge/internal/http/handlers/plans"
	"github.com/magabrotheeeer/lead-forge/internal/http/handlers/search"
	"github.com/magabrotheeeer/lead-forge/internal/http/handlers/upload"
	"github.com/magabrotheeeer/lead-forge/internal/http/middlewarectx"
	"github.com/magabrotheeeer/lead-forge/internal/places"
	authservice "github.com/magabrotheeeer/lead-forge/internal/services/auth"
	batchservice "github.com/magabrotheeeer/lead-forge/internal/services/batch"
	leadservice "github.com/magabrotheeeer/lead-forge/internal/services/lead"
	paymentservice "github.com/magabrotheeeer/lead-forge/internal/services/payment"
	subservice "github.com/magabrotheeeer/lead-forge/internal/services/subscription"
	"github.com/magabrotheeeer/lead-forge/internal/storage/repository"
)

// Services сервисы, необходимые для регистрации маршрутов.
type Services struct {
	Auth         *authservice.AuthService
	Subscription *subservice.SubscriptionService
	Batch        *batchservice.BatchService
	Lead         *leadservice.LeadService
	Payment      *paymentservice.PaymentService
	Places       *places.Client
	Storage      *repository.Storage
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, svc *Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, svc.Auth).ServeHTTP)
		r.Post("/login", login.New(logger, svc.Auth).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(svc.Auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/uploads", upload.New(logger, svc.Batch).ServeHTTP)
			r.Post("/search", search.New(logger, svc.Places, svc.Batch).ServeHTTP)
			r.Get("/jobs", list.New(logger, svc.Lead).ServeHTTP)
			r.Get("/jobs/{id}", read.New(logger, svc.Lead).ServeHTTP)
			r.Delete("/jobs/{id}", remove.New(logger, svc.Lead).ServeHTTP)
			r.Get("/jobs/{id}/export", export.New(logger, svc.Lead).ServeHTTP)
			r.Get("/credits", credits.New(logger, svc.Subscription).ServeHTTP)
			r.Get("/plans", plans.New(logger, svc.Payment).ServeHTTP)
			r.Post("/payments/checkout", checkout.New(logger, svc.Payment).ServeHTTP)
			r.Get("/payments/confirm", confirm.New(logger, svc.Payment).ServeHTTP)
		})

		// Webhook endpoint (без аутентификации)
		r.Post("/payments/webhook", webhook.New(logger, svc.Payment).ServeHTTP)
	})

	r.Get("/health", health.New(logger, svc.Storage).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
