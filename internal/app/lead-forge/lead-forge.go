// Package leadforge собирает основное приложение: хранилище, кэш,
// очередь уведомлений, стратегии обогащения и HTTP-сервер.
package leadforge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/lead-forge/internal/cache"
	"github.com/magabrotheeeer/lead-forge/internal/config"
	"github.com/magabrotheeeer/lead-forge/internal/enrichment"
	"github.com/magabrotheeeer/lead-forge/internal/lib/jwt"
	"github.com/magabrotheeeer/lead-forge/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/lead-forge/internal/migrations"
	"github.com/magabrotheeeer/lead-forge/internal/paymentprovider"
	"github.com/magabrotheeeer/lead-forge/internal/places"
	authservice "github.com/magabrotheeeer/lead-forge/internal/services/auth"
	batchservice "github.com/magabrotheeeer/lead-forge/internal/services/batch"
	leadservice "github.com/magabrotheeeer/lead-forge/internal/services/lead"
	paymentservice "github.com/magabrotheeeer/lead-forge/internal/services/payment"
	subservice "github.com/magabrotheeeer/lead-forge/internal/services/subscription"
	"github.com/magabrotheeeer/lead-forge/internal/storage/repository"
)

// App основное приложение lead-forge.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New инициализирует все зависимости и собирает HTTP-сервер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		conn.Close()
		return nil, err
	}
	publisher := rabbitmq.NewPublisher(ch)

	strategy, err := buildStrategy(cfg, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	scraper := enrichment.NewScraperStrategy(logger, cfg.ScrapeTimeout)
	businessStrategy := enrichment.NewPlacesStrategy(logger, scraper)
	placesClient := places.New(logger, cfg.PlacesAPIBase, cfg.PlacesAPIKey)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	providerClient := paymentprovider.NewClient(cfg.Payment.ProviderAPIBase, cfg.Payment.ProviderSecretKey)

	authService := authservice.NewAuthService(db, jwtMaker)
	subscriptionService := subservice.NewSubscriptionService(db, cacheRedis, logger)
	batchService := batchservice.NewBatchService(
		db, subscriptionService, strategy, businessStrategy, publisher, cfg.Enrichment.Strategy, logger)
	leadService := leadservice.NewLeadService(db, logger)
	paymentService := paymentservice.NewPaymentService(db, providerClient, cacheRedis, paymentservice.Options{
		SuccessURL:    cfg.Payment.SuccessURL,
		CancelURL:     cfg.Payment.CancelURL,
		WebhookSecret: cfg.Payment.WebhookSecret,
	}, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, &Services{
		Auth:         authService,
		Subscription: subscriptionService,
		Batch:        batchService,
		Lead:         leadService,
		Payment:      paymentService,
		Places:       placesClient,
		Storage:      db,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

// buildStrategy выбирает стратегию обогащения доменов по конфигу.
func buildStrategy(cfg *config.Config, logger *slog.Logger) (enrichment.Strategy, error) {
	switch cfg.Enrichment.Strategy {
	case "scraper", "":
		return enrichment.NewScraperStrategy(logger, cfg.ScrapeTimeout), nil
	case "llm":
		return enrichment.NewLLMStrategy(logger, enrichment.LLMConfig{
			APIBase: cfg.LLMAPIBase,
			APIKey:  cfg.LLMAPIKey,
			Model:   cfg.LLMModel,
		}), nil
	default:
		return nil, fmt.Errorf("unknown enrichment strategy: %q", cfg.Enrichment.Strategy)
	}
}

// Run запускает HTTP-сервер и останавливает его по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if chErr := a.ch.Close(); chErr != nil {
			a.logger.Error("failed to close rabbitmq channel", slog.Any("err", chErr))
		}
		if connErr := a.conn.Close(); connErr != nil {
			a.logger.Error("failed to close rabbitmq connection", slog.Any("err", connErr))
		}
		a.db.DB.Close()
		return err
	}
}
