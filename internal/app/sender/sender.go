// Package sender собирает сервис почтовых уведомлений: он потребляет
// сообщения о завершённых задачах из очереди и рассылает письма владельцам.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/lead-forge/internal/config"
	"github.com/magabrotheeeer/lead-forge/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/lead-forge/internal/lib/smtp"
	senderservice "github.com/magabrotheeeer/lead-forge/internal/services/sender"
	"github.com/magabrotheeeer/lead-forge/internal/storage/repository"
)

// App сервис рассылки уведомлений о завершённых задачах.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

// New инициализирует подключение к базе, очереди и SMTP-транспорту.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
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

	transport := smtp.NewTransport(cfg, logger)
	senderService := senderservice.NewSenderService(transport, db, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run запускает потребителя очереди и работает до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.JobCompletedQueue, func(body []byte) error {
		return a.senderService.SendJobCompletedSummary(ctx, body)
	})
	if err != nil {
		a.logger.Error("failed to start job_completed consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}
	return nil
}
