// Package services содержит отправку почтовых уведомлений о завершённых
// задачах обогащения.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/lead-forge/internal/lib/sl"
	"github.com/magabrotheeeer/lead-forge/internal/lib/smtp"
	"github.com/magabrotheeeer/lead-forge/internal/models"
)

// UserEmails возвращает адрес получателя по имени пользователя.
type UserEmails interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// SenderService отправляет письма по сообщениям из очереди уведомлений.
type SenderService struct {
	transport smtp.TransportInterface
	users     UserEmails
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(transport smtp.TransportInterface, users UserEmails, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		users:     users,
		log:       log,
	}
}

// SendJobCompletedSummary отправляет владельцу задачи письмо с итогами
// обработки: сколько лидов готово и сколько кредитов осталось.
func (s *SenderService) SendJobCompletedSummary(ctx context.Context, body []byte) error {
	var message models.JobCompletedMessage
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	user, err := s.users.GetUserByUsername(ctx, message.Username)
	if err != nil {
		s.log.Error("failed to look up user for notification",
			slog.String("username", message.Username), sl.Err(err))
		return err
	}

	subject := fmt.Sprintf("Задача №%d завершена на LeadForge", message.JobID)
	bodyText := fmt.Sprintf(`Здравствуйте, %s!

Обработка "%s" завершена: готово %d лидов.
Остаток кредитов на этот месяц: %d.

Результаты можно выгрузить в CSV в личном кабинете.`,
		message.Username, message.SourceLabel, message.ProcessedCount, message.RemainingCredits)

	return s.sendEmail([]string{user.Email}, subject, bodyText)
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Any("to", to))
	return nil
}
