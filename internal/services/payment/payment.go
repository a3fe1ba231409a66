// Package services содержит логику оплаты подписок: создание checkout-сессий
// у внешнего провайдера и активацию тарифа после успешной оплаты.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/magabrotheeeer/lead-forge/internal/lib/sl"
	"github.com/magabrotheeeer/lead-forge/internal/models"
	"github.com/magabrotheeeer/lead-forge/internal/paymentprovider"
)

// ErrInvalidPlan возвращается при попытке купить несуществующий или бесплатный тариф.
var ErrInvalidPlan = errors.New("invalid plan")

// PaymentProvider описывает клиента внешнего платежного провайдера.
type PaymentProvider interface {
	// CreateCheckoutSession создает сессию оплаты и возвращает её с адресом страницы.
	CreateCheckoutSession(ctx context.Context, req paymentprovider.CreateSessionRequest) (*paymentprovider.Session, error)
	// GetCheckoutSession возвращает сессию по идентификатору.
	GetCheckoutSession(ctx context.Context, sessionID string) (*paymentprovider.Session, error)
}

// PaymentRepository описывает работу с тарифами и подписками в хранилище.
type PaymentRepository interface {
	// GetPlanByID возвращает тариф по ID или nil, если он не найден.
	GetPlanByID(ctx context.Context, id int64) (*models.SubscriptionPlan, error)
	// ListActivePlans возвращает активные тарифы по возрастанию цены.
	ListActivePlans(ctx context.Context) ([]*models.SubscriptionPlan, error)
	// GetUserByUsername возвращает пользователя по имени.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// CreateSubscription добавляет новую подписку и возвращает её ID.
	CreateSubscription(ctx context.Context, sub models.UserSubscription) (int64, error)
	// CancelActiveSubscription отменяет активную подписку пользователя.
	CancelActiveSubscription(ctx context.Context, username string, endDate time.Time) (int64, error)
	// GetUsernameByProviderSubID находит владельца подписки по ID провайдера.
	GetUsernameByProviderSubID(ctx context.Context, providerSubID string) (string, error)
	// UpdateSubscriptionStatusByProviderID меняет статус подписки по ID провайдера.
	UpdateSubscriptionStatusByProviderID(ctx context.Context, providerSubID, status string, endDate *time.Time) (int64, error)
}

// Cache описывает инвалидацию закешированных подписок.
type Cache interface {
	Invalidate(key string) error
}

// Options задает адреса возврата и секрет вебхука.
type Options struct {
	SuccessURL    string
	CancelURL     string
	WebhookSecret string
}

// PaymentService оформляет платные тарифы через внешнего провайдера.
type PaymentService struct {
	repo     PaymentRepository
	provider PaymentProvider
	cache    Cache
	opts     Options
	log      *slog.Logger
	now      func() time.Time
}

// NewPaymentService создает новый экземпляр PaymentService.
func NewPaymentService(repo PaymentRepository, provider PaymentProvider, cache Cache, opts Options, log *slog.Logger) *PaymentService {
	return &PaymentService{
		repo:     repo,
		provider: provider,
		cache:    cache,
		opts:     opts,
		log:      log,
		now:      time.Now,
	}
}

// ListPlans возвращает активные тарифы для витрины.
func (s *PaymentService) ListPlans(ctx context.Context) ([]*models.SubscriptionPlan, error) {
	return s.repo.ListActivePlans(ctx)
}

// CreateCheckout создает сессию оплаты тарифа и возвращает адрес страницы
// оплаты. Бесплатный тариф через кассу не оформляется.
func (s *PaymentService) CreateCheckout(ctx context.Context, username string, planID int64) (string, error) {
	plan, err := s.repo.GetPlanByID(ctx, planID)
	if err != nil {
		return "", err
	}
	if plan == nil || plan.Price == 0 {
		return "", ErrInvalidPlan
	}

	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return "", err
	}

	session, err := s.provider.CreateCheckoutSession(ctx, paymentprovider.CreateSessionRequest{
		PlanName:      fmt.Sprintf("LeadForge %s Plan", plan.Name),
		Description:   plan.Features,
		AmountCents:   int64(plan.Price * 100),
		Currency:      "usd",
		Interval:      "month",
		CustomerEmail: user.Email,
		SuccessURL:    s.opts.SuccessURL,
		CancelURL:     s.opts.CancelURL,
		Metadata: map[string]string{
			"username": username,
			"plan_id":  strconv.FormatInt(planID, 10),
		},
	})
	if err != nil {
		return "", err
	}

	s.log.Info("created checkout session",
		slog.String("username", username),
		slog.String("plan", plan.Name),
		slog.String("session_id", session.ID))
	return session.URL, nil
}

// ConfirmCheckout активирует тариф по оплаченной сессии: действующая
// подписка отменяется, взамен создается новая с нулевым счётчиком.
func (s *PaymentService) ConfirmCheckout(ctx context.Context, sessionID string) error {
	session, err := s.provider.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.PaymentStatus != "paid" {
		return fmt.Errorf("session %s is not paid", sessionID)
	}

	username := session.Metadata["username"]
	planID, err := strconv.ParseInt(session.Metadata["plan_id"], 10, 64)
	if err != nil {
		return fmt.Errorf("bad plan_id in session metadata: %w", err)
	}

	now := s.now().UTC()
	if _, err := s.repo.CancelActiveSubscription(ctx, username, now); err != nil {
		return err
	}

	_, err = s.repo.CreateSubscription(ctx, models.UserSubscription{
		Username:           username,
		PlanID:             planID,
		ProviderSubID:      session.SubscriptionID,
		ProviderCustomerID: session.CustomerID,
		Status:             models.SubscriptionStatusActive,
		StartDate:          now,
		LeadsUsedThisMonth: 0,
		LastResetDate:      now,
	})
	if err != nil {
		return err
	}

	s.invalidateSubscription(username)
	s.log.Info("activated subscription",
		slog.String("username", username), slog.Int64("plan_id", planID))
	return nil
}

// HandleWebhook обрабатывает событие провайдера: проверяет подпись тела и
// синхронизирует статус подписки.
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !paymentprovider.VerifySignature(body, signature, s.opts.WebhookSecret) {
		return errors.New("invalid webhook signature")
	}

	event, err := parseWebhookEvent(body)
	if err != nil {
		return err
	}

	switch event.Type {
	case "customer.subscription.deleted":
		now := s.now().UTC()
		return s.updateByProviderID(ctx, event.Subscription.ID, models.SubscriptionStatusCanceled, &now)
	case "customer.subscription.updated":
		return s.updateByProviderID(ctx, event.Subscription.ID, event.Subscription.Status, nil)
	default:
		s.log.Debug("ignoring webhook event", slog.String("type", event.Type))
		return nil
	}
}

func (s *PaymentService) updateByProviderID(ctx context.Context, providerSubID, status string, endDate *time.Time) error {
	username, err := s.repo.GetUsernameByProviderSubID(ctx, providerSubID)
	if err != nil {
		return err
	}

	rows, err := s.repo.UpdateSubscriptionStatusByProviderID(ctx, providerSubID, status, endDate)
	if err != nil {
		return err
	}
	if rows == 0 {
		s.log.Warn("webhook for unknown subscription", slog.String("provider_sub_id", providerSubID))
		return nil
	}

	if username != "" {
		s.invalidateSubscription(username)
	}
	s.log.Info("subscription status updated",
		slog.String("provider_sub_id", providerSubID), slog.String("status", status))
	return nil
}

func (s *PaymentService) invalidateSubscription(username string) {
	key := fmt.Sprintf("subscription:active:%s", username)
	if err := s.cache.Invalidate(key); err != nil {
		s.log.Warn("failed to invalidate subscription cache", sl.Err(err))
	}
}
