// Package services содержит бизнес-логику учёта кредитов: активные подписки,
// месячные лимиты, их сброс и списание за обработанные лиды.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/lead-forge/internal/lib/sl"
	"github.com/magabrotheeeer/lead-forge/internal/metrics"
	"github.com/magabrotheeeer/lead-forge/internal/models"
)

// freeDefaultCredits — лимит, который видит пользователь без строки подписки.
// Строка создается лениво при первой обработке, а не при чтении баланса.
const freeDefaultCredits = 10

const resetInterval = 30 // дней между сбросами месячного счётчика

// SubscriptionRepository определяет методы для работы с подписками в хранилище.
type SubscriptionRepository interface {
	// GetActiveSubscription возвращает активную подписку с тарифом или nil.
	GetActiveSubscription(ctx context.Context, username string) (*models.UserSubscription, error)
	// GetPlanByName возвращает тариф по имени или nil, если он не найден.
	GetPlanByName(ctx context.Context, name string) (*models.SubscriptionPlan, error)
	// CreateSubscription добавляет новую подписку и возвращает её ID.
	CreateSubscription(ctx context.Context, sub models.UserSubscription) (int64, error)
	// IncrementUsage атомарно увеличивает счётчик использованных кредитов.
	IncrementUsage(ctx context.Context, subscriptionID int64, count int) error
	// ResetUsage обнуляет счётчик и сдвигает дату последнего сброса.
	ResetUsage(ctx context.Context, subscriptionID int64, resetDate time.Time) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// SubscriptionService реализует учёт кредитов поверх подписок.
type SubscriptionService struct {
	repo  SubscriptionRepository
	cache Cache
	log   *slog.Logger
	now   func() time.Time
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo SubscriptionRepository, cache Cache, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo:  repo,
		cache: cache,
		log:   log,
		now:   time.Now,
	}
}

func cacheKey(username string) string {
	return fmt.Sprintf("subscription:active:%s", username)
}

// GetActiveSubscription возвращает активную подписку пользователя, используя
// кеш или репозиторий. Возвращает nil без ошибки, если подписки нет.
func (s *SubscriptionService) GetActiveSubscription(ctx context.Context, username string) (*models.UserSubscription, error) {
	var cached *models.UserSubscription
	key := cacheKey(username)
	found, err := s.cache.Get(key, &cached)
	if err != nil {
		s.log.Warn("failed to read subscription from cache", slog.String("key", key), sl.Err(err))
	}
	if found && cached != nil {
		return cached, nil
	}

	sub, err := s.repo.GetActiveSubscription(ctx, username)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, nil
	}

	if err := s.cache.Set(key, sub, time.Hour); err != nil {
		s.log.Warn("failed to cache subscription", slog.String("key", key), sl.Err(err))
	}
	return sub, nil
}

// AvailableCredits возвращает остаток кредитов на текущий месяц. Для
// пользователя без подписки возвращается лимит бесплатного тарифа, строка
// подписки при этом не создается.
func (s *SubscriptionService) AvailableCredits(ctx context.Context, username string) (int, error) {
	sub, err := s.GetActiveSubscription(ctx, username)
	if err != nil {
		return 0, err
	}
	if sub == nil {
		return freeDefaultCredits, nil
	}

	if err := s.resetIfDue(ctx, username, sub); err != nil {
		return 0, err
	}
	return sub.Plan.LeadLimit - sub.LeadsUsedThisMonth, nil
}

// CanProcess отвечает, хватит ли пользователю кредитов на requested лидов.
// Пользователю без подписки здесь лениво создается бесплатная.
func (s *SubscriptionService) CanProcess(ctx context.Context, username string, requested int) (bool, error) {
	sub, err := s.GetActiveSubscription(ctx, username)
	if err != nil {
		return false, err
	}

	if sub == nil {
		if err := s.createFreeSubscription(ctx, username); err != nil {
			return false, err
		}
		sub, err = s.GetActiveSubscription(ctx, username)
		if err != nil {
			return false, err
		}
		if sub == nil {
			return false, nil
		}
	}

	if err := s.resetIfDue(ctx, username, sub); err != nil {
		return false, err
	}

	available := sub.Plan.LeadLimit - sub.LeadsUsedThisMonth
	return available >= requested, nil
}

// ResetIfDue сбрасывает месячный счётчик, если с последнего сброса прошло
// 30 дней и больше. Повторный вызов в том же окне ничего не меняет.
func (s *SubscriptionService) ResetIfDue(ctx context.Context, username string) error {
	sub, err := s.GetActiveSubscription(ctx, username)
	if err != nil {
		return err
	}
	if sub == nil {
		return nil
	}
	return s.resetIfDue(ctx, username, sub)
}

func (s *SubscriptionService) resetIfDue(ctx context.Context, username string, sub *models.UserSubscription) error {
	days := int(s.now().Sub(sub.LastResetDate).Hours() / 24)
	if days < resetInterval {
		return nil
	}

	resetDate := s.now().UTC()
	if err := s.repo.ResetUsage(ctx, sub.ID, resetDate); err != nil {
		return err
	}
	sub.LeadsUsedThisMonth = 0
	sub.LastResetDate = resetDate

	if err := s.cache.Invalidate(cacheKey(username)); err != nil {
		s.log.Warn("failed to invalidate subscription cache", sl.Err(err))
	}

	s.log.Info("reset monthly credits",
		slog.String("username", username), slog.String("plan", sub.Plan.Name))
	return nil
}

// Debit списывает count кредитов. Списание без подписки не считается
// ошибкой: пишется предупреждение, счётчики не трогаются.
func (s *SubscriptionService) Debit(ctx context.Context, username string, count int) error {
	sub, err := s.GetActiveSubscription(ctx, username)
	if err != nil {
		return err
	}
	if sub == nil {
		s.log.Warn("attempted to debit credits without subscription",
			slog.String("username", username))
		return nil
	}

	if err := s.repo.IncrementUsage(ctx, sub.ID, count); err != nil {
		return err
	}
	metrics.CreditsSpent.Add(float64(count))

	if err := s.cache.Invalidate(cacheKey(username)); err != nil {
		s.log.Warn("failed to invalidate subscription cache", sl.Err(err))
	}

	s.log.Info("debited credits",
		slog.String("username", username),
		slog.Int("count", count),
		slog.Int("used", sub.LeadsUsedThisMonth+count),
		slog.Int("limit", sub.Plan.LeadLimit))
	return nil
}

// createFreeSubscription лениво заводит бесплатную подписку. Отсутствие
// тарифа Free — ошибка конфигурации: она логируется, но не прерывает
// проверку квоты, пользователь остаётся без подписки.
func (s *SubscriptionService) createFreeSubscription(ctx context.Context, username string) error {
	plan, err := s.repo.GetPlanByName(ctx, models.FreePlanName)
	if err != nil {
		return err
	}
	if plan == nil {
		s.log.Error("free plan not found, subscription not created",
			slog.String("username", username))
		return nil
	}

	now := s.now().UTC()
	_, err = s.repo.CreateSubscription(ctx, models.UserSubscription{
		Username:           username,
		PlanID:             plan.ID,
		Status:             models.SubscriptionStatusActive,
		StartDate:          now,
		LeadsUsedThisMonth: 0,
		LastResetDate:      now,
	})
	if err != nil {
		return err
	}

	s.log.Info("created free subscription", slog.String("username", username))
	return nil
}
