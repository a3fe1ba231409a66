package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/lead-forge/internal/models"
)

// GetActiveSubscription возвращает активную подписку пользователя вместе с тарифом.
// Возвращает nil без ошибки, если активной подписки нет.
func (s *Storage) GetActiveSubscription(ctx context.Context, username string) (*models.UserSubscription, error) {
	const op = "storage.GetActiveSubscription"

	query := `SELECT us.id, us.username, us.plan_id, us.provider_sub_id, us.provider_customer_id,
			         us.start_date, us.end_date, us.status, us.leads_used_this_month, us.last_reset_date,
			         p.id, p.name, p.price, p.lead_limit, p.provider_price_id, p.provider_product_id, p.features, p.is_active
			  FROM user_subscriptions us
			  JOIN subscription_plans p ON p.id = us.plan_id
			  WHERE us.username = $1 AND us.status = $2`
	var sub models.UserSubscription
	var plan models.SubscriptionPlan
	err := s.DB.QueryRowContext(ctx, query, username, models.SubscriptionStatusActive).Scan(
		&sub.ID, &sub.Username, &sub.PlanID, &sub.ProviderSubID, &sub.ProviderCustomerID,
		&sub.StartDate, &sub.EndDate, &sub.Status, &sub.LeadsUsedThisMonth, &sub.LastResetDate,
		&plan.ID, &plan.Name, &plan.Price, &plan.LeadLimit,
		&plan.ProviderPriceID, &plan.ProviderProductID, &plan.Features, &plan.IsActive)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sub.Plan = &plan
	return &sub, nil
}

// CreateSubscription вставляет новую подписку и возвращает её ID.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.UserSubscription) (int64, error) {
	const op = "storage.CreateSubscription"

	query := `INSERT INTO user_subscriptions
			      (username, plan_id, provider_sub_id, provider_customer_id,
			       start_date, end_date, status, leads_used_this_month, last_reset_date)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING id`
	var newID int64
	err := s.DB.QueryRowContext(ctx, query,
		sub.Username, sub.PlanID, sub.ProviderSubID, sub.ProviderCustomerID,
		sub.StartDate, sub.EndDate, sub.Status, sub.LeadsUsedThisMonth, sub.LastResetDate).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// IncrementUsage атомарно увеличивает счётчик использованных кредитов.
// Инкремент выполняется на стороне базы, поэтому два конкурирующих вызова
// не могут потерять обновление друг друга.
func (s *Storage) IncrementUsage(ctx context.Context, subscriptionID int64, count int) error {
	const op = "storage.IncrementUsage"

	query := `UPDATE user_subscriptions
			  SET leads_used_this_month = leads_used_this_month + $1
			  WHERE id = $2`
	result, err := s.DB.ExecContext(ctx, query, count, subscriptionID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: subscription %d not found", op, subscriptionID)
	}
	return nil
}

// ResetUsage обнуляет счётчик использованных кредитов и сдвигает дату сброса.
func (s *Storage) ResetUsage(ctx context.Context, subscriptionID int64, resetDate time.Time) error {
	const op = "storage.ResetUsage"

	query := `UPDATE user_subscriptions
			  SET leads_used_this_month = 0, last_reset_date = $1
			  WHERE id = $2`
	if _, err := s.DB.ExecContext(ctx, query, resetDate, subscriptionID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetUsernameByProviderSubID возвращает владельца подписки по идентификатору
// подписки на стороне провайдера. Пустая строка без ошибки, если подписки нет.
func (s *Storage) GetUsernameByProviderSubID(ctx context.Context, providerSubID string) (string, error) {
	const op = "storage.GetUsernameByProviderSubID"

	query := `SELECT username FROM user_subscriptions WHERE provider_sub_id = $1`
	var username string
	err := s.DB.QueryRowContext(ctx, query, providerSubID).Scan(&username)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return username, nil
}

// UpdateSubscriptionStatusByProviderID меняет статус подписки, найденной по
// идентификатору подписки на стороне платежного провайдера. Возвращает
// количество затронутых строк.
func (s *Storage) UpdateSubscriptionStatusByProviderID(ctx context.Context, providerSubID, status string, endDate *time.Time) (int64, error) {
	const op = "storage.UpdateSubscriptionStatusByProviderID"

	query := `UPDATE user_subscriptions
			  SET status = $1, end_date = COALESCE($2, end_date)
			  WHERE provider_sub_id = $3`
	result, err := s.DB.ExecContext(ctx, query, status, endDate, providerSubID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return result.RowsAffected()
}

// CancelActiveSubscription помечает активную подписку пользователя отменённой
// и проставляет дату окончания. Возвращает количество затронутых строк.
func (s *Storage) CancelActiveSubscription(ctx context.Context, username string, endDate time.Time) (int64, error) {
	const op = "storage.CancelActiveSubscription"

	query := `UPDATE user_subscriptions
			  SET status = $1, end_date = $2
			  WHERE username = $3 AND status = $4`
	result, err := s.DB.ExecContext(ctx, query,
		models.SubscriptionStatusCanceled, endDate, username, models.SubscriptionStatusActive)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return result.RowsAffected()
}
