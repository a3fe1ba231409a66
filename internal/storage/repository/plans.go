package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/lead-forge/internal/models"
)

const planColumns = `id, name, price, lead_limit, provider_price_id, provider_product_id, features, is_active`

// GetPlanByName возвращает тариф по имени или nil, если тариф не найден.
func (s *Storage) GetPlanByName(ctx context.Context, name string) (*models.SubscriptionPlan, error) {
	const op = "storage.GetPlanByName"

	query := `SELECT ` + planColumns + ` FROM subscription_plans WHERE name = $1`
	plan, err := scanPlan(s.DB.QueryRowContext(ctx, query, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return plan, nil
}

// GetPlanByID возвращает тариф по идентификатору или nil, если тариф не найден.
func (s *Storage) GetPlanByID(ctx context.Context, id int64) (*models.SubscriptionPlan, error) {
	const op = "storage.GetPlanByID"

	query := `SELECT ` + planColumns + ` FROM subscription_plans WHERE id = $1`
	plan, err := scanPlan(s.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return plan, nil
}

// ListActivePlans возвращает активные тарифы, отсортированные по цене.
func (s *Storage) ListActivePlans(ctx context.Context) ([]*models.SubscriptionPlan, error) {
	const op = "storage.ListActivePlans"

	query := `SELECT ` + planColumns + ` FROM subscription_plans WHERE is_active = TRUE ORDER BY price`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.SubscriptionPlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	err := row.Scan(&plan.ID, &plan.Name, &plan.Price, &plan.LeadLimit,
		&plan.ProviderPriceID, &plan.ProviderProductID, &plan.Features, &plan.IsActive)
	if err != nil {
		return nil, err
	}
	return &plan, nil
}
