package models

import "time"

// Статусы подписки пользователя.
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusCanceled = "canceled"
	SubscriptionStatusPastDue  = "past_due"
)

// FreePlanName имя тарифа по умолчанию. Тариф с таким именем обязан
// существовать и быть активным: он назначается при ленивом создании подписки.
const FreePlanName = "Free"

// SubscriptionPlan тариф с месячным лимитом кредитов.
type SubscriptionPlan struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	Price             float64 `json:"price"`      // цена в месяц, USD
	LeadLimit         int     `json:"lead_limit"` // месячный потолок кредитов
	ProviderPriceID   string  `json:"-"`
	ProviderProductID string  `json:"-"`
	Features          string  `json:"features"`
	IsActive          bool    `json:"is_active"`
}

// UserSubscription подписка пользователя на тариф.
// У пользователя одновременно не больше одной записи со статусом active
// (контролируется логикой приложения, а не ограничением в базе).
type UserSubscription struct {
	ID                 int64      `json:"id"`
	Username           string     `json:"username"`
	PlanID             int64      `json:"plan_id"`
	ProviderSubID      string     `json:"-"`
	ProviderCustomerID string     `json:"-"`
	StartDate          time.Time  `json:"start_date"`
	EndDate            *time.Time `json:"end_date,omitempty"`
	Status             string     `json:"status"`
	LeadsUsedThisMonth int        `json:"leads_used_this_month"`
	LastResetDate      time.Time  `json:"last_reset_date"`

	Plan *SubscriptionPlan `json:"plan,omitempty"`
}
