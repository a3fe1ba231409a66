package paymentprovider

// CreateSessionRequest представляет запрос на создание checkout-сессии.
type CreateSessionRequest struct {
	PlanName      string            `json:"plan_name"`
	Description   string            `json:"description,omitempty"`
	AmountCents   int64             `json:"amount_cents"` // сумма в центах, например 2900
	Currency      string            `json:"currency"`     // валюта, например "usd"
	Interval      string            `json:"interval"`     // период списания, например "month"
	CustomerEmail string            `json:"customer_email"`
	SuccessURL    string            `json:"success_url"`
	CancelURL     string            `json:"cancel_url"`
	Metadata      map[string]string `json:"metadata,omitempty"` // дополнительная инфа: username, plan_id
}

// Session представляет checkout-сессию на стороне провайдера.
type Session struct {
	ID             string            `json:"id"`
	URL            string            `json:"url"`            // адрес страницы оплаты
	PaymentStatus  string            `json:"payment_status"` // например "paid"
	SubscriptionID string            `json:"subscription_id"`
	CustomerID     string            `json:"customer_id"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// WebhookEvent представляет событие, присылаемое провайдером на вебхук.
type WebhookEvent struct {
	Type         string `json:"type"` // например "customer.subscription.deleted"
	Subscription struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"subscription"`
}
