package models

// RegisterRequest данные запроса регистрации нового пользователя.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,alphanum,min=3"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest данные запроса аутентификации.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SearchRequest параметры поиска компаний по ключевому слову и локации.
type SearchRequest struct {
	Query   string `json:"query" validate:"required"`
	Country string `json:"country" validate:"required"`
	State   string `json:"state" validate:"required"`
}

// CheckoutRequest запрос на создание платёжной сессии для выбранного тарифа.
type CheckoutRequest struct {
	PlanID int64 `json:"plan_id" validate:"required,gt=0"`
}
