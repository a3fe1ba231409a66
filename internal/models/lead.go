package models

import "time"

// Lead одна обогащённая запись о компании, принадлежит ровно одной задаче.
// После создания запись не изменяется.
type Lead struct {
	ID                 int64     `json:"id"`
	JobID              int64     `json:"job_id"`
	Domain             string    `json:"domain"`
	CompanyName        string    `json:"company_name"`
	Industry           string    `json:"industry"`
	EmployeeCount      string    `json:"employee_count"`
	BusinessEmail      string    `json:"business_email"`
	Phone              string    `json:"phone"`
	LeadScore          int       `json:"lead_score"` // от 1 до 10
	CompanyDescription string    `json:"company_description"`
	Country            string    `json:"country"`
	EnrichedAt         time.Time `json:"enriched_at"`
}
