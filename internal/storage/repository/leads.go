package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/lead-forge/internal/models"
)

// CreateLead вставляет новый лид и возвращает его ID.
func (s *Storage) CreateLead(ctx context.Context, lead models.Lead) (int64, error) {
	const op = "storage.CreateLead"

	query := `INSERT INTO leads (job_id, domain, company_name, industry, employee_count,
			      business_email, phone, lead_score, company_description, country, enriched_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			  RETURNING id`
	var newID int64
	err := s.DB.QueryRowContext(ctx, query,
		lead.JobID, lead.Domain, lead.CompanyName, lead.Industry, lead.EmployeeCount,
		lead.BusinessEmail, lead.Phone, lead.LeadScore, lead.CompanyDescription,
		lead.Country, lead.EnrichedAt).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListLeadsByJobID возвращает все лиды задачи в порядке создания.
func (s *Storage) ListLeadsByJobID(ctx context.Context, jobID int64) ([]*models.Lead, error) {
	const op = "storage.ListLeadsByJobID"

	query := `SELECT id, job_id, domain, company_name, industry, employee_count,
			         business_email, phone, lead_score, company_description, country, enriched_at
			  FROM leads WHERE job_id = $1 ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.Lead
	for rows.Next() {
		var lead models.Lead
		err := rows.Scan(&lead.ID, &lead.JobID, &lead.Domain, &lead.CompanyName,
			&lead.Industry, &lead.EmployeeCount, &lead.BusinessEmail, &lead.Phone,
			&lead.LeadScore, &lead.CompanyDescription, &lead.Country, &lead.EnrichedAt)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountLeadsByJobID возвращает число лидов, сохранённых для задачи.
func (s *Storage) CountLeadsByJobID(ctx context.Context, jobID int64) (int, error) {
	const op = "storage.CountLeadsByJobID"

	var count int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads WHERE job_id = $1`, jobID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
