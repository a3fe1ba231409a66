// Package services содержит работу с готовыми задачами и их лидами:
// списки, просмотр, удаление и выгрузка в CSV.
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/lead-forge/internal/lib/csvio"
	"github.com/magabrotheeeer/lead-forge/internal/models"
)

// ErrJobNotFound возвращается, когда задачи нет или она чужая.
var ErrJobNotFound = errors.New("job not found")

// LeadRepository описывает чтение задач и лидов из хранилища.
type LeadRepository interface {
	// GetJobByID возвращает задачу пользователя или nil, если её нет.
	GetJobByID(ctx context.Context, jobID int64, username string) (*models.Job, error)
	// ListJobsByUsername возвращает задачи пользователя, новые первыми.
	ListJobsByUsername(ctx context.Context, username string, limit, offset int) ([]*models.Job, error)
	// ListLeadsByJobID возвращает лиды задачи в порядке создания.
	ListLeadsByJobID(ctx context.Context, jobID int64) ([]*models.Lead, error)
	// DeleteJob удаляет задачу вместе с лидами, возвращает число удалённых задач.
	DeleteJob(ctx context.Context, jobID int64, username string) (int64, error)
}

// LeadService отдает задачи и лиды их владельцу.
type LeadService struct {
	repo LeadRepository
	log  *slog.Logger
}

// NewLeadService создает новый экземпляр LeadService.
func NewLeadService(repo LeadRepository, log *slog.Logger) *LeadService {
	return &LeadService{repo: repo, log: log}
}

// ListJobs возвращает задачи пользователя с пагинацией.
func (s *LeadService) ListJobs(ctx context.Context, username string, limit, offset int) ([]*models.Job, error) {
	return s.repo.ListJobsByUsername(ctx, username, limit, offset)
}

// GetJobWithLeads возвращает задачу пользователя вместе с её лидами.
func (s *LeadService) GetJobWithLeads(ctx context.Context, jobID int64, username string) (*models.Job, error) {
	job, err := s.repo.GetJobByID(ctx, jobID, username)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}

	leads, err := s.repo.ListLeadsByJobID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	job.Leads = leads
	return job, nil
}

// DeleteJob удаляет задачу пользователя вместе со всеми лидами.
func (s *LeadService) DeleteJob(ctx context.Context, jobID int64, username string) error {
	count, err := s.repo.DeleteJob(ctx, jobID, username)
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrJobNotFound
	}

	s.log.Info("deleted job", slog.Int64("job_id", jobID), slog.String("username", username))
	return nil
}

// ExportCSV выгружает лиды задачи в CSV и возвращает содержимое файла
// вместе с именем вида enriched_leads_<id>_<дата>.csv.
func (s *LeadService) ExportCSV(ctx context.Context, jobID int64, username string) ([]byte, string, error) {
	job, err := s.repo.GetJobByID(ctx, jobID, username)
	if err != nil {
		return nil, "", err
	}
	if job == nil {
		return nil, "", ErrJobNotFound
	}

	leads, err := s.repo.ListLeadsByJobID(ctx, jobID)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	if err := csvio.WriteLeads(&buf, leads); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("enriched_leads_%d_%s.csv", jobID, job.CreatedAt.Format("20060102"))
	return buf.Bytes(), filename, nil
}
