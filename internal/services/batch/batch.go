// Package services содержит пакетную обработку: прогон списка доменов или
// результатов бизнес-поиска через стратегию обогащения с поштучным
// списанием кредитов и ведением задачи.
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/lead-forge/internal/enrichment"
	"github.com/magabrotheeeer/lead-forge/internal/lib/sl"
	"github.com/magabrotheeeer/lead-forge/internal/metrics"
	"github.com/magabrotheeeer/lead-forge/internal/models"
)

// ErrQuotaExceeded возвращается, когда на пачку не хватает кредитов.
var ErrQuotaExceeded = errors.New("monthly credit quota exceeded")

// maxSearchLeads — потолок лидов за один бизнес-поиск независимо от остатка.
const maxSearchLeads = 20

// Quota описывает учёт кредитов, который нужен обработчику пачек.
type Quota interface {
	// AvailableCredits возвращает остаток кредитов пользователя.
	AvailableCredits(ctx context.Context, username string) (int, error)
	// CanProcess отвечает, хватит ли кредитов на requested лидов.
	CanProcess(ctx context.Context, username string, requested int) (bool, error)
	// ResetIfDue сбрасывает месячный счётчик, если окно истекло.
	ResetIfDue(ctx context.Context, username string) error
	// Debit списывает count кредитов.
	Debit(ctx context.Context, username string, count int) error
}

// JobRepository описывает работу с задачами и лидами в хранилище.
type JobRepository interface {
	// CreateJob добавляет новую задачу и возвращает её ID.
	CreateJob(ctx context.Context, job models.Job) (int64, error)
	// UpdateJobProgress обновляет счётчик обработанных лидов.
	UpdateJobProgress(ctx context.Context, jobID int64, processedCount int) error
	// FinalizeJob проставляет финальный статус, счётчики и время завершения.
	FinalizeJob(ctx context.Context, jobID int64, status string, processedCount, creditsUsed int, completedAt time.Time) error
	// CreateLead сохраняет обогащённый лид.
	CreateLead(ctx context.Context, lead models.Lead) (int64, error)
}

// BusinessEnricher превращает результат бизнес-поиска в лид.
type BusinessEnricher interface {
	EnrichBusiness(ctx context.Context, business models.BusinessResult, jobID int64) (*models.Lead, error)
}

// Publisher отправляет уведомление о завершённой задаче.
type Publisher interface {
	PublishJobCompleted(message any) error
}

// Result — итог обработки пачки.
type Result struct {
	JobID            int64  `json:"job_id"`
	Requested        int    `json:"requested"`
	Processed        int    `json:"processed"`
	CreditsUsed      int    `json:"credits_used"`
	RemainingCredits int    `json:"remaining_credits"`
	Warning          string `json:"warning,omitempty"`
}

// BatchService прогоняет пачку входов через стратегию обогащения.
type BatchService struct {
	repo         JobRepository
	quota        Quota
	strategy     enrichment.Strategy
	business     BusinessEnricher
	publisher    Publisher
	log          *slog.Logger
	strategyName string
	now          func() time.Time
}

// NewBatchService создает новый экземпляр BatchService. strategyName попадает
// в метрики как метка стратегии обогащения.
func NewBatchService(repo JobRepository, quota Quota, strategy enrichment.Strategy,
	business BusinessEnricher, publisher Publisher, strategyName string, log *slog.Logger) *BatchService {
	return &BatchService{
		repo:         repo,
		quota:        quota,
		strategy:     strategy,
		business:     business,
		publisher:    publisher,
		log:          log,
		strategyName: strategyName,
		now:          time.Now,
	}
}

// ProcessDomains обогащает список доменов, списывая по кредиту за лид.
// Если доменов больше, чем осталось кредитов, пачка урезается до остатка
// и в результате появляется предупреждение. При нуле кредитов задача не
// создается и возвращается ErrQuotaExceeded.
func (s *BatchService) ProcessDomains(ctx context.Context, username, sourceLabel string, domains []string) (*Result, error) {
	if err := s.quota.ResetIfDue(ctx, username); err != nil {
		return nil, err
	}

	available, err := s.quota.AvailableCredits(ctx, username)
	if err != nil {
		return nil, err
	}
	if available <= 0 {
		return nil, ErrQuotaExceeded
	}

	warning := ""
	toProcess := domains
	if len(domains) > available {
		toProcess = domains[:available]
		warning = "not enough credits for the whole batch, processing a part"
		s.log.Warn("batch clamped to available credits",
			slog.String("username", username),
			slog.Int("requested", len(domains)),
			slog.Int("clamped", available))
	}

	jobID, err := s.startJob(ctx, username, sourceLabel, len(toProcess))
	if err != nil {
		return nil, err
	}

	processed := 0
	for _, domain := range toProcess {
		current, err := s.quota.AvailableCredits(ctx, username)
		if err != nil {
			s.log.Error("failed to check credits mid-batch", sl.Err(err))
			break
		}
		if current <= 0 {
			s.log.Warn("ran out of credits mid-batch",
				slog.String("username", username), slog.Int("processed", processed))
			break
		}

		lead, err := s.strategy.Enrich(ctx, domain, jobID)
		if err != nil {
			s.log.Error("failed to enrich domain", slog.String("domain", domain), sl.Err(err))
			continue
		}
		if err := s.persistLead(ctx, username, jobID, *lead, &processed); err != nil {
			s.log.Error("failed to persist lead", slog.String("domain", domain), sl.Err(err))
		}
	}

	return s.finishJob(ctx, username, sourceLabel, jobID, len(toProcess), processed, warning)
}

// ProcessBusinesses обогащает результаты бизнес-поиска. Помимо остатка
// кредитов действует потолок в 20 лидов за один поиск.
func (s *BatchService) ProcessBusinesses(ctx context.Context, username, sourceLabel string, businesses []models.BusinessResult) (*Result, error) {
	if err := s.quota.ResetIfDue(ctx, username); err != nil {
		return nil, err
	}

	available, err := s.quota.AvailableCredits(ctx, username)
	if err != nil {
		return nil, err
	}
	if available <= 0 {
		return nil, ErrQuotaExceeded
	}

	maxLeads := available
	if maxLeads > maxSearchLeads {
		maxLeads = maxSearchLeads
	}

	warning := ""
	toProcess := businesses
	if len(businesses) > maxLeads {
		toProcess = businesses[:maxLeads]
		warning = "found more businesses than can be processed, taking a part"
		s.log.Warn("search batch clamped",
			slog.String("username", username),
			slog.Int("found", len(businesses)),
			slog.Int("clamped", maxLeads))
	}

	jobID, err := s.startJob(ctx, username, sourceLabel, len(toProcess))
	if err != nil {
		return nil, err
	}

	processed := 0
	for _, business := range toProcess {
		current, err := s.quota.AvailableCredits(ctx, username)
		if err != nil {
			s.log.Error("failed to check credits mid-batch", sl.Err(err))
			break
		}
		if current <= 0 {
			s.log.Warn("ran out of credits mid-search",
				slog.String("username", username), slog.Int("processed", processed))
			break
		}

		lead, err := s.business.EnrichBusiness(ctx, business, jobID)
		if err != nil {
			s.log.Error("failed to enrich business", slog.String("name", business.Name), sl.Err(err))
			continue
		}
		if err := s.persistLead(ctx, username, jobID, *lead, &processed); err != nil {
			s.log.Error("failed to persist lead", slog.String("name", business.Name), sl.Err(err))
		}
	}

	return s.finishJob(ctx, username, sourceLabel, jobID, len(toProcess), processed, warning)
}

// startJob создает задачу в статусе processing и перепроверяет квоту уже
// после создания. Проваленная перепроверка оставляет задачу со статусом
// failed, а не зависшей в processing.
func (s *BatchService) startJob(ctx context.Context, username, sourceLabel string, requested int) (int64, error) {
	jobID, err := s.repo.CreateJob(ctx, models.Job{
		Username:       username,
		SourceLabel:    sourceLabel,
		RequestedCount: requested,
		Status:         models.JobStatusProcessing,
		CreatedAt:      s.now().UTC(),
	})
	if err != nil {
		return 0, err
	}

	ok, err := s.quota.CanProcess(ctx, username, requested)
	if err != nil {
		s.failJob(ctx, jobID)
		return 0, err
	}
	if !ok {
		s.failJob(ctx, jobID)
		return 0, ErrQuotaExceeded
	}
	return jobID, nil
}

// failJob переводит задачу в терминальный статус failed, чтобы она не
// зависла в processing.
func (s *BatchService) failJob(ctx context.Context, jobID int64) {
	if err := s.repo.FinalizeJob(ctx, jobID, models.JobStatusFailed, 0, 0, s.now().UTC()); err != nil {
		s.log.Error("failed to mark job as failed", slog.Int64("job_id", jobID), sl.Err(err))
	}
	metrics.JobsFinished.WithLabelValues(models.JobStatusFailed).Inc()
}

func (s *BatchService) persistLead(ctx context.Context, username string, jobID int64, lead models.Lead, processed *int) error {
	if _, err := s.repo.CreateLead(ctx, lead); err != nil {
		return err
	}
	*processed++
	metrics.LeadsEnriched.WithLabelValues(s.strategyName).Inc()

	if err := s.repo.UpdateJobProgress(ctx, jobID, *processed); err != nil {
		s.log.Error("failed to update job progress", slog.Int64("job_id", jobID), sl.Err(err))
	}

	// кредит списывается сразу за каждый лид, а не одним махом в конце
	if err := s.quota.Debit(ctx, username, 1); err != nil {
		s.log.Error("failed to debit credit", slog.String("username", username), sl.Err(err))
	}
	return nil
}

func (s *BatchService) finishJob(ctx context.Context, username, sourceLabel string, jobID int64, requested, processed int, warning string) (*Result, error) {
	if err := s.repo.FinalizeJob(ctx, jobID, models.JobStatusCompleted, processed, processed, s.now().UTC()); err != nil {
		return nil, err
	}
	metrics.JobsFinished.WithLabelValues(models.JobStatusCompleted).Inc()

	remaining, err := s.quota.AvailableCredits(ctx, username)
	if err != nil {
		s.log.Warn("failed to read remaining credits", sl.Err(err))
		remaining = 0
	}

	if s.publisher != nil {
		msg := models.JobCompletedMessage{
			Username:         username,
			JobID:            jobID,
			SourceLabel:      sourceLabel,
			ProcessedCount:   processed,
			RemainingCredits: remaining,
		}
		if err := s.publisher.PublishJobCompleted(msg); err != nil {
			s.log.Warn("failed to publish job completed message", sl.Err(err))
		}
	}

	s.log.Info("batch finished",
		slog.Int64("job_id", jobID),
		slog.Int("processed", processed),
		slog.Int("remaining_credits", remaining))

	return &Result{
		JobID:            jobID,
		Requested:        requested,
		Processed:        processed,
		CreditsUsed:      processed,
		RemainingCredits: remaining,
		Warning:          warning,
	}, nil
}
