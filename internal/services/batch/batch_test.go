package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/lead-forge/internal/models"
)

// fakeQuota эмулирует живой счётчик кредитов: списания уменьшают остаток.
type fakeQuota struct {
	credits     int
	resetCalled bool
}

func (q *fakeQuota) AvailableCredits(ctx context.Context, username string) (int, error) {
	return q.credits, nil
}

func (q *fakeQuota) CanProcess(ctx context.Context, username string, requested int) (bool, error) {
	return q.credits >= requested, nil
}

func (q *fakeQuota) ResetIfDue(ctx context.Context, username string) error {
	q.resetCalled = true
	return nil
}

func (q *fakeQuota) Debit(ctx context.Context, username string, count int) error {
	q.credits -= count
	return nil
}

// fakeJobRepo хранит задачи и лиды в памяти.
type fakeJobRepo struct {
	jobs   map[int64]*models.Job
	leads  []models.Lead
	nextID int64
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[int64]*models.Job), nextID: 1}
}

func (r *fakeJobRepo) CreateJob(ctx context.Context, job models.Job) (int64, error) {
	id := r.nextID
	r.nextID++
	job.ID = id
	r.jobs[id] = &job
	return id, nil
}

func (r *fakeJobRepo) UpdateJobProgress(ctx context.Context, jobID int64, processedCount int) error {
	r.jobs[jobID].ProcessedCount = processedCount
	return nil
}

func (r *fakeJobRepo) FinalizeJob(ctx context.Context, jobID int64, status string, processedCount, creditsUsed int, completedAt time.Time) error {
	job := r.jobs[jobID]
	job.Status = status
	job.ProcessedCount = processedCount
	job.CreditsUsed = creditsUsed
	job.CompletedAt = &completedAt
	return nil
}

func (r *fakeJobRepo) CreateLead(ctx context.Context, lead models.Lead) (int64, error) {
	r.leads = append(r.leads, lead)
	return int64(len(r.leads)), nil
}

func (r *fakeJobRepo) leadsForJob(jobID int64) int {
	count := 0
	for _, lead := range r.leads {
		if lead.JobID == jobID {
			count++
		}
	}
	return count
}

// stubStrategy возвращает лид по домену без сети.
type stubStrategy struct{}

func (stubStrategy) Enrich(ctx context.Context, domain string, jobID int64) (*models.Lead, error) {
	return &models.Lead{JobID: jobID, Domain: domain, CompanyName: domain, LeadScore: 5}, nil
}

type stubBusinessEnricher struct{}

func (stubBusinessEnricher) EnrichBusiness(ctx context.Context, business models.BusinessResult, jobID int64) (*models.Lead, error) {
	return &models.Lead{JobID: jobID, Domain: "N/A", CompanyName: business.Name, LeadScore: 5}, nil
}

type recordingPublisher struct {
	messages []models.JobCompletedMessage
}

func (p *recordingPublisher) PublishJobCompleted(message any) error {
	p.messages = append(p.messages, message.(models.JobCompletedMessage))
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func domains(n int) []string {
	result := make([]string, 0, n)
	for i := 0; i < n; i++ {
		result = append(result, fmt.Sprintf("company%d.com", i))
	}
	return result
}

func newTestBatch(repo *fakeJobRepo, quota *fakeQuota, pub *recordingPublisher) *BatchService {
	svc := NewBatchService(repo, quota, stubStrategy{}, stubBusinessEnricher{}, pub, "scraper", discardLogger())
	svc.now = func() time.Time { return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestProcessDomains_FullBatch(t *testing.T) {
	repo := newFakeJobRepo()
	quota := &fakeQuota{credits: 10}
	pub := &recordingPublisher{}

	svc := newTestBatch(repo, quota, pub)
	result, err := svc.ProcessDomains(context.Background(), "alice", "leads.csv", domains(4))
	require.NoError(t, err)

	assert.Equal(t, 4, result.Requested)
	assert.Equal(t, 4, result.Processed)
	assert.Equal(t, 4, result.CreditsUsed)
	assert.Equal(t, 6, result.RemainingCredits)
	assert.Empty(t, result.Warning)
	assert.True(t, quota.resetCalled, "сброс окна проверяется до обработки")

	job := repo.jobs[result.JobID]
	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Equal(t, 4, job.ProcessedCount)
	assert.Equal(t, 4, job.CreditsUsed)
	require.NotNil(t, job.CompletedAt)

	// обработанных лидов ровно столько, сколько строк лидов у задачи
	assert.Equal(t, job.ProcessedCount, repo.leadsForJob(result.JobID))

	require.Len(t, pub.messages, 1)
	assert.Equal(t, result.JobID, pub.messages[0].JobID)
	assert.Equal(t, 4, pub.messages[0].ProcessedCount)
	assert.Equal(t, 6, pub.messages[0].RemainingCredits)
}

func TestProcessDomains_ClampedToCredits(t *testing.T) {
	repo := newFakeJobRepo()
	quota := &fakeQuota{credits: 3}

	svc := newTestBatch(repo, quota, &recordingPublisher{})
	result, err := svc.ProcessDomains(context.Background(), "alice", "big.csv", domains(5))
	require.NoError(t, err)

	assert.Equal(t, 3, result.Requested, "пачка урезается до остатка кредитов")
	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 0, result.RemainingCredits)
	assert.NotEmpty(t, result.Warning)

	assert.Equal(t, 3, repo.leadsForJob(result.JobID))
	assert.Equal(t, 0, quota.credits)
}

func TestProcessDomains_NoCreditsNoJob(t *testing.T) {
	repo := newFakeJobRepo()
	quota := &fakeQuota{credits: 0}

	svc := newTestBatch(repo, quota, &recordingPublisher{})
	result, err := svc.ProcessDomains(context.Background(), "alice", "leads.csv", domains(2))

	require.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Nil(t, result)
	assert.Empty(t, repo.jobs, "при нулевом остатке задача не создается")
	assert.Empty(t, repo.leads)
}

func TestProcessDomains_RecheckFailureMarksJobFailed(t *testing.T) {
	repo := newFakeJobRepo()
	// CanProcess вернет false: остаток меньше размера пачки уже после
	// урезания не бывает, но перепроверка защищает от гонки — эмулируем её
	quota := &racingQuota{available: 5, canProcess: false}

	svc := NewBatchService(repo, quota, stubStrategy{}, stubBusinessEnricher{}, nil, "scraper", discardLogger())
	result, err := svc.ProcessDomains(context.Background(), "alice", "leads.csv", domains(3))

	require.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Nil(t, result)
	require.Len(t, repo.jobs, 1)
	for _, job := range repo.jobs {
		assert.Equal(t, models.JobStatusFailed, job.Status)
		assert.Equal(t, 0, job.CreditsUsed)
	}
}

// racingQuota показывает остаток, но проваливает перепроверку.
type racingQuota struct {
	available     int
	canProcess    bool
	canProcessErr error
}

func (q *racingQuota) AvailableCredits(ctx context.Context, username string) (int, error) {
	return q.available, nil
}

func (q *racingQuota) CanProcess(ctx context.Context, username string, requested int) (bool, error) {
	return q.canProcess, q.canProcessErr
}

func (q *racingQuota) ResetIfDue(ctx context.Context, username string) error { return nil }
func (q *racingQuota) Debit(ctx context.Context, username string, count int) error {
	return nil
}

func TestProcessDomains_RecheckErrorMarksJobFailed(t *testing.T) {
	repo := newFakeJobRepo()
	quota := &racingQuota{available: 5, canProcessErr: fmt.Errorf("storage is down")}

	svc := NewBatchService(repo, quota, stubStrategy{}, stubBusinessEnricher{}, nil, "scraper", discardLogger())
	result, err := svc.ProcessDomains(context.Background(), "alice", "leads.csv", domains(3))

	require.Error(t, err)
	assert.Nil(t, result)
	// ошибка перепроверки тоже не должна оставить задачу висеть в processing
	require.Len(t, repo.jobs, 1)
	for _, job := range repo.jobs {
		assert.Equal(t, models.JobStatusFailed, job.Status)
		assert.Equal(t, 0, job.CreditsUsed)
	}
}

func TestProcessBusinesses_CappedAtTwenty(t *testing.T) {
	repo := newFakeJobRepo()
	quota := &fakeQuota{credits: 100}

	businesses := make([]models.BusinessResult, 0, 30)
	for i := 0; i < 30; i++ {
		businesses = append(businesses, models.BusinessResult{Name: fmt.Sprintf("Biz %d", i)})
	}

	svc := newTestBatch(repo, quota, &recordingPublisher{})
	result, err := svc.ProcessBusinesses(context.Background(), "alice", "Search: coffee", businesses)
	require.NoError(t, err)

	assert.Equal(t, 20, result.Requested, "поиск ограничен двадцатью лидами")
	assert.Equal(t, 20, result.Processed)
	assert.Equal(t, 80, result.RemainingCredits)
	assert.NotEmpty(t, result.Warning)
}

func TestProcessBusinesses_ClampedToCredits(t *testing.T) {
	repo := newFakeJobRepo()
	quota := &fakeQuota{credits: 2}

	businesses := []models.BusinessResult{{Name: "A"}, {Name: "B"}, {Name: "C"}}

	svc := newTestBatch(repo, quota, &recordingPublisher{})
	result, err := svc.ProcessBusinesses(context.Background(), "alice", "Search: pizza", businesses)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 0, result.RemainingCredits)
	assert.Equal(t, 2, repo.leadsForJob(result.JobID))
}
