package services

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/lead-forge/internal/models"
)

type mockLeadRepo struct {
	mock.Mock
}

func (m *mockLeadRepo) GetJobByID(ctx context.Context, jobID int64, username string) (*models.Job, error) {
	args := m.Called(ctx, jobID, username)
	job, _ := args.Get(0).(*models.Job)
	return job, args.Error(1)
}

func (m *mockLeadRepo) ListJobsByUsername(ctx context.Context, username string, limit, offset int) ([]*models.Job, error) {
	args := m.Called(ctx, username, limit, offset)
	jobs, _ := args.Get(0).([]*models.Job)
	return jobs, args.Error(1)
}

func (m *mockLeadRepo) ListLeadsByJobID(ctx context.Context, jobID int64) ([]*models.Lead, error) {
	args := m.Called(ctx, jobID)
	leads, _ := args.Get(0).([]*models.Lead)
	return leads, args.Error(1)
}

func (m *mockLeadRepo) DeleteJob(ctx context.Context, jobID int64, username string) (int64, error) {
	args := m.Called(ctx, jobID, username)
	return args.Get(0).(int64), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGetJobWithLeads(t *testing.T) {
	repo := new(mockLeadRepo)
	job := &models.Job{ID: 3, Username: "alice", Status: models.JobStatusCompleted}
	leads := []*models.Lead{{JobID: 3, Domain: "acme.com"}, {JobID: 3, Domain: "globex.io"}}

	repo.On("GetJobByID", mock.Anything, int64(3), "alice").Return(job, nil)
	repo.On("ListLeadsByJobID", mock.Anything, int64(3)).Return(leads, nil)

	svc := NewLeadService(repo, discardLogger())
	got, err := svc.GetJobWithLeads(context.Background(), 3, "alice")
	require.NoError(t, err)
	assert.Len(t, got.Leads, 2)
	repo.AssertExpectations(t)
}

func TestGetJobWithLeads_NotFound(t *testing.T) {
	repo := new(mockLeadRepo)
	repo.On("GetJobByID", mock.Anything, int64(9), "alice").Return(nil, nil)

	svc := NewLeadService(repo, discardLogger())
	_, err := svc.GetJobWithLeads(context.Background(), 9, "alice")
	require.ErrorIs(t, err, ErrJobNotFound, "чужая или отсутствующая задача не отдается")
}

func TestDeleteJob_NotFound(t *testing.T) {
	repo := new(mockLeadRepo)
	repo.On("DeleteJob", mock.Anything, int64(9), "alice").Return(int64(0), nil)

	svc := NewLeadService(repo, discardLogger())
	err := svc.DeleteJob(context.Background(), 9, "alice")
	require.ErrorIs(t, err, ErrJobNotFound)
}

func TestExportCSV(t *testing.T) {
	repo := new(mockLeadRepo)
	created := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	job := &models.Job{ID: 7, Username: "alice", CreatedAt: created}
	leads := []*models.Lead{{
		JobID:         7,
		Domain:        "acme.com",
		CompanyName:   "Acme",
		Industry:      "Technology",
		EmployeeCount: "11-50",
		BusinessEmail: "info@acme.com",
		Phone:         "+1-202-555-0101",
		LeadScore:     8,
		Country:       "United States",
	}}

	repo.On("GetJobByID", mock.Anything, int64(7), "alice").Return(job, nil)
	repo.On("ListLeadsByJobID", mock.Anything, int64(7)).Return(leads, nil)

	svc := NewLeadService(repo, discardLogger())
	data, filename, err := svc.ExportCSV(context.Background(), 7, "alice")
	require.NoError(t, err)

	assert.Equal(t, "enriched_leads_7_20260315.csv", filename)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Lead Score")
	assert.Contains(t, lines[1], "acme.com")
	assert.Contains(t, lines[1], "8")
}
