package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/lead-forge/internal/models"
)

// CreateJob вставляет новую задачу обогащения и возвращает её ID.
func (s *Storage) CreateJob(ctx context.Context, job models.Job) (int64, error) {
	const op = "storage.CreateJob"

	query := `INSERT INTO jobs (username, source_label, requested_count, processed_count,
			      credits_used, status, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id`
	var newID int64
	err := s.DB.QueryRowContext(ctx, query,
		job.Username, job.SourceLabel, job.RequestedCount, job.ProcessedCount,
		job.CreditsUsed, job.Status, job.CreatedAt).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// UpdateJobProgress сохраняет текущий счётчик обработанных лидов.
// Вызывается на каждой итерации пачки, чтобы прогресс был виден сразу.
func (s *Storage) UpdateJobProgress(ctx context.Context, jobID int64, processedCount int) error {
	const op = "storage.UpdateJobProgress"

	query := `UPDATE jobs SET processed_count = $1 WHERE id = $2`
	if _, err := s.DB.ExecContext(ctx, query, processedCount, jobID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FinalizeJob переводит задачу в терминальный статус с итоговыми счётчиками.
func (s *Storage) FinalizeJob(ctx context.Context, jobID int64, status string, processedCount, creditsUsed int, completedAt time.Time) error {
	const op = "storage.FinalizeJob"

	query := `UPDATE jobs
			  SET status = $1, processed_count = $2, credits_used = $3, completed_at = $4
			  WHERE id = $5`
	if _, err := s.DB.ExecContext(ctx, query, status, processedCount, creditsUsed, completedAt, jobID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetJobByID возвращает задачу пользователя или nil, если она не найдена.
func (s *Storage) GetJobByID(ctx context.Context, jobID int64, username string) (*models.Job, error) {
	const op = "storage.GetJobByID"

	query := `SELECT id, username, source_label, requested_count, processed_count,
			         credits_used, status, created_at, completed_at
			  FROM jobs WHERE id = $1 AND username = $2`
	var job models.Job
	err := s.DB.QueryRowContext(ctx, query, jobID, username).Scan(
		&job.ID, &job.Username, &job.SourceLabel, &job.RequestedCount, &job.ProcessedCount,
		&job.CreditsUsed, &job.Status, &job.CreatedAt, &job.CompletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &job, nil
}

// ListJobsByUsername возвращает задачи пользователя, новые первыми.
func (s *Storage) ListJobsByUsername(ctx context.Context, username string, limit, offset int) ([]*models.Job, error) {
	const op = "storage.ListJobsByUsername"

	query := `SELECT id, username, source_label, requested_count, processed_count,
			         credits_used, status, created_at, completed_at
			  FROM jobs WHERE username = $1
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, username, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.Job
	for rows.Next() {
		var job models.Job
		err := rows.Scan(&job.ID, &job.Username, &job.SourceLabel, &job.RequestedCount,
			&job.ProcessedCount, &job.CreditsUsed, &job.Status, &job.CreatedAt, &job.CompletedAt)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// DeleteJob удаляет задачу пользователя вместе с её лидами (каскадно).
// Возвращает количество удалённых задач.
func (s *Storage) DeleteJob(ctx context.Context, jobID int64, username string) (int64, error) {
	const op = "storage.DeleteJob"

	query := `DELETE FROM jobs WHERE id = $1 AND username = $2`
	result, err := s.DB.ExecContext(ctx, query, jobID, username)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return result.RowsAffected()
}
