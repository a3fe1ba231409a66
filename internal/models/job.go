// Package models содержит доменные структуры сервиса генерации лидов,
// а также вспомогательные типы для приёма данных из JSON-запросов.
package models

import "time"

// Статусы задачи обогащения. Переходы только вперёд:
// pending -> processing -> completed | failed.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// Job представляет одну пачку обработки: загрузку CSV или поиск.
// Инварианты: ProcessedCount <= RequestedCount, CreditsUsed == ProcessedCount
// при нормальном завершении, CompletedAt заполняется только в терминальном статусе.
type Job struct {
	ID             int64      `json:"id"`
	Username       string     `json:"username"`
	SourceLabel    string     `json:"source_label"` // имя файла или описание поиска
	RequestedCount int        `json:"requested_count"`
	ProcessedCount int        `json:"processed_count"`
	CreditsUsed    int        `json:"credits_used"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`

	Leads []*Lead `json:"leads,omitempty"`
}

// JobCompletedMessage сообщение для очереди уведомлений о завершении задачи.
type JobCompletedMessage struct {
	Username         string `json:"username"`
	JobID            int64  `json:"job_id"`
	SourceLabel      string `json:"source_label"`
	ProcessedCount   int    `json:"processed_count"`
	RemainingCredits int    `json:"remaining_credits"`
}
