// Package metrics определяет счётчики Prometheus для пайплайна обогащения.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LeadsEnriched количество созданных лидов по стратегиям обогащения.
	LeadsEnriched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadforge_leads_enriched_total",
		Help: "Number of leads produced, labelled by enrichment strategy.",
	}, []string{"strategy"})

	// CreditsSpent количество списанных кредитов.
	CreditsSpent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadforge_credits_spent_total",
		Help: "Number of quota credits debited.",
	})

	// JobsFinished количество завершённых задач по терминальному статусу.
	JobsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadforge_jobs_finished_total",
		Help: "Number of batch jobs finished, labelled by terminal status.",
	}, []string{"status"})
)
