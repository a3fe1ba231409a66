// Package enrichment содержит стратегии обогащения лидов: генерацию через
// LLM, скрейпинг сайта компании и конвертацию результатов бизнес-поиска.
//
// Все стратегии закрываются от собственных сбоев: при любой внутренней
// ошибке возвращается запасной лид, построенный из домена, а не ошибка,
// поэтому пачка никогда не прерывается из-за одного плохого входа.
package enrichment

import (
	"context"
	"strings"
	"unicode"

	"github.com/magabrotheeeer/lead-forge/internal/models"
)

// Strategy описывает обогащение одного домена в рамках задачи.
type Strategy interface {
	Enrich(ctx context.Context, domain string, jobID int64) (*models.Lead, error)
}

// domainStem возвращает часть домена до первой точки.
func domainStem(domain string) string {
	if idx := strings.Index(domain, "."); idx >= 0 {
		return domain[:idx]
	}
	return domain
}

// capitalizedStem возвращает часть домена до первой точки с заглавной буквы.
func capitalizedStem(domain string) string {
	stem := domainStem(domain)
	if stem == "" {
		return stem
	}
	runes := []rune(stem)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// clampScore приводит оценку лида к диапазону [1, 10].
func clampScore(score int) int {
	if score < 1 {
		return 1
	}
	if score > 10 {
		return 10
	}
	return score
}
