package enrichment

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/lead-forge/internal/lib/csvio"
	"github.com/magabrotheeeer/lead-forge/internal/models"
)

// PlacesStrategy превращает результат бизнес-поиска в лид. Сетевых запросов
// не делает: если у бизнеса есть сайт, обогащение делегируется скрейперу,
// иначе лид собирается из данных поиска.
type PlacesStrategy struct {
	log     *slog.Logger
	scraper Strategy
	now     func() time.Time
}

// NewPlacesStrategy создает стратегию конвертации результатов поиска.
func NewPlacesStrategy(log *slog.Logger, scraper Strategy) *PlacesStrategy {
	return &PlacesStrategy{
		log:     log,
		scraper: scraper,
		now:     time.Now,
	}
}

// EnrichBusiness строит лид по результату поиска. Оценка без сайта выводится
// из рейтинга заведения: rating * 2, при отсутствии рейтинга берется 5.
func (s *PlacesStrategy) EnrichBusiness(ctx context.Context, business models.BusinessResult, jobID int64) (*models.Lead, error) {
	if business.Website != "" {
		return s.scraper.Enrich(ctx, csvio.CleanDomain(business.Website), jobID)
	}

	score := 5
	if business.Rating != nil {
		score = int(*business.Rating * 2)
	}

	phone := business.Phone
	if phone == "" {
		phone = "Not found"
	}

	return &models.Lead{
		JobID:              jobID,
		Domain:             "N/A",
		CompanyName:        business.Name,
		Industry:           "Unknown",
		EmployeeCount:      "Unknown",
		BusinessEmail:      "info@" + slugifyName(business.Name) + ".com",
		Phone:              phone,
		LeadScore:          clampScore(score),
		CompanyDescription: "Found via search: " + business.SearchTerm,
		Country:            business.Country,
		EnrichedAt:         s.now().UTC(),
	}, nil
}

func slugifyName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", ""))
}
