package enrichment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/lead-forge/internal/models"
)

type mockDomainStrategy struct {
	mock.Mock
}

func (m *mockDomainStrategy) Enrich(ctx context.Context, domain string, jobID int64) (*models.Lead, error) {
	args := m.Called(ctx, domain, jobID)
	return args.Get(0).(*models.Lead), args.Error(1)
}

func newTestPlaces(scraper Strategy) *PlacesStrategy {
	s := NewPlacesStrategy(discardLogger(), scraper)
	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestPlacesStrategy_EnrichBusiness_DelegatesWhenWebsitePresent(t *testing.T) {
	scraper := new(mockDomainStrategy)
	expected := &models.Lead{JobID: 4, Domain: "acme.com", CompanyName: "Acme"}
	scraper.On("Enrich", mock.Anything, "acme.com", int64(4)).Return(expected, nil)

	s := newTestPlaces(scraper)
	lead, err := s.EnrichBusiness(context.Background(), models.BusinessResult{
		Name:    "Acme Bakery",
		Website: "https://www.acme.com/about",
	}, 4)

	require.NoError(t, err)
	assert.Same(t, expected, lead, "при наличии сайта обогащение уходит скрейперу")
	scraper.AssertExpectations(t)
}

func TestPlacesStrategy_EnrichBusiness_WithoutWebsite(t *testing.T) {
	rating := 4.5

	s := newTestPlaces(nil)
	lead, err := s.EnrichBusiness(context.Background(), models.BusinessResult{
		Name:       "Blue Sky Cafe",
		Phone:      "+1-202-555-0188",
		Rating:     &rating,
		SearchTerm: "coffee shop",
		Country:    "Canada",
	}, 9)

	require.NoError(t, err)
	assert.Equal(t, int64(9), lead.JobID)
	assert.Equal(t, "N/A", lead.Domain)
	assert.Equal(t, "Blue Sky Cafe", lead.CompanyName)
	assert.Equal(t, "info@blueskycafe.com", lead.BusinessEmail)
	assert.Equal(t, "+1-202-555-0188", lead.Phone)
	assert.Equal(t, 9, lead.LeadScore, "оценка выводится из рейтинга: 4.5 * 2")
	assert.Equal(t, "Found via search: coffee shop", lead.CompanyDescription)
	assert.Equal(t, "Canada", lead.Country)
}

func TestPlacesStrategy_EnrichBusiness_Defaults(t *testing.T) {
	s := newTestPlaces(nil)
	lead, err := s.EnrichBusiness(context.Background(), models.BusinessResult{
		Name:       "No Data LLC",
		SearchTerm: "plumber",
		Country:    "United States",
	}, 2)

	require.NoError(t, err)
	assert.Equal(t, 5, lead.LeadScore, "без рейтинга ставится нейтральная оценка")
	assert.Equal(t, "Not found", lead.Phone)
	assert.Equal(t, "Unknown", lead.Industry)
	assert.Equal(t, "Unknown", lead.EmployeeCount)
}
