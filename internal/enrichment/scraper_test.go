package enrichment

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestScraper(t *testing.T) *ScraperStrategy {
	t.Helper()
	s := NewScraperStrategy(discardLogger(), 5*time.Second)
	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func serveHTML(t *testing.T, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://")
}

func TestScraperStrategy_Enrich_Success(t *testing.T) {
	page := `<html>
<head>
<title>Acme Corp - Home</title>
<meta name="description" content="Acme Corp builds cloud software platform products for enterprises worldwide.">
</head>
<body>
<p>Contact us at sales@acme.com or info@acme.com, phone +1-202-555-0134.</p>
<p>Proudly serving customers in the United States.</p>
</body>
</html>`
	domain := serveHTML(t, page)

	s := newTestScraper(t)
	lead, err := s.Enrich(context.Background(), domain, 7)
	require.NoError(t, err)
	require.NotNil(t, lead)

	assert.Equal(t, int64(7), lead.JobID)
	assert.Equal(t, domain, lead.Domain)
	assert.Equal(t, "Acme Corp", lead.CompanyName, "мусор после разделителя в title должен отбрасываться")
	assert.Equal(t, "Technology", lead.Industry)
	assert.Equal(t, "sales@acme.com", lead.BusinessEmail)
	assert.Equal(t, "+1-202-555-0134", lead.Phone)
	assert.Equal(t, "United States", lead.Country)
	assert.Contains(t, lead.CompanyDescription, "Acme Corp builds")
	// база 5 + email(2) + второй email(1) + телефон(2) + описание(1), с потолком 10
	assert.Equal(t, 10, lead.LeadScore)
}

func TestScraperStrategy_Enrich_UnreachableWebsite(t *testing.T) {
	s := newTestScraper(t)

	lead, err := s.Enrich(context.Background(), "127.0.0.1:1", 3)
	require.NoError(t, err, "недоступный сайт не должен приводить к ошибке")
	require.NotNil(t, lead)

	assert.Equal(t, "Unknown", lead.Industry)
	assert.Equal(t, "Unknown", lead.Country)
	assert.Equal(t, 3, lead.LeadScore)
	assert.Equal(t, "Not found", lead.Phone)
	assert.Contains(t, strings.ToLower(lead.CompanyDescription), "website unreachable")
}

func TestScraperStrategy_Enrich_NoContacts(t *testing.T) {
	domain := serveHTML(t, `<html><head><title>Quiet Site</title></head><body><p>Hi</p></body></html>`)

	s := newTestScraper(t)
	lead, err := s.Enrich(context.Background(), domain, 1)
	require.NoError(t, err)

	assert.Equal(t, "info@"+domain, lead.BusinessEmail)
	assert.Equal(t, "Not found", lead.Phone)
	assert.Equal(t, "No description available", lead.CompanyDescription)
	assert.Equal(t, 5, lead.LeadScore, "без контактов и описания остаётся базовая оценка")
}

func TestDetectIndustry(t *testing.T) {
	cases := []struct {
		name     string
		content  string
		expected string
	}{
		{
			name:     "технологические ключевые слова",
			content:  "we ship a cloud software platform",
			expected: "Technology",
		},
		{
			name:     "финансы перевешивают",
			content:  "bank investment trading platform with one app",
			expected: "Finance",
		},
		{
			name:     "без совпадений — категория по умолчанию",
			content:  "we sell flowers",
			expected: "Business Services",
		},
		{
			name:     "при равном счёте побеждает более ранняя категория",
			content:  "software for hospital",
			expected: "Technology",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, detectIndustry(strings.ToLower(tc.content)))
		})
	}
}

func TestExtractEmails(t *testing.T) {
	cases := []struct {
		name     string
		content  string
		domain   string
		expected []string
	}{
		{
			name:     "заглушки отфильтрованы",
			content:  "user@example.com real@acme.com icon@2x.png",
			domain:   "acme.com",
			expected: []string{"real@acme.com"},
		},
		{
			name:     "не больше трёх адресов",
			content:  "a@one.com b@two.com c@three.com d@four.com",
			domain:   "acme.com",
			expected: []string{"a@one.com", "b@two.com", "c@three.com"},
		},
		{
			name:     "дубликаты схлопываются",
			content:  "Sales@Acme.com sales@acme.com",
			domain:   "acme.com",
			expected: []string{"sales@acme.com"},
		},
		{
			name:     "адреса на своём домене идут первыми",
			content:  "a@one.com b@two.com c@three.com info@acme.com",
			domain:   "acme.com",
			expected: []string{"info@acme.com", "a@one.com", "b@two.com"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, extractEmails(tc.content, tc.domain))
		})
	}
}

func TestExtractPhones(t *testing.T) {
	phones := extractPhones("call +1-202-555-0134 or (495) 123-4567 or 123-4567")
	require.Len(t, phones, 2)
	assert.Equal(t, "+1-202-555-0134", phones[0])
	assert.NotContains(t, phones, "123-4567", "короткие совпадения отбрасываются")
}

func TestExtractDescription_Truncation(t *testing.T) {
	long := strings.Repeat("a", 250)
	page := pageContent{MetaDesc: long}

	desc := extractDescription(page)
	assert.Len(t, desc, 203)
	assert.True(t, strings.HasSuffix(desc, "..."))
}

func TestExtractCountry(t *testing.T) {
	assert.Equal(t, "United States", extractCountry("made in usa"))
	assert.Equal(t, "United Kingdom", extractCountry("registered in the uk office"))
	assert.Equal(t, "Germany", extractCountry("our office in germany"))
	assert.Equal(t, "Unknown", extractCountry("somewhere else"))
}

func TestCalculateLeadScore(t *testing.T) {
	assert.Equal(t, 5, calculateLeadScore(0, 0, false))
	assert.Equal(t, 7, calculateLeadScore(1, 0, false))
	assert.Equal(t, 8, calculateLeadScore(2, 0, false))
	assert.Equal(t, 10, calculateLeadScore(2, 1, true), "сумма ограничена десятью")
}
