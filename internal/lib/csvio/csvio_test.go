package csvio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/lead-forge/internal/models"
)

func TestParseDomains(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want []string
	}{
		{
			name: "колонка domain",
			csv:  "domain,company\nexample.com,Example\nacme.io,Acme\n",
			want: []string{"example.com", "acme.io"},
		},
		{
			name: "колонка Website в приоритете над первой",
			csv:  "name,Website\nExample,https://www.example.com/about\n",
			want: []string{"example.com"},
		},
		{
			name: "без известных колонок берётся первая",
			csv:  "url\nhttp://acme.io/contact\n",
			want: []string{"acme.io"},
		},
		{
			name: "пустые значения пропускаются",
			csv:  "domain\nexample.com\n\n  \nacme.io\n",
			want: []string{"example.com", "acme.io"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDomains(strings.NewReader(tt.csv))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCleanDomain(t *testing.T) {
	assert.Equal(t, "example.com", CleanDomain("https://www.example.com/path/page"))
	assert.Equal(t, "example.com", CleanDomain("http://example.com"))
	assert.Equal(t, "example.com", CleanDomain("  example.com  "))
}

func TestWriteLeads(t *testing.T) {
	leads := []*models.Lead{
		{
			Domain:             "example.com",
			CompanyName:        "Example",
			Industry:           "Technology",
			EmployeeCount:      "11-50",
			BusinessEmail:      "info@example.com",
			Phone:              "+1-555-0100",
			LeadScore:          8,
			Country:            "United States",
			CompanyDescription: "Some, \"quoted\" description",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteLeads(&buf, leads))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Domain,Company Name,Industry,Employee Count,Business Email,Phone,Lead Score,Country,Company Description", lines[0])
	assert.Contains(t, lines[1], "example.com,Example,Technology,11-50,info@example.com,+1-555-0100,8,United States")
}
