// Package csvio реализует разбор загружаемых CSV со списками доменов
// и выгрузку обогащённых лидов в CSV фиксированного формата.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/magabrotheeeer/lead-forge/internal/models"
)

// domainColumns имена колонок, в которых ищется домен, в порядке приоритета.
// Если ни одна не найдена, берётся первая колонка.
var domainColumns = []string{"domain", "Domain", "website", "Website"}

// exportHeader фиксированный набор колонок выгрузки лидов.
var exportHeader = []string{
	"Domain", "Company Name", "Industry", "Employee Count",
	"Business Email", "Phone", "Lead Score", "Country", "Company Description",
}

// ParseDomains читает CSV с заголовком и возвращает список очищенных доменов.
// Пустые значения пропускаются.
func ParseDomains(r io.Reader) ([]string, error) {
	const op = "csvio.ParseDomains"

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", op, err)
	}

	col := domainColumnIndex(header)

	var domains []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: read record: %w", op, err)
		}
		if col >= len(record) {
			continue
		}
		domain := CleanDomain(record[col])
		if domain != "" {
			domains = append(domains, domain)
		}
	}
	return domains, nil
}

// CleanDomain убирает схему, префикс www и путь, оставляя голый домен.
func CleanDomain(raw string) string {
	domain := strings.TrimSpace(raw)
	domain = strings.TrimPrefix(domain, "http://")
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "www.")
	if idx := strings.Index(domain, "/"); idx >= 0 {
		domain = domain[:idx]
	}
	return strings.TrimSpace(domain)
}

// WriteLeads выгружает лиды задачи в CSV с фиксированным набором колонок.
func WriteLeads(w io.Writer, leads []*models.Lead) error {
	const op = "csvio.WriteLeads"

	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return fmt.Errorf("%s: write header: %w", op, err)
	}
	for _, lead := range leads {
		record := []string{
			lead.Domain,
			lead.CompanyName,
			lead.Industry,
			lead.EmployeeCount,
			lead.BusinessEmail,
			lead.Phone,
			strconv.Itoa(lead.LeadScore),
			lead.Country,
			lead.CompanyDescription,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("%s: write record: %w", op, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("%s: flush: %w", op, err)
	}
	return nil
}

func domainColumnIndex(header []string) int {
	for _, name := range domainColumns {
		for i, h := range header {
			if strings.TrimSpace(h) == name {
				return i
			}
		}
	}
	return 0
}
