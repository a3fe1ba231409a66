package enrichment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/magabrotheeeer/lead-forge/internal/lib/sl"
	"github.com/magabrotheeeer/lead-forge/internal/models"
)

const userAgent = "Mozilla/5.0 (compatible; LeadForgeBot/1.0)"

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`(\+?\d{1,3}[-.\s]?)?(\(?\d{3}\)?[-.\s]?)?\d{3}[-.\s]?\d{4}`)

	// Мусор в заголовке после разделителя: "Acme - Home", "Acme | Official Site".
	titleNoiseRe = regexp.MustCompile(`(?i)\s*[-|–]\s*(home|official site|welcome).*$`)
)

// industryKeywords перебирается по порядку: при равном числе совпадений
// побеждает категория, объявленная раньше.
var industryKeywords = []struct {
	Industry string
	Keywords []string
}{
	{"Technology", []string{"software", "tech", "cloud", "saas", "digital", "cyber", "machine learning"}},
	{"Finance", []string{"bank", "finance", "investment", "trading", "fintech", "payment", "insurance", "loan"}},
	{"Healthcare", []string{"health", "medical", "hospital", "clinic", "pharma", "patient", "doctor"}},
	{"E-commerce", []string{"shop", "store", "retail", "ecommerce", "marketplace"}},
	{"Marketing", []string{"marketing", "advertising", "agency", "brand", "campaign", "seo"}},
	{"Education", []string{"education", "learning", "training", "course", "school", "university", "academy"}},
	{"Real Estate", []string{"real estate", "property", "housing", "apartment", "commercial"}},
	{"Manufacturing", []string{"manufacturing", "factory", "production", "industrial", "supply chain"}},
	{"Consulting", []string{"consulting", "advisory", "strategy", "professional services"}},
}

var knownCountries = []string{
	"United States", "USA", "United Kingdom", "UK", "Canada",
	"Australia", "India", "Germany", "France",
}

// pageContent хранит извлечённые при обходе DOM фрагменты страницы.
type pageContent struct {
	Title          string
	MetaDesc       string
	OGDesc         string
	OGSiteName     string
	FirstParagraph string
}

// ScraperStrategy обогащает лид, скачивая и разбирая сайт компании.
type ScraperStrategy struct {
	log    *slog.Logger
	client *http.Client
	now    func() time.Time
}

// NewScraperStrategy создает стратегию скрейпинга с заданным таймаутом запроса.
func NewScraperStrategy(log *slog.Logger, timeout time.Duration) *ScraperStrategy {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ScraperStrategy{
		log:    log,
		client: &http.Client{Timeout: timeout},
		now:    time.Now,
	}
}

// Enrich скачивает главную страницу домена и собирает лид из её содержимого.
// Если сайт недоступен или не разбирается, возвращается запасной лид.
func (s *ScraperStrategy) Enrich(ctx context.Context, domain string, jobID int64) (*models.Lead, error) {
	content := s.fetch(ctx, "https://"+domain)
	if content == "" {
		content = s.fetch(ctx, "http://"+domain)
	}
	if content == "" {
		return s.fallbackLead(domain, jobID, "website unreachable"), nil
	}

	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		s.log.Warn("failed to parse html", slog.String("domain", domain), sl.Err(err))
		return s.fallbackLead(domain, jobID, fmt.Sprintf("parse error: %v", err)), nil
	}

	page := collectPage(doc)
	lowered := strings.ToLower(content)

	emails := extractEmails(content, domain)
	phones := extractPhones(content)
	description := extractDescription(page)

	lead := &models.Lead{
		JobID:         jobID,
		Domain:        domain,
		CompanyName:   extractCompanyName(page, domain),
		Industry:      detectIndustry(lowered),
		EmployeeCount: "Unknown",
		BusinessEmail: "info@" + domain,
		Phone:         "Not found",
		LeadScore:     calculateLeadScore(len(emails), len(phones), description != ""),
		Country:       extractCountry(lowered),
		EnrichedAt:    s.now().UTC(),
	}
	if len(emails) > 0 {
		lead.BusinessEmail = emails[0]
	}
	if len(phones) > 0 {
		lead.Phone = phones[0]
	}
	if description == "" {
		description = "No description available"
	}
	lead.CompanyDescription = description

	return lead, nil
}

func (s *ScraperStrategy) fetch(ctx context.Context, url string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Debug("fetch failed", slog.String("url", url), sl.Err(err))
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.log.Debug("fetch returned non-ok status",
			slog.String("url", url), slog.Int("status", resp.StatusCode))
		return ""
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}
	return string(body)
}

func (s *ScraperStrategy) fallbackLead(domain string, jobID int64, reason string) *models.Lead {
	return &models.Lead{
		JobID:              jobID,
		Domain:             domain,
		CompanyName:        domainStem(domain),
		Industry:           "Unknown",
		EmployeeCount:      "Unknown",
		BusinessEmail:      "info@" + domain,
		Phone:              "Not found",
		LeadScore:          3,
		CompanyDescription: "Could not scrape data: " + reason,
		Country:            "Unknown",
		EnrichedAt:         s.now().UTC(),
	}
}

// collectPage одним обходом DOM собирает заголовок, мета-теги и первый абзац.
func collectPage(doc *html.Node) pageContent {
	var page pageContent
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if page.Title == "" {
					page.Title = strings.TrimSpace(textContent(n))
				}
			case "meta":
				var name, property, content string
				for _, attr := range n.Attr {
					switch strings.ToLower(attr.Key) {
					case "name":
						name = strings.ToLower(attr.Val)
					case "property":
						property = strings.ToLower(attr.Val)
					case "content":
						content = strings.TrimSpace(attr.Val)
					}
				}
				switch {
				case name == "description" && page.MetaDesc == "":
					page.MetaDesc = content
				case property == "og:description" && page.OGDesc == "":
					page.OGDesc = content
				case property == "og:site_name" && page.OGSiteName == "":
					page.OGSiteName = content
				}
			case "p":
				if page.FirstParagraph == "" {
					page.FirstParagraph = strings.TrimSpace(textContent(n))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return page
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// extractCompanyName выбирает имя компании: og:site_name, затем очищенный
// <title>, затем домен с заглавной буквы.
func extractCompanyName(page pageContent, domain string) string {
	if page.OGSiteName != "" {
		return page.OGSiteName
	}
	if page.Title != "" {
		title := titleNoiseRe.ReplaceAllString(page.Title, "")
		title = strings.TrimSpace(title)
		if title != "" {
			return title
		}
	}
	return capitalizedStem(domain)
}

// extractEmails возвращает до трех адресов, отбрасывая заглушки и ложные
// срабатывания на имена файлов. Адреса на самом домене идут первыми.
func extractEmails(content, domain string) []string {
	seen := make(map[string]struct{})
	var sameDomain, other []string
	stem := domainStem(domain)
	for _, match := range emailRe.FindAllString(content, -1) {
		email := strings.ToLower(match)
		if _, ok := seen[email]; ok {
			continue
		}
		if strings.Contains(email, "example.") ||
			strings.Contains(email, "@placeholder") ||
			strings.Contains(email, "@domain.") ||
			strings.HasSuffix(email, ".png") ||
			strings.HasSuffix(email, ".jpg") {
			continue
		}
		seen[email] = struct{}{}
		if strings.Contains(email, "@"+domain) || strings.Contains(email, "@"+stem) {
			sameDomain = append(sameDomain, email)
		} else {
			other = append(other, email)
		}
		if len(sameDomain) >= 3 {
			break
		}
	}

	emails := sameDomain
	for _, email := range other {
		if len(emails) >= 3 {
			break
		}
		emails = append(emails, email)
	}
	return emails
}

// extractPhones возвращает до двух телефонов длиной от 10 до 20 символов.
func extractPhones(content string) []string {
	seen := make(map[string]struct{})
	var phones []string
	for _, match := range phoneRe.FindAllString(content, -1) {
		phone := strings.TrimSpace(match)
		if len(phone) < 10 || len(phone) > 20 {
			continue
		}
		if _, ok := seen[phone]; ok {
			continue
		}
		seen[phone] = struct{}{}
		phones = append(phones, phone)
		if len(phones) >= 2 {
			break
		}
	}
	return phones
}

// detectIndustry подсчитывает вхождения ключевых слов каждой категории,
// при равенстве побеждает категория, стоящая раньше в таблице.
func detectIndustry(lowered string) string {
	best := "Business Services"
	bestScore := 0
	for _, entry := range industryKeywords {
		score := 0
		for _, kw := range entry.Keywords {
			if strings.Contains(lowered, kw) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = entry.Industry
		}
	}
	return best
}

// extractDescription выбирает первое содержательное описание длиннее 20
// символов: meta description, og:description, первый абзац. Длинные
// описания обрезаются до 200 символов.
func extractDescription(page pageContent) string {
	for _, candidate := range []string{page.MetaDesc, page.OGDesc, page.FirstParagraph} {
		candidate = strings.TrimSpace(candidate)
		if len(candidate) <= 20 {
			continue
		}
		runes := []rune(candidate)
		if len(runes) > 200 {
			return string(runes[:200]) + "..."
		}
		return candidate
	}
	return ""
}

func extractCountry(lowered string) string {
	for _, country := range knownCountries {
		if strings.Contains(lowered, strings.ToLower(country)) {
			switch country {
			case "USA":
				return "United States"
			case "UK":
				return "United Kingdom"
			}
			return country
		}
	}
	return "Unknown"
}

// calculateLeadScore начинает с базовых 5 баллов и добавляет очки за
// найденные контакты и описание, не превышая 10.
func calculateLeadScore(emailCount, phoneCount int, hasDescription bool) int {
	score := 5
	if emailCount > 0 {
		score += 2
	}
	if emailCount > 1 {
		score++
	}
	if phoneCount > 0 {
		score += 2
	}
	if hasDescription {
		score++
	}
	if score > 10 {
		score = 10
	}
	return score
}
