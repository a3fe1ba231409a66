package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/magabrotheeeer/lead-forge/internal/lib/sl"
	"github.com/magabrotheeeer/lead-forge/internal/models"
)

const llmPrompt = `Generate realistic B2B company information for the domain: %s

Please provide the following details in JSON format:
- companyName: The company name (infer from domain)
- industry: The primary industry (e.g., Technology, Healthcare, Finance, Manufacturing, etc.)
- employeeCount: Company size (e.g., 1-10, 11-50, 51-200, 201-500, 500+)
- businessEmail: A professional contact email (format: contact@domain or info@domain)
- phone: A realistic business phone number
- leadScore: Lead quality score from 1-10 based on company profile
- companyDescription: A 2-sentence description of what the company likely does
- country: The likely country of operation

Return ONLY valid JSON without any markdown formatting or code blocks.`

// LLMConfig задает параметры подключения к API генерации.
type LLMConfig struct {
	APIBase string
	APIKey  string
	Model   string
}

// LLMStrategy генерирует данные о компании через языковую модель.
type LLMStrategy struct {
	log    *slog.Logger
	cfg    LLMConfig
	client *http.Client
	now    func() time.Time
}

type llmRequest struct {
	Contents         []llmContent        `json:"contents"`
	GenerationConfig llmGenerationConfig `json:"generationConfig"`
}

type llmContent struct {
	Parts []llmPart `json:"parts"`
}

type llmPart struct {
	Text string `json:"text"`
}

type llmGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type llmResponse struct {
	Candidates []struct {
		Content struct {
			Parts []llmPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// llmEnrichedData разбирается без учета регистра имен полей, стандартное
// поведение encoding/json здесь ровно то, что нужно.
type llmEnrichedData struct {
	CompanyName        string `json:"companyName"`
	Industry           string `json:"industry"`
	EmployeeCount      string `json:"employeeCount"`
	BusinessEmail      string `json:"businessEmail"`
	Phone              string `json:"phone"`
	LeadScore          int    `json:"leadScore"`
	CompanyDescription string `json:"companyDescription"`
	Country            string `json:"country"`
}

// NewLLMStrategy создает стратегию генерации через языковую модель.
func NewLLMStrategy(log *slog.Logger, cfg LLMConfig) *LLMStrategy {
	if cfg.APIBase == "" {
		cfg.APIBase = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-pro"
	}
	return &LLMStrategy{
		log:    log,
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		now:    time.Now,
	}
}

// Enrich запрашивает у модели JSON с данными о компании. Любая ошибка —
// сетевая, парсинга, формата ответа — приводит к детерминированному
// запасному лиду, а не к ошибке.
func (s *LLMStrategy) Enrich(ctx context.Context, domain string, jobID int64) (*models.Lead, error) {
	const op = "enrichment.LLMStrategy.Enrich"

	body, err := json.Marshal(llmRequest{
		Contents: []llmContent{{Parts: []llmPart{{Text: fmt.Sprintf(llmPrompt, domain)}}}},
		GenerationConfig: llmGenerationConfig{
			Temperature:     0.7,
			MaxOutputTokens: 500,
		},
	})
	if err != nil {
		s.log.Error("failed to marshal llm request", slog.String("op", op), sl.Err(err))
		return s.fallbackLead(domain, jobID), nil
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimRight(s.cfg.APIBase, "/"), s.cfg.Model, s.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return s.fallbackLead(domain, jobID), nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Warn("llm request failed", slog.String("domain", domain), sl.Err(err))
		return s.fallbackLead(domain, jobID), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.log.Warn("llm api returned non-ok status",
			slog.String("domain", domain), slog.Int("status", resp.StatusCode))
		return s.fallbackLead(domain, jobID), nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return s.fallbackLead(domain, jobID), nil
	}

	var llmResp llmResponse
	if err := json.Unmarshal(raw, &llmResp); err != nil {
		s.log.Warn("failed to decode llm response", slog.String("domain", domain), sl.Err(err))
		return s.fallbackLead(domain, jobID), nil
	}
	if len(llmResp.Candidates) == 0 || len(llmResp.Candidates[0].Content.Parts) == 0 {
		return s.fallbackLead(domain, jobID), nil
	}

	text := stripCodeFence(llmResp.Candidates[0].Content.Parts[0].Text)

	var data llmEnrichedData
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		s.log.Warn("llm returned invalid json", slog.String("domain", domain), sl.Err(err))
		return s.fallbackLead(domain, jobID), nil
	}

	lead := &models.Lead{
		JobID:              jobID,
		Domain:             domain,
		CompanyName:        data.CompanyName,
		Industry:           data.Industry,
		EmployeeCount:      data.EmployeeCount,
		BusinessEmail:      data.BusinessEmail,
		Phone:              data.Phone,
		LeadScore:          clampScore(data.LeadScore),
		CompanyDescription: data.CompanyDescription,
		Country:            data.Country,
		EnrichedAt:         s.now().UTC(),
	}
	if lead.CompanyName == "" {
		lead.CompanyName = domain
	}
	if lead.Industry == "" {
		lead.Industry = "Unknown"
	}
	if lead.EmployeeCount == "" {
		lead.EmployeeCount = "Unknown"
	}
	if lead.BusinessEmail == "" {
		lead.BusinessEmail = "contact@" + domain
	}
	if lead.Phone == "" {
		lead.Phone = "N/A"
	}
	if lead.Country == "" {
		lead.Country = "Unknown"
	}

	return lead, nil
}

func (s *LLMStrategy) fallbackLead(domain string, jobID int64) *models.Lead {
	return &models.Lead{
		JobID:              jobID,
		Domain:             domain,
		CompanyName:        domainStem(domain),
		Industry:           "Technology",
		EmployeeCount:      "11-50",
		BusinessEmail:      "contact@" + domain,
		Phone:              "+1-555-0100",
		LeadScore:          5,
		CompanyDescription: "Company operating at " + domain,
		Country:            "United States",
		EnrichedAt:         s.now().UTC(),
	}
}

// stripCodeFence убирает обрамление ```json ... ``` вокруг ответа модели.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
