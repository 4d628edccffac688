package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/MuskanShrestha58/FirecrawlDemo/config"
	"github.com/MuskanShrestha58/FirecrawlDemo/models"
)

// Firecrawl is a minimal client for the Firecrawl scrape endpoint. It turns a
// URL into the page's rendered markdown.
type Firecrawl struct {
	cfg        config.FirecrawlConfig
	httpClient *http.Client
}

// NewFirecrawl creates a Firecrawl client. Pass nil to get an http.Client
// whose timeout is cfg.Timeout.
func NewFirecrawl(cfg config.FirecrawlConfig, httpClient *http.Client) *Firecrawl {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Firecrawl{cfg: cfg, httpClient: httpClient}
}

// scrapeRequest is the POST /v1/scrape request body.
type scrapeRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
	WaitFor         int      `json:"waitFor,omitempty"`
	Timeout         int      `json:"timeout,omitempty"` // milliseconds
}

// scrapeResponse is the part of the scrape response we need. Markdown is a
// pointer so an absent key can be told apart from an empty page.
type scrapeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    *struct {
		Markdown *string `json:"markdown"`
	} `json:"data"`
}

// Fetch scrapes url and returns the markdown rendering unchanged.
func (f *Firecrawl) Fetch(ctx context.Context, url string) (string, error) {
	if f.cfg.APIKey == "" {
		return "", models.NewPipelineError(models.ErrCodeMissingCredential, "FIRECRAWL_API_KEY is not set", nil)
	}

	reqBody := scrapeRequest{
		URL:             url,
		Formats:         []string{"markdown"},
		OnlyMainContent: f.cfg.OnlyMainContent,
		WaitFor:         f.cfg.WaitFor,
		Timeout:         int(f.cfg.Timeout.Milliseconds()),
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(f.cfg.BaseURL, "/") + "/v1/scrape"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.cfg.APIKey)

	slog.Debug("firecrawl scrape", "url", url, "endpoint", endpoint)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", models.NewPipelineError(models.ErrCodeScrapeFailure, "scrape request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", models.NewPipelineError(models.ErrCodeScrapeFailure, "failed to read scrape response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", classifyScrapeError(resp.StatusCode, respBody)
	}

	var scraped scrapeResponse
	if err := json.Unmarshal(respBody, &scraped); err != nil {
		return "", models.NewPipelineError(models.ErrCodeMalformedResponse, "failed to parse scrape response", err)
	}
	if !scraped.Success && scraped.Error != "" {
		return "", models.NewPipelineError(models.ErrCodeScrapeFailure, scraped.Error, nil)
	}

	if scraped.Data == nil || scraped.Data.Markdown == nil {
		return "", models.NewPipelineError(models.ErrCodeMissingField,
			"the key 'markdown' does not exist in the scraped data", nil)
	}
	return *scraped.Data.Markdown, nil
}

// classifyScrapeError maps HTTP status codes to appropriate error codes.
func classifyScrapeError(statusCode int, body []byte) *models.PipelineError {
	var errResp scrapeResponse
	msg := "scrape API error"
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		msg = errResp.Error
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return models.NewPipelineError(models.ErrCodeScrapeAuthFailure, msg, nil)
	case http.StatusPaymentRequired:
		return models.NewPipelineError(models.ErrCodeScrapePaymentRequired, msg, nil)
	default:
		return models.NewPipelineError(models.ErrCodeScrapeFailure, fmt.Sprintf("scrape API returned %d: %s", statusCode, msg), nil)
	}
}
