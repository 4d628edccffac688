package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/MuskanShrestha58/FirecrawlDemo/config"
	"github.com/MuskanShrestha58/FirecrawlDemo/models"
)

// systemPrompt is sent unchanged with every extraction request.
const systemPrompt = `You are an intelligent text extraction and conversion assistant. Your task is to extract structured information from the given text and convert it into a pure JSON format. The JSON should contain only the structured data extracted from the text, with no additional commentary, explanations, or extraneous information.
You could encounter cases where you can't find the data of the fields you have to extract or the data will be in a foreign language. Please process the following text and provide the output in pure JSON format with no words before or after the JSON:`

// Client wraps an OpenAI-compatible chat-completion API for structured extraction.
type Client struct {
	api   openai.Client
	cfg   config.LLMConfig
	noKey bool
}

// NewClient creates a new LLM client. Extra request options are appended
// after the ones derived from cfg, so tests can override the transport.
func NewClient(cfg config.LLMConfig, opts ...option.RequestOption) *Client {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// A malformed answer is reported, never retried.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}
	reqOpts = append(reqOpts, opts...)

	return &Client{
		api:   openai.NewClient(reqOpts...),
		cfg:   cfg,
		noKey: cfg.APIKey == "",
	}
}

// ExtractResult holds the LLM extraction output.
type ExtractResult struct {
	// Data is the parsed model output, kept as raw JSON so key order survives.
	Data  json.RawMessage
	Usage *models.LLMUsage
}

// Extract asks the model for the given fields in content and returns its
// answer as JSON. An empty field list means models.DefaultFields.
func (c *Client) Extract(ctx context.Context, content string, fields models.FieldSpec) (*ExtractResult, error) {
	if c.noKey {
		return nil, models.NewPipelineError(models.ErrCodeMissingCredential, "OPENAI_API_KEY is not set", nil)
	}

	req := openai.ChatCompletionNewParams{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildUserPrompt(content, fields.OrDefault())),
		},
		N: openai.Int(1),
	}
	if c.cfg.Temperature != nil {
		req.Temperature = openai.Float(*c.cfg.Temperature)
	}

	resp, err := c.api.Chat.Completions.New(ctx, req)
	if err != nil {
		return nil, classifyLLMError(err)
	}

	if resp == nil || len(resp.Choices) == 0 {
		return nil, models.NewPipelineError(models.ErrCodeMalformedResponse,
			"the completion response did not contain the expected choices data", nil)
	}

	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	slog.Debug("formatted data received from API", "content", raw)

	// Unmarshal rather than json.Valid so the syntax error can be wrapped.
	var probe any
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return nil, models.NewPipelineError(models.ErrCodeMalformedResponse,
			fmt.Sprintf("the formatted data could not be decoded into JSON: %q", raw), err)
	}

	return &ExtractResult{
		Data: json.RawMessage(raw),
		Usage: &models.LLMUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

// buildUserPrompt embeds the page content and the field list.
func buildUserPrompt(content string, fields models.FieldSpec) string {
	return fmt.Sprintf("Extract all the following information from the provided text: \nPage content: \n\n%s\n\nInformation to extract: %s",
		content, fields)
}

// classifyLLMError maps API status codes to appropriate error codes. The SDK
// error stays reachable through Unwrap.
func classifyLLMError(err error) *models.PipelineError {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return models.NewPipelineError(models.ErrCodeLLMFailure, "LLM request failed", err)
	}

	switch apiErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return models.NewPipelineError(models.ErrCodeLLMAuthFailure, "LLM API rejected the credential", err)
	case http.StatusTooManyRequests:
		return models.NewPipelineError(models.ErrCodeLLMRateLimited, "LLM API rate limit reached", err)
	default:
		return models.NewPipelineError(models.ErrCodeLLMFailure, fmt.Sprintf("LLM API returned %d", apiErr.StatusCode), err)
	}
}
