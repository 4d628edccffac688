package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Firecrawl FirecrawlConfig
	LLM       LLMConfig
	Output    OutputConfig
	Log       LogConfig
}

// FirecrawlConfig controls the scraping service client.
type FirecrawlConfig struct {
	// APIKey is the Firecrawl credential. Required.
	APIKey string

	// BaseURL is the API root. default: "https://api.firecrawl.dev"
	BaseURL string

	// Timeout bounds the whole scrape HTTP exchange. default: 60s
	Timeout time.Duration

	// OnlyMainContent asks Firecrawl to drop headers, navs and footers.
	OnlyMainContent bool // default: false

	// WaitFor is an extra delay in milliseconds before Firecrawl captures the page.
	WaitFor int // default: 0
}

// LLMConfig controls the chat-completion client used for extraction.
type LLMConfig struct {
	// APIKey is the OpenAI (or compatible) credential. Required.
	APIKey string

	// BaseURL supports any OpenAI-compatible API. default: "https://api.openai.com/v1"
	BaseURL string

	// Model is fixed per run. default: "gpt-3.5-turbo-1106"
	Model string

	// Temperature is sent only when set; nil leaves the service default.
	Temperature *float64
}

// OutputConfig controls where and how results are persisted.
type OutputConfig struct {
	// Dir receives every file of a run. default: "output"
	Dir string

	// UnwrapSingleKey unwraps a top-level object with exactly one key
	// before building the spreadsheet. default: true
	UnwrapSingleKey bool
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Firecrawl: FirecrawlConfig{
			APIKey:          os.Getenv("FIRECRAWL_API_KEY"),
			BaseURL:         envOr("FIRECRAWL_BASE_URL", "https://api.firecrawl.dev"),
			Timeout:         envDurationOr("FIRECRAWL_TIMEOUT", 60*time.Second),
			OnlyMainContent: envBoolOr("FIRECRAWL_ONLY_MAIN_CONTENT", false),
			WaitFor:         envIntOr("FIRECRAWL_WAIT_FOR", 0),
		},
		LLM: LLMConfig{
			APIKey:      os.Getenv("OPENAI_API_KEY"),
			BaseURL:     envOr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:       envOr("OPENAI_MODEL", "gpt-3.5-turbo-1106"),
			Temperature: envFloatPtr("OPENAI_TEMPERATURE"),
		},
		Output: OutputConfig{
			Dir:             envOr("OUTPUT_DIR", "output"),
			UnwrapSingleKey: envBoolOr("OUTPUT_UNWRAP_SINGLE_KEY", true),
		},
		Log: LogConfig{
			Level:  envOr("LOG_LEVEL", "info"),
			Format: envOr("LOG_FORMAT", "text"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// envFloatPtr returns nil when the variable is unset or unparsable.
func envFloatPtr(key string) *float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return &f
		}
	}
	return nil
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
