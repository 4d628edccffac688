package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/MuskanShrestha58/FirecrawlDemo/config"
	"github.com/MuskanShrestha58/FirecrawlDemo/llm"
	"github.com/MuskanShrestha58/FirecrawlDemo/models"
	"github.com/MuskanShrestha58/FirecrawlDemo/scraper"
	"github.com/MuskanShrestha58/FirecrawlDemo/storage"
)

var fixedTS = time.Date(2024, time.June, 1, 14, 30, 5, 0, time.UTC)

func fixedClock() time.Time { return fixedTS }

type fakeFetcher struct {
	content string
	err     error
	calls   int
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.content, f.err
}

type fakeExtractor struct {
	data   string
	err    error
	calls  int
	fields models.FieldSpec
	input  string
}

func (f *fakeExtractor) Extract(_ context.Context, content string, fields models.FieldSpec) (*llm.ExtractResult, error) {
	f.calls++
	f.input = content
	f.fields = fields
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ExtractResult{Data: json.RawMessage(f.data), Usage: &models.LLMUsage{TotalTokens: 7}}, nil
}

func TestRun_StagesInOrder(t *testing.T) {
	dir := t.TempDir()
	fetcher := &fakeFetcher{content: "# Listing\nAddress: 1 Main St"}
	extractor := &fakeExtractor{data: `{"Address": "1 Main St"}`}

	p := New(fetcher, extractor, storage.New(dir)).WithClock(fixedClock)
	res, err := p.Run(context.Background(), "https://example.com", models.FieldSpec{"Address"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if extractor.input != fetcher.content {
		t.Errorf("extractor got %q", extractor.input)
	}
	if !reflect.DeepEqual(extractor.fields, models.FieldSpec{"Address"}) {
		t.Errorf("extractor fields = %q", extractor.fields)
	}
	if res.Timestamp != fixedTS {
		t.Errorf("timestamp = %v", res.Timestamp)
	}
	if res.RawPath != filepath.Join(dir, "rawData_20240601_143005.md") ||
		res.JSONPath != filepath.Join(dir, "sorted_data_20240601_143005.json") ||
		res.XLSXPath != filepath.Join(dir, "sorted_data_20240601_143005.xlsx") {
		t.Errorf("paths = %q %q %q", res.RawPath, res.JSONPath, res.XLSXPath)
	}
	if res.Rows != 1 || res.Columns != 1 {
		t.Errorf("rows=%d columns=%d", res.Rows, res.Columns)
	}
	if res.LLMUsage == nil || res.LLMUsage.TotalTokens != 7 {
		t.Errorf("usage = %+v", res.LLMUsage)
	}
	if res.ContentTokens != EstimateTokens(fetcher.content) {
		t.Errorf("content tokens = %d", res.ContentTokens)
	}
}

func TestRun_StopsAtFirstFailure(t *testing.T) {
	t.Run("fetch", func(t *testing.T) {
		dir := t.TempDir()
		fetchErr := models.NewPipelineError(models.ErrCodeMissingField, "no markdown", nil)
		extractor := &fakeExtractor{}

		res, err := New(&fakeFetcher{err: fetchErr}, extractor, storage.New(dir)).
			WithClock(fixedClock).
			Run(context.Background(), "https://example.com", nil)

		var stageErr *StageError
		if !errors.As(err, &stageErr) || stageErr.Stage != StageFetch {
			t.Fatalf("err = %v", err)
		}
		if !errors.Is(err, fetchErr) {
			t.Error("fetch error not preserved")
		}
		if extractor.calls != 0 {
			t.Error("extractor called after fetch failure")
		}
		if res == nil || res.RawPath != "" {
			t.Errorf("result = %+v", res)
		}
		if entries, _ := os.ReadDir(dir); len(entries) != 0 {
			t.Errorf("files written: %v", entries)
		}
	})

	t.Run("extract", func(t *testing.T) {
		dir := t.TempDir()
		extractor := &fakeExtractor{err: models.NewPipelineError(models.ErrCodeMalformedResponse, "bad json", nil)}

		res, err := New(&fakeFetcher{content: "text"}, extractor, storage.New(dir)).
			WithClock(fixedClock).
			Run(context.Background(), "https://example.com", nil)

		var stageErr *StageError
		if !errors.As(err, &stageErr) || stageErr.Stage != StageExtract {
			t.Fatalf("err = %v", err)
		}
		if models.CodeOf(err) != models.ErrCodeMalformedResponse {
			t.Errorf("code = %q", models.CodeOf(err))
		}
		// The raw file from the earlier stage stays on disk.
		if _, err := os.Stat(res.RawPath); err != nil {
			t.Errorf("raw file missing: %v", err)
		}
		if res.JSONPath != "" || res.XLSXPath != "" {
			t.Errorf("structured paths set: %+v", res)
		}
	})
}

// TestRun_EndToEnd drives the real clients against fake Firecrawl and
// OpenAI servers and checks the three files of the run.
func TestRun_EndToEnd(t *testing.T) {
	const markdown = "# Listing\nAddress: 1 Main St"

	firecrawl := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"markdown": markdown},
		})
	}))
	defer firecrawl.Close()

	openai := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "gpt-3.5-turbo-1106",
			"choices": []any{map[string]any{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": `{"Address": "1 Main St"}`},
			}},
			"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 9, "total_tokens": 49},
		})
	}))
	defer openai.Close()

	dir := t.TempDir()
	fetcher := scraper.NewFirecrawl(config.FirecrawlConfig{APIKey: "fc", BaseURL: firecrawl.URL, Timeout: 5 * time.Second}, nil)
	extractor := llm.NewClient(config.LLMConfig{APIKey: "sk", BaseURL: openai.URL, Model: "gpt-3.5-turbo-1106"})

	res, err := New(fetcher, extractor, storage.New(dir)).
		WithClock(fixedClock).
		Run(context.Background(), "https://www.zillow.com/ca/", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	raw, err := os.ReadFile(res.RawPath)
	if err != nil || string(raw) != markdown {
		t.Errorf("raw file = %q, err %v", raw, err)
	}

	b, err := os.ReadFile(res.JSONPath)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("json file: %v", err)
	}
	if want := map[string]any{"Address": "1 Main St"}; !reflect.DeepEqual(got, want) {
		t.Errorf("json file = %v", got)
	}

	f, err := excelize.OpenFile(res.XLSXPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows("Sheet1")
	if err != nil {
		t.Fatal(err)
	}
	if want := [][]string{{"Address"}, {"1 Main St"}}; !reflect.DeepEqual(rows, want) {
		t.Errorf("xlsx rows = %q, want %q", rows, want)
	}
	if res.LLMUsage == nil || res.LLMUsage.TotalTokens != 49 {
		t.Errorf("usage = %+v", res.LLMUsage)
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcdef", 2},
		{"東京都", 1},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}
