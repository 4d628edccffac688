package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/MuskanShrestha58/FirecrawlDemo/llm"
	"github.com/MuskanShrestha58/FirecrawlDemo/models"
	"github.com/MuskanShrestha58/FirecrawlDemo/storage"
)

// Fetcher turns a URL into markdown.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Extractor turns markdown into structured JSON.
type Extractor interface {
	Extract(ctx context.Context, content string, fields models.FieldSpec) (*llm.ExtractResult, error)
}

// Store persists the raw and structured results of a run.
type Store interface {
	SaveRaw(content string, ts time.Time) (string, error)
	SaveStructured(data json.RawMessage, ts time.Time) (*storage.StructuredPaths, error)
}

// Pipeline runs fetch → save raw → extract → save structured, once per call.
type Pipeline struct {
	fetcher   Fetcher
	extractor Extractor
	store     Store
	now       func() time.Time
}

// New wires the four stages together.
func New(fetcher Fetcher, extractor Extractor, store Store) *Pipeline {
	return &Pipeline{
		fetcher:   fetcher,
		extractor: extractor,
		store:     store,
		now:       time.Now,
	}
}

// WithClock replaces the clock used for the run timestamp.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Result summarises one run.
type Result struct {
	URL       string
	Timestamp time.Time

	RawPath  string
	JSONPath string
	XLSXPath string

	Rows    int
	Columns int

	ContentTokens int
	LLMUsage      *models.LLMUsage
	Timing        Timing
}

// Timing provides duration breakdowns for the run.
type Timing struct {
	Total      time.Duration
	Fetch      time.Duration
	Extraction time.Duration
	Persist    time.Duration
}

// StageError names the stage a run stopped at.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Stage names used in StageError.
const (
	StageFetch      = "fetch"
	StageSaveRaw    = "save raw data"
	StageExtract    = "extract"
	StageSaveResult = "save formatted data"
)

// Run performs one pass over url. It stops at the first failing stage; files
// written by earlier stages are left in place. The returned Result is
// non-nil and reflects whatever was completed.
//
// Flow:
//  1. Timestamp the run.
//  2. Fetch → markdown.
//  3. Save raw markdown.
//  4. Extract → JSON.
//  5. Save JSON + spreadsheet.
func (p *Pipeline) Run(ctx context.Context, url string, fields models.FieldSpec) (*Result, error) {
	totalStart := time.Now()

	// ── 1. Timestamp ────────────────────────────────────────────────
	res := &Result{URL: url, Timestamp: p.now()}
	defer func() { res.Timing.Total = time.Since(totalStart) }()

	log := slog.With("url", url, "timestamp", models.FormatTimestamp(res.Timestamp))

	// ── 2. Fetch ────────────────────────────────────────────────────
	log.Info("scraping page")
	fetchStart := time.Now()
	content, err := p.fetcher.Fetch(ctx, url)
	res.Timing.Fetch = time.Since(fetchStart)
	if err != nil {
		return res, &StageError{Stage: StageFetch, Err: err}
	}
	res.ContentTokens = EstimateTokens(content)
	log.Info("page scraped", "tokens_estimate", res.ContentTokens, "fetch", res.Timing.Fetch)

	// ── 3. Save raw ─────────────────────────────────────────────────
	persistStart := time.Now()
	res.RawPath, err = p.store.SaveRaw(content, res.Timestamp)
	res.Timing.Persist += time.Since(persistStart)
	if err != nil {
		return res, &StageError{Stage: StageSaveRaw, Err: err}
	}

	// ── 4. Extract ──────────────────────────────────────────────────
	log.Info("extracting fields", "fields", len(fields.OrDefault()))
	extractStart := time.Now()
	extracted, err := p.extractor.Extract(ctx, content, fields)
	res.Timing.Extraction = time.Since(extractStart)
	if err != nil {
		return res, &StageError{Stage: StageExtract, Err: err}
	}
	res.LLMUsage = extracted.Usage

	// ── 5. Save structured ──────────────────────────────────────────
	persistStart = time.Now()
	paths, err := p.store.SaveStructured(extracted.Data, res.Timestamp)
	res.Timing.Persist += time.Since(persistStart)
	if paths != nil {
		res.JSONPath = paths.JSON
		res.XLSXPath = paths.XLSX
		if paths.Table != nil {
			res.Rows = len(paths.Table.Rows)
			res.Columns = len(paths.Table.Columns)
		}
	}
	if err != nil {
		return res, &StageError{Stage: StageSaveResult, Err: err}
	}

	log.Info("run complete", "rows", res.Rows, "columns", res.Columns)
	return res, nil
}
