package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/pretty"

	"github.com/MuskanShrestha58/FirecrawlDemo/models"
)

// Store writes the files of a run into a single output directory. Every file
// name carries the run timestamp; existing files are overwritten.
type Store struct {
	dir             string
	unwrapSingleKey bool
}

// Option configures a Store.
type Option func(*Store)

// WithUnwrapSingleKey toggles unwrapping a top-level single-key object
// before the spreadsheet is built. Enabled by default.
func WithUnwrapSingleKey(on bool) Option {
	return func(s *Store) { s.unwrapSingleKey = on }
}

// New creates a Store rooted at dir.
func New(dir string, opts ...Option) *Store {
	s := &Store{dir: dir, unwrapSingleKey: true}
	for _, o := range opts {
		o(s)
	}
	return s
}

// RawPath returns the markdown file path for a run.
func (s *Store) RawPath(ts time.Time) string {
	return filepath.Join(s.dir, "rawData_"+models.FormatTimestamp(ts)+".md")
}

// JSONPath returns the structured JSON file path for a run.
func (s *Store) JSONPath(ts time.Time) string {
	return filepath.Join(s.dir, "sorted_data_"+models.FormatTimestamp(ts)+".json")
}

// XLSXPath returns the spreadsheet file path for a run.
func (s *Store) XLSXPath(ts time.Time) string {
	return filepath.Join(s.dir, "sorted_data_"+models.FormatTimestamp(ts)+".xlsx")
}

// ensureDir creates the output directory if needed (e.g. "output/" folder).
func (s *Store) ensureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return models.NewPipelineError(models.ErrCodeStorage, "could not create output dir", err)
	}
	return nil
}

// SaveRaw writes the scraped markdown verbatim and returns the file path.
func (s *Store) SaveRaw(content string, ts time.Time) (string, error) {
	if err := s.ensureDir(); err != nil {
		return "", err
	}

	path := s.RawPath(ts)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", models.NewPipelineError(models.ErrCodeStorage, "could not write raw data", err)
	}
	slog.Info("raw data saved", "path", path, "bytes", len(content))
	return path, nil
}

// StructuredPaths lists the files written by SaveStructured.
type StructuredPaths struct {
	JSON  string
	XLSX  string
	Table *Table
}

// SaveStructured writes data as indented JSON, then as a one-sheet
// spreadsheet. The JSON file is written first and stays on disk even when
// the data cannot be laid out as a table.
func (s *Store) SaveStructured(data json.RawMessage, ts time.Time) (*StructuredPaths, error) {
	if !json.Valid(data) {
		return nil, models.NewPipelineError(models.ErrCodeMalformedResponse, "structured data is not valid JSON", nil)
	}
	if err := s.ensureDir(); err != nil {
		return nil, err
	}

	jsonPath := s.JSONPath(ts)
	indented := pretty.PrettyOptions(data, &pretty.Options{Width: 80, Indent: "    "})
	if err := os.WriteFile(jsonPath, indented, 0o644); err != nil {
		return nil, models.NewPipelineError(models.ErrCodeStorage, "could not write JSON data", err)
	}
	slog.Info("formatted data saved", "path", jsonPath)

	table, err := ToTable(data, s.unwrapSingleKey)
	if err != nil {
		return &StructuredPaths{JSON: jsonPath}, err
	}

	xlsxPath := s.XLSXPath(ts)
	if err := WriteXLSX(xlsxPath, table); err != nil {
		return &StructuredPaths{JSON: jsonPath}, fmt.Errorf("save spreadsheet: %w", err)
	}
	slog.Info("formatted data saved to Excel",
		"path", xlsxPath,
		"rows", len(table.Rows),
		"columns", len(table.Columns),
	)

	return &StructuredPaths{JSON: jsonPath, XLSX: xlsxPath, Table: table}, nil
}
