package models

import (
	"errors"
	"fmt"
)

// Error codes used across the pipeline stages.
const (
	// Lookup errors: an expected key is absent from an external response.
	ErrCodeMissingField      = "MISSING_FIELD"
	ErrCodeMissingCredential = "MISSING_CREDENTIAL"

	// Value errors: a response was received but cannot be used.
	ErrCodeMalformedResponse = "MALFORMED_RESPONSE"
	ErrCodeNotTabular        = "NOT_TABULAR"

	// Scraping-service errors.
	ErrCodeScrapeFailure         = "SCRAPE_FAILURE"
	ErrCodeScrapeAuthFailure     = "SCRAPE_AUTH_FAILURE"
	ErrCodeScrapePaymentRequired = "SCRAPE_PAYMENT_REQUIRED"

	// Completion-service errors.
	ErrCodeLLMFailure     = "LLM_FAILURE"
	ErrCodeLLMAuthFailure = "LLM_AUTH_FAILURE"
	ErrCodeLLMRateLimited = "LLM_RATE_LIMITED"

	ErrCodeStorage = "STORAGE_FAILURE"
)

// PipelineError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type PipelineError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError creates a new PipelineError.
func NewPipelineError(code, message string, err error) *PipelineError {
	return &PipelineError{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of the first PipelineError in err's chain, or ""
// if there is none.
func CodeOf(err error) string {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
