package models

import (
	"strings"
	"time"
)

// TimestampLayout formats the run timestamp shared by every file of one run.
const TimestampLayout = "20060102_150405"

// FormatTimestamp renders t with TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// FieldSpec is the ordered list of attribute names the extractor looks for.
type FieldSpec []string

// DefaultFields returns the real-estate listing attributes extracted when the
// caller does not supply its own list. A fresh slice is returned on every call.
func DefaultFields() FieldSpec {
	return FieldSpec{
		"Address",
		"Real Estate Agency",
		"Price",
		"Beds",
		"Baths",
		"Sqft",
		"Home Type",
		"Listing Age",
		"Picture of home URL",
		"Listing URL",
	}
}

// OrDefault returns f, or DefaultFields when f is empty.
func (f FieldSpec) OrDefault() FieldSpec {
	if len(f) == 0 {
		return DefaultFields()
	}
	return f
}

// String renders the list the way it is embedded in the extraction prompt:
// ['Address', 'Price'].
func (f FieldSpec) String() string {
	quoted := make([]string, len(f))
	for i, name := range f {
		quoted[i] = "'" + name + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// LLMUsage reports token consumption from the LLM call.
type LLMUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
