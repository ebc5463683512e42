package extract

import (
	"context"

	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/constants"
)

// LineItem is one extracted figure. Years maps a year label (e.g. "2023")
// to that year's value for multi-column statements; Value carries the base
// (most recent) column.
type LineItem struct {
	Value      float64            `json:"value"`
	Confidence float64            `json:"confidence,omitempty"`
	Years      map[string]float64 `json:"years,omitempty"`
	Source     string             `json:"source,omitempty"`
}

// StatementPayload is the structured tree returned by the vision extraction
// service for one page: category → field → line item.
type StatementPayload struct {
	StatementType  string                         `json:"statement_type"`
	Confidence     float64                        `json:"confidence,omitempty"`
	LineItems      map[string]map[string]LineItem `json:"line_items"`
	SummaryMetrics map[string]float64             `json:"summary_metrics,omitempty"`
	Notes          []string                       `json:"notes,omitempty"`
}

// Request carries one page to the extraction service.
type Request struct {
	PageNum       int
	StatementType constants.StatementType // classification hint
	Image         []byte
	RawText       string
}

// Extractor is the interface the orchestrator depends on. The production
// implementation talks to a remote vision model; tests inject fakes.
type Extractor interface {
	Extract(ctx context.Context, req Request) (*StatementPayload, error)
}

// Result is the per-page outcome. Failures carry Success=false and an error
// code instead of a payload.
type Result struct {
	PageNum       int
	StatementType constants.StatementType
	Confidence    float64
	Payload       *StatementPayload
	Success       bool
	ErrorCode     string
	ErrorMessage  string
}

// PageFailure is one entry of the failure manifest.
type PageFailure struct {
	PageNum  int
	Code     string
	Message  string
	Attempts int
}

// FailureManifest collects every page-level failure of a run so partial
// results are never silently discarded.
type FailureManifest struct {
	Failures []PageFailure
}

func (m *FailureManifest) Empty() bool {
	return m == nil || len(m.Failures) == 0
}
