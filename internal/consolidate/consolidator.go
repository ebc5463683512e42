package consolidate

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/constants"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/extract"
)

// Section is one statement's merged tree: category → field → line item.
type Section map[string]map[string]extract.LineItem

// ConsolidationInfo records what the merge did, for reporting.
type ConsolidationInfo struct {
	SourcePages       []int
	DuplicatesRemoved int
	ConflictsResolved int
	ValidationResults map[string]bool
	Notes             []string
}

// ConsolidatedStatement is the pipeline's terminal output: one merged
// statement per detected type plus merge/validation bookkeeping.
// YearsDetected is always non-nil so the report exporter can rely on it.
type ConsolidatedStatement struct {
	Statements     map[constants.StatementType]Section
	SummaryMetrics map[constants.StatementType]map[string]float64
	YearsDetected  []string
	BaseYear       string
	Info           ConsolidationInfo
}

type Consolidator struct {
	logger    *slog.Logger
	tolerance float64
}

func NewConsolidator(logger *slog.Logger) *Consolidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consolidator{logger: logger, tolerance: 0.01}
}

// Consolidate merges successful per-page extractions into one statement.
// Inputs arrive sorted by page number, which makes the merge deterministic:
// for duplicate (category, field) pairs the earlier page's entry survives
// unless a later one carries strictly higher confidence (or, on equal
// confidence, more populated year columns).
func (c *Consolidator) Consolidate(results []extract.Result) *ConsolidatedStatement {
	out := &ConsolidatedStatement{
		Statements:     make(map[constants.StatementType]Section),
		SummaryMetrics: make(map[constants.StatementType]map[string]float64),
		YearsDetected:  []string{},
		Info: ConsolidationInfo{
			ValidationResults: make(map[string]bool),
		},
	}

	metricConfidence := make(map[constants.StatementType]map[string]float64)

	for _, res := range results {
		if !res.Success || res.Payload == nil {
			continue
		}
		out.Info.SourcePages = append(out.Info.SourcePages, res.PageNum)

		section, ok := out.Statements[res.StatementType]
		if !ok {
			section = make(Section)
			out.Statements[res.StatementType] = section
		}
		c.mergePayload(section, res, &out.Info)
		c.mergeMetrics(out.SummaryMetrics, metricConfidence, res)
	}

	sort.Ints(out.Info.SourcePages)

	if bs, ok := out.Statements[constants.BalanceSheet]; ok {
		if eq, ok := out.Statements[constants.Equity]; ok {
			n := mergeEquityIntoBalanceSheet(bs, eq)
			out.Info.Notes = append(out.Info.Notes,
				fmt.Sprintf("merged %d fields from statement of equity into balance sheet equity section", n))
		}
	}

	c.runValidations(out)
	c.detectYears(out)

	c.logger.Info("consolidate.ok",
		"source_pages", len(out.Info.SourcePages),
		"statements", len(out.Statements),
		"duplicates_removed", out.Info.DuplicatesRemoved,
		"conflicts_resolved", out.Info.ConflictsResolved,
		"years", len(out.YearsDetected),
	)
	return out
}

// mergePayload folds one page's line items into the statement section,
// applying the duplicate/conflict rules per (category, field) pair.
func (c *Consolidator) mergePayload(section Section, res extract.Result, info *ConsolidationInfo) {
	for category, fields := range res.Payload.LineItems {
		dst, ok := section[category]
		if !ok {
			dst = make(map[string]extract.LineItem)
			section[category] = dst
		}
		for field, item := range fields {
			existing, ok := dst[field]
			if !ok {
				dst[field] = item
				continue
			}
			if existing.Value == item.Value {
				info.DuplicatesRemoved++
				continue
			}
			if pickChallenger(existing, item) {
				dst[field] = item
			}
			info.ConflictsResolved++
		}
	}
}

// pickChallenger decides whether the incoming item replaces the retained
// one: strictly higher confidence wins; on equal confidence the entry with
// more populated year columns wins as a last resort.
func pickChallenger(existing, incoming extract.LineItem) bool {
	if incoming.Confidence > existing.Confidence {
		return true
	}
	if incoming.Confidence < existing.Confidence {
		return false
	}
	return len(incoming.Years) > len(existing.Years)
}

func (c *Consolidator) mergeMetrics(
	metrics map[constants.StatementType]map[string]float64,
	conf map[constants.StatementType]map[string]float64,
	res extract.Result,
) {
	if len(res.Payload.SummaryMetrics) == 0 {
		return
	}
	dst, ok := metrics[res.StatementType]
	if !ok {
		dst = make(map[string]float64)
		metrics[res.StatementType] = dst
		conf[res.StatementType] = make(map[string]float64)
	}
	for name, value := range res.Payload.SummaryMetrics {
		if prev, ok := dst[name]; ok && prev != value {
			// summary metrics carry no per-entry confidence; fall back to
			// the page-level confidence for the same winner-takes-all rule
			if res.Confidence <= conf[res.StatementType][name] {
				continue
			}
		}
		dst[name] = value
		conf[res.StatementType][name] = res.Confidence
	}
}

// detectYears unions year labels across all merged line items, newest first.
func (c *Consolidator) detectYears(out *ConsolidatedStatement) {
	seen := make(map[string]struct{})
	for _, section := range out.Statements {
		for _, fields := range section {
			for _, item := range fields {
				for year := range item.Years {
					seen[year] = struct{}{}
				}
			}
		}
	}
	years := make([]string, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(years)))
	out.YearsDetected = years
	if len(years) > 0 {
		out.BaseYear = years[0]
	}
}
