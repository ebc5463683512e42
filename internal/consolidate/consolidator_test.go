package consolidate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/constants"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/extract"
)

func result(pageNum int, st constants.StatementType, confidence float64, items map[string]map[string]extract.LineItem) extract.Result {
	return extract.Result{
		PageNum:       pageNum,
		StatementType: st,
		Confidence:    confidence,
		Success:       true,
		Payload: &extract.StatementPayload{
			StatementType: string(st),
			Confidence:    confidence,
			LineItems:     items,
		},
	}
}

func TestConsolidateSinglePage(t *testing.T) {
	c := NewConsolidator(nil)

	out := c.Consolidate([]extract.Result{
		result(1, constants.BalanceSheet, 0.9, map[string]map[string]extract.LineItem{
			"assets": {"total_assets": {Value: 1000, Confidence: 0.9}},
		}),
	})

	assert.Equal(t, []int{1}, out.Info.SourcePages)
	require.Contains(t, out.Statements, constants.BalanceSheet)
	assert.Equal(t, 1000.0, out.Statements[constants.BalanceSheet]["assets"]["total_assets"].Value)
	assert.NotNil(t, out.YearsDetected)
	assert.Empty(t, out.YearsDetected)
}

func TestConsolidateSkipsFailedResults(t *testing.T) {
	c := NewConsolidator(nil)

	failed := extract.Result{PageNum: 2, StatementType: constants.BalanceSheet}
	out := c.Consolidate([]extract.Result{
		result(1, constants.BalanceSheet, 0.9, map[string]map[string]extract.LineItem{
			"assets": {"total_assets": {Value: 1000}},
		}),
		failed,
	})

	assert.Equal(t, []int{1}, out.Info.SourcePages)
}

func TestConsolidateDuplicateSameValue(t *testing.T) {
	c := NewConsolidator(nil)

	items := map[string]map[string]extract.LineItem{
		"assets": {"cash": {Value: 500, Confidence: 0.8}},
	}
	out := c.Consolidate([]extract.Result{
		result(1, constants.BalanceSheet, 0.8, items),
		result(2, constants.BalanceSheet, 0.8, items),
	})

	assert.Equal(t, 1, out.Info.DuplicatesRemoved)
	assert.Zero(t, out.Info.ConflictsResolved)
	assert.Equal(t, 500.0, out.Statements[constants.BalanceSheet]["assets"]["cash"].Value)
}

func TestConsolidateConflictHigherConfidenceWins(t *testing.T) {
	c := NewConsolidator(nil)

	out := c.Consolidate([]extract.Result{
		result(1, constants.BalanceSheet, 0.7, map[string]map[string]extract.LineItem{
			"assets": {"cash": {Value: 500, Confidence: 0.7}},
		}),
		result(2, constants.BalanceSheet, 0.9, map[string]map[string]extract.LineItem{
			"assets": {"cash": {Value: 525, Confidence: 0.9}},
		}),
	})

	assert.Equal(t, 1, out.Info.ConflictsResolved)
	assert.Equal(t, 525.0, out.Statements[constants.BalanceSheet]["assets"]["cash"].Value)
}

func TestConsolidateConflictLowerConfidenceLoses(t *testing.T) {
	c := NewConsolidator(nil)

	out := c.Consolidate([]extract.Result{
		result(1, constants.BalanceSheet, 0.9, map[string]map[string]extract.LineItem{
			"assets": {"cash": {Value: 500, Confidence: 0.9}},
		}),
		result(2, constants.BalanceSheet, 0.4, map[string]map[string]extract.LineItem{
			"assets": {"cash": {Value: 999, Confidence: 0.4}},
		}),
	})

	assert.Equal(t, 1, out.Info.ConflictsResolved)
	assert.Equal(t, 500.0, out.Statements[constants.BalanceSheet]["assets"]["cash"].Value)
}

func TestConsolidateConflictEqualConfidenceMoreYearsWins(t *testing.T) {
	c := NewConsolidator(nil)

	out := c.Consolidate([]extract.Result{
		result(1, constants.BalanceSheet, 0.8, map[string]map[string]extract.LineItem{
			"assets": {"cash": {Value: 500, Confidence: 0.8}},
		}),
		result(2, constants.BalanceSheet, 0.8, map[string]map[string]extract.LineItem{
			"assets": {"cash": {Value: 510, Confidence: 0.8, Years: map[string]float64{"2023": 510, "2022": 480}}},
		}),
	})

	got := out.Statements[constants.BalanceSheet]["assets"]["cash"]
	assert.Equal(t, 510.0, got.Value)
	assert.Len(t, got.Years, 2)
}

func TestConsolidateYearDetection(t *testing.T) {
	c := NewConsolidator(nil)

	out := c.Consolidate([]extract.Result{
		result(1, constants.BalanceSheet, 0.9, map[string]map[string]extract.LineItem{
			"assets": {"cash": {Value: 500, Years: map[string]float64{"2022": 480, "2023": 500}}},
		}),
		result(2, constants.IncomeStatement, 0.9, map[string]map[string]extract.LineItem{
			"revenue": {"net_sales": {Value: 900, Years: map[string]float64{"2021": 700, "2023": 900}}},
		}),
	})

	assert.Equal(t, []string{"2023", "2022", "2021"}, out.YearsDetected)
	assert.Equal(t, "2023", out.BaseYear)
}

func TestConsolidateSummaryMetricsWinnerTakesAll(t *testing.T) {
	c := NewConsolidator(nil)

	first := result(1, constants.IncomeStatement, 0.6, map[string]map[string]extract.LineItem{})
	first.Payload.SummaryMetrics = map[string]float64{"net_income": 100}
	second := result(2, constants.IncomeStatement, 0.9, map[string]map[string]extract.LineItem{})
	second.Payload.SummaryMetrics = map[string]float64{"net_income": 120}

	out := c.Consolidate([]extract.Result{first, second})
	assert.Equal(t, 120.0, out.SummaryMetrics[constants.IncomeStatement]["net_income"])

	// reversed confidence keeps the first value
	first.Confidence = 0.9
	first.Payload.Confidence = 0.9
	second.Confidence = 0.6
	out = c.Consolidate([]extract.Result{first, second})
	assert.Equal(t, 100.0, out.SummaryMetrics[constants.IncomeStatement]["net_income"])
}

func TestConsolidateMergesEquityIntoBalanceSheet(t *testing.T) {
	c := NewConsolidator(nil)

	out := c.Consolidate([]extract.Result{
		result(1, constants.BalanceSheet, 0.9, map[string]map[string]extract.LineItem{
			"equity": {"retained_earnings": {Value: 300, Confidence: 0.9}},
		}),
		result(2, constants.Equity, 0.8, map[string]map[string]extract.LineItem{
			"movements": {
				"common_stock":   {Value: 50, Confidence: 0.8},
				"dividends_paid": {Value: -20, Confidence: 0.8},
			},
		}),
	})

	eq := out.Statements[constants.BalanceSheet]["equity"]
	require.NotNil(t, eq)

	// renamed ending balance arrives, tagged with provenance
	capital, ok := eq["share_capital"]
	require.True(t, ok)
	assert.Equal(t, 50.0, capital.Value)
	assert.Equal(t, "Statement of Equity", capital.Source)

	// movement items never land in the balance sheet
	_, ok = eq["dividends_paid"]
	assert.False(t, ok)

	// the equity statement itself stays available
	assert.Contains(t, out.Statements, constants.Equity)
}

func TestConsolidateNoEquityMergeWithoutBalanceSheet(t *testing.T) {
	c := NewConsolidator(nil)

	out := c.Consolidate([]extract.Result{
		result(1, constants.Equity, 0.8, map[string]map[string]extract.LineItem{
			"movements": {"common_stock": {Value: 50, Confidence: 0.8}},
		}),
	})

	assert.NotContains(t, out.Statements, constants.BalanceSheet)
}
