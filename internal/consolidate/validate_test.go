package consolidate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/constants"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/extract"
)

func statementWith(st constants.StatementType, fields map[string]float64) *ConsolidatedStatement {
	out := &ConsolidatedStatement{
		Statements:     make(map[constants.StatementType]Section),
		SummaryMetrics: make(map[constants.StatementType]map[string]float64),
		Info:           ConsolidationInfo{ValidationResults: make(map[string]bool)},
	}
	section := Section{"totals": map[string]extract.LineItem{}}
	for name, value := range fields {
		section["totals"][name] = extract.LineItem{Value: value}
	}
	out.Statements[st] = section
	return out
}

func TestCheckBalanceSheetPasses(t *testing.T) {
	c := NewConsolidator(nil)
	out := statementWith(constants.BalanceSheet, map[string]float64{
		"total_assets":      1000,
		"total_liabilities": 600,
		"total_equity":      400,
	})

	c.runValidations(out)
	passed, ok := out.Info.ValidationResults[CheckBalanceSheetEquation]
	assert.True(t, ok)
	assert.True(t, passed)
}

func TestCheckBalanceSheetWithinTolerance(t *testing.T) {
	c := NewConsolidator(nil)
	// off by 0.5% of the larger operand: inside the 1% relative tolerance
	out := statementWith(constants.BalanceSheet, map[string]float64{
		"total_assets":      1000,
		"total_liabilities": 600,
		"total_equity":      395,
	})

	c.runValidations(out)
	assert.True(t, out.Info.ValidationResults[CheckBalanceSheetEquation])
}

func TestCheckBalanceSheetFails(t *testing.T) {
	c := NewConsolidator(nil)
	out := statementWith(constants.BalanceSheet, map[string]float64{
		"total_assets":      1000,
		"total_liabilities": 600,
		"total_equity":      300,
	})

	c.runValidations(out)
	passed, ok := out.Info.ValidationResults[CheckBalanceSheetEquation]
	assert.True(t, ok)
	assert.False(t, passed)
}

func TestCheckSkippedWhenOperandsMissing(t *testing.T) {
	c := NewConsolidator(nil)
	out := statementWith(constants.BalanceSheet, map[string]float64{
		"total_assets": 1000,
	})

	c.runValidations(out)
	_, recorded := out.Info.ValidationResults[CheckBalanceSheetEquation]
	assert.False(t, recorded)
	assert.NotEmpty(t, out.Info.Notes)
}

func TestCheckBalanceSheetEquitySynonym(t *testing.T) {
	c := NewConsolidator(nil)
	out := statementWith(constants.BalanceSheet, map[string]float64{
		"total_assets":              1000,
		"total_liabilities":         600,
		"total_shareholders_equity": 400,
	})

	c.runValidations(out)
	assert.True(t, out.Info.ValidationResults[CheckBalanceSheetEquation])
}

func TestCheckIncomeStatement(t *testing.T) {
	c := NewConsolidator(nil)
	out := statementWith(constants.IncomeStatement, map[string]float64{
		"total_revenue":  900,
		"total_expenses": 700,
		"net_income":     200,
	})

	c.runValidations(out)
	assert.True(t, out.Info.ValidationResults[CheckIncomeStatementTotals])
}

func TestCheckCashFlow(t *testing.T) {
	c := NewConsolidator(nil)
	out := statementWith(constants.CashFlow, map[string]float64{
		"net_cash_from_operating_activities": 250,
		"net_cash_from_investing_activities": -120,
		"net_cash_from_financing_activities": -60,
		"net_change_in_cash":                 70,
	})

	c.runValidations(out)
	assert.True(t, out.Info.ValidationResults[CheckCashFlowReconciles])
}

func TestCheckNetIncomeConsistency(t *testing.T) {
	c := NewConsolidator(nil)
	out := statementWith(constants.IncomeStatement, map[string]float64{"net_income": 200})
	out.Statements[constants.CashFlow] = Section{
		"operating": map[string]extract.LineItem{"net_income": {Value: 500}},
	}

	c.runValidations(out)
	passed, ok := out.Info.ValidationResults[CheckNetIncomeConsistency]
	assert.True(t, ok)
	assert.False(t, passed)
}

func TestLookupPrefersSummaryMetrics(t *testing.T) {
	out := statementWith(constants.BalanceSheet, map[string]float64{"total_assets": 900})
	out.SummaryMetrics[constants.BalanceSheet] = map[string]float64{"total_assets": 1000}

	v, ok := out.lookup(constants.BalanceSheet, "total_assets")
	assert.True(t, ok)
	assert.Equal(t, 1000.0, v)
}

func TestApproxEqualScalesWithMagnitude(t *testing.T) {
	c := NewConsolidator(nil)
	assert.True(t, c.approxEqual(1_000_000, 1_005_000))
	assert.False(t, c.approxEqual(1_000_000, 1_020_000))
	assert.True(t, c.approxEqual(0, 0.005))
	assert.False(t, c.approxEqual(0, 0.5))
}
