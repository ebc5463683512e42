package consolidate

import (
	"strings"

	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/extract"
)

// equitySourceTag marks balance-sheet entries that came from a separate
// statement of equity, for provenance.
const equitySourceTag = "Statement of Equity"

// equityFieldRenames maps statement-of-equity field names onto the balance
// sheet's equity vocabulary. Unmapped names pass through unchanged.
var equityFieldRenames = map[string]string{
	"capital_stock":              "share_capital",
	"common_stock":               "share_capital",
	"share_capital_ending":       "share_capital",
	"total_shareholders_equity":  "total_equity",
	"total_stockholders_equity":  "total_equity",
	"retained_earnings_ending":   "retained_earnings",
	"accumulated_earnings":       "retained_earnings",
	"paid_in_capital":            "additional_paid_in_capital",
	"additional_paid_in_capital": "additional_paid_in_capital",
}

// excludedMovementFields are movement/flow items of the equity statement.
// They describe changes during the period, not ending balances, and must
// never land in the balance sheet's equity section.
var excludedMovementFields = map[string]struct{}{
	"dividends_paid":               {},
	"dividend_payments":            {},
	"cash_dividends":               {},
	"stock_issuance":               {},
	"share_issuance":               {},
	"stock_repurchase":             {},
	"beginning_balance":            {},
	"ending_balance":               {},
	"net_income_for_period":        {},
	"comprehensive_income":         {},
	"foreign_currency_translation": {},
}

// isMovementField reports whether an equity field is a movement/flow item.
func isMovementField(name string) bool {
	if _, ok := excludedMovementFields[name]; ok {
		return true
	}
	if strings.HasPrefix(name, "beginning_") ||
		strings.HasPrefix(name, "change_") ||
		strings.HasPrefix(name, "movement_") {
		return true
	}
	return strings.Contains(name, "_during_")
}

// balanceSheetEquityCategory finds the balance sheet's equity section,
// creating "equity" when the extraction didn't produce one.
func balanceSheetEquityCategory(bs Section) map[string]extract.LineItem {
	for _, name := range []string{"equity", "shareholders_equity", "stockholders_equity"} {
		if fields, ok := bs[name]; ok {
			return fields
		}
	}
	fields := make(map[string]extract.LineItem)
	bs["equity"] = fields
	return fields
}

// mergeEquityIntoBalanceSheet folds ending balances from a statement of
// equity into the balance sheet's equity section. A field is written only
// when the balance sheet lacks it or the equity extraction is strictly more
// confident; written entries are tagged with their provenance. Returns the
// number of fields written.
func mergeEquityIntoBalanceSheet(bs, eq Section) int {
	dst := balanceSheetEquityCategory(bs)

	written := 0
	for _, fields := range eq {
		for field, item := range fields {
			if isMovementField(field) {
				continue
			}
			name := field
			if mapped, ok := equityFieldRenames[field]; ok {
				name = mapped
			}
			if isMovementField(name) {
				continue
			}
			existing, ok := dst[name]
			if ok && item.Confidence <= existing.Confidence {
				continue
			}
			item.Source = equitySourceTag
			dst[name] = item
			written++
		}
	}
	return written
}
