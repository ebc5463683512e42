package constants

import (
	"strings"
)

type StatementType string

const (
	BalanceSheet    StatementType = "BalanceSheet"
	IncomeStatement StatementType = "IncomeStatement"
	CashFlow        StatementType = "CashFlow"
	Equity          StatementType = "Equity"
)

// AllStatementTypes is ordered; classification ties between types resolve to
// the first entry, so this order is load-bearing and must not change.
var AllStatementTypes = []StatementType{
	BalanceSheet,
	IncomeStatement,
	CashFlow,
	Equity,
}

func AsStringSlice() []string {
	result := make([]string, len(AllStatementTypes))
	for i, st := range AllStatementTypes {
		result[i] = string(st)
	}
	return result
}

// Canonicalize maps a model-emitted or human label to a StatementType.
func Canonicalize(input string) (StatementType, bool) {
	if input == "" {
		return "", false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))
	normalized = strings.ReplaceAll(normalized, "_", " ")

	// synonyms map
	synonyms := map[string]StatementType{
		"balance sheet":                     BalanceSheet,
		"statement of financial position":   BalanceSheet,
		"financial position":                BalanceSheet,
		"income statement":                  IncomeStatement,
		"statement of income":               IncomeStatement,
		"statement of operations":           IncomeStatement,
		"profit and loss":                   IncomeStatement,
		"p&l":                               IncomeStatement,
		"cash flow":                         CashFlow,
		"cash flow statement":               CashFlow,
		"statement of cash flows":           CashFlow,
		"equity":                            Equity,
		"statement of equity":               Equity,
		"statement of changes in equity":    Equity,
		"statement of stockholders equity":  Equity,
		"statement of shareholders equity":  Equity,
		"statement of stockholders' equity": Equity,
		"statement of shareholders' equity": Equity,
	}

	if st, ok := synonyms[normalized]; ok {
		return st, true
	}

	// check if it matches any statement type string
	for _, st := range AllStatementTypes {
		if normalized == strings.ToLower(string(st)) {
			return st, true
		}
	}

	return "", false
}
