package classify

import (
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/constants"
)

// Pattern weights. Title phrases are the strongest signal, line-item
// vocabulary is type-specific corroboration, supporting indicators are
// generic financial-document cues shared across all types.
const (
	titleWeight      = 5.0
	lineItemWeight   = 2.0
	supportingWeight = 1.0
)

// titlePatterns holds curated phrase variants per statement type. All
// matching is done against lowercased page text.
var titlePatterns = map[constants.StatementType][]string{
	constants.BalanceSheet: {
		"balance sheet",
		"balance sheets",
		"statement of financial position",
		"statements of financial position",
		"consolidated balance sheet",
	},
	constants.IncomeStatement: {
		"income statement",
		"statement of income",
		"statements of income",
		"statement of operations",
		"statements of operations",
		"profit and loss",
		"statement of comprehensive income",
	},
	constants.CashFlow: {
		"statement of cash flows",
		"statements of cash flows",
		"cash flow statement",
		"statement of cash flow",
	},
	constants.Equity: {
		"statement of changes in equity",
		"statement of stockholders' equity",
		"statement of shareholders' equity",
		"statements of changes in equity",
		"statement of changes in shareholders",
		"statement of changes in stockholders",
	},
}

// lineItemPatterns holds type-specific line-item vocabulary.
var lineItemPatterns = map[constants.StatementType][]string{
	constants.BalanceSheet: {
		"current assets",
		"total assets",
		"current liabilities",
		"total liabilities",
		"cash and cash equivalents",
		"accounts receivable",
		"accounts payable",
		"inventories",
		"property, plant and equipment",
		"intangible assets",
		"retained earnings",
		"total equity",
		"shareholders' equity",
		"stockholders' equity",
	},
	constants.IncomeStatement: {
		"revenue",
		"net sales",
		"cost of sales",
		"cost of goods sold",
		"gross profit",
		"operating expenses",
		"operating income",
		"selling, general and administrative",
		"income before tax",
		"income tax expense",
		"net income",
		"net profit",
		"earnings per share",
	},
	constants.CashFlow: {
		"operating activities",
		"investing activities",
		"financing activities",
		"net increase in cash",
		"net decrease in cash",
		"net change in cash",
		"depreciation and amortization",
		"cash at beginning",
		"cash at end",
		"proceeds from",
		"repayment of",
	},
	constants.Equity: {
		"share capital",
		"common stock",
		"treasury stock",
		"additional paid-in capital",
		"accumulated other comprehensive",
		"dividends declared",
		"balance at beginning",
		"balance at end",
		"issuance of shares",
	},
}

// supportingPatterns are generic cues that a page belongs to a financial
// report at all; they contribute equally to every type's score.
var supportingPatterns = []string{
	"audited",
	"unaudited",
	"consolidated",
	"for the year ended",
	"for the years ended",
	"fiscal year",
	"in thousands",
	"in millions",
	"notes to the financial statements",
	"usd",
	"dollars",
	"euro",
}
