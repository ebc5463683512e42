package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateJSONAgainstSchema(t *testing.T) {
	schema := BuildStatementJSONSchema()

	valid := `{
		"statement_type": "CashFlow",
		"confidence": 0.8,
		"line_items": {
			"operating": {
				"net_cash_from_operating_activities": {"value": 250, "confidence": 0.9, "years": {"2023": 250}}
			}
		},
		"notes": ["figures in thousands"]
	}`
	require.NoError(t, ValidateJSONAgainstSchema(schema, []byte(valid)))

	tests := []struct {
		name string
		data string
	}{
		{"unknown statement type", `{"statement_type": "TrialBalance", "line_items": {}}`},
		{"missing line_items", `{"statement_type": "CashFlow"}`},
		{"missing statement_type", `{"line_items": {}}`},
		{"confidence out of range", `{"statement_type": "CashFlow", "confidence": 1.5, "line_items": {}}`},
		{"line item without value", `{"statement_type": "CashFlow", "line_items": {"operating": {"cash": {"confidence": 0.9}}}}`},
		{"non numeric year", `{"statement_type": "CashFlow", "line_items": {"operating": {"cash": {"value": 1, "years": {"2023": "n/a"}}}}}`},
		{"extra top-level key", `{"statement_type": "CashFlow", "line_items": {}, "surprise": true}`},
		{"not json", `not json at all`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, ValidateJSONAgainstSchema(schema, []byte(tc.data)))
		})
	}
}
