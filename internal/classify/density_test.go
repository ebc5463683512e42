package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumberDensityPct(t *testing.T) {
	assert.Zero(t, numberDensityPct(""))
	assert.Zero(t, numberDensityPct("no numbers in this sentence at all"))

	// 2 distinct tokens over 4 words
	pct := numberDensityPct("revenue 1,234 costs 5,678")
	assert.InDelta(t, 50.0, pct, 0.001)

	// repeated token counts once
	pct = numberDensityPct("total 1,234 subtotal 1,234")
	assert.InDelta(t, 25.0, pct, 0.001)
}

func TestNumberDensityPctTokenKinds(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"currency", "cash balance was $1,234.56 total"},
		{"comma grouped", "assets totalled 1,234,567 overall"},
		{"bare number", "figures for 2023 fiscal year"},
		{"paren negative", "investing used (12,345) in cash"},
		{"percentage", "margin improved to 42.5% overall"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Greater(t, numberDensityPct(tc.text), 0.0)
		})
	}
}

func TestDensityScoreBuckets(t *testing.T) {
	tests := []struct {
		pct  float64
		want float64
	}{
		{35, 6},
		{30, 6},
		{25, 4},
		{20, 4},
		{15, 2.5},
		{10, 1.5},
		{7, 0.5},
		{5, 0},
		{3, -1},
		{2.9, -3},
		{0, -3},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, densityScore(tc.pct), "pct %v", tc.pct)
	}
}
