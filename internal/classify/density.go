package classify

import (
	"regexp"
	"strings"
)

// Regexes for "financial-looking" numeric tokens. Order matters only for
// readability; matches across all patterns are pooled and deduplicated.
var (
	reCurrencyAmount = regexp.MustCompile(`[$£€¥]\s?\d[\d,]*(?:\.\d+)?`)
	reCommaGrouped   = regexp.MustCompile(`\b\d{1,3}(?:,\d{3})+(?:\.\d+)?\b`)
	reBareNumber     = regexp.MustCompile(`\b\d{4,}(?:\.\d+)?\b`)
	reParenNegative  = regexp.MustCompile(`\(\s?\d[\d,]*(?:\.\d+)?\s?\)`)
	rePercentage     = regexp.MustCompile(`\b\d+(?:\.\d+)?%`)
)

var financialTokenPatterns = []*regexp.Regexp{
	reCurrencyAmount,
	reCommaGrouped,
	reBareNumber,
	reParenNegative,
	rePercentage,
}

// numberDensityPct returns the percentage of distinct financial-looking
// numeric tokens relative to the page's word count.
func numberDensityPct(text string) float64 {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}

	seen := make(map[string]struct{})
	for _, re := range financialTokenPatterns {
		for _, tok := range re.FindAllString(text, -1) {
			seen[strings.TrimSpace(tok)] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return 0
	}

	return float64(len(seen)) / float64(words) * 100
}

// densityScore maps a density percentage onto the fixed score buckets.
// Statement pages are number-dense; narrative pages are penalized.
func densityScore(pct float64) float64 {
	switch {
	case pct >= 30:
		return 6
	case pct >= 20:
		return 4
	case pct >= 15:
		return 2.5
	case pct >= 10:
		return 1.5
	case pct >= 7:
		return 0.5
	case pct >= 5:
		return 0
	case pct >= 3:
		return -1
	default:
		return -3
	}
}
