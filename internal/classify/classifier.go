package classify

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/constants"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/document"
)

// Score is the classification outcome for one page. It is derived purely
// from Page.Text and is deterministic for a given input.
type Score struct {
	PageNum          int
	Type             constants.StatementType
	Score            float64
	NumberDensityPct float64
	Classified       bool
}

// RankedPage is a page augmented with its winning score.
type RankedPage struct {
	document.Page
	Score Score
}

type Classifier struct {
	logger *slog.Logger

	minTextLength     int
	scoreThreshold    float64
	workers           int
	parallelThreshold int
}

type Option func(*Classifier)

func WithMinTextLength(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.minTextLength = n
		}
	}
}

func WithScoreThreshold(t float64) Option {
	return func(c *Classifier) {
		if t > 0 {
			c.scoreThreshold = t
		}
	}
}

func WithWorkers(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.workers = n
		}
	}
}

func WithParallelThreshold(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.parallelThreshold = n
		}
	}
}

func NewClassifier(logger *slog.Logger, opts ...Option) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Classifier{
		logger:            logger,
		minTextLength:     20,
		scoreThreshold:    3.0,
		workers:           4,
		parallelThreshold: 8,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ScorePage scores one page against every statement type and returns the
// winning score. Ties between types resolve to the first entry of
// constants.AllStatementTypes.
func (c *Classifier) ScorePage(page document.Page) Score {
	if nonWhitespaceLen(page.Text) < c.minTextLength {
		return Score{PageNum: page.PageNum}
	}

	lower := strings.ToLower(page.Text)
	densityPct := numberDensityPct(page.Text)
	density := densityScore(densityPct)

	supporting := 0.0
	for _, p := range supportingPatterns {
		if strings.Contains(lower, p) {
			supporting += supportingWeight
		}
	}

	best := Score{PageNum: page.PageNum, NumberDensityPct: densityPct}
	for i, st := range constants.AllStatementTypes {
		score := density + supporting
		for _, p := range titlePatterns[st] {
			if strings.Contains(lower, p) {
				score += titleWeight
			}
		}
		for _, p := range lineItemPatterns[st] {
			if strings.Contains(lower, p) {
				score += lineItemWeight
			}
		}
		// strict > keeps declaration order as the tie-break
		if i == 0 || score > best.Score {
			best.Type = st
			best.Score = score
		}
	}

	best.Classified = best.Score >= c.scoreThreshold
	return best
}

// ClassifyPages scores every page and returns them ranked: score descending,
// original page order on ties. Pages below the threshold are included with
// Classified=false so callers can report on them; selection happens
// downstream. Scoring fans out over a bounded worker pool once the page
// count reaches the parallel threshold.
func (c *Classifier) ClassifyPages(ctx context.Context, pages []document.Page) []RankedPage {
	scores := make([]Score, len(pages))

	if len(pages) >= c.parallelThreshold {
		c.scoreParallel(ctx, pages, scores)
	} else {
		for i, page := range pages {
			scores[i] = c.ScorePage(page)
		}
	}

	ranked := make([]RankedPage, len(pages))
	classified := 0
	for i, page := range pages {
		scores[i].PageNum = page.PageNum
		ranked[i] = RankedPage{Page: page, Score: scores[i]}
		if scores[i].Classified {
			classified++
		}
		c.logger.Debug("classify.page.scored",
			"page", page.PageNum,
			"type", string(scores[i].Type),
			"score", scores[i].Score,
			"density_pct", scores[i].NumberDensityPct,
			"classified", scores[i].Classified,
		)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score.Score > ranked[j].Score.Score
	})

	c.logger.Info("classify.pages.ok",
		"pages", len(pages),
		"classified", classified,
	)
	return ranked
}

func (c *Classifier) scoreParallel(ctx context.Context, pages []document.Page, scores []Score) {
	indexes := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < c.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				scores[i] = c.ScorePage(pages[i])
			}
		}()
	}

	for i := range pages {
		select {
		case <-ctx.Done():
			// leave remaining pages unscored; they rank as unclassified
			close(indexes)
			wg.Wait()
			return
		case indexes <- i:
		}
	}
	close(indexes)
	wg.Wait()
}

func nonWhitespaceLen(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
