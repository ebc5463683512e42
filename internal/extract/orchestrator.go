package extract

import (
	"context"
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/constants"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/classify"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/common"
)

// OrchestratorConfig holds the knobs for page selection and retry policy.
type OrchestratorConfig struct {
	// TopPages is how many classified pages get extracted, taken from the
	// top of the ranking. Default 3: the batch transcription path; the old
	// interactive mode's 10 is reachable via TRANSCRIBE_TOP_PAGES.
	TopPages      int
	Concurrency   int
	MaxRetries    int // total attempts per page, not extra retries
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	MinTextLength int
}

func (c *OrchestratorConfig) applyDefaults() {
	if c.TopPages <= 0 {
		c.TopPages = 3
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 5
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 1 * time.Second
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 60 * time.Second
	}
	if c.MinTextLength <= 0 {
		c.MinTextLength = 20
	}
}

// Orchestrator fans page extractions out over a bounded worker pool,
// retrying rate-limit failures with exponential backoff. One page failing
// never aborts the batch; only zero successes is a run-level failure.
type Orchestrator struct {
	extractor Extractor
	logger    *slog.Logger
	cfg       OrchestratorConfig

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64
}

func NewOrchestrator(extractor Extractor, logger *slog.Logger, cfg OrchestratorConfig) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()
	return &Orchestrator{
		extractor: extractor,
		logger:    logger,
		cfg:       cfg,
		sleep:     sleepCtx,
		jitter:    rand.Float64,
	}
}

// Run selects the top classified pages from the ranking and extracts them.
// The returned results are sorted by page number regardless of completion
// order, so downstream consolidation is reproducible. It returns
// common.ErrPipelineExhausted when no page succeeds.
func (o *Orchestrator) Run(ctx context.Context, ranked []classify.RankedPage) ([]Result, *FailureManifest, error) {
	selected := selectPages(ranked, o.cfg.TopPages)
	o.logger.Info("extract.run.start",
		"ranked", len(ranked),
		"selected", len(selected),
		"concurrency", o.cfg.Concurrency,
	)

	manifest := &FailureManifest{}
	if len(selected) == 0 {
		return nil, manifest, common.ErrPipelineExhausted
	}

	var (
		mu      sync.Mutex
		results []Result
		wg      sync.WaitGroup
	)
	tasks := make(chan classify.RankedPage)

	for w := 0; w < o.cfg.Concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for page := range tasks {
				res, attempts := o.extractPage(ctx, page)
				mu.Lock()
				results = append(results, res)
				if !res.Success {
					manifest.Failures = append(manifest.Failures, PageFailure{
						PageNum:  res.PageNum,
						Code:     res.ErrorCode,
						Message:  res.ErrorMessage,
						Attempts: attempts,
					})
				}
				mu.Unlock()
			}
		}()
	}

	for _, page := range selected {
		tasks <- page
	}
	close(tasks)
	wg.Wait()

	// collection order depends on scheduling; re-sort by page number
	sort.Slice(results, func(i, j int) bool { return results[i].PageNum < results[j].PageNum })
	sort.Slice(manifest.Failures, func(i, j int) bool {
		return manifest.Failures[i].PageNum < manifest.Failures[j].PageNum
	})

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	o.logger.Info("extract.run.done",
		"selected", len(selected),
		"succeeded", succeeded,
		"failed", len(manifest.Failures),
	)

	if succeeded == 0 {
		return results, manifest, common.ErrPipelineExhausted
	}
	return results, manifest, nil
}

// selectPages takes the first k classified pages of an already-ranked slice.
func selectPages(ranked []classify.RankedPage, k int) []classify.RankedPage {
	var selected []classify.RankedPage
	for _, page := range ranked {
		if !page.Score.Classified {
			continue
		}
		selected = append(selected, page)
		if len(selected) == k {
			break
		}
	}
	return selected
}

// extractPage runs one page through precondition checks, the extraction
// call, and the retry loop. It returns the page result plus how many
// attempts were made.
func (o *Orchestrator) extractPage(ctx context.Context, page classify.RankedPage) (Result, int) {
	res := Result{
		PageNum:       page.PageNum,
		StatementType: page.Score.Type,
	}

	if len(page.Image) == 0 {
		res.ErrorCode = CodeMissingImage
		res.ErrorMessage = "page has no rendered image"
		return res, 0
	}
	if len(strings.TrimSpace(page.Text)) < o.cfg.MinTextLength {
		res.ErrorCode = CodeTextTooShort
		res.ErrorMessage = "page text below extraction minimum"
		return res, 0
	}

	req := Request{
		PageNum:       page.PageNum,
		StatementType: page.Score.Type,
		Image:         page.Image,
		RawText:       page.Text,
	}

	var lastErr error
	for attempt := 0; attempt < o.cfg.MaxRetries; attempt++ {
		payload, err := o.extractor.Extract(ctx, req)
		if err == nil {
			res.Success = true
			res.Payload = payload
			res.Confidence = payload.Confidence
			if st, ok := constants.Canonicalize(payload.StatementType); ok {
				res.StatementType = st
			}
			o.logger.Info("extract.page.ok",
				"page", page.PageNum,
				"type", string(res.StatementType),
				"confidence", res.Confidence,
				"attempts", attempt+1,
			)
			return res, attempt + 1
		}

		lastErr = err
		if !IsRetryable(err) {
			res.ErrorCode = CodeExtractFailed
			res.ErrorMessage = err.Error()
			o.logger.Error("extract.page.fatal", "page", page.PageNum, "error", err)
			return res, attempt + 1
		}

		if attempt == o.cfg.MaxRetries-1 {
			break
		}
		delay := o.backoffDelay(attempt)
		o.logger.Warn("extract.page.retry",
			"page", page.PageNum,
			"attempt", attempt+1,
			"delay_ms", delay.Milliseconds(),
			"error", err,
		)
		if err := o.sleep(ctx, delay); err != nil {
			res.ErrorCode = CodeExtractFailed
			res.ErrorMessage = err.Error()
			return res, attempt + 1
		}
	}

	// retries exhausted: the transient failure becomes fatal for this page
	res.ErrorCode = CodeRateLimited
	res.ErrorMessage = lastErr.Error()
	o.logger.Error("extract.page.exhausted",
		"page", page.PageNum,
		"attempts", o.cfg.MaxRetries,
		"error", lastErr,
	)
	return res, o.cfg.MaxRetries
}

// backoffDelay computes min(base·2^attempt + uniform(0,1)s, max).
func (o *Orchestrator) backoffDelay(attempt int) time.Duration {
	delay := o.cfg.BaseDelay << uint(attempt)
	delay += time.Duration(o.jitter() * float64(time.Second))
	if delay > o.cfg.MaxDelay {
		delay = o.cfg.MaxDelay
	}
	return delay
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SuccessfulResults filters a result slice down to successes, preserving order.
func SuccessfulResults(results []Result) []Result {
	var ok []Result
	for _, r := range results {
		if r.Success {
			ok = append(ok, r)
		}
	}
	return ok
}
