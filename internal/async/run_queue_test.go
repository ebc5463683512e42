package async

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/constants"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/classify"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/consolidate"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/document"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/extract"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/pipeline"
)

// countingExtractor records which documents were extracted.
type countingExtractor struct {
	mu    sync.Mutex
	pages []int
}

func (c *countingExtractor) Extract(_ context.Context, req extract.Request) (*extract.StatementPayload, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages = append(c.pages, req.PageNum)
	return &extract.StatementPayload{
		StatementType: string(constants.BalanceSheet),
		Confidence:    0.9,
		LineItems: map[string]map[string]extract.LineItem{
			"assets": {"total_assets": {Value: 100, Confidence: 0.9}},
		},
	}, nil
}

func (c *countingExtractor) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pages)
}

func testQueue(t *testing.T, ext extract.Extractor, opts ...Option) *RunQueue {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	proc := pipeline.NewProcessor(
		logger,
		classify.NewClassifier(logger),
		extract.NewOrchestrator(ext, logger, extract.OrchestratorConfig{}),
		consolidate.NewConsolidator(logger),
		nil,
	)
	return NewRunQueue(proc, logger, opts...)
}

func testJob(name string) Job {
	return Job{Document: document.Document{
		Name: name,
		Pages: []document.Page{{
			PageNum: 1,
			Text:    "Consolidated Balance Sheet\nTotal assets 145,678\nTotal liabilities 89,012",
			Image:   []byte{0x89, 0x50},
		}},
	}}
}

func TestQueueProcessesJobs(t *testing.T) {
	ext := &countingExtractor{}
	q := testQueue(t, ext, WithWorkers(2), WithQueueSize(8))

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(context.Background(), testJob("doc")))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	assert.Equal(t, 5, ext.count())
}

func TestQueueInvokesDoneCallback(t *testing.T) {
	q := testQueue(t, &countingExtractor{}, WithWorkers(1))

	var (
		mu    sync.Mutex
		stmts int
	)
	job := testJob("doc")
	job.Done = func(stmt *consolidate.ConsolidatedStatement, manifest *extract.FailureManifest, err error) {
		mu.Lock()
		defer mu.Unlock()
		require.NoError(t, err)
		require.NotNil(t, stmt)
		assert.True(t, manifest.Empty())
		stmts++
	}
	require.NoError(t, q.Enqueue(context.Background(), job))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, stmts)
}

func TestQueueShutdownIsIdempotent(t *testing.T) {
	q := testQueue(t, &countingExtractor{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	q.Shutdown(ctx)
	q.Shutdown(ctx)
}

func TestQueueRejectsAfterShutdown(t *testing.T) {
	ext := &countingExtractor{}
	q := testQueue(t, ext)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	q.Shutdown(ctx)

	// enqueue after shutdown is dropped, not a panic
	require.NoError(t, q.Enqueue(context.Background(), testJob("late")))
	assert.Zero(t, ext.count())
}
