package async

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/consolidate"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/document"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/extract"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/pipeline"
)

// Job is one queued document run. Done, when set, receives the run outcome
// on the worker goroutine.
type Job struct {
	Document document.Document
	Done     func(stmt *consolidate.ConsolidatedStatement, manifest *extract.FailureManifest, err error)
}

// RunQueue feeds documents to the pipeline processor from a bounded queue.
// Per-document extraction concurrency lives inside the processor; the queue
// only bounds how many documents are in flight at once.
type RunQueue struct {
	proc    *pipeline.Processor
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*RunQueue)

func WithWorkers(n int) Option {
	return func(q *RunQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *RunQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithRunTimeout(d time.Duration) Option {
	return func(q *RunQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewRunQueue(proc *pipeline.Processor, logger *slog.Logger, opts ...Option) *RunQueue {
	q := &RunQueue{
		proc:    proc,
		logger:  logger,
		workers: 2,
		timeout: 10 * time.Minute,
		ch:      make(chan Job, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *RunQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					stmt, manifest, err := q.proc.ProcessDocument(ctx, job.Document)
					cancel()

					if err != nil {
						q.logger.Error("run failed", "worker_id", workerID, "document", job.Document.Name, "error", err)
					} else {
						q.logger.Info("run completed", "worker_id", workerID, "document", job.Document.Name)
					}
					if job.Done != nil {
						job.Done(stmt, manifest, err)
					}
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *RunQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "document", job.Document.Name)
		return nil
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued document run", "document", job.Document.Name, "pages", len(job.Document.Pages))
	default:
		q.logger.Warn("queue full, applying backpressure", "document", job.Document.Name)
		q.ch <- job
	}
	return nil
}

func (q *RunQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
