package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/constants"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/classify"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/common"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/consolidate"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/document"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/extract"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/repository"
)

// Processor coordinates classification, extraction and consolidation for
// one document. All state for a run flows through arguments and return
// values; the stages share nothing mutable.
type Processor struct {
	logger       *slog.Logger
	classifier   *classify.Classifier
	orchestrator *extract.Orchestrator
	consolidator *consolidate.Consolidator
	runs         repository.RunRepository // optional; nil disables bookkeeping
}

func NewProcessor(
	logger *slog.Logger,
	classifier *classify.Classifier,
	orchestrator *extract.Orchestrator,
	consolidator *consolidate.Consolidator,
	runs repository.RunRepository,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:       logger,
		classifier:   classifier,
		orchestrator: orchestrator,
		consolidator: consolidator,
		runs:         runs,
	}
}

// ProcessDocument runs classify → extract → consolidate. Per-page failures
// stay in the manifest; the only run-level error besides context
// cancellation is common.ErrPipelineExhausted, returned when no page at all
// survived extraction. Partial success still yields a statement.
func (p *Processor) ProcessDocument(ctx context.Context, doc document.Document) (*consolidate.ConsolidatedStatement, *extract.FailureManifest, error) {
	runID, err := p.startRun(ctx, doc)
	if err != nil {
		return nil, nil, err
	}

	ranked := p.classifier.ClassifyPages(ctx, doc.Pages)
	p.recordScores(ctx, runID, ranked)
	p.setStatus(ctx, runID, constants.RunStatusClassified)

	scores := make(map[int]float64, len(ranked))
	for _, page := range ranked {
		scores[page.PageNum] = page.Score.Score
	}

	results, manifest, err := p.orchestrator.Run(ctx, ranked)
	p.recordResults(ctx, runID, results, scores)
	if err != nil {
		if errors.Is(err, common.ErrPipelineExhausted) {
			p.logger.Error("pipeline.exhausted", "document", doc.Name, "failures", len(manifest.Failures))
			p.finishRun(ctx, runID, constants.RunStatusFailed, err.Error())
			return nil, manifest, err
		}
		p.finishRun(ctx, runID, constants.RunStatusFailed, err.Error())
		return nil, manifest, err
	}
	p.setStatus(ctx, runID, constants.RunStatusExtractOK)

	stmt := p.consolidator.Consolidate(extract.SuccessfulResults(results))
	p.finishRun(ctx, runID, constants.RunStatusConsolidated, "")

	p.logger.Info("pipeline.ok",
		"document", doc.Name,
		"pages", len(doc.Pages),
		"extracted", len(stmt.Info.SourcePages),
		"failures", len(manifest.Failures),
	)
	return stmt, manifest, nil
}

func (p *Processor) startRun(ctx context.Context, doc document.Document) (uuid.UUID, error) {
	if p.runs == nil {
		return uuid.Nil, nil
	}
	run, err := p.runs.StartRun(ctx, doc.Name, len(doc.Pages))
	if err != nil {
		return uuid.Nil, common.WrapError(err, "start run")
	}
	return run.ID, nil
}

func (p *Processor) setStatus(ctx context.Context, runID uuid.UUID, status constants.RunStatus) {
	if p.runs == nil {
		return
	}
	if err := p.runs.SetStatus(ctx, runID, status); err != nil {
		p.logger.Warn("pipeline.status_update_failed", "run_id", runID, "status", string(status), "error", err)
	}
}

func (p *Processor) finishRun(ctx context.Context, runID uuid.UUID, status constants.RunStatus, msg string) {
	if p.runs == nil {
		return
	}
	if err := p.runs.FinishRun(ctx, runID, status, msg); err != nil {
		p.logger.Warn("pipeline.finish_failed", "run_id", runID, "error", err)
	}
}

func (p *Processor) recordScores(ctx context.Context, runID uuid.UUID, ranked []classify.RankedPage) {
	if p.runs == nil {
		return
	}
	for _, page := range ranked {
		outcome := repository.PageOutcome{
			PageNum:       page.PageNum,
			StatementType: string(page.Score.Type),
			Score:         page.Score.Score,
		}
		if err := p.runs.RecordPage(ctx, runID, outcome); err != nil {
			p.logger.Warn("pipeline.page_record_failed", "run_id", runID, "page", page.PageNum, "error", err)
		}
	}
}

func (p *Processor) recordResults(ctx context.Context, runID uuid.UUID, results []extract.Result, scores map[int]float64) {
	if p.runs == nil {
		return
	}
	for _, res := range results {
		outcome := repository.PageOutcome{
			PageNum:       res.PageNum,
			StatementType: string(res.StatementType),
			Score:         scores[res.PageNum],
			Confidence:    res.Confidence,
			Success:       res.Success,
			ErrorCode:     res.ErrorCode,
			ErrorMessage:  res.ErrorMessage,
		}
		if err := p.runs.RecordPage(ctx, runID, outcome); err != nil {
			p.logger.Warn("pipeline.page_record_failed", "run_id", runID, "page", res.PageNum, "error", err)
		}
	}
}
