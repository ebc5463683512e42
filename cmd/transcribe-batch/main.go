package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/async"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/classify"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/common"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/consolidate"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/document"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/export"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/extract"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/ingest"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/llm/openai"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/pipeline"
	repo "github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// Parse CLI flags
	var (
		inmem   = flag.Bool("inmem", false, "use in-memory SQLite run store")
		dir     = flag.String("dir", "", "document directory with rendered pages (page-<n>.txt / page-<n>.png), or a directory of such directories (required)")
		out     = flag.String("out", "", "output file path, or output directory in multi-document mode (optional)")
		format  = flag.String("format", "", "output format: xlsx or csv (default from EXPORT_FORMAT)")
		workers = flag.Int("workers", 2, "concurrent document runs in multi-document mode")
	)
	flag.Parse()

	// Validate required flags
	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	// Load configuration
	cfg := common.LoadConfig()
	if *format != "" {
		cfg.Export.Format = *format
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Open the run store; --inmem overrides DB_URL for local runs
	dsn := cfg.Database.DSN
	if *inmem {
		dsn = ":memory:"
	}
	db, err := repo.Open(ctx, repo.Config{
		DSN:             dsn,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open run store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.Error("close run store", "error", cerr)
		}
	}()
	if err := repo.HealthCheck(ctx, db, cfg.Database.DialTimeout, logger); err != nil {
		logger.Error("run store health check failed", "error", err)
		os.Exit(1)
	}
	if err := repo.EnsureSchema(ctx, db); err != nil {
		logger.Error("failed to ensure run store schema", "error", err)
		os.Exit(1)
	}
	runs := repo.NewRunRepository(db, logger)

	// Wire the pipeline stages
	renderer := ingest.NewFSRenderer(logger)

	classifier := classify.NewClassifier(logger,
		classify.WithMinTextLength(cfg.Classifier.MinTextLength),
		classify.WithScoreThreshold(cfg.Classifier.ScoreThreshold),
		classify.WithWorkers(cfg.Classifier.Workers),
		classify.WithParallelThreshold(cfg.Classifier.ParallelThreshold),
	)

	llmClient := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	logger.Info("vision client initialized", "model", cfg.LLM.Model)

	orchestrator := extract.NewOrchestrator(llmClient, logger, extract.OrchestratorConfig{
		TopPages:      cfg.Extraction.TopPages,
		Concurrency:   cfg.Extraction.Concurrency,
		MaxRetries:    cfg.Extraction.MaxRetries,
		BaseDelay:     cfg.Extraction.BaseDelay,
		MaxDelay:      cfg.Extraction.MaxDelay,
		MinTextLength: cfg.Classifier.MinTextLength,
	})

	consolidator := consolidate.NewConsolidator(logger)
	processor := pipeline.NewProcessor(logger, classifier, orchestrator, consolidator, runs)
	exportService := export.NewService(logger, cfg.Export.MaxYears)

	subdirs, err := documentDirs(*dir)
	if err != nil {
		logger.Error("failed to scan input directory", "dir", *dir, "error", err)
		os.Exit(1)
	}

	if len(subdirs) > 0 {
		runBatch(ctx, logger, cfg, renderer, processor, exportService, subdirs, *out, *workers)
		return
	}
	runSingle(ctx, logger, cfg, renderer, processor, exportService, *dir, *out)
}

// documentDirs lists subdirectories of dir that hold rendered pages. An
// empty result means dir itself is the document.
func documentDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sub := filepath.Join(dir, entry.Name())
		if _, err := os.Stat(filepath.Join(sub, "page-1.txt")); err == nil {
			dirs = append(dirs, sub)
		}
	}
	return dirs, nil
}

func runSingle(
	ctx context.Context,
	logger *slog.Logger,
	cfg *common.Config,
	renderer *ingest.FSRenderer,
	processor *pipeline.Processor,
	exportService *export.Service,
	dir, out string,
) {
	if out == "" {
		out = filepath.Join(filepath.Dir(dir), "statements."+cfg.Export.Format)
	}

	logger.Info("loading document", "dir", dir)
	pages, err := renderer.Render(ctx, dir)
	if err != nil {
		logger.Error("failed to load document", "error", err)
		os.Exit(1)
	}
	doc := document.Document{Name: documentName(dir), Pages: pages}

	stmt, manifest, err := processor.ProcessDocument(ctx, doc)
	if err != nil {
		logger.Error("transcription failed", "document", doc.Name, "error", err)
		for _, f := range manifest.Failures {
			logger.Error("page failure",
				"page", f.PageNum, "code", f.Code, "attempts", f.Attempts, "error", f.Message)
		}
		os.Exit(1)
	}

	if err := writeReport(exportService, cfg.Export.Format, stmt, out); err != nil {
		logger.Error("failed to write report", "error", err)
		os.Exit(1)
	}

	logger.Info("transcription complete",
		"document", doc.Name,
		"pages", len(doc.Pages),
		"statements", len(stmt.Statements),
		"source_pages", stmt.Info.SourcePages,
		"failures", len(manifest.Failures),
		"output_file", out,
	)

	fmt.Printf("Transcription complete!\n")
	fmt.Printf("- Pages loaded: %d\n", len(doc.Pages))
	fmt.Printf("- Statements consolidated: %d\n", len(stmt.Statements))
	fmt.Printf("- Page failures: %d\n", len(manifest.Failures))
	fmt.Printf("- Output: %s\n", out)
}

func runBatch(
	ctx context.Context,
	logger *slog.Logger,
	cfg *common.Config,
	renderer *ingest.FSRenderer,
	processor *pipeline.Processor,
	exportService *export.Service,
	dirs []string,
	outDir string,
	workers int,
) {
	if outDir == "" {
		outDir = filepath.Dir(dirs[0])
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		logger.Error("failed to create output directory", "dir", outDir, "error", err)
		os.Exit(1)
	}

	queue := async.NewRunQueue(processor, logger,
		async.WithWorkers(workers),
		async.WithQueueSize(len(dirs)),
	)

	var (
		mu        sync.Mutex
		completed int
		failed    int
	)

	logger.Info("starting batch run", "documents", len(dirs), "workers", workers)
	for _, docDir := range dirs {
		pages, err := renderer.Render(ctx, docDir)
		if err != nil {
			logger.Error("failed to load document", "dir", docDir, "error", err)
			failed++
			continue
		}
		name := documentName(docDir)
		out := filepath.Join(outDir, name+"."+cfg.Export.Format)

		job := async.Job{
			Document: document.Document{Name: name, Pages: pages},
			Done: func(stmt *consolidate.ConsolidatedStatement, manifest *extract.FailureManifest, err error) {
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failed++
					return
				}
				if werr := writeReport(exportService, cfg.Export.Format, stmt, out); werr != nil {
					logger.Error("failed to write report", "document", name, "error", werr)
					failed++
					return
				}
				completed++
				logger.Info("document exported",
					"document", name, "output_file", out, "failures", len(manifest.Failures))
			},
		}
		if err := queue.Enqueue(ctx, job); err != nil {
			logger.Error("failed to enqueue document", "document", name, "error", err)
			failed++
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Duration(len(dirs))*10*time.Minute)
	defer cancel()
	queue.Shutdown(shutdownCtx)

	logger.Info("batch run complete", "documents", len(dirs), "completed", completed, "failed", failed)

	fmt.Printf("Batch transcription complete!\n")
	fmt.Printf("- Documents: %d\n", len(dirs))
	fmt.Printf("- Completed: %d\n", completed)
	fmt.Printf("- Failed: %d\n", failed)
	fmt.Printf("- Output directory: %s\n", outDir)
	if failed > 0 {
		os.Exit(1)
	}
}

func writeReport(s *export.Service, format string, stmt *consolidate.ConsolidatedStatement, path string) error {
	var (
		out []byte
		err error
	)
	switch strings.ToLower(format) {
	case "csv":
		out, err = s.ExportCSV(stmt)
	default:
		out, err = s.ExportXLSX(stmt)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0644)
}

func documentName(dir string) string {
	return filepath.Base(strings.TrimRight(dir, string(filepath.Separator)))
}
