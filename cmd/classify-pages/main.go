package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/classify"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/common"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/ingest"
)

// classify-pages scores a rendered document without calling the vision API,
// for tuning keyword patterns and the score threshold.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "classify-pages <document-dir>")
		os.Exit(2)
	}
	dir := os.Args[1]

	cfg := common.LoadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	renderer := ingest.NewFSRenderer(logger)
	pages, err := renderer.Render(ctx, dir)
	if err != nil {
		logger.Error("failed to load document", "dir", dir, "error", err)
		os.Exit(1)
	}

	classifier := classify.NewClassifier(logger,
		classify.WithMinTextLength(cfg.Classifier.MinTextLength),
		classify.WithScoreThreshold(cfg.Classifier.ScoreThreshold),
		classify.WithWorkers(cfg.Classifier.Workers),
		classify.WithParallelThreshold(cfg.Classifier.ParallelThreshold),
	)

	start := time.Now()
	ranked := classifier.ClassifyPages(ctx, pages)
	dur := time.Since(start)

	fmt.Printf("%-6s %-20s %-8s %-12s %s\n", "PAGE", "TYPE", "SCORE", "DENSITY%", "CLASSIFIED")
	classified := 0
	for _, page := range ranked {
		s := page.Score
		mark := ""
		if s.Classified {
			mark = "yes"
			classified++
		}
		fmt.Printf("%-6d %-20s %-8.1f %-12.1f %s\n",
			s.PageNum, string(s.Type), s.Score, s.NumberDensityPct, mark)
	}
	fmt.Printf("\n%d of %d pages classified (threshold %.1f, %dms)\n",
		classified, len(pages), cfg.Classifier.ScoreThreshold, dur.Milliseconds())
}
