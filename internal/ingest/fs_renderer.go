package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/document"
)

var rePageText = regexp.MustCompile(`^page-(\d+)\.txt$`)

// imageExtensions are tried in order when looking for a page's rendered image.
var imageExtensions = []string{".png", ".jpg", ".jpeg"}

// FSRenderer implements document.Renderer over a directory of pre-rendered
// pages: page-<n>.txt for extracted text plus an optional page-<n>.png/.jpg.
// The upstream PDF renderer writes this layout; this adapter only reads it.
type FSRenderer struct {
	logger *slog.Logger
}

func NewFSRenderer(logger *slog.Logger) *FSRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSRenderer{logger: logger}
}

// Render loads every page-<n>.txt under dir, sorted by page number.
// A page with a missing or unreadable text file is kept with empty text so
// the classifier can skip it; a missing image is left nil.
func (r *FSRenderer) Render(ctx context.Context, dir string) ([]document.Page, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read document dir: %w", err)
	}

	var pages []document.Page
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := rePageText.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pageNum, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}

		page := document.Page{PageNum: pageNum}
		if b, err := os.ReadFile(filepath.Join(dir, entry.Name())); err == nil {
			page.Text = string(b)
		} else {
			r.logger.Warn("ingest.page.text_unreadable", "page", pageNum, "error", err)
		}
		page.Image = r.loadImage(dir, pageNum)

		pages = append(pages, page)
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].PageNum < pages[j].PageNum })

	r.logger.Info("ingest.render.ok", "dir", dir, "pages", len(pages))
	return pages, nil
}

func (r *FSRenderer) loadImage(dir string, pageNum int) []byte {
	for _, ext := range imageExtensions {
		path := filepath.Join(dir, fmt.Sprintf("page-%d%s", pageNum, ext))
		if b, err := os.ReadFile(path); err == nil {
			return b
		}
	}
	return nil
}
