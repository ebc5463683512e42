package document

import "context"

// Page is one rendered page of a scanned document. Pages are produced by a
// Renderer and are read-only for the rest of the pipeline.
type Page struct {
	PageNum int
	Text    string
	Image   []byte // encoded PNG/JPEG, may be nil when only text was rendered
}

// Document groups the pages of one source file for a single run.
type Document struct {
	Name  string
	Pages []Page
}

// Renderer turns a source document into ordered pages. PDF decoding, DPI
// selection and OCR all live behind this interface; the pipeline only
// consumes its output.
type Renderer interface {
	Render(ctx context.Context, source string) ([]Page, error)
}
