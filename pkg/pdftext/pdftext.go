// Package pdftext extracts the plain text of a regulation PDF.
package pdftext

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"
)

// ErrNoText is returned when a PDF yields no extractable text, for example
// a scanned document without a text layer.
var ErrNoText = errors.New("pdftext: no text extracted")

// ProgressFunc is called after each page with the pages done so far.
type ProgressFunc func(done, total int)

// Extractor reads PDF text page by page.
type Extractor struct {
	logger   zerolog.Logger
	progress ProgressFunc
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger used for per-page diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// WithProgress sets a callback invoked after every page.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Extractor) {
		e.progress = fn
	}
}

// NewExtractor creates an Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the text of the PDF at path, pages joined by newlines,
// page artifacts removed and normalized to NFC. Cancellation is checked
// between pages.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	total := r.NumPage()
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		p := r.Page(i)
		if p.V.IsNull() {
			e.logger.Debug().Int("page", i).Msg("skipping empty page")
			e.report(i, total)
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("reading page %d of %s: %w", i, path, err)
		}
		pages = append(pages, content)
		e.report(i, total)
	}

	text := Normalize(strings.Join(CleanPages(pages), "\n"))
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	e.logger.Debug().Int("pages", total).Int("runes", len([]rune(text))).Msg("extracted pdf text")
	return text, nil
}

func (e *Extractor) report(done, total int) {
	if e.progress != nil {
		e.progress(done, total)
	}
}

// Normalize composes text to NFC and replaces non-breaking spaces with
// plain spaces. PDF text layers often carry decomposed Vietnamese
// diacritics, which would otherwise miss the composed patterns.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\u00a0", " ")
	return norm.NFC.String(text)
}
