// Package textextract turns PDF and DOCX resumes into plain text.
//
// Extraction never fails outright: an unreadable file yields "" and a page
// that cannot be decoded contributes "" while the rest of the document is kept.
package textextract

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/talentscan/talentscan-backend/internal/resume/domain"
	"github.com/talentscan/talentscan-backend/pkg/logger"
)

// Extractor reads text out of text-bearing resume files
type Extractor struct {
	log *logger.Logger
}

// New creates an Extractor
func New(log *logger.Logger) *Extractor {
	return &Extractor{log: log.WithComponent("textextract")}
}

// Extract returns the document text, units joined by newline in document order
func (e *Extractor) Extract(ctx context.Context, path string, kind domain.FileKind) string {
	var (
		text string
		err  error
	)
	switch kind {
	case domain.KindPDF:
		text, err = e.extractPDF(ctx, path)
	case domain.KindDOCX:
		text, err = e.extractDOCX(path)
	default:
		err = fmt.Errorf("%w: %s", domain.ErrUnsupportedFile, kind)
	}
	if err != nil {
		e.log.Warn().Err(err).Str("path", path).Str("kind", string(kind)).Msg("could not read document, continuing with empty text")
		return ""
	}
	return text
}

func (e *Extractor) extractPDF(ctx context.Context, path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panicked: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	total := reader.NumPage()
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		pages = append(pages, e.pageText(reader, i, path))
	}
	return strings.Join(pages, "\n"), nil
}

// pageText isolates one page so a broken content stream only costs that page
func (e *Extractor) pageText(reader *pdf.Reader, n int, path string) (text string) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn().Str("path", path).Int("page", n).Interface("panic", r).Msg("page extraction panicked")
			text = ""
		}
	}()

	page := reader.Page(n)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		e.log.Warn().Err(err).Str("path", path).Int("page", n).Msg("page extraction failed")
		return ""
	}
	return text
}
