package processor

import (
	"context"

	"github.com/talentscan/talentscan-backend/internal/resume/domain"
	"github.com/talentscan/talentscan-backend/internal/resume/heuristics"
	"github.com/talentscan/talentscan-backend/pkg/logger"
)

// TextSource yields the plain text of a document, "" when unreadable
type TextSource interface {
	Extract(ctx context.Context, path string, kind domain.FileKind) string
}

// RegexProcessor extracts fields from PDF and DOCX resumes with pattern heuristics
type RegexProcessor struct {
	text TextSource
	log  *logger.Logger
}

// NewRegexProcessor creates a new regex processor
func NewRegexProcessor(text TextSource, log *logger.Logger) *RegexProcessor {
	return &RegexProcessor{text: text, log: log.WithComponent("regex")}
}

func (p *RegexProcessor) Name() string { return "regex" }

func (p *RegexProcessor) CanProcess(kind domain.FileKind) bool {
	return kind.IsText()
}

// Process never fails: an unreadable document produces an all-sentinel record
func (p *RegexProcessor) Process(ctx context.Context, path string, kind domain.FileKind) (*domain.CandidateRecord, error) {
	text := heuristics.CleanText(p.text.Extract(ctx, path, kind))
	f := heuristics.ExtractAll(text)

	rec := &domain.CandidateRecord{
		Name:        f.Name,
		Email:       f.Email,
		Phone:       f.Phone,
		College:     f.College,
		Degree:      f.Degree,
		Department:  f.Department,
		State:       f.State,
		District:    f.District,
		YearPassing: f.YearPassing,
	}
	rec.Normalize()

	p.log.Debug().
		Str("path", path).
		Int("text_chars", len(text)).
		Bool("has_email", rec.HasEmail()).
		Bool("has_phone", rec.HasPhone()).
		Msg("regex extraction done")

	return rec, nil
}
