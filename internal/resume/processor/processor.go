package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/talentscan/talentscan-backend/internal/resume/domain"
)

// Processor turns one resume file into a candidate record. Implementations
// are registered with a Registry, which picks one per file kind.
type Processor interface {
	// CanProcess returns true if this processor handles the given file kind
	CanProcess(kind domain.FileKind) bool

	// Process extracts a record from the file at path. A failed extraction
	// returns an error and never a partial record.
	Process(ctx context.Context, path string, kind domain.FileKind) (*domain.CandidateRecord, error)

	// Name returns the processor name for logging
	Name() string
}

// Registry routes files to processors by extension
type Registry struct {
	processors []Processor
}

// NewRegistry creates a new processor registry
func NewRegistry(processors ...Processor) *Registry {
	return &Registry{processors: processors}
}

// FindProcessor returns the first processor that can handle the given kind
func (r *Registry) FindProcessor(kind domain.FileKind) Processor {
	for _, p := range r.processors {
		if p.CanProcess(kind) {
			return p
		}
	}
	return nil
}

// Route resolves the processor for a file name. Files without an accepted
// extension yield domain.ErrUnsupportedFile and never reach a processor.
func (r *Registry) Route(filename string) (Processor, domain.FileKind, error) {
	kind, ok := domain.KindFromFilename(filename)
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFile, filename)
	}
	p := r.FindProcessor(kind)
	if p == nil {
		return nil, kind, fmt.Errorf("%w: no processor for %s", domain.ErrUnsupportedFile, kind)
	}
	return p, kind, nil
}

// Extract routes and processes one stored upload. filename is the name the
// record will carry; path is where the bytes live.
func (r *Registry) Extract(ctx context.Context, path, filename string) (*domain.CandidateRecord, error) {
	p, kind, err := r.Route(filename)
	if err != nil {
		return nil, err
	}

	rec, err := p.Process(ctx, path, kind)
	if err != nil {
		var failure *domain.ExtractionFailure
		if errors.As(err, &failure) {
			failure.Filename = filename
		}
		return nil, err
	}
	rec.SourceFilename = filename
	rec.Normalize()
	return rec, nil
}
