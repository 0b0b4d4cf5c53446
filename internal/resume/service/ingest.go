package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/talentscan/talentscan-backend/internal/resume/domain"
	"github.com/talentscan/talentscan-backend/pkg/errors"
	"github.com/talentscan/talentscan-backend/pkg/logger"
	"github.com/talentscan/talentscan-backend/pkg/messaging"
)

// Extractor turns a stored upload into a normalized candidate record.
// *processor.Registry implements it.
type Extractor interface {
	Extract(ctx context.Context, path, filename string) (*domain.CandidateRecord, error)
}

// Upload is a resume file already written to disk
type Upload struct {
	Path     string
	Filename string
}

// FileError reports why one file of a batch produced no record
type FileError struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// BatchReport summarizes one ingest batch
type BatchReport struct {
	Processed int         `json:"processed"`
	Created   int         `json:"created"`
	Updated   int         `json:"updated"`
	Skipped   []string    `json:"skipped"`
	Failed    []FileError `json:"failed"`
}

// IngestService extracts uploaded resumes and reconciles them into the store
type IngestService struct {
	extractor  Extractor
	reconciler *Reconciler
	publisher  messaging.EventPublisher
	workers    int
	log        *logger.Logger
}

// NewIngestService creates an ingest service. workers bounds concurrent
// extractions within one batch.
func NewIngestService(extractor Extractor, reconciler *Reconciler, publisher messaging.EventPublisher, workers int, log *logger.Logger) *IngestService {
	if workers < 1 {
		workers = 1
	}
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &IngestService{
		extractor:  extractor,
		reconciler: reconciler,
		publisher:  publisher,
		workers:    workers,
		log:        log.WithComponent("ingest"),
	}
}

// IngestBatch processes every upload of a batch. Files with an unsupported
// extension are skipped before extraction. Extraction runs concurrently;
// reconciliation then runs in upload order so a later file for the same
// candidate wins. A failing file never aborts the rest of the batch.
func (s *IngestService) IngestBatch(ctx context.Context, uploads []Upload) *BatchReport {
	report := &BatchReport{
		Skipped: []string{},
		Failed:  []FileError{},
	}

	records := make([]*domain.CandidateRecord, len(uploads))
	failures := make([]error, len(uploads))
	accepted := make([]bool, len(uploads))

	var g errgroup.Group
	g.SetLimit(s.workers)

	for i, u := range uploads {
		if _, ok := domain.KindFromFilename(u.Filename); !ok {
			s.log.Info().Str("file", u.Filename).Msg("skipping file with unsupported extension")
			report.Skipped = append(report.Skipped, u.Filename)
			continue
		}
		accepted[i] = true

		g.Go(func() error {
			records[i], failures[i] = s.extractor.Extract(ctx, u.Path, u.Filename)
			return nil
		})
	}
	_ = g.Wait()

	for i, u := range uploads {
		if !accepted[i] {
			continue
		}
		if failures[i] != nil {
			s.fail(ctx, report, u, failures[i])
			continue
		}

		outcome, err := s.save(ctx, records[i])
		if err != nil {
			s.fail(ctx, report, u, err)
			continue
		}
		report.count(outcome)
	}

	s.log.Info().
		Int("files", len(uploads)).
		Int("processed", report.Processed).
		Int("created", report.Created).
		Int("updated", report.Updated).
		Int("skipped", len(report.Skipped)).
		Int("failed", len(report.Failed)).
		Msg("batch ingested")

	return report
}

// IngestFile extracts and reconciles a single upload. Unsupported files
// return an error wrapping domain.ErrUnsupportedFile.
func (s *IngestService) IngestFile(ctx context.Context, u Upload) (*Outcome, error) {
	rec, err := s.extractor.Extract(ctx, u.Path, u.Filename)
	if err != nil {
		if !errors.Is(err, domain.ErrUnsupportedFile) {
			s.publishFailure(ctx, u.Filename, err)
		}
		return nil, err
	}
	return s.save(ctx, rec)
}

func (s *IngestService) save(ctx context.Context, rec *domain.CandidateRecord) (*Outcome, error) {
	outcome, err := s.reconciler.Reconcile(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to store candidate: %w", err)
	}

	eventType := messaging.EventCandidateCreated
	if outcome.Action == ActionUpdated {
		eventType = messaging.EventCandidateUpdated
	}
	c := outcome.Candidate
	if err := s.publisher.Publish(ctx, eventType, messaging.CandidateChangedEvent{
		CandidateID:    c.ID,
		Name:           c.Name,
		Email:          c.Email,
		Phone:          c.Phone,
		SourceFilename: c.SourceFilename,
		UpdatedAt:      c.LastUpdated,
	}); err != nil {
		s.log.Warn().Err(err).Str("event", eventType).Msg("failed to publish candidate event")
	}

	return outcome, nil
}

func (s *IngestService) fail(ctx context.Context, report *BatchReport, u Upload, err error) {
	s.log.Error().Err(err).Str("file", u.Filename).Msg("resume produced no record")
	report.Failed = append(report.Failed, FileError{Filename: u.Filename, Reason: err.Error()})
	if errors.Is(err, domain.ErrExtractionFailed) {
		s.publishFailure(ctx, u.Filename, err)
	}
}

func (s *IngestService) publishFailure(ctx context.Context, filename string, cause error) {
	err := s.publisher.Publish(ctx, messaging.EventResumeExtractionFailed, messaging.ExtractionFailedEvent{
		Filename: filename,
		Reason:   cause.Error(),
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to publish extraction failure")
	}
}

func (r *BatchReport) count(o *Outcome) {
	r.Processed++
	switch o.Action {
	case ActionCreated:
		r.Created++
	case ActionUpdated:
		r.Updated++
	}
}
