package worker

import (
	"context"
	"fmt"
	"os"

	"github.com/talentscan/talentscan-backend/internal/resume/domain"
	"github.com/talentscan/talentscan-backend/internal/resume/service"
	"github.com/talentscan/talentscan-backend/pkg/errors"
	"github.com/talentscan/talentscan-backend/pkg/logger"
	"github.com/talentscan/talentscan-backend/pkg/messaging"
)

// QueueName is the durable queue the ingest worker consumes
const QueueName = "resume-worker.ingest"

// FileIngester ingests one stored upload
type FileIngester interface {
	IngestFile(ctx context.Context, u service.Upload) (*service.Outcome, error)
}

// IngestHandler handles resume.ingest.requested events.
//
// Files that cannot produce a record (missing from disk, unsupported or a
// failed extraction) are acknowledged after logging; retrying cannot help
// them. Store errors are returned so the consumer requeues the event once and
// then dead-letters it.
func IngestHandler(ingester FileIngester, log *logger.Logger) messaging.MessageHandler {
	log = log.WithComponent("ingest-worker")

	return func(ctx context.Context, event *messaging.Event) error {
		var req messaging.IngestRequestedEvent
		if err := event.UnmarshalData(&req); err != nil {
			log.Error().Err(err).Str("event_id", event.ID).Msg("malformed ingest request, dropping")
			return nil
		}

		flog := log.WithFile(req.Filename)
		if _, err := os.Stat(req.Path); err != nil {
			flog.Error().Err(err).Str("path", req.Path).Msg("queued upload is missing, dropping")
			return nil
		}

		outcome, err := ingester.IngestFile(ctx, service.Upload{Path: req.Path, Filename: req.Filename})
		switch {
		case errors.Is(err, domain.ErrUnsupportedFile), errors.Is(err, domain.ErrExtractionFailed):
			flog.Warn().Err(err).Msg("resume produced no record")
			return nil
		case err != nil:
			return fmt.Errorf("ingest %s: %w", req.Filename, err)
		}

		flog.Info().
			Int64("candidate_id", outcome.Candidate.ID).
			Str("action", string(outcome.Action)).
			Msg("queued resume ingested")
		return nil
	}
}
