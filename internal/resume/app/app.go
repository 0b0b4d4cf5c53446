// Package app assembles the resume ingestion stack shared by the HTTP
// service, the queue worker and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/talentscan/talentscan-backend/internal/resume/export"
	"github.com/talentscan/talentscan-backend/internal/resume/processor"
	"github.com/talentscan/talentscan-backend/internal/resume/repository"
	"github.com/talentscan/talentscan-backend/internal/resume/service"
	"github.com/talentscan/talentscan-backend/internal/resume/textextract"
	"github.com/talentscan/talentscan-backend/internal/resume/vision"
	"github.com/talentscan/talentscan-backend/pkg/config"
	"github.com/talentscan/talentscan-backend/pkg/database"
	"github.com/talentscan/talentscan-backend/pkg/logger"
	"github.com/talentscan/talentscan-backend/pkg/messaging"
)

// Components is the wired ingestion stack
type Components struct {
	Candidates *repository.CandidateRepository
	Registry   *processor.Registry
	Ingest     *service.IngestService
	Exporter   *export.Exporter
}

// Build creates the candidates schema if needed and wires extraction,
// reconciliation and export on top of db.
func Build(ctx context.Context, cfg *config.Config, db *database.DB, publisher messaging.EventPublisher, log *logger.Logger) (*Components, error) {
	candidates := repository.NewCandidateRepository(db)
	if err := candidates.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	vlm, err := processor.NewVLMProcessor(VisionModel(ctx, &cfg.Vision, log), cfg.Vision.Timeout, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision processor: %w", err)
	}

	registry := processor.NewRegistry(
		processor.NewRegexProcessor(textextract.New(log), log),
		vlm,
	)

	reconciler := service.NewReconciler(candidates, log)

	return &Components{
		Candidates: candidates,
		Registry:   registry,
		Ingest:     service.NewIngestService(registry, reconciler, publisher, cfg.Ingest.Workers, log),
		Exporter:   export.NewExporter(candidates, log),
	}, nil
}

// VisionModel returns the Gemini model, or a model that always fails when no
// API key is configured so text resumes keep working.
func VisionModel(ctx context.Context, cfg *config.VisionConfig, log *logger.Logger) vision.Model {
	model, err := vision.NewGeminiModel(ctx, cfg, log)
	if errors.Is(err, vision.ErrNotConfigured) {
		log.Warn().Msg("no vision API key configured, image resumes will fail extraction")
		return vision.Unavailable{}
	}
	if err != nil {
		log.Error().Err(err).Msg("vision model unavailable, image resumes will fail extraction")
		return vision.Unavailable{}
	}
	log.Info().Str("model", cfg.Model).Msg("vision model ready")
	return model
}

// Messaging connects to RabbitMQ when it is enabled and returns a publisher
// on the resume exchange. With messaging disabled it returns a NopPublisher
// and a nil connection.
func Messaging(cfg *config.RabbitMQConfig, source string, log *logger.Logger) (messaging.EventPublisher, *messaging.RabbitMQ, error) {
	if !cfg.Enabled {
		log.Info().Msg("RabbitMQ disabled, events will not be published")
		return messaging.NopPublisher{}, nil, nil
	}

	rmq, err := messaging.New(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeResumeEvents, source, log)
	if err != nil {
		rmq.Close()
		return nil, nil, err
	}
	return publisher, rmq, nil
}
