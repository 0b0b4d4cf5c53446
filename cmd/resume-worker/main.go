package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/talentscan/talentscan-backend/internal/resume/app"
	"github.com/talentscan/talentscan-backend/internal/resume/worker"
	"github.com/talentscan/talentscan-backend/pkg/config"
	"github.com/talentscan/talentscan-backend/pkg/database"
	"github.com/talentscan/talentscan-backend/pkg/httputil"
	"github.com/talentscan/talentscan-backend/pkg/logger"
	"github.com/talentscan/talentscan-backend/pkg/messaging"
)

const serviceName = "resume-worker"

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(serviceName, cfg.Server.Environment)
	log.Info().Msg("starting Resume Worker")

	if !cfg.RabbitMQ.Enabled {
		log.Fatal().Msg("the worker consumes from RabbitMQ; set TALENTSCAN_RABBITMQ_ENABLED=true")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	publisher, rmq, err := app.Messaging(&cfg.RabbitMQ, serviceName, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	components, err := app.Build(ctx, cfg, db, publisher, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize resume ingestion")
	}

	// Dead letter queue for requests that keep failing
	if err := rmq.DeclareDeadLetterQueue(serviceName); err != nil {
		log.Fatal().Err(err).Msg("failed to declare dead letter queue")
	}

	consumer, err := messaging.NewConsumer(rmq, worker.QueueName, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create consumer")
	}
	if err := consumer.Subscribe(messaging.ExchangeResumeEvents, messaging.EventResumeIngestRequested); err != nil {
		log.Fatal().Err(err).Msg("failed to subscribe to ingest requests")
	}
	consumer.RegisterHandler(messaging.EventResumeIngestRequested, worker.IngestHandler(components.Ingest, log))

	if err := consumer.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start consumer")
	}

	// Health endpoint for the orchestrator
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]any{
			"status":   "healthy",
			"service":  serviceName,
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", addr).Msg("health endpoint listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
