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
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/talentscan/talentscan-backend/internal/resume/app"
	"github.com/talentscan/talentscan-backend/internal/resume/handler"
	"github.com/talentscan/talentscan-backend/internal/resume/storage"
	"github.com/talentscan/talentscan-backend/pkg/config"
	"github.com/talentscan/talentscan-backend/pkg/database"
	"github.com/talentscan/talentscan-backend/pkg/httputil"
	"github.com/talentscan/talentscan-backend/pkg/logger"
)

const serviceName = "resume-service"

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(serviceName, cfg.Server.Environment)
	log.Info().Msg("starting Resume Service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// RabbitMQ is optional
	publisher, rmq, err := app.Messaging(&cfg.RabbitMQ, serviceName, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	if rmq != nil {
		defer rmq.Close()
	}

	uploads, err := storage.NewUploadStore(cfg.Upload.Dir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare upload directory")
	}
	log.Info().Str("dir", uploads.Dir()).Msg("storing uploads")

	components, err := app.Build(ctx, cfg, db, publisher, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize resume ingestion")
	}

	opts := handler.Options{
		Ingest:     components.Ingest,
		Candidates: components.Candidates,
		Exporter:   components.Exporter,
		Uploads:    uploads,
		MaxSize:    cfg.Upload.MaxSize,
	}
	if rmq != nil {
		opts.Queue = publisher
	}
	resumeHandler := handler.NewHandler(opts, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := map[string]any{
			"status":   "healthy",
			"service":  serviceName,
			"database": db.Health(r.Context()),
		}
		if rmq != nil {
			health["rabbitmq"] = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, health)
	})

	resumeHandler.RegisterRoutes(r)

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	cancel()

	// Graceful shutdown; in-flight batches get the full window to finish
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
