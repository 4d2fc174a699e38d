package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/examforge/examforge/internal/config"
	"github.com/examforge/examforge/internal/database"
	"github.com/examforge/examforge/internal/generator"
	"github.com/examforge/examforge/internal/handler"
	"github.com/examforge/examforge/internal/ledger"
	"github.com/examforge/examforge/internal/metrics"
	"github.com/examforge/examforge/internal/model"
	"github.com/examforge/examforge/internal/orchestrator"
	"github.com/examforge/examforge/internal/planner"
	"github.com/examforge/examforge/internal/policy"
	"github.com/examforge/examforge/internal/pool"
	"github.com/examforge/examforge/pkg/middleware"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	config.InitLogger(cfg)

	slog.Info("Starting ExamForge generation service", "version", version)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage-backed collaborators
	var (
		db        *database.MongoDB
		usage     ledger.Ledger
		questions pool.Source
	)

	switch cfg.StorageBackend {
	case "memory":
		slog.Warn("Using in-memory storage, counters will not survive restarts")
		usage = ledger.NewMemoryLedger()
		questions = pool.NewMemoryPool()
	default:
		var err error
		db, err = database.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoTimeout)
		if err != nil {
			slog.Error("Failed to connect to MongoDB", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := db.Disconnect(context.Background()); err != nil {
				slog.Error("Failed to disconnect from MongoDB", "error", err)
			}
		}()

		if err := database.CreateIndexes(ctx, db); err != nil {
			slog.Error("Failed to create indexes", "error", err)
			os.Exit(1)
		}

		usage = ledger.NewMongoLedger(db)
		questions = pool.NewMongoPool(db)
	}

	// Initialize role policy with configured cap overrides
	rolePolicy := policy.New(
		applyCapOverrides(policy.DefaultFreeCaps(), cfg.FreeCaps),
		applyCapOverrides(policy.DefaultPremiumCaps(), cfg.PremiumCaps),
	)

	// Initialize generation client
	genClient := generator.NewClient(generator.ClientConfig{
		Endpoint:      cfg.GenerationURL,
		APIKey:        cfg.GenerationAPIKey,
		Timeout:       cfg.GenerationTimeout,
		QuestionsPath: cfg.GenerationQuestionsPath,
	})

	// Initialize planner and orchestrator
	sectionPlanner := planner.New(rolePolicy, usage, questions, genClient, planner.Options{
		RetryDelay:          cfg.GenerationRetryDelay,
		QuestionsPerPassage: cfg.ReadingQuestionsPerPassage,
	})

	collector := metrics.NewCollector()
	jobStore := orchestrator.NewJobStore()
	orch := orchestrator.New(jobStore, sectionPlanner, rolePolicy, usage, collector)

	// Start job retention sweeper
	sweeper := orchestrator.NewSweeper(jobStore, cfg.JobRetention, cfg.GCSchedule)
	if err := sweeper.Start(); err != nil {
		slog.Error("Failed to start retention sweeper", "error", err)
		os.Exit(1)
	}

	// Initialize handlers
	jobHandler := handler.NewJobHandler(orch)
	healthHandler := handler.NewHealthHandler(db, version)

	// Create CORS config
	corsConfig := middleware.CORSConfig{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   cfg.CORSAllowedMethods,
		AllowedHeaders:   cfg.CORSAllowedHeaders,
		AllowCredentials: cfg.CORSAllowCredentials,
		MaxAge:           cfg.CORSMaxAge,
	}

	// Create router
	router := handler.NewRouter(jobHandler, healthHandler, collector.Handler(), corsConfig)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Handler(),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	// Start server in goroutine
	go func() {
		slog.Info("Starting HTTP server", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	slog.Info("Received shutdown signal, initiating graceful shutdown")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Shutdown HTTP server first so no new jobs arrive
	slog.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Wait for in-flight jobs
	slog.Info("Waiting for in-flight jobs...")
	orch.Shutdown(shutdownCtx)

	// Stop retention sweeper
	sweeper.Stop(shutdownCtx)

	slog.Info("ExamForge generation service stopped")
}

// applyCapOverrides merges env-configured per-section caps over defaults
func applyCapOverrides(defaults policy.Caps, overrides map[string]int) policy.Caps {
	for section, value := range overrides {
		defaults[model.Section(section)] = value
	}
	return defaults
}
