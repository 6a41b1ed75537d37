package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ppb-analytics/ppbtree/internal/api"
	"github.com/ppb-analytics/ppbtree/internal/config"
	"github.com/ppb-analytics/ppbtree/internal/docstore"
	"github.com/ppb-analytics/ppbtree/internal/entities"
	"github.com/ppb-analytics/ppbtree/internal/pipeline"
	"github.com/ppb-analytics/ppbtree/internal/relevance"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := docstore.Open(filepath.Join(cfg.DataDir, "documents"))
	if err != nil {
		log.Error("failed to open document store", "error", err)
		os.Exit(1)
	}

	sectionToEntity, err := entities.LoadSectionMapping(cfg.SectionMappingPath)
	if err != nil {
		log.Error("failed to load section mapping", "path", cfg.SectionMappingPath, "error", err)
		os.Exit(1)
	}
	abbreviations, err := entities.LoadAbbreviations(cfg.AbbreviationsPath)
	if err != nil {
		log.Error("failed to load abbreviations", "path", cfg.AbbreviationsPath, "error", err)
		os.Exit(1)
	}

	orch := pipeline.NewOrchestrator(store, log, pipeline.Options{
		WorkerCount:     cfg.WorkerCount,
		MaxQueueSize:    cfg.MaxQueueSize,
		JobTTL:          cfg.JobTTL,
		SectionToEntity: sectionToEntity,
		Abbreviations:   abbreviations,
	})
	orch.Start(ctx)

	// Relevance scoring is optional; without an Anthropic key the
	// endpoint reports unavailable.
	var (
		client *relevance.Client
		scorer *relevance.Runner
		stats  *relevance.Stats
	)
	if cfg.RelevanceEnabled() {
		client = relevance.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		stats = relevance.NewStats(0)
		scorer = relevance.NewRunner(client, stats, log, cfg.MaxConcurrentScore)
	}

	srv := api.NewServer(orch, store, scorer, stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if client != nil {
			client.Close()
		}
	}()

	log.Info("starting ppbtree", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
