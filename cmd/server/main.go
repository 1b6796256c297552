package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"guiderag/internal/ai"
	"guiderag/internal/align"
	"guiderag/internal/api"
	"guiderag/internal/config"
	"guiderag/internal/guide"
	"guiderag/internal/ingest"
	"guiderag/internal/retrieval"
	"guiderag/internal/vectorstore"
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

	// Initialize clients.
	guides := guide.NewClient(cfg.SiteURL, cfg.SiteAppID)
	store := vectorstore.NewClient(vectorstore.Config{
		URL:        cfg.QdrantURL,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.QdrantCollection,
	})
	provider, err := ai.NewProvider(ai.Config{
		BaseURL:        cfg.ProviderBaseURL,
		APIKey:         cfg.ProviderAPIKey,
		EmbeddingModel: cfg.EmbeddingModel,
		ChatModel:      cfg.ChatModel,
		Dimensions:     cfg.EmbeddingDimensions,
	})
	if err != nil {
		log.Error("provider setup failed", "error", err)
		os.Exit(1)
	}

	if err := store.EnsureCollection(ctx, provider.Dimensions()); err != nil {
		log.Error("collection setup failed", "error", err)
		os.Exit(1)
	}

	// Initialize pipeline.
	engine := align.New(align.Splitter{ChunkSize: cfg.ChunkSize, Overlap: cfg.ChunkOverlap})
	ingester := ingest.NewIngester(guides, provider, store, engine, log)
	manager := ingest.NewManager(guides, ingester, log, cfg.ProgressTTL)
	manager.StartCleanup(ctx, 5*time.Minute)
	throttle := ingest.NewThrottle()

	queries := retrieval.NewService(provider, store, provider, guides, log)

	// Initialize HTTP server.
	srv := api.NewServer(queries, ingester, manager, throttle, guides, store, log, cfg)

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

		manager.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		guides.Close()
		store.Close()
	}()

	log.Info("starting server", "port", cfg.Port, "site", cfg.SiteID)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
