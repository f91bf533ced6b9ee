package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thesmithmode/Book-Summarizer-by-Gemini/internal/api"
	"github.com/thesmithmode/Book-Summarizer-by-Gemini/internal/config"
	"github.com/thesmithmode/Book-Summarizer-by-Gemini/internal/history"
	"github.com/thesmithmode/Book-Summarizer-by-Gemini/internal/llm"
	"github.com/thesmithmode/Book-Summarizer-by-Gemini/internal/pipeline"
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

	hist, err := history.Open(cfg.HistoryPath)
	if err != nil {
		log.Error("failed to open run history", "path", cfg.HistoryPath, "error", err)
		os.Exit(1)
	}

	gemini := llm.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.RequestsPerSecond)

	orch := pipeline.NewOrchestrator(cfg, gemini, hist, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, gemini, log, cfg)

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

		gemini.Close()
	}()

	log.Info("starting summarizer", "port", cfg.Port, "model", cfg.GeminiModel)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
