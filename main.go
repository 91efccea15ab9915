package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"repoinsight/packages/config"
	"repoinsight/packages/handlers"
	"repoinsight/packages/repository"
	"repoinsight/packages/summarizer"
)

const (
	serverReadTimeout      = 10 * time.Second
	serverIdleTimeout      = 60 * time.Second
	defaultGracefulTimeout = 30 * time.Second
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Configuration error", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	summarizerClient, err := summarizer.NewClient(ctx, cfg)
	if err != nil {
		slog.Error("Failed to create summarizer client", "error", err)
		os.Exit(1)
	}
	defer summarizerClient.Close()

	fetcher := repository.NewFetcher(cfg)

	handler := handlers.NewHandler(fetcher, summarizerClient)
	router := handlers.NewRouter(handler)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     router,
		ReadTimeout: serverReadTimeout,
		IdleTimeout: serverIdleTimeout,
		// No write timeout: one analyze request makes many sequential
		// upstream LLM calls and can legitimately run for minutes.
	}

	go func() {
		slog.Info("Server listening", "addr", server.Addr,
			"fileModel", cfg.FileModel, "projectModel", cfg.ProjectModel)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server shutdown complete")
}
