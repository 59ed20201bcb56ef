package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/roomcraft/roomcraft/internal/config"
	"github.com/roomcraft/roomcraft/internal/queue"
	"github.com/roomcraft/roomcraft/internal/telemetry"
)

func main() {
	cfg := config.Load()

	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	}

	jsonHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(telemetry.NewTraceHandler(jsonHandler))
	slog.SetDefault(logger)

	shutdownTracing, err := telemetry.Setup(context.Background(), cfg.ServiceName+"-worker", cfg.OTLPEndpoint)
	if err != nil {
		logger.Error("Failed to set up tracing", slog.String("err", err.Error()))
		os.Exit(1)
	}

	logger.Info("Starting in WORKER mode...")

	worker, err := queue.NewWorker(cfg, logger)
	if err != nil {
		logger.Error("Failed to create worker", slog.String("err", err.Error()))
		os.Exit(1)
	}

	// Start worker in goroutine
	go func() {
		logger.Info("Starting Asynq worker...")
		if err := worker.Start(); err != nil {
			logger.Error("Worker error", slog.String("err", err.Error()))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	worker.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(ctx); err != nil {
		logger.Error("Tracer shutdown error", slog.String("err", err.Error()))
	}
	logger.Info("Worker exited properly")
}
