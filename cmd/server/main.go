// Command main is the entry point for the userdata service.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"userdata/internal/config"
	"userdata/internal/kafka"
	"userdata/internal/middleware"
	"userdata/internal/observability"
	"userdata/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level := slog.LevelInfo
	if !cfg.IsProduction() {
		level = slog.LevelDebug
	}
	logger := middleware.NewLogger(os.Stdout, cfg.Env, level)
	middleware.Logger = logger
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName:    "niffler-userdata",
		ServiceVersion: "3.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	srv, err := server.NewServer(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	consumerDone := make(chan struct{})
	if cfg.KafkaEnabled() {
		consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, cfg.KafkaTopic,
			kafka.UsersHandler(srv.UserService(), logger), logger)
		go func() {
			defer close(consumerDone)
			if err := consumer.Run(ctx); err != nil {
				logger.Error("Kafka consumer stopped", slog.String("error", err.Error()))
			}
		}()
	} else {
		close(consumerDone)
		logger.Info("Kafka disabled, users topic is not consumed")
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		<-consumerDone
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", slog.String("error", err.Error()))
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("Tracing shutdown error", slog.String("error", err.Error()))
		}
	}()

	if err := serve(srv.Start, shutdownDone); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	logger.Info("Server stopped")
}

// serve runs start and, once it returns cleanly, blocks until the shutdown
// sequence has closed its resources and flushed traces.
func serve(start func() error, shutdownDone <-chan struct{}) error {
	if err := start(); err != nil {
		return err
	}
	<-shutdownDone
	return nil
}
