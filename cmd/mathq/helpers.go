package main

import (
	"context"
	"fmt"
	"io"

	"github.com/Veraticus/mathq/internal/api"
	"github.com/Veraticus/mathq/internal/config"
	"github.com/Veraticus/mathq/internal/ocr"
	"github.com/Veraticus/mathq/internal/session"
	"github.com/Veraticus/mathq/internal/storage"
	"github.com/Veraticus/mathq/internal/telemetry"
	"github.com/spf13/viper"
)

// telemetryShutdown flushes the exporter started by startTelemetry.
var telemetryShutdown func(context.Context) error

// loadConfig reads the typed configuration from viper.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// startTelemetry installs the tracer provider. Spans go to w unless an
// OTLP endpoint is configured.
func startTelemetry(ctx context.Context, cfg config.Config, w io.Writer) error {
	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		Writer:         w,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Enabled:        cfg.Telemetry.Enabled,
	})
	if err != nil {
		return fmt.Errorf("failed to start telemetry: %w", err)
	}
	telemetryShutdown = shutdown
	return nil
}

func shutdownTelemetry(ctx context.Context) error {
	if telemetryShutdown == nil {
		return nil
	}
	shutdown := telemetryShutdown
	telemetryShutdown = nil
	return shutdown(context.WithoutCancel(ctx))
}

func newClient(cfg config.Config) (*api.Client, error) {
	client, err := api.New(api.Config{
		BaseURL: cfg.API.URL,
		Timeout: cfg.API.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return client, nil
}

// newSession wires a session to the backend and the configured OCR engine.
// history may be nil.
func newSession(ctx context.Context, cfg config.Config, history session.HistoryRecorder) (*session.Session, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}

	recognizer, err := ocr.NewRecognizer(cfg.Recognizer())
	if err != nil {
		return nil, fmt.Errorf("failed to create recognizer: %w", err)
	}

	s, err := session.New(session.Config{
		Context:       ctx,
		Backend:       client,
		Recognizer:    recognizer,
		History:       history,
		OCROptions:    cfg.OCROptions(),
		Difficulty:    cfg.Query.Difficulty,
		MaxImageBytes: cfg.Image.MaxBytes,
		QueryTimeout:  cfg.Query.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return s, nil
}

// openHistory opens the in-memory session history.
func openHistory(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(storage.MemoryPath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}
