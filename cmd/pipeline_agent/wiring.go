package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/narendersurabhi/agents-event-driven/internal/bus"
	"github.com/narendersurabhi/agents-event-driven/internal/config"
	"github.com/narendersurabhi/agents-event-driven/internal/store"
)

// loadAgentConfig resolves the effective configuration: CLI config file
// values win over environment variables.
func loadAgentConfig() (*config.Config, error) {
	cfg := config.FromEnv()
	if configPath != "" {
		fileCfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg.MergeWithDefaults(cfg)
	}
	if verbose {
		cfg.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// buildBus creates the configured event bus backend.
func buildBus(cfg *config.Config) (bus.Bus, error) {
	switch cfg.Bus {
	case "", config.BusMemory:
		return bus.NewInMemoryBus(), nil
	case config.BusNATS:
		b, err := bus.NewNATSBus(cfg.NATSURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATSURL, err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown bus backend %q", cfg.Bus)
	}
}

// buildStore creates the configured snapshot store backend. The returned
// cleanup releases any held connections.
func buildStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	switch cfg.Store {
	case "", config.StoreMemory:
		return store.NewMemoryStore(), func() {}, nil
	case config.StoreFile:
		dir := cfg.StoreDir
		if dir == "" {
			dir = "snapshots"
		}
		s, err := store.NewFileStore(dir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open snapshot directory %s: %w", dir, err)
		}
		return s, func() {}, nil
	case config.StorePostgres:
		s, err := store.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := s.EnsureSchema(ctx); err != nil {
			s.Close()
			return nil, nil, fmt.Errorf("failed to ensure schema: %w", err)
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store)
	}
}

func requireAPIKey(cfg *config.Config) (string, error) {
	if cfg.APIKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}
	return cfg.APIKey, nil
}
