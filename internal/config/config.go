// Quillfeed Recsys - Hybrid News Personalization & Recommendation Engine
// Copyright 2026 Quillfeed Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/recsys

// Package config loads the daemon configuration from defaults, an
// optional YAML file and RECSYS_-prefixed environment variables, in
// that order of precedence (later wins).
package config

import (
	"fmt"
	"time"

	"github.com/quillfeed/recsys/internal/logging"
	"github.com/quillfeed/recsys/internal/recsys"
)

// Config is the full daemon configuration.
type Config struct {
	Server  ServerConfig   `koanf:"server"`
	Store   StoreConfig    `koanf:"store"`
	Logging logging.Config `koanf:"logging"`
	Engine  recsys.Config  `koanf:"engine"`
	Worker  WorkerConfig   `koanf:"worker"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Addr is the listen address, host:port.
	Addr string `koanf:"addr"`

	// ReadTimeout bounds reading a full request.
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout bounds writing a full response.
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RateLimit is the per-client request budget per minute.
	RateLimit int `koanf:"rate_limit"`

	// EnrichURL points at the external reason-generation service.
	// Empty keeps the template fallback.
	EnrichURL string `koanf:"enrich_url"`
}

// StoreConfig configures the embedded database.
type StoreConfig struct {
	// Dir is the badger data directory. Empty runs in memory.
	Dir string `koanf:"dir"`
}

// WorkerConfig configures background maintenance.
type WorkerConfig struct {
	// PruneInterval is how often the retention pruner runs.
	PruneInterval time.Duration `koanf:"prune_interval"`

	// GCDiscardRatio is the badger value-log GC threshold.
	GCDiscardRatio float64 `koanf:"gc_discard_ratio"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RateLimit:       300,
		},
		Store: StoreConfig{
			Dir: "data/recsys",
		},
		Logging: logging.DefaultConfig(),
		Engine:  *recsys.DefaultConfig(),
		Worker: WorkerConfig{
			PruneInterval:  time.Hour,
			GCDiscardRatio: 0.5,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.RateLimit < 1 {
		return fmt.Errorf("server.rate_limit must be positive, got %d", c.Server.RateLimit)
	}
	if c.Worker.PruneInterval <= 0 {
		return fmt.Errorf("worker.prune_interval must be positive, got %v", c.Worker.PruneInterval)
	}
	if c.Worker.GCDiscardRatio <= 0 || c.Worker.GCDiscardRatio >= 1 {
		return fmt.Errorf("worker.gc_discard_ratio must be in (0, 1), got %f", c.Worker.GCDiscardRatio)
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	return nil
}
