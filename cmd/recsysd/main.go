// Quillfeed Recsys - Hybrid News Personalization & Recommendation Engine
// Copyright 2026 Quillfeed Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/recsys

// Command recsysd serves the recommendation engine over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/quillfeed/recsys/internal/api"
	"github.com/quillfeed/recsys/internal/cache"
	"github.com/quillfeed/recsys/internal/config"
	"github.com/quillfeed/recsys/internal/engine"
	"github.com/quillfeed/recsys/internal/enrich"
	"github.com/quillfeed/recsys/internal/logging"
	"github.com/quillfeed/recsys/internal/store"
	"github.com/quillfeed/recsys/internal/worker"
)

func main() {
	configPath := flag.String("config", "recsys.yaml", "path to configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		logging.Error().Err(err).Msg("recsysd exited with error")
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logging.Init(cfg.Logging)
	log := logging.Component("main")

	st, err := store.OpenBadger(cfg.Store.Dir)
	if err != nil {
		return err
	}
	defer st.Close()

	responseCache := cache.NewMemory(cfg.Engine.Cache.TTL)

	var enricher enrich.Enricher
	if cfg.Engine.Enrichment.Enabled && cfg.Server.EnrichURL != "" {
		enricher = enrich.NewHTTPClient(cfg.Server.EnrichURL, cfg.Engine.Enrichment.Timeout)
	}

	eng, err := engine.New(&cfg.Engine, st, responseCache, enricher)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hook := (&sutureslog.Handler{
		Logger: slog.New(slog.NewJSONHandler(os.Stderr, nil)),
	}).MustHook()
	sup := suture.New("recsysd", suture.Spec{EventHook: hook})

	sup.Add(worker.NewPruner(st, responseCache, cfg.Worker.PruneInterval, cfg.Worker.GCDiscardRatio))
	sup.Add(&httpService{
		cfg:     cfg.Server,
		handler: api.NewServer(eng).Router(cfg.Server.RateLimit),
	})

	log.Info().
		Str("addr", cfg.Server.Addr).
		Str("store_dir", cfg.Store.Dir).
		Bool("enrichment", enricher != nil).
		Msg("recsysd starting")

	err = sup.Serve(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info().Msg("recsysd stopped")
		return nil
	}
	return err
}

// httpService runs the HTTP listener as a suture service.
type httpService struct {
	cfg     config.ServerConfig
	handler http.Handler
}

// Serve runs the listener until the context is cancelled, then shuts
// down gracefully within the configured timeout.
func (s *httpService) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (s *httpService) String() string {
	return "http"
}
