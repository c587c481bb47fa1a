// Quillfeed Recsys - Hybrid News Personalization & Recommendation Engine
// Copyright 2026 Quillfeed Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/recsys

// Package worker runs background maintenance under a supervision tree.
package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/quillfeed/recsys/internal/logging"
)

// GCStore is the subset of the store the pruner needs.
type GCStore interface {
	RunGC(discardRatio float64) bool
}

// Sweeper is the subset of the cache the pruner needs.
type Sweeper interface {
	Sweep() int
}

// Pruner periodically sweeps expired cache entries and reclaims store
// disk space. Interaction expiry itself is enforced by storage TTLs;
// the pruner only cleans up after it.
//
// Pruner implements suture.Service.
type Pruner struct {
	store        GCStore
	cache        Sweeper
	interval     time.Duration
	discardRatio float64
	log          zerolog.Logger
}

// NewPruner creates a pruner. store and cache may each be nil when the
// corresponding maintenance is not needed.
func NewPruner(store GCStore, cache Sweeper, interval time.Duration, discardRatio float64) *Pruner {
	return &Pruner{
		store:        store,
		cache:        cache,
		interval:     interval,
		discardRatio: discardRatio,
		log:          logging.Component("pruner"),
	}
}

// Serve runs maintenance cycles until the context is cancelled.
func (p *Pruner) Serve(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.log.Info().Dur("interval", p.interval).Msg("pruner started")

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("pruner stopping")
			return ctx.Err()
		case <-ticker.C:
			p.runOnce()
		}
	}
}

// runOnce performs one maintenance cycle.
func (p *Pruner) runOnce() {
	start := time.Now()

	swept := 0
	if p.cache != nil {
		swept = p.cache.Sweep()
	}

	gcCycles := 0
	if p.store != nil {
		// GC rewrites at most one value log file per call; loop until
		// it reports nothing left to reclaim.
		for p.store.RunGC(p.discardRatio) {
			gcCycles++
			if gcCycles >= 10 {
				break
			}
		}
	}

	p.log.Debug().
		Int("cache_swept", swept).
		Int("gc_cycles", gcCycles).
		Dur("elapsed", time.Since(start)).
		Msg("maintenance cycle complete")
}

func (p *Pruner) String() string {
	return "pruner"
}
