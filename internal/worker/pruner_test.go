// Quillfeed Recsys - Hybrid News Personalization & Recommendation Engine
// Copyright 2026 Quillfeed Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/recsys

package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeStore struct {
	calls   atomic.Int32
	rewrite int32 // how many calls report a rewrite
}

func (f *fakeStore) RunGC(float64) bool {
	n := f.calls.Add(1)
	return n <= f.rewrite
}

type fakeCache struct {
	sweeps atomic.Int32
}

func (f *fakeCache) Sweep() int {
	f.sweeps.Add(1)
	return 3
}

func TestPrunerRunOnce(t *testing.T) {
	st := &fakeStore{rewrite: 2}
	ch := &fakeCache{}
	p := NewPruner(st, ch, time.Hour, 0.5)

	p.runOnce()

	if got := ch.sweeps.Load(); got != 1 {
		t.Errorf("cache sweeps = %d, want 1", got)
	}
	// Two rewrites plus the terminating no-rewrite call.
	if got := st.calls.Load(); got != 3 {
		t.Errorf("GC calls = %d, want 3", got)
	}
}

func TestPrunerGCLoopBounded(t *testing.T) {
	st := &fakeStore{rewrite: 1 << 20} // always reports a rewrite
	p := NewPruner(st, nil, time.Hour, 0.5)

	p.runOnce()

	if got := st.calls.Load(); got != 10 {
		t.Errorf("GC calls = %d, want bounded at 10", got)
	}
}

func TestPrunerNilDependencies(t *testing.T) {
	p := NewPruner(nil, nil, time.Hour, 0.5)
	p.runOnce() // must not panic
}

func TestPrunerServeStopsOnCancel(t *testing.T) {
	p := NewPruner(&fakeStore{}, &fakeCache{}, 10*time.Millisecond, 0.5)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Serve(ctx) }()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve() did not stop after cancel")
	}
}

func TestPrunerTicks(t *testing.T) {
	ch := &fakeCache{}
	p := NewPruner(nil, ch, 10*time.Millisecond, 0.5)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	_ = p.Serve(ctx)

	if ch.sweeps.Load() == 0 {
		t.Error("expected at least one sweep over several ticks")
	}
}
