// Quillfeed Recsys - Hybrid News Personalization & Recommendation Engine
// Copyright 2026 Quillfeed Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/recsys

// Package cache holds recently computed recommendation responses.
//
// Entries are keyed per user and expire after a TTL; any new
// interaction for a user invalidates their entry immediately, since a
// response computed before the interaction no longer reflects their
// preferences.
package cache

import (
	"sync"
	"time"

	"github.com/quillfeed/recsys/internal/recsys"
)

// RecommendationCache stores computed responses per user.
type RecommendationCache interface {
	// Get returns the cached response for a user, or false when absent
	// or expired.
	Get(userID string) (*recsys.Response, bool)

	// Set stores a response for a user.
	Set(userID string, response *recsys.Response)

	// Invalidate drops the entry for a user. Unknown users are a no-op.
	Invalidate(userID string)

	// Sweep removes expired entries and returns how many were dropped.
	Sweep() int
}

type entry struct {
	response  recsys.Response
	expiresAt time.Time
}

// Memory is an in-process TTL cache.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	clock   func() time.Time
}

var _ RecommendationCache = (*Memory)(nil)

// NewMemory creates a cache with the given TTL.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		entries: make(map[string]entry),
		ttl:     ttl,
		clock:   time.Now,
	}
}

// Get returns the cached response for a user if it has not expired.
func (c *Memory) Get(userID string) (*recsys.Response, bool) {
	c.mu.RLock()
	e, ok := c.entries[userID]
	c.mu.RUnlock()

	if !ok || c.clock().After(e.expiresAt) {
		return nil, false
	}

	cp := e.response
	return &cp, true
}

// Set stores a response for a user.
func (c *Memory) Set(userID string, response *recsys.Response) {
	if response == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = entry{
		response:  *response,
		expiresAt: c.clock().Add(c.ttl),
	}
}

// Invalidate drops the entry for a user.
func (c *Memory) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}

// Sweep removes expired entries.
func (c *Memory) Sweep() int {
	now := c.clock()

	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for userID, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, userID)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of entries, expired ones included.
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
