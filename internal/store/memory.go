// Quillfeed Recsys - Hybrid News Personalization & Recommendation Engine
// Copyright 2026 Quillfeed Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/recsys

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/quillfeed/recsys/internal/recsys"
)

// MemoryStore is an in-memory PreferenceStore for tests and local runs.
type MemoryStore struct {
	mu           sync.RWMutex
	profiles     map[string]recsys.UserProfile
	interactions map[string][]recsys.Interaction
}

var _ PreferenceStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:     make(map[string]recsys.UserProfile),
		interactions: make(map[string][]recsys.Interaction),
	}
}

// GetUserProfile fetches a profile by user ID.
func (s *MemoryStore) GetUserProfile(ctx context.Context, userID string) (*recsys.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := p
	cp.Behavior.CategoryWeights = p.Behavior.CategoryWeights.Clone()
	cp.Behavior.CategoryWeights.Clamp()
	cp.Behavior.TimePreferences = p.Behavior.TimePreferences.Clone()
	return &cp, nil
}

// UpsertProfile creates or replaces a profile.
func (s *MemoryStore) UpsertProfile(ctx context.Context, profile *recsys.UserProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if profile == nil || profile.ID == "" {
		return fmt.Errorf("upsert profile: missing user ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *profile
	cp.Behavior.CategoryWeights = profile.Behavior.CategoryWeights.Clone()
	cp.Behavior.TimePreferences = profile.Behavior.TimePreferences.Clone()
	s.profiles[profile.ID] = cp
	return nil
}

// GetInteractions returns up to limit most-recent interactions, newest
// first.
func (s *MemoryStore) GetInteractions(ctx context.Context, userID string, limit int) ([]recsys.Interaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []recsys.Interaction{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.interactions[userID]
	sorted := make([]recsys.Interaction, len(all))
	copy(sorted, all)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

// AppendInteraction records one interaction.
func (s *MemoryStore) AppendInteraction(ctx context.Context, interaction *recsys.Interaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if interaction == nil || interaction.UserID == "" {
		return fmt.Errorf("append interaction: missing user ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.interactions[interaction.UserID] = append(s.interactions[interaction.UserID], *interaction)
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
