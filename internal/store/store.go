// Quillfeed Recsys - Hybrid News Personalization & Recommendation Engine
// Copyright 2026 Quillfeed Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/recsys

// Package store persists user profiles and interaction history.
package store

import (
	"context"
	"errors"

	"github.com/quillfeed/recsys/internal/recsys"
)

// ErrNotFound is returned when a profile does not exist. Missing
// interaction history is not an error; it reads as empty.
var ErrNotFound = errors.New("store: not found")

// PreferenceStore is the durable home of user profiles and their
// append-only interaction history.
type PreferenceStore interface {
	// GetUserProfile fetches a profile by user ID. Returns ErrNotFound
	// for unknown users.
	GetUserProfile(ctx context.Context, userID string) (*recsys.UserProfile, error)

	// UpsertProfile creates or replaces a profile.
	UpsertProfile(ctx context.Context, profile *recsys.UserProfile) error

	// GetInteractions returns up to limit most-recent interactions for a
	// user, newest first. Unknown users yield an empty slice, not an
	// error.
	GetInteractions(ctx context.Context, userID string, limit int) ([]recsys.Interaction, error)

	// AppendInteraction records one interaction. History is append-only;
	// entries age out by retention policy, never by update.
	AppendInteraction(ctx context.Context, interaction *recsys.Interaction) error

	// Close releases underlying resources.
	Close() error
}
