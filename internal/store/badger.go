// Quillfeed Recsys - Hybrid News Personalization & Recommendation Engine
// Copyright 2026 Quillfeed Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/recsys

package store

import (
	"context"
	"fmt"
	"math"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quillfeed/recsys/internal/logging"
	"github.com/quillfeed/recsys/internal/recsys"
)

const (
	profilePrefix     = "profile:"
	interactionPrefix = "ia:"

	// defaultRetention ages interactions out after a year.
	defaultRetention = 365 * 24 * time.Hour
)

// BadgerStore is a PreferenceStore on an embedded badger database.
// Interactions carry a TTL so the retention policy enforces itself on
// read; the pruning worker only reclaims disk.
type BadgerStore struct {
	db        *badger.DB
	retention time.Duration
	log       zerolog.Logger
}

var _ PreferenceStore = (*BadgerStore)(nil)

// OpenBadger opens (or creates) a badger-backed store at dir. An empty
// dir opens an in-memory database, used in tests.
func OpenBadger(dir string) (*BadgerStore, error) {
	log := logging.Component("store")

	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", dir, err)
	}

	return &BadgerStore{db: db, retention: defaultRetention, log: log}, nil
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func profileKey(userID string) []byte {
	return []byte(profilePrefix + userID)
}

// interactionKey orders entries newest-first under the user prefix by
// embedding an inverted timestamp.
func interactionKey(userID string, ts time.Time) []byte {
	reverse := uint64(math.MaxInt64) - uint64(ts.UnixNano())
	return []byte(fmt.Sprintf("%s%s:%020d:%s", interactionPrefix, userID, reverse, uuid.NewString()))
}

// GetUserProfile fetches a profile by user ID.
func (s *BadgerStore) GetUserProfile(ctx context.Context, userID string) (*recsys.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var profile recsys.UserProfile
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(profileKey(userID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &profile)
		})
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile %q: %w", userID, err)
	}

	// Stored state may predate a weight clamp fix; sanitize at the read
	// boundary.
	profile.Behavior.CategoryWeights.Clamp()
	return &profile, nil
}

// UpsertProfile creates or replaces a profile.
func (s *BadgerStore) UpsertProfile(ctx context.Context, profile *recsys.UserProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if profile == nil || profile.ID == "" {
		return fmt.Errorf("upsert profile: missing user ID")
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile %q: %w", profile.ID, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(profileKey(profile.ID), data)
	})
	if err != nil {
		return fmt.Errorf("upsert profile %q: %w", profile.ID, err)
	}
	return nil
}

// GetInteractions returns up to limit most-recent interactions for a
// user, newest first.
func (s *BadgerStore) GetInteractions(ctx context.Context, userID string, limit int) ([]recsys.Interaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []recsys.Interaction{}, nil
	}

	prefix := []byte(interactionPrefix + userID + ":")
	out := make([]recsys.Interaction, 0, limit)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix) && len(out) < limit; it.Next() {
			var in recsys.Interaction
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &in)
			})
			if err != nil {
				// A single corrupt record must not take history reads
				// down with it.
				s.log.Warn().Err(err).Str("user_id", userID).Msg("skipping unreadable interaction")
				continue
			}
			out = append(out, in)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get interactions for %q: %w", userID, err)
	}
	return out, nil
}

// AppendInteraction records one interaction with the retention TTL.
func (s *BadgerStore) AppendInteraction(ctx context.Context, interaction *recsys.Interaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if interaction == nil || interaction.UserID == "" {
		return fmt.Errorf("append interaction: missing user ID")
	}

	ts := interaction.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	data, err := json.Marshal(interaction)
	if err != nil {
		return fmt.Errorf("marshal interaction: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(interactionKey(interaction.UserID, ts), data).
			WithTTL(s.retention)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("append interaction for %q: %w", interaction.UserID, err)
	}
	return nil
}

// RunGC runs one value-log garbage collection cycle. Returns true when
// a log file was rewritten and another cycle may be worthwhile.
func (s *BadgerStore) RunGC(discardRatio float64) bool {
	err := s.db.RunValueLogGC(discardRatio)
	if err != nil && err != badger.ErrNoRewrite {
		s.log.Warn().Err(err).Msg("value log GC failed")
	}
	return err == nil
}
