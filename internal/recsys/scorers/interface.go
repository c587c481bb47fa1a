// Quillfeed Recsys - Hybrid News Personalization & Recommendation Engine
// Copyright 2026 Quillfeed Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/recsys

// Package scorers implements the individual scoring pipelines for the
// hybrid engine.
//
//   - Collaborative: approximates "similar users liked this"
//   - Content-based: preference vector vs. article category similarity
//   - Demographic: table-driven age/profession/location affinities
//
// # Contract
//
// Every scorer returns a score in [0,1] plus a reason string. Missing
// data is never an error: scorers fall back to a neutral score so the
// blender always has a full set of sub-scores to work with.
//
// # Thread safety
//
// Scorers are stateless and safe for concurrent use; all user state
// arrives through the UserContext argument.
package scorers

import (
	"context"
	"math"

	"github.com/quillfeed/recsys/internal/recsys"
)

// Scorer is the interface all scoring pipelines implement.
type Scorer interface {
	// Name returns the pipeline identifier ("collaborative", "content",
	// "demographic").
	Name() string

	// Score rates a single candidate article for a user. The returned
	// score is always in [0,1]; missing data yields a neutral score,
	// never an error. The error return is reserved for context
	// cancellation.
	Score(ctx context.Context, user *recsys.UserContext, article *recsys.Article) (recsys.ScoreResult, error)
}

// neutralScore is returned when a pipeline has nothing to say about a
// (user, article) pair.
const neutralScore = 0.5

// cosineSimilarity computes cosine similarity between two vectors.
// Zero-magnitude vectors yield exactly 0, never NaN.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// preferenceVector builds the user's category preference vector over
// the canonical category set. Unseen categories default to 0.1.
func preferenceVector(weights recsys.CategoryWeights) []float64 {
	vec := make([]float64, len(recsys.Categories))
	for i, c := range recsys.Categories {
		vec[i] = weights.Get(c)
	}
	return vec
}

// oneHotCategory builds a one-hot vector for an article category.
// Unknown categories produce a zero vector.
func oneHotCategory(category string) []float64 {
	vec := make([]float64, len(recsys.Categories))
	if i := recsys.CategoryIndex(category); i >= 0 {
		vec[i] = 1
	}
	return vec
}

// contextCancelled checks if the context has been canceled.
func contextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// Ensure all scorers implement the interface.
var (
	_ Scorer = (*Collaborative)(nil)
	_ Scorer = (*ContentBased)(nil)
	_ Scorer = (*Demographic)(nil)
)
