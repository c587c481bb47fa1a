// Quillfeed Recsys - Hybrid News Personalization & Recommendation Engine
// Copyright 2026 Quillfeed Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/recsys

package scorers

import (
	"context"

	"github.com/quillfeed/recsys/internal/recsys"
)

// Collaborative approximates "users with similar interaction patterns
// liked this" without maintaining a full user-user similarity matrix.
//
// The score is a neutral base boosted by the breadth of the user's own
// interaction history:
//
//	score = 0.5 + min(distinctArticles/10, 1) * 0.3
//
// This is an intentionally crude proxy for matrix factorization. A
// real deployment can replace the boost term with a precomputed
// item-item or user-user similarity lookup without changing the
// Scorer contract.
type Collaborative struct{}

// NewCollaborative creates a new collaborative scorer.
func NewCollaborative() *Collaborative {
	return &Collaborative{}
}

// Name returns the pipeline identifier.
func (c *Collaborative) Name() string {
	return string(recsys.PipelineCollaborative)
}

// Score rates an article by collaborative signal strength. Users with
// no interaction data get the neutral score.
func (c *Collaborative) Score(ctx context.Context, user *recsys.UserContext, article *recsys.Article) (recsys.ScoreResult, error) {
	if contextCancelled(ctx) {
		return recsys.ScoreResult{}, ctx.Err()
	}

	if user == nil || len(user.Interactions) == 0 {
		return recsys.ScoreResult{
			Score:  neutralScore,
			Reason: "no interaction history yet",
		}, nil
	}

	distinct := make(map[string]struct{}, len(user.Interactions))
	for _, inter := range user.Interactions {
		if inter.ArticleID != "" {
			distinct[inter.ArticleID] = struct{}{}
		}
	}

	breadth := float64(len(distinct)) / 10.0
	if breadth > 1 {
		breadth = 1
	}

	return recsys.ScoreResult{
		Score:  recsys.Clamp01(neutralScore + breadth*0.3),
		Reason: "popular with readers like you",
	}, nil
}
