// Quillfeed Recsys - Hybrid News Personalization & Recommendation Engine
// Copyright 2026 Quillfeed Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/recsys

package scorers

import (
	"context"
	"fmt"

	"github.com/quillfeed/recsys/internal/recsys"
)

// ContentBased scores an article by the similarity between the user's
// learned category preference vector and the article's category.
//
// The score blends cosine similarity of the preference vector against
// a one-hot category vector with a direct preference lookup:
//
//	score = 0.7 * cosine(prefVec, oneHot(category)) + 0.3 * pref[category]
//
// An embedding-based variant (text embedding cosine instead of one-hot)
// is an allowed internal substitution; the contract stays the same.
type ContentBased struct {
	// CosineWeight and LookupWeight blend the two signals. Defaults
	// 0.7/0.3 are applied when both are zero.
	CosineWeight float64
	LookupWeight float64
}

// NewContentBased creates a new content-based scorer.
func NewContentBased() *ContentBased {
	return &ContentBased{CosineWeight: 0.7, LookupWeight: 0.3}
}

// Name returns the pipeline identifier.
func (c *ContentBased) Name() string {
	return string(recsys.PipelineContent)
}

// Score rates an article against the user's category preferences.
// Users without a profile fall back to the neutral score.
func (c *ContentBased) Score(ctx context.Context, user *recsys.UserContext, article *recsys.Article) (recsys.ScoreResult, error) {
	if contextCancelled(ctx) {
		return recsys.ScoreResult{}, ctx.Err()
	}

	if user == nil || user.Profile == nil || article == nil {
		return recsys.ScoreResult{
			Score:  neutralScore,
			Reason: "no preference profile yet",
		}, nil
	}

	cosW, lookW := c.CosineWeight, c.LookupWeight
	if cosW == 0 && lookW == 0 {
		cosW, lookW = 0.7, 0.3
	}

	weights := user.Profile.Behavior.CategoryWeights
	prefVec := preferenceVector(weights)
	catVec := oneHotCategory(article.Category)

	cos := cosineSimilarity(prefVec, catVec)
	direct := weights.Get(article.Category)

	score := recsys.Clamp01(cosW*cos + lookW*direct)

	reason := fmt.Sprintf("matches your interest in %s", article.Category)
	if direct <= 0.1 {
		reason = "expands on topics near your interests"
	}

	return recsys.ScoreResult{Score: score, Reason: reason}, nil
}
