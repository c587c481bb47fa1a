// Quillfeed Recsys - Hybrid News Personalization & Recommendation Engine
// Copyright 2026 Quillfeed Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/recsys

// Package blend combines per-pipeline scores into a final ranked list.
//
// The blender is a pure function of its inputs: identical inputs
// produce identical ordering and scores. All state (selected-category
// counts, decay clock) is threaded through arguments.
package blend

import (
	"math"
	"sort"
	"time"

	"github.com/quillfeed/recsys/internal/recsys"
)

// Input pairs a candidate article with its per-pipeline scores.
type Input struct {
	Article       recsys.Article
	Collaborative recsys.ScoreResult
	Content       recsys.ScoreResult
	Demographic   recsys.ScoreResult
}

// Blender combines pipeline scores with freshness decay and a
// category diversity penalty.
type Blender struct {
	weights    recsys.PipelineWeights
	lambda     float64
	perItem    float64
	maxPenalty float64
}

// New creates a blender from engine configuration.
func New(weights recsys.PipelineWeights, decay recsys.DecayConfig, diversity recsys.DiversityConfig) *Blender {
	return &Blender{
		weights:    weights.Normalize(),
		lambda:     decay.Lambda,
		perItem:    diversity.PenaltyPerItem,
		maxPenalty: diversity.MaxPenalty,
	}
}

// Blend ranks candidates by the weighted pipeline combination, decayed
// by article age and penalized for category repetition. recentCounts
// carries categories of recently served articles so the penalty also
// discounts topics the user just saw; it may be nil.
//
// Selection is greedy: the penalty for a candidate grows as articles
// of the same category are picked, which naturally interleaves topics.
// Ties break toward the more recently published article.
func (b *Blender) Blend(inputs []Input, limit int, now time.Time, recentCounts map[string]int) []recsys.RecommendationScore {
	if len(inputs) == 0 || limit <= 0 {
		return []recsys.RecommendationScore{}
	}

	type candidate struct {
		input   recsys.RecommendationScore
		article recsys.Article
		base    float64
	}

	candidates := make([]candidate, 0, len(inputs))
	for i := range inputs {
		in := &inputs[i]
		composite := b.weights.Collaborative*in.Collaborative.Score +
			b.weights.Content*in.Content.Score +
			b.weights.Demographic*in.Demographic.Score

		age := now.Sub(in.Article.PublishedAt).Hours()
		base := recsys.Clamp01(composite) * recsys.TimeDecay(age, b.lambda)

		candidates = append(candidates, candidate{
			article: in.Article,
			base:    base,
			input: recsys.RecommendationScore{
				ArticleID: in.Article.ID,
				SubScores: map[string]float64{
					string(recsys.PipelineCollaborative): in.Collaborative.Score,
					string(recsys.PipelineContent):       in.Content.Score,
					string(recsys.PipelineDemographic):   in.Demographic.Score,
				},
				Reasons:  collectReasons(in),
				Pipeline: recsys.PipelineHybrid,
			},
		})
	}

	// Stable starting order keeps the greedy pass deterministic.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].base != candidates[j].base {
			return candidates[i].base > candidates[j].base
		}
		if !candidates[i].article.PublishedAt.Equal(candidates[j].article.PublishedAt) {
			return candidates[i].article.PublishedAt.After(candidates[j].article.PublishedAt)
		}
		return candidates[i].article.ID < candidates[j].article.ID
	})

	selectedCounts := make(map[string]int)
	selected := make([]recsys.RecommendationScore, 0, limit)
	used := make([]bool, len(candidates))

	for len(selected) < limit {
		bestIdx := -1
		bestScore := math.Inf(-1)
		bestPenalty := 0.0

		for i := range candidates {
			if used[i] {
				continue
			}
			penalty := b.penalty(candidates[i].article.Category, selectedCounts, recentCounts)
			score := candidates[i].base * (1 - penalty)
			if score > bestScore {
				bestIdx = i
				bestScore = score
				bestPenalty = penalty
			}
			// Equal scores resolve to the earlier (fresher) candidate
			// because of the stable pre-sort.
		}

		if bestIdx < 0 {
			break
		}

		used[bestIdx] = true
		selectedCounts[candidates[bestIdx].article.Category]++

		item := candidates[bestIdx].input
		item.Score = recsys.Clamp01(bestScore)
		item.DiversityPenalty = bestPenalty
		selected = append(selected, item)
	}

	return selected
}

// penalty computes the diversity penalty for a category given how many
// same-category articles were already selected or recently served.
func (b *Blender) penalty(category string, selectedCounts, recentCounts map[string]int) float64 {
	count := selectedCounts[category]
	if recentCounts != nil {
		count += recentCounts[category]
	}
	p := float64(count) * b.perItem
	if p > b.maxPenalty {
		p = b.maxPenalty
	}
	return p
}

// collectReasons gathers non-empty reason fragments from the pipelines,
// strongest contribution first.
func collectReasons(in *Input) []string {
	type weighted struct {
		score  float64
		reason string
	}
	parts := []weighted{
		{in.Collaborative.Score, in.Collaborative.Reason},
		{in.Content.Score, in.Content.Reason},
		{in.Demographic.Score, in.Demographic.Reason},
	}
	sort.SliceStable(parts, func(i, j int) bool { return parts[i].score > parts[j].score })

	reasons := make([]string, 0, len(parts))
	for _, p := range parts {
		if p.reason != "" {
			reasons = append(reasons, p.reason)
		}
	}
	return reasons
}

// FilterDiverse applies the two-pass diversity filter: the first pass
// caps articles per category at ceil(limit/numCategories), the second
// fills remaining slots greedily by score from whatever was skipped.
// Input must already be sorted descending by score.
func FilterDiverse(items []recsys.RecommendationScore, categories map[string]string, limit, numCategories int) []recsys.RecommendationScore {
	if limit <= 0 || len(items) == 0 {
		return []recsys.RecommendationScore{}
	}
	if numCategories < 1 {
		numCategories = 1
	}

	perCategory := int(math.Ceil(float64(limit) / float64(numCategories)))
	counts := make(map[string]int)
	picked := make([]recsys.RecommendationScore, 0, limit)
	skipped := make([]recsys.RecommendationScore, 0, len(items))

	for _, item := range items {
		if len(picked) >= limit {
			break
		}
		cat := categories[item.ArticleID]
		if counts[cat] >= perCategory {
			skipped = append(skipped, item)
			continue
		}
		counts[cat]++
		picked = append(picked, item)
	}

	for _, item := range skipped {
		if len(picked) >= limit {
			break
		}
		picked = append(picked, item)
	}

	return picked
}
