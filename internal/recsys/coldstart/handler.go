// Quillfeed Recsys - Hybrid News Personalization & Recommendation Engine
// Copyright 2026 Quillfeed Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/recsys

// Package coldstart serves users with little or no interaction history.
//
// Users move through three phases. With zero meaningful interactions
// they get a popularity/demographic/trending blend. During the early
// phase every interaction adapts their category weights aggressively.
// Once they cross the warm-up gate the hybrid pipeline takes over and
// this package is out of the loop.
package coldstart

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/quillfeed/recsys/internal/logging"
	"github.com/quillfeed/recsys/internal/recsys"
	"github.com/quillfeed/recsys/internal/recsys/blend"
	"github.com/quillfeed/recsys/internal/recsys/scorers"
)

// State is the cold-start phase of a user.
type State string

const (
	// StateNoHistory means zero meaningful interactions.
	StateNoHistory State = "no_history"

	// StateEarly means some meaningful interactions, below the warm gate.
	StateEarly State = "early"

	// StateWarm means the user graduated to the hybrid pipeline.
	StateWarm State = "warm"
)

// popularityScale normalizes log-engagement; articles at or above this
// total engagement score 1.0 on popularity.
const popularityScale = 10000

// Handler implements cold-start recommendation and weight generation.
type Handler struct {
	cfg   recsys.ColdStartConfig
	index *ProfileIndex
	log   zerolog.Logger
}

// NewHandler creates a cold-start handler. index may be nil when no
// similar-profile lookup is available.
func NewHandler(cfg recsys.ColdStartConfig, index *ProfileIndex) *Handler {
	return &Handler{
		cfg:   cfg,
		index: index,
		log:   logging.Component("coldstart"),
	}
}

// MeaningfulCount counts interactions that advance the warm-up gate.
func MeaningfulCount(interactions []recsys.Interaction) int {
	n := 0
	for i := range interactions {
		if interactions[i].Action.Meaningful() {
			n++
		}
	}
	return n
}

// StateFor classifies a user by meaningful interaction count.
func (h *Handler) StateFor(interactions []recsys.Interaction) State {
	switch n := MeaningfulCount(interactions); {
	case n == 0:
		return StateNoHistory
	case n < h.cfg.WarmInteractions:
		return StateEarly
	default:
		return StateWarm
	}
}

// Confidence returns the preference confidence for a user at the given
// meaningful interaction count. It starts at the no-history cap, grows
// linearly with evidence and never exceeds the early cap; the general
// adaptive path owns confidence beyond that.
func (h *Handler) Confidence(meaningful int) float64 {
	if meaningful <= 0 {
		return h.cfg.NoHistoryConfidenceCap
	}
	c := h.cfg.NoHistoryConfidenceCap + float64(meaningful)*0.05
	if c > h.cfg.EarlyConfidenceCap {
		c = h.cfg.EarlyConfidenceCap
	}
	return c
}

// Observe publishes a user's learned weights to the similar-profile
// index so future new users with matching demographics can borrow
// them. Profiles without any demographic signal are skipped; they
// would only ever collide on an empty key.
func (h *Handler) Observe(profile *recsys.UserProfile) {
	if h.index == nil || profile == nil {
		return
	}
	demo := profile.Demographics
	if demo.Age <= 0 && strings.TrimSpace(demo.Profession) == "" {
		return
	}
	h.index.Observe(profile)
}

// NewUserWeights generates starting category weights for a brand-new
// user. Resolution order: predefined segment, similar-profile lookup,
// then direct generation from the demographic affinity tables. Stated
// interests always boost their categories.
func (h *Handler) NewUserWeights(demo recsys.Demographics, interests []string) recsys.CategoryWeights {
	if seg, ok := SegmentFor(demo); ok {
		weights := recsys.NewCategoryWeights()
		for c, w := range seg.Weights {
			weights.Weights[c] = w
		}
		boostInterests(&weights, interests)
		weights.Confidence = h.cfg.NoHistoryConfidenceCap
		h.log.Debug().Str("segment", seg.Name).Msg("generated weights from segment")
		return weights
	}

	if h.index != nil {
		if weights, ok := h.index.Lookup(demo, interests); ok {
			h.log.Debug().Msg("generated weights from similar profile")
			return weights
		}
	}

	weights := recsys.NewCategoryWeights()
	for _, c := range recsys.Categories {
		w := 0.4*scorers.AgeAffinity(demo.Age, c) +
			0.4*scorers.ProfessionAffinity(demo.Profession, c) +
			0.2*scorers.CountryAffinity(demo.Location.Country, c)
		if w > 0 {
			weights.Weights[c] = recsys.Clamp01(w)
		}
	}
	boostInterests(&weights, interests)
	weights.Confidence = h.cfg.NoHistoryConfidenceCap
	return weights
}

// boostInterests raises the weight of every stated interest that maps
// to a known category. Unknown interests are ignored.
func boostInterests(weights *recsys.CategoryWeights, interests []string) {
	for _, interest := range interests {
		c := strings.ToLower(strings.TrimSpace(interest))
		if recsys.CategoryIndex(c) < 0 {
			continue
		}
		if w, ok := weights.Weights[c]; ok {
			weights.Weights[c] = recsys.Clamp01(w * 1.2)
		} else {
			weights.Weights[c] = 0.3
		}
	}
}

// Recommend ranks candidates for a cold-start user. The early phase
// shares the no-history base score but tilts it toward category
// weights already adapted from the first interactions.
func (h *Handler) Recommend(user *recsys.UserContext, candidates []recsys.Article, limit int, now time.Time) []recsys.RecommendationScore {
	if len(candidates) == 0 || limit <= 0 {
		return []recsys.RecommendationScore{}
	}

	var (
		demo      recsys.Demographics
		interests []string
	)
	if user != nil && user.Profile != nil {
		demo = user.Profile.Demographics
		interests = user.Profile.Preferences
	}

	state := StateNoHistory
	var learned recsys.CategoryWeights
	if user != nil {
		state = h.StateFor(user.Interactions)
	}
	if state == StateEarly && user.Profile != nil {
		learned = user.Profile.Behavior.CategoryWeights
	}

	type scored struct {
		article    *recsys.Article
		base       float64
		subScores  map[string]float64
		reasons    []string
		multiplier float64
	}

	items := make([]scored, 0, len(candidates))
	for i := range candidates {
		art := &candidates[i]

		pop := Popularity(art.Engagement)
		demoMatch := h.demographicMatch(demo, interests, art.Category)
		trend := trendingScore(art, now)

		base := h.cfg.PopularityWeight*pop +
			h.cfg.DemographicWeight*demoMatch +
			h.cfg.TrendingWeight*trend

		// Early phase: fold in what the first interactions taught us.
		if state == StateEarly {
			base = 0.6*base + 0.4*learned.Get(art.Category)
		}

		multiplier := 1 + scorers.LocationBonus(demo.Location, art.Location)*0.2

		items = append(items, scored{
			article: art,
			base:    base,
			subScores: map[string]float64{
				"popularity":  pop,
				"demographic": demoMatch,
				"trending":    trend,
			},
			reasons:    coldStartReasons(pop, demoMatch, trend),
			multiplier: multiplier,
		})
	}

	// Greedy selection so the diversity bonus reflects what is already
	// picked. Stable pre-sort keeps the pass deterministic.
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].base != items[j].base {
			return items[i].base > items[j].base
		}
		return items[i].article.ID < items[j].article.ID
	})

	selectedCounts := make(map[string]int)
	used := make([]bool, len(items))
	categories := make(map[string]string, len(items))

	// Rank twice the limit so the diversity filter has material to work
	// with, bounded by the pool size.
	rankLimit := limit * 2
	if rankLimit > len(items) {
		rankLimit = len(items)
	}

	ranked := make([]recsys.RecommendationScore, 0, rankLimit)
	for len(ranked) < rankLimit {
		bestIdx := -1
		bestScore := math.Inf(-1)

		for i := range items {
			if used[i] {
				continue
			}
			diversity := 1.0 / (1.0 + float64(selectedCounts[items[i].article.Category]))
			score := (items[i].base + h.cfg.DiversityWeight*diversity) * items[i].multiplier
			if score > bestScore {
				bestIdx = i
				bestScore = score
			}
		}

		if bestIdx < 0 {
			break
		}

		used[bestIdx] = true
		it := items[bestIdx]
		selectedCounts[it.article.Category]++
		categories[it.article.ID] = it.article.Category

		ranked = append(ranked, recsys.RecommendationScore{
			ArticleID: it.article.ID,
			Score:     recsys.Clamp01(bestScore),
			SubScores: it.subScores,
			Reasons:   it.reasons,
			Pipeline:  recsys.PipelineColdStart,
		})
	}

	return blend.FilterDiverse(ranked, categories, limit, len(recsys.Categories))
}

// demographicMatch scores a category against the user's demographic
// tables and stated interests. Users with nothing on file get a flat
// mid score so popularity and trending carry the ranking.
func (h *Handler) demographicMatch(demo recsys.Demographics, interests []string, category string) float64 {
	hasDemo := demo.Age > 0 || demo.Profession != "" || demo.Location.Country != ""
	if !hasDemo && len(interests) == 0 {
		return 0.5
	}

	score := 0.4*scorers.AgeAffinity(demo.Age, category) +
		0.4*scorers.ProfessionAffinity(demo.Profession, category) +
		0.2*scorers.CountryAffinity(demo.Location.Country, category)

	for _, interest := range interests {
		if strings.EqualFold(strings.TrimSpace(interest), category) {
			score += 0.3
			break
		}
	}

	return recsys.Clamp01(score)
}

// Popularity maps aggregate engagement onto [0,1] logarithmically so a
// handful of viral articles cannot saturate the ranking.
func Popularity(e recsys.EngagementMetrics) float64 {
	total := e.Total()
	if total <= 0 {
		return 0
	}
	return recsys.Clamp01(math.Log(total+1) / math.Log(popularityScale))
}

// trendingScore combines the upstream trending signal with recency:
// articles older than 24 hours get no recency component.
func trendingScore(art *recsys.Article, now time.Time) float64 {
	ageHours := now.Sub(art.PublishedAt).Hours()
	recency := 1 - ageHours/24
	if recency < 0 {
		recency = 0
	}
	return recsys.Clamp01(0.7*recsys.Clamp01(art.TrendingScore) + 0.3*recency)
}

// coldStartReasons explains the dominant signal behind a score.
func coldStartReasons(pop, demoMatch, trend float64) []string {
	type weighted struct {
		score  float64
		reason string
	}
	parts := []weighted{
		{pop, "widely read right now"},
		{demoMatch, "popular with readers like you"},
		{trend, "trending today"},
	}
	sort.SliceStable(parts, func(i, j int) bool { return parts[i].score > parts[j].score })

	reasons := make([]string, 0, 2)
	for _, p := range parts {
		if p.score >= 0.3 && len(reasons) < 2 {
			reasons = append(reasons, p.reason)
		}
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "recommended for new readers")
	}
	return reasons
}

// AdaptEarly applies one batch of interactions to a cold-start user's
// weights with the aggressive early learning rate. Returns the updated
// weights; the caller persists them. Confidence grows with the user's
// total meaningful count, monotonically, capped at the early limit.
func (h *Handler) AdaptEarly(weights recsys.CategoryWeights, batch []recsys.Interaction, meaningfulTotal int) recsys.CategoryWeights {
	out := weights.Clone()
	if out.Weights == nil {
		out.Weights = make(map[string]float64)
	}

	alpha := h.cfg.EarlyLearningRate
	for i := range batch {
		in := &batch[i]
		if in.Category == "" {
			continue
		}
		signal := recsys.Clamp01(0.5 + in.Action.Weight()/2)
		prev, ok := out.Weights[in.Category]
		if !ok {
			prev = 0.1
		}
		out.Weights[in.Category] = recsys.Clamp01((1-alpha)*prev + alpha*signal)
	}

	next := h.Confidence(meaningfulTotal)
	if next > out.Confidence {
		out.Confidence = next
	}
	out.UpdatedAt = latestTimestamp(batch, out.UpdatedAt)
	return out
}

func latestTimestamp(batch []recsys.Interaction, fallback time.Time) time.Time {
	latest := fallback
	for i := range batch {
		if batch[i].Timestamp.After(latest) {
			latest = batch[i].Timestamp
		}
	}
	return latest
}
