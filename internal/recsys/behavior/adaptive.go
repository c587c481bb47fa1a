// Quillfeed Recsys - Hybrid News Personalization & Recommendation Engine
// Copyright 2026 Quillfeed Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/recsys

package behavior

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/quillfeed/recsys/internal/logging"
	"github.com/quillfeed/recsys/internal/metrics"
	"github.com/quillfeed/recsys/internal/recsys"
)

// Analyzer applies interaction batches to behavior profiles: EMA weight
// updates, time preference rebuilds, drift and anomaly flags.
type Analyzer struct {
	cfg      recsys.BehaviorConfig
	halfLife time.Duration
	log      zerolog.Logger
}

// NewAnalyzer creates an analyzer from engine configuration.
func NewAnalyzer(cfg recsys.BehaviorConfig, decay recsys.DecayConfig) *Analyzer {
	return &Analyzer{
		cfg:      cfg,
		halfLife: decay.InteractionHalfLife,
		log:      logging.Component("behavior"),
	}
}

// Update applies one interaction batch to the profile in place and
// reports what changed. An empty batch is a no-op: weights, confidence
// and counters stay exactly as they were.
//
// Drift detection is observational. A category weight moving more than
// the threshold in one batch is logged and counted, never acted on.
func (a *Analyzer) Update(userID string, profile *recsys.BehaviorProfile, history, batch []recsys.Interaction, now time.Time) recsys.UpdateResult {
	if profile == nil || len(batch) == 0 {
		return recsys.UpdateResult{}
	}

	if profile.CategoryWeights.Weights == nil {
		profile.CategoryWeights = recsys.NewCategoryWeights()
	}

	before := profile.CategoryWeights.Clone()

	alpha := a.cfg.LearningRate
	for i := range batch {
		in := &batch[i]
		if in.Category == "" {
			continue
		}
		signal := recsys.Clamp01(0.5 + in.Action.Weight()/2)
		prev, ok := profile.CategoryWeights.Weights[in.Category]
		if !ok {
			prev = 0.1
		}
		profile.CategoryWeights.Weights[in.Category] = recsys.Clamp01((1-alpha)*prev + alpha*signal)
	}

	result := recsys.UpdateResult{Updated: true}

	for c, after := range profile.CategoryWeights.Weights {
		prev, ok := before.Weights[c]
		if !ok {
			prev = 0.1
		}
		if math.Abs(after-prev) > a.cfg.DriftThreshold {
			result.DriftDetected = true
			result.DriftedCategories = append(result.DriftedCategories, c)
		}
	}
	if result.DriftDetected {
		metrics.DriftEvents.Inc()
		a.log.Info().
			Str("user_id", userID).
			Strs("categories", result.DriftedCategories).
			Msg("preference drift detected")
	}

	profile.CategoryWeights.Confidence = recsys.Clamp01(
		profile.CategoryWeights.Confidence + a.dataQuality(batch)*0.05)
	profile.CategoryWeights.UpdatedAt = now

	combined := make([]recsys.Interaction, 0, len(history)+len(batch))
	combined = append(combined, history...)
	combined = append(combined, batch...)
	profile.TimePreferences = BuildTimePreferences(combined, a.halfLife, now)

	profile.InteractionCount += len(batch)
	profile.EngagementScore = engagementScore(combined)

	result.Anomalies = DetectAnomalies(history, batch)
	for _, an := range result.Anomalies {
		metrics.AnomaliesDetected.WithLabelValues(string(an.Type), string(an.Severity)).Inc()
	}

	return result
}

// dataQuality scores a batch in [0,1] from three factors: field
// completeness, category diversity and recency of the interactions.
func (a *Analyzer) dataQuality(batch []recsys.Interaction) float64 {
	if len(batch) == 0 {
		return 0
	}

	complete := 0
	categories := make(map[string]struct{})
	recent := 0
	cutoff := time.Now().Add(-7 * 24 * time.Hour)

	for i := range batch {
		in := &batch[i]
		if in.Category != "" && in.ReadDuration > 0 && in.ScrollDepth > 0 {
			complete++
		}
		if in.Category != "" {
			categories[in.Category] = struct{}{}
		}
		if in.Timestamp.After(cutoff) {
			recent++
		}
	}

	completeness := float64(complete) / float64(len(batch))
	diversity := math.Min(float64(len(categories))/float64(len(recsys.Categories)), 1)
	recency := float64(recent) / float64(len(batch))

	return (completeness + diversity + recency) / 3
}

// engagementScore summarizes overall engagement as the meaningful-action
// ratio blended with normalized read depth.
func engagementScore(interactions []recsys.Interaction) float64 {
	if len(interactions) == 0 {
		return 0
	}

	meaningful := 0
	var depthTotal float64
	var depthCount int
	for i := range interactions {
		in := &interactions[i]
		if in.Action.Meaningful() {
			meaningful++
		}
		if in.ReadDuration > 0 {
			depthTotal += recsys.Clamp01(in.ReadDuration * in.ScrollDepth / fullEngagementSeconds)
			depthCount++
		}
	}

	ratio := float64(meaningful) / float64(len(interactions))
	if depthCount == 0 {
		return recsys.Clamp01(ratio)
	}
	return recsys.Clamp01(0.5*ratio + 0.5*depthTotal/float64(depthCount))
}
