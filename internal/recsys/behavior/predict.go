// Quillfeed Recsys - Hybrid News Personalization & Recommendation Engine
// Copyright 2026 Quillfeed Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/recsys

package behavior

import (
	"math"
	"time"

	"github.com/quillfeed/recsys/internal/recsys"
)

// Prediction is a forecast of what a user will want at a given moment.
type Prediction struct {
	// Categories is a normalized interest distribution.
	Categories map[string]float64 `json:"categories"`

	// ExpectedEngagement is the forecast engagement level in [0,1].
	ExpectedEngagement float64 `json:"expected_engagement"`

	// Confidence reflects how much matching evidence backs the forecast.
	Confidence float64 `json:"confidence"`
}

// defaultPredictionConfidence is returned when history is too thin to
// say anything specific.
const defaultPredictionConfidence = 0.2

// fullEngagementSeconds calibrates expected engagement: a fully
// scrolled read of this length scores 1.0.
const fullEngagementSeconds = 300

// PredictInterest forecasts the user's category interest for the given
// moment from interactions at similar times: the same weekday within
// two hours of the target hour. With fewer than minSamples matches the
// forecast falls back to a uniform distribution at low confidence.
func PredictInterest(interactions []recsys.Interaction, at time.Time, minSamples int) Prediction {
	hour := at.Hour()
	day := int(at.Weekday())

	matching := make([]recsys.Interaction, 0, len(interactions))
	for i := range interactions {
		in := &interactions[i]
		if in.DayOfWeek != day {
			continue
		}
		if hourDistance(in.HourOfDay, hour) > 2 {
			continue
		}
		matching = append(matching, *in)
	}

	if len(matching) < minSamples {
		return Prediction{
			Categories:         uniformDistribution(),
			ExpectedEngagement: 0.5,
			Confidence:         defaultPredictionConfidence,
		}
	}

	weights := make(map[string]float64)
	var weightTotal float64
	var engagementTotal float64
	var engagementCount int
	days := make(map[string]struct{})

	for i := range matching {
		in := &matching[i]
		w := in.Action.Weight()
		if w > 0 && in.Category != "" {
			weights[in.Category] += w
			weightTotal += w
		}
		if in.ReadDuration > 0 {
			engagementTotal += recsys.Clamp01(in.ReadDuration * in.ScrollDepth / fullEngagementSeconds)
			engagementCount++
		}
		days[in.Timestamp.Format("2006-01-02")] = struct{}{}
	}

	p := Prediction{Categories: make(map[string]float64, len(weights))}
	if weightTotal > 0 {
		for c, w := range weights {
			p.Categories[c] = w / weightTotal
		}
	} else {
		p.Categories = uniformDistribution()
	}

	p.ExpectedEngagement = 0.5
	if engagementCount > 0 {
		p.ExpectedEngagement = engagementTotal / float64(engagementCount)
	}

	p.Confidence = predictionConfidence(len(matching), len(days), p.Categories)
	return p
}

// hourDistance returns the circular distance between two hours.
func hourDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if d > 12 {
		d = 24 - d
	}
	return d
}

// uniformDistribution spreads interest evenly over all categories.
func uniformDistribution() map[string]float64 {
	out := make(map[string]float64, len(recsys.Categories))
	for _, c := range recsys.Categories {
		out[c] = 1.0 / float64(len(recsys.Categories))
	}
	return out
}

// predictionConfidence averages three evidence signals: sample volume
// (saturating at 50), day coverage (saturating at 30 distinct days)
// and distribution sharpness (1 minus normalized variance-free
// entropy; a flat distribution earns nothing).
func predictionConfidence(samples, days int, dist map[string]float64) float64 {
	volume := math.Min(float64(samples)/50, 1)
	coverage := math.Min(float64(days)/30, 1)

	sharpness := 0.0
	if len(dist) > 1 {
		entropy := 0.0
		for _, p := range dist {
			if p > 0 {
				entropy -= p * math.Log(p)
			}
		}
		maxEntropy := math.Log(float64(len(dist)))
		if maxEntropy > 0 {
			sharpness = 1 - entropy/maxEntropy
		}
	} else if len(dist) == 1 {
		sharpness = 1
	}

	return recsys.Clamp01((volume + coverage + sharpness) / 3)
}
