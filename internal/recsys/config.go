// Quillfeed Recsys - Hybrid News Personalization & Recommendation Engine
// Copyright 2026 Quillfeed Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/recsys

package recsys

import (
	"fmt"
	"time"
)

// Config contains all tunables for the recommendation engine.
type Config struct {
	// Weights defines the relative contribution of each scoring pipeline.
	// Normalized at use, so they don't need to sum to 1.0.
	Weights PipelineWeights `json:"weights" koanf:"weights"`

	// Decay contains freshness decay parameters.
	Decay DecayConfig `json:"decay" koanf:"decay"`

	// Diversity contains diversity penalty parameters.
	Diversity DiversityConfig `json:"diversity" koanf:"diversity"`

	// ColdStart contains cold-start state machine parameters.
	ColdStart ColdStartConfig `json:"cold_start" koanf:"cold_start"`

	// Behavior contains behavioral analysis parameters.
	Behavior BehaviorConfig `json:"behavior" koanf:"behavior"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits" koanf:"limits"`

	// Cache contains recommendation cache parameters.
	Cache CacheConfig `json:"cache" koanf:"cache"`

	// Enrichment contains reason-generation parameters.
	Enrichment EnrichmentConfig `json:"enrichment" koanf:"enrichment"`
}

// PipelineWeights defines the relative contribution of each pipeline
// to the hybrid blend.
type PipelineWeights struct {
	Collaborative float64 `json:"collaborative" koanf:"collaborative"`
	Content       float64 `json:"content" koanf:"content"`
	Demographic   float64 `json:"demographic" koanf:"demographic"`
}

// Normalize returns a copy with weights scaled to sum to 1.0.
func (w PipelineWeights) Normalize() PipelineWeights {
	sum := w.Collaborative + w.Content + w.Demographic
	if sum == 0 {
		const equal = 1.0 / 3.0
		return PipelineWeights{Collaborative: equal, Content: equal, Demographic: equal}
	}
	return PipelineWeights{
		Collaborative: w.Collaborative / sum,
		Content:       w.Content / sum,
		Demographic:   w.Demographic / sum,
	}
}

// ToMap returns the weights keyed by pipeline name.
func (w PipelineWeights) ToMap() map[string]float64 {
	return map[string]float64{
		string(PipelineCollaborative): w.Collaborative,
		string(PipelineContent):       w.Content,
		string(PipelineDemographic):   w.Demographic,
	}
}

// DecayConfig contains freshness decay parameters.
type DecayConfig struct {
	// Lambda is the article-age decay rate per hour.
	// Default 0.1 gives a half-life of roughly 7 hours.
	Lambda float64 `json:"lambda" koanf:"lambda"`

	// InteractionHalfLife is the half-life applied to interaction
	// evidence during preference learning. Default: 30 days.
	InteractionHalfLife time.Duration `json:"interaction_half_life" koanf:"interaction_half_life"`
}

// DiversityConfig contains diversity penalty parameters.
type DiversityConfig struct {
	// PenaltyPerItem is the penalty added per already-selected article
	// sharing the candidate's category. Default: 0.05.
	PenaltyPerItem float64 `json:"penalty_per_item" koanf:"penalty_per_item"`

	// MaxPenalty caps the total penalty. Default: 0.3.
	MaxPenalty float64 `json:"max_penalty" koanf:"max_penalty"`
}

// ColdStartConfig contains cold-start state machine parameters.
type ColdStartConfig struct {
	// WarmInteractions is the meaningful-interaction count at which a
	// user is handed off to the hybrid pipeline. Default: 10.
	WarmInteractions int `json:"warm_interactions" koanf:"warm_interactions"`

	// EarlyLearningRate is the EMA learning rate during the
	// early-interaction phase. Default: 0.3.
	EarlyLearningRate float64 `json:"early_learning_rate" koanf:"early_learning_rate"`

	// NoHistoryConfidenceCap bounds confidence with zero interactions.
	// Default: 0.3.
	NoHistoryConfidenceCap float64 `json:"no_history_confidence_cap" koanf:"no_history_confidence_cap"`

	// EarlyConfidenceCap bounds confidence during early interaction.
	// Default: 0.8.
	EarlyConfidenceCap float64 `json:"early_confidence_cap" koanf:"early_confidence_cap"`

	// Weights blends popularity, demographic, trending and diversity
	// signals for no-history users.
	PopularityWeight  float64 `json:"popularity_weight" koanf:"popularity_weight"`
	DemographicWeight float64 `json:"demographic_weight" koanf:"demographic_weight"`
	TrendingWeight    float64 `json:"trending_weight" koanf:"trending_weight"`
	DiversityWeight   float64 `json:"diversity_weight" koanf:"diversity_weight"`
}

// BehaviorConfig contains behavioral analysis parameters.
type BehaviorConfig struct {
	// LearningRate is the EMA alpha for adaptive preference updates.
	// Default: 0.1.
	LearningRate float64 `json:"learning_rate" koanf:"learning_rate"`

	// DriftThreshold flags concept drift when any single category
	// weight moves more than this in one batch. Default: 0.3.
	DriftThreshold float64 `json:"drift_threshold" koanf:"drift_threshold"`

	// SessionGap starts a new session after this much inactivity.
	// Default: 30m.
	SessionGap time.Duration `json:"session_gap" koanf:"session_gap"`

	// MinPredictionSamples is the minimum matching interactions needed
	// before predictions leave the generic default. Default: 5.
	MinPredictionSamples int `json:"min_prediction_samples" koanf:"min_prediction_samples"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// DefaultLimit is the default number of recommendations returned.
	DefaultLimit int `json:"default_limit" koanf:"default_limit"`

	// MaxLimit bounds the requested limit.
	MaxLimit int `json:"max_limit" koanf:"max_limit"`

	// DefaultHistory is how many interactions are consulted when the
	// request does not say.
	DefaultHistory int `json:"default_history" koanf:"default_history"`

	// MaxCandidates bounds the candidate pool size.
	MaxCandidates int `json:"max_candidates" koanf:"max_candidates"`

	// ScoreTimeout bounds the scoring of one request.
	ScoreTimeout time.Duration `json:"score_timeout" koanf:"score_timeout"`
}

// CacheConfig contains recommendation cache parameters.
type CacheConfig struct {
	// Enabled controls whether the response cache is consulted.
	Enabled bool `json:"enabled" koanf:"enabled"`

	// TTL is the cache entry time-to-live. Default: 1h.
	TTL time.Duration `json:"ttl" koanf:"ttl"`
}

// EnrichmentConfig contains reason-generation parameters.
type EnrichmentConfig struct {
	// Enabled controls whether the external enricher is called.
	Enabled bool `json:"enabled" koanf:"enabled"`

	// Timeout bounds a single enrichment call. Default: 2s.
	Timeout time.Duration `json:"timeout" koanf:"timeout"`

	// MinScore is the composite score above which a recommendation
	// qualifies for an enriched reason. Default: 0.6.
	MinScore float64 `json:"min_score" koanf:"min_score"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Weights: PipelineWeights{
			Collaborative: 0.4,
			Content:       0.4,
			Demographic:   0.2,
		},
		Decay: DecayConfig{
			Lambda:              0.1,
			InteractionHalfLife: 30 * 24 * time.Hour,
		},
		Diversity: DiversityConfig{
			PenaltyPerItem: 0.05,
			MaxPenalty:     0.3,
		},
		ColdStart: ColdStartConfig{
			WarmInteractions:       10,
			EarlyLearningRate:      0.3,
			NoHistoryConfidenceCap: 0.3,
			EarlyConfidenceCap:     0.8,
			PopularityWeight:       0.4,
			DemographicWeight:      0.35,
			TrendingWeight:         0.15,
			DiversityWeight:        0.1,
		},
		Behavior: BehaviorConfig{
			LearningRate:         0.1,
			DriftThreshold:       0.3,
			SessionGap:           30 * time.Minute,
			MinPredictionSamples: 5,
		},
		Limits: LimitsConfig{
			DefaultLimit:   20,
			MaxLimit:       100,
			DefaultHistory: 200,
			MaxCandidates:  1000,
			ScoreTimeout:   5 * time.Second,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     time.Hour,
		},
		Enrichment: EnrichmentConfig{
			Enabled:  false,
			Timeout:  2 * time.Second,
			MinScore: 0.6,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Weights.Collaborative < 0 || c.Weights.Content < 0 || c.Weights.Demographic < 0 {
		return fmt.Errorf("weights must be non-negative, got %+v", c.Weights)
	}
	if c.Decay.Lambda < 0 {
		return fmt.Errorf("decay.lambda must be non-negative, got %f", c.Decay.Lambda)
	}
	if c.Diversity.PenaltyPerItem < 0 || c.Diversity.PenaltyPerItem > 1 {
		return fmt.Errorf("diversity.penalty_per_item must be in [0, 1], got %f", c.Diversity.PenaltyPerItem)
	}
	if c.Diversity.MaxPenalty < 0 || c.Diversity.MaxPenalty > 1 {
		return fmt.Errorf("diversity.max_penalty must be in [0, 1], got %f", c.Diversity.MaxPenalty)
	}
	if c.ColdStart.WarmInteractions < 1 {
		return fmt.Errorf("cold_start.warm_interactions must be positive, got %d", c.ColdStart.WarmInteractions)
	}
	if c.ColdStart.EarlyLearningRate <= 0 || c.ColdStart.EarlyLearningRate > 1 {
		return fmt.Errorf("cold_start.early_learning_rate must be in (0, 1], got %f", c.ColdStart.EarlyLearningRate)
	}
	if c.Behavior.LearningRate <= 0 || c.Behavior.LearningRate > 1 {
		return fmt.Errorf("behavior.learning_rate must be in (0, 1], got %f", c.Behavior.LearningRate)
	}
	if c.Behavior.SessionGap <= 0 {
		return fmt.Errorf("behavior.session_gap must be positive, got %v", c.Behavior.SessionGap)
	}
	if c.Limits.DefaultLimit < 1 {
		return fmt.Errorf("limits.default_limit must be positive, got %d", c.Limits.DefaultLimit)
	}
	if c.Limits.MaxLimit < c.Limits.DefaultLimit {
		return fmt.Errorf("limits.max_limit must be >= limits.default_limit, got %d < %d",
			c.Limits.MaxLimit, c.Limits.DefaultLimit)
	}
	if c.Limits.MaxCandidates < 1 {
		return fmt.Errorf("limits.max_candidates must be positive, got %d", c.Limits.MaxCandidates)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %v", c.Cache.TTL)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	// All nested structs contain only value types.
	cp := *c
	return &cp
}
