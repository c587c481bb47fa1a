// Quillfeed Recsys - Hybrid News Personalization & Recommendation Engine
// Copyright 2026 Quillfeed Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/recsys

package recsys

import (
	"math"
	"time"
)

// Categories is the canonical set of top-level article categories.
// Preference vectors are indexed in this order.
var Categories = []string{
	"technology",
	"politics",
	"sports",
	"entertainment",
	"business",
	"health",
	"science",
	"world",
}

// CategoryIndex returns the index of a category in the canonical set,
// or -1 for unknown categories.
func CategoryIndex(category string) int {
	for i, c := range Categories {
		if c == category {
			return i
		}
	}
	return -1
}

// Action classifies a user-article interaction.
type Action string

const (
	ActionView    Action = "view"
	ActionClick   Action = "click"
	ActionRead    Action = "read"
	ActionShare   Action = "share"
	ActionSave    Action = "save"
	ActionLike    Action = "like"
	ActionDislike Action = "dislike"
	ActionSkip    Action = "skip"
)

// Weight returns the evidence weight of an action for preference learning.
// Negative weights express disinterest.
func (a Action) Weight() float64 {
	switch a {
	case ActionView:
		return 0.1
	case ActionClick:
		return 0.3
	case ActionRead:
		return 1.0
	case ActionShare:
		return 1.5
	case ActionSave:
		return 1.2
	case ActionLike:
		return 0.8
	case ActionDislike:
		return -0.5
	case ActionSkip:
		return -0.2
	default:
		return 0
	}
}

// Meaningful reports whether the action counts toward the cold-start
// warm-up gate. Passive impressions do not.
func (a Action) Meaningful() bool {
	switch a {
	case ActionRead, ActionShare, ActionSave, ActionLike:
		return true
	default:
		return false
	}
}

// Valid reports whether the action is a known interaction type.
func (a Action) Valid() bool {
	switch a {
	case ActionView, ActionClick, ActionRead, ActionShare,
		ActionSave, ActionLike, ActionDislike, ActionSkip:
		return true
	default:
		return false
	}
}

// Interaction represents a single user-article interaction event.
// Interactions are append-only and subject to a retention policy.
type Interaction struct {
	// UserID is the user who interacted.
	UserID string `json:"user_id"`

	// ArticleID references a candidate that may no longer exist in the
	// pool; consumers must degrade gracefully.
	ArticleID string `json:"article_id"`

	// Action classifies the interaction.
	Action Action `json:"action"`

	// Timestamp is when the interaction occurred.
	Timestamp time.Time `json:"timestamp"`

	// ReadDuration is the time spent reading, in seconds.
	ReadDuration float64 `json:"read_duration,omitempty"`

	// ScrollDepth is how far the user scrolled (0..1).
	ScrollDepth float64 `json:"scroll_depth,omitempty"`

	// Category is the article's category at interaction time.
	Category string `json:"category"`

	// HourOfDay is the local hour (0-23) of the interaction.
	HourOfDay int `json:"hour_of_day"`

	// DayOfWeek is the local day (0=Sunday, 6=Saturday).
	DayOfWeek int `json:"day_of_week"`

	// Device is the client device type (mobile, desktop, tablet).
	Device string `json:"device,omitempty"`
}

// Location identifies a geographic scope for demographic matching.
type Location struct {
	Country string `json:"country,omitempty"`
	State   string `json:"state,omitempty"`
	City    string `json:"city,omitempty"`
}

// Demographics holds the demographic attributes of a user.
type Demographics struct {
	Age        int      `json:"age,omitempty"`
	Profession string   `json:"profession,omitempty"`
	Gender     string   `json:"gender,omitempty"`
	Location   Location `json:"location,omitempty"`
}

// EngagementMetrics holds aggregate engagement counters for an article.
type EngagementMetrics struct {
	Views    int `json:"views"`
	Shares   int `json:"shares"`
	Likes    int `json:"likes"`
	Comments int `json:"comments"`
}

// Total returns the weighted total engagement. Shares signal strongest
// endorsement, comments and likes follow, raw views weakest.
func (e EngagementMetrics) Total() float64 {
	return float64(e.Views) + 5*float64(e.Shares) + 2*float64(e.Likes) + 3*float64(e.Comments)
}

// LocationRelevance describes where an article is geographically relevant.
type LocationRelevance struct {
	Country string `json:"country,omitempty"`
	State   string `json:"state,omitempty"`
	City    string `json:"city,omitempty"`

	// Global is a scalar in [0,1]; 1 means globally relevant.
	Global float64 `json:"global"`
}

// Article is a candidate news article. Read-only to this engine.
type Article struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Category      string            `json:"category"`
	Source        string            `json:"source,omitempty"`
	PublishedAt   time.Time         `json:"published_at"`
	Content       string            `json:"content,omitempty"`
	Keywords      []string          `json:"keywords,omitempty"`
	Engagement    EngagementMetrics `json:"engagement"`
	Credibility   float64           `json:"credibility,omitempty"`
	TrendingScore float64           `json:"trending_score,omitempty"`
	Location      LocationRelevance `json:"location,omitempty"`
}

// CategoryWeights maps category name to a learned weight in [0,1],
// with an overall confidence scalar. Weights are updated via EMA and
// never overwritten wholesale except on cold-start regeneration.
type CategoryWeights struct {
	Weights    map[string]float64 `json:"weights"`
	Confidence float64            `json:"confidence"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// NewCategoryWeights returns an empty weight set.
func NewCategoryWeights() CategoryWeights {
	return CategoryWeights{Weights: make(map[string]float64)}
}

// Get returns the weight for a category, defaulting to 0.1 for
// categories never observed.
func (cw CategoryWeights) Get(category string) float64 {
	if w, ok := cw.Weights[category]; ok {
		return Clamp01(w)
	}
	return 0.1
}

// Clamp clamps every weight and the confidence into [0,1]. Defensive
// against inconsistent stored state; applied at every read boundary.
func (cw *CategoryWeights) Clamp() {
	for c, w := range cw.Weights {
		cw.Weights[c] = Clamp01(w)
	}
	cw.Confidence = Clamp01(cw.Confidence)
}

// Clone returns a deep copy.
func (cw CategoryWeights) Clone() CategoryWeights {
	weights := make(map[string]float64, len(cw.Weights))
	for c, w := range cw.Weights {
		weights[c] = w
	}
	return CategoryWeights{Weights: weights, Confidence: cw.Confidence, UpdatedAt: cw.UpdatedAt}
}

// TimePreferenceTable holds per-hour category preferences, 24 buckets.
type TimePreferenceTable [24]map[string]float64

// NewTimePreferenceTable returns a table with all buckets allocated.
func NewTimePreferenceTable() TimePreferenceTable {
	var t TimePreferenceTable
	for h := range t {
		t[h] = make(map[string]float64)
	}
	return t
}

// Clone returns a deep copy.
func (t TimePreferenceTable) Clone() TimePreferenceTable {
	out := NewTimePreferenceTable()
	for h := range t {
		for c, w := range t[h] {
			out[h][c] = w
		}
	}
	return out
}

// BehaviorProfile holds the learned behavioral state of a user.
type BehaviorProfile struct {
	CategoryWeights  CategoryWeights     `json:"category_weights"`
	TimePreferences  TimePreferenceTable `json:"time_preferences"`
	EngagementScore  float64             `json:"engagement_score"`
	InteractionCount int                 `json:"interaction_count"`
}

// UserProfile is the durable per-user record owned by the preference
// store. Created on signup, mutated by the behavioral analyzer.
type UserProfile struct {
	ID           string          `json:"id"`
	Demographics Demographics    `json:"demographics"`
	Preferences  []string        `json:"preferences,omitempty"` // stated interests
	Behavior     BehaviorProfile `json:"behavior"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// UserContext bundles everything scorers may consult about a user.
// Profile may be nil for unknown users; scorers must degrade, not fail.
type UserContext struct {
	Profile      *UserProfile
	Interactions []Interaction

	// Now is the evaluation time; scoring is a pure function of the
	// context, so callers fix it once per request.
	Now time.Time
}

// Pipeline tags which scoring path produced a recommendation.
type Pipeline string

const (
	PipelineCollaborative Pipeline = "collaborative"
	PipelineContent       Pipeline = "content"
	PipelineDemographic   Pipeline = "demographic"
	PipelineHybrid        Pipeline = "hybrid"
	PipelineColdStart     Pipeline = "cold_start"
)

// ScoreResult is the output of a single scoring pipeline for one article.
type ScoreResult struct {
	// Score is in [0,1].
	Score float64 `json:"score"`

	// Reason is a human-readable explanation fragment.
	Reason string `json:"reason,omitempty"`
}

// RecommendationScore is one ranked entry in a recommendation response.
type RecommendationScore struct {
	ArticleID string `json:"article_id"`

	// Score is the composite score in [0,1] after decay and diversity.
	Score float64 `json:"score"`

	// SubScores breaks the composite down by pipeline.
	SubScores map[string]float64 `json:"sub_scores,omitempty"`

	// DiversityPenalty is the penalty applied for category repetition.
	DiversityPenalty float64 `json:"diversity_penalty,omitempty"`

	// Reasons are human-readable explanation strings.
	Reasons []string `json:"reasons,omitempty"`

	// Pipeline tags the path that produced this entry.
	Pipeline Pipeline `json:"pipeline"`
}

// Request is a recommendation request.
type Request struct {
	// UserID is the user to recommend for.
	UserID string `json:"user_id"`

	// Candidates is the article pool to score.
	Candidates []Article `json:"candidates"`

	// LastN bounds how much interaction history is consulted.
	// Defaults to Config.Limits.DefaultHistory if zero.
	LastN int `json:"last_n,omitempty"`

	// Limit is the maximum number of items to return.
	// Defaults to Config.Limits.DefaultLimit if zero.
	Limit int `json:"limit,omitempty"`

	// Now overrides the evaluation time; zero means time.Now().
	// Exposed so scoring is a deterministic function of its inputs.
	Now time.Time `json:"-"`

	// RequestID is a unique identifier for tracing.
	RequestID string `json:"request_id,omitempty"`
}

// Response is a recommendation response.
type Response struct {
	Items       []RecommendationScore `json:"items"`
	CacheHit    bool                  `json:"cache_hit"`
	GeneratedAt time.Time             `json:"generated_at"`
	Metadata    ResponseMetadata      `json:"metadata"`
}

// ResponseMetadata carries timing and diagnostic information.
type ResponseMetadata struct {
	RequestID       string   `json:"request_id"`
	UserID          string   `json:"user_id"`
	Pipeline        Pipeline `json:"pipeline"`
	TotalCandidates int      `json:"total_candidates"`
	LatencyMS       int64    `json:"latency_ms"`
}

// UpdateResult reports the outcome of an adaptive preference update.
type UpdateResult struct {
	// Updated is true when any state changed. Empty batches leave
	// weights and confidence untouched.
	Updated bool `json:"updated"`

	// DriftDetected is true when any category weight moved more than
	// the drift threshold in a single batch.
	DriftDetected bool `json:"drift_detected"`

	// DriftedCategories lists categories that crossed the threshold.
	DriftedCategories []string `json:"drifted_categories,omitempty"`

	// Anomalies lists informational anomaly flags for the batch.
	Anomalies []Anomaly `json:"anomalies,omitempty"`
}

// AnomalyType classifies a behavioral anomaly.
type AnomalyType string

const (
	AnomalyTime       AnomalyType = "time"
	AnomalyCategory   AnomalyType = "category"
	AnomalyEngagement AnomalyType = "engagement"
)

// Severity tags how unusual an anomaly is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Anomaly is an informational signal about an unusual interaction.
// Anomalies are never errors.
type Anomaly struct {
	Type      AnomalyType `json:"type"`
	Severity  Severity    `json:"severity"`
	ArticleID string      `json:"article_id,omitempty"`
	Detail    string      `json:"detail,omitempty"`
}

// Clamp01 clamps v into [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// TimeDecay returns exp(-lambda * ageHours), the multiplicative
// freshness factor. Decay(0) == 1 and the function is strictly
// decreasing in age.
func TimeDecay(ageHours, lambda float64) float64 {
	if ageHours < 0 {
		ageHours = 0
	}
	return math.Exp(-lambda * ageHours)
}

// HalfLifeDecay returns the exponential decay factor for an event of
// the given age with the given half-life.
func HalfLifeDecay(age, halfLife time.Duration) float64 {
	if halfLife <= 0 || age <= 0 {
		return 1
	}
	return math.Exp2(-age.Hours() / halfLife.Hours())
}
