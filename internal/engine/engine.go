// Quillfeed Recsys - Hybrid News Personalization & Recommendation Engine
// Copyright 2026 Quillfeed Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/recsys

// Package engine orchestrates the recommendation flow: cache lookup,
// pipeline fan-out, blending, cold-start routing, enrichment and
// interaction recording.
//
// Missing data is never fatal. Unknown users, empty histories and
// vanished articles all degrade to weaker recommendations; the only
// errors callers see are malformed input and infrastructure failures.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quillfeed/recsys/internal/cache"
	"github.com/quillfeed/recsys/internal/enrich"
	"github.com/quillfeed/recsys/internal/logging"
	"github.com/quillfeed/recsys/internal/metrics"
	"github.com/quillfeed/recsys/internal/recsys"
	"github.com/quillfeed/recsys/internal/recsys/behavior"
	"github.com/quillfeed/recsys/internal/recsys/blend"
	"github.com/quillfeed/recsys/internal/recsys/coldstart"
	"github.com/quillfeed/recsys/internal/recsys/scorers"
	"github.com/quillfeed/recsys/internal/store"
)

// ErrInvalidRequest marks malformed input. Everything else degrades.
var ErrInvalidRequest = errors.New("engine: invalid request")

// recentCategoryWindow is how many recent interactions feed the
// diversity penalty's recently-served counts.
const recentCategoryWindow = 20

// Engine is the recommendation orchestrator.
type Engine struct {
	cfg *recsys.Config

	store    store.PreferenceStore
	cache    cache.RecommendationCache
	enricher enrich.Enricher

	collaborative scorers.Scorer
	content       scorers.Scorer
	demographic   scorers.Scorer
	blender       *blend.Blender
	coldStart     *coldstart.Handler
	analyzer      *behavior.Analyzer

	log zerolog.Logger
}

// New creates an engine. cache and enricher may be nil; caching is then
// disabled and reasons come from the template fallback.
func New(cfg *recsys.Config, st store.PreferenceStore, ch cache.RecommendationCache, en enrich.Enricher) (*Engine, error) {
	if cfg == nil {
		cfg = recsys.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	if st == nil {
		return nil, fmt.Errorf("engine: preference store is required")
	}
	if en == nil {
		en = enrich.Template{}
	}

	return &Engine{
		cfg:           cfg,
		store:         st,
		cache:         ch,
		enricher:      en,
		collaborative: scorers.NewCollaborative(),
		content:       scorers.NewContentBased(),
		demographic:   scorers.NewDemographic(),
		blender:       blend.New(cfg.Weights, cfg.Decay, cfg.Diversity),
		coldStart:     coldstart.NewHandler(cfg.ColdStart, coldstart.NewProfileIndex()),
		analyzer:      behavior.NewAnalyzer(cfg.Behavior, cfg.Decay),
		log:           logging.Component("engine"),
	}, nil
}

// Recommend produces a ranked recommendation response for a request.
func (e *Engine) Recommend(ctx context.Context, req *recsys.Request) (*recsys.Response, error) {
	if req == nil || req.UserID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}
	if req.Limit < 0 || req.LastN < 0 {
		return nil, fmt.Errorf("%w: limit and last_n must be non-negative", ErrInvalidRequest)
	}

	start := time.Now()
	e.applyDefaults(req)

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Limits.ScoreTimeout)
	defer cancel()

	if e.cacheEnabled() {
		if cached, ok := e.cache.Get(req.UserID); ok {
			metrics.CacheHits.Inc()
			cached.CacheHit = true
			cached.Metadata.RequestID = req.RequestID
			cached.Metadata.LatencyMS = time.Since(start).Milliseconds()
			return cached, nil
		}
		metrics.CacheMisses.Inc()
	}

	user := e.loadUserContext(ctx, req)

	var (
		items    []recsys.RecommendationScore
		pipeline recsys.Pipeline
	)

	if state := e.coldStart.StateFor(user.Interactions); state != coldstart.StateWarm {
		pipeline = recsys.PipelineColdStart
		items = e.coldStart.Recommend(user, req.Candidates, req.Limit, req.Now)
	} else {
		pipeline = recsys.PipelineHybrid
		items = e.scoreHybrid(ctx, user, req)
	}

	metrics.RequestsTotal.WithLabelValues(string(pipeline)).Inc()
	metrics.RequestDuration.WithLabelValues(string(pipeline)).Observe(time.Since(start).Seconds())
	metrics.CandidatesScored.Observe(float64(len(req.Candidates)))

	e.enrichReasons(ctx, items, req.Candidates)

	resp := &recsys.Response{
		Items:       items,
		GeneratedAt: req.Now,
		Metadata: recsys.ResponseMetadata{
			RequestID:       req.RequestID,
			UserID:          req.UserID,
			Pipeline:        pipeline,
			TotalCandidates: len(req.Candidates),
			LatencyMS:       time.Since(start).Milliseconds(),
		},
	}

	if e.cacheEnabled() && len(items) > 0 {
		e.cache.Set(req.UserID, resp)
	}

	e.log.Debug().
		Str("request_id", req.RequestID).
		Str("user_id", req.UserID).
		Str("pipeline", string(pipeline)).
		Int("candidates", len(req.Candidates)).
		Int("returned", len(items)).
		Dur("elapsed", time.Since(start)).
		Msg("recommendation served")

	return resp, nil
}

func (e *Engine) cacheEnabled() bool {
	return e.cache != nil && e.cfg.Cache.Enabled
}

// applyDefaults fills unset request fields and clamps limits.
func (e *Engine) applyDefaults(req *recsys.Request) {
	if req.Limit == 0 {
		req.Limit = e.cfg.Limits.DefaultLimit
	}
	if req.Limit > e.cfg.Limits.MaxLimit {
		req.Limit = e.cfg.Limits.MaxLimit
	}
	if req.LastN == 0 {
		req.LastN = e.cfg.Limits.DefaultHistory
	}
	if len(req.Candidates) > e.cfg.Limits.MaxCandidates {
		req.Candidates = req.Candidates[:e.cfg.Limits.MaxCandidates]
	}
	if req.Now.IsZero() {
		req.Now = time.Now()
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
}

// loadUserContext fetches the profile and history, degrading to an
// empty context for unknown users.
func (e *Engine) loadUserContext(ctx context.Context, req *recsys.Request) *recsys.UserContext {
	user := &recsys.UserContext{Now: req.Now}

	profile, err := e.store.GetUserProfile(ctx, req.UserID)
	switch {
	case err == nil:
		user.Profile = profile
	case errors.Is(err, store.ErrNotFound):
		// New user; cold start covers them.
	default:
		e.log.Warn().Err(err).Str("user_id", req.UserID).Msg("profile load failed, degrading")
	}

	interactions, err := e.store.GetInteractions(ctx, req.UserID, req.LastN)
	if err != nil {
		e.log.Warn().Err(err).Str("user_id", req.UserID).Msg("history load failed, degrading")
	} else {
		user.Interactions = interactions
	}

	return user
}

// scoreHybrid fans the candidate pool out to the three pipelines in
// parallel and blends the results. A pipeline error for one article
// degrades that score to neutral rather than failing the request.
func (e *Engine) scoreHybrid(ctx context.Context, user *recsys.UserContext, req *recsys.Request) []recsys.RecommendationScore {
	n := len(req.Candidates)
	if n == 0 {
		return []recsys.RecommendationScore{}
	}

	collab := make([]recsys.ScoreResult, n)
	content := make([]recsys.ScoreResult, n)
	demo := make([]recsys.ScoreResult, n)

	var wg sync.WaitGroup
	wg.Add(3)
	go e.runPipeline(ctx, &wg, e.collaborative, user, req.Candidates, collab)
	go e.runPipeline(ctx, &wg, e.content, user, req.Candidates, content)
	go e.runPipeline(ctx, &wg, e.demographic, user, req.Candidates, demo)
	wg.Wait()

	inputs := make([]blend.Input, 0, n)
	for i := range req.Candidates {
		inputs = append(inputs, blend.Input{
			Article:       req.Candidates[i],
			Collaborative: collab[i],
			Content:       content[i],
			Demographic:   demo[i],
		})
	}

	return e.blender.Blend(inputs, req.Limit, req.Now, recentCategories(user.Interactions))
}

// runPipeline scores every candidate with one scorer, writing results
// in place. Individual failures degrade to the neutral score.
func (e *Engine) runPipeline(ctx context.Context, wg *sync.WaitGroup, s scorers.Scorer, user *recsys.UserContext, candidates []recsys.Article, out []recsys.ScoreResult) {
	defer wg.Done()

	for i := range candidates {
		res, err := s.Score(ctx, user, &candidates[i])
		if err != nil {
			e.log.Warn().Err(err).
				Str("pipeline", s.Name()).
				Str("article_id", candidates[i].ID).
				Msg("scorer failed, using neutral score")
			res = recsys.ScoreResult{Score: 0.5}
		}
		out[i] = res
	}
}

// recentCategories counts categories of the most recent interactions so
// the diversity penalty also discounts freshly served topics. History
// arrives newest first.
func recentCategories(interactions []recsys.Interaction) map[string]int {
	if len(interactions) == 0 {
		return nil
	}

	window := interactions
	if len(window) > recentCategoryWindow {
		window = window[:recentCategoryWindow]
	}

	counts := make(map[string]int)
	for i := range window {
		if c := window[i].Category; c != "" {
			counts[c]++
		}
	}
	return counts
}

// enrichReasons rewrites the reason list of every item above the
// enrichment score floor. The enricher degrades internally, so this
// never fails a response.
func (e *Engine) enrichReasons(ctx context.Context, items []recsys.RecommendationScore, candidates []recsys.Article) {
	if !e.cfg.Enrichment.Enabled {
		return
	}

	titles := make(map[string]string, len(candidates))
	for i := range candidates {
		titles[candidates[i].ID] = candidates[i].Title
	}

	for i := range items {
		if items[i].Score < e.cfg.Enrichment.MinScore {
			continue
		}
		callCtx, cancel := context.WithTimeout(ctx, e.cfg.Enrichment.Timeout)
		reason := e.enricher.GenerateReason(callCtx, titles[items[i].ArticleID], items[i].Reasons)
		cancel()
		items[i].Reasons = []string{reason}
	}
}

// RecordInteractions appends a batch of interactions and runs the
// adaptive preference update. Invalid actions are rejected; an empty
// batch is a no-op that still returns cleanly.
func (e *Engine) RecordInteractions(ctx context.Context, userID string, batch []recsys.Interaction) (*recsys.UpdateResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}
	for i := range batch {
		if !batch[i].Action.Valid() {
			return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidRequest, batch[i].Action)
		}
	}
	if len(batch) == 0 {
		return &recsys.UpdateResult{}, nil
	}

	now := time.Now()
	for i := range batch {
		in := &batch[i]
		in.UserID = userID
		if in.Timestamp.IsZero() {
			in.Timestamp = now
		}
		in.HourOfDay = in.Timestamp.Hour()
		in.DayOfWeek = int(in.Timestamp.Weekday())

		if err := e.store.AppendInteraction(ctx, in); err != nil {
			return nil, fmt.Errorf("record interaction: %w", err)
		}
		metrics.InteractionsRecorded.WithLabelValues(string(in.Action)).Inc()
	}

	profile, err := e.store.GetUserProfile(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		profile = e.newProfile(userID, now)
	} else if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	history, err := e.store.GetInteractions(ctx, userID, e.cfg.Limits.DefaultHistory)
	if err != nil {
		e.log.Warn().Err(err).Str("user_id", userID).Msg("history load failed during update")
	}

	result := e.updateProfile(profile, history, batch, now)

	profile.UpdatedAt = now
	if err := e.store.UpsertProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("persist profile: %w", err)
	}
	e.coldStart.Observe(profile)

	if e.cacheEnabled() {
		e.cache.Invalidate(userID)
		metrics.CacheInvalidations.Inc()
	}

	return &result, nil
}

// updateProfile routes the batch to the aggressive early-phase learner
// or the steady adaptive analyzer depending on cold-start state.
func (e *Engine) updateProfile(profile *recsys.UserProfile, history, batch []recsys.Interaction, now time.Time) recsys.UpdateResult {
	// history already contains the batch; the baseline for anomaly and
	// drift comparison is what came before it.
	baseline := history
	if len(history) >= len(batch) {
		baseline = history[len(batch):]
	}

	if e.coldStart.StateFor(history) != coldstart.StateWarm {
		meaningful := coldstart.MeaningfulCount(history)
		profile.Behavior.CategoryWeights = e.coldStart.AdaptEarly(profile.Behavior.CategoryWeights, batch, meaningful)
		profile.Behavior.InteractionCount += len(batch)
		return recsys.UpdateResult{
			Updated:   true,
			Anomalies: behavior.DetectAnomalies(baseline, batch),
		}
	}

	return e.analyzer.Update(profile.ID, &profile.Behavior, baseline, batch, now)
}

// newProfile builds a first profile for a user seen through an
// interaction before any signup record.
func (e *Engine) newProfile(userID string, now time.Time) *recsys.UserProfile {
	return &recsys.UserProfile{
		ID: userID,
		Behavior: recsys.BehaviorProfile{
			CategoryWeights: recsys.NewCategoryWeights(),
			TimePreferences: recsys.NewTimePreferenceTable(),
		},
		CreatedAt: now,
	}
}

// RegisterUser creates a profile with generated starting weights from
// demographics and stated interests. Existing profiles are replaced.
func (e *Engine) RegisterUser(ctx context.Context, userID string, demo recsys.Demographics, interests []string) (*recsys.UserProfile, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}

	now := time.Now()
	profile := &recsys.UserProfile{
		ID:           userID,
		Demographics: demo,
		Preferences:  interests,
		Behavior: recsys.BehaviorProfile{
			CategoryWeights: e.coldStart.NewUserWeights(demo, interests),
			TimePreferences: recsys.NewTimePreferenceTable(),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := e.store.UpsertProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}
	return profile, nil
}

// Insights summarizes a user's behavioral analysis: reading style,
// rhythm, recurring category patterns, the forecast for the given
// moment and their cold-start phase.
type Insights struct {
	State          coldstart.State         `json:"state"`
	Classification behavior.Classification `json:"classification"`
	Rhythm         behavior.Rhythm         `json:"rhythm"`
	Patterns       []behavior.Pattern      `json:"patterns"`
	Prediction     behavior.Prediction     `json:"prediction"`
}

// Insights analyzes a user's interaction history. Unknown users get
// empty insights at low confidence, not an error.
func (e *Engine) Insights(ctx context.Context, userID string, at time.Time) (*Insights, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}
	if at.IsZero() {
		at = time.Now()
	}

	history, err := e.store.GetInteractions(ctx, userID, e.cfg.Limits.DefaultHistory)
	if err != nil {
		e.log.Warn().Err(err).Str("user_id", userID).Msg("history load failed, degrading")
		history = nil
	}

	sessions := behavior.Sessions(history, e.cfg.Behavior.SessionGap)
	return &Insights{
		State:          e.coldStart.StateFor(history),
		Classification: behavior.Classify(history),
		Rhythm:         behavior.ReadingRhythm(sessions),
		Patterns:       behavior.CategoryPatterns(sessions),
		Prediction:     behavior.PredictInterest(history, at, e.cfg.Behavior.MinPredictionSamples),
	}, nil
}

// InvalidateCache drops the cached response for a user.
func (e *Engine) InvalidateCache(userID string) {
	if e.cacheEnabled() {
		e.cache.Invalidate(userID)
		metrics.CacheInvalidations.Inc()
	}
}
