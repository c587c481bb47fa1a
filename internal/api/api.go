// Quillfeed Recsys - Hybrid News Personalization & Recommendation Engine
// Copyright 2026 Quillfeed Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/recsys

// Package api exposes the recommendation engine over HTTP.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/quillfeed/recsys/internal/engine"
	"github.com/quillfeed/recsys/internal/logging"
	"github.com/quillfeed/recsys/internal/metrics"
	"github.com/quillfeed/recsys/internal/recsys"
)

// Server handles HTTP traffic for the engine.
type Server struct {
	engine   *engine.Engine
	validate *validator.Validate
	log      zerolog.Logger
}

// NewServer creates an API server around an engine.
func NewServer(eng *engine.Engine) *Server {
	return &Server{
		engine:   eng,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      logging.Component("api"),
	}
}

// Router builds the HTTP routing table. ratePerMinute bounds requests
// per client IP.
func (s *Server) Router(ratePerMinute int) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)
	r.Use(httprate.LimitByIP(ratePerMinute, time.Minute))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/users/{userID}", func(r chi.Router) {
		r.Put("/", s.handleRegister)
		r.Post("/recommendations", s.handleRecommend)
		r.Post("/interactions", s.handleInteractions)
		r.Get("/insights", s.handleInsights)
		r.Delete("/cache", s.handleInvalidateCache)
	})

	return r
}

// instrument records request metrics per method, route and status.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		metrics.APIRequestsTotal.WithLabelValues(r.Method, route, http.StatusText(ww.Status())).Inc()
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// recommendRequest is the POST recommendations body.
type recommendRequest struct {
	Candidates []recsys.Article `json:"candidates" validate:"required,min=1,dive"`
	Limit      int              `json:"limit" validate:"gte=0"`
	LastN      int              `json:"last_n" validate:"gte=0"`
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var body recommendRequest
	if !s.decode(w, r, &body) {
		return
	}

	resp, err := s.engine.Recommend(r.Context(), &recsys.Request{
		UserID:     userID,
		Candidates: body.Candidates,
		Limit:      body.Limit,
		LastN:      body.LastN,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// interactionsRequest is the POST interactions body.
type interactionsRequest struct {
	Interactions []recsys.Interaction `json:"interactions" validate:"required,min=1,max=500,dive"`
}

func (s *Server) handleInteractions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var body interactionsRequest
	if !s.decode(w, r, &body) {
		return
	}

	result, err := s.engine.RecordInteractions(r.Context(), userID, body.Interactions)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// registerRequest is the PUT user body.
type registerRequest struct {
	Demographics recsys.Demographics `json:"demographics"`
	Interests    []string            `json:"interests" validate:"max=20"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var body registerRequest
	if !s.decode(w, r, &body) {
		return
	}

	profile, err := s.engine.RegisterUser(r.Context(), userID, body.Demographics, body.Interests)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, profile)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := s.engine.Insights(r.Context(), chi.URLParam(r, "userID"), time.Time{})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, insights)
}

func (s *Server) handleInvalidateCache(w http.ResponseWriter, r *http.Request) {
	s.engine.InvalidateCache(chi.URLParam(r, "userID"))
	w.WriteHeader(http.StatusNoContent)
}

// decode parses and validates a JSON body, answering 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed JSON body"})
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

// writeError maps engine errors onto HTTP statuses. Invalid input is
// the caller's fault; everything else is ours.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, engine.ErrInvalidRequest) {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.log.Error().Err(err).Msg("request failed")
	s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("response encode failed")
	}
}
