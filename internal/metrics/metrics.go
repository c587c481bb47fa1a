// Quillfeed Recsys - Hybrid News Personalization & Recommendation Engine
// Copyright 2026 Quillfeed Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/recsys

// Package metrics provides Prometheus instrumentation for the
// recommendation engine:
//   - request throughput and latency per pipeline
//   - recommendation cache efficiency
//   - cold-start activity
//   - behavioral signals (anomalies, concept drift)
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendation pipeline metrics

	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recsys_requests_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"pipeline"}, // "hybrid", "cold_start"
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recsys_request_duration_seconds",
			Help:    "Recommendation request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"pipeline"},
	)

	CandidatesScored = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recsys_candidates_scored",
			Help:    "Number of candidate articles scored per request",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000},
		},
	)

	// Cache metrics

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recsys_cache_hits_total",
			Help: "Total number of recommendation cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recsys_cache_misses_total",
			Help: "Total number of recommendation cache misses",
		},
	)

	CacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recsys_cache_invalidations_total",
			Help: "Total number of explicit cache invalidations",
		},
	)

	// Behavioral analysis metrics

	AnomaliesDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recsys_anomalies_total",
			Help: "Total number of behavioral anomalies detected",
		},
		[]string{"type", "severity"}, // type: "time", "category", "engagement"
	)

	DriftEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recsys_drift_events_total",
			Help: "Total number of concept drift detections",
		},
	)

	InteractionsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recsys_interactions_total",
			Help: "Total number of interactions recorded",
		},
		[]string{"action"},
	)

	// Enrichment metrics

	EnrichmentFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recsys_enrichment_fallbacks_total",
			Help: "Total number of reason-generation calls that fell back to templates",
		},
	)

	// API metrics

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recsys_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)
)
