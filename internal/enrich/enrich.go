// Quillfeed Recsys - Hybrid News Personalization & Recommendation Engine
// Copyright 2026 Quillfeed Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/recsys

// Package enrich turns score fragments into reader-facing reasons,
// optionally via an external generation service.
//
// The external service is best-effort. Timeouts, rate limits and open
// circuits all degrade to the deterministic template fallback; no
// recommendation is ever delayed or dropped because enrichment failed.
package enrich

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/quillfeed/recsys/internal/logging"
	"github.com/quillfeed/recsys/internal/metrics"
)

// Enricher produces a single human-readable reason for a recommendation.
type Enricher interface {
	// GenerateReason builds a reason from the article title and the raw
	// score fragments. Implementations must always return a usable
	// string; degradation is internal.
	GenerateReason(ctx context.Context, title string, fragments []string) string
}

// Template is the deterministic fallback enricher. It is also the
// default when no external service is configured.
type Template struct{}

var _ Enricher = Template{}

// GenerateReason joins the strongest fragments into one sentence.
func (Template) GenerateReason(_ context.Context, title string, fragments []string) string {
	kept := make([]string, 0, 2)
	for _, f := range fragments {
		if f = strings.TrimSpace(f); f != "" {
			kept = append(kept, f)
		}
		if len(kept) == 2 {
			break
		}
	}

	if len(kept) == 0 {
		return "Recommended for you"
	}
	reason := strings.Join(kept, " and ")
	return strings.ToUpper(reason[:1]) + reason[1:]
}

// HTTPClient calls an external reason-generation service, guarded by a
// circuit breaker and a client-side rate limit.
type HTTPClient struct {
	url      string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker[string]
	limiter  *rate.Limiter
	fallback Template
	log      zerolog.Logger
}

var _ Enricher = (*HTTPClient)(nil)

// NewHTTPClient creates an enricher against the given endpoint.
func NewHTTPClient(url string, timeout time.Duration) *HTTPClient {
	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "enrich",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &HTTPClient{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		breaker: breaker,
		limiter: rate.NewLimiter(rate.Limit(10), 20),
		log:     logging.Component("enrich"),
	}
}

type generateRequest struct {
	Title     string   `json:"title"`
	Fragments []string `json:"fragments"`
}

type generateResponse struct {
	Reason string `json:"reason"`
}

// GenerateReason asks the external service for a reason, falling back
// to the template on any failure.
func (c *HTTPClient) GenerateReason(ctx context.Context, title string, fragments []string) string {
	if !c.limiter.Allow() {
		metrics.EnrichmentFallbacks.Inc()
		return c.fallback.GenerateReason(ctx, title, fragments)
	}

	reason, err := c.breaker.Execute(func() (string, error) {
		return c.call(ctx, title, fragments)
	})
	if err != nil {
		metrics.EnrichmentFallbacks.Inc()
		c.log.Debug().Err(err).Msg("enrichment degraded to template")
		return c.fallback.GenerateReason(ctx, title, fragments)
	}
	return reason
}

func (c *HTTPClient) call(ctx context.Context, title string, fragments []string) (string, error) {
	body, err := json.Marshal(generateRequest{Title: title, Fragments: fragments})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call enrichment service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("enrichment service returned %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if strings.TrimSpace(out.Reason) == "" {
		return "", fmt.Errorf("enrichment service returned an empty reason")
	}
	return out.Reason, nil
}
