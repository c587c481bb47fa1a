// Quillfeed Recsys - Hybrid News Personalization & Recommendation Engine
// Copyright 2026 Quillfeed Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/recsys

package api

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/quillfeed/recsys/internal/cache"
	"github.com/quillfeed/recsys/internal/engine"
	"github.com/quillfeed/recsys/internal/recsys"
	"github.com/quillfeed/recsys/internal/store"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	cfg := recsys.DefaultConfig()
	eng, err := engine.New(cfg, store.NewMemoryStore(), cache.NewMemory(cfg.Cache.TTL), nil)
	if err != nil {
		t.Fatal(err)
	}
	return NewServer(eng).Router(10000)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func articles(n int) []recsys.Article {
	now := time.Now()
	out := make([]recsys.Article, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, recsys.Article{
			ID:          fmt.Sprintf("a%d", i),
			Title:       fmt.Sprintf("Article %d", i),
			Category:    recsys.Categories[i%len(recsys.Categories)],
			PublishedAt: now.Add(-time.Duration(i) * time.Hour),
			Engagement:  recsys.EngagementMetrics{Views: 500},
		})
	}
	return out
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRecommendEndpoint(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/users/u1/recommendations", recommendRequest{
		Candidates: articles(10),
		Limit:      5,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp recsys.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) == 0 || len(resp.Items) > 5 {
		t.Errorf("items = %d, want 1..5", len(resp.Items))
	}
	if resp.Metadata.UserID != "u1" {
		t.Errorf("user_id = %q, want u1", resp.Metadata.UserID)
	}
	if resp.Metadata.RequestID == "" {
		t.Error("expected a request id")
	}
}

func TestRecommendEndpointRejectsBadInput(t *testing.T) {
	h := newTestServer(t)

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/u1/recommendations",
			bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("empty candidates", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/v1/users/u1/recommendations", recommendRequest{})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("negative limit", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/v1/users/u1/recommendations", recommendRequest{
			Candidates: articles(3), Limit: -2,
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestInteractionsEndpoint(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/users/u1/interactions", interactionsRequest{
		Interactions: []recsys.Interaction{
			{ArticleID: "a1", Action: recsys.ActionRead, Category: "technology"},
			{ArticleID: "a2", Action: recsys.ActionLike, Category: "science"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var result recsys.UpdateResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if !result.Updated {
		t.Error("expected updated = true")
	}
}

func TestInteractionsEndpointRejectsUnknownAction(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/users/u1/interactions", interactionsRequest{
		Interactions: []recsys.Interaction{{ArticleID: "a1", Action: "teleport"}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRegisterEndpoint(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPut, "/api/v1/users/new-user/", registerRequest{
		Demographics: recsys.Demographics{Age: 24, Profession: "student"},
		Interests:    []string{"technology"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var profile recsys.UserProfile
	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatal(err)
	}
	if profile.ID != "new-user" {
		t.Errorf("id = %q, want new-user", profile.ID)
	}
	if len(profile.Behavior.CategoryWeights.Weights) == 0 {
		t.Error("expected generated starting weights")
	}
}

func TestInsightsEndpoint(t *testing.T) {
	h := newTestServer(t)

	doJSON(t, h, http.MethodPost, "/api/v1/users/u1/interactions", interactionsRequest{
		Interactions: []recsys.Interaction{
			{ArticleID: "a1", Action: recsys.ActionRead, Category: "technology", ReadDuration: 350, ScrollDepth: 0.9},
			{ArticleID: "a2", Action: recsys.ActionRead, Category: "science", ReadDuration: 400, ScrollDepth: 0.85},
		},
	})

	rec := doJSON(t, h, http.MethodGet, "/api/v1/users/u1/insights", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var insights struct {
		State          string `json:"state"`
		Classification struct {
			SessionLength string `json:"session_length"`
		} `json:"classification"`
		Prediction struct {
			Confidence float64 `json:"confidence"`
		} `json:"prediction"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &insights); err != nil {
		t.Fatal(err)
	}
	if insights.State != "early" {
		t.Errorf("state = %q, want early after two meaningful reads", insights.State)
	}
	if insights.Classification.SessionLength != "long" {
		t.Errorf("session length = %q, want long", insights.Classification.SessionLength)
	}
	if insights.Prediction.Confidence <= 0 {
		t.Error("expected a positive prediction confidence")
	}
}

func TestInvalidateCacheEndpoint(t *testing.T) {
	h := newTestServer(t)

	// Populate the cache, invalidate, then verify recomputation.
	body := recommendRequest{Candidates: articles(5)}
	doJSON(t, h, http.MethodPost, "/api/v1/users/u1/recommendations", body)

	rec := doJSON(t, h, http.MethodDelete, "/api/v1/users/u1/cache", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/users/u1/recommendations", body)
	var resp recsys.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.CacheHit {
		t.Error("response after invalidation should not be a cache hit")
	}
}

func TestCacheHitFlagOverHTTP(t *testing.T) {
	h := newTestServer(t)
	body := recommendRequest{Candidates: articles(5)}

	doJSON(t, h, http.MethodPost, "/api/v1/users/u9/recommendations", body)
	rec := doJSON(t, h, http.MethodPost, "/api/v1/users/u9/recommendations", body)

	var resp recsys.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.CacheHit {
		t.Error("second identical request should hit the cache")
	}
}
