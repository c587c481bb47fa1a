// Quillfeed Recsys - Hybrid News Personalization & Recommendation Engine
// Copyright 2026 Quillfeed Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/recsys

package coldstart

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/quillfeed/recsys/internal/recsys"
)

func testHandler() *Handler {
	return NewHandler(recsys.DefaultConfig().ColdStart, nil)
}

func meaningfulBatch(n int) []recsys.Interaction {
	out := make([]recsys.Interaction, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, recsys.Interaction{
			ArticleID: fmt.Sprintf("a%d", i),
			Action:    recsys.ActionRead,
			Category:  "technology",
		})
	}
	return out
}

func TestStateFor(t *testing.T) {
	h := testHandler()

	tests := []struct {
		name         string
		interactions []recsys.Interaction
		want         State
	}{
		{"no interactions", nil, StateNoHistory},
		{
			"views only do not count",
			[]recsys.Interaction{
				{Action: recsys.ActionView},
				{Action: recsys.ActionClick},
				{Action: recsys.ActionSkip},
			},
			StateNoHistory,
		},
		{"one read enters early", meaningfulBatch(1), StateEarly},
		{"nine meaningful still early", meaningfulBatch(9), StateEarly},
		{"ten meaningful is warm", meaningfulBatch(10), StateWarm},
		{"well past the gate", meaningfulBatch(50), StateWarm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.StateFor(tt.interactions); got != tt.want {
				t.Errorf("StateFor() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfidenceMonotonicCapped(t *testing.T) {
	h := testHandler()

	if got := h.Confidence(0); math.Abs(got-0.3) > 1e-9 {
		t.Errorf("Confidence(0) = %f, want 0.3", got)
	}

	prev := h.Confidence(0)
	for n := 1; n <= 30; n++ {
		cur := h.Confidence(n)
		if cur < prev {
			t.Errorf("confidence decreased at n=%d: %f < %f", n, cur, prev)
		}
		if cur > 0.8+1e-9 {
			t.Errorf("confidence %f exceeds cap 0.8 at n=%d", cur, n)
		}
		prev = cur
	}

	if got := h.Confidence(100); math.Abs(got-0.8) > 1e-9 {
		t.Errorf("Confidence(100) = %f, want cap 0.8", got)
	}
}

func TestNewUserWeights(t *testing.T) {
	h := testHandler()

	t.Run("segment fast path for student", func(t *testing.T) {
		w := h.NewUserWeights(recsys.Demographics{Age: 22, Profession: "student"}, nil)
		if w.Weights["technology"] <= w.Weights["politics"] {
			t.Errorf("student segment should favor technology (%f) over politics (%f)",
				w.Weights["technology"], w.Weights["politics"])
		}
		if math.Abs(w.Confidence-0.3) > 1e-9 {
			t.Errorf("new-user confidence = %f, want 0.3", w.Confidence)
		}
	})

	t.Run("table fallback for unmatched profession", func(t *testing.T) {
		w := h.NewUserWeights(recsys.Demographics{Age: 38, Profession: "lawyer"}, nil)
		if w.Weights["politics"] <= w.Weights["entertainment"] {
			t.Errorf("lawyer weights should favor politics (%f) over entertainment (%f)",
				w.Weights["politics"], w.Weights["entertainment"])
		}
	})

	t.Run("stated interests boost their categories", func(t *testing.T) {
		plain := h.NewUserWeights(recsys.Demographics{Age: 30, Profession: "engineer"}, nil)
		boosted := h.NewUserWeights(recsys.Demographics{Age: 30, Profession: "engineer"}, []string{"health"})
		if boosted.Weights["health"] <= plain.Weights["health"] {
			t.Errorf("interest boost missing: %f <= %f", boosted.Weights["health"], plain.Weights["health"])
		}
	})

	t.Run("unknown interests are ignored", func(t *testing.T) {
		w := h.NewUserWeights(recsys.Demographics{Age: 30}, []string{"astrology"})
		if _, ok := w.Weights["astrology"]; ok {
			t.Error("unknown interest should not create a weight")
		}
	})

	t.Run("no demographics yields sparse weights without error", func(t *testing.T) {
		w := h.NewUserWeights(recsys.Demographics{}, nil)
		for c, v := range w.Weights {
			if v < 0 || v > 1 {
				t.Errorf("weight %s = %f out of [0,1]", c, v)
			}
		}
	})
}

func TestProfileIndexLookup(t *testing.T) {
	idx := NewProfileIndex()
	demo := recsys.Demographics{
		Age:        28,
		Profession: "engineer",
		Gender:     "f",
		Location:   recsys.Location{Country: "US", State: "CA"},
	}
	idx.Observe(&recsys.UserProfile{
		ID:           "existing",
		Demographics: demo,
		Behavior: recsys.BehaviorProfile{
			CategoryWeights: recsys.CategoryWeights{
				Weights:    map[string]float64{"technology": 0.9, "science": 0.6},
				Confidence: 0.95,
			},
		},
	})

	t.Run("exact match", func(t *testing.T) {
		w, ok := idx.Lookup(demo, nil)
		if !ok {
			t.Fatal("expected exact match")
		}
		if math.Abs(w.Confidence-0.4) > 1e-9 {
			t.Errorf("borrowed confidence = %f, want reset to 0.4", w.Confidence)
		}
		if math.Abs(w.Weights["technology"]-0.9) > 1e-9 {
			t.Errorf("technology weight = %f, want 0.9", w.Weights["technology"])
		}
	})

	t.Run("partial match on age bracket and profession", func(t *testing.T) {
		other := recsys.Demographics{
			Age:        30,
			Profession: "engineer",
			Gender:     "m",
			Location:   recsys.Location{Country: "DE"},
		}
		if _, ok := idx.Lookup(other, nil); !ok {
			t.Error("expected partial match for same bracket and profession")
		}
	})

	t.Run("interest boost applies", func(t *testing.T) {
		w, ok := idx.Lookup(demo, []string{"science"})
		if !ok {
			t.Fatal("expected match")
		}
		if math.Abs(w.Weights["science"]-0.72) > 1e-9 {
			t.Errorf("boosted science weight = %f, want 0.72", w.Weights["science"])
		}
	})

	t.Run("no match", func(t *testing.T) {
		if _, ok := idx.Lookup(recsys.Demographics{Age: 70, Profession: "retired"}, nil); ok {
			t.Error("expected no match for unseen demographics")
		}
	})
}

func TestRecommendNoHistory(t *testing.T) {
	h := testHandler()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	popular := recsys.Article{
		ID: "popular", Category: "technology", PublishedAt: now.Add(-2 * time.Hour),
		Engagement: recsys.EngagementMetrics{Views: 5000, Shares: 400, Likes: 900},
	}
	obscure := recsys.Article{
		ID: "obscure", Category: "science", PublishedAt: now.Add(-72 * time.Hour),
		Engagement: recsys.EngagementMetrics{Views: 3},
	}

	t.Run("popularity dominates with no profile", func(t *testing.T) {
		got := h.Recommend(nil, []recsys.Article{obscure, popular}, 2, now)
		if len(got) != 2 {
			t.Fatalf("expected 2 items, got %d", len(got))
		}
		if got[0].ArticleID != "popular" {
			t.Errorf("popular article should rank first, got %q", got[0].ArticleID)
		}
		if got[0].Pipeline != recsys.PipelineColdStart {
			t.Errorf("pipeline = %q, want cold_start", got[0].Pipeline)
		}
	})

	t.Run("results span categories", func(t *testing.T) {
		pool := make([]recsys.Article, 0, 16)
		for i := 0; i < 8; i++ {
			pool = append(pool, recsys.Article{
				ID: fmt.Sprintf("tech%d", i), Category: "technology", PublishedAt: now,
				Engagement: recsys.EngagementMetrics{Views: 2000, Shares: 100},
			})
		}
		for i, cat := range []string{"politics", "sports", "health", "world"} {
			pool = append(pool, recsys.Article{
				ID: fmt.Sprintf("other%d", i), Category: cat, PublishedAt: now,
				Engagement: recsys.EngagementMetrics{Views: 500, Shares: 20},
			})
		}

		got := h.Recommend(nil, pool, 8, now)
		seen := make(map[string]bool)
		for _, item := range got {
			for _, a := range pool {
				if a.ID == item.ArticleID {
					seen[a.Category] = true
				}
			}
		}
		if len(seen) < 3 {
			t.Errorf("expected at least 3 categories in cold-start results, got %d", len(seen))
		}
	})

	t.Run("demographics tilt the ranking", func(t *testing.T) {
		tech := recsys.Article{
			ID: "t", Category: "technology", PublishedAt: now,
			Engagement: recsys.EngagementMetrics{Views: 100},
		}
		politics := recsys.Article{
			ID: "p", Category: "politics", PublishedAt: now,
			Engagement: recsys.EngagementMetrics{Views: 100},
		}
		student := &recsys.UserContext{
			Profile: &recsys.UserProfile{
				Demographics: recsys.Demographics{Age: 21, Profession: "student"},
			},
		}

		got := h.Recommend(student, []recsys.Article{politics, tech}, 2, now)
		if got[0].ArticleID != "t" {
			t.Errorf("student should see technology first, got %q", got[0].ArticleID)
		}
	})

	t.Run("empty pool", func(t *testing.T) {
		if got := h.Recommend(nil, nil, 5, now); len(got) != 0 {
			t.Errorf("expected empty result, got %d", len(got))
		}
	})

	t.Run("scores bounded", func(t *testing.T) {
		got := h.Recommend(nil, []recsys.Article{popular}, 1, now)
		if got[0].Score < 0 || got[0].Score > 1 {
			t.Errorf("score %f out of [0,1]", got[0].Score)
		}
	})
}

func TestPopularity(t *testing.T) {
	if got := Popularity(recsys.EngagementMetrics{}); got != 0 {
		t.Errorf("zero engagement popularity = %f, want 0", got)
	}

	small := Popularity(recsys.EngagementMetrics{Views: 10})
	large := Popularity(recsys.EngagementMetrics{Views: 5000, Shares: 300})
	if small >= large {
		t.Errorf("popularity should grow with engagement: %f >= %f", small, large)
	}

	viral := Popularity(recsys.EngagementMetrics{Views: 10_000_000, Shares: 500_000})
	if viral > 1 {
		t.Errorf("popularity %f exceeds 1", viral)
	}
}

func TestAdaptEarly(t *testing.T) {
	h := testHandler()
	base := recsys.CategoryWeights{
		Weights:    map[string]float64{"technology": 0.5},
		Confidence: 0.3,
	}

	t.Run("positive action raises weight", func(t *testing.T) {
		got := h.AdaptEarly(base, []recsys.Interaction{
			{Category: "technology", Action: recsys.ActionRead},
		}, 1)
		if got.Weights["technology"] <= 0.5 {
			t.Errorf("read should raise weight, got %f", got.Weights["technology"])
		}
	})

	t.Run("dislike lowers weight", func(t *testing.T) {
		got := h.AdaptEarly(base, []recsys.Interaction{
			{Category: "technology", Action: recsys.ActionDislike},
		}, 1)
		if got.Weights["technology"] >= 0.5 {
			t.Errorf("dislike should lower weight, got %f", got.Weights["technology"])
		}
	})

	t.Run("new category starts from the default", func(t *testing.T) {
		got := h.AdaptEarly(base, []recsys.Interaction{
			{Category: "sports", Action: recsys.ActionRead},
		}, 1)
		// (1-0.3)*0.1 + 0.3*1.0 = 0.37
		if math.Abs(got.Weights["sports"]-0.37) > 1e-9 {
			t.Errorf("sports weight = %f, want 0.37", got.Weights["sports"])
		}
	})

	t.Run("empty batch leaves weights untouched", func(t *testing.T) {
		got := h.AdaptEarly(base, nil, 0)
		if math.Abs(got.Weights["technology"]-0.5) > 1e-9 {
			t.Errorf("weight changed on empty batch: %f", got.Weights["technology"])
		}
		if got.Confidence != base.Confidence {
			t.Errorf("confidence changed on empty batch: %f", got.Confidence)
		}
	})

	t.Run("confidence never decreases and caps at 0.8", func(t *testing.T) {
		w := base.Clone()
		prev := w.Confidence
		for n := 1; n <= 20; n++ {
			w = h.AdaptEarly(w, []recsys.Interaction{
				{Category: "technology", Action: recsys.ActionRead},
			}, n)
			if w.Confidence < prev {
				t.Fatalf("confidence decreased at n=%d: %f < %f", n, w.Confidence, prev)
			}
			if w.Confidence > 0.8+1e-9 {
				t.Fatalf("confidence %f exceeds cap at n=%d", w.Confidence, n)
			}
			prev = w.Confidence
		}
	})
}

func TestSegmentFor(t *testing.T) {
	tests := []struct {
		name string
		demo recsys.Demographics
		want string
		ok   bool
	}{
		{"student", recsys.Demographics{Age: 20, Profession: "Student"}, "students", true},
		{"young engineer", recsys.Demographics{Age: 29, Profession: "engineer"}, "young_professionals", true},
		{"executive", recsys.Demographics{Age: 52, Profession: "executive"}, "senior_executives", true},
		{"nurse", recsys.Demographics{Age: 34, Profession: "nurse"}, "healthcare_workers", true},
		{"age outside range", recsys.Demographics{Age: 60, Profession: "student"}, "", false},
		{"unknown profession", recsys.Demographics{Age: 30, Profession: "astronaut"}, "", false},
		{"no demographics", recsys.Demographics{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg, ok := SegmentFor(tt.demo)
			if ok != tt.ok {
				t.Fatalf("SegmentFor() ok = %v, want %v", ok, tt.ok)
			}
			if ok && seg.Name != tt.want {
				t.Errorf("segment = %q, want %q", seg.Name, tt.want)
			}
		})
	}
}
