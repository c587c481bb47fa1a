// Quillfeed Recsys - Hybrid News Personalization & Recommendation Engine
// Copyright 2026 Quillfeed Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/recsys

package scorers

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/quillfeed/recsys/internal/recsys"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 0, 1}, []float64{1, 0, 1}, 1.0},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0.0},
		{"zero vector yields zero not NaN", []float64{0, 0, 0}, []float64{1, 2, 3}, 0.0},
		{"both zero", []float64{0, 0}, []float64{0, 0}, 0.0},
		{"length mismatch", []float64{1}, []float64{1, 2}, 0.0},
		{"empty", nil, nil, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			if math.IsNaN(got) {
				t.Fatal("cosineSimilarity returned NaN")
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("cosineSimilarity() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestCollaborativeScore(t *testing.T) {
	c := NewCollaborative()
	ctx := context.Background()
	article := &recsys.Article{ID: "a1", Category: "technology"}

	t.Run("missing data returns neutral", func(t *testing.T) {
		res, err := c.Score(ctx, nil, article)
		if err != nil {
			t.Fatalf("Score() error = %v", err)
		}
		if !almostEqual(res.Score, 0.5) {
			t.Errorf("score = %f, want 0.5", res.Score)
		}
	})

	t.Run("empty history returns neutral", func(t *testing.T) {
		res, err := c.Score(ctx, &recsys.UserContext{}, article)
		if err != nil {
			t.Fatalf("Score() error = %v", err)
		}
		if !almostEqual(res.Score, 0.5) {
			t.Errorf("score = %f, want 0.5", res.Score)
		}
	})

	t.Run("boost scales with distinct articles", func(t *testing.T) {
		tests := []struct {
			distinct int
			want     float64
		}{
			{1, 0.53},
			{5, 0.65},
			{10, 0.8},
			{25, 0.8}, // capped
		}

		for _, tt := range tests {
			interactions := make([]recsys.Interaction, 0, tt.distinct)
			for i := 0; i < tt.distinct; i++ {
				interactions = append(interactions, recsys.Interaction{
					ArticleID: fmt.Sprintf("a%d", i),
					Action:    recsys.ActionRead,
				})
			}
			res, err := c.Score(ctx, &recsys.UserContext{Interactions: interactions}, article)
			if err != nil {
				t.Fatalf("Score() error = %v", err)
			}
			if math.Abs(res.Score-tt.want) > 1e-9 {
				t.Errorf("distinct=%d score = %f, want %f", tt.distinct, res.Score, tt.want)
			}
		}
	})

	t.Run("duplicate article IDs count once", func(t *testing.T) {
		interactions := []recsys.Interaction{
			{ArticleID: "a1", Action: recsys.ActionView},
			{ArticleID: "a1", Action: recsys.ActionRead},
			{ArticleID: "a1", Action: recsys.ActionShare},
		}
		res, _ := c.Score(ctx, &recsys.UserContext{Interactions: interactions}, article)
		if math.Abs(res.Score-0.53) > 1e-9 {
			t.Errorf("score = %f, want 0.53", res.Score)
		}
	})
}

func TestContentBasedScore(t *testing.T) {
	c := NewContentBased()
	ctx := context.Background()

	t.Run("no profile returns neutral", func(t *testing.T) {
		res, err := c.Score(ctx, &recsys.UserContext{}, &recsys.Article{Category: "sports"})
		if err != nil {
			t.Fatalf("Score() error = %v", err)
		}
		if !almostEqual(res.Score, 0.5) {
			t.Errorf("score = %f, want 0.5", res.Score)
		}
	})

	t.Run("preferred category scores higher than unseen", func(t *testing.T) {
		profile := &recsys.UserProfile{
			ID: "u1",
			Behavior: recsys.BehaviorProfile{
				CategoryWeights: recsys.CategoryWeights{
					Weights: map[string]float64{"technology": 0.9},
				},
			},
		}
		user := &recsys.UserContext{Profile: profile}

		tech, _ := c.Score(ctx, user, &recsys.Article{Category: "technology"})
		politics, _ := c.Score(ctx, user, &recsys.Article{Category: "politics"})

		if tech.Score <= politics.Score {
			t.Errorf("technology score %f should exceed politics score %f", tech.Score, politics.Score)
		}
	})

	t.Run("unknown article category does not NaN", func(t *testing.T) {
		profile := &recsys.UserProfile{
			Behavior: recsys.BehaviorProfile{CategoryWeights: recsys.NewCategoryWeights()},
		}
		res, err := c.Score(ctx, &recsys.UserContext{Profile: profile}, &recsys.Article{Category: "astrology"})
		if err != nil {
			t.Fatalf("Score() error = %v", err)
		}
		if math.IsNaN(res.Score) {
			t.Fatal("score is NaN")
		}
		if res.Score < 0 || res.Score > 1 {
			t.Errorf("score %f out of [0,1]", res.Score)
		}
	})
}

func TestDemographicScore(t *testing.T) {
	d := NewDemographic()
	ctx := context.Background()

	student := &recsys.UserContext{
		Profile: &recsys.UserProfile{
			Demographics: recsys.Demographics{
				Age:        22,
				Profession: "student",
				Location:   recsys.Location{Country: "US"},
			},
		},
		Now: time.Now(),
	}

	t.Run("young student prefers technology over politics", func(t *testing.T) {
		tech, _ := d.Score(ctx, student, &recsys.Article{Category: "technology"})
		ent, _ := d.Score(ctx, student, &recsys.Article{Category: "entertainment"})
		sports, _ := d.Score(ctx, student, &recsys.Article{Category: "sports"})
		politics, _ := d.Score(ctx, student, &recsys.Article{Category: "politics"})

		for name, s := range map[string]recsys.ScoreResult{"technology": tech, "entertainment": ent, "sports": sports} {
			if s.Score <= politics.Score {
				t.Errorf("%s score %f should exceed politics score %f", name, s.Score, politics.Score)
			}
		}
	})

	t.Run("no demographics returns neutral", func(t *testing.T) {
		res, _ := d.Score(ctx, &recsys.UserContext{Profile: &recsys.UserProfile{}}, &recsys.Article{Category: "sports"})
		if !almostEqual(res.Score, 0.5) {
			t.Errorf("score = %f, want 0.5", res.Score)
		}
	})

	t.Run("scores stay within bounds", func(t *testing.T) {
		article := &recsys.Article{
			Category: "technology",
			Location: recsys.LocationRelevance{Country: "US", State: "CA", City: "San Francisco"},
		}
		local := &recsys.UserContext{
			Profile: &recsys.UserProfile{
				Demographics: recsys.Demographics{
					Age:        28,
					Profession: "engineer",
					Location:   recsys.Location{Country: "US", State: "CA", City: "San Francisco"},
				},
			},
		}
		res, _ := d.Score(ctx, local, article)
		if res.Score < 0 || res.Score > 1 {
			t.Errorf("score %f out of [0,1]", res.Score)
		}
	})
}

func TestLocationBonus(t *testing.T) {
	tests := []struct {
		name    string
		user    recsys.Location
		article recsys.LocationRelevance
		want    float64
	}{
		{
			"country match",
			recsys.Location{Country: "US"},
			recsys.LocationRelevance{Country: "US"},
			0.3,
		},
		{
			"country and state",
			recsys.Location{Country: "US", State: "NY"},
			recsys.LocationRelevance{Country: "US", State: "NY"},
			0.5,
		},
		{
			"full match",
			recsys.Location{Country: "US", State: "NY", City: "New York"},
			recsys.LocationRelevance{Country: "US", State: "NY", City: "New York"},
			0.8,
		},
		{
			"city match requires state match",
			recsys.Location{Country: "US", State: "NY", City: "Albany"},
			recsys.LocationRelevance{Country: "US", State: "TX", City: "Albany"},
			0.3,
		},
		{
			"no country match",
			recsys.Location{Country: "GB"},
			recsys.LocationRelevance{Country: "US"},
			0,
		},
		{
			"missing data",
			recsys.Location{},
			recsys.LocationRelevance{Country: "US"},
			0,
		},
		{
			"case insensitive",
			recsys.Location{Country: "us"},
			recsys.LocationRelevance{Country: "US"},
			0.3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LocationBonus(tt.user, tt.article)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("LocationBonus() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestAgeBracket(t *testing.T) {
	tests := []struct {
		age  int
		want string
	}{
		{0, ""},
		{-3, ""},
		{12, "under18"},
		{18, "18-24"},
		{24, "18-24"},
		{25, "25-34"},
		{40, "35-49"},
		{55, "50-64"},
		{70, "65plus"},
	}

	for _, tt := range tests {
		if got := AgeBracket(tt.age); got != tt.want {
			t.Errorf("AgeBracket(%d) = %q, want %q", tt.age, got, tt.want)
		}
	}
}
