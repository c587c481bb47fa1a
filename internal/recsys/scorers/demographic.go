// Quillfeed Recsys - Hybrid News Personalization & Recommendation Engine
// Copyright 2026 Quillfeed Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/recsys

package scorers

import (
	"context"
	"fmt"
	"strings"

	"github.com/quillfeed/recsys/internal/recsys"
)

// Demographic scores an article by table-driven demographic affinity.
// Three lookup tables (age bracket, profession, country) each contribute
// an additive component, plus a location relevance bonus when the
// article's geographic tag matches the user's location.
type Demographic struct {
	// AgeWeight, ProfessionWeight, CountryWeight scale the table
	// contributions; LocationWeight scales the geographic bonus.
	AgeWeight        float64
	ProfessionWeight float64
	CountryWeight    float64
	LocationWeight   float64
}

// NewDemographic creates a demographic scorer with default weights.
func NewDemographic() *Demographic {
	return &Demographic{
		AgeWeight:        0.3,
		ProfessionWeight: 0.4,
		CountryWeight:    0.2,
		LocationWeight:   0.2,
	}
}

// Name returns the pipeline identifier.
func (d *Demographic) Name() string {
	return string(recsys.PipelineDemographic)
}

// ageAffinities maps age bracket -> category -> affinity.
var ageAffinities = map[string]map[string]float64{
	"under18": {
		"entertainment": 0.9, "sports": 0.8, "technology": 0.7, "science": 0.5,
	},
	"18-24": {
		"technology": 0.9, "entertainment": 0.85, "sports": 0.75, "science": 0.5,
		"business": 0.35, "health": 0.3, "world": 0.3, "politics": 0.2,
	},
	"25-34": {
		"technology": 0.8, "business": 0.65, "entertainment": 0.6, "sports": 0.55,
		"health": 0.45, "science": 0.45, "world": 0.4, "politics": 0.35,
	},
	"35-49": {
		"business": 0.7, "politics": 0.6, "technology": 0.55, "health": 0.55,
		"world": 0.5, "sports": 0.5, "science": 0.4, "entertainment": 0.35,
	},
	"50-64": {
		"politics": 0.75, "world": 0.65, "health": 0.65, "business": 0.6,
		"sports": 0.45, "science": 0.4,
	},
	"65plus": {
		"politics": 0.8, "health": 0.75, "world": 0.7, "business": 0.5,
	},
}

// professionAffinities maps normalized profession -> category -> affinity.
var professionAffinities = map[string]map[string]float64{
	"student": {
		"technology": 0.85, "entertainment": 0.75, "sports": 0.65, "science": 0.6,
		"world": 0.35, "politics": 0.25,
	},
	"engineer": {
		"technology": 0.95, "science": 0.7, "business": 0.45, "sports": 0.4,
	},
	"doctor": {
		"health": 0.95, "science": 0.75, "world": 0.4,
	},
	"teacher": {
		"science": 0.7, "world": 0.6, "politics": 0.5, "health": 0.45,
	},
	"executive": {
		"business": 0.95, "politics": 0.65, "world": 0.6, "technology": 0.5,
	},
	"lawyer": {
		"politics": 0.85, "business": 0.7, "world": 0.55,
	},
	"journalist": {
		"world": 0.9, "politics": 0.85, "entertainment": 0.5,
	},
	"retired": {
		"politics": 0.7, "health": 0.7, "world": 0.6,
	},
}

// countryAffinities maps ISO-ish country code -> category -> affinity.
var countryAffinities = map[string]map[string]float64{
	"US": {"sports": 0.6, "politics": 0.6, "technology": 0.55, "entertainment": 0.5},
	"GB": {"politics": 0.6, "sports": 0.6, "world": 0.5},
	"IN": {"technology": 0.65, "sports": 0.6, "entertainment": 0.55, "business": 0.5},
	"DE": {"business": 0.6, "politics": 0.55, "sports": 0.5},
	"JP": {"technology": 0.65, "business": 0.55, "entertainment": 0.5},
	"BR": {"sports": 0.7, "entertainment": 0.55, "politics": 0.45},
}

// AgeBracket buckets an age for table lookup.
func AgeBracket(age int) string {
	switch {
	case age <= 0:
		return ""
	case age < 18:
		return "under18"
	case age <= 24:
		return "18-24"
	case age <= 34:
		return "25-34"
	case age <= 49:
		return "35-49"
	case age <= 64:
		return "50-64"
	default:
		return "65plus"
	}
}

// AgeAffinity returns the table affinity of an age for a category.
func AgeAffinity(age int, category string) float64 {
	return ageAffinities[AgeBracket(age)][category]
}

// ProfessionAffinity returns the table affinity of a profession for a
// category.
func ProfessionAffinity(profession, category string) float64 {
	return professionAffinities[strings.ToLower(strings.TrimSpace(profession))][category]
}

// CountryAffinity returns the table affinity of a country for a
// category.
func CountryAffinity(country, category string) float64 {
	return countryAffinities[strings.ToUpper(strings.TrimSpace(country))][category]
}

// Score rates an article by demographic affinity. Users with no usable
// demographics get the neutral score.
func (d *Demographic) Score(ctx context.Context, user *recsys.UserContext, article *recsys.Article) (recsys.ScoreResult, error) {
	if contextCancelled(ctx) {
		return recsys.ScoreResult{}, ctx.Err()
	}

	if user == nil || user.Profile == nil || article == nil {
		return recsys.ScoreResult{Score: neutralScore, Reason: "no demographic data"}, nil
	}

	demo := user.Profile.Demographics
	bracket := AgeBracket(demo.Age)
	profession := strings.ToLower(strings.TrimSpace(demo.Profession))
	country := strings.ToUpper(strings.TrimSpace(demo.Location.Country))

	if bracket == "" && profession == "" && country == "" {
		return recsys.ScoreResult{Score: neutralScore, Reason: "no demographic data"}, nil
	}

	var score float64
	var matched []string

	if aff, ok := ageAffinities[bracket][article.Category]; ok {
		score += d.AgeWeight * aff
		matched = append(matched, "age group")
	}
	if aff, ok := professionAffinities[profession][article.Category]; ok {
		score += d.ProfessionWeight * aff
		matched = append(matched, demo.Profession)
	}
	if aff, ok := countryAffinities[country][article.Category]; ok {
		score += d.CountryWeight * aff
		matched = append(matched, "region")
	}

	if bonus := LocationBonus(demo.Location, article.Location); bonus > 0 {
		score += d.LocationWeight * bonus
		matched = append(matched, "local relevance")
	}

	reason := "broadly relevant to your demographic"
	if len(matched) > 0 {
		reason = fmt.Sprintf("popular with readers matching your %s", strings.Join(matched, ", "))
	}

	return recsys.ScoreResult{Score: recsys.Clamp01(score), Reason: reason}, nil
}

// LocationBonus computes the graduated geographic match bonus: country
// 0.3, state +0.2, city +0.3, additive and capped at 1.0. Finer matches
// require the coarser ones to match too.
func LocationBonus(user recsys.Location, article recsys.LocationRelevance) float64 {
	if user.Country == "" || article.Country == "" {
		return 0
	}
	if !strings.EqualFold(user.Country, article.Country) {
		return 0
	}

	bonus := 0.3
	if user.State != "" && strings.EqualFold(user.State, article.State) {
		bonus += 0.2
		if user.City != "" && strings.EqualFold(user.City, article.City) {
			bonus += 0.3
		}
	}

	return recsys.Clamp01(bonus)
}
