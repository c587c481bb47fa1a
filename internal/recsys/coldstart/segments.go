// Quillfeed Recsys - Hybrid News Personalization & Recommendation Engine
// Copyright 2026 Quillfeed Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/recsys

package coldstart

import (
	"sort"
	"strings"
	"sync"

	"github.com/quillfeed/recsys/internal/recsys"
	"github.com/quillfeed/recsys/internal/recsys/scorers"
)

// Segment is a predefined demographic cluster with precomputed typical
// category weights. Matching a segment is a fast path for new-user
// weight generation, not a replacement for the general algorithm.
type Segment struct {
	Name        string
	AgeMin      int
	AgeMax      int
	Professions []string
	Weights     map[string]float64
}

// segments are checked in order; the first match wins.
var segments = []Segment{
	{
		Name:        "students",
		AgeMin:      16,
		AgeMax:      26,
		Professions: []string{"student"},
		Weights: map[string]float64{
			"technology": 0.8, "entertainment": 0.75, "sports": 0.6,
			"science": 0.5, "world": 0.3, "politics": 0.2,
		},
	},
	{
		Name:        "young_professionals",
		AgeMin:      25,
		AgeMax:      35,
		Professions: []string{"engineer", "developer", "designer", "analyst", "consultant"},
		Weights: map[string]float64{
			"technology": 0.85, "business": 0.6, "science": 0.5,
			"entertainment": 0.45, "sports": 0.4, "health": 0.35,
		},
	},
	{
		Name:        "senior_executives",
		AgeMin:      40,
		AgeMax:      70,
		Professions: []string{"executive", "director", "manager", "founder"},
		Weights: map[string]float64{
			"business": 0.9, "politics": 0.7, "world": 0.65,
			"technology": 0.5, "health": 0.4,
		},
	},
	{
		Name:        "healthcare_workers",
		AgeMin:      24,
		AgeMax:      65,
		Professions: []string{"doctor", "nurse", "pharmacist"},
		Weights: map[string]float64{
			"health": 0.9, "science": 0.7, "world": 0.4, "politics": 0.3,
		},
	},
}

// SegmentFor returns the first segment matching the user's age range
// and profession, if any.
func SegmentFor(demo recsys.Demographics) (*Segment, bool) {
	profession := strings.ToLower(strings.TrimSpace(demo.Profession))
	for i := range segments {
		s := &segments[i]
		if demo.Age < s.AgeMin || demo.Age > s.AgeMax {
			continue
		}
		for _, p := range s.Professions {
			if p == profession {
				return s, true
			}
		}
	}
	return nil, false
}

// profileKey builds the composite demographic key used for similarity
// lookup: age bracket, profession, gender, country and state.
func profileKey(demo recsys.Demographics) string {
	return strings.ToLower(strings.Join([]string{
		scorers.AgeBracket(demo.Age),
		strings.TrimSpace(demo.Profession),
		strings.TrimSpace(demo.Gender),
		strings.TrimSpace(demo.Location.Country),
		strings.TrimSpace(demo.Location.State),
	}, "|"))
}

// partialKey keys on (age bracket, profession) only.
func partialKey(demo recsys.Demographics) string {
	return strings.ToLower(strings.Join([]string{
		scorers.AgeBracket(demo.Age),
		strings.TrimSpace(demo.Profession),
	}, "|"))
}

// ProfileIndex indexes known user profiles by demographic key so new
// users can borrow the learned weights of demographically similar
// existing users. Safe for concurrent use.
type ProfileIndex struct {
	mu      sync.RWMutex
	exact   map[string]recsys.CategoryWeights
	partial map[string]recsys.CategoryWeights
}

// NewProfileIndex creates an empty index.
func NewProfileIndex() *ProfileIndex {
	return &ProfileIndex{
		exact:   make(map[string]recsys.CategoryWeights),
		partial: make(map[string]recsys.CategoryWeights),
	}
}

// Observe records an existing user's learned weights under their
// demographic keys. Later observations overwrite earlier ones; the
// index needs a representative profile, not an average.
func (idx *ProfileIndex) Observe(profile *recsys.UserProfile) {
	if profile == nil || len(profile.Behavior.CategoryWeights.Weights) == 0 {
		return
	}

	weights := profile.Behavior.CategoryWeights.Clone()
	weights.Clamp()

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.exact[profileKey(profile.Demographics)] = weights
	idx.partial[partialKey(profile.Demographics)] = weights
}

// Lookup finds weights for a demographically similar user: exact
// composite key first, then partial (age bracket, profession). The
// returned weights are adapted copies: categories matching the new
// user's stated interests are boosted 1.2x and confidence is reset to
// a medium 0.4.
func (idx *ProfileIndex) Lookup(demo recsys.Demographics, interests []string) (recsys.CategoryWeights, bool) {
	idx.mu.RLock()
	found, ok := idx.exact[profileKey(demo)]
	if !ok {
		found, ok = idx.partial[partialKey(demo)]
	}
	idx.mu.RUnlock()

	if !ok {
		return recsys.CategoryWeights{}, false
	}

	adapted := found.Clone()
	for _, interest := range interests {
		c := strings.ToLower(strings.TrimSpace(interest))
		if w, present := adapted.Weights[c]; present {
			adapted.Weights[c] = recsys.Clamp01(w * 1.2)
		} else if recsys.CategoryIndex(c) >= 0 {
			adapted.Weights[c] = 0.3
		}
	}
	adapted.Confidence = 0.4
	return adapted, true
}

// SegmentNames returns the known segment names, sorted. Used for
// diagnostics.
func SegmentNames() []string {
	names := make([]string, 0, len(segments))
	for _, s := range segments {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}
