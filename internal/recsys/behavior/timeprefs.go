// Quillfeed Recsys - Hybrid News Personalization & Recommendation Engine
// Copyright 2026 Quillfeed Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/recsys

// Package behavior derives behavioral signals from interaction history:
// time-of-day preferences, session patterns, interest prediction,
// adaptive preference updates and anomaly flags.
//
// Nothing in this package returns an error for missing or thin data.
// Sparse history yields low-confidence defaults.
package behavior

import (
	"sort"
	"time"

	"github.com/quillfeed/recsys/internal/recsys"
)

// BuildTimePreferences aggregates interactions into a per-hour category
// preference table. Each interaction contributes its action weight,
// decayed by age with the given half-life; neighboring hours are
// smoothed with a circular 0.25/0.5/0.25 kernel so a 9am reader also
// registers at 8am and 10am. Values are normalized to [0,1] against
// the strongest bucket.
func BuildTimePreferences(interactions []recsys.Interaction, halfLife time.Duration, now time.Time) recsys.TimePreferenceTable {
	raw := recsys.NewTimePreferenceTable()

	for i := range interactions {
		in := &interactions[i]
		if in.Category == "" || in.HourOfDay < 0 || in.HourOfDay > 23 {
			continue
		}
		w := in.Action.Weight()
		if w <= 0 {
			continue
		}
		raw[in.HourOfDay][in.Category] += w * recsys.HalfLifeDecay(now.Sub(in.Timestamp), halfLife)
	}

	smoothed := recsys.NewTimePreferenceTable()
	maxVal := 0.0
	for h := 0; h < 24; h++ {
		prev, next := (h+23)%24, (h+1)%24
		for _, c := range categoriesIn(raw, h, prev, next) {
			v := 0.25*raw[prev][c] + 0.5*raw[h][c] + 0.25*raw[next][c]
			if v == 0 {
				continue
			}
			smoothed[h][c] = v
			if v > maxVal {
				maxVal = v
			}
		}
	}

	if maxVal > 0 {
		for h := range smoothed {
			for c := range smoothed[h] {
				smoothed[h][c] /= maxVal
			}
		}
	}

	return smoothed
}

// categoriesIn returns the union of category keys present in the given
// hour buckets.
func categoriesIn(t recsys.TimePreferenceTable, hours ...int) []string {
	set := make(map[string]struct{})
	for _, h := range hours {
		for c := range t[h] {
			set[c] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// TopHours returns the n hours with the highest total preference mass,
// most active first. Ties break toward the earlier hour.
func TopHours(t recsys.TimePreferenceTable, n int) []int {
	type hourMass struct {
		hour int
		mass float64
	}
	masses := make([]hourMass, 0, 24)
	for h := 0; h < 24; h++ {
		total := 0.0
		for _, v := range t[h] {
			total += v
		}
		if total > 0 {
			masses = append(masses, hourMass{hour: h, mass: total})
		}
	}

	sort.SliceStable(masses, func(i, j int) bool {
		if masses[i].mass != masses[j].mass {
			return masses[i].mass > masses[j].mass
		}
		return masses[i].hour < masses[j].hour
	})

	if n > len(masses) {
		n = len(masses)
	}
	out := make([]int, 0, n)
	for _, m := range masses[:n] {
		out = append(out, m.hour)
	}
	return out
}

// HourPreference returns the normalized preference for a category at an
// hour, zero when never observed.
func HourPreference(t recsys.TimePreferenceTable, hour int, category string) float64 {
	if hour < 0 || hour > 23 {
		return 0
	}
	return t[hour][category]
}
