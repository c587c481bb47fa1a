// Quillfeed Recsys - Hybrid News Personalization & Recommendation Engine
// Copyright 2026 Quillfeed Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/recsys

package behavior

import (
	"sort"
	"strings"
	"time"

	"github.com/quillfeed/recsys/internal/recsys"
)

// Session is a run of interactions with no gap longer than the
// configured session gap.
type Session struct {
	Start        time.Time
	End          time.Time
	Interactions []recsys.Interaction
}

// Duration returns the session length.
func (s Session) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Sessions splits interactions into sessions. Input order does not
// matter; interactions are sorted by timestamp first.
func Sessions(interactions []recsys.Interaction, gap time.Duration) []Session {
	if len(interactions) == 0 {
		return nil
	}

	sorted := make([]recsys.Interaction, len(interactions))
	copy(sorted, interactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	sessions := []Session{{
		Start:        sorted[0].Timestamp,
		End:          sorted[0].Timestamp,
		Interactions: []recsys.Interaction{sorted[0]},
	}}

	for _, in := range sorted[1:] {
		cur := &sessions[len(sessions)-1]
		if in.Timestamp.Sub(cur.End) > gap {
			sessions = append(sessions, Session{
				Start:        in.Timestamp,
				End:          in.Timestamp,
				Interactions: []recsys.Interaction{in},
			})
			continue
		}
		cur.End = in.Timestamp
		cur.Interactions = append(cur.Interactions, in)
	}

	return sessions
}

// Pattern is a recurring category-to-category transition within
// sessions, with the share of sessions it appears in.
type Pattern struct {
	Sequence string  `json:"sequence"` // "from>to"
	Support  float64 `json:"support"`  // fraction of sessions containing it
	Count    int     `json:"count"`
}

// minPatternSupport is the session share below which a transition is
// noise, not a habit.
const minPatternSupport = 0.1

// maxPatterns bounds how many patterns are reported.
const maxPatterns = 10

// CategoryPatterns extracts recurring category transitions. Each
// transition counts at most once per session; patterns below 10%
// session support are dropped and at most the top ten are returned.
func CategoryPatterns(sessions []Session) []Pattern {
	if len(sessions) == 0 {
		return nil
	}

	counts := make(map[string]int)
	for _, s := range sessions {
		seen := make(map[string]struct{})
		for i := 1; i < len(s.Interactions); i++ {
			from := s.Interactions[i-1].Category
			to := s.Interactions[i].Category
			if from == "" || to == "" || from == to {
				continue
			}
			key := from + ">" + to
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			counts[key]++
		}
	}

	total := float64(len(sessions))
	patterns := make([]Pattern, 0, len(counts))
	for seq, n := range counts {
		support := float64(n) / total
		if support < minPatternSupport {
			continue
		}
		patterns = append(patterns, Pattern{Sequence: seq, Support: support, Count: n})
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		if patterns[i].Count != patterns[j].Count {
			return patterns[i].Count > patterns[j].Count
		}
		return patterns[i].Sequence < patterns[j].Sequence
	})

	if len(patterns) > maxPatterns {
		patterns = patterns[:maxPatterns]
	}
	return patterns
}

// Rhythm summarizes when and how long a user reads.
type Rhythm struct {
	AvgSessionMinutes float64 `json:"avg_session_minutes"`
	ActiveHours       []int   `json:"active_hours"` // top 3
	ActiveDays        []int   `json:"active_days"`  // top 3, 0=Sunday
	AttentionSeconds  float64 `json:"attention_seconds"`
}

// ReadingRhythm computes the user's reading rhythm from sessions.
func ReadingRhythm(sessions []Session) Rhythm {
	if len(sessions) == 0 {
		return Rhythm{}
	}

	var totalMinutes float64
	hourCounts := make(map[int]int)
	dayCounts := make(map[int]int)
	var readTotal float64
	var readCount int

	for _, s := range sessions {
		totalMinutes += s.Duration().Minutes()
		for i := range s.Interactions {
			in := &s.Interactions[i]
			hourCounts[in.HourOfDay]++
			dayCounts[in.DayOfWeek]++
			if in.ReadDuration > 0 {
				readTotal += in.ReadDuration
				readCount++
			}
		}
	}

	r := Rhythm{
		AvgSessionMinutes: totalMinutes / float64(len(sessions)),
		ActiveHours:       topKeys(hourCounts, 3),
		ActiveDays:        topKeys(dayCounts, 3),
	}
	if readCount > 0 {
		r.AttentionSeconds = readTotal / float64(readCount)
	}
	return r
}

// topKeys returns the n keys with the highest counts, ties toward the
// smaller key.
func topKeys(counts map[int]int, n int) []int {
	type kc struct{ key, count int }
	all := make([]kc, 0, len(counts))
	for k, c := range counts {
		all = append(all, kc{k, c})
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return all[i].key < all[j].key
	})
	if n > len(all) {
		n = len(all)
	}
	out := make([]int, 0, n)
	for _, e := range all[:n] {
		out = append(out, e.key)
	}
	return out
}

// Classification buckets a user's reading style.
type Classification struct {
	// SessionLength: short, medium, long.
	SessionLength string `json:"session_length"`

	// ScrollStyle: skimmer, selective, thorough.
	ScrollStyle string `json:"scroll_style"`

	// Engagement: low, medium, high.
	Engagement string `json:"engagement"`
}

// String renders the classification as a compact label.
func (c Classification) String() string {
	return strings.Join([]string{c.SessionLength, c.ScrollStyle, c.Engagement}, "/")
}

// Classify buckets reading behavior. Thresholds: read duration 120s and
// 300s split short/medium/long; scroll depth 0.3 and 0.8 split
// skimmer/selective/thorough; the share/save/like ratio 0.05 and 0.2
// splits low/medium/high engagement.
func Classify(interactions []recsys.Interaction) Classification {
	if len(interactions) == 0 {
		return Classification{SessionLength: "short", ScrollStyle: "selective", Engagement: "low"}
	}

	var readTotal, scrollTotal float64
	var readCount, scrollCount, social int

	for i := range interactions {
		in := &interactions[i]
		if in.ReadDuration > 0 {
			readTotal += in.ReadDuration
			readCount++
		}
		if in.ScrollDepth > 0 {
			scrollTotal += in.ScrollDepth
			scrollCount++
		}
		switch in.Action {
		case recsys.ActionShare, recsys.ActionSave, recsys.ActionLike:
			social++
		}
	}

	c := Classification{SessionLength: "short", ScrollStyle: "selective", Engagement: "low"}

	if readCount > 0 {
		switch avg := readTotal / float64(readCount); {
		case avg >= 300:
			c.SessionLength = "long"
		case avg >= 120:
			c.SessionLength = "medium"
		}
	}

	if scrollCount > 0 {
		switch avg := scrollTotal / float64(scrollCount); {
		case avg >= 0.8:
			c.ScrollStyle = "thorough"
		case avg < 0.3:
			c.ScrollStyle = "skimmer"
		}
	}

	switch ratio := float64(social) / float64(len(interactions)); {
	case ratio >= 0.2:
		c.Engagement = "high"
	case ratio >= 0.05:
		c.Engagement = "medium"
	}

	return c
}
