// Quillfeed Recsys - Hybrid News Personalization & Recommendation Engine
// Copyright 2026 Quillfeed Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/recsys

package behavior

import (
	"fmt"

	"github.com/quillfeed/recsys/internal/recsys"
)

// minAnomalyHistory is the history size below which anomaly detection
// stays silent; thin baselines produce noise, not signal.
const minAnomalyHistory = 20

// rareCategoryShare is the historical volume share below which a
// category interaction is unusual.
const rareCategoryShare = 0.05

// DetectAnomalies compares a batch against the user's historical
// baseline and flags unusual interactions. Anomalies are informational:
// they are reported and counted, never rejected.
//
// Three detectors run. Time: the interaction hour is outside the user's
// six most active hours. Category: the category holds under 5% of
// historical volume. Engagement: read duration over three times the
// personal average with near-complete scroll, flagged high severity.
func DetectAnomalies(history, batch []recsys.Interaction) []recsys.Anomaly {
	if len(history) < minAnomalyHistory || len(batch) == 0 {
		return nil
	}

	activeHours := topActiveHours(history, 6)
	categoryShare := categoryShares(history)
	avgRead := averageReadDuration(history)

	var anomalies []recsys.Anomaly
	for i := range batch {
		in := &batch[i]

		if len(activeHours) == 6 && !activeHours[in.HourOfDay] {
			anomalies = append(anomalies, recsys.Anomaly{
				Type:      recsys.AnomalyTime,
				Severity:  recsys.SeverityLow,
				ArticleID: in.ArticleID,
				Detail:    fmt.Sprintf("activity at hour %d, outside usual hours", in.HourOfDay),
			})
		}

		if in.Category != "" {
			if share, seen := categoryShare[in.Category]; !seen || share < rareCategoryShare {
				anomalies = append(anomalies, recsys.Anomaly{
					Type:      recsys.AnomalyCategory,
					Severity:  recsys.SeverityMedium,
					ArticleID: in.ArticleID,
					Detail:    fmt.Sprintf("rare category %q for this user", in.Category),
				})
			}
		}

		if avgRead > 0 && in.ReadDuration > 3*avgRead && in.ScrollDepth > 0.9 {
			anomalies = append(anomalies, recsys.Anomaly{
				Type:      recsys.AnomalyEngagement,
				Severity:  recsys.SeverityHigh,
				ArticleID: in.ArticleID,
				Detail: fmt.Sprintf("read %.0fs against a %.0fs average with full scroll",
					in.ReadDuration, avgRead),
			})
		}
	}

	return anomalies
}

// topActiveHours returns the user's n busiest hours as a set, or an
// incomplete set when the user is active in fewer hours.
func topActiveHours(history []recsys.Interaction, n int) map[int]bool {
	counts := make(map[int]int)
	for i := range history {
		counts[history[i].HourOfDay]++
	}

	out := make(map[int]bool, n)
	for _, h := range topKeys(counts, n) {
		out[h] = true
	}
	return out
}

// categoryShares returns each category's fraction of historical volume.
func categoryShares(history []recsys.Interaction) map[string]float64 {
	counts := make(map[string]int)
	total := 0
	for i := range history {
		c := history[i].Category
		if c == "" {
			continue
		}
		counts[c]++
		total++
	}

	shares := make(map[string]float64, len(counts))
	if total == 0 {
		return shares
	}
	for c, n := range counts {
		shares[c] = float64(n) / float64(total)
	}
	return shares
}

// averageReadDuration returns the mean read duration over interactions
// that recorded one.
func averageReadDuration(history []recsys.Interaction) float64 {
	var total float64
	var count int
	for i := range history {
		if history[i].ReadDuration > 0 {
			total += history[i].ReadDuration
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}
