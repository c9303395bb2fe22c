// Package brief implements the brief read-model builder (spec.md
// §4.K): a windowed, deterministically sorted view over alerts.
//
// Grounded on moolen-spectre/internal/models/query_result.go's
// versioned-envelope-with-derived-summaries shape, adapted from raw
// event counts to alert classification/tier summaries.
package brief

import (
	"sort"
	"time"

	"github.com/hardstop/hardstop/internal/models"
)

const ReadModelVersion = "brief.v1"

// DefaultTopClassTwoLimit is the default cap on the "top" section; see
// SPEC_FULL.md's Open-Questions decision 3.
const DefaultTopClassTwoLimit = 2

// Window is one of the three supported lookback windows.
type Window time.Duration

const (
	Window24h  Window = Window(24 * time.Hour)
	Window72h  Window = Window(72 * time.Hour)
	Window168h Window = Window(168 * time.Hour)
)

// Config tunes the builder's optional behaviors.
type Config struct {
	Limit               int
	TopClassTwoLimit    int
	ExcludeInteresting  bool // optional class-0 exclusion
}

// Counts summarizes alerts in the window by correlation action and
// classification.
type Counts struct {
	New         int
	Updated     int
	Impactful   int
	Relevant    int
	Interesting int
}

// TierCounts summarizes alerts in the window by tier.
type TierCounts struct {
	Global   int
	Regional int
	Local    int
	Unknown  int
}

// RuleSuppressionCount is one entry of the top-5 by_rule/by_source
// breakdowns.
type RuleSuppressionCount struct {
	Key   string
	Count int
}

// SuppressedSummary summarizes suppressed items observed in the window.
type SuppressedSummary struct {
	Count    int
	ByRule   []RuleSuppressionCount // top 5, descending count then key asc
	BySource []RuleSuppressionCount // top 5, descending count then key asc
}

// Report is the versioned brief envelope.
type Report struct {
	ReadModelVersion string
	WindowHours      int
	Updated          []models.Alert
	Created          []models.Alert
	Top              []models.Alert
	Counts           Counts
	TierCounts       TierCounts
	Suppressed       SuppressedSummary
}

// SuppressionObservation is one suppressed-item fact the caller
// supplies for the suppressed-summary section (the builder itself
// never re-queries the raw-item store).
type SuppressionObservation struct {
	RuleID   string
	SourceID string
}

// Build produces the brief for the given window. alerts is the full
// candidate set (already loaded by the caller); Build performs the
// cutoff filter, sort, partition, and summary derivation itself so the
// ordering logic lives in one place.
func Build(alerts []models.Alert, suppressed []SuppressionObservation, window Window, now time.Time, cfg Config) Report {
	if cfg.TopClassTwoLimit <= 0 {
		cfg.TopClassTwoLimit = DefaultTopClassTwoLimit
	}

	cutoff := now.Add(-time.Duration(window))
	var inWindow []models.Alert
	for _, a := range alerts {
		if a.LastSeenUTC.Before(cutoff) && a.FirstSeenUTC.Before(cutoff) {
			continue
		}
		if cfg.ExcludeInteresting && a.Classification == models.ClassificationInteresting {
			continue
		}
		inWindow = append(inWindow, a)
	}
	sortAlerts(inWindow)

	var updated, created []models.Alert
	for _, a := range inWindow {
		switch a.CorrelationAction {
		case models.CorrelationUpdated:
			updated = append(updated, a)
		case models.CorrelationCreated:
			created = append(created, a)
		}
	}
	updated = capSlice(updated, cfg.Limit)
	created = capSlice(created, cfg.Limit)

	top := topClassTwo(inWindow, cfg.TopClassTwoLimit)

	return Report{
		ReadModelVersion: ReadModelVersion,
		WindowHours:      int(time.Duration(window).Hours()),
		Updated:          updated,
		Created:          created,
		Top:              top,
		Counts:           countAlerts(inWindow),
		TierCounts:       countTiers(inWindow),
		Suppressed:       summarizeSuppressed(suppressed),
	}
}

// sortAlerts applies spec.md §4.K's total order: classification desc,
// impact_score desc, update_count desc, last_seen_utc desc, alert_id asc.
func sortAlerts(alerts []models.Alert) {
	sort.Slice(alerts, func(i, j int) bool {
		a, b := alerts[i], alerts[j]
		if a.Classification != b.Classification {
			return a.Classification > b.Classification
		}
		if a.ImpactScore != b.ImpactScore {
			return a.ImpactScore > b.ImpactScore
		}
		if a.UpdateCount != b.UpdateCount {
			return a.UpdateCount > b.UpdateCount
		}
		if !a.LastSeenUTC.Equal(b.LastSeenUTC) {
			return a.LastSeenUTC.After(b.LastSeenUTC)
		}
		return a.AlertID < b.AlertID
	})
}

func topClassTwo(sortedAlerts []models.Alert, limit int) []models.Alert {
	var out []models.Alert
	for _, a := range sortedAlerts {
		if a.Classification != models.ClassificationImpactful {
			continue
		}
		out = append(out, a)
		if len(out) == limit {
			break
		}
	}
	return out
}

func countAlerts(alerts []models.Alert) Counts {
	var c Counts
	for _, a := range alerts {
		switch a.CorrelationAction {
		case models.CorrelationCreated:
			c.New++
		case models.CorrelationUpdated:
			c.Updated++
		}
		switch a.Classification {
		case models.ClassificationImpactful:
			c.Impactful++
		case models.ClassificationRelevant:
			c.Relevant++
		case models.ClassificationInteresting:
			c.Interesting++
		}
	}
	return c
}

func countTiers(alerts []models.Alert) TierCounts {
	var t TierCounts
	for _, a := range alerts {
		switch a.Tier {
		case models.TierGlobal:
			t.Global++
		case models.TierRegional:
			t.Regional++
		case models.TierLocal:
			t.Local++
		default:
			t.Unknown++
		}
	}
	return t
}

func summarizeSuppressed(obs []SuppressionObservation) SuppressedSummary {
	byRule := map[string]int{}
	bySource := map[string]int{}
	for _, o := range obs {
		if o.RuleID != "" {
			byRule[o.RuleID]++
		}
		if o.SourceID != "" {
			bySource[o.SourceID]++
		}
	}
	return SuppressedSummary{
		Count:    len(obs),
		ByRule:   topN(byRule, 5),
		BySource: topN(bySource, 5),
	}
}

func topN(counts map[string]int, n int) []RuleSuppressionCount {
	out := make([]RuleSuppressionCount, 0, len(counts))
	for k, v := range counts {
		out = append(out, RuleSuppressionCount{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func capSlice(alerts []models.Alert, limit int) []models.Alert {
	if limit <= 0 || len(alerts) <= limit {
		return alerts
	}
	return alerts[:limit]
}
