package canonicalize

import (
	"strings"

	"github.com/hardstop/hardstop/internal/models"
)

// eventTypeRule is one row of the pinned, ordered keyword table used to
// infer event_type. First match wins; the table itself is load-time
// immutable Go data, not loaded from disk, so it never needs hashing —
// it is part of the operator's implicit version (canonicalization.normalize@1.0.0).
type eventTypeRule struct {
	eventType models.EventType
	keywords  []string
}

var eventTypeTable = []eventTypeRule{
	{models.EventTypeRecall, []string{"recall", "recalled", "recalling"}},
	{models.EventTypeWeather, []string{"storm", "hurricane", "tornado", "blizzard", "flood", "flooding", "winter weather", "snow", "ice storm"}},
	{models.EventTypeSafetyAndOperations, []string{
		"spill", "explosion", "closure", "closed", "evacuation", "evacuate",
		"hazmat", "chemical", "leak", "fire", "collision", "derailment",
		"accident", "shutdown",
	}},
}

// InferEventType matches title+rawText against the pinned keyword table
// in declared order, returning the first match's event type or OTHER.
func InferEventType(title, rawText string) models.EventType {
	haystack := strings.ToLower(title + " " + rawText)
	for _, rule := range eventTypeTable {
		for _, kw := range rule.keywords {
			if strings.Contains(haystack, kw) {
				return rule.eventType
			}
		}
	}
	return models.EventTypeOther
}

// ImpactKeywords is the pinned set consulted by the impact scorer's
// event-type keyword bonus (spec.md §4.F). Kept here, next to the
// event-type table it overlaps with, so both pinned tables are visible
// together.
var ImpactKeywords = []string{"spill", "explosion", "closure", "recall", "evacuation"}

// MatchedImpactKeywords returns, in ImpactKeywords order, which keywords
// appear in the haystack (case-insensitive), for use in the scorer's
// rationale payload.
func MatchedImpactKeywords(title, rawText string) []string {
	haystack := strings.ToLower(title + " " + rawText)
	var matched []string
	for _, kw := range ImpactKeywords {
		if strings.Contains(haystack, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}
