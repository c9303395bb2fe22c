package correlator

import (
	"strings"

	"github.com/hardstop/hardstop/internal/models"
)

// bucketTable is the pinned event_type-to-bucket mapping used in the
// correlation key. One-to-one with the event_type enum today; kept as
// an explicit table (not a direct string cast) so a future event_type
// split doesn't silently change every correlation_key downstream.
var bucketTable = map[models.EventType]string{
	models.EventTypeSafetyAndOperations: "SAFETY",
	models.EventTypeWeather:             "WEATHER",
	models.EventTypeRecall:              "RECALL",
	models.EventTypeOther:               "OTHER",
}

// Key derives the correlation_key "<BUCKET>|<FACILITY_ID>|<LANE_ID>" per
// spec.md §4.G: FACILITY_ID/LANE_ID are the lexicographically smallest
// linked id, or "*" when the event links to none.
func Key(eventType models.EventType, facilityIDs, laneIDs []string) string {
	bucket, ok := bucketTable[eventType]
	if !ok {
		bucket = "OTHER"
	}
	return strings.Join([]string{bucket, smallestOr(facilityIDs, "*"), smallestOr(laneIDs, "*")}, "|")
}

// smallestOr returns the lexicographically smallest string in ids, or
// fallback if ids is empty. ids need not be sorted.
func smallestOr(ids []string, fallback string) string {
	if len(ids) == 0 {
		return fallback
	}
	smallest := ids[0]
	for _, id := range ids[1:] {
		if id < smallest {
			smallest = id
		}
	}
	return smallest
}
