package models

import "time"

// EventType is the canonical classification of a signal.
type EventType string

const (
	EventTypeSafetyAndOperations EventType = "SAFETY_AND_OPERATIONS"
	EventTypeWeather             EventType = "WEATHER"
	EventTypeRecall              EventType = "RECALL"
	EventTypeOther               EventType = "OTHER"
)

// Event is the canonical representation of a signal, immutable after
// creation, exclusively owned by the event store.
type Event struct {
	EventID          string
	SourceType       string
	SourceID         string
	Title            string
	Summary          string
	RawText          string
	EventType        EventType
	SeverityGuess    int // 1-5
	City             string
	State            string
	Country          string
	Facilities       []string
	Lanes            []string
	Shipments        []string
	ShipmentsTotal   int
	ShipmentsTrunc   bool
	Suppression      SuppressionMeta
	TrustTier        TrustTier
	Tier             Tier
	PublishedAtUTC   time.Time
	ObservedOrFetch  time.Time // observed_or_fetched_at used to seed alert timestamps
	URL              string
	SourceMetadata   MetadataMap
}

// Validate checks structural invariants.
func (e *Event) Validate() error {
	if e.EventID == "" {
		return NewValidationError("event_id is required")
	}
	if e.SourceID == "" {
		return NewValidationError("source_id is required")
	}
	if e.SeverityGuess < 0 || e.SeverityGuess > 5 {
		return NewValidationError("event %s severity_guess out of range: %d", e.EventID, e.SeverityGuess)
	}
	return nil
}

// IsSuppressed reports whether the event carries a suppression stamp.
func (e *Event) IsSuppressed() bool {
	return e.Suppression.Suppressed
}
