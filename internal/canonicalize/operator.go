// Package canonicalize implements the canonicalization operator
// (spec.md §4.C): RawItem -> Event with stable field ordering and
// deterministic entity extraction.
//
// Grounded on moolen-spectre/internal/graph/sync/extractors (field
// extraction from heterogeneous source payloads) and
// internal/api/parsing/timestamp.go (strict-then-fallback date parsing
// idiom, mirrored here via go-dateparser).
package canonicalize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/hardstop/hardstop/internal/logging"
	"github.com/hardstop/hardstop/internal/models"
	"github.com/hardstop/hardstop/internal/provenance"
)

const OperatorID = "canonicalization.normalize@1.0.0"

var log = logging.GetLogger("canonicalize")

// Result bundles the produced Event with any warnings encountered — never
// a fatal error, per §7's CanonicalizationWarning kind.
type Result struct {
	Event    *models.Event
	Warnings []models.Warning
}

// shortID returns the first 8 hex characters of SHA-256(id), the
// deterministic shortening used to build event_id from a RawItem's
// canonical_id or content_hash.
func shortID(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])[:8]
}

// Normalize maps a single RawItem to exactly one Event. It never returns
// an error for malformed content — unparseable fields degrade with a
// warning, matching §4.C/§7.
func Normalize(item *models.RawItem, clock provenance.Clock) *Result {
	res := &Result{}

	idSource := item.CanonicalID
	if idSource == "" {
		idSource = item.ContentHash
	}
	eventID := "EVT-" + shortID(idSource)

	eventType := InferEventType(item.Title, item.RawText)
	if item.EventTypeHint != "" {
		if hinted := models.EventType(item.EventTypeHint); hinted != "" {
			eventType = hinted
		}
	}

	loc := ExtractLocation(item.Title + " " + item.RawText)

	published := item.PublishedAtUTC
	observed := item.PublishedAtUTC
	if observed.IsZero() {
		observed = item.FetchedAtUTC
	}

	sourceMeta := models.MetadataMap{
		"source_id":        item.SourceID,
		"tier":             string(item.Tier),
		"url":              item.URL,
		"published_at_utc": published.Format("2006-01-02T15:04:05Z"),
	}

	ev := &models.Event{
		EventID:         eventID,
		SourceType:      item.SourceID,
		SourceID:        item.SourceID,
		Title:           item.Title,
		Summary:         item.Summary,
		RawText:         item.RawText,
		EventType:       eventType,
		SeverityGuess:   severityGuess(eventType),
		City:            loc.City,
		State:           loc.State,
		TrustTier:       item.TrustTier,
		Tier:            item.Tier,
		PublishedAtUTC:  published,
		ObservedOrFetch: observed,
		URL:             item.URL,
		SourceMetadata:  sourceMeta,
		Suppression:     models.SuppressionMeta{},
	}

	if err := ev.Validate(); err != nil {
		res.Warnings = append(res.Warnings, models.Warning{
			Kind:    "CanonicalizationWarning",
			Message: err.Error(),
			ItemID:  item.RawItemID,
		})
	}

	res.Event = ev
	log.Debug("canonicalized raw item %s -> event %s (type=%s)", item.RawItemID, ev.EventID, ev.EventType)
	return res
}

// severityGuess maps an event type to a pinned default severity (1-5).
// This is a coarse starting point; downstream scoring uses richer
// signals. Kept intentionally simple and load-time-immutable.
func severityGuess(t models.EventType) int {
	switch t {
	case models.EventTypeSafetyAndOperations:
		return 4
	case models.EventTypeWeather:
		return 3
	case models.EventTypeRecall:
		return 2
	default:
		return 1
	}
}

// EventArtifactRef builds the {id,kind,hash} ref for a produced Event,
// scrubbing wall-clock fields per the caller's determinism mode before
// hashing.
func EventArtifactRef(ev *models.Event, live bool) (models.ArtifactRef, error) {
	payload := scrubEventForHash(ev, live)
	hash, err := provenance.ArtifactHash(payload)
	if err != nil {
		return models.ArtifactRef{}, fmt.Errorf("hashing event %s: %w", ev.EventID, err)
	}
	return models.ArtifactRef{ID: ev.EventID, Kind: string(provenance.KindEvent), Hash: hash}, nil
}

type hashableEvent struct {
	EventID        string
	SourceID       string
	Title          string
	EventType      models.EventType
	City           string
	State          string
	PublishedAtUTC string
}

// scrubEventForHash normalizes an Event for hashing. PublishedAtUTC comes
// from the raw item, so a set value participates as-is in both modes; in
// live mode a zero (absent) PublishedAtUTC is written as the sentinel.
func scrubEventForHash(ev *models.Event, live bool) hashableEvent {
	published := ev.PublishedAtUTC.Format("2006-01-02T15:04:05Z")
	if live && ev.PublishedAtUTC.IsZero() {
		published = provenance.TimestampSentinel
	}
	return hashableEvent{
		EventID:        ev.EventID,
		SourceID:       ev.SourceID,
		Title:          ev.Title,
		EventType:      ev.EventType,
		City:           ev.City,
		State:          ev.State,
		PublishedAtUTC: published,
	}
}
