// Package correlator implements the alert correlator (spec.md §4.G):
// derives a correlation_key per event, looks up an active alert within
// the 7-day window, and performs the CREATE/UPDATE decision.
//
// Grounded on moolen-spectre/internal/graph/reconciler/reconciler.go's
// find-existing-or-create reconciliation loop, generalized from graph
// resources to alerts, and internal/graph/sync/causality.go's windowed
// correlation of related events.
package correlator

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"

	"github.com/hardstop/hardstop/internal/logging"
	"github.com/hardstop/hardstop/internal/models"
)

var log = logging.GetLogger("correlator")

const Window = 7 * 24 * time.Hour

const OperatorID = "correlation.upsert@1.0.0"

// Input is everything the correlator needs about one (non-suppressed)
// event to perform its CREATE/UPDATE decision.
type Input struct {
	Event          *models.Event
	Scope          models.AlertScope
	ImpactScore    int
	Classification models.AlertClassification
	Rationale      models.ImpactRationale
	LinkingNotes   []string
	Now            time.Time

	// ResolveShipments re-queries shipment eligibility and truncation
	// for a lane set, used on UPDATE to re-derive the alert's shipments
	// from the union of every event's linked lanes rather than copying
	// the incoming event's own isolated linkage (spec.md §4.G.3:
	// "shipments re-queried to respect truncation rules"). nil when the
	// caller has no network snapshot to query (Scope's own shipment
	// fields are used as-is in that case).
	ResolveShipments func(laneIDs []string) (ids []string, total int, truncated bool)
}

// Result is the upsert outcome plus the merge signals the evidence
// builder needs to explain it.
type Result struct {
	Alert         models.Alert
	PriorAlert    *models.Alert // nil on CREATE
	Action        models.CorrelationAction
	NewFacilities []string // sorted, facilities newly added on UPDATE
	NewLanes      []string // sorted, lanes newly added on UPDATE
}

// Upsert performs the correlation lookup and CREATE/UPDATE decision for
// one event, serialized per correlation_key via locks. Suppressed
// events must not reach this function; the pipeline routes them to the
// audit trail only, per spec.md §4.G.4.
func Upsert(store Store, locks *KeyLock, in Input) (Result, error) {
	key := Key(in.Event.EventType, in.Scope.FacilityIDs, in.Scope.LaneIDs)

	locks.Lock(key)
	defer locks.Unlock(key)

	windowStart := in.Now.Add(-Window)
	existing, found := store.FindActiveByKey(key, windowStart)
	if !found {
		alert := create(key, in)
		if err := store.Upsert(alert); err != nil {
			return Result{}, err
		}
		log.Debug("created alert %s for correlation_key %s", alert.AlertID, key)
		return Result{Alert: alert, Action: models.CorrelationCreated}, nil
	}

	updated, newFacilities, newLanes := update(existing, in)
	if err := store.Upsert(updated); err != nil {
		return Result{}, err
	}
	log.Debug("updated alert %s for correlation_key %s (update_count=%d)", updated.AlertID, key, updated.UpdateCount)
	priorCopy := existing
	return Result{
		Alert:         updated,
		PriorAlert:    &priorCopy,
		Action:        models.CorrelationUpdated,
		NewFacilities: newFacilities,
		NewLanes:      newLanes,
	}, nil
}

func create(key string, in Input) models.Alert {
	observed := observedOrFetchedAt(in)
	alertID := deriveAlertID(key, in.Event.EventID, observed)

	return models.Alert{
		AlertID:           alertID,
		RiskType:          string(in.Event.EventType),
		Classification:    in.Classification,
		Status:            models.AlertStatusOpen,
		Summary:           in.Event.Title,
		RootEventID:       in.Event.EventID,
		Scope:             in.Scope,
		ImpactScore:       in.ImpactScore,
		CorrelationKey:    key,
		CorrelationAction: models.CorrelationCreated,
		FirstSeenUTC:      observed,
		LastSeenUTC:       observed,
		UpdateCount:       1,
		RootEventIDs:      []string{in.Event.EventID},
		Tier:              in.Event.Tier,
		SourceID:          in.Event.SourceID,
		TrustTier:         in.Event.TrustTier,
		Evidence: models.AlertEvidence{
			Diagnostics: models.EvidenceDiagnostics{
				ImpactScoreRationale: in.Rationale,
			},
			LinkingNotes:   in.LinkingNotes,
			SourceMetadata: in.Event.SourceMetadata,
		},
	}
}

func update(existing models.Alert, in Input) (models.Alert, []string, []string) {
	observed := observedOrFetchedAt(in)

	newFacilities := diff(existing.Scope.FacilityIDs, in.Scope.FacilityIDs)
	newLanes := diff(existing.Scope.LaneIDs, in.Scope.LaneIDs)

	scope := models.AlertScope{
		FacilityIDs: unionSorted(existing.Scope.FacilityIDs, in.Scope.FacilityIDs),
		LaneIDs:     unionSorted(existing.Scope.LaneIDs, in.Scope.LaneIDs),
	}
	if in.ResolveShipments != nil {
		scope.ShipmentIDs, scope.ShipmentsTotalLinked, scope.ShipmentsTruncated = in.ResolveShipments(scope.LaneIDs)
	} else {
		scope.ShipmentIDs = in.Scope.ShipmentIDs
		scope.ShipmentsTotalLinked = in.Scope.ShipmentsTotalLinked
		scope.ShipmentsTruncated = in.Scope.ShipmentsTruncated
	}

	score := in.ImpactScore
	if existing.ImpactScore > score {
		score = existing.ImpactScore
	}
	classification := in.Classification
	if existing.Classification > classification {
		classification = existing.Classification
	}

	lastSeen := existing.LastSeenUTC
	if observed.After(lastSeen) {
		lastSeen = observed
	}

	rootEventIDs := append(append([]string{}, existing.RootEventIDs...), in.Event.EventID)

	updated := existing
	updated.RootEventIDs = rootEventIDs
	updated.RootEventID = in.Event.EventID
	updated.UpdateCount = len(rootEventIDs)
	updated.LastSeenUTC = lastSeen
	updated.Scope = scope
	updated.ImpactScore = score
	updated.Classification = classification
	updated.CorrelationAction = models.CorrelationUpdated
	updated.Tier = in.Event.Tier
	updated.SourceID = in.Event.SourceID
	updated.TrustTier = in.Event.TrustTier
	updated.Summary = in.Event.Title
	updated.Evidence = models.AlertEvidence{
		Diagnostics: models.EvidenceDiagnostics{
			ImpactScoreRationale: in.Rationale,
		},
		LinkingNotes:   in.LinkingNotes,
		SourceMetadata: in.Event.SourceMetadata,
	}

	return updated, newFacilities, newLanes
}

func observedOrFetchedAt(in Input) time.Time {
	if !in.Event.ObservedOrFetch.IsZero() {
		return in.Event.ObservedOrFetch
	}
	if !in.Event.PublishedAtUTC.IsZero() {
		return in.Event.PublishedAtUTC
	}
	return in.Now
}

func deriveAlertID(correlationKey, firstEventID string, firstSeen time.Time) string {
	sum := sha256.Sum256([]byte(correlationKey + "\x00" + firstEventID))
	return "ALERT-" + firstSeen.Format("20060102") + "-" + hex.EncodeToString(sum[:])[:8]
}

// diff returns the sorted elements of next that are not in prev.
func diff(prev, next []string) []string {
	have := make(map[string]struct{}, len(prev))
	for _, id := range prev {
		have[id] = struct{}{}
	}
	var out []string
	for _, id := range next {
		if _, ok := have[id]; !ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func unionSorted(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		set[id] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
