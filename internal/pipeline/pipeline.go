// Package pipeline implements the sequential operator orchestrator
// (spec.md §5): one run walks every ingest-eligible raw item through
// canonicalization, suppression, network linking, scoring, correlation,
// and evidence building, in that declared order, finalizing exactly one
// RunRecord per operator and one SourceRun per source touched.
//
// Grounded on moolen-spectre/internal/graph/sync/sync.go's staged
// reconciliation loop (fetch -> extract -> link -> reconcile), adapted
// from graph-resource reconciliation to the raw-item ingest chain; the
// per-operator RunRecorder bracketing follows internal/provenance's own
// "begin once, finish on every exit path" contract.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hardstop/hardstop/internal/canonicalize"
	"github.com/hardstop/hardstop/internal/correlator"
	"github.com/hardstop/hardstop/internal/evidence"
	"github.com/hardstop/hardstop/internal/logging"
	"github.com/hardstop/hardstop/internal/models"
	"github.com/hardstop/hardstop/internal/netgraph"
	"github.com/hardstop/hardstop/internal/provenance"
	"github.com/hardstop/hardstop/internal/rawstore"
	"github.com/hardstop/hardstop/internal/scoring"
	"github.com/hardstop/hardstop/internal/suppression"
)

// Operator ids for the stages that don't already own one in their home
// package (canonicalize.OperatorID and correlator.OperatorID are defined
// there; the rest are orchestration-only concerns and are named here).
const (
	OperatorSuppression = "suppression.evaluate@1.0.0"
	OperatorLink        = "netgraph.link@1.0.0"
	OperatorScore       = "scoring.score@1.0.0"
	OperatorEvidence    = "evidence.build@1.0.0"
)

var log = logging.GetLogger("pipeline")

// SourceOverride carries the per-source scoring modifiers resolved by
// internal/config, kept as a plain struct here so this package does not
// need to import internal/config for two ints.
type SourceOverride struct {
	WeightingBias       int
	ClassificationFloor int
}

// Deps bundles every collaborator one run needs. Suppression nil
// disables the suppression stage entirely (distinct from a compiled but
// empty registry); NetSnapshot nil skips linking/scoring and routes
// every event straight to correlation with an empty scope, for CLI
// invocations with no network fixture loaded.
type Deps struct {
	RawStore        rawstore.Store
	AlertStore      correlator.Store
	NetSnapshot     netgraph.NetworkSnapshot
	Suppression     *suppression.Registry
	KeyLock         *correlator.KeyLock
	Clock           provenance.Clock
	SourceOverrides map[string]SourceOverride
}

// Options tunes one run.
type Options struct {
	Since             time.Time
	IncludeSuppressed bool
	NoSuppress        bool
	MaxShipments      int
	ConfigHash        string
	RunGroupID        string

	// SourceIDs, when non-empty, pre-seeds a SourceRun accumulator for
	// every listed source even if it contributes zero eligible items
	// this run (spec.md scenario 2: a replay with nothing new to ingest
	// still produces one INGEST SourceRun row with items_processed=0).
	SourceIDs []string
}

// ItemResult is the per-item outcome, returned for diagnostics and
// scenario tests.
type ItemResult struct {
	RawItemID          string
	SourceID           string
	EventID            string
	Suppressed         bool
	AlertID            string
	Action             models.CorrelationAction
	EvidenceArtifactID string
}

// Report is the full outcome of one Run.
type Report struct {
	Items      []ItemResult
	SourceRuns []models.SourceRun
	RunRecords []*models.RunRecord
}

type sourceAccumulator struct {
	sourceID           string
	startedAt          time.Time
	itemsProcessed     int
	itemsSuppressed    int
	itemsEventsCreated int
	itemsAlertsTouched int
}

// Run walks every ingest-eligible raw item through the chain in
// declared order: rawstore -> canonicalize -> suppression -> netgraph ->
// scoring -> correlator -> evidence. ctx is consulted between operators
// and between items; on cancellation or a fatal operator error, Run
// stops admitting new work but still finalizes every RunRecorder begun
// so far before returning, per spec.md §7's "fatal errors halt the
// pipeline after finalizing the current operator's RunRecord".
func Run(ctx context.Context, deps Deps, opts Options) (*Report, error) {
	if opts.MaxShipments <= 0 {
		opts.MaxShipments = netgraph.DefaultMaxShipments
	}

	items, err := deps.RawStore.ListForIngest(opts.Since, opts.IncludeSuppressed)
	if err != nil {
		return nil, err
	}

	live := provenance.IsLive(deps.Clock)

	canonRR := provenance.Begin(deps.Clock, canonicalize.OperatorID, opts.ConfigHash, opts.RunGroupID)
	suppressRR := provenance.Begin(deps.Clock, OperatorSuppression, opts.ConfigHash, opts.RunGroupID)
	linkRR := provenance.Begin(deps.Clock, OperatorLink, opts.ConfigHash, opts.RunGroupID)
	scoreRR := provenance.Begin(deps.Clock, OperatorScore, opts.ConfigHash, opts.RunGroupID)
	correlateRR := provenance.Begin(deps.Clock, correlator.OperatorID, opts.ConfigHash, opts.RunGroupID)
	evidenceRR := provenance.Begin(deps.Clock, OperatorEvidence, opts.ConfigHash, opts.RunGroupID)
	recorders := []*provenance.RunRecorder{canonRR, suppressRR, linkRR, scoreRR, correlateRR, evidenceRR}

	// Binding a logger to its operator's RunRecorder means a failure is
	// both visible in the run's console output and captured in the
	// RunRecord that gets persisted for that operator, from one call.
	canonLog := log.WithRecorder(canonRR)
	suppressLog := log.WithRecorder(suppressRR)
	correlateLog := log.WithRecorder(correlateRR)
	evidenceLog := log.WithRecorder(evidenceRR)

	report := &Report{}
	defer func() {
		for _, rr := range recorders {
			if rec := rr.Finish(0, 0); rec != nil {
				report.RunRecords = append(report.RunRecords, rec)
			}
		}
	}()

	bySource := map[string]*sourceAccumulator{}
	accFor := func(sourceID string) *sourceAccumulator {
		acc, ok := bySource[sourceID]
		if !ok {
			acc = &sourceAccumulator{sourceID: sourceID, startedAt: deps.Clock.Now()}
			bySource[sourceID] = acc
		}
		return acc
	}
	for _, sourceID := range opts.SourceIDs {
		accFor(sourceID)
	}

	var runErr error
itemLoop:
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			runErr = err
			break itemLoop
		}

		// Only NEW items are eligible: canonicalization is the sole
		// mutator that advances a RawItem's status, and it runs exactly
		// once per row. A replayed run over an unchanged since-window
		// must not re-walk already-NORMALIZED/FAILED rows through
		// correlation a second time.
		if item.Status != models.RawItemNew {
			continue
		}

		acc := accFor(item.SourceID)
		acc.itemsProcessed++

		rawHash := item.ContentHash
		if rawHash == "" {
			rawHash = item.CanonicalID
		}
		canonRR.RecordInput(models.ArtifactRef{ID: item.RawItemID, Kind: string(provenance.KindRawItem), Hash: rawHash})

		canon := canonicalize.Normalize(item, deps.Clock)
		ev := canon.Event
		for _, w := range canon.Warnings {
			canonRR.RecordWarning(w)
		}
		eventRef, err := canonicalize.EventArtifactRef(ev, live)
		if err != nil {
			canonLog.Error("failed to compute artifact ref for raw item %s: %v", item.RawItemID, err)
			runErr = err
			break itemLoop
		}
		canonRR.RecordOutput(eventRef)

		result := ItemResult{RawItemID: item.RawItemID, SourceID: item.SourceID, EventID: ev.EventID}

		if err := ctx.Err(); err != nil {
			runErr = err
			break itemLoop
		}

		if deps.Suppression != nil {
			suppressRR.RecordInput(eventRef)
			evalResult := suppression.Evaluate(deps.Suppression, ev)
			if evalResult.Matched && opts.NoSuppress {
				log.Debug("raw item %s matched suppression rule %s; not stamped (--no-suppress)", item.RawItemID, evalResult.PrimaryRuleID)
			} else if evalResult.Matched {
				suppression.ApplyStamp(ev, evalResult, models.SuppressionStageCanonicalization, deps.Clock.Now())
				if err := deps.RawStore.MarkSuppressed(item.RawItemID, evalResult.PrimaryRuleID, evalResult.AllRuleIDs, evalResult.ReasonCode, models.SuppressionStageCanonicalization, deps.Clock.Now()); err != nil {
					suppressLog.Error("failed to mark raw item %s suppressed: %v", item.RawItemID, err)
					runErr = err
					break itemLoop
				}
				acc.itemsSuppressed++
				result.Suppressed = true
			}
		}

		report.Items = append(report.Items, result)
		if result.Suppressed {
			log.Debug("raw item %s suppressed at canonicalization (rule=%s)", item.RawItemID, ev.Suppression.PrimaryRuleID)
			continue
		}

		if err := deps.RawStore.MarkNormalized(item.RawItemID); err != nil {
			runErr = err
			break itemLoop
		}
		acc.itemsEventsCreated++

		if err := ctx.Err(); err != nil {
			runErr = err
			break itemLoop
		}

		var linkResult netgraph.LinkResult
		if deps.NetSnapshot != nil {
			linkRR.RecordInput(eventRef)
			linkResult = netgraph.Link(deps.NetSnapshot, ev, stringField(ev.SourceMetadata, "facility_id"), deps.Clock.Now(), opts.MaxShipments)
			for _, w := range linkResult.Warnings {
				linkRR.RecordWarning(w)
			}
		}
		ev.Facilities = linkResult.FacilityIDs
		ev.Lanes = linkResult.LaneIDs
		ev.Shipments = linkResult.ShipmentIDs
		ev.ShipmentsTotal = linkResult.ShipmentsTotalLinked
		ev.ShipmentsTrunc = linkResult.ShipmentsTruncated

		if err := ctx.Err(); err != nil {
			runErr = err
			break itemLoop
		}

		override := deps.SourceOverrides[item.SourceID]
		scoreRR.RecordInput(eventRef)
		scoreOut := scoring.Score(scoring.Input{
			Facilities:          linkResult.Facilities,
			Lanes:               linkResult.Lanes,
			Shipments:           linkResult.EligibleShipments,
			Title:               ev.Title,
			RawText:             ev.RawText,
			TrustTier:           ev.TrustTier,
			WeightingBias:       override.WeightingBias,
			ClassificationFloor: override.ClassificationFloor,
			Now:                 deps.Clock.Now(),
		})
		for _, w := range scoreOut.Warnings {
			scoreRR.RecordWarning(w)
		}

		if err := ctx.Err(); err != nil {
			runErr = err
			break itemLoop
		}

		correlateRR.RecordInput(eventRef)
		corrResult, err := correlator.Upsert(deps.AlertStore, deps.KeyLock, correlator.Input{
			Event: ev,
			Scope: models.AlertScope{
				FacilityIDs:          linkResult.FacilityIDs,
				LaneIDs:              linkResult.LaneIDs,
				ShipmentIDs:          linkResult.ShipmentIDs,
				ShipmentsTotalLinked: linkResult.ShipmentsTotalLinked,
				ShipmentsTruncated:   linkResult.ShipmentsTruncated,
			},
			ImpactScore:      scoreOut.Score,
			Classification:   scoreOut.Classification,
			Rationale:        scoreOut.Rationale,
			LinkingNotes:     linkingNotes(linkResult),
			Now:              deps.Clock.Now(),
			ResolveShipments: resolveShipmentsFor(deps.NetSnapshot, deps.Clock.Now(), opts.MaxShipments),
		})
		if err != nil {
			correlateLog.Error("failed to upsert alert for event %s: %v", ev.EventID, err)
			runErr = err
			break itemLoop
		}
		alertRef, err := alertArtifactRef(corrResult.Alert, live)
		if err != nil {
			correlateLog.Error("failed to compute artifact ref for alert %s: %v", corrResult.Alert.AlertID, err)
			runErr = err
			break itemLoop
		}
		correlateRR.RecordOutput(alertRef)
		acc.itemsAlertsTouched++

		evidenceRR.RecordInput(alertRef)
		artifactID := fmt.Sprintf("EVID-%s-%s", corrResult.Alert.AlertID, ev.EventID)
		ie, err := evidence.Build(artifactID, corrResult, ev, deps.Clock)
		if err != nil {
			evidenceLog.Error("failed to build incident evidence for alert %s: %v", corrResult.Alert.AlertID, err)
			runErr = err
			break itemLoop
		}
		evidenceRR.RecordOutput(models.ArtifactRef{ID: ie.ArtifactID, Kind: string(provenance.KindIncidentEvidence), Hash: ie.ArtifactHash})

		stamped := corrResult.Alert
		stamped.IncidentArtifactHash = ie.ArtifactHash
		if err := deps.AlertStore.Upsert(stamped); err != nil {
			correlateLog.Error("failed to persist alert %s: %v", stamped.AlertID, err)
			runErr = err
			break itemLoop
		}

		last := len(report.Items) - 1
		report.Items[last].AlertID = stamped.AlertID
		report.Items[last].Action = corrResult.Action
		report.Items[last].EvidenceArtifactID = ie.ArtifactID

		log.Debug("raw item %s -> event %s -> alert %s (%s)", item.RawItemID, ev.EventID, stamped.AlertID, corrResult.Action)
	}

	for _, acc := range bySource {
		report.SourceRuns = append(report.SourceRuns, finalizeSourceRun(acc, opts.RunGroupID, deps.Clock.Now(), runErr))
	}
	sort.Slice(report.SourceRuns, func(i, j int) bool {
		return report.SourceRuns[i].SourceID < report.SourceRuns[j].SourceID
	})

	return report, runErr
}

func finalizeSourceRun(acc *sourceAccumulator, runGroupID string, endedAt time.Time, runErr error) models.SourceRun {
	status := models.RunSuccess
	run := models.NewSourceRun(runGroupID, models.PhaseIngest, acc.sourceID, status, acc.startedAt)
	run.Duration = endedAt.Sub(acc.startedAt)
	run.Counters = models.SourceRunCounters{
		ItemsProcessed:     acc.itemsProcessed,
		ItemsEventsCreated: acc.itemsEventsCreated,
		ItemsSuppressed:    acc.itemsSuppressed,
		ItemsAlertsTouched: acc.itemsAlertsTouched,
	}
	if runErr != nil {
		run.Status = models.RunFailure
		run.SetError(runErr.Error())
	}
	return *run
}

func stringField(m models.MetadataMap, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// resolveShipmentsFor builds the correlator's shipment re-query
// callback for one item. nil when there is no network snapshot to
// query, matching the no-network CLI path where Scope's own fields are
// already empty and there is nothing to re-derive.
func resolveShipmentsFor(snap netgraph.NetworkSnapshot, now time.Time, maxShipments int) func(laneIDs []string) ([]string, int, bool) {
	if snap == nil {
		return nil
	}
	return func(laneIDs []string) ([]string, int, bool) {
		return netgraph.ShipmentsForLanes(snap, laneIDs, now, maxShipments)
	}
}

func linkingNotes(r netgraph.LinkResult) []string {
	var notes []string
	if len(r.FacilityIDs) > 0 {
		notes = append(notes, fmt.Sprintf("linked %d facility(ies): %v", len(r.FacilityIDs), r.FacilityIDs))
	}
	if len(r.LaneIDs) > 0 {
		notes = append(notes, fmt.Sprintf("linked %d lane(s): %v", len(r.LaneIDs), r.LaneIDs))
	}
	if r.ShipmentsTotalLinked > 0 {
		note := fmt.Sprintf("%d eligible shipment(s) linked", r.ShipmentsTotalLinked)
		if r.ShipmentsTruncated {
			note += fmt.Sprintf(" (scope truncated to %d)", len(r.ShipmentIDs))
		}
		notes = append(notes, note)
	}
	return notes
}

// hashableAlert is the wall-clock-scrubbed payload hashed into an
// Alert's ArtifactRef, matching internal/canonicalize's and
// internal/evidence's scrub-before-hash convention.
type hashableAlert struct {
	AlertID        string
	CorrelationKey string
	Classification models.AlertClassification
	ImpactScore    int
	Scope          models.AlertScope
	RootEventIDs   []string
	FirstSeenUTC   string
}

func alertArtifactRef(alert models.Alert, live bool) (models.ArtifactRef, error) {
	firstSeen := alert.FirstSeenUTC.Format(time.RFC3339)
	if live && alert.FirstSeenUTC.IsZero() {
		firstSeen = provenance.TimestampSentinel
	}
	hash, err := provenance.ArtifactHash(hashableAlert{
		AlertID:        alert.AlertID,
		CorrelationKey: alert.CorrelationKey,
		Classification: alert.Classification,
		ImpactScore:    alert.ImpactScore,
		Scope:          alert.Scope,
		RootEventIDs:   alert.RootEventIDs,
		FirstSeenUTC:   firstSeen,
	})
	if err != nil {
		return models.ArtifactRef{}, fmt.Errorf("hashing alert %s: %w", alert.AlertID, err)
	}
	return models.ArtifactRef{ID: alert.AlertID, Kind: string(provenance.KindAlert), Hash: hash}, nil
}
