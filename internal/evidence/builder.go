// Package evidence builds the IncidentEvidence artifact (spec.md §4.H)
// explaining every alert CREATE/UPDATE.
//
// Grounded on moolen-spectre/internal/graph/sync/causality.go's style of
// producing a human-readable explanation of why two graph changes were
// linked, combined with internal/provenance's hasher for artifact_hash.
package evidence

import (
	"fmt"
	"sort"
	"time"

	"github.com/hardstop/hardstop/internal/correlator"
	"github.com/hardstop/hardstop/internal/models"
	"github.com/hardstop/hardstop/internal/provenance"
)

const temporalOverlapWindow = 24 * time.Hour

// Build constructs the IncidentEvidence for one correlator.Result and
// computes its artifact_hash. artifactID is caller-supplied (the
// pipeline mints it, mirroring how RunRecord ids are minted upstream).
func Build(artifactID string, result correlator.Result, event *models.Event, clock provenance.Clock) (models.IncidentEvidence, error) {
	reasons := []models.MergeReasonCode{models.MergeSameCorrelationKey}
	overlap := models.Overlap{}
	var summary []string

	if result.PriorAlert != nil {
		prior := *result.PriorAlert
		summary = append(summary, fmt.Sprintf("Existing alert seen within %dh", int(correlator.Window.Hours())))

		if shared := sortedIntersection(prior.Scope.FacilityIDs, event.Facilities); len(shared) > 0 {
			reasons = append(reasons, models.MergeSharedFacilities)
			overlap.FacilityIDs = shared
			summary = append(summary, "Shared facilities: "+joinIDs(shared))
		}
		if shared := sortedIntersection(prior.Scope.LaneIDs, event.Lanes); len(shared) > 0 {
			reasons = append(reasons, models.MergeSharedLanes)
			overlap.LaneIDs = shared
			summary = append(summary, "Shared lanes: "+joinIDs(shared))
		}

		observed := event.ObservedOrFetch
		if observed.IsZero() {
			observed = event.PublishedAtUTC
		}
		if !observed.IsZero() && !prior.LastSeenUTC.IsZero() {
			delta := observed.Sub(prior.LastSeenUTC)
			if delta < 0 {
				delta = -delta
			}
			if delta <= temporalOverlapWindow {
				reasons = append(reasons, models.MergeTemporalOverlap)
				summary = append(summary, fmt.Sprintf("Temporal overlap within %dh", int(temporalOverlapWindow.Hours())))
			}
		}
	} else {
		summary = append(summary, "New alert created")
	}

	ev := models.IncidentEvidence{
		ArtifactID:   artifactID,
		AlertID:      result.Alert.AlertID,
		RootEventIDs: append([]string(nil), result.Alert.RootEventIDs...),
		MergeReasons: reasons,
		Overlap:      overlap,
		MergeSummary: summary,
	}

	live := provenance.IsLive(clock)
	if !live {
		ev.DeterminismMode = models.DeterminismPinned
		ev.DeterminismContext = &models.DeterminismContext{
			Seed:            clock.Seed(),
			PinnedTimestamp: clock.Now().Format(time.RFC3339),
			PinnedRunID:     clock.RunID(),
		}
	} else {
		ev.DeterminismMode = models.DeterminismLive
	}

	hash, err := provenance.ArtifactHash(scrubForHash(ev, live))
	if err != nil {
		return models.IncidentEvidence{}, err
	}
	ev.ArtifactHash = hash
	return ev, nil
}

// hashablePayload omits ArtifactHash itself (self-referential). It holds
// no wall-clock field (DeterminismContext is nil in live mode), so
// scrubForHash copies the same fields in both modes.
type hashablePayload struct {
	ArtifactID         string
	AlertID            string
	RootEventIDs       []string
	MergeReasons       []models.MergeReasonCode
	Overlap            models.Overlap
	MergeSummary       []string
	DeterminismMode    models.DeterminismMode
	DeterminismContext *models.DeterminismContext
}

func scrubForHash(ev models.IncidentEvidence, live bool) hashablePayload {
	p := hashablePayload{
		ArtifactID:         ev.ArtifactID,
		AlertID:            ev.AlertID,
		RootEventIDs:       ev.RootEventIDs,
		MergeReasons:       ev.MergeReasons,
		Overlap:            ev.Overlap,
		MergeSummary:       ev.MergeSummary,
		DeterminismMode:    ev.DeterminismMode,
		DeterminismContext: ev.DeterminismContext,
	}
	_ = live
	return p
}

func sortedIntersection(a, b []string) []string {
	set := make(map[string]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	var out []string
	for _, id := range b {
		if _, ok := set[id]; ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func joinIDs(ids []string) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ", "
		}
		out += id
	}
	return out
}
