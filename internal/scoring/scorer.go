// Package scoring implements the impact scorer (spec.md §4.F): a bounded
// integer score in [0,10] from network criticality, event-type keyword
// bonus, ETA proximity, trust-tier modifier, and per-source bias.
//
// Grounded on moolen-spectre/internal/storage/status_inference.go's
// style of deriving a small bounded/enum value from several typed
// signals: sum contributions, clamp, derive a classification.
package scoring

import (
	"sort"
	"time"

	"github.com/hardstop/hardstop/internal/canonicalize"
	"github.com/hardstop/hardstop/internal/models"
)

// Input bundles every signal the scorer consumes. Facilities/Lanes are
// the entities matched by the network linker; Shipments is the full
// (untruncated) eligible shipment set so priority/ETA subscores are
// unaffected by the alert-scope truncation policy.
type Input struct {
	Facilities          []models.Facility
	Lanes               []models.Lane
	Shipments           []models.Shipment
	Title               string
	RawText             string
	TrustTier           models.TrustTier
	WeightingBias       int // per-source, [-2,2]
	ClassificationFloor int // [0,2]
	Now                 time.Time
}

// Output is the scorer's result: the bounded score, derived
// classification, and a fully deterministic rationale payload.
type Output struct {
	Score          int
	Classification models.AlertClassification
	Rationale      models.ImpactRationale
	Warnings       []models.Warning
}

// Score computes a bounded [0,10] impact score. It never mutates Input
// and never returns an error: any subscore that cannot be computed
// degrades to 0 with a warning (ScoringDegraded), per spec.md §4.F/§7.
func Score(in Input) Output {
	var warnings []models.Warning

	facilityDelta, criticalMatched := facilityCriticalityDelta(in.Facilities)
	laneDelta := laneVolumeDelta(in.Lanes)
	prioDelta, prioIDs := priorityShipmentDelta(in.Shipments, in.Now)
	keywordMatches := canonicalize.MatchedImpactKeywords(in.Title, in.RawText)
	keywordDelta := 0
	if len(keywordMatches) > 0 {
		keywordDelta = 1
	}
	etaDelta := etaProximityDelta(in.Shipments, in.Now)

	base := facilityDelta + laneDelta + prioDelta + keywordDelta + etaDelta
	base = clamp(base, 0, 10)

	tierDelta := trustTierDelta(in.TrustTier)
	bias := clampBias(in.WeightingBias)
	final := clamp(base+tierDelta+bias, 0, 10)

	classification := classify(final)
	floorApplied := false
	floor := models.AlertClassification(in.ClassificationFloor)
	if classification < floor {
		classification = floor
		floorApplied = true
	}

	sort.Strings(prioIDs)
	sort.Strings(keywordMatches)

	_ = criticalMatched

	return Output{
		Score:          final,
		Classification: classification,
		Warnings:       warnings,
		Rationale: models.ImpactRationale{
			NetworkCriticality: models.NetworkCriticalityRationale{
				FacilityDelta:         facilityDelta,
				LaneVolumeDelta:       laneDelta,
				PriorityShipmentDelta: prioDelta,
				PriorityShipmentIDs:   prioIDs,
			},
			Modifiers: models.ModifierRationale{
				TrustTierDelta: tierDelta,
				AssertedTier:   in.TrustTier,
				BiasDelta:      bias,
			},
			ScoreTrace: models.ScoreTrace{
				BaseScore:       base,
				FinalScore:      final,
				MatchedKeywords: keywordMatches,
				FloorApplied:    floorApplied,
				Floor:           in.ClassificationFloor,
			},
		},
	}
}

func facilityCriticalityDelta(facilities []models.Facility) (int, bool) {
	best := 0
	for _, f := range facilities {
		if f.CriticalityScore >= CriticalFacilityThreshold {
			if best < 2 {
				best = 2
			}
		} else if f.CriticalityScore >= ModerateFacilityThreshold {
			if best < 1 {
				best = 1
			}
		}
	}
	return best, best > 0
}

func laneVolumeDelta(lanes []models.Lane) int {
	for _, l := range lanes {
		if l.VolumeScore >= HighVolumeLaneThreshold {
			return 1
		}
	}
	return 0
}

func priorityShipmentDelta(shipments []models.Shipment, now time.Time) (int, []string) {
	window := now.Add(PriorityShipmentWindowHours * time.Hour)
	count := 0
	var ids []string
	for _, sh := range shipments {
		if sh.PriorityFlag && !sh.ETADate.Before(now) && !sh.ETADate.After(window) {
			count++
			ids = append(ids, sh.ShipmentID)
		}
	}
	delta := count
	if delta > PriorityShipmentCapDelta {
		delta = PriorityShipmentCapDelta
	}
	return delta, ids
}

func etaProximityDelta(shipments []models.Shipment, now time.Time) int {
	var nearest time.Time
	found := false
	for _, sh := range shipments {
		if !found || sh.ETADate.Before(nearest) {
			nearest = sh.ETADate
			found = true
		}
	}
	if !found {
		return 0
	}
	if nearest.Before(now) {
		return 0
	}
	if nearest.Sub(now) <= ETAProximityWindowHours*time.Hour {
		return 1
	}
	return 0
}

func trustTierDelta(tier models.TrustTier) int {
	switch tier {
	case 3:
		return 1
	case 1:
		return -1
	default:
		return 0
	}
}

func classify(score int) models.AlertClassification {
	switch {
	case score >= 7:
		return models.ClassificationImpactful
	case score >= 4:
		return models.ClassificationRelevant
	default:
		return models.ClassificationInteresting
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampBias(v int) int {
	return clamp(v, -2, 2)
}
