package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardstop/hardstop/internal/models"
)

func TestScore_BoundsAlwaysZeroToTen(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	cases := []Input{
		{},
		{
			Facilities:    []models.Facility{{FacilityID: "F1", CriticalityScore: 10}},
			Lanes:         []models.Lane{{LaneID: "L1", VolumeScore: 10}},
			Shipments:     []models.Shipment{{ShipmentID: "S1", PriorityFlag: true, ETADate: now.Add(time.Hour), Status: models.ShipmentPending}},
			Title:         "spill explosion closure recall evacuation",
			TrustTier:     3,
			WeightingBias: 2,
			Now:           now,
		},
		{
			Facilities:    []models.Facility{{FacilityID: "F1", CriticalityScore: 0}},
			TrustTier:     1,
			WeightingBias: -2,
			Now:           now,
		},
	}

	for i, in := range cases {
		out := Score(in)
		require.GreaterOrEqualf(t, out.Score, 0, "case %d", i)
		require.LessOrEqualf(t, out.Score, 10, "case %d", i)
	}
}

func TestScore_ClassificationFloorNeverLowersClassification(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	in := Input{
		TrustTier:           1,
		WeightingBias:       -2,
		ClassificationFloor: int(models.ClassificationImpactful),
		Now:                 now,
	}
	out := Score(in)
	assert.Equal(t, models.ClassificationImpactful, out.Classification)
	assert.True(t, out.Rationale.ScoreTrace.FloorApplied)
}

func TestScore_ClassificationFloorDoesNotRaiseWhenAlreadyAboveFloor(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	in := Input{
		Facilities:          []models.Facility{{FacilityID: "F1", CriticalityScore: 10}},
		Lanes:               []models.Lane{{LaneID: "L1", VolumeScore: 10}},
		Title:               "spill",
		TrustTier:           3,
		ClassificationFloor: int(models.ClassificationInteresting),
		Now:                 now,
	}
	out := Score(in)
	assert.False(t, out.Rationale.ScoreTrace.FloorApplied)
	assert.Equal(t, models.ClassificationRelevant, out.Classification)
}

func TestScore_PriorityShipmentDeltaCappedAtTwo(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	shipments := []models.Shipment{
		{ShipmentID: "S1", PriorityFlag: true, ETADate: now.Add(time.Hour), Status: models.ShipmentPending},
		{ShipmentID: "S2", PriorityFlag: true, ETADate: now.Add(2 * time.Hour), Status: models.ShipmentPending},
		{ShipmentID: "S3", PriorityFlag: true, ETADate: now.Add(3 * time.Hour), Status: models.ShipmentPending},
	}
	delta, ids := priorityShipmentDelta(shipments, now)
	assert.Equal(t, PriorityShipmentCapDelta, delta)
	assert.Len(t, ids, 3)
}

func TestScore_EtaProximityIgnoresPastShipments(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	shipments := []models.Shipment{
		{ShipmentID: "S1", ETADate: now.Add(-time.Hour)},
	}
	assert.Equal(t, 0, etaProximityDelta(shipments, now))
}

func TestScore_TrustTierDeltaTable(t *testing.T) {
	assert.Equal(t, 1, trustTierDelta(3))
	assert.Equal(t, 0, trustTierDelta(2))
	assert.Equal(t, -1, trustTierDelta(1))
}
