package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardstop/hardstop/internal/alertstore"
	"github.com/hardstop/hardstop/internal/correlator"
	"github.com/hardstop/hardstop/internal/models"
	"github.com/hardstop/hardstop/internal/netgraph/fixture"
	"github.com/hardstop/hardstop/internal/provenance"
	"github.com/hardstop/hardstop/internal/rawstore"
	"github.com/hardstop/hardstop/internal/suppression"
)

// avonFixture builds the network context from spec.md's worked examples:
// PLANT-01 in Avon, IN at criticality 9, with lanes LANE-001..003 and six
// priority shipments landing within 48h.
func avonFixture(now time.Time) Deps {
	facilities := []models.Facility{
		{FacilityID: "PLANT-01", Name: "Avon Plant", City: "Avon", State: "IN", Country: "US", CriticalityScore: 9},
	}
	lanes := []models.Lane{
		{LaneID: "LANE-001", OriginFacilityID: "PLANT-01", DestFacilityID: "HUB-09", VolumeScore: 8},
		{LaneID: "LANE-002", OriginFacilityID: "PLANT-01", DestFacilityID: "HUB-10", VolumeScore: 5},
		{LaneID: "LANE-003", OriginFacilityID: "PLANT-01", DestFacilityID: "HUB-11", VolumeScore: 3},
	}
	var shipments []models.Shipment
	for i := 0; i < 6; i++ {
		shipments = append(shipments, models.Shipment{
			ShipmentID:   "SHIP-00" + string(rune('1'+i)),
			LaneID:       "LANE-001",
			ETADate:      now.Add(time.Duration(6+i*2) * time.Hour),
			Status:       models.ShipmentInTransit,
			PriorityFlag: true,
		})
	}
	snap := fixture.New(facilities, lanes, shipments)

	return Deps{
		RawStore:    rawstore.New(),
		AlertStore:  alertstore.New(),
		NetSnapshot: snap,
		KeyLock:     correlator.NewKeyLock(),
	}
}

func avonSpillItem(rawItemID, canonicalID string, fetchedAt time.Time) *models.RawItem {
	return &models.RawItem{
		RawItemID:      rawItemID,
		SourceID:       "nws_active_us",
		CanonicalID:    canonicalID,
		Title:          "Hydrochloric acid spill at Avon, Indiana",
		RawText:        "A hazmat spill was reported at the Avon, IN plant.",
		FetchedAtUTC:   fetchedAt,
		PublishedAtUTC: fetchedAt,
		TrustTier:      3,
		Tier:           models.TierRegional,
	}
}

// TestScenario1_CleanRoomSpillAlert mirrors spec.md scenario 1 under a
// pinned clock, asserting against Hardstop's own derivation functions
// rather than the spec's illustrative literal strings (the exact hash
// preimage was an independently resolved open question; see DESIGN.md).
func TestScenario1_CleanRoomSpillAlert(t *testing.T) {
	pinnedNow := time.Date(2025, 12, 29, 17, 0, 0, 0, time.UTC)
	clock := provenance.NewBestEffortClock(pinnedNow, "run-scenario-1", "demo-pinned-seed.v1")

	deps := avonFixture(pinnedNow)
	deps.Clock = clock

	_, _, err := deps.RawStore.Save(avonSpillItem("r1", "NWS-2025-12-29-001", pinnedNow))
	require.NoError(t, err)

	report, err := Run(context.Background(), deps, Options{
		Since:      pinnedNow.Add(-time.Hour),
		ConfigHash: "scenario-cfg-hash",
		RunGroupID: "run-scenario-1",
	})
	require.NoError(t, err)
	require.Len(t, report.Items, 1)

	item := report.Items[0]
	assert.Equal(t, models.CorrelationCreated, item.Action)
	assert.Regexp(t, `^ALERT-20251229-[0-9a-f]{8}$`, item.AlertID)

	alerts := deps.AlertStore.(interface{ List() []models.Alert }).List()
	require.Len(t, alerts, 1)
	alert := alerts[0]
	assert.Equal(t, "SAFETY|PLANT-01|LANE-001", alert.CorrelationKey)
	assert.GreaterOrEqual(t, alert.ImpactScore, 0)
	assert.LessOrEqual(t, alert.ImpactScore, 10)
	assert.NotEmpty(t, alert.IncidentArtifactHash)
}

// TestScenario2_ReingestSameRawItemIsANoOp mirrors spec.md scenario 2:
// replaying the same (source_id, canonical_id) produces no new event or
// alert, and the second run's SourceRun still reports items_processed=0.
func TestScenario2_ReingestSameRawItemIsANoOp(t *testing.T) {
	pinnedNow := time.Date(2025, 12, 29, 17, 0, 0, 0, time.UTC)
	clock := provenance.NewPinnedClock(pinnedNow, "run-scenario-2")
	deps := avonFixture(pinnedNow)
	deps.Clock = clock

	res1, id1, err := deps.RawStore.Save(avonSpillItem("r1", "NWS-2025-12-29-001", pinnedNow))
	require.NoError(t, err)
	assert.Equal(t, rawstore.ResultCreated, res1)

	report1, err := Run(context.Background(), deps, Options{Since: pinnedNow.Add(-time.Hour), RunGroupID: "run-scenario-2"})
	require.NoError(t, err)
	require.Len(t, report1.Items, 1)

	res2, id2, err := deps.RawStore.Save(avonSpillItem("r2", "NWS-2025-12-29-001", pinnedNow))
	require.NoError(t, err)
	assert.Equal(t, rawstore.ResultDuplicate, res2)
	assert.Equal(t, id1, id2)

	report2, err := Run(context.Background(), deps, Options{
		Since:      pinnedNow.Add(-time.Hour),
		RunGroupID: "run-scenario-2b",
		SourceIDs:  []string{"nws_active_us"},
	})
	require.NoError(t, err)
	assert.Empty(t, report2.Items, "the only raw item is already NORMALIZED, so nothing new is re-walked")
	require.Len(t, report2.SourceRuns, 1)
	assert.Equal(t, models.RunSuccess, report2.SourceRuns[0].Status)
	assert.Equal(t, 0, report2.SourceRuns[0].Counters.ItemsProcessed)

	alerts := deps.AlertStore.(interface{ List() []models.Alert }).List()
	assert.Len(t, alerts, 1, "no second alert was created by the duplicate")
}

// TestScenario3_CorrelatedUpdateSixHoursLater mirrors spec.md scenario 3:
// a second event for the same facility six hours later updates the
// existing alert instead of creating a new one.
func TestScenario3_CorrelatedUpdateSixHoursLater(t *testing.T) {
	pinnedNow := time.Date(2025, 12, 29, 17, 0, 0, 0, time.UTC)
	clock := provenance.NewPinnedClock(pinnedNow, "run-scenario-3")
	deps := avonFixture(pinnedNow)
	deps.Clock = clock

	_, _, err := deps.RawStore.Save(avonSpillItem("r1", "NWS-2025-12-29-001", pinnedNow))
	require.NoError(t, err)
	report1, err := Run(context.Background(), deps, Options{Since: pinnedNow.Add(-time.Hour), RunGroupID: "run-scenario-3"})
	require.NoError(t, err)
	require.Len(t, report1.Items, 1)
	firstAlertID := report1.Items[0].AlertID

	later := pinnedNow.Add(6 * time.Hour)
	deps.Clock = provenance.NewPinnedClock(later, "run-scenario-3b")
	_, _, err = deps.RawStore.Save(avonSpillItem("r2", "NWS-2025-12-29-002", later))
	require.NoError(t, err)

	report2, err := Run(context.Background(), deps, Options{Since: pinnedNow, RunGroupID: "run-scenario-3b"})
	require.NoError(t, err)
	require.Len(t, report2.Items, 1)
	assert.Equal(t, models.CorrelationUpdated, report2.Items[0].Action)
	assert.Equal(t, firstAlertID, report2.Items[0].AlertID)

	alerts := deps.AlertStore.(interface{ List() []models.Alert }).List()
	require.Len(t, alerts, 1)
	assert.Equal(t, 2, alerts[0].UpdateCount)
	assert.Len(t, alerts[0].RootEventIDs, 2)
	assert.True(t, alerts[0].LastSeenUTC.After(pinnedNow) || alerts[0].LastSeenUTC.Equal(later))
}

// TestScenario4_SuppressedTestAlertNeverReachesCorrelation mirrors
// spec.md scenario 4: a global keyword rule suppresses a test message
// before it can create an alert.
func TestScenario4_SuppressedTestAlertNeverReachesCorrelation(t *testing.T) {
	pinnedNow := time.Date(2025, 12, 29, 17, 0, 0, 0, time.UTC)
	clock := provenance.NewPinnedClock(pinnedNow, "run-scenario-4")
	deps := avonFixture(pinnedNow)
	deps.Clock = clock

	reg, err := suppression.Compile([]suppression.Rule{
		{ID: "global_test_alerts", Kind: suppression.KindKeyword, Field: suppression.FieldAny, Pattern: "test"},
	}, nil)
	require.NoError(t, err)
	deps.Suppression = reg

	_, _, err = deps.RawStore.Save(&models.RawItem{
		RawItemID:      "r1",
		SourceID:       "nws_active_us",
		CanonicalID:    "NWS-TEST-001",
		Title:          "Test Message",
		RawText:        "this is a test",
		FetchedAtUTC:   pinnedNow,
		PublishedAtUTC: pinnedNow,
		TrustTier:      2,
		Tier:           models.TierLocal,
	})
	require.NoError(t, err)

	report, err := Run(context.Background(), deps, Options{Since: pinnedNow.Add(-time.Hour), RunGroupID: "run-scenario-4"})
	require.NoError(t, err)
	require.Len(t, report.Items, 1)
	assert.True(t, report.Items[0].Suppressed)
	assert.Empty(t, report.Items[0].AlertID)

	alerts := deps.AlertStore.(interface{ List() []models.Alert }).List()
	assert.Empty(t, alerts)

	raw, ok := deps.RawStore.Get("r1")
	require.True(t, ok)
	assert.True(t, raw.Suppression.Suppressed)
	assert.Equal(t, "global_test_alerts", raw.Suppression.PrimaryRuleID)
}
