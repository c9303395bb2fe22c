package evidence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardstop/hardstop/internal/correlator"
	"github.com/hardstop/hardstop/internal/models"
	"github.com/hardstop/hardstop/internal/provenance"
)

func TestBuild_CreateHasOnlySameCorrelationKey(t *testing.T) {
	clock := provenance.NewBestEffortClock(time.Date(2025, 12, 29, 17, 0, 0, 0, time.UTC), "run-1", "seed-1")
	ev := &models.Event{EventID: "EVT-1", Facilities: []string{"PLANT-01"}, ObservedOrFetch: clock.Now()}
	result := correlator.Result{
		Alert:  models.Alert{AlertID: "ALERT-1", RootEventIDs: []string{"EVT-1"}},
		Action: models.CorrelationCreated,
	}

	out, err := Build("ARTIFACT-1", result, ev, clock)
	require.NoError(t, err)
	assert.Equal(t, []models.MergeReasonCode{models.MergeSameCorrelationKey}, out.MergeReasons)
	assert.Equal(t, models.DeterminismPinned, out.DeterminismMode)
	require.NotNil(t, out.DeterminismContext)
	assert.Equal(t, "seed-1", out.DeterminismContext.Seed)
	assert.NotEmpty(t, out.ArtifactHash)
}

func TestBuild_UpdateWithSharedFacilityAddsReason(t *testing.T) {
	clock := provenance.NewBestEffortClock(time.Date(2025, 12, 29, 23, 0, 0, 0, time.UTC), "run-1", "seed-1")
	prior := models.Alert{
		AlertID:      "ALERT-1",
		Scope:        models.AlertScope{FacilityIDs: []string{"PLANT-01"}},
		LastSeenUTC:  time.Date(2025, 12, 29, 17, 0, 0, 0, time.UTC),
		RootEventIDs: []string{"EVT-1"},
	}
	ev := &models.Event{EventID: "EVT-2", Facilities: []string{"PLANT-01"}, ObservedOrFetch: clock.Now()}
	result := correlator.Result{
		Alert:      models.Alert{AlertID: "ALERT-1", RootEventIDs: []string{"EVT-1", "EVT-2"}, Scope: models.AlertScope{FacilityIDs: []string{"PLANT-01"}}},
		PriorAlert: &prior,
		Action:     models.CorrelationUpdated,
	}

	out, err := Build("ARTIFACT-2", result, ev, clock)
	require.NoError(t, err)
	assert.Contains(t, out.MergeReasons, models.MergeSharedFacilities)
	assert.Contains(t, out.MergeReasons, models.MergeTemporalOverlap)
	assert.Equal(t, []string{"PLANT-01"}, out.Overlap.FacilityIDs)
}

func TestBuild_LiveModeHasNoDeterminismContext(t *testing.T) {
	clock := provenance.NewLiveClock("run-1")
	ev := &models.Event{EventID: "EVT-1", ObservedOrFetch: clock.Now()}
	result := correlator.Result{Alert: models.Alert{AlertID: "ALERT-1", RootEventIDs: []string{"EVT-1"}}}

	out, err := Build("ARTIFACT-1", result, ev, clock)
	require.NoError(t, err)
	assert.Equal(t, models.DeterminismLive, out.DeterminismMode)
	assert.Nil(t, out.DeterminismContext)
}
