package correlator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardstop/hardstop/internal/models"
)

type fakeStore struct {
	byID  map[string]models.Alert
	byKey map[string][]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: map[string]models.Alert{}, byKey: map[string][]string{}}
}

func (f *fakeStore) FindActiveByKey(key string, windowStart time.Time) (models.Alert, bool) {
	var best models.Alert
	found := false
	for _, id := range f.byKey[key] {
		a := f.byID[id]
		if a.LastSeenUTC.Before(windowStart) {
			continue
		}
		if !found || a.LastSeenUTC.After(best.LastSeenUTC) {
			best = a
			found = true
		}
	}
	return best, found
}

func (f *fakeStore) Upsert(a models.Alert) error {
	if _, ok := f.byID[a.AlertID]; !ok {
		f.byKey[a.CorrelationKey] = append(f.byKey[a.CorrelationKey], a.AlertID)
	}
	f.byID[a.AlertID] = a
	return nil
}

func TestKey_UsesSmallestFacilityAndLane(t *testing.T) {
	key := Key(models.EventTypeSafetyAndOperations, []string{"PLANT-02", "PLANT-01"}, []string{"LANE-003", "LANE-001"})
	assert.Equal(t, "SAFETY|PLANT-01|LANE-001", key)
}

func TestKey_WildcardWhenNoLinkage(t *testing.T) {
	key := Key(models.EventTypeWeather, nil, nil)
	assert.Equal(t, "WEATHER|*|*", key)
}

func TestUpsert_FirstEventCreates(t *testing.T) {
	store := newFakeStore()
	locks := NewKeyLock()
	now := time.Date(2025, 12, 29, 17, 0, 0, 0, time.UTC)

	ev := &models.Event{
		EventID:         "EVT-aaaaaaaa",
		SourceID:        "nws_active_us",
		EventType:       models.EventTypeSafetyAndOperations,
		Title:           "Hydrochloric acid spill at Avon, Indiana",
		ObservedOrFetch: now,
		TrustTier:       3,
		Tier:            models.TierRegional,
	}
	in := Input{
		Event:          ev,
		Scope:          models.AlertScope{FacilityIDs: []string{"PLANT-01"}, LaneIDs: []string{"LANE-001"}},
		ImpactScore:    5,
		Classification: models.ClassificationImpactful,
		Now:            now,
	}

	result, err := Upsert(store, locks, in)
	require.NoError(t, err)
	assert.Equal(t, models.CorrelationCreated, result.Action)
	assert.Equal(t, "SAFETY|PLANT-01|LANE-001", result.Alert.CorrelationKey)
	assert.Equal(t, 1, result.Alert.UpdateCount)
	assert.Equal(t, []string{"EVT-aaaaaaaa"}, result.Alert.RootEventIDs)
	assert.True(t, result.Alert.FirstSeenUTC.Equal(now))
	assert.True(t, result.Alert.LastSeenUTC.Equal(now))
	assert.Nil(t, result.PriorAlert)
}

func TestUpsert_SecondEventWithinWindowUpdates(t *testing.T) {
	store := newFakeStore()
	locks := NewKeyLock()
	t1 := time.Date(2025, 12, 29, 17, 0, 0, 0, time.UTC)
	t2 := t1.Add(6 * time.Hour)

	ev1 := &models.Event{EventID: "EVT-1", SourceID: "nws", EventType: models.EventTypeSafetyAndOperations, ObservedOrFetch: t1, TrustTier: 3}
	first, err := Upsert(store, locks, Input{
		Event:          ev1,
		Scope:          models.AlertScope{FacilityIDs: []string{"PLANT-01"}, LaneIDs: []string{"LANE-001"}},
		ImpactScore:    5,
		Classification: models.ClassificationImpactful,
		Now:            t1,
	})
	require.NoError(t, err)

	ev2 := &models.Event{EventID: "EVT-2", SourceID: "nws", EventType: models.EventTypeSafetyAndOperations, ObservedOrFetch: t2, TrustTier: 3}
	second, err := Upsert(store, locks, Input{
		Event:          ev2,
		Scope:          models.AlertScope{FacilityIDs: []string{"PLANT-01"}, LaneIDs: []string{"LANE-001"}},
		ImpactScore:    3,
		Classification: models.ClassificationRelevant,
		Now:            t2,
	})
	require.NoError(t, err)

	assert.Equal(t, models.CorrelationUpdated, second.Action)
	assert.Equal(t, first.Alert.AlertID, second.Alert.AlertID)
	assert.Equal(t, 2, second.Alert.UpdateCount)
	assert.Equal(t, []string{"EVT-1", "EVT-2"}, second.Alert.RootEventIDs)
	assert.True(t, second.Alert.FirstSeenUTC.Equal(t1), "first_seen_utc must not change on update")
	assert.True(t, second.Alert.LastSeenUTC.Equal(t2))
	// monotonic score: max(5,3) == 5, not the new lower score.
	assert.Equal(t, 5, second.Alert.ImpactScore)
	assert.Equal(t, models.ClassificationImpactful, second.Alert.Classification)
}

func TestUpsert_UpdateReResolvesShipmentsOverUnionedLanes(t *testing.T) {
	store := newFakeStore()
	locks := NewKeyLock()
	t1 := time.Date(2025, 12, 29, 17, 0, 0, 0, time.UTC)
	t2 := t1.Add(6 * time.Hour)

	ev1 := &models.Event{EventID: "EVT-1", SourceID: "nws", EventType: models.EventTypeSafetyAndOperations, ObservedOrFetch: t1}
	_, err := Upsert(store, locks, Input{
		Event: ev1,
		Scope: models.AlertScope{
			FacilityIDs:          []string{"PLANT-01"},
			LaneIDs:              []string{"LANE-001", "LANE-003"},
			ShipmentIDs:          []string{"S1", "S2", "S3", "S4", "S5", "S6"},
			ShipmentsTotalLinked: 6,
		},
		Now: t1,
	})
	require.NoError(t, err)

	var resolvedLaneIDs []string
	ev2 := &models.Event{EventID: "EVT-2", SourceID: "nws", EventType: models.EventTypeSafetyAndOperations, ObservedOrFetch: t2}
	second, err := Upsert(store, locks, Input{
		Event: ev2,
		Scope: models.AlertScope{
			FacilityIDs: []string{"PLANT-01", "PLANT-02"},
			LaneIDs:     []string{"LANE-001", "LANE-002"},
			ShipmentIDs: []string{"S7", "S8", "S9"},
		},
		Now: t2,
		ResolveShipments: func(laneIDs []string) ([]string, int, bool) {
			resolvedLaneIDs = laneIDs
			return []string{"S1", "S2", "S7"}, 9, true
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"LANE-001", "LANE-002", "LANE-003"}, resolvedLaneIDs, "resolver must see the unioned lane set, not one event's isolated lanes")
	assert.Equal(t, []string{"PLANT-01", "PLANT-02"}, second.Alert.Scope.FacilityIDs)
	assert.Equal(t, []string{"S1", "S2", "S7"}, second.Alert.Scope.ShipmentIDs, "shipments must come from the re-query over the merged scope, not either event's own isolated linkage")
	assert.Equal(t, 9, second.Alert.Scope.ShipmentsTotalLinked)
	assert.True(t, second.Alert.Scope.ShipmentsTruncated)
}

func TestUpsert_UpdateWithoutResolverKeepsIncomingShipments(t *testing.T) {
	store := newFakeStore()
	locks := NewKeyLock()
	t1 := time.Date(2025, 12, 29, 17, 0, 0, 0, time.UTC)
	t2 := t1.Add(6 * time.Hour)

	ev1 := &models.Event{EventID: "EVT-1", SourceID: "nws", EventType: models.EventTypeSafetyAndOperations, ObservedOrFetch: t1}
	_, err := Upsert(store, locks, Input{
		Event: ev1,
		Scope: models.AlertScope{FacilityIDs: []string{"PLANT-01"}, LaneIDs: []string{"LANE-001"}},
		Now:   t1,
	})
	require.NoError(t, err)

	ev2 := &models.Event{EventID: "EVT-2", SourceID: "nws", EventType: models.EventTypeSafetyAndOperations, ObservedOrFetch: t2}
	second, err := Upsert(store, locks, Input{
		Event: ev2,
		Scope: models.AlertScope{FacilityIDs: []string{"PLANT-01"}, LaneIDs: []string{"LANE-001"}, ShipmentIDs: []string{"S7"}},
		Now:   t2,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"S7"}, second.Alert.Scope.ShipmentIDs, "no network snapshot to query means the incoming scope's own shipment fields pass through unchanged")
}

func TestUpsert_OutsideWindowCreatesNewAlert(t *testing.T) {
	store := newFakeStore()
	locks := NewKeyLock()
	t1 := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(8 * 24 * time.Hour)

	ev1 := &models.Event{EventID: "EVT-1", SourceID: "nws", EventType: models.EventTypeSafetyAndOperations, ObservedOrFetch: t1}
	first, err := Upsert(store, locks, Input{
		Event: ev1,
		Scope: models.AlertScope{FacilityIDs: []string{"PLANT-01"}, LaneIDs: []string{"LANE-001"}},
		Now:   t1,
	})
	require.NoError(t, err)

	ev2 := &models.Event{EventID: "EVT-2", SourceID: "nws", EventType: models.EventTypeSafetyAndOperations, ObservedOrFetch: t2}
	second, err := Upsert(store, locks, Input{
		Event: ev2,
		Scope: models.AlertScope{FacilityIDs: []string{"PLANT-01"}, LaneIDs: []string{"LANE-001"}},
		Now:   t2,
	})
	require.NoError(t, err)

	assert.Equal(t, models.CorrelationCreated, second.Action)
	assert.NotEqual(t, first.Alert.AlertID, second.Alert.AlertID)
}
