package brief

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hardstop/hardstop/internal/models"
)

func TestSortAlerts_TotalOrder(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	alerts := []models.Alert{
		{AlertID: "ALERT-B", Classification: models.ClassificationRelevant, ImpactScore: 5, LastSeenUTC: now},
		{AlertID: "ALERT-A", Classification: models.ClassificationImpactful, ImpactScore: 3, LastSeenUTC: now},
		{AlertID: "ALERT-C", Classification: models.ClassificationImpactful, ImpactScore: 9, LastSeenUTC: now},
	}
	sortAlerts(alerts)
	var got []string
	for _, a := range alerts {
		got = append(got, a.AlertID)
	}
	assert.Equal(t, []string{"ALERT-C", "ALERT-A", "ALERT-B"}, got)
}

func TestBuild_PartitionsByCorrelationAction(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	alerts := []models.Alert{
		{AlertID: "ALERT-1", CorrelationAction: models.CorrelationCreated, LastSeenUTC: now, FirstSeenUTC: now},
		{AlertID: "ALERT-2", CorrelationAction: models.CorrelationUpdated, LastSeenUTC: now, FirstSeenUTC: now},
	}
	r := Build(alerts, nil, Window24h, now, Config{})
	assert.Len(t, r.Created, 1)
	assert.Len(t, r.Updated, 1)
	assert.Equal(t, "ALERT-1", r.Created[0].AlertID)
	assert.Equal(t, "ALERT-2", r.Updated[0].AlertID)
}

func TestBuild_TopCapsAtTwoByDefault(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var alerts []models.Alert
	for i := 0; i < 5; i++ {
		alerts = append(alerts, models.Alert{
			AlertID:        string(rune('A' + i)),
			Classification: models.ClassificationImpactful,
			ImpactScore:    10 - i,
			LastSeenUTC:    now,
			FirstSeenUTC:   now,
		})
	}
	r := Build(alerts, nil, Window24h, now, Config{})
	assert.Len(t, r.Top, DefaultTopClassTwoLimit)
}

func TestBuild_OutsideWindowExcluded(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	old := now.Add(-200 * time.Hour)
	alerts := []models.Alert{
		{AlertID: "OLD", LastSeenUTC: old, FirstSeenUTC: old},
		{AlertID: "NEW", LastSeenUTC: now, FirstSeenUTC: now},
	}
	r := Build(alerts, nil, Window168h, now, Config{})
	var ids []string
	for _, a := range append(append([]models.Alert{}, r.Created...), r.Updated...) {
		ids = append(ids, a.AlertID)
	}
	assert.NotContains(t, ids, "OLD")
}

func TestBuild_CountsAndTierCounts(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	alerts := []models.Alert{
		{AlertID: "A1", CorrelationAction: models.CorrelationCreated, Classification: models.ClassificationImpactful, Tier: models.TierGlobal, LastSeenUTC: now, FirstSeenUTC: now},
		{AlertID: "A2", CorrelationAction: models.CorrelationUpdated, Classification: models.ClassificationRelevant, Tier: models.TierLocal, LastSeenUTC: now, FirstSeenUTC: now},
	}
	r := Build(alerts, nil, Window24h, now, Config{})
	assert.Equal(t, 1, r.Counts.New)
	assert.Equal(t, 1, r.Counts.Updated)
	assert.Equal(t, 1, r.Counts.Impactful)
	assert.Equal(t, 1, r.Counts.Relevant)
	assert.Equal(t, 1, r.TierCounts.Global)
	assert.Equal(t, 1, r.TierCounts.Local)
}

func TestBuild_SuppressedTopFiveByRuleAndSource(t *testing.T) {
	obs := []SuppressionObservation{
		{RuleID: "R1", SourceID: "S1"},
		{RuleID: "R1", SourceID: "S1"},
		{RuleID: "R2", SourceID: "S2"},
	}
	r := Build(nil, obs, Window24h, time.Now(), Config{})
	assert.Equal(t, 3, r.Suppressed.Count)
	assert.Equal(t, "R1", r.Suppressed.ByRule[0].Key)
	assert.Equal(t, 2, r.Suppressed.ByRule[0].Count)
}
