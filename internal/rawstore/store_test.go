package rawstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardstop/hardstop/internal/models"
)

func item(id, sourceID, canonicalID, contentHash string, fetchedAt time.Time) *models.RawItem {
	return &models.RawItem{
		RawItemID:      id,
		SourceID:       sourceID,
		CanonicalID:    canonicalID,
		ContentHash:    contentHash,
		FetchedAtUTC:   fetchedAt,
		PublishedAtUTC: fetchedAt,
	}
}

func TestSave_IdempotentByCanonicalID(t *testing.T) {
	s := New()
	now := time.Now().UTC()

	res, id1, err := s.Save(item("r1", "src", "canon-1", "", now))
	require.NoError(t, err)
	assert.Equal(t, ResultCreated, res)

	res, id2, err := s.Save(item("r2", "src", "canon-1", "", now))
	require.NoError(t, err)
	assert.Equal(t, ResultDuplicate, res)
	assert.Equal(t, id1, id2)
}

func TestSave_IdempotentByContentHash(t *testing.T) {
	s := New()
	now := time.Now().UTC()

	_, id1, err := s.Save(item("r1", "src", "", "hash-1", now))
	require.NoError(t, err)

	res, id2, err := s.Save(item("r2", "other-src", "", "hash-1", now))
	require.NoError(t, err)
	assert.Equal(t, ResultDuplicate, res)
	assert.Equal(t, id1, id2)
}

func TestSave_RejectsMissingIdentity(t *testing.T) {
	s := New()
	_, _, err := s.Save(&models.RawItem{RawItemID: "r1", SourceID: "src"})
	assert.Error(t, err)
}

func TestListForIngest_FiltersBySinceAndOrdersDeterministically(t *testing.T) {
	s := New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, _, err := s.Save(item("r-old", "src", "c-old", "", base.Add(-1*time.Hour)))
	require.NoError(t, err)
	_, _, err = s.Save(item("r-b", "src", "c-b", "", base))
	require.NoError(t, err)
	_, _, err = s.Save(item("r-a", "src", "c-a", "", base))
	require.NoError(t, err)

	out, err := s.ListForIngest(base, false)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "r-a", out[0].RawItemID)
	assert.Equal(t, "r-b", out[1].RawItemID)
}

func TestListForIngest_ExcludesSuppressedUnlessRequested(t *testing.T) {
	s := New()
	now := time.Now().UTC()

	_, id, err := s.Save(item("r1", "src", "c1", "", now))
	require.NoError(t, err)
	require.NoError(t, s.MarkSuppressed(id, "rule-1", []string{"rule-1"}, "reason", models.SuppressionStageCanonicalization, now))

	out, err := s.ListForIngest(now.Add(-time.Minute), false)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = s.ListForIngest(now.Add(-time.Minute), true)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].Suppression.Suppressed)
}

func TestMarkSuppressed_StampsMetadataAndStatus(t *testing.T) {
	s := New()
	now := time.Now().UTC()
	_, id, err := s.Save(item("r1", "src", "c1", "", now))
	require.NoError(t, err)

	require.NoError(t, s.MarkSuppressed(id, "rule-1", []string{"rule-1", "rule-2"}, "spam", models.SuppressionStageCanonicalization, now))

	got, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, models.RawItemNormalized, got.Status)
	assert.True(t, got.Suppression.Suppressed)
	assert.Equal(t, "rule-1", got.Suppression.PrimaryRuleID)
	assert.Equal(t, []string{"rule-1", "rule-2"}, got.Suppression.AllRuleIDs)
	assert.Equal(t, now, got.Suppression.SuppressedAtUTC)
}

func TestMarkNormalized_TransitionsStatus(t *testing.T) {
	s := New()
	_, id, err := s.Save(item("r1", "src", "c1", "", time.Now()))
	require.NoError(t, err)

	require.NoError(t, s.MarkNormalized(id))
	got, _ := s.Get(id)
	assert.Equal(t, models.RawItemNormalized, got.Status)
}

func TestMarkFailed_TransitionsStatus(t *testing.T) {
	s := New()
	_, id, err := s.Save(item("r1", "src", "c1", "", time.Now()))
	require.NoError(t, err)

	require.NoError(t, s.MarkFailed(id))
	got, _ := s.Get(id)
	assert.Equal(t, models.RawItemFailed, got.Status)
}

func TestGet_UnknownIDReturnsFalse(t *testing.T) {
	s := New()
	_, ok := s.Get("nope")
	assert.False(t, ok)
}
