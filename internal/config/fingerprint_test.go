package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint_SourceOrderChangesFingerprint(t *testing.T) {
	a := ResolvedSnapshot{
		Sources: []ResolvedSource{
			{ID: "s1", TrustTier: 2},
			{ID: "s2", TrustTier: 1},
		},
	}
	b := ResolvedSnapshot{
		Sources: []ResolvedSource{
			{ID: "s2", TrustTier: 1},
			{ID: "s1", TrustTier: 2},
		},
	}

	hashA, err := a.Fingerprint()
	require.NoError(t, err)
	hashB, err := b.Fingerprint()
	require.NoError(t, err)

	// Canonical serialization sorts map keys but does not reorder slice
	// elements, so two source lists in different orders are two distinct
	// snapshots by design (Resolve always returns a sorted-by-id slice,
	// which is what makes fingerprints host-independent in practice).
	assert.NotEqual(t, hashA, hashB)
}

func TestFingerprint_IdenticalSnapshotsMatch(t *testing.T) {
	snap := ResolvedSnapshot{Sources: []ResolvedSource{{ID: "s1", TrustTier: 2}}}

	h1, err := snap.Fingerprint()
	require.NoError(t, err)
	h2, err := snap.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}
