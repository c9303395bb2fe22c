package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardstop/hardstop/internal/models"
)

func intPtr(v int) *int { return &v }

func TestResolve_PerSourceOverrideWinsOverTierDefaultsWinsOverDefaults(t *testing.T) {
	f := &SourcesFile{
		Tiers: Tiers{
			Global: []SourceSpec{
				{ID: "g1", Type: "rss", Enabled: true}, // no overrides: falls to tier_defaults
				{ID: "g2", Type: "rss", Enabled: true, TrustTier: intPtr(1)}, // per-source override
			},
		},
		Defaults: TierDefaults{TrustTier: intPtr(2), ClassificationFloor: intPtr(0), WeightingBias: intPtr(0)},
		TierDefaults: map[string]TierDefaults{
			"global": {TrustTier: intPtr(3), ClassificationFloor: intPtr(1)},
		},
	}

	resolved := f.Resolve()
	require.Len(t, resolved, 2)

	assert.Equal(t, "g1", resolved[0].ID)
	assert.Equal(t, models.TrustTier(3), resolved[0].TrustTier)          // from tier_defaults
	assert.Equal(t, 1, resolved[0].ClassificationFloor)                  // from tier_defaults
	assert.Equal(t, 0, resolved[0].WeightingBias)                        // from defaults

	assert.Equal(t, "g2", resolved[1].ID)
	assert.Equal(t, models.TrustTier(1), resolved[1].TrustTier) // per-source wins
}

func TestValidate_RejectsDuplicateSourceIDAcrossTiers(t *testing.T) {
	f := &SourcesFile{
		Tiers: Tiers{
			Global: []SourceSpec{{ID: "dup", Type: "rss"}},
			Local:  []SourceSpec{{ID: "dup", Type: "rss"}},
		},
	}
	err := f.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate source id")
}

func TestValidate_RejectsOutOfRangeModifiers(t *testing.T) {
	f := &SourcesFile{
		Tiers: Tiers{
			Global: []SourceSpec{{ID: "s1", Type: "rss", TrustTier: intPtr(9)}},
		},
	}
	err := f.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trust_tier")
}

func TestValidate_RejectsUnsupportedSchemaVersion(t *testing.T) {
	f := &SourcesFile{
		SchemaVersion: "v999",
		Tiers:         Tiers{Global: []SourceSpec{{ID: "s1", Type: "rss"}}},
	}
	err := f.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema_version")
}

func TestLoadSourcesFile_RoundTripsFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.yaml")
	yaml := `
schema_version: v1
tiers:
  global:
    - id: g1
      type: rss
      url: https://example.com/feed
      enabled: true
      tags: [safety]
defaults:
  trust_tier: 2
  classification_floor: 0
  weighting_bias: 0
tier_defaults:
  global:
    trust_tier: 3
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	f, err := LoadSourcesFile(path)
	require.NoError(t, err)
	require.Len(t, f.Tiers.Global, 1)

	resolved := f.Resolve()
	require.Len(t, resolved, 1)
	assert.Equal(t, models.TrustTier(3), resolved[0].TrustTier)
	assert.Equal(t, models.TierGlobal, resolved[0].Tier)
}
