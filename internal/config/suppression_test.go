package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRegistry_GlobalDisabledSkipsGlobalRules(t *testing.T) {
	sf := &SuppressionFile{
		Enabled: false,
		Rules:   []SuppressRuleSpec{{ID: "r1", Kind: "keyword", Field: "title", Pattern: "spam"}},
	}
	reg, err := BuildRegistry(sf, nil)
	require.NoError(t, err)
	assert.Empty(t, reg.Global)
}

func TestBuildRegistry_PerSourceRulesCompiledUnderSourceID(t *testing.T) {
	sources := []ResolvedSource{
		{ID: "s1", Suppress: []SuppressRuleSpec{{ID: "local-1", Kind: "keyword", Field: "title", Pattern: "test"}}},
	}
	reg, err := BuildRegistry(&SuppressionFile{Enabled: true}, sources)
	require.NoError(t, err)
	require.Len(t, reg.PerSource["s1"], 1)
	assert.Equal(t, "local-1", reg.PerSource["s1"][0].ID)
}

func TestBuildRegistry_DuplicateGlobalIDsFail(t *testing.T) {
	sf := &SuppressionFile{
		Enabled: true,
		Rules: []SuppressRuleSpec{
			{ID: "dup", Kind: "keyword", Field: "title", Pattern: "a"},
			{ID: "dup", Kind: "keyword", Field: "title", Pattern: "b"},
		},
	}
	_, err := BuildRegistry(sf, nil)
	require.Error(t, err)
}
