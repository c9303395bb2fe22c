package commands

import (
	"github.com/hardstop/hardstop/internal/config"
	"github.com/hardstop/hardstop/internal/pipeline"
	"github.com/hardstop/hardstop/internal/provenance"
	"github.com/hardstop/hardstop/internal/suppression"
)

// runtimeConfig is the resolved shape every command that touches the
// sources/suppression registries needs: the folded per-source settings,
// a compiled suppression registry, and the config fingerprint every
// RunRecord in a run carries.
type runtimeConfig struct {
	Sources    []config.ResolvedSource
	Suppression *suppression.Registry
	ConfigHash  string
}

// configSnapshot is the exact payload fingerprinted into ConfigHash;
// kept separate from runtimeConfig so adding CLI-only fields later (e.g.
// a --dry-run flag) can't silently perturb the fingerprint.
type configSnapshot struct {
	Sources         []config.ResolvedSource
	SuppressionFile *config.SuppressionFile
}

// loadRuntimeConfig loads and resolves the sources and suppression
// registries from disk, compiles the suppression registry, and
// fingerprints the resolved snapshot. suppressionPath may be empty, in
// which case the registry holds only each source's inline suppress rules.
func loadRuntimeConfig(sourcesPath, suppressionPath string) (*runtimeConfig, error) {
	sourcesFile, err := config.LoadSourcesFile(sourcesPath)
	if err != nil {
		return nil, err
	}
	resolved := sourcesFile.Resolve()

	var suppressionFile *config.SuppressionFile
	if suppressionPath != "" {
		suppressionFile, err = config.LoadSuppressionFile(suppressionPath)
		if err != nil {
			return nil, err
		}
	}

	registry, err := config.BuildRegistry(suppressionFile, resolved)
	if err != nil {
		return nil, err
	}

	configHash, err := provenance.ConfigFingerprint(configSnapshot{
		Sources:         resolved,
		SuppressionFile: suppressionFile,
	})
	if err != nil {
		return nil, err
	}

	return &runtimeConfig{Sources: resolved, Suppression: registry, ConfigHash: configHash}, nil
}

// sourceOverrides folds each resolved source's weighting_bias and
// classification_floor into the map pipeline.Deps consults.
func (rc *runtimeConfig) sourceOverrides() map[string]pipeline.SourceOverride {
	out := make(map[string]pipeline.SourceOverride, len(rc.Sources))
	for _, s := range rc.Sources {
		out[s.ID] = pipeline.SourceOverride{
			WeightingBias:       s.WeightingBias,
			ClassificationFloor: s.ClassificationFloor,
		}
	}
	return out
}

// enabledSourceIDs returns the ids of every enabled resolved source, the
// set pipeline.Options.SourceIDs pre-seeds so a source with nothing new
// to ingest this run still reports a zero-item SourceRun.
func (rc *runtimeConfig) enabledSourceIDs() []string {
	var out []string
	for _, s := range rc.Sources {
		if s.Enabled {
			out = append(out, s.ID)
		}
	}
	return out
}
