package config

import (
	"github.com/hardstop/hardstop/internal/provenance"
)

// ResolvedSnapshot is the canonical, host-independent view of loaded
// configuration the provenance kernel fingerprints (spec.md §6's
// "config_hash", §8's "Config fingerprint" invariant). Two configs whose
// snapshots are canonically equal must fingerprint identically.
type ResolvedSnapshot struct {
	Sources          []ResolvedSource
	SuppressionRules SuppressionFile
}

// Fingerprint hashes the resolved snapshot via provenance's canonical
// serialization, so map/slice ordering never affects the hash.
func (s ResolvedSnapshot) Fingerprint() (string, error) {
	return provenance.ConfigFingerprint(s)
}

// Load reads the sources and suppression registries from the given
// paths and folds them into a Resolved snapshot ready for fingerprinting
// and for compiling the suppression.Registry via BuildRegistry.
func Load(sourcesPath, suppressionPath string) (*SourcesFile, *SuppressionFile, ResolvedSnapshot, error) {
	sourcesFile, err := LoadSourcesFile(sourcesPath)
	if err != nil {
		return nil, nil, ResolvedSnapshot{}, err
	}

	suppressionFile, err := LoadSuppressionFile(suppressionPath)
	if err != nil {
		return nil, nil, ResolvedSnapshot{}, err
	}

	resolvedSources := sourcesFile.Resolve()
	snapshot := ResolvedSnapshot{
		Sources:          resolvedSources,
		SuppressionRules: *suppressionFile,
	}
	return sourcesFile, suppressionFile, snapshot, nil
}
