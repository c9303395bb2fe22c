package provenance

// ConfigFingerprint hashes a resolved configuration snapshot (the output
// of internal/config's top-down merge: runtime, per-operator configs,
// environment overrides, tier defaults, with per-source overrides
// winning). The same resolved snapshot always yields the same hash,
// regardless of host, because CanonicalSerialize never depends on map
// iteration order or local formatting.
func ConfigFingerprint(resolvedSnapshot interface{}) (string, error) {
	return ArtifactHash(resolvedSnapshot)
}
