package provenance

import (
	"crypto/sha256"
	"encoding/hex"
)

// ArtifactKind enumerates the artifact types the hasher signs.
type ArtifactKind string

const (
	KindRawItem          ArtifactKind = "raw_item"
	KindEvent            ArtifactKind = "event"
	KindAlert            ArtifactKind = "alert"
	KindIncidentEvidence ArtifactKind = "incident_evidence"
	KindRunRecord        ArtifactKind = "run_record"
	KindConfigSnapshot   ArtifactKind = "config_snapshot"
)

// Sentinel values substituted for wall-clock timestamps and local
// filesystem paths in live mode before hashing, per spec.md §4.A.
const (
	TimestampSentinel = "0001-01-01T00:00:00Z"
	PathSentinel      = "<path>"
)

// ArtifactHash computes SHA-256 over the canonical serialization of
// payload and returns it as a lowercase hex string. payload must already
// have any wall-clock/local-path fields pinned or scrubbed by the caller
// (see Scrub helpers in each operator package); this function does not
// inspect the payload's shape, it only hashes whatever canonical bytes it
// is given.
func ArtifactHash(payload interface{}) (string, error) {
	bs, err := CanonicalSerialize(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(bs)
	return hex.EncodeToString(sum[:]), nil
}

// MustArtifactHash panics if hashing fails. Safe to use once payload
// shapes are covered by tests — never call on caller-controlled payloads
// outside the pipeline's own types.
func MustArtifactHash(payload interface{}) string {
	h, err := ArtifactHash(payload)
	if err != nil {
		panic(err)
	}
	return h
}
