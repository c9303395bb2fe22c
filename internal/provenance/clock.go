// Package provenance implements Hardstop's provenance kernel: canonical
// serialization, artifact hashing, config fingerprinting, and RunRecord
// lifecycle management. It is the only package allowed to call
// crypto/sha256 on pipeline payloads, and the only source of "now" that
// operators may consult — per spec.md §9, the core never reads the wall
// clock directly.
package provenance

import (
	"time"

	"github.com/google/uuid"
)

// Clock supplies time and run identity to operators. The core may not
// read the wall clock directly; strict mode enforces this by construction
// since operators only ever see a Clock, never time.Now.
type Clock interface {
	// Now returns the current instant in UTC.
	Now() time.Time
	// RunID returns the identifier for the current execution.
	RunID() string
	// Mode reports whether the clock is operating in strict or
	// best-effort mode.
	Mode() ExecutionMode
	// Seed returns the best-effort seed, if any. Empty in strict mode.
	Seed() string
}

// ExecutionMode mirrors models.ExecutionMode without importing models,
// keeping provenance dependency-free of the data model package.
type ExecutionMode string

const (
	ModeStrict     ExecutionMode = "strict"
	ModeBestEffort ExecutionMode = "best-effort"
)

// pinnedClock is a Clock fixed to a caller-supplied instant and run id,
// used for CI snapshot reproduction and for strict-mode execution where
// every timestamp must be an explicit input.
type pinnedClock struct {
	now   time.Time
	runID string
	mode  ExecutionMode
	seed  string
}

// NewPinnedClock returns a Clock that always reports the given instant
// and run id. Used in strict mode and in tests.
func NewPinnedClock(now time.Time, runID string) Clock {
	return &pinnedClock{now: now.UTC(), runID: runID, mode: ModeStrict}
}

// NewBestEffortClock returns a Clock pinned to a caller-supplied instant
// and run id, but tagged best-effort so callers may additionally record a
// seed for declared nondeterminism elsewhere in the run.
func NewBestEffortClock(now time.Time, runID, seed string) Clock {
	return &pinnedClock{now: now.UTC(), runID: runID, mode: ModeBestEffort, seed: seed}
}

func (c *pinnedClock) Now() time.Time        { return c.now }
func (c *pinnedClock) RunID() string         { return c.runID }
func (c *pinnedClock) Mode() ExecutionMode   { return c.mode }
func (c *pinnedClock) Seed() string          { return c.seed }

// LiveClock wraps time.Now/a generated run id behind the Clock interface
// for best-effort, interactive executions (e.g. `hardstop run` without
// --pin). It is the single call site in this module allowed to read the
// wall clock.
type LiveClock struct {
	runID string
	frozen time.Time
	mode  ExecutionMode
}

// NewLiveClock captures time.Now() once at construction so that a single
// operator invocation observes one consistent instant, matching the
// "caller-pinned" discipline spec.md requires even in best-effort mode.
// An empty runID generates a random one (`hardstop run` with no
// --run-group-id and no --pin has nothing else to derive an identity
// from), keeping the caller-pinned discipline intact for every other
// field.
func NewLiveClock(runID string) *LiveClock {
	if runID == "" {
		runID = uuid.NewString()
	}
	return &LiveClock{runID: runID, frozen: time.Now().UTC(), mode: ModeBestEffort}
}

func (c *LiveClock) Now() time.Time      { return c.frozen }
func (c *LiveClock) RunID() string       { return c.runID }
func (c *LiveClock) Mode() ExecutionMode { return c.mode }
func (c *LiveClock) Seed() string        { return "" }

// IsLive reports whether clock is backed by a genuine, non-reproducible
// wall-clock read rather than a caller-pinned instant. Mode() alone
// cannot answer this: NewBestEffortClock is tagged best-effort but
// still pins an explicit instant, so it is not live. Callers that must
// decide whether to scrub wall-clock fields before hashing (spec.md
// §4.C, §4.H) use this, not Mode().
func IsLive(clock Clock) bool {
	_, ok := clock.(*LiveClock)
	return ok
}
