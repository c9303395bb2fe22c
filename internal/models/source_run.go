package models

import "time"

// RunPhase identifies which half of the pipeline a SourceRun covers.
type RunPhase string

const (
	PhaseFetch  RunPhase = "FETCH"
	PhaseIngest RunPhase = "INGEST"
)

// RunStatus is the outcome of a SourceRun.
type RunStatus string

const (
	RunSuccess RunStatus = "SUCCESS"
	RunFailure RunStatus = "FAILURE"
)

// SourceRunCounters holds the per-phase telemetry counters.
type SourceRunCounters struct {
	ItemsFetched        int
	ItemsNew            int
	ItemsProcessed      int
	ItemsSuppressed     int
	ItemsEventsCreated  int
	ItemsAlertsTouched  int
	BytesDownloaded     int64
}

// SourceRun is a telemetry row per (phase, source, run_group). Exactly
// one record exists per tuple; the table is append-only.
type SourceRun struct {
	RunGroupID string
	Phase      RunPhase
	SourceID   string
	Status     RunStatus
	StatusCode int
	Error      string // truncated to 1000 chars
	Duration   time.Duration
	Counters   SourceRunCounters
	Diagnostics MetadataMap
	RunAtUTC   time.Time
}

const maxSourceRunErrorLen = 1000

// NewSourceRun builds a SourceRun with no error set; SetError stores an
// error truncated to the 1000 character bound.
func NewSourceRun(runGroupID string, phase RunPhase, sourceID string, status RunStatus, runAt time.Time) *SourceRun {
	return &SourceRun{
		RunGroupID: runGroupID,
		Phase:      phase,
		SourceID:   sourceID,
		Status:     status,
		RunAtUTC:   runAt,
	}
}

// SetError truncates and stores the error string.
func (s *SourceRun) SetError(msg string) {
	if len(msg) > maxSourceRunErrorLen {
		msg = msg[:maxSourceRunErrorLen]
	}
	s.Error = msg
}
