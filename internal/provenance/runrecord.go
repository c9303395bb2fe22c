package provenance

import (
	"fmt"
	"time"

	"github.com/hardstop/hardstop/internal/models"
)

// RunRecorder accumulates a single operator invocation's provenance and
// guarantees a RunRecord is finalized on every exit path, success or
// failure. Callers begin a recorder, record reads/writes/diagnostics as
// they happen, then finalize exactly once — typically via a deferred
// Finish call so failure paths still emit a record.
type RunRecorder struct {
	clock      Clock
	operatorID string
	configHash string
	runGroupID string
	startedAt  time.Time

	inputRefs  []models.ArtifactRef
	outputRefs []models.ArtifactRef
	warnings   []models.Warning
	errors     []string
	finished   bool
}

// Begin pins run_id, started_at, operator_id, mode, and config_hash for a
// new operator invocation.
func Begin(clock Clock, operatorID, configHash, runGroupID string) *RunRecorder {
	return &RunRecorder{
		clock:      clock,
		operatorID: operatorID,
		configHash: configHash,
		runGroupID: runGroupID,
		startedAt:  clock.Now(),
	}
}

// RecordInput appends an input artifact reference.
func (r *RunRecorder) RecordInput(ref models.ArtifactRef) {
	r.inputRefs = append(r.inputRefs, ref)
}

// RecordOutput appends an output artifact reference.
func (r *RunRecorder) RecordOutput(ref models.ArtifactRef) {
	r.outputRefs = append(r.outputRefs, ref)
}

// RecordWarning appends an ordered diagnostic. Warnings never become Go
// errors; they surface only in the finished RunRecord.
func (r *RunRecorder) RecordWarning(w models.Warning) {
	r.warnings = append(r.warnings, w)
}

// RecordError appends a fatal-adjacent error message without finalizing.
// Used when a DeterminismViolation or similar is detected mid-operator but
// the caller still wants to record reads/writes observed so far.
func (r *RunRecorder) RecordError(err error) {
	if err != nil {
		r.errors = append(r.errors, err.Error())
	}
}

// Finish finalizes the RunRecord with ended_at and cost, exactly once.
// Calling Finish a second time is a no-op so deferred-Finish plus an
// explicit success-path Finish never double-emits.
func (r *RunRecorder) Finish(bytesIn, bytesOut int64) *models.RunRecord {
	if r.finished {
		return nil
	}
	r.finished = true
	endedAt := r.clock.Now()

	best := models.BestEffortMeta{}
	mode := models.ModeStrict
	if r.clock.Mode() == ModeBestEffort {
		mode = models.ModeBestEffort
		best.Seed = r.clock.Seed()
	}

	return &models.RunRecord{
		RunID:      fmt.Sprintf("%s/%s", r.clock.RunID(), r.operatorID),
		OperatorID: r.operatorID,
		StartedAt:  r.startedAt,
		EndedAt:    endedAt,
		Mode:       mode,
		ConfigHash: r.configHash,
		InputRefs:  r.inputRefs,
		OutputRefs: r.outputRefs,
		Warnings:   r.warnings,
		Errors:     r.errors,
		Cost: models.Cost{
			Duration: endedAt.Sub(r.startedAt),
			BytesIn:  bytesIn,
			BytesOut: bytesOut,
		},
		BestEffort: best,
		RunGroupID: r.runGroupID,
	}
}

// FinishWithError finalizes the RunRecord after recording a fatal error,
// matching §7's "fatal errors halt the pipeline after finalizing the
// current operator's RunRecord".
func (r *RunRecorder) FinishWithError(err error, bytesIn, bytesOut int64) *models.RunRecord {
	r.RecordError(err)
	return r.Finish(bytesIn, bytesOut)
}
