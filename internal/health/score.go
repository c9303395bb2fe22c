// Package health implements the source health scorer (spec.md §4.I):
// a rolling-window aggregation over SourceRun rows into a [0,100] score
// and a HEALTHY/WATCH/BLOCKED budget state.
//
// Grounded on moolen-spectre/internal/graph/query_cache.go's bounded
// recent-window bookkeeping, adapted from a query cache to a recent-runs
// window via hashicorp/golang-lru.
package health

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hardstop/hardstop/internal/models"
)

const (
	WindowSize = 10 // last N FETCH + last N INGEST runs considered

	RecentFailurePenalty    = 15
	RecentFailurePenaltyCap = 45
	StalePenalty            = 20
	SuppressionPenaltyUnit  = 10 // per 25% suppression ratio
	FailureStreakPenalty    = 25 // per 3 consecutive failures
	FailureStreakGroup      = 3

	NoHistoryScore = 30

	HealthyThreshold = 80
	WatchThreshold   = 50
)

// BudgetState is the operator-facing health band for a source.
type BudgetState string

const (
	StateHealthy BudgetState = "HEALTHY"
	StateWatch   BudgetState = "WATCH"
	StateBlocked BudgetState = "BLOCKED"
)

// Report is the computed health snapshot for one source.
type Report struct {
	SourceID           string
	Score              int
	State              BudgetState
	SuccessRate        float64
	StaleHours         float64
	FailureStreak      int
	SuppressionRatio   float64
	FetchRunsConsidered int
	IngestRunsConsidered int
}

// Window bounds a rolling view over a source's recent SourceRun rows,
// backed by a fixed-capacity LRU so memory stays bounded regardless of
// how many runs a long-lived process has observed.
type Window struct {
	fetch  *lru.Cache[string, []models.SourceRun] // sourceID -> recent FETCH rows, newest last
	ingest *lru.Cache[string, []models.SourceRun] // sourceID -> recent INGEST rows, newest last
}

// NewWindow creates an empty rolling window over up to maxSources
// distinct sources.
func NewWindow(maxSources int) *Window {
	fetch, _ := lru.New[string, []models.SourceRun](maxSources)
	ingest, _ := lru.New[string, []models.SourceRun](maxSources)
	return &Window{fetch: fetch, ingest: ingest}
}

// Record appends run to the appropriate per-source, per-phase slice,
// trimming to WindowSize.
func (w *Window) Record(run models.SourceRun) {
	cache := w.ingest
	if run.Phase == models.PhaseFetch {
		cache = w.fetch
	}
	runs, _ := cache.Get(run.SourceID)
	runs = append(runs, run)
	if len(runs) > WindowSize {
		runs = runs[len(runs)-WindowSize:]
	}
	cache.Add(run.SourceID, runs)
}

func (w *Window) fetchRuns(sourceID string) []models.SourceRun {
	runs, _ := w.fetch.Get(sourceID)
	return runs
}

func (w *Window) ingestRuns(sourceID string) []models.SourceRun {
	runs, _ := w.ingest.Get(sourceID)
	return runs
}

// staleThreshold is the per-spec default: a source with no successful
// fetch for this long is considered stale.
const staleThreshold = 24 * time.Hour

// Score computes the health Report for sourceID given the current
// window contents and the instant to measure staleness against.
// Deterministic given identical SourceRun inputs, per spec.md §4.I.
func Score(w *Window, sourceID string, now time.Time) Report {
	fetchRuns := w.fetchRuns(sourceID)
	ingestRuns := w.ingestRuns(sourceID)
	all := append(append([]models.SourceRun{}, fetchRuns...), ingestRuns...)

	if len(all) == 0 {
		return Report{SourceID: sourceID, Score: NoHistoryScore, State: StateBlocked}
	}

	successes := 0
	var lastSuccess time.Time
	itemsProcessed, itemsSuppressed := 0, 0
	for _, r := range all {
		if r.Status == models.RunSuccess {
			successes++
			if r.RunAtUTC.After(lastSuccess) {
				lastSuccess = r.RunAtUTC
			}
		}
		itemsProcessed += r.Counters.ItemsProcessed
		itemsSuppressed += r.Counters.ItemsSuppressed
	}
	successRate := float64(successes) / float64(len(all))

	var staleHours float64
	stale := false
	if lastSuccess.IsZero() {
		stale = true
		staleHours = now.Sub(all[0].RunAtUTC).Hours()
	} else {
		staleHours = now.Sub(lastSuccess).Hours()
		stale = now.Sub(lastSuccess) > staleThreshold
	}

	streak := consecutiveFailureStreak(all)

	suppressionRatio := 0.0
	if itemsProcessed > 0 {
		suppressionRatio = float64(itemsSuppressed) / float64(itemsProcessed)
	}

	score := 100
	recentFailures := countRecentFailures(all)
	score -= min(recentFailures*RecentFailurePenalty, RecentFailurePenaltyCap)
	if stale {
		score -= StalePenalty
	}
	score -= int(suppressionRatio/0.25) * SuppressionPenaltyUnit
	score -= (streak / FailureStreakGroup) * FailureStreakPenalty
	score = clampScore(score)

	return Report{
		SourceID:             sourceID,
		Score:                score,
		State:                stateFor(score),
		SuccessRate:          successRate,
		StaleHours:           staleHours,
		FailureStreak:        streak,
		SuppressionRatio:     suppressionRatio,
		FetchRunsConsidered:  len(fetchRuns),
		IngestRunsConsidered: len(ingestRuns),
	}
}

func stateFor(score int) BudgetState {
	switch {
	case score >= HealthyThreshold:
		return StateHealthy
	case score >= WatchThreshold:
		return StateWatch
	default:
		return StateBlocked
	}
}

// countRecentFailures counts FAILURE rows across the considered window.
func countRecentFailures(runs []models.SourceRun) int {
	n := 0
	for _, r := range runs {
		if r.Status == models.RunFailure {
			n++
		}
	}
	return n
}

// consecutiveFailureStreak counts the trailing run of FAILUREs, walking
// from the most recently recorded run backward. Runs arrive newest-last.
func consecutiveFailureStreak(runs []models.SourceRun) int {
	streak := 0
	for i := len(runs) - 1; i >= 0; i-- {
		if runs[i].Status != models.RunFailure {
			break
		}
		streak++
	}
	return streak
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
