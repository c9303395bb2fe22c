package runstatus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate_HealthyWhenNothingWrong(t *testing.T) {
	in := Input{
		FetchOutcomes: []SourceFetchOutcome{{SourceID: "s1", Enabled: true, ItemsFetched: 3}},
	}
	r := Evaluate(in)
	assert.Equal(t, Healthy, r.ExitCode)
	assert.Empty(t, r.Messages)
}

func TestEvaluate_ConfigParseErrorIsBroken(t *testing.T) {
	r := Evaluate(Input{ConfigParseError: true})
	assert.Equal(t, Broken, r.ExitCode)
	assert.Equal(t, "config parse error", r.Messages[0].Text)
}

func TestEvaluate_ZeroEnabledSourcesIsBroken(t *testing.T) {
	r := Evaluate(Input{})
	assert.Equal(t, Broken, r.ExitCode)
}

func TestEvaluate_SomeFailedFetchIsWarningNotBroken(t *testing.T) {
	in := Input{
		FetchOutcomes: []SourceFetchOutcome{
			{SourceID: "s1", Enabled: true, ItemsFetched: 1},
			{SourceID: "s2", Enabled: true, Failed: true},
		},
	}
	r := Evaluate(in)
	assert.Equal(t, Warning, r.ExitCode)
}

func TestEvaluate_StrictPromotesWarningToBroken(t *testing.T) {
	in := Input{
		FetchOutcomes: []SourceFetchOutcome{
			{SourceID: "s1", Enabled: true, ItemsFetched: 1},
			{SourceID: "s2", Enabled: true, Failed: true},
		},
		Strict: true,
	}
	r := Evaluate(in)
	assert.Equal(t, Broken, r.ExitCode)
}

func TestEvaluate_BlockedSourceIsBrokenRegardlessOfFetch(t *testing.T) {
	in := Input{
		FetchOutcomes: []SourceFetchOutcome{{SourceID: "s1", Enabled: true, ItemsFetched: 1}},
		BudgetStates:  map[string]BudgetState{"s1": StateBlocked},
	}
	r := Evaluate(in)
	assert.Equal(t, Broken, r.ExitCode)
}

func TestEvaluate_MessagesOrderedByRuleThenSourceID(t *testing.T) {
	in := Input{
		FetchOutcomes: []SourceFetchOutcome{
			{SourceID: "zzz", Enabled: true, Failed: true},
			{SourceID: "aaa", Enabled: true, Failed: true},
		},
		ConfigParseError: true,
	}
	r := Evaluate(in)
	// The config parse error and "every enabled source failed fetch" are
	// both run-global Broken findings; the two per-source Warnings follow.
	assert.Equal(t, Broken, r.Messages[0].Rule)
	assert.Equal(t, "aaa", r.Messages[2].SourceID)
	assert.Equal(t, "zzz", r.Messages[3].SourceID)
}

func TestEvaluate_AllFetchFailedWithNoCleanZeroIsBroken(t *testing.T) {
	in := Input{
		FetchOutcomes: []SourceFetchOutcome{{SourceID: "s1", Enabled: true, Failed: true}},
	}
	r := Evaluate(in)
	assert.Equal(t, Broken, r.ExitCode)
}

func TestEvaluate_AllFetchZeroButCleanIsNotBrokenOnThatRule(t *testing.T) {
	in := Input{
		FetchOutcomes: []SourceFetchOutcome{{SourceID: "s1", Enabled: true, Failed: false, ItemsFetched: 0}},
	}
	r := Evaluate(in)
	assert.Equal(t, Healthy, r.ExitCode)
}
