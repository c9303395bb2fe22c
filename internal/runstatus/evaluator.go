// Package runstatus implements the run-status evaluator (spec.md
// §4.J): derives an exit code from fetch/ingest/config/schema/budget
// findings via an ordered, first-match rule list.
//
// Grounded on moolen-spectre/internal/api/errors/errors.go's ordered
// error-code-to-response precedence, generalized from HTTP status codes
// to the pipeline's three-valued exit code.
package runstatus

import "sort"

// ExitCode is the process-level outcome of one run.
type ExitCode int

const (
	Healthy ExitCode = 0
	Warning ExitCode = 1
	Broken  ExitCode = 2
)

// SourceFetchOutcome is one enabled source's fetch result for this run.
type SourceFetchOutcome struct {
	SourceID     string
	Enabled      bool
	Failed       bool
	ItemsFetched int
}

// BudgetState mirrors health.BudgetState without importing the health
// package, keeping runstatus's input surface a plain data structure any
// caller can populate without a hard dependency on health's internals.
type BudgetState string

const (
	StateHealthy BudgetState = "HEALTHY"
	StateWatch   BudgetState = "WATCH"
	StateBlocked BudgetState = "BLOCKED"
)

// Input bundles every finding the evaluator consults.
type Input struct {
	FetchOutcomes              []SourceFetchOutcome
	ConfigParseError           bool
	SchemaDriftOnRequiredColumn bool
	StaleSourceIDs              []string
	BudgetStates                 map[string]BudgetState // source_id -> state
	SuppressionDuplicateIDs       bool
	IngestRaisedBeforeAnySource   bool
	IngestRowFailures             []string // source_ids with a failed ingest row
	Strict                        bool
}

// Message is one ordered finding in the evaluator's output.
type Message struct {
	Rule     ExitCode // the exit code this finding would independently trigger
	SourceID string   // "" for a run-global finding
	Text     string
}

// Result is the evaluator's verdict.
type Result struct {
	ExitCode ExitCode
	Messages []Message
}

// Evaluate derives the run's exit code and its ordered message list.
// Rule precedence is fixed (Broken conditions checked first, then
// Warning); within a rule, messages are ordered by source_id.
func Evaluate(in Input) Result {
	var messages []Message

	enabledCount := 0
	allFailed := true
	anyCleanZero := false
	for _, f := range in.FetchOutcomes {
		if !f.Enabled {
			continue
		}
		enabledCount++
		if !f.Failed {
			allFailed = false
			if f.ItemsFetched == 0 {
				anyCleanZero = true
			}
		}
	}

	broken := false

	if in.ConfigParseError {
		messages = append(messages, Message{Rule: Broken, Text: "config parse error"})
		broken = true
	}
	if in.SchemaDriftOnRequiredColumn {
		messages = append(messages, Message{Rule: Broken, Text: "schema drift on required column"})
		broken = true
	}
	if enabledCount == 0 {
		messages = append(messages, Message{Rule: Broken, Text: "zero enabled sources"})
		broken = true
	}
	if enabledCount > 0 && allFailed && !anyCleanZero {
		messages = append(messages, Message{Rule: Broken, Text: "every enabled source failed fetch"})
		broken = true
	}
	if in.IngestRaisedBeforeAnySource {
		messages = append(messages, Message{Rule: Broken, Text: "ingest raised before processing any source"})
		broken = true
	}
	for _, id := range blockedSourceIDs(in.BudgetStates) {
		messages = append(messages, Message{Rule: Broken, SourceID: id, Text: "source in BLOCKED state"})
		broken = true
	}

	warning := false
	for _, f := range in.FetchOutcomes {
		if f.Enabled && f.Failed {
			messages = append(messages, Message{Rule: Warning, SourceID: f.SourceID, Text: "source failed fetch"})
			warning = true
		}
	}
	for _, id := range sortedCopy(in.StaleSourceIDs) {
		messages = append(messages, Message{Rule: Warning, SourceID: id, Text: "source stale beyond threshold"})
		warning = true
	}
	for _, id := range watchSourceIDs(in.BudgetStates) {
		messages = append(messages, Message{Rule: Warning, SourceID: id, Text: "source in WATCH state"})
		warning = true
	}
	if in.SuppressionDuplicateIDs {
		messages = append(messages, Message{Rule: Warning, Text: "suppression config has duplicate rule ids"})
		warning = true
	}
	for _, id := range sortedCopy(in.IngestRowFailures) {
		messages = append(messages, Message{Rule: Warning, SourceID: id, Text: "ingest row failed"})
		warning = true
	}

	sortMessages(messages)

	exit := Healthy
	switch {
	case broken:
		exit = Broken
	case warning:
		exit = Warning
	}
	if in.Strict && exit == Warning {
		exit = Broken
	}

	return Result{ExitCode: exit, Messages: messages}
}

func blockedSourceIDs(states map[string]BudgetState) []string {
	var out []string
	for id, s := range states {
		if s == StateBlocked {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func watchSourceIDs(states map[string]BudgetState) []string {
	var out []string
	for id, s := range states {
		if s == StateWatch {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func sortedCopy(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}

// sortMessages orders by rule precedence (Broken before Warning) then
// source_id, matching spec.md §4.J's "by rule precedence then source_id".
func sortMessages(messages []Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].Rule != messages[j].Rule {
			return messages[i].Rule > messages[j].Rule
		}
		return messages[i].SourceID < messages[j].SourceID
	})
}
