// Package suppression implements the suppression engine (spec.md §4.D):
// ordered global-then-per-source rule evaluation over a canonical Event.
//
// Grounded on moolen-spectre/internal/graph/validation's ordered
// rule-evaluation-over-a-typed-event style: first-match wins for
// classification, load-time validation is fatal, evaluation-time never
// is.
package suppression

import (
	"regexp"

	"github.com/hardstop/hardstop/internal/models"
)

// RuleKind is the matching strategy for a suppression rule.
type RuleKind string

const (
	KindKeyword RuleKind = "keyword"
	KindRegex   RuleKind = "regex"
	KindExact   RuleKind = "exact"
)

// RuleField names which Event field(s) a rule tests.
type RuleField string

const (
	FieldTitle      RuleField = "title"
	FieldSummary    RuleField = "summary"
	FieldRawText    RuleField = "raw_text"
	FieldURL        RuleField = "url"
	FieldEventType  RuleField = "event_type"
	FieldSourceID   RuleField = "source_id"
	FieldTier       RuleField = "tier"
	FieldAny        RuleField = "any"
)

// Rule is one suppression rule, sequence position significant.
type Rule struct {
	ID            string
	Kind          RuleKind
	Field         RuleField
	Pattern       string
	CaseSensitive bool
	ReasonCode    string

	compiled *regexp.Regexp // set by Compile for KindRegex
}

// Registry is the resolved, ordered rule set: global rules precede
// per-source rules unconditionally.
type Registry struct {
	Global    []Rule
	PerSource map[string][]Rule // source_id -> rules, declared order preserved
}

// Compile validates every rule (regex compiles, ids unique) and returns a
// ready-to-evaluate Registry. Fails fast with SuppressionLoadError; never
// fails during Evaluate.
func Compile(global []Rule, perSource map[string][]Rule) (*Registry, error) {
	compileList := func(rules []Rule) ([]Rule, error) {
		seen := make(map[string]bool, len(rules))
		out := make([]Rule, len(rules))
		for i, r := range rules {
			if r.ID == "" {
				return nil, models.NewSuppressionLoadError("", "rule at index %d has empty id", i)
			}
			if seen[r.ID] {
				return nil, models.NewSuppressionLoadError(r.ID, "duplicate rule id")
			}
			seen[r.ID] = true

			if r.Kind == KindRegex {
				flags := ""
				if !r.CaseSensitive {
					flags = "(?i)"
				}
				re, err := regexp.Compile(flags + r.Pattern)
				if err != nil {
					return nil, models.NewSuppressionLoadError(r.ID, "invalid regex %q: %v", r.Pattern, err)
				}
				r.compiled = re
			}
			out[i] = r
		}
		return out, nil
	}

	compiledGlobal, err := compileList(global)
	if err != nil {
		return nil, err
	}

	compiledPerSource := make(map[string][]Rule, len(perSource))
	for sourceID, rules := range perSource {
		cp, err := compileList(rules)
		if err != nil {
			return nil, err
		}
		compiledPerSource[sourceID] = cp
	}

	return &Registry{Global: compiledGlobal, PerSource: compiledPerSource}, nil
}
