package suppression

import (
	"strings"
	"time"

	"github.com/hardstop/hardstop/internal/models"
)

// EvalResult is the outcome of evaluating one Event against a Registry.
type EvalResult struct {
	Matched       bool
	PrimaryRuleID string
	ReasonCode    string
	AllRuleIDs    []string // in match order
}

// Evaluate runs global rules in declared order, then the event's
// per-source rules in declared order, collecting every match. The first
// matched rule becomes primary. Under --no-suppress the pipeline still
// runs evaluation (for diagnostics) but does not stamp the event —
// Evaluate itself is side-effect free either way; the caller decides
// whether to apply the stamp.
func Evaluate(reg *Registry, ev *models.Event) EvalResult {
	var result EvalResult

	consider := func(r Rule) {
		if matches(r, ev) {
			result.AllRuleIDs = append(result.AllRuleIDs, r.ID)
			if !result.Matched {
				result.Matched = true
				result.PrimaryRuleID = r.ID
				result.ReasonCode = r.ReasonCode
			}
		}
	}

	for _, r := range reg.Global {
		consider(r)
	}
	for _, r := range reg.PerSource[ev.SourceID] {
		consider(r)
	}

	return result
}

func matches(r Rule, ev *models.Event) bool {
	switch r.Field {
	case FieldAny:
		return matchText(r, ev.Title) || matchText(r, ev.Summary) || matchText(r, ev.RawText)
	case FieldTitle:
		return matchText(r, ev.Title)
	case FieldSummary:
		return matchText(r, ev.Summary)
	case FieldRawText:
		return matchText(r, ev.RawText)
	case FieldURL:
		return matchText(r, ev.URL)
	case FieldEventType:
		return matchText(r, string(ev.EventType))
	case FieldSourceID:
		return matchText(r, ev.SourceID)
	case FieldTier:
		return matchText(r, string(ev.Tier))
	default:
		return false
	}
}

func matchText(r Rule, text string) bool {
	if text == "" {
		return false
	}
	switch r.Kind {
	case KindKeyword:
		if r.CaseSensitive {
			return strings.Contains(text, r.Pattern)
		}
		return strings.Contains(strings.ToLower(text), strings.ToLower(r.Pattern))
	case KindExact:
		if r.CaseSensitive {
			return text == r.Pattern
		}
		return strings.EqualFold(text, r.Pattern)
	case KindRegex:
		if r.compiled == nil {
			return false
		}
		return r.compiled.MatchString(text)
	default:
		return false
	}
}

// ApplyStamp mutates ev in place with a suppression stamp from a matched
// EvalResult. Callers only invoke this when --no-suppress is not active.
func ApplyStamp(ev *models.Event, result EvalResult, stage models.SuppressionStage, suppressedAt time.Time) {
	if !result.Matched {
		return
	}
	ev.Suppression.Suppressed = true
	ev.Suppression.PrimaryRuleID = result.PrimaryRuleID
	ev.Suppression.AllRuleIDs = result.AllRuleIDs
	ev.Suppression.ReasonCode = result.ReasonCode
	ev.Suppression.Stage = stage
	ev.Suppression.SuppressedAtUTC = suppressedAt
}
