package canonicalize

import (
	"strings"
	"time"

	dps "github.com/markusmobius/go-dateparser"
)

// ParsedDate is the outcome of date normalization: either a resolved UTC
// instant, or a miss that the caller must record as a warning rather than
// a fatal error, per spec.md §4.C.
type ParsedDate struct {
	Value time.Time
	Ok    bool
}

// dateOnlyLayouts are tried, in order, before falling back to the
// free-text parser. Anything matching these is a date-only value and is
// interpreted as end-of-day UTC per §4.C.
var dateOnlyLayouts = []string{"2006-01-02", "01/02/2006", "2006/01/02"}

// ParseEventTimestamp normalizes an ETA/date-only or timezone-bearing
// value to UTC. Date-only values become end-of-day UTC; timezone-bearing
// timestamps convert to UTC; unparseable values return Ok=false.
func ParseEventTimestamp(raw string) ParsedDate {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ParsedDate{}
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return ParsedDate{Value: t.UTC(), Ok: true}
	}

	for _, layout := range dateOnlyLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			eod := time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC)
			return ParsedDate{Value: eod, Ok: true}
		}
	}

	parser := dps.Parser{}
	cfg := &dps.Configuration{PreferredDateSource: dps.CurrentPeriod}
	parsed, err := parser.Parse(cfg, raw)
	if err != nil || parsed.IsZero() {
		return ParsedDate{}
	}
	return ParsedDate{Value: parsed.Time.UTC(), Ok: true}
}
