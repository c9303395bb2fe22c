package canonicalize

import (
	"regexp"
	"strings"
)

// cityStateRe matches "City, ST" or "City, State" shaped fragments. The
// leftmost match wins when several appear in the same text, per spec.md
// §4.C.
var cityStateRe = regexp.MustCompile(`\b([A-Z][a-zA-Z.\-]*(?:\s+[A-Z][a-zA-Z.\-]*)*),\s*([A-Za-z]{2,})\b`)

// stateAbbrev is the pinned two-letter-postal-code to full-name table
// used to resolve the extracted state fragment to its postal code:
// "IN" and "Indiana" both resolve to "IN". Only the US table is pinned;
// unresolvable fragments are passed through titlecased.
var stateAbbrev = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas",
	"CA": "California", "CO": "Colorado", "CT": "Connecticut", "DE": "Delaware",
	"FL": "Florida", "GA": "Georgia", "HI": "Hawaii", "ID": "Idaho",
	"IL": "Illinois", "IN": "Indiana", "IA": "Iowa", "KS": "Kansas",
	"KY": "Kentucky", "LA": "Louisiana", "ME": "Maine", "MD": "Maryland",
	"MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota", "MS": "Mississippi",
	"MO": "Missouri", "MT": "Montana", "NE": "Nebraska", "NV": "Nevada",
	"NH": "New Hampshire", "NJ": "New Jersey", "NM": "New Mexico", "NY": "New York",
	"NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio", "OK": "Oklahoma",
	"OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island", "SC": "South Carolina",
	"SD": "South Dakota", "TN": "Tennessee", "TX": "Texas", "UT": "Utah",
	"VT": "Vermont", "VA": "Virginia", "WA": "Washington", "WV": "West Virginia",
	"WI": "Wisconsin", "WY": "Wyoming",
}

// ExtractedLocation is the (possibly partial) result of location
// extraction.
type ExtractedLocation struct {
	City  string
	State string
	Found bool
}

// ExtractLocation applies the pinned "CITY, STATE" regex to text and
// resolves the state to its postal code, title-casing the city. Returns
// Found=false if no match exists — never an error, per §4.C's "leave the
// field null" convention for canonicalization-time misses.
func ExtractLocation(text string) ExtractedLocation {
	loc := cityStateRe.FindStringSubmatch(text)
	if loc == nil {
		return ExtractedLocation{}
	}
	city := titleCase(strings.TrimSpace(loc[1]))
	stateRaw := strings.ToUpper(strings.TrimSpace(loc[2]))
	state := titleCase(stateRaw)
	if _, ok := stateAbbrev[stateRaw]; ok {
		state = stateRaw
	} else {
		for code, full := range stateAbbrev {
			if strings.EqualFold(full, stateRaw) {
				state = code
				break
			}
		}
	}
	return ExtractedLocation{City: city, State: state, Found: true}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == "" {
			continue
		}
		lower := strings.ToLower(w)
		words[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(words, " ")
}
