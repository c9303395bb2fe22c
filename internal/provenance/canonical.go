package provenance

import (
	"bytes"
	"encoding/json"
)

// CanonicalSerialize renders v as canonical JSON: every record's keys
// sorted lexicographically at every nesting level, no insignificant
// whitespace, UTF-8, numbers in their original literal form, declared
// sequence order preserved for arrays. This is the only allowed input
// to the artifact hasher (SHA-256 is taken over the returned bytes).
//
// encoding/json sorts map[string]T keys on encode, but a Go struct
// marshals its fields in declaration order, not key order — spec.md's
// "records serialize with keys sorted lexicographically" applies to
// every record, not only to values already modeled as a Go map. So v
// is first normalized into a generic key/value tree (every struct and
// map becomes map[string]interface{}, every slice/array becomes
// []interface{}, numbers kept as json.Number to avoid float64 precision
// loss) and only that tree is encoded; encoding/json's map-key sort
// then applies uniformly at every level. HTML escaping is disabled,
// which would otherwise rewrite '<', '>', '&' into \u-escapes and make
// the hash depend on an irrelevant formatting choice.
func CanonicalSerialize(v interface{}) ([]byte, error) {
	normalized, err := normalizeForSort(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}
	// json.Encoder.Encode appends a trailing newline; canonical form has
	// no insignificant whitespace.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// normalizeForSort marshals v with the stdlib encoder (struct field
// order, as Go sees it) and immediately decodes the result into a
// generic interface{} tree. Decoding turns every JSON object — whether
// it came from a Go struct or a Go map — into a plain map[string]any,
// so the subsequent encode in CanonicalSerialize sorts its keys the
// same way regardless of which Go type produced it.
func normalizeForSort(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic interface{}
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	return generic, nil
}

// CanonicalSerializeSorted is a convenience for values whose natural Go
// representation is an unordered collection (e.g. a set modeled as
// map[string]struct{}): it converts to a sorted string slice before
// serializing, so "sets serialize as sorted sequences" holds without the
// caller having to remember to sort at every call site.
func CanonicalSerializeSorted(set map[string]struct{}) ([]byte, error) {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sortStrings(out)
	return CanonicalSerialize(out)
}

func sortStrings(s []string) {
	// insertion sort is fine: these sets are small (facility/lane ids per
	// event) and this keeps provenance free of extra imports beyond json.
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// RoundTripsToFixedPoint reports whether serializing v, parsing it back
// into a generic interface{}, and re-serializing yields byte-identical
// output — the fixed-point law required by spec.md §8.
func RoundTripsToFixedPoint(v interface{}) (bool, error) {
	first, err := CanonicalSerialize(v)
	if err != nil {
		return false, err
	}
	var generic interface{}
	if err := json.Unmarshal(first, &generic); err != nil {
		return false, err
	}
	second, err := CanonicalSerialize(generic)
	if err != nil {
		return false, err
	}
	return bytes.Equal(first, second), nil
}
