package models

import "sort"

// MetadataMap is an opaque bag of source-shaped scalars/lists. It is the
// only place schemaless payload data is allowed to live; anywhere its
// contents carry semantic weight for an operator, the relevant field is
// lifted into a typed column instead (see SPEC_FULL.md's tagged-variant
// design note). MetadataMap serializes canonically: keys sorted, values
// restricted to scalars or lists of scalars so the hasher never has to
// guess at ordering inside a value.
type MetadataMap map[string]interface{}

// Clone returns a deep-enough copy for safe reuse across artifacts. Slice
// values are copied; scalar values are immutable by convention.
func (m MetadataMap) Clone() MetadataMap {
	if m == nil {
		return nil
	}
	out := make(MetadataMap, len(m))
	for k, v := range m {
		switch vv := v.(type) {
		case []string:
			cp := make([]string, len(vv))
			copy(cp, vv)
			out[k] = cp
		case []interface{}:
			cp := make([]interface{}, len(vv))
			copy(cp, vv)
			out[k] = cp
		default:
			out[k] = v
		}
	}
	return out
}

// SortedKeys returns the map's keys in lexicographic order, the only
// order the canonical serializer ever emits them in.
func (m MetadataMap) SortedKeys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
