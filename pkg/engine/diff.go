package engine

import (
	"encoding/json"
	"reflect"
	"sort"

	"github.com/edaconf/edaconf/pkg/controller"
)

// normalizeValue round-trips a value through JSON so that structurally
// equal values compare equal regardless of their in-memory Go types
// (int vs float64, []string vs []any).
func normalizeValue(v any) any {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

// valuesEqual compares two values after JSON normalization.
func valuesEqual(a, b any) bool {
	return reflect.DeepEqual(normalizeValue(a), normalizeValue(b))
}

// diffFields compares the submission payload against the corresponding
// fields of the existing resource. Only fields present in the payload
// participate; write-only fields never count as differences. A payload
// field the existing resource lacks counts as a difference.
func diffFields(existing controller.Object, fields Fields, writeOnly map[string]bool) []FieldChange {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var changes []FieldChange
	for _, name := range names {
		if writeOnly[name] {
			continue
		}
		before, ok := existing[name]
		if ok && valuesEqual(before, fields[name]) {
			continue
		}
		changes = append(changes, FieldChange{
			Field:  name,
			Before: before,
			After:  fields[name],
		})
	}
	return changes
}

// writeOnlySet builds the exclusion set for a spec's write-only fields.
func writeOnlySet(spec Spec) map[string]bool {
	fields := spec.WriteOnly()
	if len(fields) == 0 {
		return nil
	}
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}
