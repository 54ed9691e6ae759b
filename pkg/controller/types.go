package controller

import (
	"fmt"
	"strconv"
)

// Object is a single controller resource as returned by the API: a JSON
// object keyed by field name. Identifiers are left as their decoded JSON
// types (float64 for numeric IDs, string for UUIDs).
type Object map[string]any

// ID returns the object's "id" field, or nil if absent.
func (o Object) ID() any {
	return o["id"]
}

// String returns the named field as a string, or "" when the field is
// absent or not a string.
func (o Object) String(field string) string {
	s, _ := o[field].(string)
	return s
}

// Clone returns a shallow copy of the object. Nested values are shared;
// callers that rewrite nested structures must replace the field wholesale.
func (o Object) Clone() Object {
	if o == nil {
		return nil
	}
	out := make(Object, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// Page is one page of a paginated list response.
type Page struct {
	Count   int      `json:"count"`
	Next    *string  `json:"next"`
	Results []Object `json:"results"`
}

// FormatID renders an identifier value as it appears in URLs and query
// filters. Numeric JSON identifiers decode as float64 and must not be
// rendered with an exponent or fraction.
func FormatID(id any) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}
