// Package params handles the identity parameters a resource form is mounted
// with. The presence of a truthy "id" selects edit mode; everything else is
// forwarded to the remote operations untouched.
package params

import (
	"math"
	"net/url"
	"reflect"
)

// IDKey is the identity parameter selecting edit mode.
const IDKey = "id"

// IsEdit reports whether params carry a truthy identifier.
func IsEdit(params map[string]any) bool {
	id, ok := params[IDKey]
	return ok && Truthy(id)
}

// ID returns the identifier and whether it selects edit mode.
func ID(params map[string]any) (any, bool) {
	id, ok := params[IDKey]
	if !ok || !Truthy(id) {
		return nil, false
	}
	return id, true
}

// Truthy mirrors loose truthiness: nil, false, zero numbers, NaN and empty
// strings are false. Everything else is true.
func Truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0 && !math.IsNaN(v)
	case float32:
		return v != 0 && !math.IsNaN(float64(v))
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	default:
		return true
	}
}

// SameID reports whether two parameter sets address the same record.
func SameID(a, b map[string]any) bool {
	idA, okA := a[IDKey]
	idB, okB := b[IDKey]
	if okA != okB {
		return false
	}
	return reflect.DeepEqual(idA, idB)
}

// Clone returns a shallow copy.
func Clone(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	out := make(map[string]any, len(params))
	for key, value := range params {
		out[key] = value
	}
	return out
}

// Merge combines query string values, route parameters and explicit
// overrides. Later sources win: query < route < override. Repeated query keys
// keep their first value.
func Merge(query url.Values, route map[string]string, override map[string]any) map[string]any {
	out := make(map[string]any, len(query)+len(route)+len(override))
	for key, values := range query {
		if len(values) > 0 {
			out[key] = values[0]
		}
	}
	for key, value := range route {
		out[key] = value
	}
	for key, value := range override {
		out[key] = value
	}
	return out
}

// Compact drops nil and empty-string values.
func Compact(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for key, value := range params {
		if value == nil {
			continue
		}
		if s, ok := value.(string); ok && s == "" {
			continue
		}
		out[key] = value
	}
	return out
}

// Retain keeps only the allowed keys. An empty allow list keeps everything.
func Retain(params map[string]any, allow ...string) map[string]any {
	if len(allow) == 0 {
		return Clone(params)
	}
	out := make(map[string]any, len(allow))
	for _, key := range allow {
		if value, ok := params[key]; ok {
			out[key] = value
		}
	}
	return out
}
