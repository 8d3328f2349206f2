// Package dirty decides whether live form values drift from a captured
// baseline.
package dirty

import (
	"encoding/json"
	"reflect"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Changed reports whether current differs structurally from baseline. Key order
// never matters, nested records and lists are compared recursively, numeric
// values compare by magnitude regardless of their Go kind, and nil collections
// equal empty ones. Values with unexported fields, such as *big.Int, compare
// field by field.
//
// Callers must hold a baseline before asking; use Tracker when that is not
// guaranteed.
func Changed(baseline, current map[string]any) bool {
	return !cmp.Equal(normalize(baseline), normalize(current), cmpopts.EquateEmpty(), exportAll)
}

var exportAll = cmp.Exporter(func(reflect.Type) bool { return true })

// Tracker owns a baseline snapshot. Every Reset replaces the snapshot
// wholesale; the stored values are never mutated in place.
type Tracker struct {
	baseline map[string]any
	ready    bool
}

// Reset captures a deep copy of values as the new baseline.
func (t *Tracker) Reset(values map[string]any) {
	t.baseline = Clone(values)
	t.ready = true
}

// Clear forgets the baseline.
func (t *Tracker) Clear() {
	t.baseline = nil
	t.ready = false
}

// HasBaseline reports whether Reset has been called since the last Clear.
func (t *Tracker) HasBaseline() bool {
	return t.ready
}

// Baseline returns a copy of the current baseline, nil when none exists.
func (t *Tracker) Baseline() map[string]any {
	if !t.ready {
		return nil
	}
	return Clone(t.baseline)
}

// Touched compares current with the baseline. Without a baseline the values
// are not comparable yet and the result is false.
func (t *Tracker) Touched(current map[string]any) bool {
	if !t.ready {
		return false
	}
	return Changed(t.baseline, current)
}

// Clone deep-copies nested records and lists. Scalars are shared.
func Clone(values map[string]any) map[string]any {
	if values == nil {
		return nil
	}
	out := make(map[string]any, len(values))
	for key, value := range values {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return Clone(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), typed...)
	default:
		return typed
	}
}

func normalize(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = normalize(item)
		}
		return out
	case []string:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = item
		}
		return out
	case int:
		return float64(typed)
	case int8:
		return float64(typed)
	case int16:
		return float64(typed)
	case int32:
		return float64(typed)
	case int64:
		return float64(typed)
	case uint:
		return float64(typed)
	case uint8:
		return float64(typed)
	case uint16:
		return float64(typed)
	case uint32:
		return float64(typed)
	case uint64:
		return float64(typed)
	case float32:
		return float64(typed)
	case json.Number:
		if f, err := typed.Float64(); err == nil {
			return f
		}
		return typed.String()
	default:
		return typed
	}
}
