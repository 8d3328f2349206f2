// Package validation checks form values against the rules of a model.Form:
// required fields, numeric bounds, string and list lengths, and patterns.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-resourceform/pkg/model"
)

// ErrInvalid matches every *Result error.
var ErrInvalid = errors.New("validation: invalid values")

// Issue is one failed rule.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result collects the issues of one validation pass.
type Result struct {
	Issues []Issue `json:"issues,omitempty"`
}

// Valid reports whether no rule failed.
func (r Result) Valid() bool {
	return len(r.Issues) == 0
}

// Err returns nil for a valid result and a *ResultError otherwise.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	return &ResultError{Issues: append([]Issue(nil), r.Issues...)}
}

// ResultError wraps the issues of an invalid Result.
type ResultError struct {
	Issues []Issue
}

func (e *ResultError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.Field + ": " + issue.Message
	}
	return "validation: " + strings.Join(parts, "; ")
}

// Is lets errors.Is(err, ErrInvalid) succeed.
func (e *ResultError) Is(target error) bool {
	return target == ErrInvalid
}

// Rules are the compiled constraints of a field.
type Rules struct {
	Required bool
	Min      *float64
	Max      *float64
	MinLen   *int
	MaxLen   *int
	Pattern  *regexp.Regexp
}

// RulesFor compiles field.Validations. Unparseable rules are ignored.
func RulesFor(field model.Field) Rules {
	rules := Rules{Required: field.Required}
	for _, rule := range field.Validations {
		switch rule.Kind {
		case model.ValidationRuleMin:
			if v, err := strconv.ParseFloat(rule.Params["value"], 64); err == nil {
				rules.Min = &v
			}
		case model.ValidationRuleMax:
			if v, err := strconv.ParseFloat(rule.Params["value"], 64); err == nil {
				rules.Max = &v
			}
		case model.ValidationRuleMinLength:
			if v, err := strconv.Atoi(rule.Params["value"]); err == nil {
				rules.MinLen = &v
			}
		case model.ValidationRuleMaxLength:
			if v, err := strconv.Atoi(rule.Params["value"]); err == nil {
				rules.MaxLen = &v
			}
		case model.ValidationRulePattern:
			if re, err := regexp.Compile(rule.Params["pattern"]); err == nil {
				rules.Pattern = re
			}
		}
	}
	return rules
}

// String checks a text value.
func (r Rules) String(value string) error {
	if strings.TrimSpace(value) == "" {
		if r.Required {
			return errors.New("required")
		}
		return nil
	}
	if r.MinLen != nil && len([]rune(value)) < *r.MinLen {
		return fmt.Errorf("min length %d", *r.MinLen)
	}
	if r.MaxLen != nil && len([]rune(value)) > *r.MaxLen {
		return fmt.Errorf("max length %d", *r.MaxLen)
	}
	if r.Pattern != nil && !r.Pattern.MatchString(value) {
		return errors.New("does not match required pattern")
	}
	return nil
}

// Number checks a numeric value.
func (r Rules) Number(value any) error {
	var v float64
	switch n := value.(type) {
	case int:
		v = float64(n)
	case int64:
		v = float64(n)
	case float64:
		v = n
	case nil:
		if r.Required {
			return errors.New("required")
		}
		return nil
	default:
		return fmt.Errorf("expected number, got %T", value)
	}
	if r.Min != nil && v < *r.Min {
		return fmt.Errorf("min %v", *r.Min)
	}
	if r.Max != nil && v > *r.Max {
		return fmt.Errorf("max %v", *r.Max)
	}
	return nil
}

// Array checks a list value.
func (r Rules) Array(value []any) error {
	if r.Required && len(value) == 0 {
		return errors.New("required")
	}
	if r.MinLen != nil && len(value) < *r.MinLen {
		return fmt.Errorf("min length %d", *r.MinLen)
	}
	if r.MaxLen != nil && len(value) > *r.MaxLen {
		return fmt.Errorf("max length %d", *r.MaxLen)
	}
	return nil
}

// Values validates a record against fields. Nested objects report dotted
// paths. Issues are sorted by field.
func Values(fields []model.Field, values map[string]any) Result {
	var result Result
	collect(&result, "", fields, values)
	sort.SliceStable(result.Issues, func(i, j int) bool {
		return result.Issues[i].Field < result.Issues[j].Field
	})
	return result
}

func collect(result *Result, prefix string, fields []model.Field, values map[string]any) {
	for _, field := range fields {
		path := field.Name
		if prefix != "" {
			path = prefix + "." + field.Name
		}
		value, present := values[field.Name]
		if err := check(field, value, present); err != nil {
			result.Issues = append(result.Issues, Issue{Field: path, Message: err.Error()})
			continue
		}
		if field.Type == model.FieldTypeObject {
			if nested, ok := value.(map[string]any); ok {
				collect(result, path, field.Nested, nested)
			}
		}
	}
}

func check(field model.Field, value any, present bool) error {
	rules := RulesFor(field)
	if !present || value == nil {
		if rules.Required {
			return errors.New("required")
		}
		return nil
	}
	switch field.Type {
	case model.FieldTypeInteger, model.FieldTypeNumber:
		return rules.Number(value)
	case model.FieldTypeArray:
		switch list := value.(type) {
		case []any:
			return rules.Array(list)
		case []string:
			items := make([]any, len(list))
			for i, item := range list {
				items[i] = item
			}
			return rules.Array(items)
		default:
			return fmt.Errorf("expected list, got %T", value)
		}
	case model.FieldTypeBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", value)
		}
		return nil
	case model.FieldTypeObject:
		if _, ok := value.(map[string]any); !ok {
			return fmt.Errorf("expected object, got %T", value)
		}
		return nil
	default:
		text, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		return rules.String(text)
	}
}
