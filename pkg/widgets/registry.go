// Package widgets picks the prompt used for each form field. Explicit
// metadata wins; otherwise registered matchers decide by priority.
package widgets

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-resourceform/pkg/model"
)

// MetadataKey is the field metadata entry naming an explicit widget.
const MetadataKey = "widget"

// Built-in widget identifiers exposed by the registry.
const (
	WidgetInput       = "input"
	WidgetPassword    = "password"
	WidgetTextArea    = "textarea"
	WidgetNumber      = "number"
	WidgetConfirm     = "confirm"
	WidgetSelect      = "select"
	WidgetMultiSelect = "multiselect"
	WidgetList        = "list"
	WidgetGroup       = "group"
)

// Matcher decides whether a widget should handle the supplied field.
type Matcher func(field model.Field) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry selects widgets for fields. Higher priority wins; ties fall back
// to registration order. An empty registry resolves only explicit widgets.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry constructs a registry with the built-in matchers registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a matcher with the provided name and priority.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Resolve returns the widget name for a field. Metadata["widget"] and the
// cli.secret / cli.input hints are honoured before matcher evaluation.
func (r *Registry) Resolve(field model.Field) (string, bool) {
	if explicit := explicitWidget(field); explicit != "" {
		return explicit, true
	}
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()

	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(field) {
			return entry.name, true
		}
	}
	return "", false
}

// Decorate records the resolved widget in Metadata["widget"] of every field,
// nested and item fields included. Existing entries are kept.
func (r *Registry) Decorate(form *model.Form) {
	if r == nil || form == nil {
		return
	}
	form.Fields = r.decorateFields(form.Fields)
}

func (r *Registry) decorateFields(fields []model.Field) []model.Field {
	if len(fields) == 0 {
		return fields
	}
	decorated := make([]model.Field, len(fields))
	for idx, field := range fields {
		decorated[idx] = r.decorateField(field)
	}
	return decorated
}

func (r *Registry) decorateField(field model.Field) model.Field {
	if widget, ok := r.Resolve(field); ok && widget != "" {
		metadata := make(map[string]string, len(field.Metadata)+1)
		for key, value := range field.Metadata {
			metadata[key] = value
		}
		if metadata[MetadataKey] == "" {
			metadata[MetadataKey] = widget
		}
		field.Metadata = metadata
	}
	if field.Items != nil {
		item := r.decorateField(*field.Items)
		field.Items = &item
	}
	if len(field.Nested) > 0 {
		field.Nested = r.decorateFields(field.Nested)
	}
	return field
}

func explicitWidget(field model.Field) string {
	if field.Metadata == nil {
		return ""
	}
	if widget := strings.TrimSpace(field.Metadata[MetadataKey]); widget != "" {
		return widget
	}
	if strings.EqualFold(field.Metadata["cli.secret"], "true") {
		return WidgetPassword
	}
	if strings.TrimSpace(field.Metadata["cli.input"]) == WidgetTextArea {
		return WidgetTextArea
	}
	return ""
}

func (r *Registry) registerBuiltins() {
	r.Register(WidgetConfirm, 90, func(field model.Field) bool {
		return field.Type == model.FieldTypeBoolean
	})

	r.Register(WidgetMultiSelect, 80, func(field model.Field) bool {
		return field.Type == model.FieldTypeArray && field.Items != nil && len(field.Items.Enum) > 0
	})

	r.Register(WidgetList, 75, func(field model.Field) bool {
		return field.Type == model.FieldTypeArray
	})

	r.Register(WidgetGroup, 75, func(field model.Field) bool {
		return field.Type == model.FieldTypeObject
	})

	r.Register(WidgetSelect, 70, func(field model.Field) bool {
		return len(field.Enum) > 0
	})

	r.Register(WidgetNumber, 65, func(field model.Field) bool {
		return field.Type == model.FieldTypeInteger || field.Type == model.FieldTypeNumber
	})

	r.Register(WidgetPassword, 60, func(field model.Field) bool {
		return strings.EqualFold(field.Format, "password")
	})

	r.Register(WidgetTextArea, 50, func(field model.Field) bool {
		format := strings.ToLower(field.Format)
		return format == "textarea" || format == "markdown" || format == "html"
	})

	r.Register(WidgetInput, 0, func(model.Field) bool { return true })
}
