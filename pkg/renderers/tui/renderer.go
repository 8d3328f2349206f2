// Package tui renders resource forms as terminal prompts. The Renderer
// implements controller.Renderer and controller.Notifier, so a controller
// can load records into it, receive the collected values and report back.
package tui

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-resourceform/pkg/controller"
	"github.com/goliatone/go-resourceform/pkg/model"
	"github.com/goliatone/go-resourceform/pkg/validation"
	"github.com/goliatone/go-resourceform/pkg/visibility"
	"github.com/goliatone/go-resourceform/pkg/widgets"
)

// Renderer prompts for the fields of a form.
type Renderer struct {
	mu      sync.Mutex
	form    model.Form
	driver  PromptDriver
	out     io.Writer
	theme   Theme
	confirm string
	skip    map[string]struct{}
	initial map[string]any
	state   *State

	widgets    *widgets.Registry
	visibility visibility.Evaluator
	extras     map[string]any

	onChange func(map[string]any)
	onFinish func(context.Context, map[string]any) error
}

var (
	_ controller.Renderer = (*Renderer)(nil)
	_ controller.Notifier = (*Renderer)(nil)
)

// New constructs a renderer for form. The survey driver is used unless
// WithPromptDriver replaces it.
func New(form model.Form, options ...Option) *Renderer {
	r := &Renderer{
		form:    form,
		theme:   DefaultTheme,
		skip:    map[string]struct{}{},
		initial: map[string]any{},
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(r.out)
	}
	if r.widgets == nil {
		r.widgets = widgets.NewRegistry()
	}
	for key, value := range model.InitialValues(form.Fields) {
		if _, exists := r.initial[key]; !exists {
			r.initial[key] = value
		}
	}
	r.state = NewState(r.initial)
	return r
}

// Values returns a copy of the collected values.
func (r *Renderer) Values() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Values()
}

// SetValues merges values, typically a loaded record, into the state.
func (r *Renderer) SetValues(values map[string]any) {
	r.mu.Lock()
	r.state.Merge(values)
	snapshot, fn := r.state.Values(), r.onChange
	r.mu.Unlock()
	if fn != nil {
		fn(snapshot)
	}
}

// Reset restores the initial values.
func (r *Renderer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Replace(r.initial)
}

// OnValuesChange implements controller.Renderer.
func (r *Renderer) OnValuesChange(fn func(values map[string]any)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

// OnFinish implements controller.Renderer.
func (r *Renderer) OnFinish(fn func(ctx context.Context, values map[string]any) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onFinish = fn
}

// Notify prints a notice through the driver.
func (r *Renderer) Notify(level controller.NoticeLevel, message string) {
	prefix := r.theme.InfoPrefix
	switch level {
	case controller.NoticeSuccess:
		prefix = r.theme.SuccessPrefix
	case controller.NoticeWarning:
		prefix = r.theme.WarningPrefix
	case controller.NoticeError:
		prefix = r.theme.ErrorPrefix
	}
	_ = r.driver.Info(context.Background(), prefix+message)
}

// Prompt asks for every visible field, using current values as defaults.
// Visibility rules see the answers given so far. Each answered field notifies
// the change callback.
func (r *Renderer) Prompt(ctx context.Context) error {
	for _, field := range r.fields() {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.mu.Lock()
		current, _ := r.state.Get(field.Name)
		values := r.state.Values()
		r.mu.Unlock()

		shown, err := r.visible(field, values)
		if err != nil {
			return err
		}
		if !shown {
			continue
		}

		value, err := r.promptField(ctx, field, field.Name, current)
		if err != nil {
			return err
		}

		r.mu.Lock()
		r.state.Set(field.Name, value)
		snapshot, fn := r.state.Values(), r.onChange
		r.mu.Unlock()
		if fn != nil {
			fn(snapshot)
		}
	}
	return nil
}

// Submit validates the collected values, optionally asks for confirmation and
// hands them to the finish callback.
func (r *Renderer) Submit(ctx context.Context) error {
	values := r.Values()
	var checked []model.Field
	for _, field := range r.fields() {
		shown, err := r.visible(field, values)
		if err != nil {
			return err
		}
		if shown {
			checked = append(checked, field)
		}
	}
	result := validation.Values(checked, values)
	if !result.Valid() {
		r.mu.Lock()
		r.state.SetIssues(result.Issues)
		r.mu.Unlock()
		for _, issue := range result.Issues {
			_ = r.driver.Info(ctx, fmt.Sprintf("%s%s: %s", r.theme.ErrorPrefix, issue.Field, issue.Message))
		}
		return result.Err()
	}

	if r.confirm != "" {
		ok, err := r.driver.Confirm(ctx, ConfirmConfig{Message: r.confirm, Default: true})
		if err != nil {
			return err
		}
		if !ok {
			return ErrDeclined
		}
	}

	r.mu.Lock()
	fn := r.onFinish
	r.mu.Unlock()
	if fn == nil {
		return ErrNoFinishHandler
	}
	return fn(ctx, values)
}

func (r *Renderer) fields() []model.Field {
	out := make([]model.Field, 0, len(r.form.Fields))
	for _, field := range r.form.Fields {
		if _, hidden := r.skip[field.Name]; !hidden {
			out = append(out, field)
		}
	}
	return out
}

func (r *Renderer) visible(field model.Field, values map[string]any) (bool, error) {
	return visibility.Visible(r.visibility, field.Name, field.Metadata, visibility.Context{
		Values: values,
		Extras: r.extras,
	})
}

func (r *Renderer) promptField(ctx context.Context, field model.Field, path string, current any) (any, error) {
	r.mu.Lock()
	issue := r.state.Issue(path)
	r.mu.Unlock()
	if issue != "" {
		_ = r.driver.Info(ctx, fmt.Sprintf("%s%s: %s", r.theme.ErrorPrefix, path, issue))
	}

	widget, _ := r.widgets.Resolve(field)
	switch widget {
	case widgets.WidgetConfirm:
		return r.promptBoolean(ctx, field, current)
	case widgets.WidgetNumber:
		return r.promptNumber(ctx, field, path, current)
	case widgets.WidgetMultiSelect, widgets.WidgetList:
		return r.promptArray(ctx, field, path, current)
	case widgets.WidgetGroup:
		return r.promptObject(ctx, field, path, current)
	case widgets.WidgetSelect:
		return r.promptEnum(ctx, field, current)
	default:
		return r.promptString(ctx, field, path, current, widget)
	}
}

func (r *Renderer) promptString(ctx context.Context, field model.Field, path string, current any, widget string) (any, error) {
	rules := validation.RulesFor(field)
	defaultVal, _ := current.(string)
	secret := widget == widgets.WidgetPassword
	multiline := widget == widgets.WidgetTextArea

	for {
		var (
			response string
			err      error
		)
		switch {
		case secret:
			response, err = r.driver.Password(ctx, InputConfig{Message: displayLabel(field), Help: displayHelp(field)})
			if err == nil && response == "" && defaultVal != "" {
				response = defaultVal
			}
		case multiline:
			response, err = r.driver.TextArea(ctx, TextAreaConfig{Message: displayLabel(field), Default: defaultVal, Help: displayHelp(field)})
		default:
			response, err = r.driver.Input(ctx, InputConfig{Message: displayLabel(field), Default: defaultVal, Help: displayHelp(field)})
		}
		if err != nil {
			return nil, err
		}

		if err := rules.String(response); err != nil {
			r.invalid(ctx, path, err)
			continue
		}
		if strings.TrimSpace(response) == "" && current == nil {
			return nil, nil
		}
		return response, nil
	}
}

func (r *Renderer) promptBoolean(ctx context.Context, field model.Field, current any) (any, error) {
	defaultVal, _ := current.(bool)
	return r.driver.Confirm(ctx, ConfirmConfig{
		Message: displayLabel(field),
		Default: defaultVal,
		Help:    displayHelp(field),
	})
}

func (r *Renderer) promptNumber(ctx context.Context, field model.Field, path string, current any) (any, error) {
	rules := validation.RulesFor(field)
	defaultStr := ""
	if current != nil {
		defaultStr = fmt.Sprint(current)
	}

	for {
		input, err := r.driver.Input(ctx, InputConfig{
			Message: displayLabel(field),
			Default: defaultStr,
			Help:    displayHelp(field),
		})
		if err != nil {
			return nil, err
		}
		input = strings.TrimSpace(input)

		var parsed any
		switch {
		case input == "":
			parsed = nil
		case field.Type == model.FieldTypeInteger:
			i, perr := strconv.ParseInt(input, 10, 64)
			if perr != nil {
				r.invalid(ctx, path, perr)
				continue
			}
			parsed = i
		default:
			f, perr := strconv.ParseFloat(input, 64)
			if perr != nil {
				r.invalid(ctx, path, perr)
				continue
			}
			parsed = f
		}

		if err := rules.Number(parsed); err != nil {
			r.invalid(ctx, path, err)
			continue
		}
		return parsed, nil
	}
}

func (r *Renderer) promptEnum(ctx context.Context, field model.Field, current any) (any, error) {
	options := stringify(field.Enum)
	defaultIdx := -1
	if current != nil {
		defaultIdx = indexOf(options, fmt.Sprint(current))
	}

	for {
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      displayLabel(field),
			Options:      options,
			DefaultIndex: defaultIdx,
			Help:         displayHelp(field),
		})
		if err != nil {
			return nil, err
		}
		if idx >= 0 && idx < len(field.Enum) {
			return field.Enum[idx], nil
		}
		r.invalid(ctx, field.Name, fmt.Errorf("unknown option"))
	}
}

func (r *Renderer) promptArray(ctx context.Context, field model.Field, path string, current any) (any, error) {
	rules := validation.RulesFor(field)

	if field.Items != nil && len(field.Items.Enum) > 0 {
		options := stringify(field.Items.Enum)
		defaults := indicesOf(options, stringify(toList(current)))
		for {
			indices, err := r.driver.MultiSelect(ctx, SelectConfig{
				Message:  displayLabel(field),
				Options:  options,
				Defaults: defaults,
				Help:     displayHelp(field),
			})
			if err != nil {
				return nil, err
			}
			selected := make([]any, 0, len(indices))
			for _, idx := range indices {
				if idx >= 0 && idx < len(field.Items.Enum) {
					selected = append(selected, field.Items.Enum[idx])
				}
			}
			if err := rules.Array(selected); err != nil {
				r.invalid(ctx, path, err)
				continue
			}
			return selected, nil
		}
	}
	if field.Items == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingItems, path)
	}

	for {
		items := toList(current)
		if len(items) > 0 {
			keep, err := r.driver.Confirm(ctx, ConfirmConfig{
				Message: fmt.Sprintf("Keep %d %s item(s)?", len(items), displayLabel(field)),
				Default: true,
			})
			if err != nil {
				return nil, err
			}
			if !keep {
				items = nil
			}
		}

		more := rules.Required && len(items) == 0
		if !more {
			message := "Add " + displayLabel(field) + " items?"
			if len(items) > 0 {
				message = "Add another?"
			}
			var err error
			if more, err = r.driver.Confirm(ctx, ConfirmConfig{Message: message}); err != nil {
				return nil, err
			}
		}
		for more {
			itemPath := fmt.Sprintf("%s.%d", path, len(items))
			item, err := r.promptField(ctx, *field.Items, itemPath, nil)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
			if more, err = r.driver.Confirm(ctx, ConfirmConfig{Message: "Add another?"}); err != nil {
				return nil, err
			}
		}

		if err := rules.Array(items); err != nil {
			r.invalid(ctx, path, err)
			current = nil
			continue
		}
		if items == nil {
			items = []any{}
		}
		return items, nil
	}
}

func (r *Renderer) promptObject(ctx context.Context, field model.Field, path string, current any) (any, error) {
	existing, _ := current.(map[string]any)
	out := make(map[string]any, len(field.Nested))
	for _, child := range field.Nested {
		value, err := r.promptField(ctx, child, path+"."+child.Name, existing[child.Name])
		if err != nil {
			return nil, err
		}
		if value != nil {
			out[child.Name] = value
		}
	}
	return out, nil
}

func (r *Renderer) invalid(ctx context.Context, path string, err error) {
	_ = r.driver.Info(ctx, fmt.Sprintf("%sInvalid %s: %v", r.theme.ErrorPrefix, path, err))
}

func displayLabel(field model.Field) string {
	if field.Label != "" {
		return field.Label
	}
	return field.Name
}

func displayHelp(field model.Field) string {
	if h := field.Metadata["cli.help"]; h != "" {
		return h
	}
	return field.Description
}

func stringify(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, fmt.Sprint(v))
	}
	return out
}

func toList(value any) []any {
	switch v := value.(type) {
	case []any:
		return append([]any(nil), v...)
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	default:
		return nil
	}
}
