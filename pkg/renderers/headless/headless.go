// Package headless is an in-memory renderer for resource form controllers.
// It keeps values in a map, validates them against an optional form model
// and fires the controller callbacks synchronously. Services, tests and
// scripted clients use it where no user interface exists.
package headless

import (
	"context"
	"errors"
	"sync"

	"github.com/goliatone/go-resourceform/pkg/controller"
	"github.com/goliatone/go-resourceform/pkg/dirty"
	"github.com/goliatone/go-resourceform/pkg/model"
	"github.com/goliatone/go-resourceform/pkg/validation"
)

// ErrNoFinishHandler is returned by Submit before a controller is attached.
var ErrNoFinishHandler = errors.New("headless: no finish handler registered")

// Renderer implements controller.Renderer.
type Renderer struct {
	mu       sync.Mutex
	fields   []model.Field
	initial  map[string]any
	values   map[string]any
	onChange func(map[string]any)
	onFinish func(context.Context, map[string]any) error
}

var _ controller.Renderer = (*Renderer)(nil)

// Option configures a Renderer.
type Option func(*Renderer)

// WithForm validates submissions against form and seeds its defaults.
func WithForm(form model.Form) Option {
	return func(r *Renderer) {
		r.fields = form.Fields
		for key, value := range model.InitialValues(form.Fields) {
			if _, exists := r.initial[key]; !exists {
				r.initial[key] = value
			}
		}
	}
}

// WithInitialValues sets the values Reset returns to.
func WithInitialValues(values map[string]any) Option {
	return func(r *Renderer) {
		for key, value := range values {
			r.initial[key] = value
		}
	}
}

// New builds a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{initial: map[string]any{}}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.values = dirty.Clone(r.initial)
	return r
}

// Values returns a copy of the current values.
func (r *Renderer) Values() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return dirty.Clone(r.values)
}

// SetValues merges values into the current values and notifies the change
// callback.
func (r *Renderer) SetValues(values map[string]any) {
	r.mu.Lock()
	for key, value := range values {
		r.values[key] = value
	}
	snapshot, fn := dirty.Clone(r.values), r.onChange
	r.mu.Unlock()
	if fn != nil {
		fn(snapshot)
	}
}

// Set changes one field like a user edit would.
func (r *Renderer) Set(key string, value any) {
	r.SetValues(map[string]any{key: value})
}

// Unset removes a field.
func (r *Renderer) Unset(key string) {
	r.mu.Lock()
	delete(r.values, key)
	snapshot, fn := dirty.Clone(r.values), r.onChange
	r.mu.Unlock()
	if fn != nil {
		fn(snapshot)
	}
}

// Reset restores the initial values without firing the change callback.
func (r *Renderer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = dirty.Clone(r.initial)
}

// Validate checks the current values against the form model.
func (r *Renderer) Validate() validation.Result {
	values := r.Values()
	r.mu.Lock()
	fields := r.fields
	r.mu.Unlock()
	return validation.Values(fields, values)
}

// Submit validates and hands the values to the finish callback.
func (r *Renderer) Submit(ctx context.Context) error {
	if err := r.Validate().Err(); err != nil {
		return err
	}
	r.mu.Lock()
	fn := r.onFinish
	r.mu.Unlock()
	if fn == nil {
		return ErrNoFinishHandler
	}
	return fn(ctx, r.Values())
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
