package tui

import (
	"io"

	"github.com/goliatone/go-resourceform/pkg/visibility"
	"github.com/goliatone/go-resourceform/pkg/widgets"
)

// Theme holds the message prefixes used for notices.
type Theme struct {
	InfoPrefix    string
	SuccessPrefix string
	WarningPrefix string
	ErrorPrefix   string
}

// DefaultTheme is used unless WithTheme overrides it.
var DefaultTheme = Theme{
	InfoPrefix:    "i ",
	SuccessPrefix: "✓ ",
	WarningPrefix: "! ",
	ErrorPrefix:   "✗ ",
}

// Option configures the TUI renderer.
type Option func(*Renderer)

// WithPromptDriver overrides the prompt driver used by the renderer.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithOutput sets where the default survey driver prints messages.
func WithOutput(out io.Writer) Option {
	return func(r *Renderer) {
		r.out = out
	}
}

// WithTheme applies message prefixes.
func WithTheme(theme Theme) Option {
	return func(r *Renderer) {
		r.theme = theme
	}
}

// WithInitialValues sets the values Reset returns to. Field defaults fill the
// gaps.
func WithInitialValues(values map[string]any) Option {
	return func(r *Renderer) {
		for key, value := range values {
			r.initial[key] = value
		}
	}
}

// WithSkipFields hides fields from prompting and validation.
func WithSkipFields(names ...string) Option {
	return func(r *Renderer) {
		for _, name := range names {
			r.skip[name] = struct{}{}
		}
	}
}

// WithConfirm asks for confirmation before handing values to the controller.
// An empty message disables the question.
func WithConfirm(message string) Option {
	return func(r *Renderer) {
		r.confirm = message
	}
}

// WithVisibility evaluates the visibleIf metadata of fields with ev. Extras
// are exposed to rules as extras.
func WithVisibility(ev visibility.Evaluator, extras map[string]any) Option {
	return func(r *Renderer) {
		r.visibility = ev
		r.extras = extras
	}
}

// WithWidgets replaces the registry that maps fields to prompts.
func WithWidgets(reg *widgets.Registry) Option {
	return func(r *Renderer) {
		r.widgets = reg
	}
}
