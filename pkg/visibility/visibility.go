// Package visibility decides whether a form field is shown, based on a rule
// attached to the field and the values collected so far.
package visibility

import (
	"fmt"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// MetadataKey is the field metadata entry holding the rule.
const MetadataKey = "visibleIf"

// Evaluator determines whether a field should be visible based on a rule
// string and the current values.
type Evaluator interface {
	Eval(fieldPath, rule string, ctx Context) (bool, error)
}

// Context provides inputs to an Evaluator. Extras carries caller state such
// as user roles or feature flags.
type Context struct {
	Values map[string]any
	Extras map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(fieldPath, rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(fieldPath, rule string, ctx Context) (bool, error) {
	return fn(fieldPath, rule, ctx)
}

// Visible evaluates the rule stored in metadata. Fields without a rule, or
// without an evaluator, are visible.
func Visible(ev Evaluator, fieldPath string, metadata map[string]string, ctx Context) (bool, error) {
	rule := strings.TrimSpace(metadata[MetadataKey])
	if ev == nil || rule == "" {
		return true, nil
	}
	return ev.Eval(fieldPath, rule, ctx)
}

type env struct {
	Values map[string]any `expr:"values"`
	Extras map[string]any `expr:"extras"`
	Field  string         `expr:"field"`
}

// ExprEvaluator evaluates expr-lang rules such as
//
//	values.status == "published" && extras.role == "editor"
//
// Compiled programs are cached by rule text.
type ExprEvaluator struct {
	mu       sync.Mutex
	programs map[string]*vm.Program
}

// NewExprEvaluator returns an empty evaluator.
func NewExprEvaluator() *ExprEvaluator {
	return &ExprEvaluator{programs: map[string]*vm.Program{}}
}

// Compile checks rule without evaluating it.
func (e *ExprEvaluator) Compile(rule string) error {
	_, err := e.program(rule)
	return err
}

// Eval implements Evaluator.
func (e *ExprEvaluator) Eval(fieldPath, rule string, ctx Context) (bool, error) {
	program, err := e.program(rule)
	if err != nil {
		return false, err
	}
	out, err := expr.Run(program, env{Values: ctx.Values, Extras: ctx.Extras, Field: fieldPath})
	if err != nil {
		return false, fmt.Errorf("visibility: %s: %w", fieldPath, err)
	}
	visible, _ := out.(bool)
	return visible, nil
}

func (e *ExprEvaluator) program(rule string) (*vm.Program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if program, ok := e.programs[rule]; ok {
		return program, nil
	}
	program, err := expr.Compile(rule, expr.Env(env{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("visibility: compile %q: %w", rule, err)
	}
	e.programs[rule] = program
	return program, nil
}
