package guard

import (
	"context"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// exprEnv is the variable set visible to guard expressions.
type exprEnv struct {
	Name    string         `expr:"name"`
	Payload map[string]any `expr:"payload"`
	IsEdit  bool           `expr:"isEdit"`
	Values  map[string]any `expr:"values"`
	Params  map[string]any `expr:"params"`
}

// Expr compiles a boolean expr-lang expression into a guard. The expression
// sees name, payload, isEdit, values and params. A false result rejects the
// action with the expression text as reason.
//
//	values.title != "" && len(values.title) <= 120
func Expr(source string) (Func, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return Noop, nil
	}

	program, err := expr.Compile(source, expr.Env(exprEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("guard: compile %q: %w", source, err)
	}
	return exprGuard(source, program), nil
}

// MustExpr is like Expr but panics on compile errors.
func MustExpr(source string) Func {
	fn, err := Expr(source)
	if err != nil {
		panic(err)
	}
	return fn
}

func exprGuard(source string, program *vm.Program) Func {
	return func(ctx context.Context, args Args) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		out, err := expr.Run(program, exprEnv{
			Name:    args.Name,
			Payload: args.Payload,
			IsEdit:  args.IsEdit,
			Values:  args.Values,
			Params:  args.Params,
		})
		if err != nil {
			return &RejectedError{Reason: source, Cause: err}
		}
		if ok, _ := out.(bool); !ok {
			return Reject(source)
		}
		return nil
	}
}
