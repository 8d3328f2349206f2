package guard

import (
	"context"
	"errors"
	"fmt"
)

// ErrRejected matches every error returned by Run when a guard refuses.
var ErrRejected = errors.New("guard: rejected")

// Args describes the action being gated. Values is nil for init guards.
type Args struct {
	Name    string
	Payload map[string]any
	IsEdit  bool
	Values  map[string]any
	Params  map[string]any
}

// Func is a guard. Returning nil lets the gated action proceed.
type Func func(ctx context.Context, args Args) error

// Noop resolves immediately.
func Noop(context.Context, Args) error { return nil }

// RejectedError reports a refused guard.
type RejectedError struct {
	Reason string
	Cause  error
}

func (e *RejectedError) Error() string {
	switch {
	case e.Reason != "" && e.Cause != nil:
		return fmt.Sprintf("guard: rejected: %s: %v", e.Reason, e.Cause)
	case e.Reason != "":
		return "guard: rejected: " + e.Reason
	case e.Cause != nil:
		return fmt.Sprintf("guard: rejected: %v", e.Cause)
	default:
		return ErrRejected.Error()
	}
}

// Is lets errors.Is(err, ErrRejected) succeed.
func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

func (e *RejectedError) Unwrap() error {
	return e.Cause
}

// Reject builds a rejection with a human readable reason.
func Reject(reason string) error {
	return &RejectedError{Reason: reason}
}

// Run invokes fn once with args. A nil fn behaves like Noop. When ctx is
// already done the guard is not called and the context error is returned.
func Run(ctx context.Context, fn Func, args Args) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if fn == nil {
		return nil
	}
	err := fn(ctx, args)
	if err == nil {
		return nil
	}
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return err
	}
	return &RejectedError{Cause: err}
}

// All runs guards in order and stops at the first refusal. The composite is
// still a single guard from the caller's point of view.
func All(fns ...Func) Func {
	return func(ctx context.Context, args Args) error {
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			if err := fn(ctx, args); err != nil {
				return err
			}
		}
		return nil
	}
}
