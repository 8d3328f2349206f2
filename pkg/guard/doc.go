// Package guard gates lifecycle actions behind caller supplied checks.
//
// A guard is a plain function that either returns nil (the action proceeds)
// or an error (the action is abandoned). Run invokes a guard exactly once per
// action and never retries; any failure is reported as a *RejectedError that
// matches ErrRejected while keeping the original cause reachable through
// errors.Is/errors.As.
//
// Besides hand-written guards the package builds guards from configuration:
// Expr compiles an expr-lang boolean expression and Schema validates the
// outgoing payload against a JSON Schema document.
package guard
