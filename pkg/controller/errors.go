package controller

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-resourceform/pkg/api"
	"github.com/goliatone/go-resourceform/pkg/guard"
)

var (
	// ErrNameRequired is returned by New when the resource name is empty.
	ErrNameRequired = errors.New("controller: resource name is required")
	// ErrRendererRequired is returned by New without a renderer.
	ErrRendererRequired = errors.New("controller: renderer is required")
	// ErrGuardRejected matches init and submit guard refusals.
	ErrGuardRejected = guard.ErrRejected
	// ErrRemoteCallFailed matches every *RemoteCallError.
	ErrRemoteCallFailed = errors.New("controller: remote call failed")
	// ErrIneligibleSubmit is returned when an edit form is submitted without
	// changes. It is informational: a notice is shown and the state is kept.
	ErrIneligibleSubmit = errors.New("controller: no changes to submit")
	// ErrNotReady is returned when submitting outside the Ready phase.
	ErrNotReady = errors.New("controller: form is not ready")
	// ErrTornDown is returned once the controller has been unmounted.
	ErrTornDown = errors.New("controller: torn down")
	// ErrInvalidTransition reports an event the current phase ignores.
	ErrInvalidTransition = errors.New("controller: invalid transition")
)

// RemoteCallError wraps a failed show, create or update call.
type RemoteCallError struct {
	Operation string
	Stage     api.Stage
	Err       error
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("controller: remote call %s failed: %v", e.Operation, e.Err)
}

// Is lets errors.Is(err, ErrRemoteCallFailed) succeed.
func (e *RemoteCallError) Is(target error) bool {
	return target == ErrRemoteCallFailed
}

func (e *RemoteCallError) Unwrap() error {
	return e.Err
}
