package controller

import (
	"github.com/goliatone/go-resourceform/pkg/dirty"
)

// Phase is the lifecycle position of a controller.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseLoading
	PhaseReady
	PhaseSubmitting
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// Mode tells create forms from edit forms.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// ModeOf maps the edit flag to a Mode.
func ModeOf(isEdit bool) Mode {
	if isEdit {
		return ModeEdit
	}
	return ModeCreate
}

// State is an immutable snapshot of the controller bookkeeping. Transitions
// return new values; the baseline map is replaced, never edited.
type State struct {
	Phase   Phase
	Touched bool

	baseline dirty.Tracker
	resume   Phase
}

// HasBaseline reports whether a baseline has been captured.
func (s State) HasBaseline() bool {
	return s.baseline.HasBaseline()
}

// Baseline returns a copy of the captured baseline, nil before the first
// successful initialization.
func (s State) Baseline() map[string]any {
	return s.baseline.Baseline()
}
