package controller

import "fmt"

// EventKind enumerates state machine inputs.
type EventKind int

const (
	EventInitRequested EventKind = iota + 1
	EventInitSucceeded
	EventInitFailed
	EventValuesChanged
	EventSubmitRequested
	EventSubmitSucceeded
	EventSubmitFailed
)

func (k EventKind) String() string {
	switch k {
	case EventInitRequested:
		return "init_requested"
	case EventInitSucceeded:
		return "init_succeeded"
	case EventInitFailed:
		return "init_failed"
	case EventValuesChanged:
		return "values_changed"
	case EventSubmitRequested:
		return "submit_requested"
	case EventSubmitSucceeded:
		return "submit_succeeded"
	case EventSubmitFailed:
		return "submit_failed"
	default:
		return "unknown"
	}
}

// Event is a state machine input. Values carries the renderer values for
// success and change events; Mode is read by EventSubmitRequested.
type Event struct {
	Kind   EventKind
	Mode   Mode
	Values map[string]any
}

// Effect is a side effect the caller must perform after a transition.
type Effect int

const (
	// EffectNoChangeNotice asks for the non-blocking "no changes" notice.
	EffectNoChangeNotice Effect = iota + 1
)

// transition is one allowed edge. resume edges return to the phase that was
// active before loading started.
type transition struct {
	From   Phase
	Event  EventKind
	To     Phase
	Resume bool
}

var transitionsTable = []transition{
	// (re)initialization may start from anywhere
	{From: PhaseUninitialized, Event: EventInitRequested, To: PhaseLoading},
	{From: PhaseLoading, Event: EventInitRequested, To: PhaseLoading},
	{From: PhaseReady, Event: EventInitRequested, To: PhaseLoading},
	{From: PhaseSubmitting, Event: EventInitRequested, To: PhaseLoading},

	// last write wins between overlapping actions
	{From: PhaseLoading, Event: EventInitSucceeded, To: PhaseReady},
	{From: PhaseReady, Event: EventInitSucceeded, To: PhaseReady},
	{From: PhaseSubmitting, Event: EventInitSucceeded, To: PhaseReady},
	{From: PhaseLoading, Event: EventInitFailed, Resume: true},

	{From: PhaseReady, Event: EventValuesChanged, To: PhaseReady},

	{From: PhaseReady, Event: EventSubmitRequested, To: PhaseSubmitting},
	{From: PhaseSubmitting, Event: EventSubmitSucceeded, To: PhaseReady},
	{From: PhaseLoading, Event: EventSubmitSucceeded, To: PhaseReady},
	{From: PhaseReady, Event: EventSubmitSucceeded, To: PhaseReady},
	{From: PhaseSubmitting, Event: EventSubmitFailed, To: PhaseReady},
}

func transitionFor(from Phase, ev EventKind) (transition, bool) {
	for _, tr := range transitionsTable {
		if tr.From == from && tr.Event == ev {
			return tr, true
		}
	}
	return transition{}, false
}

// Transition applies ev to s. It never mutates s. When an error is returned
// the returned state equals s; effects may still be present (an ineligible
// submit asks for a notice).
func Transition(s State, ev Event) (State, []Effect, error) {
	tr, ok := transitionFor(s.Phase, ev.Kind)
	if !ok {
		switch ev.Kind {
		case EventSubmitRequested:
			return s, nil, fmt.Errorf("%w: phase %s", ErrNotReady, s.Phase)
		default:
			return s, nil, fmt.Errorf("%w: %s in phase %s", ErrInvalidTransition, ev.Kind, s.Phase)
		}
	}

	next := s
	switch ev.Kind {
	case EventInitRequested:
		if s.Phase != PhaseLoading {
			next.resume = s.Phase
		}
		next.Touched = false

	case EventInitSucceeded, EventSubmitSucceeded:
		next.baseline.Reset(ev.Values)
		next.Touched = next.baseline.Touched(ev.Values)

	case EventValuesChanged:
		next.Touched = next.baseline.Touched(ev.Values)

	case EventSubmitRequested:
		if ev.Mode == ModeEdit && !s.Touched {
			return s, []Effect{EffectNoChangeNotice}, ErrIneligibleSubmit
		}
	}

	next.Phase = tr.To
	if tr.Resume {
		next.Phase = s.resume
		if next.Phase == PhaseLoading {
			next.Phase = PhaseUninitialized
		}
	}
	return next, nil, nil
}
