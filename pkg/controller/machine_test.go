package controller

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTransitionLifecycle(t *testing.T) {
	var s State

	s, _, err := Transition(s, Event{Kind: EventInitRequested})
	if err != nil {
		t.Fatalf("init requested: %v", err)
	}
	if s.Phase != PhaseLoading || s.Touched {
		t.Fatalf("expected loading and untouched, got %s touched=%v", s.Phase, s.Touched)
	}

	loaded := map[string]any{"id": 3, "title": "a"}
	s, _, err = Transition(s, Event{Kind: EventInitSucceeded, Values: loaded})
	if err != nil {
		t.Fatalf("init succeeded: %v", err)
	}
	if s.Phase != PhaseReady || s.Touched {
		t.Fatalf("expected ready and untouched, got %s touched=%v", s.Phase, s.Touched)
	}
	if diff := cmp.Diff(loaded, s.Baseline()); diff != "" {
		t.Fatalf("baseline mismatch (-want +got):\n%s", diff)
	}

	s, _, _ = Transition(s, Event{Kind: EventValuesChanged, Values: map[string]any{"id": 3, "title": "b"}})
	if !s.Touched {
		t.Fatalf("expected touched after change")
	}
	s, _, _ = Transition(s, Event{Kind: EventValuesChanged, Values: map[string]any{"title": "a", "id": 3.0}})
	if s.Touched {
		t.Fatalf("expected untouched after reverting the change")
	}

	s, _, _ = Transition(s, Event{Kind: EventValuesChanged, Values: map[string]any{"id": 3, "title": "b"}})
	s, effects, err := Transition(s, Event{Kind: EventSubmitRequested, Mode: ModeEdit})
	if err != nil || len(effects) != 0 {
		t.Fatalf("submit requested: effects=%v err=%v", effects, err)
	}
	if s.Phase != PhaseSubmitting {
		t.Fatalf("expected submitting, got %s", s.Phase)
	}

	saved := map[string]any{"id": 3, "title": "b"}
	s, _, _ = Transition(s, Event{Kind: EventSubmitSucceeded, Values: saved})
	if s.Phase != PhaseReady || s.Touched {
		t.Fatalf("expected ready and untouched after save, got %s touched=%v", s.Phase, s.Touched)
	}
	if diff := cmp.Diff(saved, s.Baseline()); diff != "" {
		t.Fatalf("baseline mismatch (-want +got):\n%s", diff)
	}
}

func TestTransitionIneligibleEditSubmit(t *testing.T) {
	s := readyState(map[string]any{"id": 3})

	next, effects, err := Transition(s, Event{Kind: EventSubmitRequested, Mode: ModeEdit})
	if !errors.Is(err, ErrIneligibleSubmit) {
		t.Fatalf("expected ErrIneligibleSubmit, got %v", err)
	}
	if diff := cmp.Diff([]Effect{EffectNoChangeNotice}, effects); diff != "" {
		t.Fatalf("effects mismatch (-want +got):\n%s", diff)
	}
	if next.Phase != PhaseReady {
		t.Fatalf("expected phase to stay ready, got %s", next.Phase)
	}
}

func TestTransitionCreateSubmitWithoutChanges(t *testing.T) {
	s := readyState(map[string]any{})

	next, effects, err := Transition(s, Event{Kind: EventSubmitRequested, Mode: ModeCreate})
	if err != nil || len(effects) != 0 {
		t.Fatalf("create submit must always be eligible: effects=%v err=%v", effects, err)
	}
	if next.Phase != PhaseSubmitting {
		t.Fatalf("expected submitting, got %s", next.Phase)
	}
}

func TestTransitionSubmitRequiresReady(t *testing.T) {
	for _, phase := range []Phase{PhaseUninitialized, PhaseLoading, PhaseSubmitting} {
		s := State{Phase: phase}
		next, _, err := Transition(s, Event{Kind: EventSubmitRequested, Mode: ModeCreate})
		if !errors.Is(err, ErrNotReady) {
			t.Fatalf("%s: expected ErrNotReady, got %v", phase, err)
		}
		if next.Phase != phase {
			t.Fatalf("%s: phase changed to %s", phase, next.Phase)
		}
	}
}

func TestTransitionInitFailureResumesPreviousPhase(t *testing.T) {
	s := readyState(map[string]any{"title": "a"})

	s, _, _ = Transition(s, Event{Kind: EventInitRequested})
	s, _, _ = Transition(s, Event{Kind: EventInitRequested})
	s, _, err := Transition(s, Event{Kind: EventInitFailed})
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if s.Phase != PhaseReady {
		t.Fatalf("expected resume to ready, got %s", s.Phase)
	}
	if diff := cmp.Diff(map[string]any{"title": "a"}, s.Baseline()); diff != "" {
		t.Fatalf("baseline must survive a failed init (-want +got):\n%s", diff)
	}

	var fresh State
	fresh, _, _ = Transition(fresh, Event{Kind: EventInitRequested})
	fresh, _, _ = Transition(fresh, Event{Kind: EventInitFailed})
	if fresh.Phase != PhaseUninitialized || fresh.HasBaseline() {
		t.Fatalf("expected uninitialized without baseline, got %s baseline=%v", fresh.Phase, fresh.HasBaseline())
	}
}

func TestTransitionSubmitFailureKeepsTouched(t *testing.T) {
	s := readyState(map[string]any{"title": "a"})
	s, _, _ = Transition(s, Event{Kind: EventValuesChanged, Values: map[string]any{"title": "b"}})
	s, _, _ = Transition(s, Event{Kind: EventSubmitRequested, Mode: ModeEdit})
	s, _, _ = Transition(s, Event{Kind: EventSubmitFailed})
	if s.Phase != PhaseReady || !s.Touched {
		t.Fatalf("expected ready and touched, got %s touched=%v", s.Phase, s.Touched)
	}
}

func TestTransitionValuesChangeOutsideReady(t *testing.T) {
	s := State{Phase: PhaseLoading}
	next, _, err := Transition(s, Event{Kind: EventValuesChanged, Values: map[string]any{"a": 1}})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if next.Touched {
		t.Fatalf("touched must stay false while loading")
	}
}

func TestTransitionDoesNotMutateInput(t *testing.T) {
	s := readyState(map[string]any{"title": "a"})
	before := s.Baseline()

	_, _, _ = Transition(s, Event{Kind: EventSubmitRequested, Mode: ModeCreate})
	_, _, _ = Transition(s, Event{Kind: EventInitSucceeded, Values: map[string]any{"title": "z"}})

	if s.Phase != PhaseReady {
		t.Fatalf("input phase changed to %s", s.Phase)
	}
	if diff := cmp.Diff(before, s.Baseline()); diff != "" {
		t.Fatalf("input baseline changed (-want +got):\n%s", diff)
	}
}

func readyState(values map[string]any) State {
	s, _, _ := Transition(State{}, Event{Kind: EventInitRequested})
	s, _, _ = Transition(s, Event{Kind: EventInitSucceeded, Values: values})
	return s
}
