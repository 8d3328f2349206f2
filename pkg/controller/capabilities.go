package controller

import (
	"context"
	"time"

	"github.com/goliatone/go-resourceform/pkg/api"
)

// Renderer is the field renderer the controller drives. Values returns the
// current field values; OnValuesChange and OnFinish register the callbacks the
// renderer fires when a field changes and when the user confirms the form.
type Renderer interface {
	Values() map[string]any
	SetValues(values map[string]any)
	Reset()
	Submit(ctx context.Context) error
	OnValuesChange(fn func(values map[string]any))
	OnFinish(fn func(ctx context.Context, values map[string]any) error)
}

// NoticeLevel classifies user notices.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notifier shows transient, non-blocking notices.
type Notifier interface {
	Notify(level NoticeLevel, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(level NoticeLevel, message string)

// Notify implements Notifier.
func (fn NotifierFunc) Notify(level NoticeLevel, message string) {
	fn(level, message)
}

// Navigator moves the host back to the previous view.
type Navigator interface {
	Back()
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func()

// Back implements Navigator.
func (fn NavigatorFunc) Back() {
	fn()
}

// Action names a controller action as seen by observers.
type Action string

const (
	ActionInit   Action = "init"
	ActionSubmit Action = "submit"
)

// Outcome is how an action ended.
type Outcome string

const (
	OutcomeSuccess    Outcome = "success"
	OutcomeRejected   Outcome = "rejected"
	OutcomeFailed     Outcome = "failed"
	OutcomeIneligible Outcome = "ineligible"
	OutcomeTornDown   Outcome = "torn_down"
)

// ActionEvent is reported once per finished action.
type ActionEvent struct {
	ID       string
	Resource string
	Action   Action
	Stage    api.Stage
	Mode     Mode
	Outcome  Outcome
	Err      error
	Duration time.Duration
}

// Observer receives action reports. Implementations must not block.
type Observer interface {
	ObserveAction(ev ActionEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev ActionEvent)

// ObserveAction implements Observer.
func (fn ObserverFunc) ObserveAction(ev ActionEvent) {
	fn(ev)
}

type nopNotifier struct{}

func (nopNotifier) Notify(NoticeLevel, string) {}

type nopNavigator struct{}

func (nopNavigator) Back() {}

type nopObserver struct{}

func (nopObserver) ObserveAction(ActionEvent) {}
