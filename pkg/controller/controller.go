package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-resourceform/pkg/api"
	"github.com/goliatone/go-resourceform/pkg/dirty"
	"github.com/goliatone/go-resourceform/pkg/events"
	"github.com/goliatone/go-resourceform/pkg/guard"
	"github.com/goliatone/go-resourceform/pkg/locale"
	"github.com/goliatone/go-resourceform/pkg/logging"
	"github.com/goliatone/go-resourceform/pkg/params"
	"github.com/goliatone/go-resourceform/pkg/payload"
)

// Controller coordinates a renderer with the remote operations of one
// resource.
type Controller struct {
	cfg      Config
	renderer Renderer

	registry   api.Registry
	publisher  events.Publisher
	notifier   Notifier
	navigator  Navigator
	translator locale.Translator
	observer   Observer
	log        *slog.Logger

	serialize bool
	actionMu  sync.Mutex

	mu      sync.Mutex
	params  map[string]any
	state   State
	mounted bool
	life    *token

	now func() time.Time
}

// New validates cfg and registers the controller on the renderer callbacks.
func New(cfg Config, renderer Renderer, opts ...Option) (*Controller, error) {
	if cfg.Name == "" {
		return nil, ErrNameRequired
	}
	if renderer == nil {
		return nil, ErrRendererRequired
	}
	c := &Controller{
		cfg:        cfg,
		renderer:   renderer,
		registry:   api.Map{},
		notifier:   nopNotifier{},
		navigator:  nopNavigator{},
		translator: locale.Default(),
		observer:   nopObserver{},
		log:        logging.Nop(),
		params:     params.Clone(cfg.Params),
		life:       &token{},
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.log = c.log.With(slog.String("resource", cfg.Name))

	renderer.OnValuesChange(c.HandleValuesChange)
	renderer.OnFinish(c.Finish)
	return c, nil
}

// Name returns the resource name.
func (c *Controller) Name() string {
	return c.cfg.Name
}

// State returns a snapshot of the bookkeeping.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Params returns a copy of the identity parameters.
func (c *Controller) Params() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return params.Clone(c.params)
}

// IsEdit reports whether the current parameters select edit mode.
func (c *Controller) IsEdit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return params.IsEdit(c.params)
}

// Loading is true while an action is in flight or the host forces it.
func (c *Controller) Loading() bool {
	if c.cfg.Loading {
		return true
	}
	phase := c.State().Phase
	return phase == PhaseLoading || phase == PhaseSubmitting
}

// Touched reports unsaved changes relative to the last baseline.
func (c *Controller) Touched() bool {
	return c.State().Touched
}

// Values returns the renderer's current values.
func (c *Controller) Values() map[string]any {
	return c.renderer.Values()
}

// SetValues pushes values into the renderer.
func (c *Controller) SetValues(values map[string]any) {
	if c.life.cancelled() {
		return
	}
	c.renderer.SetValues(values)
}

// Reset clears the renderer fields.
func (c *Controller) Reset() {
	if c.life.cancelled() {
		return
	}
	c.renderer.Reset()
}

// Labels returns the title and button labels for the current mode. Config
// overrides win over the localized text.
func (c *Controller) Labels() locale.Labels {
	labels := locale.LabelsFor(c.translator, c.cfg.Lang, c.IsEdit())
	if c.cfg.Title != "" {
		labels.Title = c.cfg.Title
	}
	if c.cfg.OKText != "" {
		labels.OK = c.cfg.OKText
	}
	if c.cfg.BackText != "" {
		labels.Back = c.cfg.BackText
	}
	return labels
}

// Blocker returns the opaque navigation blocker from the config.
func (c *Controller) Blocker() any {
	return c.cfg.Blocker
}

// Mount initializes the form. In edit mode the record is loaded through the
// show operation.
func (c *Controller) Mount(ctx context.Context) error {
	if c.life.cancelled() {
		return ErrTornDown
	}
	c.mu.Lock()
	c.mounted = true
	c.mu.Unlock()
	return c.initialize(ctx)
}

// SetParams replaces the identity parameters. When the identifier changed on
// a mounted controller, initialization runs again.
func (c *Controller) SetParams(ctx context.Context, next map[string]any) error {
	if c.life.cancelled() {
		return ErrTornDown
	}
	c.mu.Lock()
	changed := !params.SameID(c.params, next)
	c.params = params.Clone(next)
	mounted := c.mounted
	c.mu.Unlock()

	if !changed || !mounted {
		return nil
	}
	c.log.Debug("identity changed, reinitializing")
	return c.initialize(ctx)
}

// Unmount tears the controller down. In-flight actions finish their remote
// calls but no longer touch local state.
func (c *Controller) Unmount() {
	c.life.cancel()
	c.log.Debug("unmounted")
}

// HandleValuesChange is the renderer's value change callback.
func (c *Controller) HandleValuesChange(values map[string]any) {
	if c.life.cancelled() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	next, _, err := Transition(c.state, Event{Kind: EventValuesChanged, Values: values})
	if err != nil {
		return
	}
	c.state = next
}

// Submit asks the renderer to validate and confirm; the renderer answers by
// calling Finish.
func (c *Controller) Submit(ctx context.Context) error {
	if c.life.cancelled() {
		return ErrTornDown
	}
	return c.renderer.Submit(ctx)
}

func (c *Controller) initialize(ctx context.Context) error {
	release := c.acquire()
	defer release()

	c.mu.Lock()
	prm := params.Clone(c.params)
	life := c.life
	c.state, _, _ = Transition(c.state, Event{Kind: EventInitRequested})
	c.mu.Unlock()

	isEdit := params.IsEdit(prm)
	act := c.begin(ActionInit, api.StageShow, isEdit)

	var guardPayload map[string]any
	if isEdit {
		guardPayload = c.withID(payload.Filter(map[string]any{params.IDKey: prm[params.IDKey]}, c.cfg.PayloadFields), prm, true)
	}
	err := guard.Run(ctx, c.cfg.InitGuard, guard.Args{
		Name:    c.cfg.Name,
		Payload: guardPayload,
		IsEdit:  isEdit,
		Params:  prm,
	})
	if err != nil {
		c.apply(life, Event{Kind: EventInitFailed})
		release()
		err = fmt.Errorf("controller: init guard: %w", err)
		c.failed(act, err)
		return err
	}

	if !isEdit {
		if life.cancelled() {
			c.end(act, OutcomeTornDown, ErrTornDown)
			return ErrTornDown
		}
		c.apply(life, Event{Kind: EventInitSucceeded, Values: c.renderer.Values()})
		c.end(act, OutcomeSuccess, nil)
		return nil
	}

	req := c.request(api.StageShow, map[string]any{params.IDKey: prm[params.IDKey]}, prm, true)
	raw, err := api.Invoke(ctx, c.registry, c.cfg.Name, api.StageShow, req)
	if err != nil {
		c.apply(life, Event{Kind: EventInitFailed})
		release()
		err = &RemoteCallError{Operation: api.OperationName(c.cfg.Name, api.StageShow), Stage: api.StageShow, Err: err}
		c.failed(act, err)
		return err
	}
	res := c.response(api.StageShow, raw)
	release()

	if life.cancelled() {
		c.end(act, OutcomeTornDown, ErrTornDown)
		return ErrTornDown
	}
	if c.cfg.OnResponse != nil {
		c.cfg.OnResponse(res)
	}
	c.renderer.SetValues(record(res.Data))
	c.apply(life, Event{Kind: EventInitSucceeded, Values: c.renderer.Values()})
	c.end(act, OutcomeSuccess, nil)
	return nil
}

// Finish is the renderer's confirm callback. It builds the payload from
// values and the identity parameters, then creates or updates the resource.
func (c *Controller) Finish(ctx context.Context, values map[string]any) error {
	if c.life.cancelled() {
		return ErrTornDown
	}
	release := c.acquire()
	defer release()

	c.mu.Lock()
	prm := params.Clone(c.params)
	life := c.life
	isEdit := params.IsEdit(prm)
	next, effects, err := Transition(c.state, Event{Kind: EventSubmitRequested, Mode: ModeOf(isEdit)})
	c.state = next
	c.mu.Unlock()

	stage := api.StageCreate
	if isEdit {
		stage = api.StageUpdate
	}
	act := c.begin(ActionSubmit, stage, isEdit)

	if err != nil {
		release()
		for _, effect := range effects {
			if effect == EffectNoChangeNotice {
				c.notifier.Notify(NoticeInfo, locale.Text(c.translator, c.cfg.Lang, locale.KeyNoChange))
			}
		}
		if errors.Is(err, ErrIneligibleSubmit) {
			c.end(act, OutcomeIneligible, err)
		} else {
			c.end(act, OutcomeFailed, err)
		}
		return err
	}

	body := make(map[string]any, len(values)+len(prm)+1)
	if isEdit {
		body[params.IDKey] = prm[params.IDKey]
	}
	for key, value := range values {
		body[key] = value
	}
	for key, value := range prm {
		body[key] = value
	}
	req := c.request(stage, body, prm, isEdit)

	err = guard.Run(ctx, c.cfg.SubmitGuard, guard.Args{
		Name:    c.cfg.Name,
		Payload: req,
		IsEdit:  isEdit,
		Values:  values,
		Params:  prm,
	})
	if err != nil {
		c.apply(life, Event{Kind: EventSubmitFailed})
		release()
		err = fmt.Errorf("controller: submit guard: %w", err)
		c.failed(act, err)
		return err
	}

	raw, err := api.Invoke(ctx, c.registry, c.cfg.Name, stage, req)
	if err != nil {
		c.apply(life, Event{Kind: EventSubmitFailed})
		release()
		err = &RemoteCallError{Operation: api.OperationName(c.cfg.Name, stage), Stage: stage, Err: err}
		c.failed(act, err)
		return err
	}
	res := c.response(stage, raw)

	topic := events.RefetchTopic(c.cfg.Name)
	if perr := events.Publish(ctx, c.publisher, topic); perr != nil {
		act.log.Warn("refetch publish failed", slog.String("topic", topic), slog.Any("error", perr))
	}
	release()

	if life.cancelled() {
		act.log.Debug("mutation completed after unmount")
		c.end(act, OutcomeTornDown, nil)
		return nil
	}
	if c.cfg.OnResponse != nil {
		c.cfg.OnResponse(res)
	}
	if !c.cfg.Mute {
		key := locale.KeyCreateSuccess
		if isEdit {
			key = locale.KeyUpdateSuccess
		}
		c.notifier.Notify(NoticeSuccess, locale.Text(c.translator, c.cfg.Lang, key))
	}

	c.apply(life, Event{Kind: EventSubmitSucceeded, Values: c.renderer.Values()})

	if c.cfg.OnMutate != nil {
		c.cfg.OnMutate(MutateArgs{
			Name:    c.cfg.Name,
			Params:  prm,
			Payload: req,
			IsEdit:  isEdit,
			Values:  dirty.Clone(values),
		})
	}
	if !isEdit {
		c.renderer.Reset()
		c.navigator.Back()
	}
	c.end(act, OutcomeSuccess, nil)
	return nil
}

// acquire takes the action lock when actions are serialized. The returned
// release may be called more than once; host callbacks run after it so they
// can start the next action.
func (c *Controller) acquire() func() {
	if !c.serialize {
		return func() {}
	}
	c.actionMu.Lock()
	var once sync.Once
	return func() { once.Do(c.actionMu.Unlock) }
}

// request runs TransformRequest and the payload filter. In edit mode the
// identifier survives filtering.
func (c *Controller) request(stage api.Stage, body map[string]any, prm map[string]any, isEdit bool) map[string]any {
	out := body
	if c.cfg.TransformRequest != nil {
		if transformed := c.cfg.TransformRequest(StagedRequest{Stage: stage, Payload: body}); transformed != nil {
			out = transformed
		}
	}
	return c.withID(payload.Filter(out, c.cfg.PayloadFields), prm, isEdit)
}

func (c *Controller) withID(body map[string]any, prm map[string]any, isEdit bool) map[string]any {
	if isEdit {
		body[params.IDKey] = prm[params.IDKey]
	}
	return body
}

func (c *Controller) response(stage api.Stage, raw any) StagedResponse {
	data := raw
	if c.cfg.TransformResponse != nil {
		if transformed := c.cfg.TransformResponse(StagedResponse{Stage: stage, Data: raw}); transformed != nil {
			data = transformed
		}
	}
	return StagedResponse{Stage: stage, Data: data}
}

// apply commits ev unless the controller was torn down meanwhile.
func (c *Controller) apply(life *token, ev Event) {
	if life.cancelled() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	next, _, err := Transition(c.state, ev)
	if err != nil {
		c.log.Debug("transition ignored", slog.String("event", ev.Kind.String()), slog.Any("error", err))
		return
	}
	c.state = next
}

type action struct {
	id    string
	name  Action
	stage api.Stage
	mode  Mode
	start time.Time
	log   *slog.Logger
}

func (c *Controller) begin(name Action, stage api.Stage, isEdit bool) action {
	id := uuid.NewString()
	mode := ModeOf(isEdit)
	log := c.log.With(
		slog.String("action", string(name)),
		slog.String("action_id", id),
		slog.String("mode", mode.String()),
	)
	log.Debug("action started")
	return action{id: id, name: name, stage: stage, mode: mode, start: c.now(), log: log}
}

func (c *Controller) failed(act action, err error) {
	outcome := OutcomeFailed
	if errors.Is(err, ErrGuardRejected) {
		outcome = OutcomeRejected
	}
	act.log.Warn("action failed", slog.Any("error", err))
	if c.cfg.OnError != nil && !c.life.cancelled() {
		c.cfg.OnError(act.stage, err)
	}
	c.end(act, outcome, err)
}

func (c *Controller) end(act action, outcome Outcome, err error) {
	elapsed := c.now().Sub(act.start)
	act.log.Debug("action finished", slog.String("outcome", string(outcome)), slog.Duration("elapsed", elapsed))
	c.observer.ObserveAction(ActionEvent{
		ID:       act.id,
		Resource: c.cfg.Name,
		Action:   act.name,
		Stage:    act.stage,
		Mode:     act.mode,
		Outcome:  outcome,
		Err:      err,
		Duration: elapsed,
	})
}

// record turns a show result into renderer values. Structs are decoded
// through their JSON form.
func record(data any) map[string]any {
	switch typed := data.(type) {
	case nil:
		return map[string]any{}
	case map[string]any:
		return typed
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return map[string]any{}
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{}
	}
	return out
}
