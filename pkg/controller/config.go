package controller

import (
	"github.com/goliatone/go-resourceform/pkg/api"
	"github.com/goliatone/go-resourceform/pkg/guard"
	"github.com/goliatone/go-resourceform/pkg/payload"
)

// StagedRequest is handed to TransformRequest before every remote call.
type StagedRequest struct {
	Stage   api.Stage
	Payload map[string]any
}

// StagedResponse is handed to TransformResponse after every remote call.
type StagedResponse struct {
	Stage api.Stage
	Data  any
}

// MutateArgs is passed to OnMutate after a successful create or update.
type MutateArgs struct {
	Name    string
	Params  map[string]any
	Payload map[string]any
	IsEdit  bool
	Values  map[string]any
}

// Config describes one resource form.
type Config struct {
	// Name selects the remote operations and the refetch topic.
	Name string
	// Params holds the identity parameters. A truthy "id" selects edit mode.
	Params map[string]any
	// PayloadFields filters every outbound payload.
	PayloadFields payload.FieldConfig

	InitGuard   guard.Func
	SubmitGuard guard.Func

	// TransformRequest rewrites outbound payloads. Returning nil keeps the
	// original payload.
	TransformRequest func(req StagedRequest) map[string]any
	// TransformResponse rewrites remote results. Returning nil keeps the raw
	// result.
	TransformResponse func(res StagedResponse) any

	// Mute suppresses the success notice.
	Mute bool
	// Blocker is an opaque navigation-blocking option kept for the host.
	Blocker any
	// Loading forces the loading indicator on.
	Loading bool
	// Lang selects the notice and label language.
	Lang string

	// Title, OKText and BackText replace the localized labels when set.
	Title    string
	OKText   string
	BackText string

	OnMutate   func(args MutateArgs)
	OnResponse func(res StagedResponse)
	OnError    func(stage api.Stage, err error)
}
