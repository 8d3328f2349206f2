// Package transform provides ready-made TransformRequest and TransformResponse
// hooks for the resource form controller.
package transform

import (
	"github.com/goliatone/go-resourceform/pkg/api"
	"github.com/goliatone/go-resourceform/pkg/controller"
	"github.com/goliatone/go-resourceform/pkg/dirty"
)

// RequestFunc matches controller.Config.TransformRequest.
type RequestFunc = func(req controller.StagedRequest) map[string]any

// ResponseFunc matches controller.Config.TransformResponse.
type ResponseFunc = func(res controller.StagedResponse) any

// ChainRequest runs fns in order. Each step sees the previous output; a step
// returning nil passes its input through.
func ChainRequest(fns ...RequestFunc) RequestFunc {
	return func(req controller.StagedRequest) map[string]any {
		current := req.Payload
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			if next := fn(controller.StagedRequest{Stage: req.Stage, Payload: current}); next != nil {
				current = next
			}
		}
		return current
	}
}

// ChainResponse runs fns in order with the same nil pass-through rule.
func ChainResponse(fns ...ResponseFunc) ResponseFunc {
	return func(res controller.StagedResponse) any {
		current := res.Data
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			if next := fn(controller.StagedResponse{Stage: res.Stage, Data: current}); next != nil {
				current = next
			}
		}
		return current
	}
}

// RequestForStages limits fn to the given stages.
func RequestForStages(fn RequestFunc, stages ...api.Stage) RequestFunc {
	return func(req controller.StagedRequest) map[string]any {
		for _, stage := range stages {
			if stage == req.Stage {
				return fn(req)
			}
		}
		return nil
	}
}

// Unwrap returns the value under key when the response is a record holding
// it, for APIs that wrap results as {"data": ...}.
func Unwrap(key string) ResponseFunc {
	return func(res controller.StagedResponse) any {
		record, ok := res.Data.(map[string]any)
		if !ok {
			return nil
		}
		return record[key]
	}
}

// Set adds fixed values to every outbound payload without overwriting keys
// already present.
func Set(values map[string]any) RequestFunc {
	return func(req controller.StagedRequest) map[string]any {
		out := dirty.Clone(req.Payload)
		if out == nil {
			out = make(map[string]any, len(values))
		}
		for key, value := range values {
			if _, exists := out[key]; !exists {
				out[key] = value
			}
		}
		return out
	}
}
