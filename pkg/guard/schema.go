package guard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaResource = "guard.schema.json"

// Schema builds a guard validating args.Payload against a JSON Schema
// (draft 2020-12) document.
func Schema(raw []byte) (Func, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.New("guard: schema document is empty")
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaResource, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("guard: add schema: %w", err)
	}
	compiled, err := compiler.Compile(schemaResource)
	if err != nil {
		return nil, fmt.Errorf("guard: compile schema: %w", err)
	}

	return func(ctx context.Context, args Args) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		instance, err := jsonInstance(args.Payload)
		if err != nil {
			return &RejectedError{Reason: "payload is not JSON encodable", Cause: err}
		}
		if err := compiled.Validate(instance); err != nil {
			var verr *jsonschema.ValidationError
			if errors.As(err, &verr) {
				return &RejectedError{Reason: strings.Join(schemaMessages(verr, nil), "; "), Cause: err}
			}
			return &RejectedError{Cause: err}
		}
		return nil
	}, nil
}

// jsonInstance round-trips the payload so the validator only sees JSON types.
func jsonInstance(payload map[string]any) (any, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func schemaMessages(err *jsonschema.ValidationError, out []string) []string {
	if len(err.Causes) == 0 {
		location := strings.TrimPrefix(err.InstanceLocation, "/")
		if location == "" {
			return append(out, err.Message)
		}
		return append(out, location+": "+err.Message)
	}
	for _, cause := range err.Causes {
		out = schemaMessages(cause, out)
	}
	return out
}
