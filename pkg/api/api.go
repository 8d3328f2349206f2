// Package api defines the named registry of remote operations a resource form
// talks to. A resource named "posts" is served by three operations:
// "posts_show", "posts_create" and "posts_update".
package api

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownOperation is returned when the registry has no entry for a name.
var ErrUnknownOperation = errors.New("api: unknown operation")

// Stage identifies which remote operation a request or response belongs to.
type Stage string

const (
	StageShow   Stage = "show"
	StageCreate Stage = "create"
	StageUpdate Stage = "update"
)

// Stages lists every stage in lifecycle order.
func Stages() []Stage {
	return []Stage{StageShow, StageCreate, StageUpdate}
}

// Valid reports whether s is one of the known stages.
func (s Stage) Valid() bool {
	switch s {
	case StageShow, StageCreate, StageUpdate:
		return true
	default:
		return false
	}
}

// OperationName derives the registry key for a resource stage.
func OperationName(resource string, stage Stage) string {
	return resource + "_" + string(stage)
}

// Call performs one remote operation.
type Call func(ctx context.Context, payload map[string]any) (any, error)

// Registry resolves operation names to calls.
type Registry interface {
	Lookup(name string) (Call, bool)
}

// Map is the simplest Registry.
type Map map[string]Call

// Lookup implements Registry.
func (m Map) Lookup(name string) (Call, bool) {
	call, ok := m[name]
	return call, ok && call != nil
}

// Register stores call under the resource stage name.
func (m Map) Register(resource string, stage Stage, call Call) {
	m[OperationName(resource, stage)] = call
}

// Names returns the registered operation names sorted.
func (m Map) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke looks up and runs the resource stage operation.
func Invoke(ctx context.Context, registry Registry, resource string, stage Stage, payload map[string]any) (any, error) {
	name := OperationName(resource, stage)
	if registry == nil {
		return nil, fmt.Errorf("%w: %s (no registry)", ErrUnknownOperation, name)
	}
	call, ok := registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, name)
	}
	return call(ctx, payload)
}
