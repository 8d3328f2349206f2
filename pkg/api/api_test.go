package api_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-resourceform/pkg/api"
)

func TestOperationName(t *testing.T) {
	got := []string{
		api.OperationName("posts", api.StageShow),
		api.OperationName("posts", api.StageCreate),
		api.OperationName("posts", api.StageUpdate),
	}
	want := []string{"posts_show", "posts_create", "posts_update"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestInvoke(t *testing.T) {
	registry := api.Map{}
	registry.Register("posts", api.StageShow, func(_ context.Context, payload map[string]any) (any, error) {
		return map[string]any{"id": payload["id"], "title": "old"}, nil
	})

	out, err := api.Invoke(context.Background(), registry, "posts", api.StageShow, map[string]any{"id": 3})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"id": 3, "title": "old"}, out); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}

	if _, err := api.Invoke(context.Background(), registry, "posts", api.StageUpdate, nil); !errors.Is(err, api.ErrUnknownOperation) {
		t.Fatalf("expected ErrUnknownOperation, got %v", err)
	}
	if _, err := api.Invoke(context.Background(), nil, "posts", api.StageShow, nil); !errors.Is(err, api.ErrUnknownOperation) {
		t.Fatalf("expected ErrUnknownOperation for nil registry, got %v", err)
	}
	if diff := cmp.Diff([]string{"posts_show"}, registry.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestStageValid(t *testing.T) {
	for _, stage := range api.Stages() {
		if !stage.Valid() {
			t.Fatalf("stage %q should be valid", stage)
		}
	}
	if api.Stage("delete").Valid() {
		t.Fatalf("delete is not a form stage")
	}
}
