package headless

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-resourceform/pkg/api"
	"github.com/goliatone/go-resourceform/pkg/controller"
	"github.com/goliatone/go-resourceform/pkg/model"
	"github.com/goliatone/go-resourceform/pkg/validation"
)

func postForm() model.Form {
	return model.Form{Fields: []model.Field{
		{Name: "title", Type: model.FieldTypeString, Required: true},
		{Name: "status", Type: model.FieldTypeString, Default: "draft"},
	}}
}

func TestRendererDefaultsAndReset(t *testing.T) {
	r := New(WithForm(postForm()), WithInitialValues(map[string]any{"lang": "en"}))
	if diff := cmp.Diff(map[string]any{"status": "draft", "lang": "en"}, r.Values()); diff != "" {
		t.Fatalf("initial values mismatch (-want +got):\n%s", diff)
	}

	var changes []map[string]any
	r.OnValuesChange(func(values map[string]any) { changes = append(changes, values) })
	r.Set("title", "x")
	r.Unset("lang")
	r.Reset()

	want := []map[string]any{
		{"status": "draft", "lang": "en", "title": "x"},
		{"status": "draft", "title": "x"},
	}
	if diff := cmp.Diff(want, changes); diff != "" {
		t.Fatalf("changes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"status": "draft", "lang": "en"}, r.Values()); diff != "" {
		t.Fatalf("values after reset mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitValidates(t *testing.T) {
	r := New(WithForm(postForm()))
	if err := r.Submit(context.Background()); !errors.Is(err, validation.ErrInvalid) {
		t.Fatalf("expected validation error, got %v", err)
	}
	r.Set("title", "x")
	if err := r.Submit(context.Background()); !errors.Is(err, ErrNoFinishHandler) {
		t.Fatalf("expected ErrNoFinishHandler, got %v", err)
	}
}

func TestRendererDrivesController(t *testing.T) {
	var created []map[string]any
	registry := api.Map{}
	registry.Register("posts", api.StageCreate, func(_ context.Context, p map[string]any) (any, error) {
		created = append(created, p)
		return nil, nil
	})

	r := New(WithForm(postForm()))
	ctrl, err := controller.New(controller.Config{Name: "posts"}, r, controller.WithRegistry(registry))
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	ctx := context.Background()
	if err := ctrl.Mount(ctx); err != nil {
		t.Fatalf("mount: %v", err)
	}
	r.Set("title", "hello")
	if !ctrl.Touched() {
		t.Fatalf("expected controller to see the edit")
	}
	if err := ctrl.Submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if diff := cmp.Diff([]map[string]any{{"title": "hello", "status": "draft"}}, created); diff != "" {
		t.Fatalf("create payload mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"status": "draft"}, r.Values()); diff != "" {
		t.Fatalf("expected reset after create (-want +got):\n%s", diff)
	}
}
