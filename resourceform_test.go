package resourceform_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-resourceform"
	"github.com/goliatone/go-resourceform/pkg/config"
	"github.com/goliatone/go-resourceform/pkg/openapi"
	"github.com/goliatone/go-resourceform/pkg/renderers/headless"
	"github.com/goliatone/go-resourceform/pkg/testsupport"
)

func TestEditRoundTripOverHTTP(t *testing.T) {
	ctx := testsupport.Context(t)
	spec := testsupport.ServeDocument(t, testsupport.PostsJSON())

	var updates []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/posts/7":
			_, _ = w.Write([]byte(`{"id":7,"title":"Old","status":"draft","featured":false}`))
		case r.Method == http.MethodPut && r.URL.Path == "/posts/7":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			updates = append(updates, body)
			_ = json.NewEncoder(w).Encode(body)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	ops, err := resourceform.Operations(ctx, spec.URL+"/openapi.json", openapi.WithHTTPClient(spec.Client()))
	if err != nil {
		t.Fatalf("operations: %v", err)
	}
	form, err := resourceform.FormFor(ops, "posts")
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	registry, err := resourceform.HTTPRegistry(srv.URL, ops)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	renderer := headless.New(headless.WithForm(form))
	ctrl, err := resourceform.New(resourceform.Config{
		Name:   "posts",
		Params: map[string]any{"id": 7},
	}, renderer, resourceform.WithRegistry(registry))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := ctrl.Mount(ctx); err != nil {
		t.Fatalf("mount: %v", err)
	}
	if got := renderer.Values()["title"]; got != "Old" {
		t.Fatalf("expected loaded title, got %v", got)
	}

	renderer.Set("title", "New")
	if err := ctrl.Submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	want := []map[string]any{{"id": float64(7), "title": "New", "status": "draft", "featured": false}}
	if diff := cmp.Diff(want, updates); diff != "" {
		t.Fatalf("update body mismatch (-want +got):\n%s", diff)
	}
}

func TestFormForUnknownResource(t *testing.T) {
	ops, err := resourceform.NewParser().Operations(context.Background(), testsupport.PostsDocument(t))
	if err != nil {
		t.Fatalf("operations: %v", err)
	}
	if _, err := resourceform.FormFor(ops, "comments"); !errors.Is(err, config.ErrNoFormOperation) {
		t.Fatalf("expected ErrNoFormOperation, got %v", err)
	}
}
