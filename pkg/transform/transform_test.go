package transform

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-resourceform/pkg/api"
	"github.com/goliatone/go-resourceform/pkg/controller"
)

func TestSanitizeStrings(t *testing.T) {
	fn := SanitizeStrings(TrimSpace())
	got := fn(controller.StagedRequest{Stage: api.StageCreate, Payload: map[string]any{
		"title": "  <b>Hello</b> & bye<script>alert(1)</script> ",
		"tags":  []any{"<i>x</i>", 3},
		"meta":  map[string]any{"note": "<p>n</p>"},
		"views": 10,
	}})
	want := map[string]any{
		"title": "Hello & bye",
		"tags":  []any{"x", 3},
		"meta":  map[string]any{"note": "n"},
		"views": 10,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sanitized payload mismatch (-want +got):\n%s", diff)
	}
}

func TestSanitizeOnlyFieldsAndUGC(t *testing.T) {
	fn := SanitizeStrings(WithUGCPolicy(), OnlyFields("body"))
	got := fn(controller.StagedRequest{Payload: map[string]any{
		"body":  `<b>bold</b><script>x</script>`,
		"title": "<b>raw</b>",
	}})
	want := map[string]any{"body": "<b>bold</b>", "title": "<b>raw</b>"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
	if fn(controller.StagedRequest{}) != nil {
		t.Fatalf("nil payload should pass through")
	}
}

func TestChainRequest(t *testing.T) {
	chain := ChainRequest(
		Set(map[string]any{"status": "draft", "title": "ignored"}),
		nil,
		func(controller.StagedRequest) map[string]any { return nil },
		RequestForStages(Set(map[string]any{"revision": 2}), api.StageUpdate),
	)

	create := chain(controller.StagedRequest{Stage: api.StageCreate, Payload: map[string]any{"title": "x"}})
	if diff := cmp.Diff(map[string]any{"title": "x", "status": "draft"}, create); diff != "" {
		t.Fatalf("create mismatch (-want +got):\n%s", diff)
	}
	update := chain(controller.StagedRequest{Stage: api.StageUpdate, Payload: map[string]any{"title": "x"}})
	if diff := cmp.Diff(map[string]any{"title": "x", "status": "draft", "revision": 2}, update); diff != "" {
		t.Fatalf("update mismatch (-want +got):\n%s", diff)
	}
}

func TestChainResponseUnwrap(t *testing.T) {
	chain := ChainResponse(Unwrap("data"), Unwrap("post"))
	got := chain(controller.StagedResponse{Stage: api.StageShow, Data: map[string]any{
		"data": map[string]any{"post": map[string]any{"id": 1}},
	}})
	if diff := cmp.Diff(map[string]any{"id": 1}, got); diff != "" {
		t.Fatalf("unwrap mismatch (-want +got):\n%s", diff)
	}

	raw := []any{1, 2}
	if diff := cmp.Diff(raw, chain(controller.StagedResponse{Data: raw})); diff != "" {
		t.Fatalf("non-record data should pass through (-want +got):\n%s", diff)
	}
}
