package validation

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-resourceform/pkg/model"
)

func fields() []model.Field {
	return []model.Field{
		{Name: "title", Type: model.FieldTypeString, Required: true, Validations: []model.ValidationRule{
			{Kind: model.ValidationRuleMaxLength, Params: map[string]string{"value": "5"}},
		}},
		{Name: "slug", Type: model.FieldTypeString, Validations: []model.ValidationRule{
			{Kind: model.ValidationRulePattern, Params: map[string]string{"pattern": "^[a-z-]+$"}},
		}},
		{Name: "views", Type: model.FieldTypeInteger, Validations: []model.ValidationRule{
			{Kind: model.ValidationRuleMin, Params: map[string]string{"value": "0"}},
		}},
		{Name: "tags", Type: model.FieldTypeArray, Validations: []model.ValidationRule{
			{Kind: model.ValidationRuleMaxLength, Params: map[string]string{"value": "2"}},
		}},
		{Name: "meta", Type: model.FieldTypeObject, Nested: []model.Field{
			{Name: "lang", Type: model.FieldTypeString, Required: true},
		}},
	}
}

func TestValuesValid(t *testing.T) {
	result := Values(fields(), map[string]any{
		"title": "hello",
		"slug":  "a-b",
		"views": int64(3),
		"tags":  []any{"x"},
		"meta":  map[string]any{"lang": "en"},
	})
	if !result.Valid() || result.Err() != nil {
		t.Fatalf("expected valid, got %+v", result.Issues)
	}
}

func TestValuesIssues(t *testing.T) {
	result := Values(fields(), map[string]any{
		"slug":  "A B",
		"views": -1.0,
		"tags":  []any{"a", "b", "c"},
		"meta":  map[string]any{},
	})
	want := []Issue{
		{Field: "meta.lang", Message: "required"},
		{Field: "slug", Message: "does not match required pattern"},
		{Field: "tags", Message: "max length 2"},
		{Field: "title", Message: "required"},
		{Field: "views", Message: "min 0"},
	}
	if diff := cmp.Diff(want, result.Issues); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
	if err := result.Err(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestRulesString(t *testing.T) {
	rules := RulesFor(fields()[0])
	if err := rules.String("  "); err == nil {
		t.Fatalf("expected required error")
	}
	if err := rules.String("toolong"); err == nil {
		t.Fatalf("expected max length error")
	}
	if err := rules.String("héllo"); err != nil {
		t.Fatalf("length counts runes: %v", err)
	}
}
