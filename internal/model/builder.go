package model

import (
	"fmt"
	"sort"
	"strings"

	pkgopenapi "github.com/goliatone/go-resourceform/pkg/openapi"
)

// Options configures a Builder.
type Options struct {
	Labeler func(string) string
}

// Builder converts OpenAPI operations into forms.
type Builder struct {
	labeler func(string) string
}

// New creates a Builder.
func New(options Options) *Builder {
	labeler := options.Labeler
	if labeler == nil {
		labeler = DefaultLabeler
	}
	return &Builder{labeler: labeler}
}

// Build derives a form from the operation request body. Top-level fields are
// sorted by name.
func (b *Builder) Build(op pkgopenapi.Operation) (Form, error) {
	if err := validateOperation(op); err != nil {
		return Form{}, err
	}

	form := Form{
		OperationID: op.ID,
		Endpoint:    op.Path,
		Method:      strings.ToUpper(op.Method),
		Summary:     op.Summary,
		Description: op.Description,
	}
	if resource, stage, ok := pkgopenapi.SplitOperationID(op.ID); ok {
		form.Resource = resource
		form.Metadata = map[string]string{"stage": string(stage)}
	}

	fields, err := b.fieldsFromSchema("", op.RequestBody, true)
	if err != nil {
		return Form{}, err
	}
	form.Fields = fields
	return form, nil
}

func (b *Builder) fieldsFromSchema(name string, schema pkgopenapi.Schema, required bool) ([]Field, error) {
	if schema.Ref != "" && schema.Type == "" && len(schema.Properties) == 0 {
		// unresolved reference
		if name == "" {
			return nil, nil
		}
		return []Field{{
			Name:        name,
			Type:        FieldTypeObject,
			Required:    required,
			Label:       b.labeler(name),
			Description: schema.Description,
			Metadata:    map[string]string{"$ref": schema.Ref},
		}}, nil
	}

	switch schema.Type {
	case "object", "":
		return b.fieldsFromObject(name, schema, required)
	case "array":
		field, err := b.fieldFromArray(name, schema, required)
		if err != nil {
			return nil, err
		}
		return []Field{field}, nil
	default:
		return []Field{b.fieldFromPrimitive(name, schema, required)}, nil
	}
}

func (b *Builder) fieldsFromObject(name string, schema pkgopenapi.Schema, required bool) ([]Field, error) {
	requiredSet := make(map[string]struct{}, len(schema.Required))
	for _, item := range schema.Required {
		requiredSet[item] = struct{}{}
	}

	names := make([]string, 0, len(schema.Properties))
	for prop := range schema.Properties {
		names = append(names, prop)
	}
	sort.Strings(names)

	var fields []Field
	for _, prop := range names {
		_, isRequired := requiredSet[prop]
		converted, err := b.fieldsFromSchema(prop, schema.Properties[prop], isRequired)
		if err != nil {
			return nil, err
		}
		fields = append(fields, converted...)
	}

	if name == "" {
		return fields, nil
	}
	parent := Field{
		Name:        name,
		Type:        FieldTypeObject,
		Label:       b.labeler(name),
		Description: schema.Description,
		Required:    required,
		Default:     schema.Default,
		Nested:      fields,
	}
	applyValidations(&parent, schema)
	return []Field{parent}, nil
}

func (b *Builder) fieldFromArray(name string, schema pkgopenapi.Schema, required bool) (Field, error) {
	if schema.Items == nil {
		return Field{}, fmt.Errorf("model builder: array field %q missing items", name)
	}
	nested, err := b.fieldsFromSchema(name+"Item", *schema.Items, false)
	if err != nil {
		return Field{}, err
	}

	field := Field{
		Name:        name,
		Type:        FieldTypeArray,
		Label:       b.labeler(name),
		Description: schema.Description,
		Required:    required,
		Default:     schema.Default,
	}
	if len(nested) > 0 {
		item := nested[0]
		field.Items = &item
		if len(item.Enum) > 0 {
			field.Enum = append([]any(nil), item.Enum...)
		}
	}
	if len(schema.Enum) > 0 {
		field.Enum = append([]any(nil), schema.Enum...)
	}
	applyValidations(&field, schema)
	return field, nil
}

func (b *Builder) fieldFromPrimitive(name string, schema pkgopenapi.Schema, required bool) Field {
	field := Field{
		Name:        name,
		Type:        mapType(schema.Type),
		Format:      schema.Format,
		Label:       b.labeler(name),
		Description: schema.Description,
		Required:    required,
		Default:     schema.Default,
	}
	if len(schema.Enum) > 0 {
		field.Enum = append([]any(nil), schema.Enum...)
	}
	applyValidations(&field, schema)
	return field
}

func mapType(schemaType string) FieldType {
	switch schemaType {
	case "integer":
		return FieldTypeInteger
	case "number":
		return FieldTypeNumber
	case "boolean":
		return FieldTypeBoolean
	case "array":
		return FieldTypeArray
	case "object":
		return FieldTypeObject
	default:
		return FieldTypeString
	}
}

// InitialValues collects field defaults into a record. Objects contribute a
// nested record when any child has a default.
func InitialValues(fields []Field) map[string]any {
	out := make(map[string]any)
	for _, field := range fields {
		switch {
		case field.Default != nil:
			out[field.Name] = field.Default
		case field.Type == FieldTypeObject && len(field.Nested) > 0:
			if nested := InitialValues(field.Nested); len(nested) > 0 {
				out[field.Name] = nested
			}
		}
	}
	return out
}

// Find returns the top-level field called name.
func (f Form) Find(name string) (Field, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}
