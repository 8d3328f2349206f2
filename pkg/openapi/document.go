package openapi

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-resourceform/pkg/api"
)

var (
	// ErrEmptyDocument is returned when a document has no payload.
	ErrEmptyDocument = errors.New("openapi: raw document is empty")
	// ErrNilSource is returned when a document has no origin.
	ErrNilSource = errors.New("openapi: source is required")
)

// Source identifies where a document came from.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind enumerates the loader modalities.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
)

// Document is a raw OpenAPI payload and its origin.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument copies raw and pairs it with src.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, ErrNilSource
	}
	if len(raw) == 0 {
		return Document{}, ErrEmptyDocument
	}
	return Document{source: src, raw: append([]byte(nil), raw...)}, nil
}

// MustNewDocument panics when NewDocument fails.
func MustNewDocument(src Source, raw []byte) Document {
	doc, err := NewDocument(src, raw)
	if err != nil {
		panic(err)
	}
	return doc
}

// Source returns the document origin.
func (d Document) Source() Source {
	return d.source
}

// Raw returns a copy of the payload.
func (d Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

// Location returns the origin identifier, empty for the zero Document.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// Operation is the subset of an OpenAPI operation a resource form needs.
type Operation struct {
	ID          string
	Method      string
	Path        string
	Summary     string
	Description string
	RequestBody Schema
	Responses   map[string]Schema
}

// NewOperation validates the identifying fields.
func NewOperation(id, method, path string, request Schema, responses map[string]Schema) (Operation, error) {
	switch {
	case id == "":
		return Operation{}, errors.New("openapi: operation id is required")
	case method == "":
		return Operation{}, errors.New("openapi: operation method is required")
	case path == "":
		return Operation{}, errors.New("openapi: operation path is required")
	}
	if responses == nil {
		responses = make(map[string]Schema)
	}
	return Operation{
		ID:          id,
		Method:      strings.ToUpper(method),
		Path:        path,
		RequestBody: request,
		Responses:   responses,
	}, nil
}

// MustNewOperation panics when NewOperation fails.
func MustNewOperation(id, method, path string, request Schema, responses map[string]Schema) Operation {
	op, err := NewOperation(id, method, path, request, responses)
	if err != nil {
		panic(err)
	}
	return op
}

// PathParams lists the {name} segments of the path template in order.
func (op Operation) PathParams() []string {
	var names []string
	rest := op.Path
	for {
		start := strings.IndexByte(rest, '{')
		if start < 0 {
			return names
		}
		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			return names
		}
		names = append(names, rest[start+1:start+end])
		rest = rest[start+end+1:]
	}
}

// SplitOperationID splits "<resource>_<stage>" ids. Only show, create and
// update stages are recognised.
func SplitOperationID(id string) (string, api.Stage, bool) {
	idx := strings.LastIndexByte(id, '_')
	if idx <= 0 || idx == len(id)-1 {
		return "", "", false
	}
	stage := api.Stage(id[idx+1:])
	if !stage.Valid() {
		return "", "", false
	}
	return id[:idx], stage, true
}

// ResourceOperations groups the resource stage operations by resource name.
func ResourceOperations(ops map[string]Operation) map[string]map[api.Stage]Operation {
	out := make(map[string]map[api.Stage]Operation)
	for id, op := range ops {
		resource, stage, ok := SplitOperationID(id)
		if !ok {
			continue
		}
		if out[resource] == nil {
			out[resource] = make(map[api.Stage]Operation, 3)
		}
		out[resource][stage] = op
	}
	return out
}

// Resources returns the sorted resource names found in ops.
func Resources(ops map[string]Operation) []string {
	grouped := ResourceOperations(ops)
	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schema is a simplified JSON schema node for request and response bodies.
type Schema struct {
	Ref              string
	Type             string
	Format           string
	Required         []string
	Properties       map[string]Schema
	Items            *Schema
	Enum             []any
	Description      string
	Default          any
	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum bool
	ExclusiveMaximum bool
	MinLength        *int
	MaxLength        *int
	Pattern          string
}

// Clone deep-copies the schema tree.
func (s Schema) Clone() Schema {
	out := s
	if len(s.Required) > 0 {
		out.Required = append([]string(nil), s.Required...)
	}
	if len(s.Enum) > 0 {
		out.Enum = append([]any(nil), s.Enum...)
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = prop.Clone()
		}
	}
	if s.Items != nil {
		items := s.Items.Clone()
		out.Items = &items
	}
	return out
}

// Validate rejects schemas a form cannot be built from.
func (s Schema) Validate() error {
	if s.Type == "" && s.Ref == "" && len(s.Properties) == 0 {
		return errors.New("openapi: schema requires a type, ref or properties")
	}
	if s.Type == "array" && s.Items == nil {
		return errors.New("openapi: array schema must define items")
	}
	return nil
}

// DebugString is a compact single-line summary for logs.
func (s Schema) DebugString() string {
	out := fmt.Sprintf("type=%s", s.Type)
	if s.Ref != "" {
		out += ",ref=" + s.Ref
	}
	if len(s.Required) > 0 {
		out += fmt.Sprintf(",required=%d", len(s.Required))
	}
	if len(s.Properties) > 0 {
		out += fmt.Sprintf(",properties=%d", len(s.Properties))
	}
	return out
}
