package model

import (
	internalmodel "github.com/goliatone/go-resourceform/internal/model"
	pkgopenapi "github.com/goliatone/go-resourceform/pkg/openapi"
)

// Builder converts OpenAPI operations into forms.
type Builder interface {
	Build(op pkgopenapi.Operation) (Form, error)
}

// BuilderOption configures NewBuilder.
type BuilderOption func(*internalmodel.Options)

// WithLabeler overrides label generation.
func WithLabeler(labeler func(string) string) BuilderOption {
	return func(opts *internalmodel.Options) {
		opts.Labeler = labeler
	}
}

// NewBuilder returns the default Builder.
func NewBuilder(options ...BuilderOption) Builder {
	cfg := internalmodel.Options{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return internalmodel.New(cfg)
}

// FromOperation builds a form with the default builder.
func FromOperation(op pkgopenapi.Operation) (Form, error) {
	return NewBuilder().Build(op)
}
