// Package resourceform is the entry point of the resource form controller.
// It re-exports the controller contract and adds helpers that load an
// OpenAPI document and derive the form of one resource from it.
package resourceform

import (
	"context"

	"github.com/goliatone/go-resourceform/pkg/api"
	"github.com/goliatone/go-resourceform/pkg/api/httpapi"
	"github.com/goliatone/go-resourceform/pkg/config"
	"github.com/goliatone/go-resourceform/pkg/controller"
	"github.com/goliatone/go-resourceform/pkg/model"
	pkgopenapi "github.com/goliatone/go-resourceform/pkg/openapi"
)

type (
	// Controller orchestrates one resource form.
	Controller = controller.Controller
	// Config is the per-form configuration.
	Config = controller.Config
	// Option configures collaborators of a Controller.
	Option = controller.Option
	// Renderer is the capability a form UI provides.
	Renderer = controller.Renderer
	// State is a snapshot of the controller bookkeeping.
	State = controller.State
	// StagedRequest is the input of a request transform.
	StagedRequest = controller.StagedRequest
	// StagedResponse is the input of a response transform.
	StagedResponse = controller.StagedResponse
	// MutateArgs is passed to the OnMutate hook.
	MutateArgs = controller.MutateArgs
	// Form is the declarative field schema.
	Form = model.Form
	// Field is one input of a Form.
	Field = model.Field
	// Registry resolves named remote operations.
	Registry = api.Registry
	// Setup is a form built from a YAML definition.
	Setup = config.Setup
)

// Controller options re-exported for single-import callers.
var (
	WithRegistry          = controller.WithRegistry
	WithPublisher         = controller.WithPublisher
	WithNotifier          = controller.WithNotifier
	WithNavigator         = controller.WithNavigator
	WithTranslator        = controller.WithTranslator
	WithObserver          = controller.WithObserver
	WithLogger            = controller.WithLogger
	WithSerializedActions = controller.WithSerializedActions
)

// New builds a controller for cfg rendered by renderer.
func New(cfg Config, renderer Renderer, opts ...Option) (*Controller, error) {
	return controller.New(cfg, renderer, opts...)
}

// FromFile loads a YAML form definition and builds it.
func FromFile(ctx context.Context, path string, opts ...config.BuildOption) (*Setup, error) {
	file, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return file.Build(ctx, opts...)
}

// Operations loads the document at location (a file path or http(s) URL)
// and parses its operations.
func Operations(ctx context.Context, location string, options ...pkgopenapi.LoaderOption) (map[string]pkgopenapi.Operation, error) {
	src, err := pkgopenapi.SourceFor(location)
	if err != nil {
		return nil, err
	}
	doc, err := NewLoader(options...).Load(ctx, src)
	if err != nil {
		return nil, err
	}
	return NewParser().Operations(ctx, doc)
}

// FormFor builds the form of resource from its create operation, falling
// back to update.
func FormFor(ops map[string]pkgopenapi.Operation, resource string) (Form, error) {
	return config.FormFor(ops, resource)
}

// HTTPRegistry binds the resource operations in ops to baseURL.
func HTTPRegistry(baseURL string, ops map[string]pkgopenapi.Operation, opts ...httpapi.Option) (api.Map, error) {
	client, err := httpapi.New(baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return client.Registry(ops), nil
}
