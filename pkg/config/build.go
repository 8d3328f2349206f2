package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-resourceform/internal/openapi/loader"
	"github.com/goliatone/go-resourceform/internal/openapi/parser"
	"github.com/goliatone/go-resourceform/pkg/api"
	"github.com/goliatone/go-resourceform/pkg/api/httpapi"
	"github.com/goliatone/go-resourceform/pkg/controller"
	"github.com/goliatone/go-resourceform/pkg/events"
	"github.com/goliatone/go-resourceform/pkg/logging"
	"github.com/goliatone/go-resourceform/pkg/metrics"
	"github.com/goliatone/go-resourceform/pkg/model"
	pkgopenapi "github.com/goliatone/go-resourceform/pkg/openapi"
	"github.com/goliatone/go-resourceform/pkg/transform"
	"github.com/goliatone/go-resourceform/pkg/visibility"
	"github.com/goliatone/go-resourceform/pkg/widgets"
)

var (
	// ErrNoFormOperation is returned when the document has neither a create
	// nor an update operation for the resource.
	ErrNoFormOperation = errors.New("config: no create or update operation for resource")
	// ErrUnknownField is returned for visibility rules or widget overrides
	// naming a field the form does not have.
	ErrUnknownField = errors.New("config: unknown form field")
)

// Dialer connects an MQTT client.
type Dialer func(broker, clientID string, timeout time.Duration) (mqtt.Client, error)

// Setup is a built form: everything needed to construct a controller and a
// renderer for it.
type Setup struct {
	Config   controller.Config
	Options  []controller.Option
	Form     model.Form
	Registry api.Map

	// Visibility evaluates the rules attached to Form fields. It is nil when
	// the definition has none.
	Visibility visibility.Evaluator

	closers []func()
}

// Close releases broker connections opened by Build.
func (s *Setup) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

type buildOptions struct {
	log        *slog.Logger
	httpClient *http.Client
	publishers []events.Publisher
	registerer prometheus.Registerer
	dial       Dialer
}

// BuildOption customizes Build.
type BuildOption func(*buildOptions)

// WithLogger sets the logger handed to the controller and HTTP client.
func WithLogger(log *slog.Logger) BuildOption {
	return func(o *buildOptions) {
		o.log = logging.OrNop(log)
	}
}

// WithHTTPClient sets the client used for the document and the API.
func WithHTTPClient(client *http.Client) BuildOption {
	return func(o *buildOptions) {
		o.httpClient = client
	}
}

// WithPublisher adds a refetch publisher next to the configured broker.
func WithPublisher(p events.Publisher) BuildOption {
	return func(o *buildOptions) {
		if p != nil {
			o.publishers = append(o.publishers, p)
		}
	}
}

// WithMetrics registers action metrics with reg.
func WithMetrics(reg prometheus.Registerer) BuildOption {
	return func(o *buildOptions) {
		o.registerer = reg
	}
}

// WithDialer replaces events.DialMQTT.
func WithDialer(dial Dialer) BuildOption {
	return func(o *buildOptions) {
		if dial != nil {
			o.dial = dial
		}
	}
}

// Build loads the OpenAPI document, binds its operations to the base URL and
// assembles the controller configuration.
func (f *File) Build(ctx context.Context, opts ...BuildOption) (*Setup, error) {
	o := buildOptions{
		log:        logging.Nop(),
		httpClient: http.DefaultClient,
		dial:       events.DialMQTT,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	log := o.log.With(slog.String("resource", f.Name))

	guards, err := f.guards()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	ops, err := f.operations(ctx, o.httpClient)
	if err != nil {
		return nil, err
	}
	form, err := FormFor(ops, f.Name)
	if err != nil {
		return nil, err
	}
	if err := applyMetadata(&form, "visibility", visibility.MetadataKey, f.Visibility); err != nil {
		return nil, err
	}
	if err := applyMetadata(&form, "widgets", widgets.MetadataKey, f.Widgets); err != nil {
		return nil, err
	}

	clientOpts := []httpapi.Option{httpapi.WithHTTPClient(o.httpClient), httpapi.WithLogger(log)}
	for key, value := range f.OpenAPI.Headers {
		clientOpts = append(clientOpts, httpapi.WithHeader(key, value))
	}
	if f.OpenAPI.Timeout > 0 {
		clientOpts = append(clientOpts, httpapi.WithTimeout(f.OpenAPI.Timeout))
	}
	client, err := httpapi.New(f.OpenAPI.BaseURL, clientOpts...)
	if err != nil {
		return nil, err
	}

	setup := &Setup{
		Form:     form,
		Registry: client.Registry(ops),
		Config: controller.Config{
			Name:          f.Name,
			Params:        f.Params,
			PayloadFields: f.PayloadFields,
			InitGuard:     guards.init,
			SubmitGuard:   guards.submit,
			Mute:          f.Mute,
			Lang:          f.Lang,
			Title:         f.Title,
			OKText:        f.OKText,
			BackText:      f.BackText,
		},
	}
	if len(f.Visibility) > 0 {
		setup.Visibility = visibility.NewExprEvaluator()
	}
	if f.Sanitize.Enabled {
		setup.Config.TransformRequest = transform.SanitizeStrings(f.sanitizeOptions()...)
	}
	if f.Unwrap != "" {
		setup.Config.TransformResponse = transform.Unwrap(f.Unwrap)
	}

	publishers := append([]events.Publisher(nil), o.publishers...)
	if m := f.Events.MQTT; m != nil {
		conn, err := o.dial(m.Broker, m.ClientID, m.Timeout)
		if err != nil {
			return nil, err
		}
		setup.closers = append(setup.closers, func() { conn.Disconnect(250) })
		mqttOpts := []events.MQTTOption{events.WithQoS(m.QoS)}
		if m.TopicPrefix != "" {
			mqttOpts = append(mqttOpts, events.WithTopicPrefix(m.TopicPrefix))
		}
		if m.Timeout > 0 {
			mqttOpts = append(mqttOpts, events.WithPublishTimeout(m.Timeout))
		}
		publishers = append(publishers, events.NewMQTTPublisher(conn, mqttOpts...))
		log.Debug("mqtt bridge connected", slog.String("broker", m.Broker))
	}

	setup.Options = []controller.Option{
		controller.WithRegistry(setup.Registry),
		controller.WithLogger(log),
	}
	switch len(publishers) {
	case 0:
	case 1:
		setup.Options = append(setup.Options, controller.WithPublisher(publishers[0]))
	default:
		setup.Options = append(setup.Options, controller.WithPublisher(events.Multi(publishers...)))
	}
	if o.registerer != nil {
		recorder, err := metrics.New(o.registerer)
		if err != nil {
			setup.Close()
			return nil, err
		}
		setup.Options = append(setup.Options, controller.WithObserver(recorder))
	}
	return setup, nil
}

func (f *File) operations(ctx context.Context, client *http.Client) (map[string]pkgopenapi.Operation, error) {
	src, err := pkgopenapi.SourceFor(f.OpenAPI.Source)
	if err != nil {
		return nil, err
	}
	l := loader.New(pkgopenapi.NewLoaderOptions(pkgopenapi.WithHTTPClient(client)))
	doc, err := l.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	return parser.New(pkgopenapi.NewParserOptions()).Operations(ctx, doc)
}

// FormFor builds the field schema of resource from its create operation, or
// the update operation for resources that cannot be created.
func FormFor(ops map[string]pkgopenapi.Operation, resource string) (model.Form, error) {
	stages := pkgopenapi.ResourceOperations(ops)[resource]
	for _, stage := range []api.Stage{api.StageCreate, api.StageUpdate} {
		if op, ok := stages[stage]; ok {
			return model.FromOperation(op)
		}
	}
	return model.Form{}, fmt.Errorf("%w: %s", ErrNoFormOperation, resource)
}

// applyMetadata sets key on the top-level fields named in values.
func applyMetadata(form *model.Form, section, key string, values map[string]string) error {
	for _, name := range sortedKeys(values) {
		idx := -1
		for i := range form.Fields {
			if form.Fields[i].Name == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: %s.%s", ErrUnknownField, section, name)
		}
		field := &form.Fields[idx]
		metadata := make(map[string]string, len(field.Metadata)+1)
		for key, value := range field.Metadata {
			metadata[key] = value
		}
		metadata[key] = values[name]
		field.Metadata = metadata
	}
	return nil
}

func (f *File) sanitizeOptions() []transform.SanitizeOption {
	var opts []transform.SanitizeOption
	if f.Sanitize.UGC {
		opts = append(opts, transform.WithUGCPolicy())
	}
	if f.Sanitize.TrimSpace {
		opts = append(opts, transform.TrimSpace())
	}
	if len(f.Sanitize.Fields) > 0 {
		opts = append(opts, transform.OnlyFields(f.Sanitize.Fields...))
	}
	return opts
}

func schemaBytes(schema any) ([]byte, error) {
	if text, ok := schema.(string); ok {
		return []byte(text), nil
	}
	return json.Marshal(schema)
}
