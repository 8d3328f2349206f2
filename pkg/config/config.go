// Package config reads resource form definitions from YAML (or JSON) and
// wires them into controller configuration: remote operations from an
// OpenAPI document, guard expressions, request sanitizing and MQTT refetch
// notifications.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-resourceform/pkg/guard"
	"github.com/goliatone/go-resourceform/pkg/payload"
	"github.com/goliatone/go-resourceform/pkg/visibility"
)

var (
	// ErrFileNotFound is returned by Load for missing files.
	ErrFileNotFound = errors.New("config: file not found")
	// ErrEmptyFile is returned for empty documents.
	ErrEmptyFile = errors.New("config: file is empty")
	// ErrInvalidYAML wraps decoding failures.
	ErrInvalidYAML = errors.New("config: invalid YAML syntax")
	// ErrInvalid wraps validation failures.
	ErrInvalid = errors.New("config: invalid configuration")
)

// File is one resource form definition.
type File struct {
	Name          string              `yaml:"name"`
	Lang          string              `yaml:"lang,omitempty"`
	Mute          bool                `yaml:"mute,omitempty"`
	Title         string              `yaml:"title,omitempty"`
	OKText        string              `yaml:"okText,omitempty"`
	BackText      string              `yaml:"backText,omitempty"`
	Params        map[string]any      `yaml:"params,omitempty"`
	PayloadFields payload.FieldConfig `yaml:"payloadFields,omitempty"`
	OpenAPI       OpenAPI             `yaml:"openapi"`
	Guards        Guards              `yaml:"guards,omitempty"`
	Sanitize      Sanitize            `yaml:"sanitize,omitempty"`
	Unwrap        string              `yaml:"unwrap,omitempty"`
	Visibility    map[string]string   `yaml:"visibility,omitempty"`
	Widgets       map[string]string   `yaml:"widgets,omitempty"`
	Events        Events              `yaml:"events,omitempty"`
}

// OpenAPI locates the document describing the resource operations and the
// server that implements them.
type OpenAPI struct {
	Source  string            `yaml:"source"`
	BaseURL string            `yaml:"baseURL"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout time.Duration     `yaml:"timeout,omitempty"`
}

// Guards holds expr-lang expressions and an optional JSON schema for the
// submit payload.
type Guards struct {
	Init         string `yaml:"init,omitempty"`
	Submit       string `yaml:"submit,omitempty"`
	SubmitSchema any    `yaml:"submitSchema,omitempty"`
}

// Sanitize enables HTML sanitizing of outbound string values.
type Sanitize struct {
	Enabled   bool     `yaml:"enabled"`
	UGC       bool     `yaml:"ugc,omitempty"`
	TrimSpace bool     `yaml:"trimSpace,omitempty"`
	Fields    []string `yaml:"fields,omitempty"`
}

// Events configures refetch notifications.
type Events struct {
	MQTT *MQTT `yaml:"mqtt,omitempty"`
}

// MQTT configures the broker bridge.
type MQTT struct {
	Broker      string        `yaml:"broker"`
	ClientID    string        `yaml:"clientID,omitempty"`
	TopicPrefix string        `yaml:"topicPrefix,omitempty"`
	QoS         byte          `yaml:"qos,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
}

// Load reads and validates the file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w (file %s)", err, path)
	}
	return f, nil
}

// Parse decodes and validates a definition. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks required settings and compiles the guards.
func (f *File) Validate() error {
	var errs []error
	if strings.TrimSpace(f.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if strings.TrimSpace(f.OpenAPI.Source) == "" {
		errs = append(errs, errors.New("openapi.source is required"))
	}
	if base, err := url.Parse(f.OpenAPI.BaseURL); err != nil || !base.IsAbs() {
		errs = append(errs, fmt.Errorf("openapi.baseURL must be an absolute URL, got %q", f.OpenAPI.BaseURL))
	}
	if _, err := f.guards(); err != nil {
		errs = append(errs, err)
	}
	rules := visibility.NewExprEvaluator()
	for _, field := range sortedKeys(f.Visibility) {
		if err := rules.Compile(f.Visibility[field]); err != nil {
			errs = append(errs, fmt.Errorf("visibility.%s: %w", field, err))
		}
	}
	if m := f.Events.MQTT; m != nil {
		if strings.TrimSpace(m.Broker) == "" {
			errs = append(errs, errors.New("events.mqtt.broker is required"))
		}
		if m.QoS > 2 {
			errs = append(errs, fmt.Errorf("events.mqtt.qos must be 0, 1 or 2, got %d", m.QoS))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

type compiledGuards struct {
	init   guard.Func
	submit guard.Func
}

func (f *File) guards() (compiledGuards, error) {
	var out compiledGuards
	if src := strings.TrimSpace(f.Guards.Init); src != "" {
		fn, err := guard.Expr(src)
		if err != nil {
			return out, fmt.Errorf("guards.init: %w", err)
		}
		out.init = fn
	}

	var submit []guard.Func
	if src := strings.TrimSpace(f.Guards.Submit); src != "" {
		fn, err := guard.Expr(src)
		if err != nil {
			return out, fmt.Errorf("guards.submit: %w", err)
		}
		submit = append(submit, fn)
	}
	if f.Guards.SubmitSchema != nil {
		raw, err := schemaBytes(f.Guards.SubmitSchema)
		if err != nil {
			return out, fmt.Errorf("guards.submitSchema: %w", err)
		}
		fn, err := guard.Schema(raw)
		if err != nil {
			return out, fmt.Errorf("guards.submitSchema: %w", err)
		}
		submit = append(submit, fn)
	}
	switch len(submit) {
	case 0:
	case 1:
		out.submit = submit[0]
	default:
		out.submit = guard.All(submit...)
	}
	return out, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
