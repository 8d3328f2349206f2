package config

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/goliatone/go-resourceform/pkg/controller"
	"github.com/goliatone/go-resourceform/pkg/guard"
	"github.com/goliatone/go-resourceform/pkg/payload"
	"github.com/goliatone/go-resourceform/pkg/renderers/headless"
	"github.com/goliatone/go-resourceform/pkg/testsupport"
	"github.com/goliatone/go-resourceform/pkg/visibility"
	"github.com/goliatone/go-resourceform/pkg/widgets"
)

const sample = `
name: posts
lang: en-US
mute: true
title: Edit post
okText: Publish
params:
  id: 7
payloadFields:
  exclude: [secret]
openapi:
  source: ./posts.json
  baseURL: http://localhost:8080/api
  headers:
    Authorization: Bearer token
  timeout: 5s
guards:
  init: 'params.id != nil'
  submit: 'payload.title != ""'
  submitSchema:
    type: object
    required: [title]
sanitize:
  enabled: true
  trimSpace: true
  fields: [title]
unwrap: data
events:
  mqtt:
    broker: tcp://localhost:1883
    topicPrefix: admin
    qos: 1
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := &File{
		Name:          "posts",
		Lang:          "en-US",
		Mute:          true,
		Title:         "Edit post",
		OKText:        "Publish",
		Params:        map[string]any{"id": 7},
		PayloadFields: payload.FieldConfig{Exclude: []string{"secret"}},
		OpenAPI: OpenAPI{
			Source:  "./posts.json",
			BaseURL: "http://localhost:8080/api",
			Headers: map[string]string{"Authorization": "Bearer token"},
			Timeout: 5 * time.Second,
		},
		Guards: Guards{
			Init:   "params.id != nil",
			Submit: `payload.title != ""`,
			SubmitSchema: map[string]any{
				"type":     "object",
				"required": []any{"title"},
			},
		},
		Sanitize: Sanitize{Enabled: true, TrimSpace: true, Fields: []string{"title"}},
		Unwrap:   "data",
		Events: Events{MQTT: &MQTT{
			Broker:      "tcp://localhost:1883",
			TopicPrefix: "admin",
			QoS:         1,
		}},
	}
	if diff := cmp.Diff(want, f); diff != "" {
		t.Fatalf("file mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		target  error
		message string
	}{
		{name: "empty", data: "  \n", target: ErrEmptyFile},
		{name: "unknown key", data: "name: posts\ncolour: red\n", target: ErrInvalidYAML, message: "colour"},
		{name: "missing fields", data: "lang: en-US\n", target: ErrInvalid, message: "name is required"},
		{
			name:    "relative base",
			data:    "name: posts\nopenapi:\n  source: a.json\n  baseURL: /api\n",
			target:  ErrInvalid,
			message: "openapi.baseURL",
		},
		{
			name:    "bad guard",
			data:    "name: posts\nopenapi:\n  source: a.json\n  baseURL: http://x\nguards:\n  submit: 'payload.('\n",
			target:  ErrInvalid,
			message: "guards.submit",
		},
		{
			name:    "bad visibility rule",
			data:    "name: posts\nopenapi:\n  source: a.json\n  baseURL: http://x\nvisibility:\n  featured: 'values.('\n",
			target:  ErrInvalid,
			message: "visibility.featured",
		},
		{
			name:    "bad qos",
			data:    "name: posts\nopenapi:\n  source: a.json\n  baseURL: http://x\nevents:\n  mqtt:\n    broker: tcp://b\n    qos: 3\n",
			target:  ErrInvalid,
			message: "qos",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if !errors.Is(err, tt.target) {
				t.Fatalf("expected %v, got %v", tt.target, err)
			}
			if tt.message != "" && !strings.Contains(err.Error(), tt.message) {
				t.Fatalf("expected %q in %v", tt.message, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}

type fakeToken struct{ done chan struct{} }

func newFakeToken() *fakeToken {
	t := &fakeToken{done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return nil }

type fakeBroker struct {
	mqtt.Client

	mu           sync.Mutex
	topics       []string
	disconnected bool
}

func (b *fakeBroker) Publish(topic string, _ byte, _ bool, _ interface{}) mqtt.Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics = append(b.topics, topic)
	return newFakeToken()
}

func (b *fakeBroker) Disconnect(uint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disconnected = true
}

func TestBuildWiresCreateFlow(t *testing.T) {
	ctx := testsupport.Context(t)

	var (
		mu       sync.Mutex
		received []map[string]any
	)
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/posts" {
			http.NotFound(w, r)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		received = append(received, body)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":1}}`))
	}))
	t.Cleanup(api.Close)

	spec := filepath.Join(t.TempDir(), "posts.json")
	if err := os.WriteFile(spec, testsupport.PostsJSON(), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	f := &File{
		Name:          "posts",
		PayloadFields: payload.FieldConfig{Exclude: []string{"secret"}},
		OpenAPI:       OpenAPI{Source: spec, BaseURL: api.URL + "/api"},
		Guards:        Guards{Submit: `payload.title != ""`},
		Sanitize:      Sanitize{Enabled: true, TrimSpace: true},
		Unwrap:        "data",
		Visibility:    map[string]string{"featured": `values.status == "published"`},
		Widgets:       map[string]string{"body": "textarea"},
		Events:        Events{MQTT: &MQTT{Broker: "tcp://broker:1883", TopicPrefix: "admin"}},
	}
	if err := f.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	broker := &fakeBroker{}
	reg := prometheus.NewRegistry()
	setup, err := f.Build(ctx,
		WithHTTPClient(api.Client()),
		WithMetrics(reg),
		WithDialer(func(string, string, time.Duration) (mqtt.Client, error) { return broker, nil }),
	)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if got := setup.Registry.Names(); !cmp.Equal(got, []string{"posts_create", "posts_show", "posts_update"}) {
		t.Fatalf("unexpected operations %v", got)
	}
	if _, ok := setup.Form.Find("title"); !ok {
		t.Fatalf("expected title field in form %+v", setup.Form)
	}
	if body, _ := setup.Form.Find("body"); body.Metadata[widgets.MetadataKey] != "textarea" {
		t.Fatalf("expected textarea widget on body, got %+v", body.Metadata)
	}
	featured, _ := setup.Form.Find("featured")
	if featured.Metadata[visibility.MetadataKey] != `values.status == "published"` || setup.Visibility == nil {
		t.Fatalf("expected visibility rule on featured, got %+v", featured.Metadata)
	}

	var responses []any
	setup.Config.OnResponse = func(res controller.StagedResponse) { responses = append(responses, res.Data) }

	renderer := headless.New(headless.WithForm(setup.Form))
	ctrl, err := controller.New(setup.Config, renderer, setup.Options...)
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	if err := ctrl.Mount(ctx); err != nil {
		t.Fatalf("mount: %v", err)
	}

	renderer.Set("title", "  <b>Hello</b> ")
	renderer.Set("secret", "s3cret")
	if err := ctrl.Submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}

	want := []map[string]any{{"title": "Hello", "status": "draft", "featured": false}}
	if diff := cmp.Diff(want, received); diff != "" {
		t.Fatalf("request body mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{map[string]any{"id": float64(1)}}, responses); diff != "" {
		t.Fatalf("responses mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"admin/posts/refetch"}, broker.topics); diff != "" {
		t.Fatalf("broker topics mismatch (-want +got):\n%s", diff)
	}
	if got, err := testutil.GatherAndCount(reg, "resourceform_actions_total"); err != nil || got != 2 {
		t.Fatalf("expected init and submit series, got %d (%v)", got, err)
	}

	setup.Close()
	if !broker.disconnected {
		t.Fatalf("expected broker disconnect on Close")
	}
}

func TestBuildSubmitGuardRejects(t *testing.T) {
	ctx := testsupport.Context(t)
	spec := filepath.Join(t.TempDir(), "posts.json")
	if err := os.WriteFile(spec, testsupport.PostsJSON(), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	f := &File{
		Name:    "posts",
		OpenAPI: OpenAPI{Source: spec, BaseURL: "http://127.0.0.1:1"},
		Guards: Guards{SubmitSchema: `{
			"type": "object",
			"properties": {"title": {"type": "string", "minLength": 3}}
		}`},
	}
	setup, err := f.Build(ctx)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer setup.Close()

	renderer := headless.New(headless.WithForm(setup.Form))
	ctrl, err := controller.New(setup.Config, renderer, setup.Options...)
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	if err := ctrl.Mount(ctx); err != nil {
		t.Fatalf("mount: %v", err)
	}
	renderer.Set("title", "Hi")
	if err := ctrl.Submit(ctx); !errors.Is(err, guard.ErrRejected) {
		t.Fatalf("expected guard rejection, got %v", err)
	}
}

func TestBuildRejectsUnknownVisibilityField(t *testing.T) {
	spec := filepath.Join(t.TempDir(), "posts.json")
	if err := os.WriteFile(spec, testsupport.PostsJSON(), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	f := &File{
		Name:       "posts",
		OpenAPI:    OpenAPI{Source: spec, BaseURL: "http://x"},
		Visibility: map[string]string{"subtitle": "true"},
	}
	if _, err := f.Build(context.Background()); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestBuildRequiresFormOperation(t *testing.T) {
	spec := filepath.Join(t.TempDir(), "posts.json")
	if err := os.WriteFile(spec, testsupport.PostsJSON(), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	f := &File{Name: "comments", OpenAPI: OpenAPI{Source: spec, BaseURL: "http://x"}}
	if _, err := f.Build(context.Background()); !errors.Is(err, ErrNoFormOperation) {
		t.Fatalf("expected ErrNoFormOperation, got %v", err)
	}
}
