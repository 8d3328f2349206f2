package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-resourceform/pkg/api"
	pkgopenapi "github.com/goliatone/go-resourceform/pkg/openapi"
	"github.com/goliatone/go-resourceform/pkg/testsupport"
)

type captured struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
	Token  string
	CType  string
}

type server struct {
	mu       sync.Mutex
	requests []captured
	status   int
	response string
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	req := captured{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Token:  r.Header.Get("Authorization"),
		CType:  r.Header.Get("Content-Type"),
	}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &req.Body)
	}
	s.mu.Lock()
	s.requests = append(s.requests, req)
	status, response := s.status, s.response
	s.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, response)
}

func newRegistry(t *testing.T, s *server) api.Map {
	t.Helper()
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)

	client, err := New(srv.URL+"/v1/", WithHTTPClient(srv.Client()), WithHeader("Authorization", "Bearer t"), WithTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	registry, err := client.Load(context.Background(), testsupport.PostsDocument(t))
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	return registry
}

func TestRegistryNames(t *testing.T) {
	registry := newRegistry(t, &server{})
	want := []string{"posts_create", "posts_show", "posts_update"}
	if diff := cmp.Diff(want, registry.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestShowUsesPathAndQuery(t *testing.T) {
	s := &server{response: `{"id":3,"title":"a"}`}
	registry := newRegistry(t, s)

	got, err := api.Invoke(context.Background(), registry, "posts", api.StageShow, map[string]any{"id": 3, "lang": "en"})
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"id": float64(3), "title": "a"}, got); diff != "" {
		t.Fatalf("response mismatch (-want +got):\n%s", diff)
	}
	want := []captured{{Method: "GET", Path: "/v1/posts/3", Query: "lang=en", Token: "Bearer t"}}
	if diff := cmp.Diff(want, s.requests); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateSendsJSONBody(t *testing.T) {
	s := &server{}
	registry := newRegistry(t, s)

	got, err := api.Invoke(context.Background(), registry, "posts", api.StageUpdate, map[string]any{"id": 3, "title": "b"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil result for empty body, got %v", got)
	}
	want := []captured{{
		Method: "PUT",
		Path:   "/v1/posts/3",
		Body:   map[string]any{"id": float64(3), "title": "b"},
		Token:  "Bearer t",
		CType:  "application/json",
	}}
	if diff := cmp.Diff(want, s.requests); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestStatusError(t *testing.T) {
	s := &server{status: http.StatusUnprocessableEntity, response: `{"error":"title taken"}`}
	registry := newRegistry(t, s)

	_, err := api.Invoke(context.Background(), registry, "posts", api.StageCreate, map[string]any{"title": "x"})
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("expected ErrStatus, got %v", err)
	}
	var status *StatusError
	if !errors.As(err, &status) || status.StatusCode != http.StatusUnprocessableEntity || status.Operation != "posts_create" {
		t.Fatalf("unexpected status error %#v", err)
	}
}

func TestMissingPathParam(t *testing.T) {
	s := &server{}
	registry := newRegistry(t, s)

	_, err := api.Invoke(context.Background(), registry, "posts", api.StageShow, map[string]any{})
	if !errors.Is(err, ErrMissingPathParam) {
		t.Fatalf("expected ErrMissingPathParam, got %v", err)
	}
	if len(s.requests) != 0 {
		t.Fatalf("no request expected, got %d", len(s.requests))
	}
}

func TestPathParamsEscapedOnce(t *testing.T) {
	var gotPath, gotEscaped string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotEscaped = r.URL.Path, r.URL.EscapedPath()
		_, _ = io.WriteString(w, `{}`)
	}))
	t.Cleanup(srv.Close)

	client, err := New(srv.URL+"/v1", WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	call := client.Call(pkgopenapi.Operation{ID: "posts_show", Method: http.MethodGet, Path: "/posts/{id}"})

	tests := []struct {
		id          string
		wantPath    string
		wantEscaped string
	}{
		{id: "7", wantPath: "/v1/posts/7", wantEscaped: "/v1/posts/7"},
		{id: "a b/c", wantPath: "/v1/posts/a b/c", wantEscaped: "/v1/posts/a%20b%2Fc"},
		{id: "50%", wantPath: "/v1/posts/50%", wantEscaped: "/v1/posts/50%25"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if _, err := call(context.Background(), map[string]any{"id": tt.id}); err != nil {
				t.Fatalf("call: %v", err)
			}
			if gotPath != tt.wantPath {
				t.Fatalf("path = %q, want %q", gotPath, tt.wantPath)
			}
			if gotEscaped != tt.wantEscaped {
				t.Fatalf("escaped path = %q, want %q", gotEscaped, tt.wantEscaped)
			}
		})
	}
}

func TestNewRejectsRelativeBase(t *testing.T) {
	if _, err := New("/api"); !errors.Is(err, ErrBaseURL) {
		t.Fatalf("expected ErrBaseURL, got %v", err)
	}
}

func TestEncodeQuery(t *testing.T) {
	got := encodeQuery(map[string]any{
		"tags":   []any{"a", "b"},
		"page":   2,
		"filter": map[string]any{"x": 1},
		"skip":   nil,
	})
	want := "filter=%7B%22x%22%3A1%7D&page=2&tags=a&tags=b"
	if got != want {
		t.Fatalf("encodeQuery = %q, want %q", got, want)
	}
}
