// Package httpapi serves an api.Registry over HTTP. Every "<resource>_show",
// "<resource>_create" and "<resource>_update" operation of an OpenAPI document
// becomes a call against a base URL: {param} path segments are filled from the
// payload, GET and DELETE send the remaining payload as a query string, and
// every other method sends it as a JSON body.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-resourceform/internal/openapi/parser"
	"github.com/goliatone/go-resourceform/pkg/api"
	"github.com/goliatone/go-resourceform/pkg/logging"
	pkgopenapi "github.com/goliatone/go-resourceform/pkg/openapi"
)

var (
	// ErrStatus matches every *StatusError.
	ErrStatus = errors.New("httpapi: unexpected status")
	// ErrMissingPathParam is returned when the payload lacks a path segment.
	ErrMissingPathParam = errors.New("httpapi: missing path parameter")
	// ErrBaseURL is returned for an empty or relative base URL.
	ErrBaseURL = errors.New("httpapi: absolute base URL required")
)

// StatusError reports a non-2xx response.
type StatusError struct {
	Operation  string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	msg := strings.TrimSpace(string(e.Body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if msg == "" {
		return fmt.Sprintf("httpapi: %s: status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("httpapi: %s: status %d: %s", e.Operation, e.StatusCode, msg)
}

// Is lets errors.Is(err, ErrStatus) succeed.
func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// Client issues operation requests against one base URL.
type Client struct {
	base    *url.URL
	http    *http.Client
	headers http.Header
	timeout time.Duration
	log     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Add(key, value)
	}
}

// WithTimeout bounds every request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithLogger sets the request logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		c.log = logging.OrNop(log)
	}
}

// New builds a Client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil || !base.IsAbs() {
		return nil, fmt.Errorf("%w: %q", ErrBaseURL, baseURL)
	}
	base.Path = strings.TrimSuffix(base.Path, "/")
	base.RawPath = strings.TrimSuffix(base.RawPath, "/")

	c := &Client{
		base:    base,
		http:    http.DefaultClient,
		headers: http.Header{},
		log:     logging.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Registry registers a call for every resource stage operation in ops.
func (c *Client) Registry(ops map[string]pkgopenapi.Operation) api.Map {
	registry := api.Map{}
	for resource, stages := range pkgopenapi.ResourceOperations(ops) {
		for stage, op := range stages {
			registry.Register(resource, stage, c.Call(op))
		}
	}
	return registry
}

// Load parses doc and returns its registry.
func (c *Client) Load(ctx context.Context, doc pkgopenapi.Document) (api.Map, error) {
	ops, err := parser.New(pkgopenapi.NewParserOptions()).Operations(ctx, doc)
	if err != nil {
		return nil, err
	}
	return c.Registry(ops), nil
}

// Call returns the api.Call executing op.
func (c *Client) Call(op pkgopenapi.Operation) api.Call {
	return func(ctx context.Context, payload map[string]any) (any, error) {
		return c.do(ctx, op, payload)
	}
}

func (c *Client) do(ctx context.Context, op pkgopenapi.Operation, payload map[string]any) (any, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	path, escaped, rest, err := expandPath(op.Path, payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op.ID, err)
	}
	target := *c.base
	target.Path = c.base.Path + path
	target.RawPath = c.base.EscapedPath() + escaped

	var body io.Reader
	switch op.Method {
	case http.MethodGet, http.MethodDelete:
		target.RawQuery = encodeQuery(rest)
	default:
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("httpapi: %s: encode body: %w", op.ID, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, op.Method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("httpapi: %s: %w", op.ID, err)
	}
	for key, values := range c.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpapi: %s: %w", op.ID, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpapi: %s: read body: %w", op.ID, err)
	}
	c.log.Debug("request finished",
		slog.String("operation", op.ID),
		slog.String("method", op.Method),
		slog.String("url", target.String()),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Operation: op.ID, StatusCode: resp.StatusCode, Body: raw}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("httpapi: %s: decode body: %w", op.ID, err)
	}
	return out, nil
}

// expandPath fills {name} segments from payload. It returns the decoded path,
// the escaped path and the keys left over for the query string.
func expandPath(template string, payload map[string]any) (string, string, map[string]any, error) {
	rest := make(map[string]any, len(payload))
	for key, value := range payload {
		rest[key] = value
	}

	var raw, escaped strings.Builder
	remaining := template
	for {
		start := strings.IndexByte(remaining, '{')
		if start < 0 {
			raw.WriteString(remaining)
			escaped.WriteString(remaining)
			break
		}
		end := strings.IndexByte(remaining[start:], '}')
		if end < 0 {
			raw.WriteString(remaining)
			escaped.WriteString(remaining)
			break
		}
		name := remaining[start+1 : start+end]
		value, ok := payload[name]
		if !ok || value == nil || fmt.Sprint(value) == "" {
			return "", "", nil, fmt.Errorf("%w: %s", ErrMissingPathParam, name)
		}
		segment := fmt.Sprint(value)
		raw.WriteString(remaining[:start])
		raw.WriteString(segment)
		escaped.WriteString(remaining[:start])
		escaped.WriteString(url.PathEscape(segment))
		delete(rest, name)
		remaining = remaining[start+end+1:]
	}
	return raw.String(), escaped.String(), rest, nil
}

func encodeQuery(values map[string]any) string {
	if len(values) == 0 {
		return ""
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	query := url.Values{}
	for _, key := range keys {
		switch typed := values[key].(type) {
		case nil:
		case []any:
			for _, item := range typed {
				query.Add(key, fmt.Sprint(item))
			}
		case []string:
			for _, item := range typed {
				query.Add(key, item)
			}
		case map[string]any:
			raw, err := json.Marshal(typed)
			if err == nil {
				query.Set(key, string(raw))
			}
		default:
			query.Set(key, fmt.Sprint(typed))
		}
	}
	return query.Encode()
}
