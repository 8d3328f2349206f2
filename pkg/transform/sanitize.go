package transform

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-resourceform/pkg/controller"
)

// SanitizeOption configures SanitizeStrings.
type SanitizeOption func(*sanitizer)

type sanitizer struct {
	policy *bluemonday.Policy
	strict bool
	fields map[string]struct{}
	trim   bool
}

// WithUGCPolicy keeps safe user-generated markup instead of stripping all
// tags.
func WithUGCPolicy() SanitizeOption {
	return func(s *sanitizer) {
		s.policy = bluemonday.UGCPolicy()
		s.strict = false
	}
}

// WithPolicy installs a custom bluemonday policy.
func WithPolicy(policy *bluemonday.Policy) SanitizeOption {
	return func(s *sanitizer) {
		if policy != nil {
			s.policy = policy
			s.strict = false
		}
	}
}

// OnlyFields restricts sanitizing to the named top-level keys.
func OnlyFields(names ...string) SanitizeOption {
	return func(s *sanitizer) {
		s.fields = make(map[string]struct{}, len(names))
		for _, name := range names {
			s.fields[name] = struct{}{}
		}
	}
}

// TrimSpace also trims surrounding whitespace.
func TrimSpace() SanitizeOption {
	return func(s *sanitizer) {
		s.trim = true
	}
}

// SanitizeStrings strips markup from every string in the payload, nested
// records and lists included. The default strict policy removes all tags and
// leaves plain text.
func SanitizeStrings(opts ...SanitizeOption) RequestFunc {
	s := &sanitizer{policy: bluemonday.StrictPolicy(), strict: true}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return func(req controller.StagedRequest) map[string]any {
		if req.Payload == nil {
			return nil
		}
		out := make(map[string]any, len(req.Payload))
		for key, value := range req.Payload {
			if s.fields != nil {
				if _, ok := s.fields[key]; !ok {
					out[key] = value
					continue
				}
			}
			out[key] = s.value(value)
		}
		return out
	}
}

func (s *sanitizer) value(value any) any {
	switch typed := value.(type) {
	case string:
		return s.text(typed)
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = s.value(item)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = s.value(item)
		}
		return out
	case []string:
		out := make([]string, len(typed))
		for i, item := range typed {
			out[i] = s.text(item)
		}
		return out
	default:
		return value
	}
}

func (s *sanitizer) text(raw string) string {
	cleaned := s.policy.Sanitize(raw)
	if s.strict {
		// the strict policy escapes entities; plain text is wanted
		cleaned = html.UnescapeString(cleaned)
	}
	if s.trim {
		cleaned = strings.TrimSpace(cleaned)
	}
	return cleaned
}
