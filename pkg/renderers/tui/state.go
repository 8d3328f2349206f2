package tui

import (
	"strings"

	"github.com/goliatone/go-resourceform/pkg/dirty"
	"github.com/goliatone/go-resourceform/pkg/validation"
)

// State holds collected values and the issues of the last failed submission,
// keyed by dotted paths.
type State struct {
	values map[string]any
	issues map[string]string
}

// NewState seeds the state with prefilled values.
func NewState(prefill map[string]any) *State {
	return &State{
		values: dirty.Clone(prefill),
		issues: map[string]string{},
	}
}

// Values returns a copy of the collected values.
func (s *State) Values() map[string]any {
	return dirty.Clone(s.values)
}

// Replace swaps all values and clears issues.
func (s *State) Replace(values map[string]any) {
	s.values = dirty.Clone(values)
	s.issues = map[string]string{}
}

// Merge overlays values onto the collected ones.
func (s *State) Merge(values map[string]any) {
	for key, value := range dirty.Clone(values) {
		s.values[key] = value
	}
}

// Get resolves a dotted path through nested records.
func (s *State) Get(path string) (any, bool) {
	var current any = s.values
	for _, segment := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = node[segment]; !ok {
			return nil, false
		}
	}
	return current, true
}

// Set writes a top-level field. A nil value removes it.
func (s *State) Set(key string, value any) {
	if value == nil {
		delete(s.values, key)
	} else {
		s.values[key] = value
	}
	delete(s.issues, key)
}

// SetIssues records validation issues by field path.
func (s *State) SetIssues(issues []validation.Issue) {
	s.issues = make(map[string]string, len(issues))
	for _, issue := range issues {
		s.issues[issue.Field] = issue.Message
	}
}

// Issue returns the recorded issue for path.
func (s *State) Issue(path string) string {
	return s.issues[path]
}
