// Package locale holds the user-visible strings of a resource form: success
// notices, the "no changes" notice, titles and button labels. Built-in tables
// cover zh-CN (the default) and en-US; hosts can plug in their own Translator.
package locale

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// Message keys.
const (
	KeyCreate        = "create"
	KeyUpdate        = "update"
	KeyCreateTitle   = "create_title"
	KeyUpdateTitle   = "update_title"
	KeyCreateSuccess = "create_success"
	KeyUpdateSuccess = "update_success"
	KeySubmit        = "submit"
	KeyBack          = "back"
	KeyNoChange      = "no_change"
)

// DefaultLang is used when no language is configured.
const DefaultLang = "zh-CN"

// ErrMissingMessage is returned when a key has no translation.
var ErrMissingMessage = errors.New("locale: missing message")

// Translator resolves a message key for a language tag.
type Translator interface {
	Translate(lang, key string) (string, error)
}

// TranslatorFunc adapts a function into a Translator.
type TranslatorFunc func(lang, key string) (string, error)

// Translate implements Translator.
func (fn TranslatorFunc) Translate(lang, key string) (string, error) {
	return fn(lang, key)
}

var builtin = map[string]map[string]string{
	"zh-CN": {
		KeyCreate:        "创建",
		KeyUpdate:        "保存",
		KeyCreateTitle:   "创建",
		KeyUpdateTitle:   "更新",
		KeyCreateSuccess: "创建成功",
		KeyUpdateSuccess: "更新成功",
		KeySubmit:        "提交",
		KeyBack:          "返回",
		KeyNoChange:      "没有修改",
	},
	"en-US": {
		KeyCreate:        "Create",
		KeyUpdate:        "Save",
		KeyCreateTitle:   "Create",
		KeyUpdateTitle:   "Update",
		KeyCreateSuccess: "Create success",
		KeyUpdateSuccess: "Update success",
		KeySubmit:        "Submit",
		KeyBack:          "Back",
		KeyNoChange:      "No change",
	},
}

// Catalog is a Translator over in-memory tables. Requested languages are
// matched against the available tags, so "en" or "en-GB" resolve to en-US.
type Catalog struct {
	tags    []string
	tables  map[string]map[string]string
	matcher language.Matcher
}

// NewCatalog builds a catalog. The first tag is the fallback. Passing no
// tables returns the built-in zh-CN/en-US catalog.
func NewCatalog(tables map[string]map[string]string, fallback string) *Catalog {
	if len(tables) == 0 {
		tables = builtin
		fallback = DefaultLang
	}
	if _, ok := tables[fallback]; !ok {
		fallback = ""
	}

	tags := make([]string, 0, len(tables))
	if fallback != "" {
		tags = append(tags, fallback)
	}
	for tag := range tables {
		if tag != fallback {
			tags = append(tags, tag)
		}
	}
	if fallback != "" {
		sort.Strings(tags[1:])
	} else {
		sort.Strings(tags)
	}

	parsed := make([]language.Tag, 0, len(tags))
	for _, tag := range tags {
		parsed = append(parsed, language.Make(tag))
	}

	return &Catalog{
		tags:    tags,
		tables:  tables,
		matcher: language.NewMatcher(parsed),
	}
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return NewCatalog(nil, DefaultLang)
}

// Resolve returns the table tag used for lang.
func (c *Catalog) Resolve(lang string) string {
	if len(c.tags) == 0 {
		return ""
	}
	if _, ok := c.tables[lang]; ok {
		return lang
	}
	if strings.TrimSpace(lang) == "" {
		return c.tags[0]
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return c.tags[0]
	}
	_, index, confidence := c.matcher.Match(tag)
	if confidence == language.No || index < 0 || index >= len(c.tags) {
		return c.tags[0]
	}
	return c.tags[index]
}

// Translate implements Translator.
func (c *Catalog) Translate(lang, key string) (string, error) {
	tag := c.Resolve(lang)
	if msg, ok := c.tables[tag][key]; ok && msg != "" {
		return msg, nil
	}
	return "", fmt.Errorf("%w: %s/%s", ErrMissingMessage, tag, key)
}

// Text translates key with t and falls back to the key itself.
func Text(t Translator, lang, key string) string {
	if t == nil {
		t = Default()
	}
	msg, err := t.Translate(lang, key)
	if err != nil || strings.TrimSpace(msg) == "" {
		return key
	}
	return msg
}

// Labels are the presentational strings for one form mode.
type Labels struct {
	Title  string
	OK     string
	Back   string
	Submit string
}

// LabelsFor returns the labels for create or edit mode.
func LabelsFor(t Translator, lang string, isEdit bool) Labels {
	labels := Labels{
		Back:   Text(t, lang, KeyBack),
		Submit: Text(t, lang, KeySubmit),
	}
	if isEdit {
		labels.Title = Text(t, lang, KeyUpdateTitle)
		labels.OK = Text(t, lang, KeyUpdate)
	} else {
		labels.Title = Text(t, lang, KeyCreateTitle)
		labels.OK = Text(t, lang, KeyCreate)
	}
	return labels
}
