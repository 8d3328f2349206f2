package openapi

import (
	"fmt"
	"net/url"
	"path/filepath"
)

type fileSource string

func (s fileSource) Location() string { return string(s) }
func (s fileSource) Kind() SourceKind { return SourceKindFile }

type fsSource string

func (s fsSource) Location() string { return string(s) }
func (s fsSource) Kind() SourceKind { return SourceKindFS }

type urlSource string

func (s urlSource) Location() string { return string(s) }
func (s urlSource) Kind() SourceKind { return SourceKindURL }

// SourceFromFile points at a document on disk.
func SourceFromFile(path string) Source {
	return fileSource(filepath.Clean(path))
}

// SourceFromFS points at a document inside the loader's fs.FS.
func SourceFromFS(name string) Source {
	return fsSource(name)
}

// ParseURLSource validates raw as an absolute request URI.
func ParseURLSource(raw string) (Source, error) {
	if raw == "" {
		return nil, fmt.Errorf("openapi: empty URL source")
	}
	if _, err := url.ParseRequestURI(raw); err != nil {
		return nil, fmt.Errorf("openapi: invalid URL %q: %w", raw, err)
	}
	return urlSource(raw), nil
}

// SourceFromURL is ParseURLSource for literals; it panics on bad input.
func SourceFromURL(raw string) Source {
	src, err := ParseURLSource(raw)
	if err != nil {
		panic(err)
	}
	return src
}

// SourceFor picks a URL source for http(s) locations and a file source
// otherwise.
func SourceFor(location string) (Source, error) {
	if u, err := url.Parse(location); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return ParseURLSource(location)
	}
	if location == "" {
		return nil, fmt.Errorf("openapi: empty source location")
	}
	return SourceFromFile(location), nil
}
