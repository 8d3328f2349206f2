// Package testsupport bundles fixtures shared by package tests.
package testsupport

import (
	"context"
	_ "embed"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgopenapi "github.com/goliatone/go-resourceform/pkg/openapi"
)

//go:embed testdata/posts.json
var postsJSON []byte

// PostsLocation is the synthetic location of the posts fixture.
const PostsLocation = "testdata/posts.json"

// PostsJSON returns a copy of the posts OpenAPI fixture.
func PostsJSON() []byte {
	return append([]byte(nil), postsJSON...)
}

// PostsDocument wraps the posts fixture in a Document.
func PostsDocument(t testing.TB) pkgopenapi.Document {
	t.Helper()

	doc, err := pkgopenapi.NewDocument(pkgopenapi.SourceFromFile(PostsLocation), postsJSON)
	if err != nil {
		t.Fatalf("posts document: %v", err)
	}
	return doc
}

// ServeDocument serves raw at every path until the test ends.
func ServeDocument(t testing.TB, raw []byte) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(raw)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// Context returns a context cancelled when the test ends.
func Context(t testing.TB) context.Context {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
