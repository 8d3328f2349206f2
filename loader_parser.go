package resourceform

import (
	internalLoader "github.com/goliatone/go-resourceform/internal/openapi/loader"
	internalParser "github.com/goliatone/go-resourceform/internal/openapi/parser"
	pkgopenapi "github.com/goliatone/go-resourceform/pkg/openapi"
)

// NewLoader constructs a document loader while keeping the concrete type
// hidden from consumers.
func NewLoader(options ...pkgopenapi.LoaderOption) pkgopenapi.Loader {
	return internalLoader.New(pkgopenapi.NewLoaderOptions(options...))
}

// NewParser constructs an operation parser backed by kin-openapi.
func NewParser(options ...pkgopenapi.ParserOption) pkgopenapi.Parser {
	return internalParser.New(pkgopenapi.NewParserOptions(options...))
}
