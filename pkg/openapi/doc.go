// Package openapi holds the public contracts for reading OpenAPI documents:
// where a document comes from (Source), the raw payload (Document), and the
// operations extracted from it (Operation, Schema). The kin-openapi backed
// loader and parser live under internal/openapi and are constructed through
// NewLoader and NewParser.
//
// Resource forms only care about operations whose id follows the
// "<resource>_<stage>" convention; ResourceOperations and SplitOperationID
// select them.
package openapi
