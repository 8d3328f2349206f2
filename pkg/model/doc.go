// Package model defines the declarative field schema a renderer draws: a Form
// with typed Fields, validation rules and defaults. Forms are usually derived
// from the request body of a resource's create or update operation.
package model
