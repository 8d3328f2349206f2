package model

import (
	"errors"
	"fmt"
	"strconv"

	pkgopenapi "github.com/goliatone/go-resourceform/pkg/openapi"
)

var (
	errOperationIDMissing     = errors.New("model builder: operation id is required")
	errOperationPathMissing   = errors.New("model builder: operation path is required")
	errOperationMethodMissing = errors.New("model builder: operation method is required")
)

func validateOperation(op pkgopenapi.Operation) error {
	switch {
	case op.ID == "":
		return errOperationIDMissing
	case op.Path == "":
		return errOperationPathMissing
	case op.Method == "":
		return errOperationMethodMissing
	}
	if err := validateSchema(op.RequestBody); err != nil {
		return fmt.Errorf("model builder: invalid request body: %w", err)
	}
	return nil
}

func validateSchema(schema pkgopenapi.Schema) error {
	if schema.Type == "array" && schema.Items == nil {
		return errors.New("array schema requires items")
	}
	for _, nested := range schema.Properties {
		if err := validateSchema(nested); err != nil {
			return err
		}
	}
	if schema.Items != nil {
		return validateSchema(*schema.Items)
	}
	return nil
}

func applyValidations(field *Field, schema pkgopenapi.Schema) {
	bound := func(kind string, value *float64, exclusive bool) {
		if value == nil {
			return
		}
		params := map[string]string{"value": strconv.FormatFloat(*value, 'f', -1, 64)}
		if exclusive {
			params["exclusive"] = "true"
		}
		field.Validations = append(field.Validations, ValidationRule{Kind: kind, Params: params})
	}
	length := func(kind string, value *int) {
		if value == nil {
			return
		}
		field.Validations = append(field.Validations, ValidationRule{
			Kind:   kind,
			Params: map[string]string{"value": strconv.Itoa(*value)},
		})
	}

	bound(ValidationRuleMin, schema.Minimum, schema.ExclusiveMinimum)
	bound(ValidationRuleMax, schema.Maximum, schema.ExclusiveMaximum)
	length(ValidationRuleMinLength, schema.MinLength)
	length(ValidationRuleMaxLength, schema.MaxLength)
	if schema.Pattern != "" {
		field.Validations = append(field.Validations, ValidationRule{
			Kind:   ValidationRulePattern,
			Params: map[string]string{"pattern": schema.Pattern},
		})
	}
}
