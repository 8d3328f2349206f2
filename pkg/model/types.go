package model

import internalmodel "github.com/goliatone/go-resourceform/internal/model"

type (
	FieldType      = internalmodel.FieldType
	ValidationRule = internalmodel.ValidationRule
	Field          = internalmodel.Field
	Form           = internalmodel.Form
)

const (
	FieldTypeString  = internalmodel.FieldTypeString
	FieldTypeInteger = internalmodel.FieldTypeInteger
	FieldTypeNumber  = internalmodel.FieldTypeNumber
	FieldTypeBoolean = internalmodel.FieldTypeBoolean
	FieldTypeArray   = internalmodel.FieldTypeArray
	FieldTypeObject  = internalmodel.FieldTypeObject

	ValidationRuleMin       = internalmodel.ValidationRuleMin
	ValidationRuleMax       = internalmodel.ValidationRuleMax
	ValidationRuleMinLength = internalmodel.ValidationRuleMinLength
	ValidationRuleMaxLength = internalmodel.ValidationRuleMaxLength
	ValidationRulePattern   = internalmodel.ValidationRulePattern
)

// InitialValues collects field defaults into a record.
func InitialValues(fields []Field) map[string]any {
	return internalmodel.InitialValues(fields)
}
