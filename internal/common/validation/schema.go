package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// RootField names the document itself in error paths.
const RootField = "(root)"

// Error codes attached to ValidationError.
const (
	CodeRequiredFieldMissing = "REQUIRED_FIELD_MISSING"
	CodeExtraField           = "EXTRA_FIELD"
	CodeInvalidType          = "INVALID_TYPE"
	CodeMinItems             = "MIN_ITEMS_VIOLATION"
	CodeMaxItems             = "MAX_ITEMS_VIOLATION"
	CodeItemCount            = "ITEM_COUNT_MISMATCH"
	CodeMinimum              = "MINIMUM_VIOLATION"
	CodeMaximum              = "MAXIMUM_VIOLATION"
	CodeMinLength            = "MIN_LENGTH_VIOLATION"
	CodeMaxLength            = "MAX_LENGTH_VIOLATION"
	CodePattern              = "PATTERN_MISMATCH"
	CodeEnum                 = "INVALID_ENUM_VALUE"
)

// JSONSchema defines the structure of an object document.
type JSONSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties bool                `json:"additionalProperties,omitempty"`
}

// Property constrains a single value. Items applies to every array element,
// Properties/Required to nested objects and Values to every value of an open
// object whose keys are not known in advance.
type Property struct {
	Type        string              `json:"type"`
	Description string              `json:"description,omitempty"`
	Minimum     *float64            `json:"minimum,omitempty"`
	Maximum     *float64            `json:"maximum,omitempty"`
	Enum        []string            `json:"enum,omitempty"`
	Pattern     *string             `json:"pattern,omitempty"`
	MinLength   *int                `json:"minLength,omitempty"`
	MaxLength   *int                `json:"maxLength,omitempty"`
	MinItems    *int                `json:"minItems,omitempty"`
	MaxItems    *int                `json:"maxItems,omitempty"`
	Items       *Property           `json:"items,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
	Required    []string            `json:"required,omitempty"`
	Values      *Property           `json:"values,omitempty"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// String renders the error as "path: message".
func (e ValidationError) String() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Int and Float build constraint pointers for schema literals.
func Int(v int) *int { return &v }

func Float(v float64) *float64 { return &v }

// ValidateDocument validates any decoded JSON value against an object schema.
// A non-object document yields a single error at RootField.
func ValidateDocument(doc interface{}, schema JSONSchema) *ValidationResult {
	input, ok := doc.(map[string]interface{})
	if !ok {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   RootField,
				Message: fmt.Sprintf("expected object, got %s", TypeName(doc)),
				Code:    CodeInvalidType,
			}},
		}
	}
	return ValidateInput(input, schema)
}

// ValidateInput validates input against the schema and collects every error.
// Errors are ordered by field name so repeated runs report identically.
func ValidateInput(input map[string]interface{}, schema JSONSchema) *ValidationResult {
	errors := validateObject("", input, schema.Properties, schema.Required, schema.AdditionalProperties, nil)
	return &ValidationResult{
		Valid:  len(errors) == 0,
		Errors: errors,
	}
}

func validateObject(prefix string, input map[string]interface{}, props map[string]Property, required []string, additional bool, values *Property) []ValidationError {
	errors := []ValidationError{}

	requiredSet := make(map[string]bool, len(required))
	for _, name := range required {
		requiredSet[name] = true
	}

	for _, name := range sortedKeys(props) {
		value, exists := input[name]
		if !exists {
			if requiredSet[name] {
				errors = append(errors, ValidationError{
					Field:   joinField(prefix, name),
					Message: "required field missing",
					Code:    CodeRequiredFieldMissing,
				})
			}
			continue
		}
		errors = append(errors, validateField(joinField(prefix, name), value, props[name])...)
	}

	// Required names without a property definition only need to be present.
	for _, name := range required {
		if _, defined := props[name]; defined {
			continue
		}
		if _, exists := input[name]; !exists {
			errors = append(errors, ValidationError{
				Field:   joinField(prefix, name),
				Message: "required field missing",
				Code:    CodeRequiredFieldMissing,
			})
		}
	}

	for _, name := range sortedKeys(input) {
		if _, defined := props[name]; defined {
			continue
		}
		switch {
		case values != nil:
			errors = append(errors, validateField(joinField(prefix, name), input[name], *values)...)
		case !additional:
			errors = append(errors, ValidationError{
				Field:   joinField(prefix, name),
				Message: "field not allowed in schema",
				Code:    CodeExtraField,
			})
		}
	}

	return errors
}

func validateField(fieldName string, value interface{}, prop Property) []ValidationError {
	errors := []ValidationError{}

	if typeErr := validateType(value, prop.Type); typeErr != nil {
		return append(errors, ValidationError{
			Field:   fieldName,
			Message: typeErr.Error(),
			Code:    CodeInvalidType,
		})
	}

	if strVal, ok := value.(string); ok {
		errors = append(errors, validateString(fieldName, strVal, prop)...)
	}

	if numVal, ok := toFloat(value); ok {
		if prop.Minimum != nil && numVal < *prop.Minimum {
			errors = append(errors, ValidationError{
				Field:   fieldName,
				Message: fmt.Sprintf("must be >= %s, got %s", formatNumber(*prop.Minimum), formatNumber(numVal)),
				Code:    CodeMinimum,
			})
		}
		if prop.Maximum != nil && numVal > *prop.Maximum {
			errors = append(errors, ValidationError{
				Field:   fieldName,
				Message: fmt.Sprintf("must be <= %s, got %s", formatNumber(*prop.Maximum), formatNumber(numVal)),
				Code:    CodeMaximum,
			})
		}
	}

	if arrVal, ok := value.([]interface{}); ok {
		if countErr := validateCount(fieldName, len(arrVal), prop); countErr != nil {
			errors = append(errors, *countErr)
		}
		if prop.Items != nil {
			for i, item := range arrVal {
				errors = append(errors, validateField(fmt.Sprintf("%s[%d]", fieldName, i), item, *prop.Items)...)
			}
		}
	}

	if objVal, ok := value.(map[string]interface{}); ok && (prop.Properties != nil || prop.Values != nil || len(prop.Required) > 0) {
		// Nested objects allow additional properties unless a Values schema constrains them.
		errors = append(errors, validateObject(fieldName, objVal, prop.Properties, prop.Required, true, prop.Values)...)
	}

	return errors
}

func validateString(fieldName, strVal string, prop Property) []ValidationError {
	errors := []ValidationError{}
	length := len([]rune(strVal))

	if prop.MinLength != nil && length < *prop.MinLength {
		errors = append(errors, ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("value must be at least %d characters", *prop.MinLength),
			Code:    CodeMinLength,
		})
	}
	if prop.MaxLength != nil && length > *prop.MaxLength {
		errors = append(errors, ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("value must be at most %d characters", *prop.MaxLength),
			Code:    CodeMaxLength,
		})
	}

	if prop.Pattern != nil {
		matched, err := regexp.MatchString(*prop.Pattern, strVal)
		if err != nil || !matched {
			errors = append(errors, ValidationError{
				Field:   fieldName,
				Message: fmt.Sprintf("value must match pattern %s", *prop.Pattern),
				Code:    CodePattern,
			})
		}
	}

	if len(prop.Enum) > 0 {
		found := false
		for _, enumVal := range prop.Enum {
			if strVal == enumVal {
				found = true
				break
			}
		}
		if !found {
			errors = append(errors, ValidationError{
				Field:   fieldName,
				Message: fmt.Sprintf("value must be one of %v", prop.Enum),
				Code:    CodeEnum,
			})
		}
	}

	return errors
}

func validateCount(fieldName string, got int, prop Property) *ValidationError {
	minItems, maxItems := prop.MinItems, prop.MaxItems
	switch {
	case minItems != nil && maxItems != nil && *minItems == *maxItems && got != *minItems:
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("expected %d items, got %d", *minItems, got),
			Code:    CodeItemCount,
		}
	case minItems != nil && got < *minItems:
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("expected at least %d items, got %d", *minItems, got),
			Code:    CodeMinItems,
		}
	case maxItems != nil && got > *maxItems:
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("expected at most %d items, got %d", *maxItems, got),
			Code:    CodeMaxItems,
		}
	}
	return nil
}

func validateType(value interface{}, expectedType string) error {
	switch expectedType {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected string, got %s", TypeName(value))
		}
	case "number":
		if _, ok := toFloat(value); !ok {
			if _, isNum := value.(json.Number); isNum {
				return fmt.Errorf("number out of range")
			}
			return fmt.Errorf("expected number, got %s", TypeName(value))
		}
	case "integer":
		if !isInteger(value) {
			if outOfIntRange(value) {
				return fmt.Errorf("integer out of range")
			}
			return fmt.Errorf("expected integer, got %s", TypeName(value))
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %s", TypeName(value))
		}
	case "object":
		if _, ok := value.(map[string]interface{}); !ok {
			return fmt.Errorf("expected object, got %s", TypeName(value))
		}
	case "array":
		if _, ok := value.([]interface{}); !ok {
			return fmt.Errorf("expected array, got %s", TypeName(value))
		}
	case "null":
		if value != nil {
			return fmt.Errorf("expected null, got %s", TypeName(value))
		}
	}
	return nil
}

// TypeName reports the JSON type of a decoded value.
func TypeName(value interface{}) string {
	switch value.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	case json.Number:
		return "number"
	}
	if _, ok := toFloat(value); ok {
		return "number"
	}
	return fmt.Sprintf("%T", value)
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// isInteger accepts numbers without a fractional part that fit in an int64,
// so 3 and 3.0 both pass.
func isInteger(value interface{}) bool {
	switch v := value.(type) {
	case int, int32, int64:
		return true
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return true
		}
	}
	f, ok := toFloat(value)
	return ok && isWhole(f) && f >= -(1<<63) && f < 1<<63
}

// outOfIntRange reports whole numbers that isInteger rejects for size only.
func outOfIntRange(value interface{}) bool {
	if isInteger(value) {
		return false
	}
	f, ok := toFloat(value)
	if !ok {
		_, isNum := value.(json.Number)
		return isNum
	}
	return isWhole(f)
}

func isWhole(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func joinField(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetSchemaFromJSON parses a schema description from a JSON string
func GetSchemaFromJSON(schemaJSON string) (JSONSchema, error) {
	var schema JSONSchema
	err := json.Unmarshal([]byte(schemaJSON), &schema)
	return schema, err
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = err.String()
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// GetErrorsForField returns errors for a field and everything nested below it
func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var fieldErrors []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") || strings.HasPrefix(err.Field, field+"[") {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}
