package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const draft07 = "http://json-schema.org/draft-07/schema#"

// Document exports the schema as a draft-07 JSON Schema document, suitable for
// publishing to producers (prompts, structured-output settings) or for
// checking with a standard JSON Schema engine.
func (s JSONSchema) Document() map[string]interface{} {
	doc := objectDocument(s.Properties, s.Required, s.AdditionalProperties, nil)
	doc["$schema"] = draft07
	return doc
}

func objectDocument(props map[string]Property, required []string, additional bool, values *Property) map[string]interface{} {
	doc := map[string]interface{}{"type": "object"}

	if len(props) > 0 {
		properties := make(map[string]interface{}, len(props))
		for name, prop := range props {
			properties[name] = prop.Document()
		}
		doc["properties"] = properties
	}
	if len(required) > 0 {
		req := make([]interface{}, len(required))
		for i, name := range required {
			req[i] = name
		}
		doc["required"] = req
	}

	switch {
	case values != nil:
		doc["additionalProperties"] = values.Document()
	default:
		doc["additionalProperties"] = additional
	}
	return doc
}

// Document exports a single property as a JSON Schema fragment.
func (p Property) Document() map[string]interface{} {
	if p.Type == "object" {
		doc := objectDocument(p.Properties, p.Required, true, p.Values)
		if p.Description != "" {
			doc["description"] = p.Description
		}
		return doc
	}

	doc := map[string]interface{}{}
	if p.Type != "" {
		doc["type"] = p.Type
	}
	if p.Description != "" {
		doc["description"] = p.Description
	}
	if p.Minimum != nil {
		doc["minimum"] = *p.Minimum
	}
	if p.Maximum != nil {
		doc["maximum"] = *p.Maximum
	}
	if len(p.Enum) > 0 {
		enum := make([]interface{}, len(p.Enum))
		for i, v := range p.Enum {
			enum[i] = v
		}
		doc["enum"] = enum
	}
	if p.Pattern != nil {
		doc["pattern"] = *p.Pattern
	}
	if p.MinLength != nil {
		doc["minLength"] = *p.MinLength
	}
	if p.MaxLength != nil {
		doc["maxLength"] = *p.MaxLength
	}
	if p.MinItems != nil {
		doc["minItems"] = *p.MinItems
	}
	if p.MaxItems != nil {
		doc["maxItems"] = *p.MaxItems
	}
	if p.Items != nil {
		doc["items"] = p.Items.Document()
	}
	return doc
}

// CompiledSchema wraps a gojsonschema schema compiled once and reused.
type CompiledSchema struct {
	schema *gojsonschema.Schema
}

// Compile prepares a JSON Schema document for repeated validation.
func Compile(schemaDoc map[string]interface{}) (*CompiledSchema, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaDoc))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &CompiledSchema{schema: schema}, nil
}

// MustCompile is Compile for schemas embedded in the binary.
func MustCompile(schemaDoc map[string]interface{}) *CompiledSchema {
	cs, err := Compile(schemaDoc)
	if err != nil {
		panic(err)
	}
	return cs
}

// Validate checks a Go value against the compiled schema and maps the
// engine's findings onto ValidationError.
func (c *CompiledSchema) Validate(data interface{}) (*ValidationResult, error) {
	result, err := c.schema.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	return fromResult(result), nil
}

// ValidateWithJSONSchema is the one-shot form of Compile + Validate.
func ValidateWithJSONSchema(schemaDoc map[string]interface{}, data interface{}) (*ValidationResult, error) {
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schemaDoc), gojsonschema.NewGoLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	return fromResult(result), nil
}

func fromResult(result *gojsonschema.Result) *ValidationResult {
	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out
}
