package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_ExportsConstraints(t *testing.T) {
	doc := createTestSchema().Document()

	assert.Equal(t, draft07, doc["$schema"])
	assert.Equal(t, "object", doc["type"])
	assert.Equal(t, true, doc["additionalProperties"])

	props := doc["properties"].(map[string]interface{})
	tags := props["tags"].(map[string]interface{})
	assert.Equal(t, 2, tags["minItems"])
	assert.Equal(t, 2, tags["maxItems"])
	assert.Equal(t, map[string]interface{}{"type": "string"}, tags["items"])

	labels := props["labels"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"type": "string"}, labels["additionalProperties"])
}

// The exported document must agree with the structural validator on which
// documents pass.
func TestDocument_AgreesWithStructuralValidator(t *testing.T) {
	schema := createTestSchema()
	compiled, err := Compile(schema.Document())
	require.NoError(t, err)

	docs := map[string]string{
		"valid":          `{"name":"a","tags":["x","y"],"score":0,"meta":{"owner":"o"}}`,
		"missing name":   `{"tags":["x","y"],"score":0,"meta":{"owner":"o"}}`,
		"too many tags":  `{"name":"a","tags":["x","y","z"],"score":0,"meta":{"owner":"o"}}`,
		"score too high": `{"name":"a","tags":["x","y"],"score":101,"meta":{"owner":"o"}}`,
		"fractional":     `{"name":"a","tags":["x","y"],"score":1.5,"meta":{"owner":"o"}}`,
		"bad label":      `{"name":"a","tags":["x","y"],"score":1,"meta":{"owner":"o"},"labels":{"k":false}}`,
		"not an object":  `[1,2]`,
	}

	for name, raw := range docs {
		t.Run(name, func(t *testing.T) {
			doc := decode(t, raw)
			structural := ValidateDocument(doc, schema)
			engine, err := compiled.Validate(doc)
			require.NoError(t, err)
			assert.Equal(t, structural.Valid, engine.Valid, "structural=%v engine=%v", structural.GetErrorMessages(), engine.GetErrorMessages())
		})
	}
}

func TestValidateWithJSONSchema_MapsEngineErrors(t *testing.T) {
	schemaDoc := map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"role"},
		"properties": map[string]interface{}{
			"role": map[string]interface{}{"type": "string", "minLength": 1},
		},
	}

	result, err := ValidateWithJSONSchema(schemaDoc, map[string]interface{}{"role": ""})
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "role", result.Errors[0].Field)
	assert.Equal(t, "STRING_GTE", result.Errors[0].Code)

	result, err = ValidateWithJSONSchema(schemaDoc, map[string]interface{}{})
	require.NoError(t, err)
	require.False(t, result.Valid)
	assert.Equal(t, "REQUIRED", result.Errors[0].Code)
	assert.Contains(t, result.Errors[0].Message, "role")
}

func TestCompile_RejectsBrokenSchema(t *testing.T) {
	_, err := Compile(map[string]interface{}{"type": 12})
	assert.Error(t, err)
	assert.Panics(t, func() { MustCompile(map[string]interface{}{"type": 12}) })
}
