package compiler

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"identity-compiler/internal/common/validation"
)

// ==========================
// Test Helper Functions
// ==========================

func loadFixture(t *testing.T) map[string]interface{} {
	t.Helper()
	raw, err := os.ReadFile("testdata/valid_response.json")
	require.NoError(t, err)

	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var doc map[string]interface{}
	require.NoError(t, dec.Decode(&doc))
	return doc
}

func createTestDocument(t *testing.T, mutate func(doc map[string]interface{})) string {
	t.Helper()
	doc := loadFixture(t)
	if mutate != nil {
		mutate(doc)
	}
	out, err := json.Marshal(doc)
	require.NoError(t, err)
	return string(out)
}

func outputs(doc map[string]interface{}) map[string]interface{} {
	return doc["outputs"].(map[string]interface{})
}

func section(doc map[string]interface{}, name string) map[string]interface{} {
	return outputs(doc)[name].(map[string]interface{})
}

func requireSchemaError(t *testing.T, err error) *SchemaError {
	t.Helper()
	require.Error(t, err)
	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr), "expected SchemaError, got %T: %v", err, err)
	return schemaErr
}

// ==========================
// Intake Normalizer
// ==========================

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `  {"a":1}  `, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", "{\"a\":1}\n"},
		{"upper tag", "```JSON\n{\"a\":1}\n```", "{\"a\":1}\n"},
		{"bare fence", "```\n{\"a\":1}\n```", "\n{\"a\":1}\n"},
		{"yaml tag kept", "```yaml\na: 1\n```", "yaml\na: 1\n"},
		{"fence without body", "``````", ""},
		{"inner backticks untouched", "```json\n{\"a\":\"```x```\"}\n```", "{\"a\":\"```x```\"}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}

func TestParse_FencedAndUnfencedAgree(t *testing.T) {
	text := createTestDocument(t, nil)

	plain, err := Parse(text)
	require.NoError(t, err)
	fenced, err := Parse("```json\n" + text + "\n```")
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(plain, fenced))
}

func TestParse_Failures(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not json", "not json at all"},
		{"empty", ""},
		{"whitespace", "   \n\t"},
		{"empty fence", "```json\n```"},
		{"yaml fence", "```yaml\n{\"a\":1}\n```"},
		{"truncated", `{"a":`},
		{"trailing data", `{"a":1} {"b":2}`},
		{"trailing garbage", `{"a":1}x`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.in)
			assert.Nil(t, doc)

			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr), "expected ParseError, got %v", err)
			assert.NotEmpty(t, parseErr.Message)
		})
	}
}

func TestParse_KeepsNumberLiterals(t *testing.T) {
	doc, err := Parse(`{"score": 3.0}`)
	require.NoError(t, err)
	assert.Equal(t, json.Number("3.0"), doc.(map[string]interface{})["score"])
}

// ==========================
// Schema Validator
// ==========================

func TestValidate_RoundTrip(t *testing.T) {
	text := createTestDocument(t, nil)

	doc, err := Parse(text)
	require.NoError(t, err)
	resp, err := Validate(doc)
	require.NoError(t, err)

	encoded, err := json.Marshal(resp)
	require.NoError(t, err)

	var want, got interface{}
	require.NoError(t, json.Unmarshal([]byte(text), &want))
	require.NoError(t, json.Unmarshal(encoded, &got))

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-input +validated):\n%s", diff)
	}
	assert.Len(t, resp.Outputs.Questline, QuestlineWeeks)
	assert.Equal(t, 5.5, resp.Outputs.Questline[1].TimeboxHours)
	assert.Equal(t, "Do Not Apply Yet", resp.Outputs.ReadinessGate.Verdict)
}

func TestValidate_QuestlineLength(t *testing.T) {
	for _, n := range []int{0, 20, 23, 25} {
		text := createTestDocument(t, func(doc map[string]interface{}) {
			weeks := outputs(doc)["questline_24w"].([]interface{})
			for len(weeks) < n {
				weeks = append(weeks, weeks[0])
			}
			outputs(doc)["questline_24w"] = weeks[:n]
		})

		_, err := CompileText(text)
		schemaErr := requireSchemaError(t, err)
		assert.Contains(t, schemaErr.Messages(), "outputs.questline_24w: expected 24 items, got "+itoa(n))
	}
}

func TestValidate_GapCount(t *testing.T) {
	for _, gaps := range [][]interface{}{{"a", "b"}, {"a", "b", "c", "d"}} {
		text := createTestDocument(t, func(doc map[string]interface{}) {
			section(doc, "identity_delta")["top_3_non_obvious_gaps"] = gaps
		})

		_, err := CompileText(text)
		schemaErr := requireSchemaError(t, err)
		assert.True(t, schemaErr.HasViolation("outputs.identity_delta.top_3_non_obvious_gaps"), schemaErr.Error())
	}
}

func TestValidate_ScoreBounds(t *testing.T) {
	tests := []struct {
		score   interface{}
		valid   bool
		message string
	}{
		{json.Number("0"), true, ""},
		{json.Number("100"), true, ""},
		{json.Number("70.0"), true, ""},
		{json.Number("101"), false, "outputs.readiness_gate.signal_credibility_score: must be <= 100, got 101"},
		{json.Number("-1"), false, "outputs.readiness_gate.signal_credibility_score: must be >= 0, got -1"},
		{json.Number("42.5"), false, ""},
		{"42", false, ""},
	}

	for _, tt := range tests {
		t.Run(jsonText(t, tt.score), func(t *testing.T) {
			text := createTestDocument(t, func(doc map[string]interface{}) {
				section(doc, "readiness_gate")["signal_credibility_score"] = tt.score
			})

			resp, err := CompileText(text)
			if tt.valid {
				require.NoError(t, err)
				assert.GreaterOrEqual(t, resp.Outputs.ReadinessGate.SignalCredibilityScore, MinScore)
				return
			}
			schemaErr := requireSchemaError(t, err)
			if tt.message != "" {
				assert.Contains(t, schemaErr.Messages(), tt.message)
			}
		})
	}
}

func TestValidate_WholeNumberWeek(t *testing.T) {
	text := createTestDocument(t, func(doc map[string]interface{}) {
		week := outputs(doc)["questline_24w"].([]interface{})[2].(map[string]interface{})
		week["week"] = json.Number("3.0")
	})

	resp, err := CompileText(text)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Outputs.Questline[2].Week)
}

func TestValidate_NumbersOutOfRange(t *testing.T) {
	tests := []struct {
		name      string
		field     string
		value     string
		violation string
	}{
		{"week exponent", "week", "1e20", "outputs.questline_24w[0].week: integer out of range"},
		{"week above int64", "week", "9223372036854775808", "outputs.questline_24w[0].week: integer out of range"},
		{"week far below", "week", "-1e30", "outputs.questline_24w[0].week: integer out of range"},
		{"timebox beyond float64", "timebox_hours", "1e400", "outputs.questline_24w[0].timebox_hours: number out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := createTestDocument(t, func(doc map[string]interface{}) {
				week := outputs(doc)["questline_24w"].([]interface{})[0].(map[string]interface{})
				week[tt.field] = json.Number(tt.value)
			})

			resp, err := CompileText(text)
			assert.Nil(t, resp)
			schemaErr := requireSchemaError(t, err)
			assert.Equal(t, []string{tt.violation}, schemaErr.Messages())
		})
	}
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	text := createTestDocument(t, func(doc map[string]interface{}) {
		delete(doc, "mode")
		delete(section(doc, "readiness_gate"), "verdict")
		section(doc, "signal_portfolio")["templates"] = map[string]interface{}{"readme": json.Number("1")}
		artifact := section(doc, "signal_portfolio")["high_signal_artifacts"].([]interface{})[0].(map[string]interface{})
		delete(artifact, "acceptance_criteria")
		week := outputs(doc)["questline_24w"].([]interface{})[5].(map[string]interface{})
		week["timebox_hours"] = "six"
	})

	_, err := CompileText(text)
	schemaErr := requireSchemaError(t, err)

	assert.Equal(t, []string{
		"mode: required field missing",
		"outputs.questline_24w[5].timebox_hours: expected number, got string",
		"outputs.readiness_gate.verdict: required field missing",
		"outputs.signal_portfolio.high_signal_artifacts[0].acceptance_criteria: required field missing",
		"outputs.signal_portfolio.templates.readme: expected string, got number",
	}, schemaErr.Messages())
}

func TestValidate_ListElementTypes(t *testing.T) {
	text := createTestDocument(t, func(doc map[string]interface{}) {
		section(doc, "identity_delta")["delta"] = []interface{}{"ok", json.Number("7")}
		section(doc, "signal_portfolio")["medium_signal_artifacts"] = "not a list"
	})

	_, err := CompileText(text)
	schemaErr := requireSchemaError(t, err)
	assert.True(t, schemaErr.HasViolation("outputs.identity_delta.delta[1]"))
	assert.True(t, schemaErr.HasViolation("outputs.signal_portfolio.medium_signal_artifacts"))
}

func TestValidate_EmptyAcceptanceCriteriaAndExtras(t *testing.T) {
	text := createTestDocument(t, func(doc map[string]interface{}) {
		doc["generated_by"] = "ai-studio"
		section(doc, "readiness_gate")["confidence"] = "high"
	})

	resp, err := CompileText(text)
	require.NoError(t, err)
	assert.NotNil(t, resp.Outputs.SignalPortfolio.HighSignalArtifacts[1].AcceptanceCriteria)
	assert.Empty(t, resp.Outputs.SignalPortfolio.HighSignalArtifacts[1].AcceptanceCriteria)
}

func TestValidate_RootNotObject(t *testing.T) {
	_, err := CompileText(`[1, 2, 3]`)
	schemaErr := requireSchemaError(t, err)
	require.Len(t, schemaErr.Violations, 1)
	assert.Equal(t, validation.RootField, schemaErr.Violations[0].Field)
}

func TestCompileText_NotJSONNeverReachesSchema(t *testing.T) {
	_, err := CompileText("not json at all")

	var parseErr *ParseError
	assert.True(t, errors.As(err, &parseErr))
	var schemaErr *SchemaError
	assert.False(t, errors.As(err, &schemaErr))
}

func TestCompileText_NormalizesVerdict(t *testing.T) {
	resp, err := CompileText("```json\n" + createTestDocument(t, nil) + "\n```")
	require.NoError(t, err)
	assert.Equal(t, VerdictDoNotApplyYet, resp.Outputs.ReadinessGate.Verdict)
}

func TestResponseJSONSchema_AcceptsFixture(t *testing.T) {
	doc := loadFixture(t)
	result, err := validation.ValidateWithJSONSchema(ResponseJSONSchema(), doc)
	require.NoError(t, err)
	assert.True(t, result.Valid, "errors: %v", result.GetErrorMessages())
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func jsonText(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
