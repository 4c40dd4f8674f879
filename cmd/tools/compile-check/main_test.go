package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const fixture = "../../../internal/compiler/testdata/valid_response.json"

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_TextPanels(t *testing.T) {
	code, out, errOut := runCLI(t, "", "-file", fixture)

	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "== Identity Delta ==")
	assert.Contains(t, out, "  1. No evidence of evaluating model output quality")
	assert.Contains(t, out, "Week 24: Final readiness review")
	assert.Contains(t, out, "Signal Credibility Score: 42 / 100")
	assert.Contains(t, out, "VERDICT: DO NOT APPLY YET")
	assert.Equal(t, 2, strings.Count(out, "Deliverable:"))
}

func TestRun_JSONFromStdin(t *testing.T) {
	code, out, errOut := runCLI(t, "```json\n{\"not\": \"valid\"}\n```", "-format", "json")
	assert.Equal(t, exitSchemaError, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "mode: required field missing")
}

func TestRun_Formats(t *testing.T) {
	code, out, _ := runCLI(t, "", "-file", fixture, "-format", "json")
	require.Equal(t, exitOK, code)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	gate := doc["outputs"].(map[string]interface{})["readiness_gate"].(map[string]interface{})
	assert.Equal(t, "do_not_apply_yet", gate["verdict"])

	code, out, _ = runCLI(t, "", "-file", fixture, "-format", "yaml")
	require.Equal(t, exitOK, code)
	var ydoc map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &ydoc))
	assert.Equal(t, "compile", ydoc["mode"])
	assert.Equal(t, "15+", ydoc["profile"].(map[string]interface{})["years_of_experience"])

	code, _, errOut := runCLI(t, "", "-file", fixture, "-format", "xml")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, errOut, "unknown format")
}

func TestRun_ExitCodes(t *testing.T) {
	code, _, errOut := runCLI(t, "not json at all")
	assert.Equal(t, exitParseError, code)
	assert.Contains(t, errOut, "Failed to parse/validate JSON.")

	code, _, _ = runCLI(t, "", "-file", "does-not-exist.json")
	assert.Equal(t, exitUsage, code)

	code, _, _ = runCLI(t, "", "-bogus")
	assert.Equal(t, exitUsage, code)
}

func TestRun_Verdict(t *testing.T) {
	code, out, _ := runCLI(t, "", "-verdict", "Apply-Now")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "apply_now\n", out)

	code, out, _ = runCLI(t, "", "-verdict", "  Maybe ")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "maybe\n", out)
}
