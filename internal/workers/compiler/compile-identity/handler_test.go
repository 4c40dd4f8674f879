package compileidentity

import (
	"context"
	stderrors "errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"identity-compiler/internal/common/config"
	"identity-compiler/internal/common/errors"
	"identity-compiler/internal/common/logger"
	"identity-compiler/internal/compiler"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:       5 * time.Second,
		MaxJobsActive: 1,
	}
}

func createTestHandler(t *testing.T) *Handler {
	log := logger.NewTestLogger(t)
	return NewHandler(createTestConfig(), compiler.NewService(log), nil, log)
}

func loadRawOutput(t *testing.T) string {
	t.Helper()
	raw, err := os.ReadFile("../../../compiler/testdata/valid_response.json")
	require.NoError(t, err)
	return string(raw)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	h := createTestHandler(t)

	output, err := h.Execute(context.Background(), &Input{
		RawOutput: "```json\n" + loadRawOutput(t) + "\n```",
		Mode:      "paste",
	})
	require.NoError(t, err)

	assert.True(t, output.Valid)
	assert.Equal(t, compiler.VerdictDoNotApplyYet, output.Verdict)
	assert.False(t, output.ApplyNow)
	assert.Equal(t, 42, output.Score)
	assert.NotEmpty(t, output.CycleID)
	assert.Len(t, output.Response.Outputs.Questline, compiler.QuestlineWeeks)
}

func TestHandler_Execute_EmptyModeIsPaste(t *testing.T) {
	h := createTestHandler(t)

	output, err := h.Execute(context.Background(), &Input{RawOutput: loadRawOutput(t)})
	require.NoError(t, err)
	assert.True(t, output.Valid)
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    *Input
		bpmnCode string
	}{
		{"parse error", &Input{RawOutput: "not json at all"}, "PARSE_ERROR"},
		{"schema error", &Input{RawOutput: `{"mode":"compile","profile":{}}`}, "SCHEMA_VALIDATION_FAILED"},
		{"api mode", &Input{RawOutput: loadRawOutput(t), Mode: "api"}, "API_MODE_DISABLED"},
		{"unknown mode", &Input{RawOutput: loadRawOutput(t), Mode: "stream"}, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := createTestHandler(t)

			output, err := h.Execute(context.Background(), tt.input)
			assert.Nil(t, output)
			require.Error(t, err)

			bpmnErr := errors.ConvertToBPMNError(errors.FromCompileError(err))
			assert.Equal(t, tt.bpmnCode, bpmnErr.Code)
		})
	}
}

func TestHandler_Execute_SchemaViolationsBecomeErrorVariables(t *testing.T) {
	h := createTestHandler(t)

	_, err := h.Execute(context.Background(), &Input{RawOutput: `{"mode":"compile","profile":{}}`})
	var schemaErr *compiler.SchemaError
	require.True(t, stderrors.As(err, &schemaErr))

	vars := errors.ConvertToBPMNError(errors.FromCompileError(err)).ToErrorVariables()
	assert.Equal(t, []string{"outputs: required field missing"}, vars["violations"])
}

func TestLoadConfig(t *testing.T) {
	cfg := &config.Config{
		Workers: map[string]config.WorkerConfig{
			TaskType: {Enabled: true, MaxJobsActive: 3, Timeout: 2500},
		},
	}

	wc := LoadConfig(cfg)
	assert.Equal(t, 2500*time.Millisecond, wc.Timeout)
	assert.Equal(t, 3, wc.MaxJobsActive)
}
