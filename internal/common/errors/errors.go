// Package errors provides standardized error handling for compile cycles and
// their BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"identity-compiler/internal/compiler"
	"identity-compiler/internal/intake"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeParseError       ErrorCode = "PARSE_ERROR"
	ErrCodeSchemaValidation ErrorCode = "SCHEMA_VALIDATION_FAILED"
	ErrCodeIntakeValidation ErrorCode = "INTAKE_VALIDATION_FAILED"
	ErrCodeAPIModeDisabled  ErrorCode = "API_MODE_DISABLED"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job error variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewParseError wraps the raw decoder diagnostic. The message is surfaced to
// the operator verbatim.
func NewParseError(diagnostic string) *StandardError {
	return &StandardError{
		Code:      ErrCodeParseError,
		Message:   "Failed to parse/validate JSON. Ensure you pasted valid JSON.",
		Details:   diagnostic,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSchemaValidationError carries every violated constraint.
func NewSchemaValidationError(violations []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSchemaValidation,
		Message:   "JSON parsed, but schema validation failed. Your pasted output is missing required fields.",
		Details:   strings.Join(violations, "\n"),
		Retryable: false,
		Metadata: map[string]interface{}{
			"violations":     violations,
			"violationCount": len(violations),
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewIntakeValidationError reports invalid intake form fields.
func NewIntakeValidationError(fieldErrors []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeIntakeValidation,
		Message:   "Intake form is incomplete or invalid",
		Details:   strings.Join(fieldErrors, "\n"),
		Retryable: false,
		Metadata: map[string]interface{}{
			"fieldErrors": fieldErrors,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewAPIModeDisabledError is returned for every cycle that asks for the API mode.
func NewAPIModeDisabledError(keyConfigured bool) *StandardError {
	details := "GEMINI_API_KEY is configured but unused"
	if !keyConfigured {
		details = "GEMINI_API_KEY is not set; set it as an environment variable and restart the server"
	}
	return &StandardError{
		Code:      ErrCodeAPIModeDisabled,
		Message:   "API call mode not enabled in this template. Use paste-JSON mode for demo reliability.",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// FromCompileError maps errors produced by a compile cycle onto StandardError.
// A StandardError passes through unchanged.
func FromCompileError(err error) *StandardError {
	if err == nil {
		return nil
	}

	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}

	var parseErr *compiler.ParseError
	if stderrors.As(err, &parseErr) {
		return NewParseError(parseErr.Message)
	}

	var schemaErr *compiler.SchemaError
	if stderrors.As(err, &schemaErr) {
		return NewSchemaValidationError(schemaErr.Messages())
	}

	var intakeErr *intake.ValidationError
	if stderrors.As(err, &intakeErr) {
		return NewIntakeValidationError(intakeErr.Messages())
	}

	var modeErr *compiler.ModeDisabledError
	if stderrors.As(err, &modeErr) {
		return NewAPIModeDisabledError(modeErr.KeyConfigured)
	}

	return NewInternalError(err)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeParseError:       "PARSE_ERROR",
	ErrCodeSchemaValidation: "SCHEMA_VALIDATION_FAILED",
	ErrCodeIntakeValidation: "INTAKE_VALIDATION_FAILED",
	ErrCodeAPIModeDisabled:  "API_MODE_DISABLED",
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	if violations, ok := stdErr.Metadata["violations"]; ok {
		vars["violations"] = violations
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "INTAKE"):
		return "INTAKE"
	case strings.Contains(codeStr, "PARSE") || strings.Contains(codeStr, "SCHEMA"):
		return "VALIDATION"
	case strings.Contains(codeStr, "API"):
		return "CONFIG"
	default:
		return "OTHER"
	}
}
