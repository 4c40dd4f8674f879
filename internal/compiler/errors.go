package compiler

import (
	"errors"
	"fmt"
	"strings"

	"identity-compiler/internal/common/validation"
)

// ErrAPIModeDisabled is matched by every ModeDisabledError.
var ErrAPIModeDisabled = errors.New("API call mode not enabled in this template. Use paste-JSON mode for demo reliability.")

// ParseError reports input that is not a single JSON value. Message is the
// decoder diagnostic, unchanged.
type ParseError struct {
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError lists every constraint the parsed document violates.
type SchemaError struct {
	Violations []validation.ValidationError
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema validation failed with %d violation(s):\n%s", len(e.Violations), strings.Join(e.Messages(), "\n"))
}

// Messages renders each violation as "path: message".
func (e *SchemaError) Messages() []string {
	out := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		out[i] = v.String()
	}
	return out
}

// HasViolation reports whether any violation sits at path.
func (e *SchemaError) HasViolation(path string) bool {
	for _, v := range e.Violations {
		if v.Field == path {
			return true
		}
	}
	return false
}

// ModeDisabledError is returned for cycles run in ModeAPI.
type ModeDisabledError struct {
	KeyConfigured bool
}

func (e *ModeDisabledError) Error() string {
	if e.KeyConfigured {
		return ErrAPIModeDisabled.Error()
	}
	return ErrAPIModeDisabled.Error() + " (GEMINI_API_KEY is not set)"
}

func (e *ModeDisabledError) Is(target error) bool {
	return target == ErrAPIModeDisabled
}
