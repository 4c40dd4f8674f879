package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "identity-compiler/internal/common/errors"
	"identity-compiler/internal/compiler"
	"identity-compiler/internal/intake"
)

// Form field names used by the page outside the intake form itself.
const (
	fieldMode       = "mode"
	fieldPastedJSON = "pasted_json"
)

type compileResponse struct {
	CycleID  string                     `json:"cycleId"`
	Verdict  string                     `json:"verdict"`
	ApplyNow bool                       `json:"applyNow"`
	Response *compiler.CompilerResponse `json:"response"`
}

type errorResponse struct {
	Code       string   `json:"code"`
	Message    string   `json:"message"`
	Details    string   `json:"details,omitempty"`
	Violations []string `json:"violations,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page := s.newPage(s.modeFrom(r.URL.Query().Get(fieldMode)), intake.DefaultForm())
	s.renderPage(w, http.StatusOK, page)
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeBodyError(w, err)
		return
	}

	mode := s.modeFrom(r.PostForm.Get(fieldMode))
	form := intake.FormFromValues(r.PostForm)
	text := r.PostForm.Get(fieldPastedJSON)

	page := s.newPage(mode, form)
	page.PastedText = text

	// Nothing pasted yet: show the demo tip.
	if mode == compiler.ModePaste && strings.TrimSpace(text) == "" {
		s.renderPage(w, http.StatusOK, page)
		return
	}

	result, err := s.service.Compile(r.Context(), compiler.Request{Mode: mode, Text: text, Form: &form})
	if err != nil {
		stdErr := apperrors.FromCompileError(err)
		page.Error = &pageError{Headline: stdErr.Message, Details: errorDetails(stdErr)}
		s.renderPage(w, statusFor(stdErr.Code), page)
		return
	}

	page.Response = result.Response
	page.ApplyNow = result.ApplyNow
	page.FormWarnings = result.FormWarnings
	s.renderPage(w, http.StatusOK, page)
}

func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeBodyError(w, err)
		return
	}

	form := intake.FormFromValues(r.Form)
	if err := intake.Validate(form); err != nil {
		stdErr := apperrors.FromCompileError(err)
		writeJSON(w, statusFor(stdErr.Code), toErrorResponse(stdErr))
		return
	}

	prompt, err := compiler.BuildPrompt(form)
	if err != nil {
		s.logger.Error("failed to build prompt", map[string]interface{}{"error": err})
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, prompt)
}

func (s *Server) handleAPICompile(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeBodyError(w, err)
		return
	}

	mode, err := compiler.ParseMode(r.URL.Query().Get(fieldMode))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "INVALID_MODE", Message: err.Error()})
		return
	}

	result, err := s.service.Compile(r.Context(), compiler.Request{Mode: mode, Text: string(body)})
	if err != nil {
		stdErr := apperrors.FromCompileError(err)
		writeJSON(w, statusFor(stdErr.Code), toErrorResponse(stdErr))
		return
	}

	writeJSON(w, http.StatusOK, compileResponse{
		CycleID:  result.CycleID,
		Verdict:  result.Verdict,
		ApplyNow: result.ApplyNow,
		Response: result.Response,
	})
}

func (s *Server) handleAPISchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, compiler.ResponseJSONSchema())
}

// modeFrom falls back to the configured default for empty or unknown input.
func (s *Server) modeFrom(value string) compiler.Mode {
	if strings.TrimSpace(value) == "" {
		return s.defaultMode
	}
	mode, err := compiler.ParseMode(value)
	if err != nil {
		return s.defaultMode
	}
	return mode
}

func (s *Server) writeBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
			Code:    "REQUEST_TOO_LARGE",
			Message: "request body exceeds the configured limit",
		})
		return
	}
	writeJSON(w, http.StatusBadRequest, errorResponse{Code: "INVALID_REQUEST", Message: err.Error()})
}

func statusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeParseError:
		return http.StatusBadRequest
	case apperrors.ErrCodeSchemaValidation, apperrors.ErrCodeIntakeValidation:
		return http.StatusUnprocessableEntity
	case apperrors.ErrCodeAPIModeDisabled:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func errorDetails(stdErr *apperrors.StandardError) []string {
	for _, key := range []string{"violations", "fieldErrors"} {
		if list, ok := stdErr.Metadata[key].([]string); ok {
			return list
		}
	}
	if stdErr.Details == "" {
		return nil
	}
	return []string{stdErr.Details}
}

func toErrorResponse(stdErr *apperrors.StandardError) errorResponse {
	resp := errorResponse{
		Code:    string(stdErr.Code),
		Message: stdErr.Message,
		Details: stdErr.Details,
	}
	if violations, ok := stdErr.Metadata["violations"].([]string); ok {
		resp.Violations = violations
	} else if fields, ok := stdErr.Metadata["fieldErrors"].([]string); ok {
		resp.Violations = fields
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
