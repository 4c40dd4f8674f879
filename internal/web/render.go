package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/Masterminds/sprig/v3"

	"identity-compiler/internal/compiler"
	"identity-compiler/internal/intake"
)

//go:embed templates/*.html
var templateFS embed.FS

func parseTemplates() (*template.Template, error) {
	funcs := sprig.FuncMap()
	funcs["verdictLabel"] = compiler.VerdictLabel
	funcs["expanded"] = compiler.ExpandedWeek

	tmpl, err := template.New("web").Option("missingkey=error").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}

type modeOption struct {
	Value    compiler.Mode
	Label    string
	Selected bool
}

type pageError struct {
	Headline string
	Details  []string
}

type pageData struct {
	Title             string
	Caption           string
	Mode              compiler.Mode
	Modes             []modeOption
	HardRules         []string
	Form              intake.Form
	GeographyOptions  []string
	TimeBudgetOptions []string
	PreferenceOptions []string
	APIKeyConfigured  bool
	PastedText        string
	Response          *compiler.CompilerResponse
	ApplyNow          bool
	FormWarnings      []string
	Error             *pageError
}

func (s *Server) newPage(mode compiler.Mode, form intake.Form) *pageData {
	modes := make([]modeOption, 0, len(compiler.Modes()))
	for _, m := range compiler.Modes() {
		modes = append(modes, modeOption{Value: m, Label: m.Label(), Selected: m == mode})
	}
	return &pageData{
		Title:             "Identity Compiler",
		Caption:           "Not education. Proof-of-work enforcement. Evidence-gated readiness.",
		Mode:              mode,
		Modes:             modes,
		HardRules:         compiler.HardRules,
		Form:              form,
		GeographyOptions:  intake.GeographyOptions,
		TimeBudgetOptions: intake.TimeBudgetOptions,
		PreferenceOptions: intake.PreferenceOptions,
		APIKeyConfigured:  s.apiKeyConfigured,
	}
}

// renderPage buffers the page; on a template error only a 500 is written.
func (s *Server) renderPage(w http.ResponseWriter, status int, page *pageData) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "page", page); err != nil {
		s.logger.Error("failed to render page", map[string]interface{}{"error": err})
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
