// Package intake holds the operator's intake form: the profile a compiler
// prompt is built from.
package intake

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"identity-compiler/internal/common/validation"
)

// Form field names, shared by the posted HTML form and the profile map.
const (
	FieldCurrentRole       = "current_role"
	FieldYearsOfExperience = "years_of_experience"
	FieldGeography         = "geography"
	FieldTargetRole        = "target_role"
	FieldTimeBudget        = "time_budget"
	FieldEvidenceLinks     = "evidence_links"
	FieldPreference        = "preference"
)

var (
	GeographyOptions  = []string{"UK", "EU", "India", "US"}
	TimeBudgetOptions = []string{"6 hours/week"}
	PreferenceOptions = []string{"strongest_long_term", "balanced", "fastest_employable"}
)

// Form is one submission of the intake screen.
type Form struct {
	CurrentRole       string   `json:"current_role"`
	YearsOfExperience string   `json:"years_of_experience"`
	Geography         string   `json:"geography"`
	TargetRole        string   `json:"target_role"`
	TimeBudget        string   `json:"time_budget"`
	EvidenceLinks     []string `json:"evidence_links"`
	Preference        string   `json:"preference"`
}

// DefaultForm is the pre-filled demo profile.
func DefaultForm() Form {
	return Form{
		CurrentRole:       "SAP S/4HANA Solution Architect (MM, P2P, IS-Retail)",
		YearsOfExperience: "15+",
		Geography:         GeographyOptions[0],
		TargetRole:        "SAP AI Architect (enterprise)",
		TimeBudget:        TimeBudgetOptions[0],
		EvidenceLinks: []string{
			"https://github.com/avikjudemo/sap-sentinel",
			"https://github.com/avikjudemo",
		},
		Preference: PreferenceOptions[0],
	}
}

// FormFromValues reads a posted form. Fields missing from values keep their
// DefaultForm value; evidence links are one per line with blank lines dropped.
func FormFromValues(values url.Values) Form {
	form := DefaultForm()

	text := func(name string, dst *string) {
		if values.Has(name) {
			*dst = strings.TrimSpace(values.Get(name))
		}
	}
	text(FieldCurrentRole, &form.CurrentRole)
	text(FieldYearsOfExperience, &form.YearsOfExperience)
	text(FieldGeography, &form.Geography)
	text(FieldTargetRole, &form.TargetRole)
	text(FieldTimeBudget, &form.TimeBudget)
	text(FieldPreference, &form.Preference)

	if values.Has(FieldEvidenceLinks) {
		form.EvidenceLinks = SplitLinks(values.Get(FieldEvidenceLinks))
	}
	return form
}

// SplitLinks splits a textarea into trimmed, non-empty lines.
func SplitLinks(text string) []string {
	links := []string{}
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			links = append(links, line)
		}
	}
	return links
}

// EvidenceText joins the links back into textarea form.
func (f Form) EvidenceText() string {
	return strings.Join(f.EvidenceLinks, "\n")
}

// Profile returns the form as the open profile map carried by a compiler
// document.
func (f Form) Profile() map[string]interface{} {
	links := make([]interface{}, len(f.EvidenceLinks))
	for i, link := range f.EvidenceLinks {
		links[i] = link
	}
	return map[string]interface{}{
		FieldCurrentRole:       f.CurrentRole,
		FieldYearsOfExperience: f.YearsOfExperience,
		FieldGeography:         f.Geography,
		FieldTargetRole:        f.TargetRole,
		FieldTimeBudget:        f.TimeBudget,
		FieldEvidenceLinks:     links,
		FieldPreference:        f.Preference,
	}
}

//go:embed schemas/form.schema.json
var formSchemaJSON []byte

var formSchema = mustLoadSchema(formSchemaJSON)

func mustLoadSchema(raw []byte) *validation.CompiledSchema {
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		panic(fmt.Sprintf("intake: invalid embedded schema: %v", err))
	}
	return validation.MustCompile(doc)
}

// ValidationError lists the form fields that failed validation.
type ValidationError struct {
	Fields []validation.ValidationError
}

func (e *ValidationError) Error() string {
	return "intake form invalid: " + strings.Join(e.Messages(), "; ")
}

// Messages renders each failure as "field: message".
func (e *ValidationError) Messages() []string {
	out := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		out[i] = f.String()
	}
	return out
}

// Validate checks the form against the embedded JSON Schema. It returns nil
// or a *ValidationError.
func Validate(form Form) error {
	result, err := formSchema.Validate(form.Profile())
	if err != nil {
		return fmt.Errorf("validate intake form: %w", err)
	}
	if result.Valid {
		return nil
	}
	return &ValidationError{Fields: result.Errors}
}
