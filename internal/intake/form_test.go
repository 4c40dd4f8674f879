package intake

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestValues() url.Values {
	return url.Values{
		FieldCurrentRole:       {"  Data Engineer  "},
		FieldYearsOfExperience: {"7"},
		FieldGeography:         {"EU"},
		FieldTargetRole:        {"ML Platform Lead"},
		FieldTimeBudget:        {"6 hours/week"},
		FieldEvidenceLinks:     {"https://example.com/a\n\n  https://example.com/b  \r\n"},
		FieldPreference:        {"balanced"},
	}
}

func TestDefaultForm_IsValid(t *testing.T) {
	assert.NoError(t, Validate(DefaultForm()))
}

func TestFormFromValues(t *testing.T) {
	form := FormFromValues(createTestValues())

	assert.Equal(t, "Data Engineer", form.CurrentRole)
	assert.Equal(t, "EU", form.Geography)
	assert.Equal(t, "balanced", form.Preference)
	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, form.EvidenceLinks)
	assert.NoError(t, Validate(form))
}

func TestFormFromValues_MissingFieldsKeepDefaults(t *testing.T) {
	form := FormFromValues(url.Values{FieldTargetRole: {"Staff Engineer"}})

	def := DefaultForm()
	assert.Equal(t, "Staff Engineer", form.TargetRole)
	assert.Equal(t, def.CurrentRole, form.CurrentRole)
	assert.Equal(t, def.EvidenceLinks, form.EvidenceLinks)
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *Form)
		field  string
	}{
		{"empty current role", func(f *Form) { f.CurrentRole = "" }, FieldCurrentRole},
		{"empty target role", func(f *Form) { f.TargetRole = "" }, FieldTargetRole},
		{"unknown geography", func(f *Form) { f.Geography = "Mars" }, FieldGeography},
		{"unknown time budget", func(f *Form) { f.TimeBudget = "40 hours/week" }, FieldTimeBudget},
		{"unknown preference", func(f *Form) { f.Preference = "fastest" }, FieldPreference},
		{"non-http link", func(f *Form) { f.EvidenceLinks = []string{"ftp://example.com"} }, FieldEvidenceLinks + ".0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := DefaultForm()
			tt.mutate(&form)

			err := Validate(form)
			require.Error(t, err)

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			require.NotEmpty(t, vErr.Fields)
			assert.Equal(t, tt.field, vErr.Fields[0].Field)
			assert.Contains(t, err.Error(), "intake form invalid")
		})
	}
}

func TestValidate_NoLinksIsAllowed(t *testing.T) {
	form := DefaultForm()
	form.EvidenceLinks = SplitLinks("\n \n")
	assert.Empty(t, form.EvidenceLinks)
	assert.NoError(t, Validate(form))
}

func TestProfile(t *testing.T) {
	profile := DefaultForm().Profile()

	assert.Len(t, profile, 7)
	assert.Equal(t, "UK", profile[FieldGeography])
	assert.Equal(t, []interface{}{"https://github.com/avikjudemo/sap-sentinel", "https://github.com/avikjudemo"}, profile[FieldEvidenceLinks])
	assert.Equal(t, "https://github.com/avikjudemo/sap-sentinel\nhttps://github.com/avikjudemo", DefaultForm().EvidenceText())
}
