package compiler

import "identity-compiler/internal/common/validation"

const (
	// QuestlineWeeks is the fixed questline length.
	QuestlineWeeks = 24
	// NonObviousGaps is the fixed number of blocking gaps.
	NonObviousGaps = 3
	MinScore       = 0
	MaxScore       = 100
)

func stringList() validation.Property {
	return validation.Property{Type: "array", Items: &validation.Property{Type: "string"}}
}

var questWeekSchema = validation.Property{
	Type:     "object",
	Required: []string{"week", "mission", "deliverable", "evidence", "timebox_hours"},
	Properties: map[string]validation.Property{
		"week":          {Type: "integer", Description: "Week number, 1-based"},
		"mission":       {Type: "string"},
		"deliverable":   {Type: "string"},
		"evidence":      {Type: "string", Description: "Public proof the deliverable shipped"},
		"timebox_hours": {Type: "number"},
	},
}

var artifactSchema = validation.Property{
	Type:     "object",
	Required: []string{"name", "why_it_counts", "acceptance_criteria", "link_placeholder"},
	Properties: map[string]validation.Property{
		"name":                {Type: "string"},
		"why_it_counts":       {Type: "string"},
		"acceptance_criteria": stringList(),
		"link_placeholder":    {Type: "string"},
	},
}

// ResponseSchema describes a compiler document. Unknown fields are ignored at
// every level.
var ResponseSchema = validation.JSONSchema{
	Type:                 "object",
	AdditionalProperties: true,
	Required:             []string{"mode", "profile", "outputs"},
	Properties: map[string]validation.Property{
		"mode":    {Type: "string"},
		"profile": {Type: "object"},
		"outputs": {
			Type:     "object",
			Required: []string{"identity_delta", "questline_24w", "signal_portfolio", "readiness_gate"},
			Properties: map[string]validation.Property{
				"identity_delta": {
					Type:     "object",
					Required: []string{"market_expectations", "current_signals", "delta", "top_3_non_obvious_gaps"},
					Properties: map[string]validation.Property{
						"market_expectations": stringList(),
						"current_signals":     stringList(),
						"delta":               stringList(),
						"top_3_non_obvious_gaps": {
							Type:     "array",
							Items:    &validation.Property{Type: "string"},
							MinItems: validation.Int(NonObviousGaps),
							MaxItems: validation.Int(NonObviousGaps),
						},
					},
				},
				"questline_24w": {
					Type:     "array",
					Items:    &questWeekSchema,
					MinItems: validation.Int(QuestlineWeeks),
					MaxItems: validation.Int(QuestlineWeeks),
				},
				"signal_portfolio": {
					Type:     "object",
					Required: []string{"high_signal_artifacts", "medium_signal_artifacts", "templates"},
					Properties: map[string]validation.Property{
						"high_signal_artifacts":   {Type: "array", Items: &artifactSchema},
						"medium_signal_artifacts": stringList(),
						"templates":               {Type: "object", Values: &validation.Property{Type: "string"}},
					},
				},
				"readiness_gate": {
					Type:     "object",
					Required: []string{"signal_credibility_score", "verdict", "reasons", "minimum_to_reach_70"},
					Properties: map[string]validation.Property{
						"signal_credibility_score": {
							Type:    "integer",
							Minimum: validation.Float(MinScore),
							Maximum: validation.Float(MaxScore),
						},
						"verdict":             {Type: "string", Description: "apply_now or do_not_apply_yet"},
						"reasons":             stringList(),
						"minimum_to_reach_70": stringList(),
					},
				},
			},
		},
	},
}

// ResponseJSONSchema is ResponseSchema exported as a draft-07 document.
func ResponseJSONSchema() map[string]interface{} {
	return ResponseSchema.Document()
}
