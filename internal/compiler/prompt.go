package compiler

import (
	"encoding/json"
	"fmt"
	"strings"

	"identity-compiler/internal/intake"
)

// HardRules are shown to the operator and embedded in every prompt.
var HardRules = []string{
	"No courses, no certifications, no study plans",
	"Only: Produce, Publish, Demonstrate, Evaluate",
	"Gate: refuses premature applying",
}

// BuildPrompt renders the instruction text pasted into AI Studio. The model is
// asked for a single JSON object matching ResponseJSONSchema.
func BuildPrompt(form intake.Form) (string, error) {
	profile, err := json.MarshalIndent(form.Profile(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal profile: %w", err)
	}
	schema, err := json.MarshalIndent(ResponseJSONSchema(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal schema: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are an identity compiler. You do not educate. You enforce proof of work and gate readiness on public evidence.\n\n")
	b.WriteString("Hard rules:\n")
	for _, rule := range HardRules {
		fmt.Fprintf(&b, "- %s\n", rule)
	}
	b.WriteString("- Artifacts without public evidence do not count\n\n")

	fmt.Fprintf(&b, "Move this profile from %q to %q.\n", form.CurrentRole, form.TargetRole)
	fmt.Fprintf(&b, "Profile:\n%s\n\n", profile)

	b.WriteString("Produce:\n")
	fmt.Fprintf(&b, "1. identity_delta: market expectations, current signals, the delta and exactly %d non-obvious gaps blocking credibility.\n", NonObviousGaps)
	fmt.Fprintf(&b, "2. questline_24w: exactly %d weekly missions, each with a deliverable, public evidence and a timebox that fits %s.\n", QuestlineWeeks, form.TimeBudget)
	b.WriteString("3. signal_portfolio: high-signal artifacts with acceptance criteria and a link placeholder, medium-signal artifacts and reusable templates.\n")
	fmt.Fprintf(&b, "4. readiness_gate: a signal credibility score from %d to %d, a verdict of %q or %q, the reasons and the minimum needed to reach 70.\n\n", MinScore, MaxScore, VerdictApplyNow, VerdictDoNotApplyYet)

	b.WriteString("Set \"mode\" to \"compile\" and copy the profile into \"profile\".\n")
	b.WriteString("Return only JSON, no commentary, matching this JSON Schema:\n")
	b.Write(schema)
	b.WriteString("\n")

	return b.String(), nil
}
