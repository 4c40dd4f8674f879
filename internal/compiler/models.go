package compiler

// IdentityDelta contrasts what the market expects with what the profile
// currently signals.
type IdentityDelta struct {
	MarketExpectations []string `json:"market_expectations" yaml:"market_expectations"`
	CurrentSignals     []string `json:"current_signals" yaml:"current_signals"`
	Delta              []string `json:"delta" yaml:"delta"`
	TopNonObviousGaps  []string `json:"top_3_non_obvious_gaps" yaml:"top_3_non_obvious_gaps"`
}

// QuestWeek is one week of the proof-of-work questline.
type QuestWeek struct {
	Week         int     `json:"week" yaml:"week"`
	Mission      string  `json:"mission" yaml:"mission"`
	Deliverable  string  `json:"deliverable" yaml:"deliverable"`
	Evidence     string  `json:"evidence" yaml:"evidence"`
	TimeboxHours float64 `json:"timebox_hours" yaml:"timebox_hours"`
}

type PortfolioArtifact struct {
	Name               string   `json:"name" yaml:"name"`
	WhyItCounts        string   `json:"why_it_counts" yaml:"why_it_counts"`
	AcceptanceCriteria []string `json:"acceptance_criteria" yaml:"acceptance_criteria"`
	LinkPlaceholder    string   `json:"link_placeholder" yaml:"link_placeholder"`
}

type SignalPortfolio struct {
	HighSignalArtifacts   []PortfolioArtifact `json:"high_signal_artifacts" yaml:"high_signal_artifacts"`
	MediumSignalArtifacts []string            `json:"medium_signal_artifacts" yaml:"medium_signal_artifacts"`
	Templates             map[string]string   `json:"templates" yaml:"templates"`
}

// ReadinessGate holds the score and the apply/do-not-apply verdict. Verdict is
// the only field rewritten after validation (see NormalizeVerdict).
type ReadinessGate struct {
	SignalCredibilityScore int      `json:"signal_credibility_score" yaml:"signal_credibility_score"`
	Verdict                string   `json:"verdict" yaml:"verdict"`
	Reasons                []string `json:"reasons" yaml:"reasons"`
	MinimumToReach70       []string `json:"minimum_to_reach_70" yaml:"minimum_to_reach_70"`
}

type CompilerOutputs struct {
	IdentityDelta   IdentityDelta   `json:"identity_delta" yaml:"identity_delta"`
	Questline       []QuestWeek     `json:"questline_24w" yaml:"questline_24w"`
	SignalPortfolio SignalPortfolio `json:"signal_portfolio" yaml:"signal_portfolio"`
	ReadinessGate   ReadinessGate   `json:"readiness_gate" yaml:"readiness_gate"`
}

// CompilerResponse is the validated document. Profile is passed through
// untyped.
type CompilerResponse struct {
	Mode    string                 `json:"mode" yaml:"mode"`
	Profile map[string]interface{} `json:"profile" yaml:"profile"`
	Outputs CompilerOutputs        `json:"outputs" yaml:"outputs"`
}

// ExpandedWeek reports whether a questline week is shown expanded.
func ExpandedWeek(w QuestWeek) bool {
	return w.Week == 1 || w.Week == 2
}
