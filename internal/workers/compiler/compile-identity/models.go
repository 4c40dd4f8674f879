package compileidentity

import "identity-compiler/internal/compiler"

type Input struct {
	RawOutput string `json:"rawOutput"`
	Mode      string `json:"mode"`
}

type Output struct {
	Valid    bool                       `json:"valid"`
	Verdict  string                     `json:"verdict"`
	ApplyNow bool                       `json:"applyNow"`
	Score    int                        `json:"score"`
	CycleID  string                     `json:"cycleId"`
	Response *compiler.CompilerResponse `json:"response"`
}
