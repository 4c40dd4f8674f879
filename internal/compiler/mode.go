package compiler

import (
	"fmt"
	"strings"
)

// Mode selects where the compiler document comes from.
type Mode string

const (
	// ModePaste takes a document pasted by the operator.
	ModePaste Mode = "paste"
	// ModeAPI would fetch the document from the Gemini API. It is never enabled.
	ModeAPI Mode = "api"
)

var modeLabels = map[Mode]string{
	ModePaste: "Paste JSON from AI Studio (recommended)",
	ModeAPI:   "Call Gemini API (requires key)",
}

// Modes lists the run modes in display order.
func Modes() []Mode {
	return []Mode{ModePaste, ModeAPI}
}

// Label is the operator-facing name of the mode.
func (m Mode) Label() string {
	if label, ok := modeLabels[m]; ok {
		return label
	}
	return string(m)
}

// ParseMode accepts a mode name or its label. Empty input means ModePaste.
func ParseMode(s string) (Mode, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ModePaste, nil
	}
	for m, label := range modeLabels {
		if strings.EqualFold(s, string(m)) || s == label {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown run mode %q", s)
}

// checkMode fails every cycle that asks for ModeAPI.
func checkMode(m Mode, keyConfigured bool) error {
	if m == ModeAPI {
		return &ModeDisabledError{KeyConfigured: keyConfigured}
	}
	return nil
}
