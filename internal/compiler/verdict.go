package compiler

import (
	"regexp"
	"strings"
)

const (
	VerdictApplyNow      = "apply_now"
	VerdictDoNotApplyYet = "do_not_apply_yet"
)

var separatorRun = regexp.MustCompile(`[\s_-]+`)

// NormalizeVerdict maps free-text verdicts onto VerdictApplyNow or
// VerdictDoNotApplyYet. Case is ignored and runs of spaces, underscores and
// hyphens are equivalent. Unrecognized text comes back trimmed and lowercased.
func NormalizeVerdict(v string) string {
	lowered := strings.ToLower(strings.TrimSpace(v))
	switch separatorRun.ReplaceAllString(lowered, "_") {
	case VerdictApplyNow:
		return VerdictApplyNow
	case VerdictDoNotApplyYet:
		return VerdictDoNotApplyYet
	}
	return lowered
}

// IsApplyNow is true only for the positive verdict; anything else, including
// unrecognized text, counts as do-not-apply.
func IsApplyNow(v string) bool {
	return NormalizeVerdict(v) == VerdictApplyNow
}

// VerdictLabel is the banner shown under the readiness gate.
func VerdictLabel(v string) string {
	if IsApplyNow(v) {
		return "VERDICT: APPLY NOW"
	}
	return "VERDICT: DO NOT APPLY YET"
}
