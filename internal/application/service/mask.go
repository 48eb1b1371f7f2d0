package service

import (
	"strings"

	masker "github.com/goliatone/go-masker"
)

const maskRule = "preserveEnds(2,2)"

// MaskValue hides a variable value for display, keeping two characters at
// each end of long values.
func MaskValue(value string) string {
	if value == "" {
		return ""
	}

	runes := []rune(value)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}

	masked, err := masker.Default.String(maskRule, value)
	if err != nil {
		return strings.Repeat("*", len(runes))
	}
	return masked
}
