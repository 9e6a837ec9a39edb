// Package normalize canonicalizes free text for case and whitespace insensitive comparison.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Text trims s, lowercases it, and collapses every internal whitespace run to a single space.
func Text(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}

	// cases.Caser is stateful, so one is built per call.
	return cases.Lower(language.Und).String(strings.Join(fields, " "))
}
