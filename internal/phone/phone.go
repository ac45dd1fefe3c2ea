// Package phone centralizes MSISDN handling for the South African numbering
// plan. Every SMS and WhatsApp call site goes through Normalize; nothing
// else in the codebase touches raw phone strings.
package phone

import (
	"strings"
)

const countryPrefix = "27"

// Normalize strips all non-digit characters and forces the 27 country
// prefix: an existing 27 prefix is kept as-is, otherwise a single leading 0
// is dropped and 27 is prepended. Idempotent.
func Normalize(raw string) string {
	digits := stripNonDigits(raw)
	if strings.HasPrefix(digits, countryPrefix) {
		return digits
	}
	digits = strings.TrimPrefix(digits, "0")
	return countryPrefix + digits
}

// Usable reports whether raw resolves to a sendable number: at least nine
// digits after stripping non-digits.
func Usable(raw string) bool {
	return len(stripNonDigits(raw)) >= 9
}

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
