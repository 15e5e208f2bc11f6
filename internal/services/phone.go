package services

import (
	"strings"
)

// normalizePhone strips formatting from a raw phone number, keeping digits
// and a leading +.
func normalizePhone(raw string) string {
	var b strings.Builder
	for i, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// phoneVariants derives the lookup candidates for a normalized phone.
// Parent phone numbers are entered inconsistently at creation time, so the
// match tries the exact value, bare digits, a +998-prefixed form and the
// last nine digits (the local significant part for Uzbek numbers).
func phoneVariants(phone string) []string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)

	seen := make(map[string]bool)
	var variants []string
	add := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			variants = append(variants, v)
		}
	}

	add(phone)
	add(digits)
	if strings.HasPrefix(digits, "998") {
		add("+" + digits)
	}
	if len(digits) >= 9 {
		add(digits[len(digits)-9:])
	}

	return variants
}
