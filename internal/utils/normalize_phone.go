package utils

import "strings"

// NormalizePhone strips formatting and prefixes a US country code so the SMS
// provider gets a consistent E.164-ish number.
func NormalizePhone(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	n := digits.String()
	switch {
	case len(n) == 10:
		return "+1" + n
	case len(n) == 11 && strings.HasPrefix(n, "1"):
		return "+" + n
	case n == "":
		return ""
	default:
		return "+" + n
	}
}
