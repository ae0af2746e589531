// Package recipient validates withdrawal destinations.
package recipient

import "strings"

// digits drops everything that is not 0-9.
func digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// subscriber reduces a Bangladeshi mobile number to its 10 digit national part.
func subscriber(s string) (string, bool) {
	n := digits(s)
	n = strings.TrimPrefix(n, "880")
	n = strings.TrimPrefix(n, "0")

	if len(n) != 10 || n[0] != '1' {
		return "", false
	}
	// operator prefixes 13..19
	if n[1] < '3' || n[1] > '9' {
		return "", false
	}
	return n, true
}

// ValidateBDPhone accepts 01XXXXXXXXX, 8801XXXXXXXXX and +880 1XXX-XXXXXX style numbers.
func ValidateBDPhone(s string) bool {
	_, ok := subscriber(s)
	return ok
}

// Normalize returns the number in 01XXXXXXXXX form.
func Normalize(s string) (string, bool) {
	n, ok := subscriber(s)
	if !ok {
		return "", false
	}
	return "0" + n, true
}
