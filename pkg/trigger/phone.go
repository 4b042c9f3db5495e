package trigger

import "strings"

// DefaultCountryCode is the international prefix rewritten to the local trunk prefix.
const DefaultCountryCode = "254"

// NormalizePhone reduces a phone identity to its canonical local form:
// a leading "+<country>" or "<country>" becomes "0", and only digits
// (plus a leading '+') are retained.
func NormalizePhone(raw string) string {
	return normalizePhone(raw, DefaultCountryCode)
}

func normalizePhone(raw, countryCode string) string {
	s := strings.TrimSpace(raw)
	if countryCode != "" {
		switch {
		case strings.HasPrefix(s, "+"+countryCode):
			s = "0" + s[len(countryCode)+1:]
		case strings.HasPrefix(s, countryCode):
			s = "0" + s[len(countryCode):]
		}
	}

	var b strings.Builder
	b.Grow(len(s))
	for i, r := range s {
		if (r >= '0' && r <= '9') || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
