package booking

import "strings"

// NormalizePhone strips punctuation from a phone number and formats
// exactly ten digits as XXX-XXX-XXXX. Any other digit count passes
// through as entered.
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 10 {
		return digits[:3] + "-" + digits[3:6] + "-" + digits[6:]
	}
	return raw
}

// SplitName separates a free-text customer name into first and last parts:
// first token is the first name, the remainder the last name. Either part
// may come back empty.
func SplitName(fullName string) (first, last string) {
	parts := strings.Fields(fullName)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
