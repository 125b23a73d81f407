// Package phone turns noisy phone strings into digit strings.
package phone

import "strings"

// Normalize drops every character that is not an ASCII decimal digit.
// Any input is accepted; the result may be empty.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if ch := raw[i]; ch >= '0' && ch <= '9' {
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// HasAnyPrefix reports whether digits starts with any non-empty prefix.
func HasAnyPrefix(digits string, prefixes ...string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(digits, p) {
			return true
		}
	}
	return false
}

// National strips the trunk prefix if present, otherwise the calling code if
// present. Digits that carry neither are returned unchanged.
func National(digits, trunk, callingCode string) string {
	if trunk != "" && strings.HasPrefix(digits, trunk) {
		return digits[len(trunk):]
	}
	if callingCode != "" && strings.HasPrefix(digits, callingCode) {
		return digits[len(callingCode):]
	}
	return digits
}
