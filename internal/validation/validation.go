package validation

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// OperatorPattern defines the valid operator identity format.
var OperatorPattern = regexp.MustCompile(`^[A-Za-z0-9._@-]{1,64}$`)

// ActionPattern defines the valid audit action name: lowercase letters, digits, underscores.
var ActionPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,31}$`)

// Field limits for lead input, in runes.
const (
	MaxNameLen    = 200
	MaxAddressLen = 500
	MaxSourceLen  = 100
	MaxPhoneLen   = 40
	MaxNoteLen    = 2000
	MaxQueryLen   = 100
)

// ValidateOperator checks if an operator identity matches the allowed pattern.
func ValidateOperator(operator string) bool {
	return OperatorPattern.MatchString(operator)
}

// ValidateAction checks if an audit action name matches the allowed pattern.
func ValidateAction(action string) bool {
	return ActionPattern.MatchString(action)
}

// ValidateLead checks lead input fields. Only the name is required; phone and
// address may be empty because routing accepts any input.
func ValidateLead(name, phone, address, source string) (bool, string) {
	if strings.TrimSpace(name) == "" {
		return false, "Name is required"
	}
	if utf8.RuneCountInString(name) > MaxNameLen {
		return false, "Name is too long"
	}
	if utf8.RuneCountInString(phone) > MaxPhoneLen {
		return false, "Phone is too long"
	}
	if utf8.RuneCountInString(address) > MaxAddressLen {
		return false, "Address is too long"
	}
	if utf8.RuneCountInString(source) > MaxSourceLen {
		return false, "Source is too long"
	}
	return true, ""
}

// ValidateNote checks a note body.
func ValidateNote(body string) (bool, string) {
	if strings.TrimSpace(body) == "" {
		return false, "Note is required"
	}
	if utf8.RuneCountInString(body) > MaxNoteLen {
		return false, "Note is too long"
	}
	return true, ""
}

// NormalizeQuery trims a search query, collapses inner whitespace and
// truncates it to MaxQueryLen runes.
func NormalizeQuery(q string) string {
	q = strings.Join(strings.Fields(q), " ")
	if utf8.RuneCountInString(q) > MaxQueryLen {
		q = string([]rune(q)[:MaxQueryLen])
	}
	return q
}

// ValidateURL checks if a URL is valid and uses an allowed scheme (http/https only).
// This prevents javascript:, data:, vbscript:, and other dangerous URL schemes.
func ValidateURL(urlStr string) (bool, string) {
	if urlStr == "" {
		return false, "URL is required"
	}

	u, err := url.Parse(urlStr)
	if err != nil {
		return false, "Invalid URL format"
	}

	// Check scheme - only allow http and https
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false, "URL must use http:// or https:// scheme"
	}

	if u.Host == "" {
		return false, "URL must have a valid host"
	}

	return true, ""
}
