// Package audit masks lifecycle events and forwards them to the persistent
// audit trail. Masking is best-effort and pattern-based, not a
// cryptographic guarantee: it exists to keep obviously sensitive values out
// of the log, not to sanitize adversarial input.
package audit

import (
	"regexp"
	"strings"
)

const (
	maskedMarker = "[MASKED]"
	emailMarker  = "[EMAIL]"
	cardMarker   = "[CARD]"
)

// sensitiveTerms triggers wholesale value replacement when any term appears
// in a key (case-insensitive substring match).
var sensitiveTerms = []string{
	"password", "token", "key", "secret", "credential", "auth",
	"ssn", "account", "email", "phone", "card",
}

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

	// 13-19 digits, optionally grouped in blocks of 4 by space or hyphen
	cardPattern = regexp.MustCompile(`\b(?:\d[ \-]?){12,18}\d\b`)
)

// isSensitiveKey reports whether a detail key warrants wholesale masking
func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, term := range sensitiveTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// maskString redacts email-shaped and card-shaped substrings in a value
func maskString(value string) string {
	value = emailPattern.ReplaceAllString(value, emailMarker)
	value = cardPattern.ReplaceAllStringFunc(value, func(match string) string {
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, match)
		if len(digits) < 13 || len(digits) > 19 {
			return match
		}
		return cardMarker
	})
	return value
}

// MaskDetails returns a masked copy of the given details map. Values under
// sensitive keys are replaced wholesale; remaining string values (including
// nested maps and string slices) have email and card shapes redacted. The
// input map is not modified.
func MaskDetails(details map[string]interface{}) map[string]interface{} {
	if details == nil {
		return nil
	}
	masked := make(map[string]interface{}, len(details))
	for key, value := range details {
		if isSensitiveKey(key) {
			masked[key] = maskedMarker
			continue
		}
		masked[key] = maskValue(value)
	}
	return masked
}

func maskValue(value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		return maskString(v)
	case []string:
		out := make([]string, len(v))
		for i, s := range v {
			out[i] = maskString(s)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = maskValue(item)
		}
		return out
	case map[string]interface{}:
		return MaskDetails(v)
	default:
		return v
	}
}
