package util

import "strings"

// TruncateString truncates a string to maxRunes characters (rune-based, not byte-based)
// If truncated, appends "..." to the result
func TruncateString(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "..."
}

// Pluralize appends "s" to noun unless n is exactly one.
func Pluralize(n int, noun string) string {
	if n == 1 {
		return noun
	}
	return noun + "s"
}

// Deref returns the pointed-to string with surrounding space trimmed, or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// StringPtr returns nil for blank input so optional fields stay absent.
func StringPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
