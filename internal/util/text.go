package util

import "strings"

// SanitizeText drops invalid UTF-8, NUL and the C0 control characters that
// XML 1.0 rejects. Tab, newline and carriage return are kept.
func SanitizeText(value string) string {
	if value == "" {
		return value
	}

	value = strings.ToValidUTF8(value, "")
	return strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, value)
}
