package utils

import "unicode/utf8"

// Truncate shortens s to at most max bytes, ending with suffix when cut. It
// never splits a UTF-8 sequence.
func Truncate(s string, max int, suffix string) string {
	if len(s) <= max {
		return s
	}
	cut := max - len(suffix)
	if cut < 0 {
		return ""
	}
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + suffix
}
