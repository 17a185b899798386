package utils

import "strings"

// TruncateForLog trims s and cuts it to limit runes, marking the cut with an ellipsis.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	cut := TruncateRunes(s, limit)
	if cut == "" || cut == s {
		return cut
	}
	return cut + "..."
}

// TruncateRunes cuts s to at most limit runes without any marker.
func TruncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
