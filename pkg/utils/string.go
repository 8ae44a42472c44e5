package utils

// Truncate shortens s to maxLen runes, appending "..." when it cuts.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
