package util

// Truncate shortens s to at most n runes, appending an ellipsis marker when
// it cuts. Used to keep log records and prompt snippets bounded.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
