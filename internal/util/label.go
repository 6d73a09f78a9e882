package util

import "strings"

// labelPrefixes are decorations models prepend to single-word answers.
var labelPrefixes = []string{"action:", "answer:", "tool:", "label:", "decision:"}

// CleanLabel normalizes a model's single-word answer: code fences, quotes,
// backticks, and common prefixes are stripped, and only the first token of
// the first line survives, lowercased.
func CleanLabel(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "`")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, prefix := range labelPrefixes {
		if strings.HasPrefix(lower, prefix) {
			s = strings.TrimSpace(s[len(prefix):])
			break
		}
	}
	s = strings.Trim(s, "\"'` .")
	if fields := strings.Fields(s); len(fields) > 0 {
		s = fields[0]
	}
	return strings.ToLower(s)
}
