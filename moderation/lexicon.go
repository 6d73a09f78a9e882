// Package moderation implements the final guardrail stage: transcript
// synthesis into a bilingual payload, a safety check on the secondary
// field, and a templated fallback when either one fails.
package moderation

import (
	"strings"
	"unicode"
)

// offensiveTerms are the lowercase terms treated as abusive in user input
// and redacted from fallback output. The list mirrors what the support
// tool servers flag.
var offensiveTerms = []string{
	"idiota",
	"estupido",
	"estúpido",
	"imbecil",
	"imbécil",
	"tonto",
	"inutil",
	"inútil",
	"basura",
	"mierda",
	"maldito",
	"stupid",
	"idiot",
	"useless",
	"garbage",
}

// ContainsOffensive reports whether the text contains any flagged term.
func ContainsOffensive(text string) bool {
	lower := strings.ToLower(text)
	for _, term := range offensiveTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// Sanitize masks flagged terms in the text, one asterisk per masked rune.
// The scan is rune-wise: case folding can change byte lengths, so byte
// offsets into the lowercased text must never index the original.
func Sanitize(text string) string {
	runes := []rune(text)
	lower := make([]rune, len(runes))
	for i, r := range runes {
		lower[i] = unicode.ToLower(r)
	}

	var b strings.Builder
	for i := 0; i < len(runes); {
		if n := matchTermAt(lower[i:]); n > 0 {
			b.WriteString(strings.Repeat("*", n))
			i += n
			continue
		}
		b.WriteRune(runes[i])
		i++
	}
	return b.String()
}

// matchTermAt returns the rune length of the flagged term starting at the
// head of s, or zero if none matches.
func matchTermAt(s []rune) int {
	for _, term := range offensiveTerms {
		tr := []rune(term)
		if len(tr) > len(s) {
			continue
		}
		matched := true
		for i, r := range tr {
			if s[i] != r {
				matched = false
				break
			}
		}
		if matched {
			return len(tr)
		}
	}
	return 0
}
