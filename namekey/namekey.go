// Package namekey compares character names despite formatting drift between
// the views and the selection modal of the Buckler profile pages.
//
// A key is the upper-case projection of a name onto ASCII letters and digits:
// "J.P." becomes "JP", "Zangief" becomes "ZANGIEF". Full-width forms are
// folded first so that "ＪＰ" and "JP" share a key.
package namekey

import (
	"strings"

	"golang.org/x/text/width"
)

// shortKeyLen is the longest target key that only matches exactly.
// Two-letter names ("ED", "JP") occur inside many unrelated strings
// ("RANKED", "JA-JP").
const shortKeyLen = 2

// maxExtra bounds how much longer than the target a candidate may be.
const maxExtra = 10

// Normalize returns the comparison key for text.
func Normalize(text string) string {
	text = width.Fold.String(text)
	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z':
			sb.WriteRune(r - 'a' + 'A')
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Matches reports whether candidate designates the same character as target.
// Both arguments must already be keys.
//
// Targets of up to two characters require exact equality. Longer targets
// match any candidate containing them, provided the candidate is fewer than
// ten characters longer (costume or mode suffixes are tolerated, whole
// paragraphs that happen to contain the name are not).
func Matches(candidate, target string) bool {
	if target == "" {
		return false
	}
	if len(target) <= shortKeyLen {
		return candidate == target
	}
	return strings.Contains(candidate, target) && len(candidate) < len(target)+maxExtra
}

// Equal reports whether a and b normalize to the same key.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
