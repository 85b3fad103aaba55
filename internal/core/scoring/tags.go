package scoring

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// DefaultTags stands in for users without stored preferences. The words are
// common in positive Korean reviews so matching never runs without signal.
var DefaultTags = []string{"좋", "추천", "만족", "아이", "가족", "재미"}

// Fold canonicalizes text for matching: NFC composition (so decomposed
// Hangul jamo compare equal to syllables) followed by root-locale lower
// casing, the same mapping ILIKE applies ("ß" stays "ß").
func Fold(s string) string {
	return cases.Lower(language.Und).String(norm.NFC.String(s))
}

// NormalizeTag strips the leading '#' used by the tag catalogue, trims
// whitespace and folds the result.
func NormalizeTag(tag string) string {
	tag = strings.TrimSpace(tag)
	tag = strings.TrimLeft(tag, "#")
	return Fold(strings.TrimSpace(tag))
}

// NormalizeTags normalizes, de-duplicates and drops empty tags, keeping
// first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		n := NormalizeTag(t)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// ContainsAny reports whether text contains at least one of the already
// normalized tags as a substring, ignoring case.
func ContainsAny(text string, normalizedTags []string) bool {
	folded := Fold(text)
	for _, t := range normalizedTags {
		if t != "" && strings.Contains(folded, t) {
			return true
		}
	}
	return false
}

// ContainsFold reports whether text contains sub, ignoring case.
func ContainsFold(text, sub string) bool {
	return strings.Contains(Fold(text), Fold(sub))
}
