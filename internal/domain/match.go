package domain

import "strings"

// NormalizeAnswer lowercases s and strips every character that is not an
// ASCII letter, digit, or underscore. Punctuation and whitespace are both
// dropped, so multi-word titles collapse into a single run-on token
// ("The Hunger Games" -> "thehungergames"). Word-boundary differences
// therefore never cause a false negative.
func NormalizeAnswer(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_':
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// CheckGuess reports whether guess equals the canonical answer or any of
// the alternatives after normalization. Comparison is exact equality; no
// fuzzy matching, no partial credit. Callers are expected to filter out
// blank input before calling.
func CheckGuess(guess, answer string, alternatives []string) bool {
	normalized := NormalizeAnswer(guess)
	if normalized == NormalizeAnswer(answer) {
		return true
	}
	for _, alt := range alternatives {
		if normalized == NormalizeAnswer(alt) {
			return true
		}
	}
	return false
}
