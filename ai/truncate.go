package ai

import "unicode/utf8"

// Truncate cuts text to at most max characters.
// The cut is a pure prefix, so the same input always yields the same output.
// A max of zero or less returns text unchanged.
func Truncate(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}

	count := 0
	for i := range text {
		if count == max {
			return text[:i]
		}
		count++
	}
	return text
}
