package pipeline

import "unicode/utf8"

// EstimateTokens provides a fast token count estimate of the scraped content.
//
// Heuristic: utf8 rune count / 3, a middle ground between English (~4
// chars/token) and CJK (~1.5 chars/token) text.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	est := n / 3
	if est < 1 {
		return 1
	}
	return est
}
