package tokenizer

import (
	"unicode/utf8"
)

// CharsPerToken is the rough character-to-token ratio used for English
// text by the synthesis models this server drives.
const CharsPerToken = 4

// CountTokens provides a rough token count estimate: the number of
// characters (runes) divided by CharsPerToken, rounded down.
func CountTokens(text string) int {
	return utf8.RuneCountInString(text) / CharsPerToken
}

// FitsBudget reports whether text stays within a token budget.
func FitsBudget(text string, budget int) bool {
	return CountTokens(text) <= budget
}
