package textproc

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/divan/num2words"
)

// digitRun matches candidate numbers. RE2's \b only knows ASCII word
// characters, so standalone-ness is checked against the neighbouring runes.
var digitRun = regexp.MustCompile(`\d{1,4}`)

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// numbersToWords spells out digit runs of up to four digits bounded by
// non-word characters. Longer runs (IDs, phone numbers) are left alone.
func numbersToWords(text string) string {
	matches := digitRun.FindAllStringIndex(text, -1)
	if matches == nil {
		return text
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start > 0 {
			if r, _ := utf8.DecodeLastRuneInString(text[:start]); isWordRune(r) {
				continue
			}
		}
		if end < len(text) {
			if r, _ := utf8.DecodeRuneInString(text[end:]); isWordRune(r) {
				continue
			}
		}

		n, err := strconv.Atoi(text[start:end])
		if err != nil {
			continue
		}
		b.WriteString(text[last:start])
		b.WriteString(num2words.ConvertAnd(n))
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}
