package textproc

import "regexp"

type abbreviation struct {
	pattern     *regexp.Regexp
	replacement string
}

func abbrev(word, replacement string) abbreviation {
	return abbreviation{
		pattern:     regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word)),
		replacement: replacement,
	}
}

// abbreviations is applied in order. Entries only match at a word start,
// so "Mr." never matches inside "Mrs.".
var abbreviations = []abbreviation{
	abbrev("Dr.", "Doctor"),
	abbrev("Mr.", "Mister"),
	abbrev("Mrs.", "Missus"),
	abbrev("Ms.", "Miss"),
	abbrev("Prof.", "Professor"),
	abbrev("Sr.", "Senior"),
	abbrev("Jr.", "Junior"),
	abbrev("Inc.", "Incorporated"),
	abbrev("Ltd.", "Limited"),
	abbrev("Co.", "Company"),
	abbrev("Corp.", "Corporation"),
	abbrev("Ave.", "Avenue"),
	abbrev("St.", "Street"),
	abbrev("Rd.", "Road"),
	abbrev("Blvd.", "Boulevard"),
	abbrev("etc.", "et cetera"),
	abbrev("e.g.", "for example"),
	abbrev("i.e.", "that is"),
	abbrev("vs.", "versus"),
}

func expandAbbreviations(text string) string {
	for _, a := range abbreviations {
		text = a.pattern.ReplaceAllLiteralString(text, a.replacement)
	}
	return text
}
