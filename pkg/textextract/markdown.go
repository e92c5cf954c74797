package textextract

import (
	"regexp"
	"strings"
)

var markdownRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?m)^#{1,6}[ \t]+`), ""},       // heading markers
	{regexp.MustCompile(`\*{1,2}([^*]+)\*{1,2}`), "$1"}, // bold / italic
	{regexp.MustCompile(`_{1,2}([^_]+)_{1,2}`), "$1"},   // bold / italic
	{regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`), "$1"}, // links keep their label
	{regexp.MustCompile("`([^`]+)`"), "$1"},             // inline code
	{regexp.MustCompile(`(?m)^[-*_]{3,}[ \t]*$`), ""},   // horizontal rules
	{regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`), ""},  // bullet markers
	{regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]+`), ""},  // numbered list markers
	{regexp.MustCompile(`\n{3,}`), "\n\n"},
	{regexp.MustCompile(` {2,}`), " "},
}

// MarkdownToPlain strips markdown syntax so only speakable text is left.
// Paragraph breaks survive as blank lines.
func MarkdownToPlain(md string) string {
	text := md
	for _, r := range markdownRules {
		text = r.re.ReplaceAllString(text, r.repl)
	}
	return strings.TrimSpace(text)
}
