// Package textproc prepares raw user or document text for speech synthesis:
// it normalizes the text into a speakable form and cuts it into segments
// small enough for a single synthesis request.
package textproc

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/nikhilbhutani/openmobiletts/pkg/chunker"
)

var (
	pageNumberLine  = regexp.MustCompile(`\n\s*\d+\s*\n`)
	whitespaceRun   = regexp.MustCompile(`\s{3,}`)
	newlineRun      = regexp.MustCompile(`\n{3,}`)
	hyphenLineBreak = regexp.MustCompile(`-\n`)
)

// Preprocessor normalizes and chunks text. It holds no mutable state and
// is safe for concurrent use.
type Preprocessor struct {
	chunker chunker.Chunker
}

func NewPreprocessor(maxChunkTokens int) *Preprocessor {
	return &Preprocessor{
		chunker: chunker.New(chunker.ChunkOptions{MaxTokens: maxChunkTokens}),
	}
}

// Normalize returns a speakable, single-line form of text.
func (p *Preprocessor) Normalize(text string) string {
	return Normalize(text)
}

// Chunk splits already normalized text into synthesis segments.
func (p *Preprocessor) Chunk(text string) []string {
	return p.chunker.Chunk(text)
}

// Process normalizes text and splits it into segments.
func (p *Preprocessor) Process(text string) []string {
	return p.Chunk(p.Normalize(text))
}

// Normalize folds compatibility characters, strips PDF artifacts, expands
// abbreviations and small numbers, and collapses whitespace.
func Normalize(text string) string {
	text = norm.NFKC.String(text)

	text = pageNumberLine.ReplaceAllString(text, "\n")
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = newlineRun.ReplaceAllString(text, "\n\n")

	text = hyphenLineBreak.ReplaceAllString(text, "")

	text = expandAbbreviations(text)
	text = numbersToWords(text)

	return strings.Join(strings.Fields(text), " ")
}
