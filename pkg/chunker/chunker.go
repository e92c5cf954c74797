package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nikhilbhutani/openmobiletts/pkg/tokenizer"
)

// DefaultMaxTokens keeps segments well under the 510 token window of
// Kokoro-class synthesis models.
const DefaultMaxTokens = 250

type Chunker interface {
	Chunk(text string) []string
}

type ChunkOptions struct {
	MaxTokens int // approximate token budget per segment
}

func DefaultOptions() ChunkOptions {
	return ChunkOptions{MaxTokens: DefaultMaxTokens}
}

type sentenceChunker struct {
	opts ChunkOptions
}

func New(opts ChunkOptions) Chunker {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	return &sentenceChunker{opts: opts}
}

// Chunk packs whole sentences into segments whose estimated token count
// stays within the budget. A sentence that alone exceeds the budget is
// emitted as its own segment and never split.
func (c *sentenceChunker) Chunk(text string) []string {
	var chunks []string
	var current strings.Builder

	for _, s := range SplitSentences(text) {
		if current.Len() > 0 {
			candidate := current.String() + " " + s
			if !tokenizer.FitsBudget(candidate, c.opts.MaxTokens) {
				chunks = append(chunks, current.String())
				current.Reset()
				current.WriteString(s)
				continue
			}
			current.WriteByte(' ')
		}
		current.WriteString(s)
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}

// SplitSentences splits text after '.', '!' or '?' when followed by
// whitespace. The whitespace run between sentences is dropped and empty
// sentences are skipped.
func SplitSentences(text string) []string {
	var sentences []string
	start := 0

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size
		if r != '.' && r != '!' && r != '?' {
			continue
		}

		end := i
		for i < len(text) {
			next, nsize := utf8.DecodeRuneInString(text[i:])
			if !unicode.IsSpace(next) {
				break
			}
			i += nsize
		}
		if i == end {
			continue
		}

		if s := strings.TrimSpace(text[start:end]); s != "" {
			sentences = append(sentences, s)
		}
		start = i
	}

	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}
