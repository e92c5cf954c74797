package textproc

import (
	"strings"
	"testing"

	"github.com/nikhilbhutani/openmobiletts/pkg/chunker"
	"github.com/nikhilbhutani/openmobiletts/pkg/tokenizer"
)

func TestNormalizeScenarios(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		absent   []string
	}{
		{
			name:     "abbreviation and number",
			input:    "Dr. Smith has 42 cats.",
			contains: []string{"Doctor Smith has forty-two cats."},
		},
		{
			name:     "titles and corporate suffix",
			input:    "Dr. Smith and Mr. Jones work at ABC Inc.",
			contains: []string{"Doctor", "Mister", "Incorporated"},
			absent:   []string{"Dr.", "Mr.", "Inc."},
		},
		{
			name:     "case insensitive whole word",
			input:    "ask dr. who, e.g. the one on TV, etc.",
			contains: []string{"Doctor who", "for example", "et cetera"},
		},
		{
			name:     "page number artifact",
			input:    "end of the page.\n\n12\n\nNext page starts here.",
			contains: []string{"end of the page. Next page starts here."},
			absent:   []string{"twelve", "12"},
		},
		{
			name:     "de-hyphenation",
			input:    "we will con-\ntinue tomorrow",
			contains: []string{"we will continue tomorrow"},
		},
		{
			name:     "long digit runs untouched",
			input:    "Order 123456 shipped in 3 boxes",
			contains: []string{"Order 123456 shipped in three boxes"},
		},
		{
			name:     "compatibility characters folded",
			input:    "the \ufb01le is ready",
			contains: []string{"the file is ready"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Fatalf("Normalize(%q) = %q, want it to contain %q", tt.input, got, want)
				}
			}
			for _, bad := range tt.absent {
				if strings.Contains(got, bad) {
					t.Fatalf("Normalize(%q) = %q, must not contain %q", tt.input, got, bad)
				}
			}
		})
	}
}

func TestNumbersToWordsBoundaries(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"42 cats", "forty-two cats"},
		{"(7)", "(seven)"},
		{"café7 x", "café7 x"},
		{"7é x", "7é x"},
		{"room_12", "room_12"},
		{"12345", "12345"},
		{"v2 and 2", "v2 and two"},
	}

	for _, tt := range tests {
		if got := numbersToWords(tt.in); got != tt.want {
			t.Errorf("numbersToWords(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	got := Normalize("Too    many     spaces")
	if got != "Too many spaces" {
		t.Fatalf("got %q", got)
	}

	got = Normalize("  leading\n\n\n\ntrailing\t\t ")
	if got != "leading trailing" {
		t.Fatalf("got %q", got)
	}
}

var corpus = []string{
	"Dr. Smith has 42 cats.",
	"Hello world. This is a test! Is it working? Yes.",
	"Chapter 1\n\nIt was a dark and stormy night; the rain fell in tor-\nrents.\n\n\n\n7\n\nExcept at occasional intervals.",
	"Prof. Plum vs. Mrs. Peacock at 221 Baker St. in 1887, i.e. long ago.",
	"",
	"   ",
	"Ref 99999 and 0042 and 7.",
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, in := range corpus {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Fatalf("not idempotent for %q:\n once:  %q\n twice: %q", in, once, twice)
		}
	}
}

func TestProcessReconstructsNormalizedText(t *testing.T) {
	p := NewPreprocessor(12)
	for _, in := range corpus {
		normalized := p.Normalize(in)
		segments := p.Chunk(normalized)
		if got := strings.Join(segments, " "); got != normalized {
			t.Fatalf("reconstruction mismatch for %q:\n got:  %q\n want: %q", in, got, normalized)
		}
	}
}

func TestProcessTokenBudget(t *testing.T) {
	const budget = 10
	p := NewPreprocessor(budget)
	text := strings.Repeat("The quick brown fox jumps. It lands softly! ", 20) +
		"This one sentence is deliberately far longer than the configured token budget allows for."

	segments := p.Process(text)
	if len(segments) < 2 {
		t.Fatalf("expected several segments, got %d", len(segments))
	}
	for i, seg := range segments {
		if tokenizer.CountTokens(seg) <= budget {
			continue
		}
		if n := len(chunker.SplitSentences(seg)); n != 1 {
			t.Fatalf("segment %d exceeds budget with %d sentences: %q", i, n, seg)
		}
	}
}

func TestProcessEmpty(t *testing.T) {
	p := NewPreprocessor(250)
	if got := p.Process(""); len(got) != 0 {
		t.Fatalf("expected no segments, got %v", got)
	}
	if got := p.Process(" \n\t "); len(got) != 0 {
		t.Fatalf("expected no segments, got %v", got)
	}
}

func TestProcessPipeline(t *testing.T) {
	p := NewPreprocessor(100)
	chunks := p.Process("Dr. Smith said, 'Hello.'   Mr. Jones replied.")
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	combined := strings.Join(chunks, " ")
	if !strings.Contains(combined, "Doctor") || !strings.Contains(combined, "Mister") {
		t.Fatalf("abbreviations not expanded: %q", combined)
	}
}
