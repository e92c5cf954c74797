package tokenizer

import "testing"

func TestCountTokens(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"abc", 0},
		{"abcd", 1},
		{"abcdefghi", 2},
		{"éééé", 1},
	}

	for _, tt := range tests {
		if got := CountTokens(tt.in); got != tt.want {
			t.Fatalf("CountTokens(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFitsBudget(t *testing.T) {
	if !FitsBudget("abcdefgh", 2) {
		t.Fatal("8 runes should fit a budget of 2")
	}
	if FitsBudget("abcdefghijkl", 2) {
		t.Fatal("12 runes should not fit a budget of 2")
	}
}
