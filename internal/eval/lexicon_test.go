package eval_test

import (
	"testing"

	"github.com/verbalis-ai/verbalis/internal/eval"
)

func TestIsFunctionWord(t *testing.T) {
	t.Parallel()
	tests := []struct {
		token string
		want  bool
	}{
		{"the", true},
		{"could", true},
		{"because", true},
		{"they", true},
		{"weather", false},
		{"running", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := eval.IsFunctionWord(tt.token); got != tt.want {
			t.Errorf("IsFunctionWord(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}

func TestCanonicalPhrase(t *testing.T) {
	t.Parallel()
	tests := []struct {
		first, second string
		want          string
		ok            bool
	}{
		{"could", "have", "could have", true},
		{"going", "to", "going to", true},
		{"let", "me", "let me", true},
		{"Could", "Have", "could have", true},
		{"have", "could", "", false},
		{"nice", "weather", "", false},
	}
	for _, tt := range tests {
		got, ok := eval.CanonicalPhrase(tt.first, tt.second)
		if got != tt.want || ok != tt.ok {
			t.Errorf("CanonicalPhrase(%q, %q) = (%q, %v), want (%q, %v)",
				tt.first, tt.second, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMatchContraction(t *testing.T) {
	t.Parallel()
	tests := []struct {
		token     string
		canonical string
		want      bool
	}{
		{"coulda", "could have", true},
		{"Coulda", "could have", true},
		// Tokenizer output strips the apostrophe, so both spellings match.
		{"could've", "could have", true},
		{"couldve", "could have", true},
		{"gonna", "going to", true},
		{"gona", "going to", true},
		{"wanna", "want to", true},
		{"lemme", "let me", true},
		{"gimme", "give me", true},
		{"im", "i am", true},
		{"dont", "do not", true},
		{"could", "could have", false},
		{"couldawesome", "could have", false},
		{"coulda", "would have", false},
		{"coulda", "no such phrase", false},
	}
	for _, tt := range tests {
		if got := eval.MatchContraction(tt.token, tt.canonical); got != tt.want {
			t.Errorf("MatchContraction(%q, %q) = %v, want %v", tt.token, tt.canonical, got, tt.want)
		}
	}
}

func TestPhrasesWith(t *testing.T) {
	t.Parallel()
	tests := []struct {
		token string
		want  []string
	}{
		{"could", []string{"could have"}},
		{"have", []string{"could have", "would have", "should have"}},
		{"me", []string{"let me", "give me"}},
		{"to", []string{"going to", "want to"}},
		{"weather", nil},
	}
	for _, tt := range tests {
		got := eval.PhrasesWith(tt.token)
		if len(got) != len(tt.want) {
			t.Errorf("PhrasesWith(%q) = %v, want %v", tt.token, got, tt.want)
			continue
		}
		for i := range tt.want {
			if got[i] != tt.want[i] {
				t.Errorf("PhrasesWith(%q)[%d] = %q, want %q", tt.token, i, got[i], tt.want[i])
			}
		}
	}
}
