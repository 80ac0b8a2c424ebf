package eval_test

import (
	"testing"

	"github.com/verbalis-ai/verbalis/internal/eval"
)

func TestChunks(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want [][]string
	}{
		{
			name: "no connectors",
			in:   "nice weather today",
			want: [][]string{{"nice", "weather", "today"}},
		},
		{
			name: "conjunction splits",
			in:   "I like tea and you like coffee",
			want: [][]string{
				{"i", "like", "tea"},
				{"and"},
				{"you", "like", "coffee"},
			},
		},
		{
			name: "preposition splits",
			in:   "she sells seashells by the seashore",
			want: [][]string{
				{"she", "sells", "seashells"},
				{"by"},
				{"the", "seashore"},
			},
		},
		{
			name: "contraction phrase stays together",
			in:   "I could have gone",
			want: [][]string{
				{"i"},
				{"could", "have"},
				{"gone"},
			},
		},
		{
			name: "empty input",
			in:   "",
			want: nil,
		},
		{
			name: "connector only",
			in:   "and",
			want: [][]string{{"and"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := eval.Chunks(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("Chunks(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range tt.want {
				if len(got[i]) != len(tt.want[i]) {
					t.Fatalf("Chunks(%q)[%d] = %v, want %v", tt.in, i, got[i], tt.want[i])
				}
				for j := range tt.want[i] {
					if got[i][j] != tt.want[i][j] {
						t.Errorf("Chunks(%q)[%d][%d] = %q, want %q", tt.in, i, j, got[i][j], tt.want[i][j])
					}
				}
			}
		})
	}
}
