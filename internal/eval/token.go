package eval

import "strings"

// Tokenize normalizes raw text into an ordered lowercase word sequence.
//
// Normalization: lowercase everything, strip quote and parenthesis characters,
// treat hyphens and slashes as separators, then extract maximal runs of
// letters. Digits and remaining punctuation are discarded. Order is preserved
// and duplicates are kept; empty input yields an empty sequence.
func Tokenize(text string) []string {
	text = strings.ToLower(text)

	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z':
			cur.WriteRune(r)
		case r == '"' || r == '\'' || r == '(' || r == ')':
			// Stripped entirely: "don't" tokenizes as "dont", not "don", "t".
		default:
			flush()
		}
	}
	flush()
	return tokens
}
