package eval

import (
	"regexp"
	"strings"
)

// connectorPatterns mark the words a fluent speaker tends to pause or regroup
// before: coordinating conjunctions, contraction-trigger phrases, and simple
// prepositions. Boundary markers are inserted before each match and the
// sentence is split on those markers.
var connectorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(and|but|or|so|because)\b`),
	regexp.MustCompile(`\b(could have|would have|should have|going to|want to|let me|give me)\b`),
	regexp.MustCompile(`\b(in|on|at|for|with|from|by|to|of)\b`),
}

const chunkMarker = "@@"

// Chunks splits the target sentence into rhythm-based chunks and tokenizes
// each one. Empty chunks are dropped, so any non-empty sentence yields at
// least one chunk.
func Chunks(text string) [][]string {
	text = strings.ToLower(text)
	for _, re := range connectorPatterns {
		text = re.ReplaceAllString(text, chunkMarker+"$1"+chunkMarker)
	}

	var chunks [][]string
	for _, raw := range strings.Split(text, chunkMarker) {
		toks := Tokenize(raw)
		if len(toks) > 0 {
			chunks = append(chunks, toks)
		}
	}
	return chunks
}
