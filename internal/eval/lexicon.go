package eval

import (
	"regexp"
	"strings"
)

// functionWords is the closed set of high-frequency grammatical words:
// articles, auxiliaries, modals, prepositions, conjunctions, and pronouns.
// Anything outside the set is a content word, except single-letter tokens,
// which are excluded from scoring entirely.
var functionWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {},
	"is": {}, "am": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
	"do": {}, "does": {}, "did": {},
	"have": {}, "has": {}, "had": {},
	"will": {}, "would": {}, "shall": {}, "should": {}, "can": {}, "could": {}, "may": {}, "might": {}, "must": {},
	"to": {}, "of": {}, "in": {}, "on": {}, "at": {}, "for": {}, "with": {}, "from": {}, "by": {},
	"and": {}, "but": {}, "or": {}, "so": {}, "because": {},
	"i": {}, "you": {}, "he": {}, "she": {}, "it": {}, "we": {}, "they": {},
	"me": {}, "him": {}, "her": {}, "us": {}, "them": {},
}

// IsFunctionWord reports whether token is in the closed function-word set.
// The token is expected to be lowercase (the tokenizer's output form).
func IsFunctionWord(token string) bool {
	_, ok := functionWords[token]
	return ok
}

// contractionPatterns maps each canonical multi-word phrase to the accepted
// reduced spoken forms. Patterns are written against tokenizer output, which
// strips apostrophes, so the apostrophe in each pattern is optional:
// "could've" and "couldve" both match.
var contractionPatterns = map[string][]string{
	"could have":  {`coulda`, `could'?ve`},
	"would have":  {`woulda`, `would'?ve`},
	"should have": {`shoulda`, `should'?ve`},
	"going to":    {`gon?na`},
	"want to":     {`wanna`},
	"let me":      {`lemme`},
	"give me":     {`gimme`},
	"i am":        {`i'?m`},
	"do not":      {`don'?t`},
}

var contractions = compileContractions()

// compiledPhrase is one canonical phrase with its accepted reduced forms.
type compiledPhrase struct {
	canonical string
	words     []string
	patterns  []*regexp.Regexp
}

func compileContractions() map[string]*compiledPhrase {
	out := make(map[string]*compiledPhrase, len(contractionPatterns))
	for canonical, pats := range contractionPatterns {
		cp := &compiledPhrase{
			canonical: canonical,
			words:     strings.Fields(canonical),
		}
		for _, p := range pats {
			cp.patterns = append(cp.patterns, regexp.MustCompile(`(?i)^(?:`+p+`)$`))
		}
		out[canonical] = cp
	}
	return out
}

// CanonicalPhrase reports whether the two adjacent target tokens form a known
// canonical phrase (e.g., "could", "have" → "could have"). Used by the scorer
// for two-word contraction lookahead.
func CanonicalPhrase(first, second string) (string, bool) {
	phrase := strings.ToLower(first) + " " + strings.ToLower(second)
	if _, ok := contractions[phrase]; ok {
		return phrase, true
	}
	return "", false
}

// MatchContraction reports whether token fully matches one of the accepted
// reduced forms of the canonical phrase, case-insensitively. Unknown phrases
// never match.
func MatchContraction(token, canonical string) bool {
	cp, ok := contractions[strings.ToLower(canonical)]
	if !ok {
		return false
	}
	for _, re := range cp.patterns {
		if re.MatchString(token) {
			return true
		}
	}
	return false
}

// PhrasesWith returns the canonical phrases containing token as one of their
// words, in deterministic order. Used by the scorer's single-word contraction
// fallback when two-word lookahead did not apply.
func PhrasesWith(token string) []string {
	token = strings.ToLower(token)
	var out []string
	for _, canonical := range contractionOrder {
		for _, w := range contractions[canonical].words {
			if w == token {
				out = append(out, canonical)
				break
			}
		}
	}
	return out
}

// contractionOrder fixes iteration order over the whitelist so scoring and
// feedback are deterministic run-to-run.
var contractionOrder = []string{
	"could have",
	"would have",
	"should have",
	"going to",
	"want to",
	"let me",
	"give me",
	"i am",
	"do not",
}
