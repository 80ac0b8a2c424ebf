// Package eval implements the pronunciation evaluation engine: tokenization,
// word-importance classification, contraction handling, confidence-weighted
// scoring over an alignment of target and recognized tokens, and feedback
// synthesis.
//
// The entry point is [Scorer.Score], which produces a [Score] from a target
// sentence and a recognition transcript. [ComposeFeedback] turns a Score into
// ordered natural-language coaching lines. Both are deterministic: the same
// inputs always produce the same highlights, issues, and text.
package eval

// HighlightKind classifies one token-level agreement or discrepancy.
type HighlightKind string

const (
	// KindOK marks a target token recognized verbatim.
	KindOK HighlightKind = "ok"
	// KindOKOmitted marks a function word the speaker dropped; natural
	// reduction, no penalty.
	KindOKOmitted HighlightKind = "ok_omitted"
	// KindMismatch marks a content word recognized as something else.
	// Tracked as a critical issue.
	KindMismatch HighlightKind = "mismatch"
	// KindMinorMismatch marks a function word recognized as something else.
	KindMinorMismatch HighlightKind = "minor_mismatch"
	// KindMissing marks a content word absent from the recognition.
	// Tracked as a critical issue.
	KindMissing HighlightKind = "missing"
	// KindExtra marks a recognized token with no target counterpart.
	KindExtra HighlightKind = "extra"
	// KindContraction marks a whitelisted reduced form (e.g. "coulda" for
	// "could have"); rewarded, never penalized.
	KindContraction HighlightKind = "contraction"
)

// Highlight annotates one scored token (or canonical phrase, for
// contractions). The highlight list follows target token order so callers can
// render it alongside the target sentence.
type Highlight struct {
	Kind       HighlightKind `json:"kind"`
	Target     string        `json:"target"`
	Recognized string        `json:"recognized"`
}

// Issue is one critical discrepancy: a content word that was missing or
// misrecognized. Recognized is empty when the word was not heard at all.
type Issue struct {
	Target     string `json:"target"`
	Recognized string `json:"recognized"`
}

// Score is the outcome of scoring one utterance against one target sentence.
type Score struct {
	// Percent is the final pronunciation score in [0, 100], rounded to one
	// decimal place.
	Percent float64 `json:"percent"`

	// Highlights annotate every scored token in target order.
	Highlights []Highlight `json:"highlights"`

	// Issues lists the critical content-word problems in target order.
	Issues []Issue `json:"issues"`

	// ContractionUsed is true when at least one whitelisted contraction was
	// recognized.
	ContractionUsed bool `json:"contraction_used"`
}

// Option is a functional option for configuring a Scorer.
type Option func(*Scorer)

// WithGraceSeconds sets the pacing grace window: the duration bonus applies
// when the utterance is at most this many seconds longer than the reference.
// Defaults to 5 s.
func WithGraceSeconds(s float64) Option {
	return func(sc *Scorer) { sc.graceSeconds = s }
}

// Scorer evaluates utterances. The zero value is not usable; construct with
// [NewScorer]. A Scorer is stateless between calls and safe for concurrent
// use.
type Scorer struct {
	graceSeconds float64
}

// NewScorer creates a Scorer with the default pacing grace window.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{graceSeconds: 5}
	for _, o := range opts {
		o(s)
	}
	return s
}
