package eval

import (
	"fmt"
	"math"

	"github.com/verbalis-ai/verbalis/internal/eval/align"
	"github.com/verbalis-ai/verbalis/pkg/types"
)

// Scoring weights. Content words carry the sentence meaning and are weighted
// against the running total; function words and contractions only ever add
// credit, rewarding natural reduction without punishing its absence.
const (
	contentWeight      = 2.0
	chunkBaseline      = 2.0
	contractionCredit  = 2.5
	durationBonusRatio = 0.2
)

// Score evaluates the transcript against the target sentence and returns the
// percentage score, per-token highlights, and critical issues.
//
// userDuration and refDuration are the utterance and reference audio lengths
// in seconds; the pacing bonus applies when the speaker finished within the
// grace window of the reference.
//
// The only error condition is an alignment whose opcodes fail span
// validation, which indicates a bug in the aligner and is fatal for the
// caller.
func (s *Scorer) Score(target string, tr *types.Transcript, userDuration, refDuration float64) (Score, error) {
	if tr == nil {
		tr = &types.Transcript{}
	}

	targetToks := Tokenize(target)
	recToks := Tokenize(tr.Text)

	ops := align.Diff(targetToks, recToks)
	if err := align.Validate(ops, len(targetToks), len(recToks)); err != nil {
		return Score{}, fmt.Errorf("eval: alignment inconsistency: %w", err)
	}

	recSet := make(map[string]struct{}, len(recToks))
	for _, t := range recToks {
		recSet[t] = struct{}{}
	}

	w := &walker{
		target: targetToks,
		rec:    recToks,
		recSet: recSet,
		conf:   tr.Confidence,
	}
	for _, op := range ops {
		switch op.Tag {
		case align.TagEqual:
			w.scoreEqual(op)
		case align.TagReplace:
			w.scoreReplace(op)
		case align.TagDelete:
			for i := op.I1; i < op.I2; i++ {
				w.scoreAbsent(w.target[i])
			}
		case align.TagInsert:
			for j := op.J1; j < op.J2; j++ {
				w.highlights = append(w.highlights, Highlight{Kind: KindExtra, Recognized: w.rec[j]})
			}
		}
	}

	// Chunk baseline: every rhythm chunk widens the total, and earns its
	// credit as soon as any of its words was recognized. This keeps the total
	// positive for any non-empty target and anchors the score between "said
	// nothing" and "said every word perfectly".
	for _, chunk := range Chunks(target) {
		w.total += chunkBaseline
		for _, tok := range chunk {
			if _, ok := recSet[tok]; ok {
				w.score += chunkBaseline
				break
			}
		}
	}

	// Pacing bonus. Slow speech beyond the grace window forfeits the bonus
	// but is never penalized.
	if w.total > 0 && userDuration <= refDuration+s.graceSeconds {
		w.score += (w.score / w.total) * durationBonusRatio
	}

	percent := 0.0
	if w.total > 0 {
		percent = math.Round(w.score/w.total*1000) / 10
	}
	if percent > 100 {
		percent = 100
	}
	if percent < 0 {
		percent = 0
	}

	return Score{
		Percent:         percent,
		Highlights:      w.highlights,
		Issues:          w.issues,
		ContractionUsed: w.contractionUsed,
	}, nil
}

// walker accumulates score state across the opcode walk.
type walker struct {
	target []string
	rec    []string
	recSet map[string]struct{}
	conf   func(word string) float64

	score           float64
	total           float64
	highlights      []Highlight
	issues          []Issue
	contractionUsed bool
}

func (w *walker) recognized(tok string) bool {
	_, ok := w.recSet[tok]
	return ok
}

// scoreEqual credits every token of an equal run at full presence.
func (w *walker) scoreEqual(op align.Op) {
	for i := op.I1; i < op.I2; i++ {
		tok := w.target[i]
		if len(tok) > 1 {
			if IsFunctionWord(tok) {
				w.score += functionCredit(true, w.conf(tok))
			} else {
				w.total += contentWeight
				w.score += contentCredit(true, w.conf(tok))
			}
		}
		w.highlights = append(w.highlights, Highlight{Kind: KindOK, Target: tok, Recognized: tok})
	}
}

// scoreReplace pairs target and recognized tokens positionally within the
// replace span. Contraction matches take precedence: two-word lookahead
// first, then single-word, before any mismatch penalty. Span-length leftovers
// degrade to absent (target side) or extra (recognized side).
func (w *walker) scoreReplace(op align.Op) {
	i, j := op.I1, op.J1
	for i < op.I2 && j < op.J2 {
		if i+1 < op.I2 {
			if canonical, ok := CanonicalPhrase(w.target[i], w.target[i+1]); ok && MatchContraction(w.rec[j], canonical) {
				w.creditContraction(canonical, w.rec[j])
				i += 2
				j++
				continue
			}
		}
		if canonical, ok := w.singleWordPhrase(w.target[i], w.rec[j]); ok {
			w.creditContraction(canonical, w.rec[j])
			i++
			j++
			continue
		}

		tok, rec := w.target[i], w.rec[j]
		i++
		j++
		if len(tok) <= 1 {
			continue
		}
		if IsFunctionWord(tok) {
			w.score += functionCredit(w.recognized(tok), w.conf(tok))
			w.highlights = append(w.highlights, Highlight{Kind: KindMinorMismatch, Target: tok, Recognized: rec})
			continue
		}
		w.total += contentWeight
		w.score += contentCredit(w.recognized(tok), w.conf(tok))
		w.highlights = append(w.highlights, Highlight{Kind: KindMismatch, Target: tok, Recognized: rec})
		w.issues = append(w.issues, Issue{Target: tok, Recognized: rec})
	}
	for ; i < op.I2; i++ {
		w.scoreAbsent(w.target[i])
	}
	for ; j < op.J2; j++ {
		w.highlights = append(w.highlights, Highlight{Kind: KindExtra, Recognized: w.rec[j]})
	}
}

// singleWordPhrase reports whether rec is an accepted reduced form of a
// canonical phrase containing the single target token tok.
func (w *walker) singleWordPhrase(tok, rec string) (string, bool) {
	for _, canonical := range PhrasesWith(tok) {
		if MatchContraction(rec, canonical) {
			return canonical, true
		}
	}
	return "", false
}

func (w *walker) creditContraction(canonical, rec string) {
	w.contractionUsed = true
	w.highlights = append(w.highlights, Highlight{Kind: KindContraction, Target: canonical, Recognized: rec})
	if w.conf(rec) >= 0.6 {
		w.score += contractionCredit
	}
}

// scoreAbsent handles a target token with no recognized counterpart. Dropped
// function words are natural reduction; dropped content words are critical.
func (w *walker) scoreAbsent(tok string) {
	if len(tok) <= 1 {
		return
	}
	if IsFunctionWord(tok) {
		w.score += functionCredit(false, w.conf(tok))
		w.highlights = append(w.highlights, Highlight{Kind: KindOKOmitted, Target: tok})
		return
	}
	w.total += contentWeight
	w.score += contentCredit(false, w.conf(tok))
	w.highlights = append(w.highlights, Highlight{Kind: KindMissing, Target: tok})
	w.issues = append(w.issues, Issue{Target: tok})
}

// contentCredit awards credit for one content word. Full credit requires the
// word to be recognized verbatim with high confidence; partial credit tracks
// the confidence the recognizer reported for the token string.
func contentCredit(recognized bool, conf float64) float64 {
	switch {
	case recognized && conf >= 0.6:
		return 2.0
	case conf >= 0.55:
		return 1.8
	case conf >= 0.4:
		return 1.6
	default:
		return 0
	}
}

// functionCredit awards bonus credit for one function word. Present words
// earn more than absent ones, but a dropped function word with moderate
// confidence still earns partial credit — reduction is normal speech.
func functionCredit(present bool, conf float64) float64 {
	if present {
		switch {
		case conf >= 0.6:
			return 1.5
		case conf >= 0.5:
			return 1.2
		default:
			return 0
		}
	}
	if conf >= 0.4 {
		return 0.8
	}
	return 0
}
