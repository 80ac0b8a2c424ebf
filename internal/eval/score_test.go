package eval_test

import (
	"testing"

	"github.com/verbalis-ai/verbalis/internal/eval"
	"github.com/verbalis-ai/verbalis/pkg/types"
)

// transcript builds a Transcript whose every word carries the same confidence.
func transcript(text string, conf float64) *types.Transcript {
	wc := make(map[string]float64)
	for _, tok := range eval.Tokenize(text) {
		wc[tok] = conf
	}
	return &types.Transcript{Text: text, WordConfidence: wc}
}

func kinds(hs []eval.Highlight) []eval.HighlightKind {
	out := make([]eval.HighlightKind, len(hs))
	for i, h := range hs {
		out[i] = h.Kind
	}
	return out
}

func TestScore_PerfectUtterance(t *testing.T) {
	t.Parallel()
	s := eval.NewScorer()
	target := "She sells seashells by the seashore"

	sc, err := s.Score(target, transcript(target, 0.9), 3.0, 3.0)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if sc.Percent != 100.0 {
		t.Errorf("Percent = %v, want 100.0", sc.Percent)
	}
	if len(sc.Issues) != 0 {
		t.Errorf("Issues = %v, want none", sc.Issues)
	}
	if len(sc.Highlights) != 6 {
		t.Fatalf("got %d highlights, want 6", len(sc.Highlights))
	}
	for _, h := range sc.Highlights {
		if h.Kind != eval.KindOK {
			t.Errorf("highlight %v: kind = %q, want %q", h, h.Kind, eval.KindOK)
		}
	}
}

func TestScore_ApostropheTarget(t *testing.T) {
	t.Parallel()
	s := eval.NewScorer()
	target := "Don't worry"

	// Verbatim recognition of an apostrophe-bearing word must score full
	// credit: the confidence map is keyed by the normalized token ("dont").
	sc, err := s.Score(target, transcript(target, 0.9), 1.0, 1.0)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if sc.Percent != 100.0 {
		t.Errorf("Percent = %v, want 100.0", sc.Percent)
	}
	if len(sc.Issues) != 0 {
		t.Errorf("Issues = %v, want none", sc.Issues)
	}
}

func TestScore_EmptyRecognition(t *testing.T) {
	t.Parallel()
	s := eval.NewScorer()

	sc, err := s.Score("She sells seashells by the seashore", &types.Transcript{}, 0, 0)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if sc.Percent != 0 {
		t.Errorf("Percent = %v, want 0", sc.Percent)
	}

	want := []eval.HighlightKind{
		eval.KindOKOmitted, // she
		eval.KindMissing,   // sells
		eval.KindMissing,   // seashells
		eval.KindOKOmitted, // by
		eval.KindOKOmitted, // the
		eval.KindMissing,   // seashore
	}
	got := kinds(sc.Highlights)
	if len(got) != len(want) {
		t.Fatalf("highlight kinds = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("highlight[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if len(sc.Issues) != 3 {
		t.Errorf("got %d issues, want 3 (the content words)", len(sc.Issues))
	}
}

func TestScore_NilTranscript(t *testing.T) {
	t.Parallel()
	s := eval.NewScorer()
	sc, err := s.Score("hello world", nil, 0, 0)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if sc.Percent != 0 {
		t.Errorf("Percent = %v, want 0", sc.Percent)
	}
}

func TestScore_EmptyTarget(t *testing.T) {
	t.Parallel()
	s := eval.NewScorer()
	sc, err := s.Score("", transcript("hello", 0.9), 0, 0)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if sc.Percent != 0 {
		t.Errorf("Percent = %v, want 0 for an empty target", sc.Percent)
	}
}

func TestScore_MissingContentWords(t *testing.T) {
	t.Parallel()
	s := eval.NewScorer()

	sc, err := s.Score("beautiful mountain scenery", transcript("beautiful", 0.9), 2.0, 2.0)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	// One content word recognized out of three, one chunk anchored, pacing
	// bonus applied.
	if sc.Percent != 51.3 {
		t.Errorf("Percent = %v, want 51.3", sc.Percent)
	}
	if len(sc.Issues) != 2 {
		t.Fatalf("got %d issues, want 2", len(sc.Issues))
	}
	if sc.Issues[0].Target != "mountain" || sc.Issues[1].Target != "scenery" {
		t.Errorf("issues = %v, want mountain then scenery", sc.Issues)
	}
	for _, issue := range sc.Issues {
		if issue.Recognized != "" {
			t.Errorf("issue %v: Recognized = %q, want empty for a dropped word", issue, issue.Recognized)
		}
	}
}

func TestScore_DurationBonusBoundary(t *testing.T) {
	t.Parallel()
	s := eval.NewScorer()
	target := "beautiful mountain scenery"
	tr := transcript("beautiful", 0.9)

	// Exactly at the edge of the grace window the bonus still applies.
	onEdge, err := s.Score(target, tr, 8.0, 3.0)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if onEdge.Percent != 51.3 {
		t.Errorf("on-edge Percent = %v, want 51.3", onEdge.Percent)
	}

	// Past the window the bonus is forfeited, nothing more.
	past, err := s.Score(target, tr, 8.01, 3.0)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if past.Percent != 50.0 {
		t.Errorf("past-window Percent = %v, want 50.0", past.Percent)
	}
}

func TestScore_GraceSecondsOption(t *testing.T) {
	t.Parallel()
	s := eval.NewScorer(eval.WithGraceSeconds(1))

	sc, err := s.Score("beautiful mountain scenery", transcript("beautiful", 0.9), 8.0, 3.0)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if sc.Percent != 50.0 {
		t.Errorf("Percent = %v, want 50.0 with a 1s grace window", sc.Percent)
	}
}

func TestScore_ContentWordSubstitution(t *testing.T) {
	t.Parallel()
	s := eval.NewScorer()

	sc, err := s.Score("the weather is nice", transcript("the walrus is nice", 0.9), 2.0, 2.0)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(sc.Issues) != 1 {
		t.Fatalf("got %d issues, want 1", len(sc.Issues))
	}
	issue := sc.Issues[0]
	if issue.Target != "weather" || issue.Recognized != "walrus" {
		t.Errorf("issue = %v, want weather/walrus", issue)
	}

	var mismatches int
	for _, h := range sc.Highlights {
		if h.Kind == eval.KindMismatch {
			mismatches++
			if h.Target != "weather" || h.Recognized != "walrus" {
				t.Errorf("mismatch highlight = %v, want weather/walrus", h)
			}
		}
	}
	if mismatches != 1 {
		t.Errorf("got %d mismatch highlights, want 1", mismatches)
	}
}

func TestScore_TwoWordContraction(t *testing.T) {
	t.Parallel()
	s := eval.NewScorer()

	sc, err := s.Score("I could have gone", transcript("I coulda gone", 0.9), 2.0, 2.0)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if !sc.ContractionUsed {
		t.Error("ContractionUsed = false, want true")
	}
	if len(sc.Issues) != 0 {
		t.Errorf("Issues = %v, want none — contractions are rewarded, not penalized", sc.Issues)
	}

	var contraction *eval.Highlight
	for i, h := range sc.Highlights {
		if h.Kind == eval.KindContraction {
			contraction = &sc.Highlights[i]
		}
	}
	if contraction == nil {
		t.Fatal("no contraction highlight produced")
	}
	if contraction.Target != "could have" || contraction.Recognized != "coulda" {
		t.Errorf("contraction highlight = %v, want could have/coulda", contraction)
	}
}

func TestScore_ChainedContractions(t *testing.T) {
	t.Parallel()
	s := eval.NewScorer()

	sc, err := s.Score("I am going to go", transcript("im gonna go", 0.9), 2.0, 2.0)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if sc.Percent != 91.8 {
		t.Errorf("Percent = %v, want 91.8", sc.Percent)
	}
	if !sc.ContractionUsed {
		t.Error("ContractionUsed = false, want true")
	}

	var contractions []string
	for _, h := range sc.Highlights {
		if h.Kind == eval.KindContraction {
			contractions = append(contractions, h.Target)
		}
	}
	if len(contractions) != 2 || contractions[0] != "i am" || contractions[1] != "going to" {
		t.Errorf("contraction targets = %v, want [i am, going to]", contractions)
	}
}

func TestScore_ExtraTokens(t *testing.T) {
	t.Parallel()
	s := eval.NewScorer()

	sc, err := s.Score("hello there", transcript("um hello there", 0.9), 1.0, 1.0)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	var extras int
	for _, h := range sc.Highlights {
		if h.Kind == eval.KindExtra {
			extras++
			if h.Recognized != "um" {
				t.Errorf("extra highlight = %v, want um", h)
			}
		}
	}
	if extras != 1 {
		t.Errorf("got %d extra highlights, want 1", extras)
	}
	if len(sc.Issues) != 0 {
		t.Errorf("Issues = %v, want none for inserted filler", sc.Issues)
	}
}

func TestScore_FunctionWordSubstitutionIsMinor(t *testing.T) {
	t.Parallel()
	s := eval.NewScorer()

	// "the" misheard as "a": a function-word discrepancy never becomes a
	// critical issue.
	sc, err := s.Score("pass the salt", transcript("pass a salt", 0.9), 1.0, 1.0)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(sc.Issues) != 0 {
		t.Errorf("Issues = %v, want none", sc.Issues)
	}
	var minor int
	for _, h := range sc.Highlights {
		if h.Kind == eval.KindMinorMismatch {
			minor++
		}
	}
	if minor != 1 {
		t.Errorf("got %d minor mismatches, want 1", minor)
	}
}

func TestScore_SingleLetterTokensSkipScoring(t *testing.T) {
	t.Parallel()
	s := eval.NewScorer()

	// "I" contributes a highlight but no weight; dropping it costs nothing.
	full, err := s.Score("I run", transcript("I run", 0.9), 1.0, 1.0)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	dropped, err := s.Score("I run", transcript("run", 0.9), 1.0, 1.0)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if full.Percent != dropped.Percent {
		t.Errorf("dropping a single-letter token changed the score: %v vs %v", full.Percent, dropped.Percent)
	}
	if len(dropped.Issues) != 0 {
		t.Errorf("Issues = %v, want none for a dropped single-letter token", dropped.Issues)
	}
}
