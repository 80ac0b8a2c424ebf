package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/verbalis-ai/verbalis/internal/store"
	"github.com/verbalis-ai/verbalis/internal/tutor"
	"github.com/verbalis-ai/verbalis/pkg/types"
)

// Stage names of the coaching graph.
const (
	StageStart      = "start"
	StageIngest     = "ingest"
	StageEvaluateUS = "evaluate_us"
	StageEvaluateUK = "evaluate_uk"
	StageJoin       = "synthesize_join"
	StagePersist    = "persist"
	StageEnd        = "end"
)

// BuildCoachingGraph wires the standard evaluation pipeline:
//
//	start → ingest → {evaluate_us, evaluate_uk} → synthesize_join → persist → end
//
// The two evaluator stages have no edge between them and run in parallel;
// each writes its own key namespace. start and end are virtual stages that
// only shape the graph.
func BuildCoachingGraph(us, uk *tutor.Tutor, attempts store.AttemptStore, logger *slog.Logger) (*Graph, error) {
	g := New(logger)

	type reg struct {
		name string
		fn   StageFunc
		deps []string
	}
	regs := []reg{
		{StageStart, nil, nil},
		{StageIngest, ingestStage(), []string{StageStart}},
		{StageEvaluateUS, evaluateStage(StageEvaluateUS, KeyResultUS, us), []string{StageIngest}},
		{StageEvaluateUK, evaluateStage(StageEvaluateUK, KeyResultUK, uk), []string{StageIngest}},
		{StageJoin, joinStage(), []string{StageEvaluateUS, StageEvaluateUK}},
		{StagePersist, persistStage(attempts), []string{StageJoin}},
		{StageEnd, nil, []string{StagePersist}},
	}
	for _, r := range regs {
		if err := g.AddStage(r.name, r.fn, r.deps...); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// ingestStage validates that an audio sample is present. A missing sample is
// recorded as a stage error; the pipeline still runs and the evaluators score
// against an empty recognition.
func ingestStage() StageFunc {
	return func(_ context.Context, st *State) Delta {
		sample, _ := audioFrom(st)
		if sample.Empty() {
			return Delta{ErrorKey(StageIngest): "no audio data found"}
		}
		return nil
	}
}

// evaluateStage runs one tutor persona end to end and writes the evaluation
// under its own key. Only an internal consistency failure in the scorer
// surfaces as a stage error; engine failures are degraded inside the tutor.
func evaluateStage(name string, key Key, tut *tutor.Tutor) StageFunc {
	return func(ctx context.Context, st *State) Delta {
		target := st.GetString(KeyTargetText)
		sample, _ := audioFrom(st)

		ev, err := tut.Evaluate(ctx, target, sample)
		if err != nil {
			return Delta{ErrorKey(name): err.Error()}
		}
		return Delta{key: ev}
	}
}

// joinStage marks completion once both evaluator branches have produced
// output. A missing branch output (evaluator stage error) is recorded here
// so the response shows why the join is incomplete.
func joinStage() StageFunc {
	return func(_ context.Context, st *State) Delta {
		_, usOK := st.Get(KeyResultUS)
		_, ukOK := st.Get(KeyResultUK)
		if !usOK || !ukOK {
			return Delta{
				KeySynthesisDone:    false,
				ErrorKey(StageJoin): "one or both evaluator stages produced no output",
			}
		}
		return Delta{KeySynthesisDone: true}
	}
}

// persistStage writes the attempt to the configured store. Persistence
// failure is a stage error, never an abort: the caller still receives the
// full in-memory result.
func persistStage(attempts store.AttemptStore) StageFunc {
	return func(ctx context.Context, st *State) Delta {
		attempt := &store.Attempt{
			ID:         uuid.NewString(),
			UserName:   st.GetString(KeyUserName),
			TargetText: st.GetString(KeyTargetText),
			CreatedAt:  time.Now().UTC(),
		}
		for _, key := range []Key{KeyResultUS, KeyResultUK} {
			if ev, ok := evaluationFrom(st, key); ok {
				attempt.Results = append(attempt.Results, store.TutorResult{
					Tutor:        ev.Tutor,
					ScorePercent: ev.ScorePercent,
					Comment:      ev.Comment,
					Transcript:   ev.Transcript,
				})
			}
		}

		if err := attempts.SaveAttempt(ctx, attempt); err != nil {
			return Delta{ErrorKey(StagePersist): err.Error()}
		}
		return Delta{KeyAttemptID: attempt.ID}
	}
}

func audioFrom(st *State) (types.AudioSample, bool) {
	v, ok := st.Get(KeyAudio)
	if !ok {
		return types.AudioSample{}, false
	}
	sample, ok := v.(types.AudioSample)
	return sample, ok
}

// evaluationFrom reads a tutor evaluation from the state, tolerating unset
// keys and foreign types.
func evaluationFrom(st *State, key Key) (*tutor.Evaluation, bool) {
	v, ok := st.Get(key)
	if !ok {
		return nil, false
	}
	ev, ok := v.(*tutor.Evaluation)
	return ev, ok && ev != nil
}
