// Package tutor adapts the speech engines and the evaluation engine into one
// persona-scoped operation: evaluate a spoken utterance and produce a score,
// coaching comment, and synthesized reference audio in that persona's accent.
//
// A tutor degrades instead of failing: synthesis errors yield empty reference
// audio, recognition errors yield an empty transcript (scored as zero content
// credit). The only fatal error is an internal alignment inconsistency in the
// scorer.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/verbalis-ai/verbalis/internal/eval"
	"github.com/verbalis-ai/verbalis/internal/observe"
	"github.com/verbalis-ai/verbalis/pkg/audio"
	"github.com/verbalis-ai/verbalis/pkg/provider/stt"
	"github.com/verbalis-ai/verbalis/pkg/provider/tts"
	"github.com/verbalis-ai/verbalis/pkg/types"
)

// defaultEngineTimeout bounds each external engine call (recognition or
// synthesis). Timeouts degrade like any other engine failure.
const defaultEngineTimeout = 90 * time.Second

// Persona identifies one tutor accent and voice.
type Persona struct {
	// Name is the short persona identifier, e.g. "us" or "uk".
	Name string

	// Language is the BCP-47 tag passed to the recognition engine and used
	// to pick the synthesis voice, e.g. "en-US".
	Language string

	// Voice is the synthesis voice for reference audio.
	Voice tts.VoiceProfile
}

// Evaluation is the complete, immutable outcome of one tutor evaluation.
type Evaluation struct {
	Tutor           string           `json:"tutor"`
	ScorePercent    float64          `json:"score_percent"`
	Comment         string           `json:"comment"`
	Feedback        []string         `json:"feedback"`
	Highlights      []eval.Highlight `json:"highlights"`
	Transcript      string           `json:"transcript"`
	ReferenceAudio  []byte           `json:"reference_audio,omitempty"`
	UserDuration    float64          `json:"user_duration"`
	RefDuration     float64          `json:"ref_duration"`
	ContractionUsed bool             `json:"contraction_used"`
}

// Option is a functional option for configuring a Tutor.
type Option func(*Tutor)

// WithEngineTimeout bounds each recognition and synthesis call. Defaults to
// 90 s.
func WithEngineTimeout(d time.Duration) Option {
	return func(t *Tutor) { t.engineTimeout = d }
}

// WithLogger sets the structured logger. Defaults to [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(t *Tutor) { t.logger = l }
}

// WithMetrics sets the metrics sink. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(t *Tutor) { t.metrics = m }
}

// WithScorer replaces the default scorer, e.g. to change the pacing grace
// window.
func WithScorer(s *eval.Scorer) Option {
	return func(t *Tutor) { t.scorer = s }
}

// Tutor evaluates utterances as one persona. Safe for concurrent use.
type Tutor struct {
	persona       Persona
	sttEngine     stt.Engine
	ttsEngine     tts.Engine
	scorer        *eval.Scorer
	engineTimeout time.Duration
	logger        *slog.Logger
	metrics       *observe.Metrics
}

// New creates a Tutor for the given persona and engines.
func New(persona Persona, sttEngine stt.Engine, ttsEngine tts.Engine, opts ...Option) (*Tutor, error) {
	if persona.Name == "" {
		return nil, errors.New("tutor: persona.Name must not be empty")
	}
	if sttEngine == nil || ttsEngine == nil {
		return nil, errors.New("tutor: both engines must be set")
	}
	t := &Tutor{
		persona:       persona,
		sttEngine:     sttEngine,
		ttsEngine:     ttsEngine,
		scorer:        eval.NewScorer(),
		engineTimeout: defaultEngineTimeout,
		logger:        slog.Default(),
		metrics:       observe.DefaultMetrics(),
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// Name returns the persona identifier.
func (t *Tutor) Name() string { return t.persona.Name }

// Evaluate runs one full evaluation: synthesize the reference audio, probe
// both durations, transcribe the speaker, score, and compose feedback.
//
// The returned error is non-nil only for internal consistency failures;
// engine problems degrade into the Evaluation itself.
func (t *Tutor) Evaluate(ctx context.Context, target string, sample types.AudioSample) (*Evaluation, error) {
	ctx, span := observe.StartSpan(ctx, "tutor.evaluate")
	defer span.End()

	start := time.Now()
	defer func() {
		t.metrics.EvaluationDuration.Record(ctx, time.Since(start).Seconds())
	}()

	log := t.logger.With("tutor", t.persona.Name)

	refAudio := t.synthesizeReference(ctx, target, log)
	refDuration := t.probeDuration(refAudio, "reference", log)
	userDuration := t.probeDuration(sample.Data, "user", log)
	transcript := t.transcribe(ctx, sample, log)

	score, err := t.scorer.Score(target, transcript, userDuration, refDuration)
	if err != nil {
		t.metrics.RecordEvaluation(ctx, t.persona.Name, "error")
		return nil, fmt.Errorf("tutor %s: %w", t.persona.Name, err)
	}

	feedback := eval.ComposeFeedback(score, transcript)

	t.metrics.RecordEvaluation(ctx, t.persona.Name, "ok")
	t.metrics.RecordScore(ctx, t.persona.Name, score.Percent)
	log.Info("evaluation complete",
		"score", score.Percent,
		"highlights", len(score.Highlights),
		"issues", len(score.Issues),
	)

	return &Evaluation{
		Tutor:           t.persona.Name,
		ScorePercent:    score.Percent,
		Comment:         strings.Join(feedback, " "),
		Feedback:        feedback,
		Highlights:      score.Highlights,
		Transcript:      transcript.Text,
		ReferenceAudio:  refAudio,
		UserDuration:    userDuration,
		RefDuration:     refDuration,
		ContractionUsed: score.ContractionUsed,
	}, nil
}

// synthesizeReference renders the target sentence in the persona's voice.
// Any failure degrades to empty audio: the evaluation still runs, the
// duration bonus simply loses its reference anchor.
func (t *Tutor) synthesizeReference(ctx context.Context, target string, log *slog.Logger) []byte {
	ctx, cancel := context.WithTimeout(ctx, t.engineTimeout)
	defer cancel()

	ttsStart := time.Now()
	wav, err := t.ttsEngine.Synthesize(ctx, target, t.persona.Voice)
	t.metrics.TTSDuration.Record(ctx, time.Since(ttsStart).Seconds())
	if err != nil {
		t.metrics.RecordProviderError(ctx, t.persona.Name, "tts")
		log.Warn("reference synthesis failed, continuing without reference audio", "error", err)
		return nil
	}
	if len(wav) == 0 {
		log.Warn("synthesis unavailable, continuing without reference audio")
	}
	return wav
}

// probeDuration reads the WAV duration in seconds, degrading to 0 on any
// parse failure or empty input.
func (t *Tutor) probeDuration(wav []byte, which string, log *slog.Logger) float64 {
	if len(wav) == 0 {
		return 0
	}
	d, err := audio.Duration(wav)
	if err != nil {
		log.Warn("duration probe failed", "audio", which, "error", err)
		return 0
	}
	return d
}

// transcribe runs recognition, degrading to an empty transcript on failure so
// scoring proceeds with zero content credit.
func (t *Tutor) transcribe(ctx context.Context, sample types.AudioSample, log *slog.Logger) *types.Transcript {
	ctx, cancel := context.WithTimeout(ctx, t.engineTimeout)
	defer cancel()

	sttStart := time.Now()
	tr, err := t.sttEngine.Transcribe(ctx, sample, t.persona.Language)
	t.metrics.STTDuration.Record(ctx, time.Since(sttStart).Seconds())
	if err != nil {
		t.metrics.RecordProviderError(ctx, t.persona.Name, "stt")
		if errors.Is(err, stt.ErrRecognition) {
			log.Warn("recognition failed, scoring against empty transcript", "error", err)
		} else {
			log.Error("unexpected recognition error, scoring against empty transcript", "error", err)
		}
		return &types.Transcript{WordConfidence: map[string]float64{}}
	}
	return tr
}
