package tutor_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/verbalis-ai/verbalis/internal/tutor"
	"github.com/verbalis-ai/verbalis/pkg/audio"
	"github.com/verbalis-ai/verbalis/pkg/provider/stt"
	sttmock "github.com/verbalis-ai/verbalis/pkg/provider/stt/mock"
	"github.com/verbalis-ai/verbalis/pkg/provider/tts"
	ttsmock "github.com/verbalis-ai/verbalis/pkg/provider/tts/mock"
	"github.com/verbalis-ai/verbalis/pkg/types"
)

var usPersona = tutor.Persona{
	Name:     "us",
	Language: "en-US",
	Voice:    tts.VoiceProfile{ID: "v1", Name: "Emma", Language: "en-US"},
}

// oneSecondWAV is a 16 kHz mono WAV with one second of silence.
func oneSecondWAV() []byte {
	return audio.Encode(make([]byte, 32000), 16000, 1)
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()
	sttEngine := &sttmock.Engine{}
	ttsEngine := &ttsmock.Engine{}

	if _, err := tutor.New(tutor.Persona{}, sttEngine, ttsEngine); err == nil {
		t.Error("empty persona name accepted")
	}
	if _, err := tutor.New(usPersona, nil, ttsEngine); err == nil {
		t.Error("nil stt engine accepted")
	}
	if _, err := tutor.New(usPersona, sttEngine, nil); err == nil {
		t.Error("nil tts engine accepted")
	}
}

func TestEvaluate_FullResult(t *testing.T) {
	t.Parallel()
	target := "She sells seashells"
	sttEngine := &sttmock.Engine{
		Transcript: &types.Transcript{
			Text: target,
			WordConfidence: map[string]float64{
				"she": 0.9, "sells": 0.9, "seashells": 0.9,
			},
		},
	}
	ttsEngine := &ttsmock.Engine{Audio: oneSecondWAV()}

	tut, err := tutor.New(usPersona, sttEngine, ttsEngine)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sample := types.AudioSample{Name: "recorded_audio.wav", Data: oneSecondWAV()}
	ev, err := tut.Evaluate(context.Background(), target, sample)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if ev.Tutor != "us" {
		t.Errorf("Tutor = %q, want us", ev.Tutor)
	}
	if ev.ScorePercent != 100.0 {
		t.Errorf("ScorePercent = %v, want 100.0", ev.ScorePercent)
	}
	if ev.Transcript != target {
		t.Errorf("Transcript = %q, want %q", ev.Transcript, target)
	}
	if len(ev.ReferenceAudio) == 0 {
		t.Error("no reference audio returned")
	}
	if ev.RefDuration != 1.0 || ev.UserDuration != 1.0 {
		t.Errorf("durations = %v/%v, want 1.0/1.0", ev.UserDuration, ev.RefDuration)
	}
	if !strings.HasPrefix(ev.Comment, "Great job!") {
		t.Errorf("Comment = %q, want praise first", ev.Comment)
	}
	if len(ev.Feedback) == 0 {
		t.Error("no feedback lines")
	}

	// The recognition engine got the persona's language tag.
	if calls := sttEngine.TranscribeCalls; len(calls) != 1 || calls[0].Language != "en-US" {
		t.Errorf("TranscribeCalls = %+v, want one call with en-US", calls)
	}
	if calls := ttsEngine.SynthesizeCalls; len(calls) != 1 || calls[0].Text != target {
		t.Errorf("SynthesizeCalls = %+v, want one call with the target", calls)
	}
}

func TestEvaluate_SynthesisFailureDegrades(t *testing.T) {
	t.Parallel()
	sttEngine := &sttmock.Engine{
		Transcript: &types.Transcript{
			Text:           "hello world",
			WordConfidence: map[string]float64{"hello": 0.9, "world": 0.9},
		},
	}
	ttsEngine := &ttsmock.Engine{SynthesizeErr: errors.New("server on fire")}

	tut, err := tutor.New(usPersona, sttEngine, ttsEngine)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ev, err := tut.Evaluate(context.Background(), "hello world", types.AudioSample{Data: oneSecondWAV()})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(ev.ReferenceAudio) != 0 {
		t.Error("reference audio present despite synthesis failure")
	}
	if ev.RefDuration != 0 {
		t.Errorf("RefDuration = %v, want 0", ev.RefDuration)
	}
	// Scoring still ran against the recognition.
	if ev.ScorePercent == 0 {
		t.Error("ScorePercent = 0, want a degraded but non-zero score")
	}
}

func TestEvaluate_RecognitionFailureDegrades(t *testing.T) {
	t.Parallel()
	sttEngine := &sttmock.Engine{
		TranscribeErr: stt.ErrRecognition,
	}
	ttsEngine := &ttsmock.Engine{Audio: oneSecondWAV()}

	tut, err := tutor.New(usPersona, sttEngine, ttsEngine)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ev, err := tut.Evaluate(context.Background(), "hello world", types.AudioSample{Data: oneSecondWAV()})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.ScorePercent != 0 {
		t.Errorf("ScorePercent = %v, want 0 against an empty transcript", ev.ScorePercent)
	}
	if ev.Transcript != "" {
		t.Errorf("Transcript = %q, want empty", ev.Transcript)
	}
	if len(ev.ReferenceAudio) == 0 {
		t.Error("reference audio lost — synthesis succeeded and must be kept")
	}
}

func TestEvaluate_BadAudioDegradesDuration(t *testing.T) {
	t.Parallel()
	sttEngine := &sttmock.Engine{}
	ttsEngine := &ttsmock.Engine{Audio: []byte("not a wav")}

	tut, err := tutor.New(usPersona, sttEngine, ttsEngine)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ev, err := tut.Evaluate(context.Background(), "hello", types.AudioSample{Data: []byte("also not a wav")})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.RefDuration != 0 || ev.UserDuration != 0 {
		t.Errorf("durations = %v/%v, want 0/0 for unparseable audio", ev.UserDuration, ev.RefDuration)
	}
}
