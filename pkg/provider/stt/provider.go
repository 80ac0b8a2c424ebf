// Package stt defines the Engine interface for Speech-to-Text backends.
//
// An STT engine wraps a batch transcription service (e.g., a local
// whisper-server or vosk-server instance) behind a uniform request/response
// interface. Verbalis evaluates complete utterances, so streaming partials
// are deliberately out of scope: one audio sample in, one [types.Transcript]
// out.
//
// Implementations must be safe for concurrent use — the two tutor personas
// transcribe the same sample in parallel.
package stt

import (
	"context"
	"errors"

	"github.com/verbalis-ai/verbalis/pkg/types"
)

// ErrRecognition is the sentinel error wrapped by all engine failures that
// occur after a request was accepted (malformed audio, server error, decode
// failure). Callers degrade to an empty transcript on this error rather than
// aborting the evaluation.
var ErrRecognition = errors.New("stt: recognition failed")

// Engine is the abstraction over any batch STT backend.
type Engine interface {
	// Transcribe submits one complete audio sample for recognition and
	// returns the transcript with word-level confidence where the backend
	// supports it.
	//
	// language is a BCP-47 language tag (e.g., "en-US"); implementations may
	// reduce it to the primary subtag. An empty string lets the backend
	// auto-detect, if supported.
	//
	// The sample is read exactly once. Errors wrap [ErrRecognition] when the
	// backend rejected or failed to process the audio.
	Transcribe(ctx context.Context, sample types.AudioSample, language string) (*types.Transcript, error)
}
