// Package mock provides a test double for the stt.Engine interface.
//
// Use Engine to feed controlled Transcript values to consumers and to verify
// which samples and language tags were submitted.
//
// Example:
//
//	e := &mock.Engine{
//	    Transcript: &types.Transcript{
//	        Text:           "how are you doing",
//	        WordConfidence: map[string]float64{"how": 0.9},
//	    },
//	}
//	tr, _ := e.Transcribe(ctx, sample, "en-US")
package mock

import (
	"context"
	"sync"

	"github.com/verbalis-ai/verbalis/pkg/provider/stt"
	"github.com/verbalis-ai/verbalis/pkg/types"
)

// TranscribeCall records a single invocation of Engine.Transcribe.
type TranscribeCall struct {
	// Ctx is the context passed to Transcribe.
	Ctx context.Context
	// Sample is the audio sample passed to Transcribe.
	Sample types.AudioSample
	// Language is the language tag passed to Transcribe.
	Language string
}

// Engine is a mock implementation of stt.Engine.
type Engine struct {
	mu sync.Mutex

	// Transcript is returned by Transcribe when TranscribeFunc and
	// TranscribeErr are unset. If nil, an empty Transcript is returned.
	Transcript *types.Transcript

	// TranscribeErr, if non-nil, is returned as the error from Transcribe.
	TranscribeErr error

	// TranscribeFunc, if non-nil, overrides Transcript/TranscribeErr entirely.
	// Useful for per-sample responses.
	TranscribeFunc func(ctx context.Context, sample types.AudioSample, language string) (*types.Transcript, error)

	// TranscribeCalls records every call to Transcribe in order.
	TranscribeCalls []TranscribeCall
}

// Transcribe records the call and returns the configured response.
func (e *Engine) Transcribe(ctx context.Context, sample types.AudioSample, language string) (*types.Transcript, error) {
	e.mu.Lock()
	e.TranscribeCalls = append(e.TranscribeCalls, TranscribeCall{Ctx: ctx, Sample: sample, Language: language})
	fn := e.TranscribeFunc
	tr := e.Transcript
	err := e.TranscribeErr
	e.mu.Unlock()

	if fn != nil {
		return fn(ctx, sample, language)
	}
	if err != nil {
		return nil, err
	}
	if tr == nil {
		return &types.Transcript{WordConfidence: map[string]float64{}}, nil
	}
	return tr, nil
}

// CallCount returns the number of Transcribe calls. Thread-safe.
func (e *Engine) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.TranscribeCalls)
}

// Reset clears all recorded calls. Thread-safe.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.TranscribeCalls = nil
}

// Ensure Engine implements stt.Engine at compile time.
var _ stt.Engine = (*Engine)(nil)
