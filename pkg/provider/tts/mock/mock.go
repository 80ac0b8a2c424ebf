// Package mock provides a test double for the tts.Engine interface.
//
// Use Engine to return controlled WAV bytes and to verify which text and
// voice were passed to the synthesis backend.
//
// Example:
//
//	e := &mock.Engine{Audio: audio.Encode(pcm, 16000, 1)}
//	wav, _ := e.Synthesize(ctx, "How are you doing today?", voice)
package mock

import (
	"context"
	"sync"

	"github.com/verbalis-ai/verbalis/pkg/provider/tts"
)

// SynthesizeCall records a single invocation of Engine.Synthesize.
type SynthesizeCall struct {
	// Ctx is the context passed to Synthesize.
	Ctx context.Context
	// Text is the text passed to Synthesize.
	Text string
	// Voice is the VoiceProfile passed to Synthesize.
	Voice tts.VoiceProfile
}

// Engine is a mock implementation of tts.Engine.
type Engine struct {
	mu sync.Mutex

	// Audio is the byte slice returned by Synthesize. A nil Audio with a nil
	// SynthesizeErr models the "synthesis unavailable" degraded response.
	Audio []byte

	// SynthesizeErr, if non-nil, is returned as the error from Synthesize.
	SynthesizeErr error

	// SynthesizeFunc, if non-nil, overrides Audio/SynthesizeErr entirely.
	SynthesizeFunc func(ctx context.Context, text string, voice tts.VoiceProfile) ([]byte, error)

	// SynthesizeCalls records every call to Synthesize in order.
	SynthesizeCalls []SynthesizeCall
}

// Synthesize records the call and returns the configured response.
func (e *Engine) Synthesize(ctx context.Context, text string, voice tts.VoiceProfile) ([]byte, error) {
	e.mu.Lock()
	e.SynthesizeCalls = append(e.SynthesizeCalls, SynthesizeCall{Ctx: ctx, Text: text, Voice: voice})
	fn := e.SynthesizeFunc
	out := e.Audio
	err := e.SynthesizeErr
	e.mu.Unlock()

	if fn != nil {
		return fn(ctx, text, voice)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CallCount returns the number of Synthesize calls. Thread-safe.
func (e *Engine) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.SynthesizeCalls)
}

// Reset clears all recorded calls. Thread-safe.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.SynthesizeCalls = nil
}

// Ensure Engine implements tts.Engine at compile time.
var _ tts.Engine = (*Engine)(nil)
