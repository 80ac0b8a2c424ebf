// Package tts defines the Engine interface for Text-to-Speech backends.
//
// A TTS engine wraps a speech synthesis service (e.g., a local Coqui TTS
// server or the ElevenLabs API) behind a batch interface: one sentence in,
// one WAV container out. Verbalis synthesizes short reference sentences, so
// the streaming pipelining used by conversational systems is unnecessary
// here.
//
// Implementations must be safe for concurrent use — both tutor personas may
// synthesize at once.
package tts

import "context"

// VoiceProfile identifies a synthesis voice on a specific backend.
type VoiceProfile struct {
	// ID is the backend-specific voice identifier (speaker name, voice ID,
	// or speaker WAV reference depending on the backend).
	ID string

	// Name is the human-readable voice name.
	Name string

	// Language is the BCP-47 language tag the voice speaks (e.g., "en-US",
	// "en-GB"). Tutor personas select voices by this tag.
	Language string
}

// Engine is the abstraction over any batch TTS backend.
type Engine interface {
	// Synthesize renders text as speech using the given voice and returns a
	// complete RIFF/WAVE container.
	//
	// A nil error with zero-length bytes is a valid response meaning
	// "synthesis unavailable"; callers must treat it as a degraded but
	// non-fatal outcome.
	Synthesize(ctx context.Context, text string, voice VoiceProfile) ([]byte, error)
}
