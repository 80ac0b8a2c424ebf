// Package session holds the request-scoped evaluation context: who is
// speaking, what they aim to say, and the audio they produced.
//
// A Session replaces any notion of a process-wide mutable store. Its lifetime
// is exactly one evaluation request and it is never shared across concurrent
// requests; each pipeline run seeds its own [pipeline.State] from it.
package session

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verbalis-ai/verbalis/internal/pipeline"
	"github.com/verbalis-ai/verbalis/pkg/types"
)

// Session is one evaluation request. TargetText and Audio are immutable once
// the session is created; the session exclusively owns the audio sample until
// the recognition engines consume it.
type Session struct {
	ID         string
	UserName   string
	TargetText string
	Audio      types.AudioSample
	CreatedAt  time.Time
}

// New validates the inputs and creates a Session. The target sentence is
// required; audio may be empty, in which case the pipeline records an ingest
// error and produces a degraded result.
func New(userName, targetText string, audio types.AudioSample) (*Session, error) {
	targetText = strings.TrimSpace(targetText)
	if targetText == "" {
		return nil, errors.New("session: target text must not be empty")
	}
	return &Session{
		ID:         uuid.NewString(),
		UserName:   strings.TrimSpace(userName),
		TargetText: targetText,
		Audio:      audio,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// Seed returns the initial pipeline delta for this session.
func (s *Session) Seed() pipeline.Delta {
	return pipeline.Delta{
		pipeline.KeyUserName:   s.UserName,
		pipeline.KeyTargetText: s.TargetText,
		pipeline.KeyAudio:      s.Audio,
	}
}
