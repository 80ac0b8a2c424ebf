// Package store defines persistence for completed pronunciation attempts and
// provides an in-memory implementation for single-process deployments.
//
// The PostgreSQL-backed implementation lives in the postgres subpackage.
package store

import (
	"context"
	"time"
)

// TutorResult is one persona's scored outcome within an attempt. Reference
// audio is deliberately not persisted; it is regenerated on demand.
type TutorResult struct {
	Tutor        string  `json:"tutor"`
	ScorePercent float64 `json:"score_percent"`
	Comment      string  `json:"comment"`
	Transcript   string  `json:"transcript"`
}

// Attempt is one persisted evaluation: who spoke, what they aimed for, and
// what each tutor concluded.
type Attempt struct {
	ID         string        `json:"id"`
	UserName   string        `json:"user_name"`
	TargetText string        `json:"target_text"`
	Results    []TutorResult `json:"results"`
	CreatedAt  time.Time     `json:"created_at"`
}

// AttemptStore persists attempts. All methods are safe for concurrent use.
type AttemptStore interface {
	// SaveAttempt stores one completed attempt.
	SaveAttempt(ctx context.Context, attempt *Attempt) error

	// RecentAttempts returns up to limit attempts for the given user, newest
	// first. An empty userName returns attempts across all users.
	RecentAttempts(ctx context.Context, userName string, limit int) ([]Attempt, error)

	// Close releases any resources held by the store.
	Close()
}
