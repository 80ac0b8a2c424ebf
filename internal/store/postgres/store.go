// Package postgres provides a PostgreSQL-backed [store.AttemptStore].
//
// Attempts are stored one row per tutor result in the attempt_results table,
// grouped by attempt ID. [NewStore] runs the idempotent schema migration on
// startup.
//
// Usage:
//
//	st, err := postgres.NewStore(ctx, dsn)
//	if err != nil { … }
//	defer st.Close()
//
//	_ = st.SaveAttempt(ctx, attempt)
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/verbalis-ai/verbalis/internal/store"
)

// Compile-time interface check.
var _ store.AttemptStore = (*Store)(nil)

const ddlAttempts = `
CREATE TABLE IF NOT EXISTS attempt_results (
    id            BIGSERIAL    PRIMARY KEY,
    attempt_id    TEXT         NOT NULL,
    user_name     TEXT         NOT NULL DEFAULT '',
    target_text   TEXT         NOT NULL,
    tutor         TEXT         NOT NULL,
    score_percent DOUBLE PRECISION NOT NULL,
    comment       TEXT         NOT NULL DEFAULT '',
    transcript    TEXT         NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_attempt_results_attempt_id
    ON attempt_results (attempt_id);

CREATE INDEX IF NOT EXISTS idx_attempt_results_user_created
    ON attempt_results (user_name, created_at);
`

// Store is the PostgreSQL-backed attempt store. All operations are safe for
// concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store, establishes a connection pool to the PostgreSQL
// database at dsn, and runs the schema migration.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, ddlAttempts); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: migrate: %w", err)
	}

	return &Store{pool: pool}, nil
}

// SaveAttempt implements [store.AttemptStore]. Each tutor result becomes one
// row sharing the attempt ID and timestamp.
func (s *Store) SaveAttempt(ctx context.Context, attempt *store.Attempt) error {
	const q = `
		INSERT INTO attempt_results
		    (attempt_id, user_name, target_text, tutor, score_percent, comment, transcript, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for _, r := range attempt.Results {
		_, err := s.pool.Exec(ctx, q,
			attempt.ID,
			attempt.UserName,
			attempt.TargetText,
			r.Tutor,
			r.ScorePercent,
			r.Comment,
			r.Transcript,
			attempt.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("postgres store: save attempt %s: %w", attempt.ID, err)
		}
	}
	return nil
}

// RecentAttempts implements [store.AttemptStore]. Rows are regrouped into
// attempts by attempt ID, newest first.
func (s *Store) RecentAttempts(ctx context.Context, userName string, limit int) ([]store.Attempt, error) {
	const q = `
		SELECT attempt_id, user_name, target_text, tutor, score_percent, comment, transcript, created_at
		FROM   attempt_results
		WHERE  ($1 = '' OR user_name = $1)
		ORDER  BY created_at DESC, attempt_id, tutor`

	rows, err := s.pool.Query(ctx, q, userName)
	if err != nil {
		return nil, fmt.Errorf("postgres store: recent attempts: %w", err)
	}
	defer rows.Close()

	var (
		out     []store.Attempt
		current *store.Attempt
	)
	for rows.Next() {
		var (
			a store.Attempt
			r store.TutorResult
		)
		if err := rows.Scan(&a.ID, &a.UserName, &a.TargetText, &r.Tutor, &r.ScorePercent, &r.Comment, &r.Transcript, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres store: scan attempt row: %w", err)
		}
		if current == nil || current.ID != a.ID {
			if limit > 0 && len(out) == limit {
				break
			}
			out = append(out, a)
			current = &out[len(out)-1]
		}
		current.Results = append(current.Results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres store: iterate attempts: %w", err)
	}
	return out, nil
}

// Ping verifies database connectivity, for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases all connections held by the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}
