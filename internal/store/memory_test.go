package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/verbalis-ai/verbalis/internal/store"
)

func attempt(id, user string) *store.Attempt {
	return &store.Attempt{
		ID:         id,
		UserName:   user,
		TargetText: "hello there",
		Results: []store.TutorResult{
			{Tutor: "us", ScorePercent: 91.8, Comment: "Great job!", Transcript: "hello there"},
			{Tutor: "uk", ScorePercent: 88.2, Comment: "Great job!", Transcript: "hello there"},
		},
		CreatedAt: time.Now().UTC(),
	}
}

func TestMemoryStore_SaveAndList(t *testing.T) {
	t.Parallel()
	s := store.NewMemoryStore()
	ctx := context.Background()

	for i := range 3 {
		if err := s.SaveAttempt(ctx, attempt(fmt.Sprintf("id-%d", i), "ada")); err != nil {
			t.Fatalf("SaveAttempt: %v", err)
		}
	}

	got, err := s.RecentAttempts(ctx, "", 10)
	if err != nil {
		t.Fatalf("RecentAttempts: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d attempts, want 3", len(got))
	}
	// Newest first.
	if got[0].ID != "id-2" || got[2].ID != "id-0" {
		t.Errorf("order = [%s %s %s], want newest first", got[0].ID, got[1].ID, got[2].ID)
	}
	if len(got[0].Results) != 2 {
		t.Errorf("attempt has %d results, want 2", len(got[0].Results))
	}
}

func TestMemoryStore_UserFilter(t *testing.T) {
	t.Parallel()
	s := store.NewMemoryStore()
	ctx := context.Background()

	_ = s.SaveAttempt(ctx, attempt("a1", "ada"))
	_ = s.SaveAttempt(ctx, attempt("b1", "bob"))
	_ = s.SaveAttempt(ctx, attempt("a2", "ada"))

	got, err := s.RecentAttempts(ctx, "ada", 10)
	if err != nil {
		t.Fatalf("RecentAttempts: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d attempts for ada, want 2", len(got))
	}
	for _, a := range got {
		if a.UserName != "ada" {
			t.Errorf("attempt %s belongs to %q", a.ID, a.UserName)
		}
	}
}

func TestMemoryStore_Limit(t *testing.T) {
	t.Parallel()
	s := store.NewMemoryStore()
	ctx := context.Background()

	for i := range 5 {
		_ = s.SaveAttempt(ctx, attempt(fmt.Sprintf("id-%d", i), "ada"))
	}

	got, err := s.RecentAttempts(ctx, "ada", 2)
	if err != nil {
		t.Fatalf("RecentAttempts: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d attempts, want 2", len(got))
	}
	if got[0].ID != "id-4" || got[1].ID != "id-3" {
		t.Errorf("order = [%s %s], want the two newest", got[0].ID, got[1].ID)
	}
}

func TestMemoryStore_Empty(t *testing.T) {
	t.Parallel()
	s := store.NewMemoryStore()
	got, err := s.RecentAttempts(context.Background(), "", 10)
	if err != nil {
		t.Fatalf("RecentAttempts: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d attempts from an empty store", len(got))
	}
}
