package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ayusman/neurosprint/internal/gesture"
	"github.com/ayusman/neurosprint/internal/trainer"
)

func saveSession(t *testing.T, s *Store, userID, difficulty string, avg float64, wrong int, ended time.Time) *Session {
	t.Helper()
	sess := &Session{
		UserID: userID,
		Summary: trainer.Summary{
			AvgReactionMs:   avg,
			MinReactionMs:   avg - 50,
			MaxReactionMs:   avg + 50,
			StdDevMs:        40.82,
			TotalWrong:      wrong,
			TrialsCompleted: 3,
			TrialsRequired:  3,
			RoundsPresented: 3,
			Accuracy:        1,
			Difficulty:      difficulty,
			StartedAt:       ended.Add(-time.Minute),
			EndedAt:         ended,
		},
		Trials: []trainer.RoundResult{
			{Target: gesture.Rock, Polarity: gesture.Win, Response: gesture.Paper, ReactionMs: avg - 50, WrongAttempts: wrong, Timestamp: ended.Add(-40 * time.Second)},
			{Target: gesture.Paper, Polarity: gesture.Lose, Response: gesture.Rock, ReactionMs: avg, Timestamp: ended.Add(-20 * time.Second)},
			{Target: gesture.Scissors, Polarity: gesture.Win, Response: gesture.Rock, ReactionMs: avg + 50, Timestamp: ended},
		},
	}
	if err := s.Sessions().Save(context.Background(), sess); err != nil {
		t.Fatalf("failed to save session: %v", err)
	}
	return sess
}

func TestSessionRepository_SaveAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "alice", nil, "")
	ended := time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)

	saved := saveSession(t, s, u.ID, "hard", 412.5, 2, ended)
	if saved.ID == "" {
		t.Fatal("ID should be assigned on save")
	}

	got, err := s.Sessions().Get(ctx, saved.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if got.UserID != u.ID {
		t.Errorf("UserID = %q, want %q", got.UserID, u.ID)
	}
	if got.Summary.AvgReactionMs != 412.5 || got.Summary.MinReactionMs != 362.5 || got.Summary.MaxReactionMs != 462.5 {
		t.Errorf("reaction stats = %+v", got.Summary)
	}
	if got.Summary.TotalWrong != 2 {
		t.Errorf("TotalWrong = %d, want 2", got.Summary.TotalWrong)
	}
	if got.Summary.Difficulty != "hard" || got.Summary.DifficultyLabel != "Hard" {
		t.Errorf("difficulty = %q/%q, want hard/Hard", got.Summary.Difficulty, got.Summary.DifficultyLabel)
	}
	if !got.Summary.EndedAt.Equal(ended) {
		t.Errorf("EndedAt = %v, want %v", got.Summary.EndedAt, ended)
	}
	if got.Synced {
		t.Error("new session should not be synced")
	}

	if len(got.Trials) != 3 {
		t.Fatalf("got %d trials, want 3", len(got.Trials))
	}
	tr := got.Trials[1]
	if tr.Target != gesture.Paper || tr.Polarity != gesture.Lose || tr.Response != gesture.Rock {
		t.Errorf("trial[1] = %+v", tr)
	}
	if got.Trials[0].WrongAttempts != 2 {
		t.Errorf("trial[0].WrongAttempts = %d, want 2", got.Trials[0].WrongAttempts)
	}
}

func TestSessionRepository_DefaultsDifficulty(t *testing.T) {
	s := newTestStore(t)
	u := createUser(t, s, "alice", nil, "")

	sess := saveSession(t, s, u.ID, "", 300, 0, time.Now())

	got, err := s.Sessions().Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Summary.Difficulty != trainer.DefaultDifficulty {
		t.Errorf("Difficulty = %q, want %q", got.Summary.Difficulty, trainer.DefaultDifficulty)
	}
}

func TestSessionRepository_RequiresUser(t *testing.T) {
	s := newTestStore(t)

	err := s.Sessions().Save(context.Background(), &Session{UserID: "nobody"})
	if err == nil {
		t.Error("saving a session for an unknown user should fail")
	}
}

func TestSessionRepository_ListByUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := createUser(t, s, "alice", nil, "")
	b := createUser(t, s, "bob", nil, "")
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	first := saveSession(t, s, a.ID, "easy", 500, 0, base)
	third := saveSession(t, s, a.ID, "easy", 400, 0, base.Add(48*time.Hour))
	second := saveSession(t, s, a.ID, "easy", 450, 0, base.Add(24*time.Hour))
	saveSession(t, s, b.ID, "easy", 300, 0, base)

	got, err := s.Sessions().ListByUser(ctx, a.ID, 0)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	want := []string{third.ID, second.ID, first.ID}
	if len(got) != len(want) {
		t.Fatalf("got %d sessions, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("sessions[%d] = %s, want %s (newest first)", i, got[i].ID, id)
		}
	}

	limited, err := s.Sessions().ListByUser(ctx, a.ID, 2)
	if err != nil {
		t.Fatalf("ListByUser limit: %v", err)
	}
	if len(limited) != 2 || limited[0].ID != third.ID {
		t.Errorf("limited list = %d sessions", len(limited))
	}
}

func TestSessionRepository_SyncTracking(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "alice", nil, "")
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	older := saveSession(t, s, u.ID, "medium", 500, 0, base)
	newer := saveSession(t, s, u.ID, "medium", 400, 0, base.Add(time.Hour))

	pending, err := s.Sessions().ListUnsynced(ctx)
	if err != nil {
		t.Fatalf("ListUnsynced: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != older.ID {
		t.Fatalf("pending should list both, oldest first; got %d", len(pending))
	}

	if err := s.Sessions().MarkSynced(ctx, older.ID); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}

	pending, _ = s.Sessions().ListUnsynced(ctx)
	if len(pending) != 1 || pending[0].ID != newer.ID {
		t.Errorf("only the newer session should remain pending, got %d", len(pending))
	}

	got, _ := s.Sessions().Get(ctx, older.ID)
	if !got.Synced {
		t.Error("session should be marked synced")
	}

	if err := s.Sessions().MarkSynced(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestSessionRepository_GetNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Sessions().Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}
