// Package sink delivers finalized training sessions to their destinations:
// the local store and, optionally, a leaderboard replica.
package sink

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/ayusman/neurosprint/internal/store"
	"github.com/ayusman/neurosprint/internal/trainer"
)

// ResultsSink persists a finalized session for a user.
type ResultsSink interface {
	Save(ctx context.Context, userID string, sum trainer.Summary, trials []trainer.RoundResult) (*store.Session, error)
}

// LeaderboardSource answers leaderboard queries.
type LeaderboardSource interface {
	Leaderboard(ctx context.Context, f store.LeaderboardFilter) ([]store.LeaderboardEntry, error)
}

// LocalSink writes sessions to the local store only.
type LocalSink struct {
	store *store.Store
}

// NewLocalSink creates a sink backed by st.
func NewLocalSink(st *store.Store) *LocalSink {
	return &LocalSink{store: st}
}

// Save stores the session and returns it with its assigned ID.
func (s *LocalSink) Save(ctx context.Context, userID string, sum trainer.Summary, trials []trainer.RoundResult) (*store.Session, error) {
	sess := &store.Session{
		UserID:  userID,
		Summary: sum,
		Trials:  trials,
	}
	if err := s.store.Sessions().Save(ctx, sess); err != nil {
		return nil, goerr.Wrap(err, "save session locally", goerr.V("user_id", userID))
	}
	return sess, nil
}

// Leaderboard queries the local store.
func (s *LocalSink) Leaderboard(ctx context.Context, f store.LeaderboardFilter) ([]store.LeaderboardEntry, error) {
	return s.store.Leaderboard(ctx, f)
}
