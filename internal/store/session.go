package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/ayusman/neurosprint/internal/trainer"
)

// Session is a finalized training session as persisted.
type Session struct {
	ID      string                `json:"id"`
	UserID  string                `json:"user_id"`
	Summary trainer.Summary       `json:"summary"`
	Trials  []trainer.RoundResult `json:"trials"`
	// Synced reports whether the session reached the leaderboard replica.
	Synced bool `json:"synced"`
}

// SessionRepository stores finalized sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

const sessionColumns = `id, user_id, started_at, ended_at, avg_reaction, min_reaction, max_reaction,
	std_deviation, total_wrong, trials_completed, trials_required, rounds_presented, accuracy,
	difficulty, trials_data, synced`

// Save inserts sess, assigning an ID when empty.
func (r *SessionRepository) Save(ctx context.Context, sess *Session) error {
	if sess.ID == "" {
		sess.ID = uuid.New().String()
	}
	trials := sess.Trials
	if trials == nil {
		trials = []trainer.RoundResult{}
	}
	data, err := json.Marshal(trials)
	if err != nil {
		return goerr.Wrap(err, "encode trials", goerr.V("session_id", sess.ID))
	}

	sum := sess.Summary
	difficulty := sum.Difficulty
	if difficulty == "" {
		difficulty = trainer.DefaultDifficulty
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.UserID, formatTime(sum.StartedAt), formatTime(sum.EndedAt),
		sum.AvgReactionMs, sum.MinReactionMs, sum.MaxReactionMs, sum.StdDevMs,
		sum.TotalWrong, sum.TrialsCompleted, sum.TrialsRequired, sum.RoundsPresented, sum.Accuracy,
		difficulty, string(data), sess.Synced,
	)
	if err != nil {
		return goerr.Wrap(err, "save session", goerr.V("session_id", sess.ID), goerr.V("user_id", sess.UserID))
	}
	return nil
}

// Get retrieves a session by ID.
func (r *SessionRepository) Get(ctx context.Context, id string) (*Session, error) {
	sess, err := scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, goerr.Wrap(err, "get session", goerr.V("id", id))
	}
	return sess, nil
}

// ListByUser returns a user's sessions, newest first. A limit of zero or
// less returns all of them.
func (r *SessionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = -1
	}
	return r.query(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE user_id = ? ORDER BY ended_at DESC LIMIT ?`,
		userID, limit)
}

// ListUnsynced returns sessions not yet pushed to the replica, oldest first.
func (r *SessionRepository) ListUnsynced(ctx context.Context) ([]*Session, error) {
	return r.query(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE synced = 0 ORDER BY ended_at ASC`)
}

// MarkSynced flags a session as pushed to the replica.
func (r *SessionRepository) MarkSynced(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE sessions SET synced = 1 WHERE id = ?`, id)
	if err != nil {
		return goerr.Wrap(err, "mark session synced", goerr.V("id", id))
	}
	return requireOne(result)
}

func (r *SessionRepository) query(ctx context.Context, q string, args ...any) ([]*Session, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "query sessions")
	}
	defer rows.Close()

	var out []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "scan session")
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func scanSession(row rowScanner) (*Session, error) {
	sess := &Session{}
	sum := &sess.Summary
	var started, ended, data string

	err := row.Scan(&sess.ID, &sess.UserID, &started, &ended,
		&sum.AvgReactionMs, &sum.MinReactionMs, &sum.MaxReactionMs, &sum.StdDevMs,
		&sum.TotalWrong, &sum.TrialsCompleted, &sum.TrialsRequired, &sum.RoundsPresented, &sum.Accuracy,
		&sum.Difficulty, &data, &sess.Synced)
	if err != nil {
		return nil, err
	}
	sum.StartedAt = parseTime(started)
	sum.EndedAt = parseTime(ended)
	if d, err := trainer.Preset(sum.Difficulty); err == nil {
		sum.DifficultyLabel = d.Label
	}

	if err := json.Unmarshal([]byte(data), &sess.Trials); err != nil {
		return nil, goerr.Wrap(err, "decode trials", goerr.V("session_id", sess.ID))
	}
	return sess, nil
}
