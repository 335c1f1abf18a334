package store

import (
	"context"
	"database/sql"
	"math"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Leaderboard limits.
const (
	DefaultLeaderboardLimit = 100
	MaxLeaderboardLimit     = 500
)

// LeaderboardFilter narrows the leaderboard. Zero values mean no filter.
type LeaderboardFilter struct {
	Gender     string
	AgeFrom    *int
	AgeTo      *int
	Difficulty string
	Limit      int
}

// EffectiveLimit clamps Limit into (0, MaxLeaderboardLimit], defaulting to
// DefaultLeaderboardLimit.
func (f LeaderboardFilter) EffectiveLimit() int {
	switch {
	case f.Limit <= 0:
		return DefaultLeaderboardLimit
	case f.Limit > MaxLeaderboardLimit:
		return MaxLeaderboardLimit
	}
	return f.Limit
}

// LeaderboardEntry aggregates one user's matching sessions.
type LeaderboardEntry struct {
	Username        string  `json:"username"`
	Age             *int    `json:"age"`
	Gender          string  `json:"gender"`
	AvgReaction     float64 `json:"avg_account"`
	SessionsCount   int     `json:"sessions_count"`
	BestEver        float64 `json:"best_ever"`
	PerfectSessions int     `json:"perfect_sessions"`
}

// Leaderboard ranks users by the mean of their session averages, fastest
// first. A perfect session has no wrong attempts. Age filters exclude users
// without an age.
func (s *Store) Leaderboard(ctx context.Context, f LeaderboardFilter) ([]LeaderboardEntry, error) {
	var (
		where []string
		args  []any
	)
	if f.Gender != "" {
		where = append(where, "u.gender = ?")
		args = append(args, f.Gender)
	}
	if f.AgeFrom != nil {
		where = append(where, "u.age IS NOT NULL AND u.age >= ?")
		args = append(args, *f.AgeFrom)
	}
	if f.AgeTo != nil {
		where = append(where, "u.age IS NOT NULL AND u.age <= ?")
		args = append(args, *f.AgeTo)
	}
	if f.Difficulty != "" {
		where = append(where, "s.difficulty = ?")
		args = append(args, f.Difficulty)
	}

	query := `SELECT u.username, u.age, u.gender,
			AVG(s.avg_reaction) AS avg_account,
			COUNT(s.id),
			MIN(s.min_reaction),
			SUM(CASE WHEN s.total_wrong = 0 THEN 1 ELSE 0 END)
		FROM users u
		JOIN sessions s ON u.id = s.user_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` GROUP BY u.id ORDER BY avg_account ASC, u.username ASC LIMIT ?`
	args = append(args, f.EffectiveLimit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "query leaderboard")
	}
	defer rows.Close()

	entries := []LeaderboardEntry{}
	for rows.Next() {
		var (
			e      LeaderboardEntry
			age    sql.NullInt64
			gender sql.NullString
		)
		if err := rows.Scan(&e.Username, &age, &gender, &e.AvgReaction,
			&e.SessionsCount, &e.BestEver, &e.PerfectSessions); err != nil {
			return nil, goerr.Wrap(err, "scan leaderboard row")
		}
		e.Age = intPtr(age)
		e.Gender = gender.String
		e.AvgReaction = math.Round(e.AvgReaction*100) / 100
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
