// Package api provides the HTTP handlers of the NeuroSprint leaderboard
// replica and the wire types its clients send.
package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/ayusman/neurosprint/internal/store"
	"github.com/ayusman/neurosprint/internal/trainer"
)

// CreateUserRequest is the body of POST /api/users.
type CreateUserRequest struct {
	Username string `json:"username"`
	Age      *int   `json:"age,omitempty"`
	Gender   string `json:"gender,omitempty"`
}

// UserResponse describes a registered user.
type UserResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Age       *int   `json:"age"`
	Gender    string `json:"gender"`
	CreatedAt string `json:"created_at"`
}

// SessionRequest is the body of POST /api/sessions. The session ID makes
// re-pushes idempotent.
type SessionRequest struct {
	ID              string                `json:"id,omitempty"`
	Username        string                `json:"username"`
	AvgReaction     float64               `json:"avg_reaction"`
	MinReaction     float64               `json:"min_reaction"`
	MaxReaction     float64               `json:"max_reaction"`
	StdDeviation    float64               `json:"std_deviation"`
	TotalWrong      int                   `json:"total_wrong"`
	TrialsCompleted int                   `json:"trials_completed"`
	TrialsRequired  int                   `json:"total_trials"`
	RoundsPresented int                   `json:"total_rounds"`
	Accuracy        float64               `json:"accuracy"`
	Difficulty      string                `json:"difficulty"`
	StartedAt       time.Time             `json:"start_time"`
	EndedAt         time.Time             `json:"end_time"`
	TrialsData      []trainer.RoundResult `json:"trials_data"`
}

// NewSessionRequest builds the push payload for a stored session.
func NewSessionRequest(username string, s *store.Session) SessionRequest {
	sum := s.Summary
	return SessionRequest{
		ID:              s.ID,
		Username:        username,
		AvgReaction:     sum.AvgReactionMs,
		MinReaction:     sum.MinReactionMs,
		MaxReaction:     sum.MaxReactionMs,
		StdDeviation:    sum.StdDevMs,
		TotalWrong:      sum.TotalWrong,
		TrialsCompleted: sum.TrialsCompleted,
		TrialsRequired:  sum.TrialsRequired,
		RoundsPresented: sum.RoundsPresented,
		Accuracy:        sum.Accuracy,
		Difficulty:      sum.Difficulty,
		StartedAt:       sum.StartedAt,
		EndedAt:         sum.EndedAt,
		TrialsData:      s.Trials,
	}
}

// Summary converts the payload back to session statistics.
func (r SessionRequest) Summary() trainer.Summary {
	return trainer.Summary{
		AvgReactionMs:   r.AvgReaction,
		MinReactionMs:   r.MinReaction,
		MaxReactionMs:   r.MaxReaction,
		StdDevMs:        r.StdDeviation,
		TotalWrong:      r.TotalWrong,
		TrialsCompleted: r.TrialsCompleted,
		TrialsRequired:  r.TrialsRequired,
		RoundsPresented: r.RoundsPresented,
		Accuracy:        r.Accuracy,
		Difficulty:      r.Difficulty,
		StartedAt:       r.StartedAt,
		EndedAt:         r.EndedAt,
	}
}

// SessionResponse acknowledges a stored session.
type SessionResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func toUserResponse(u *store.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Age:       u.Age,
		Gender:    u.Gender,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// Age bounds accepted by leaderboard filters.
const (
	MinAge = 0
	MaxAge = 120
)

// EncodeLeaderboardQuery renders f as query parameters.
func EncodeLeaderboardQuery(f store.LeaderboardFilter) url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(f.EffectiveLimit()))
	if f.Gender != "" {
		q.Set("gender", f.Gender)
	}
	if f.AgeFrom != nil {
		q.Set("age_from", strconv.Itoa(*f.AgeFrom))
	}
	if f.AgeTo != nil {
		q.Set("age_to", strconv.Itoa(*f.AgeTo))
	}
	if f.Difficulty != "" {
		q.Set("difficulty", f.Difficulty)
	}
	return q
}

// ParseLeaderboardQuery validates leaderboard query parameters.
func ParseLeaderboardQuery(q url.Values) (store.LeaderboardFilter, error) {
	f := store.LeaderboardFilter{
		Gender:     q.Get("gender"),
		Difficulty: q.Get("difficulty"),
	}

	var err error
	if f.AgeFrom, err = optionalInt(q, "age_from"); err != nil {
		return f, err
	}
	if f.AgeTo, err = optionalInt(q, "age_to"); err != nil {
		return f, err
	}
	for _, age := range []*int{f.AgeFrom, f.AgeTo} {
		if age != nil && (*age < MinAge || *age > MaxAge) {
			return f, goerr.New("age out of range", goerr.V("age", *age))
		}
	}

	limit, err := optionalInt(q, "limit")
	if err != nil {
		return f, err
	}
	if limit != nil {
		if *limit < 1 || *limit > store.MaxLeaderboardLimit {
			return f, goerr.New("limit out of range", goerr.V("limit", *limit))
		}
		f.Limit = *limit
	}
	return f, nil
}

func optionalInt(q url.Values, key string) (*int, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid integer parameter", goerr.V("param", key), goerr.V("value", raw))
	}
	return &v, nil
}
