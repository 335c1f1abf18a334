package api

import (
	"net/http"

	"github.com/ayusman/neurosprint/internal/store"
)

// LeaderboardHandler serves the filtered leaderboard.
type LeaderboardHandler struct {
	store *store.Store
}

// NewLeaderboardHandler creates a new LeaderboardHandler with the given store.
func NewLeaderboardHandler(s *store.Store) *LeaderboardHandler {
	return &LeaderboardHandler{store: s}
}

// ServeHTTP handles GET /api/leaderboard.
func (h *LeaderboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filter, err := ParseLeaderboardQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.store.Leaderboard(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load leaderboard")
		return
	}

	writeJSON(w, http.StatusOK, entries)
}
