package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/ayusman/neurosprint/internal/store"
)

// SessionsHandler accepts finalized sessions pushed by trainers.
type SessionsHandler struct {
	store *store.Store
}

// NewSessionsHandler creates a new SessionsHandler with the given store.
func NewSessionsHandler(s *store.Store) *SessionsHandler {
	return &SessionsHandler{store: s}
}

// ServeHTTP handles POST /api/sessions. A session whose ID is already
// stored is acknowledged without being stored twice.
func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		writeError(w, http.StatusBadRequest, "Username is required")
		return
	}

	ctx := r.Context()
	user, err := h.store.Users().GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to look up user")
		return
	}

	if req.ID != "" {
		if _, err := h.store.Sessions().Get(ctx, req.ID); err == nil {
			writeJSON(w, http.StatusOK, SessionResponse{Status: "ok", SessionID: req.ID})
			return
		}
	}

	sess := &store.Session{
		ID:      req.ID,
		UserID:  user.ID,
		Summary: req.Summary(),
		Trials:  req.TrialsData,
		Synced:  true,
	}
	if err := h.store.Sessions().Save(ctx, sess); err != nil {
		log.Printf("save pushed session for %s: %v", req.Username, err)
		writeError(w, http.StatusInternalServerError, "Failed to save session")
		return
	}

	writeJSON(w, http.StatusCreated, SessionResponse{Status: "ok", SessionID: sess.ID})
}
