package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/neurosprint/internal/store"
)

// UsersHandler handles HTTP requests for user resources.
type UsersHandler struct {
	store *store.Store
}

// NewUsersHandler creates a new UsersHandler with the given store.
func NewUsersHandler(s *store.Store) *UsersHandler {
	return &UsersHandler{store: s}
}

// ServeHTTP routes /api/users and /api/users/{username}.
func (h *UsersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/users")
	name = strings.TrimPrefix(name, "/")

	if name == "" {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.create(w, r)
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.get(w, r, name)
}

// create handles POST /api/users.
func (h *UsersHandler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		writeError(w, http.StatusBadRequest, "Username is required")
		return
	}

	u := &store.User{Username: req.Username, Age: req.Age, Gender: req.Gender}
	if err := h.store.Users().Create(r.Context(), u); err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			writeError(w, http.StatusConflict, "User already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

// get handles GET /api/users/{username}.
func (h *UsersHandler) get(w http.ResponseWriter, r *http.Request, username string) {
	u, err := h.store.Users().GetByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get user")
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(u))
}
