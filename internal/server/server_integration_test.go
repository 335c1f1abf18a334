package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/neurosprint/internal/server/api"
	"github.com/ayusman/neurosprint/internal/store"
	"github.com/ayusman/neurosprint/internal/trainer"
)

func postJSON(t *testing.T, client *http.Client, url string, v any) *http.Response {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s error = %v", url, err)
	}
	return resp
}

func TestAPI_LeaderboardWorkflow(t *testing.T) {
	// Setup
	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	srv := New(Config{Store: s})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// 1. Register two users
	age := 30
	for _, name := range []string{"ana", "ben"} {
		resp := postJSON(t, client, ts.URL+"/api/users", api.CreateUserRequest{Username: name, Age: &age, Gender: "f"})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("POST /api/users status = %d, want %d", resp.StatusCode, http.StatusCreated)
		}
		resp.Body.Close()
	}

	// 2. Registering again conflicts
	resp := postJSON(t, client, ts.URL+"/api/users", api.CreateUserRequest{Username: "ana"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate POST /api/users status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
	resp.Body.Close()

	// 3. Push sessions
	start := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	push := func(user string, avg float64, wrong int) {
		resp := postJSON(t, client, ts.URL+"/api/sessions", api.SessionRequest{
			Username:        user,
			AvgReaction:     avg,
			MinReaction:     avg - 40,
			MaxReaction:     avg + 40,
			TotalWrong:      wrong,
			TrialsCompleted: 10,
			TrialsRequired:  10,
			RoundsPresented: 10,
			Accuracy:        1,
			Difficulty:      "medium",
			StartedAt:       start,
			EndedAt:         start.Add(time.Minute),
			TrialsData:      []trainer.RoundResult{},
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("POST /api/sessions status = %d, want %d", resp.StatusCode, http.StatusCreated)
		}
		resp.Body.Close()
	}
	push("ana", 500, 2)
	push("ben", 420, 0)
	push("ben", 460, 0)

	// 4. Leaderboard orders by average reaction
	resp, err = client.Get(ts.URL + "/api/leaderboard?difficulty=medium")
	if err != nil {
		t.Fatalf("GET /api/leaderboard error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/leaderboard status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var entries []store.LeaderboardEntry
	json.NewDecoder(resp.Body).Decode(&entries)
	resp.Body.Close()

	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Username != "ben" || entries[0].AvgReaction != 440 {
		t.Errorf("entries[0] = %+v, want ben at 440", entries[0])
	}
	if entries[0].SessionsCount != 2 || entries[0].PerfectSessions != 2 {
		t.Errorf("ben sessions = %d perfect = %d, want 2 and 2", entries[0].SessionsCount, entries[0].PerfectSessions)
	}
	if entries[1].Username != "ana" || entries[1].PerfectSessions != 0 {
		t.Errorf("entries[1] = %+v, want ana with no perfect sessions", entries[1])
	}

	// 5. Unknown user cannot push
	resp = postJSON(t, client, ts.URL+"/api/sessions", api.SessionRequest{Username: "ghost", Difficulty: "medium"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("POST /api/sessions for unknown user status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	resp.Body.Close()
}

func TestLiveHub_Broadcast(t *testing.T) {
	hub := NewLiveHub()
	srv := New(Config{Hub: hub})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/live"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	defer conn.Close()

	// registration happens after the upgrade completes
	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Broadcast(map[string]string{"kind": "round_started"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg map[string]string
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if msg["kind"] != "round_started" {
		t.Errorf("kind = %q, want round_started", msg["kind"])
	}

	hub.Close()
	if hub.Clients() != 0 {
		t.Errorf("Clients() = %d after Close, want 0", hub.Clients())
	}
}

func TestAPI_HealthCheck(t *testing.T) {
	srv := New(Config{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var health struct {
		Status string `json:"status"`
		Uptime string `json:"uptime"`
	}
	json.NewDecoder(resp.Body).Decode(&health)

	if health.Status != "ok" {
		t.Errorf("status = %s, want ok", health.Status)
	}
}
