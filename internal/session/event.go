package session

import (
	"time"

	"github.com/ayusman/neurosprint/internal/gesture"
	"github.com/ayusman/neurosprint/internal/trainer"
)

// EventKind names a controller event.
type EventKind string

// Controller events, in the order a round produces them.
const (
	EventStarted             EventKind = "started"
	EventNeutralPrompt       EventKind = "neutral_prompt"
	EventHand                EventKind = "hand"
	EventNeutralAcknowledged EventKind = "neutral_acknowledged"
	EventRoundStarted        EventKind = "round_started"
	EventAttempt             EventKind = "attempt"
	EventCompleted           EventKind = "completed"
	EventAborted             EventKind = "aborted"
	// EventSaved and EventSaveFailed are emitted by the pipeline after the
	// results sink returns.
	EventSaved      EventKind = "saved"
	EventSaveFailed EventKind = "save_failed"
)

// Event is a notification about the session, serializable for the live feed.
type Event struct {
	Kind       EventKind          `json:"kind"`
	State      string             `json:"state"`
	Gesture    gesture.Gesture    `json:"gesture,omitempty"`
	Expected   gesture.Gesture    `json:"expected,omitempty"`
	Correct    bool               `json:"correct,omitempty"`
	ReactionMs float64            `json:"reaction_ms,omitempty"`
	Delay      time.Duration      `json:"delay_ns,omitempty"`
	Round      *trainer.RoundSpec `json:"round,omitempty"`
	Stats      trainer.Summary    `json:"stats"`
	Error      string             `json:"error,omitempty"`
}
