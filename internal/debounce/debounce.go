// Package debounce turns the per-frame gesture classification stream into
// discrete round events.
//
// A held gesture is evaluated once: only a change of label since the last
// evaluation produces a new candidate. Neutral or a lost hand clears the
// last evaluated label, so re-asserting the same gesture afterwards counts
// again. Between rounds the user must show the neutral pose; its first
// appearance arms the next round.
package debounce

import "github.com/ayusman/neurosprint/internal/gesture"

// State is the debouncer's position in the round cycle.
type State int

const (
	// Idle means the session has not begun.
	Idle State = iota
	// AwaitingNeutral waits for the neutral pose before arming a round.
	AwaitingNeutral
	// Arming means neutral was acknowledged and the round start is pending.
	Arming
	// RoundOpen accepts candidate responses.
	RoundOpen
	// PostSuccessCooldown follows a correct answer until the next frame.
	PostSuccessCooldown
	// Ended is terminal; no further events are produced.
	Ended
)

var stateNames = map[State]string{
	Idle:                "idle",
	AwaitingNeutral:     "awaiting_neutral",
	Arming:              "arming",
	RoundOpen:           "round_open",
	PostSuccessCooldown: "post_success_cooldown",
	Ended:               "ended",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "invalid"
}

// EventKind identifies what a Feed call produced.
type EventKind int

const (
	// NoEvent means the frame changed nothing observable.
	NoEvent EventKind = iota
	// NeutralAcknowledged means the round start delay should be scheduled.
	NeutralAcknowledged
	// Candidate carries a response to evaluate against the open round.
	Candidate
)

// Event is the result of feeding one frame label.
type Event struct {
	Kind    EventKind
	Gesture gesture.Gesture
}

// Debouncer is the gesture edge detector. It is not safe for concurrent use.
type Debouncer struct {
	state         State
	neutralHeld   bool
	lastEvaluated gesture.Gesture
}

// New returns a debouncer in the Idle state.
func New() *Debouncer {
	return &Debouncer{state: Idle}
}

// State returns the current state.
func (d *Debouncer) State() State {
	return d.state
}

// Begin starts gating on neutral. It only has an effect from Idle.
func (d *Debouncer) Begin() {
	if d.state != Idle {
		return
	}
	d.toAwaitingNeutral()
}

// Feed consumes one frame's label.
func (d *Debouncer) Feed(label gesture.Gesture) Event {
	switch d.state {
	case PostSuccessCooldown:
		d.toAwaitingNeutral()
		return d.awaitNeutral(label)

	case AwaitingNeutral:
		return d.awaitNeutral(label)

	case RoundOpen:
		if label.IsAnswerable() {
			if label == d.lastEvaluated {
				return Event{}
			}
			d.lastEvaluated = label
			return Event{Kind: Candidate, Gesture: label}
		}
		d.lastEvaluated = ""
		return Event{}
	}

	return Event{}
}

func (d *Debouncer) awaitNeutral(label gesture.Gesture) Event {
	if label != gesture.Neutral {
		d.neutralHeld = false
		return Event{}
	}
	if d.neutralHeld {
		return Event{}
	}
	d.neutralHeld = true
	d.state = Arming
	return Event{Kind: NeutralAcknowledged, Gesture: gesture.Neutral}
}

// OpenRound moves from Arming to RoundOpen once the delay has elapsed. It
// reports false if the debouncer was not arming (for example after End).
func (d *Debouncer) OpenRound() bool {
	if d.state != Arming {
		return false
	}
	d.state = RoundOpen
	d.lastEvaluated = ""
	return true
}

// Succeeded records that the open round was answered correctly.
func (d *Debouncer) Succeeded() {
	if d.state != RoundOpen {
		return
	}
	d.state = PostSuccessCooldown
	d.lastEvaluated = ""
}

// End stops the debouncer permanently.
func (d *Debouncer) End() {
	d.state = Ended
	d.lastEvaluated = ""
	d.neutralHeld = false
}

func (d *Debouncer) toAwaitingNeutral() {
	d.state = AwaitingNeutral
	d.neutralHeld = false
	d.lastEvaluated = ""
}
