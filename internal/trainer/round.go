package trainer

import (
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/ayusman/neurosprint/internal/gesture"
)

var (
	// ErrNoOpenRound is returned by Evaluate when no round has been started.
	ErrNoOpenRound = errors.New("no round is open")
	// ErrNotAnswerable is returned by Evaluate for neutral or unknown labels.
	ErrNotAnswerable = errors.New("gesture is not an answerable response")
)

// Clock returns the current instant. Durations are taken with Time.Sub, so
// the production clock must carry a monotonic reading (time.Now does).
type Clock func() time.Time

// RoundSpec is the stimulus of one round.
type RoundSpec struct {
	Target   gesture.Gesture  `json:"target"`
	Polarity gesture.Polarity `json:"polarity"`
}

// Expected returns the only response that answers the round correctly.
func (s RoundSpec) Expected() gesture.Gesture {
	return gesture.CorrectResponse(s.Target, s.Polarity)
}

// RoundResult records a successfully answered round.
type RoundResult struct {
	Target        gesture.Gesture  `json:"round_gesture"`
	Polarity      gesture.Polarity `json:"polarity"`
	Response      gesture.Gesture  `json:"response"`
	ReactionMs    float64          `json:"reaction_time"`
	WrongAttempts int              `json:"wrong_attempts"`
	Timestamp     time.Time        `json:"timestamp"`
}

// Verdict is the outcome of evaluating one response.
type Verdict struct {
	Correct    bool
	ReactionMs float64
	Expected   gesture.Gesture
}

// RoundEngine runs one round at a time and reports into a Session.
type RoundEngine struct {
	session *Session
	rng     *rand.Rand
	clock   Clock

	open      bool
	spec      RoundSpec
	startedAt time.Time
	wrong     int
}

// Option configures a RoundEngine.
type Option func(*RoundEngine)

// WithRand sets the random source used to pick targets and polarity.
func WithRand(rng *rand.Rand) Option {
	return func(e *RoundEngine) { e.rng = rng }
}

// WithClock sets the clock used to time responses.
func WithClock(c Clock) Option {
	return func(e *RoundEngine) { e.clock = c }
}

// NewRoundEngine creates an engine that records into session.
func NewRoundEngine(session *Session, opts ...Option) *RoundEngine {
	e := &RoundEngine{
		session: session,
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rand returns the engine's random source so delays share its seed.
func (e *RoundEngine) Rand() *rand.Rand {
	return e.rng
}

// StartRound picks a new stimulus, starts the reaction timer and counts the
// presentation. Any round still open is replaced.
func (e *RoundEngine) StartRound(d Difficulty) RoundSpec {
	spec := RoundSpec{
		Target:   gesture.Answerable[e.rng.IntN(len(gesture.Answerable))],
		Polarity: gesture.Lose,
	}
	if e.rng.Float64() < d.WinRatio {
		spec.Polarity = gesture.Win
	}

	e.spec = spec
	e.open = true
	e.wrong = 0
	e.session.presentRound()
	e.startedAt = e.clock()

	return spec
}

// Current returns the open round, if any.
func (e *RoundEngine) Current() (RoundSpec, bool) {
	return e.spec, e.open
}

// Evaluate scores g against the open round. A correct response closes the
// round and records its result; a wrong one is counted and leaves the round
// open for another attempt.
func (e *RoundEngine) Evaluate(g gesture.Gesture) (Verdict, error) {
	now := e.clock()

	if !e.open {
		return Verdict{}, ErrNoOpenRound
	}
	if !g.IsAnswerable() {
		return Verdict{}, goerr.Wrap(ErrNotAnswerable, "cannot evaluate", goerr.V("gesture", g))
	}

	expected := e.spec.Expected()
	if g != expected {
		e.wrong++
		e.session.RecordFailure()
		return Verdict{Correct: false, Expected: expected}, nil
	}

	elapsed := now.Sub(e.startedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	reaction := roundTo(float64(elapsed)/float64(time.Millisecond), 2)

	e.session.RecordSuccess(RoundResult{
		Target:        e.spec.Target,
		Polarity:      e.spec.Polarity,
		Response:      g,
		ReactionMs:    reaction,
		WrongAttempts: e.wrong,
		Timestamp:     now,
	})
	e.open = false

	return Verdict{Correct: true, ReactionMs: reaction, Expected: expected}, nil
}

// WrongAttempts returns the wrong responses given in the current round.
func (e *RoundEngine) WrongAttempts() int {
	return e.wrong
}

// Cancel closes the open round without recording anything.
func (e *RoundEngine) Cancel() {
	e.open = false
	e.wrong = 0
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
