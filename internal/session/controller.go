// Package session coordinates one reaction training session: it feeds frame
// labels through the debouncer, starts rounds after the neutral gate and its
// delay, scores candidates and finalizes the session on completion.
//
// A Controller is driven from a single goroutine. Tick and the callbacks
// handed to the Scheduler must all run on that goroutine.
package session

import (
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/ayusman/neurosprint/internal/debounce"
	"github.com/ayusman/neurosprint/internal/gesture"
	"github.com/ayusman/neurosprint/internal/trainer"
)

// DefaultWarmup is the pause between starting a session and the first
// neutral prompt.
const DefaultWarmup = 1500 * time.Millisecond

// ErrAlreadyStarted is returned by Start on a controller that has run.
var ErrAlreadyStarted = errors.New("session already started")

// Scheduler runs fn once after d. The returned function cancels the call if
// it has not run yet. fn must be delivered on the controller's goroutine.
type Scheduler interface {
	After(d time.Duration, fn func()) (cancel func())
}

// Config describes one session.
type Config struct {
	Difficulty     trainer.Difficulty
	RequiredTrials int
	Warmup         time.Duration
	// OnEvent receives every controller event synchronously.
	OnEvent func(Event)
}

// Outcome is the finalized result of a completed session.
type Outcome struct {
	Summary trainer.Summary
	Trials  []trainer.RoundResult
}

// Controller owns the debouncer, round engine and aggregator of a session.
type Controller struct {
	cfg    Config
	sched  Scheduler
	agg    *trainer.Session
	engine *trainer.RoundEngine
	deb    *debounce.Debouncer

	started  bool
	done     bool
	aborted  bool
	outcome  *Outcome
	cancel   func()
	lastHand gesture.Gesture
}

// New validates cfg and builds a controller. Engine options (random source,
// clock) are passed through to the round engine.
func New(cfg Config, sched Scheduler, opts ...trainer.Option) (*Controller, error) {
	if err := cfg.Difficulty.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid session difficulty")
	}
	if cfg.RequiredTrials < 1 {
		return nil, goerr.New("required trials must be positive", goerr.V("required_trials", cfg.RequiredTrials))
	}
	if sched == nil {
		return nil, goerr.New("scheduler is nil")
	}
	if cfg.Warmup < 0 {
		cfg.Warmup = 0
	}

	agg := trainer.NewSession(cfg.Difficulty, cfg.RequiredTrials)
	return &Controller{
		cfg:    cfg,
		sched:  sched,
		agg:    agg,
		engine: trainer.NewRoundEngine(agg, opts...),
		deb:    debounce.New(),
	}, nil
}

// Start schedules the warm-up after which the neutral gate opens.
func (c *Controller) Start() error {
	if c.started {
		return ErrAlreadyStarted
	}
	c.started = true
	c.emit(Event{Kind: EventStarted, Stats: c.agg.Stats()})

	c.schedule(c.cfg.Warmup, func() {
		c.deb.Begin()
		c.emit(Event{Kind: EventNeutralPrompt})
	})
	return nil
}

// Tick consumes the classification of one frame.
func (c *Controller) Tick(label gesture.Gesture) {
	if c.done {
		return
	}
	if label != c.lastHand {
		c.lastHand = label
		c.emit(Event{Kind: EventHand, Gesture: label})
	}

	ev := c.deb.Feed(label)
	switch ev.Kind {
	case debounce.NeutralAcknowledged:
		delay := c.cfg.Difficulty.Delay(c.engine.Rand())
		c.emit(Event{Kind: EventNeutralAcknowledged, Delay: delay})
		c.schedule(delay, c.openRound)

	case debounce.Candidate:
		c.evaluate(ev.Gesture)
	}
}

func (c *Controller) openRound() {
	if c.done || !c.deb.OpenRound() {
		return
	}
	spec := c.engine.StartRound(c.cfg.Difficulty)
	c.emit(Event{Kind: EventRoundStarted, Round: &spec, Stats: c.agg.Stats()})
}

func (c *Controller) evaluate(g gesture.Gesture) {
	v, err := c.engine.Evaluate(g)
	if err != nil {
		// the debouncer only emits candidates while a round is open
		return
	}

	spec, _ := c.engine.Current()
	if !v.Correct {
		c.emit(Event{
			Kind:     EventAttempt,
			Gesture:  g,
			Expected: v.Expected,
			Round:    &spec,
			Stats:    c.agg.Stats(),
		})
		return
	}

	c.deb.Succeeded()
	c.emit(Event{
		Kind:       EventAttempt,
		Gesture:    g,
		Expected:   v.Expected,
		Correct:    true,
		ReactionMs: v.ReactionMs,
		Stats:      c.agg.Stats(),
	})

	if !c.agg.IsComplete() {
		c.emit(Event{Kind: EventNeutralPrompt})
		return
	}

	c.finish()
	summary, trials := c.agg.Finalize()
	c.outcome = &Outcome{Summary: summary, Trials: trials}
	c.emit(Event{Kind: EventCompleted, Stats: summary})
}

// Abort ends the session at any point without finalizing it. Partial
// results are discarded.
func (c *Controller) Abort() {
	if c.done {
		return
	}
	c.aborted = true
	c.finish()
	c.emit(Event{Kind: EventAborted})
}

func (c *Controller) finish() {
	c.done = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.engine.Cancel()
	c.deb.End()
}

func (c *Controller) schedule(d time.Duration, fn func()) {
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel = c.sched.After(d, func() {
		c.cancel = nil
		if c.done {
			return
		}
		fn()
	})
}

// Done reports whether the session completed or was aborted.
func (c *Controller) Done() bool {
	return c.done
}

// Aborted reports whether the session was aborted.
func (c *Controller) Aborted() bool {
	return c.aborted
}

// Outcome returns the finalized result, or nil unless the session completed.
func (c *Controller) Outcome() *Outcome {
	return c.outcome
}

// Stats returns live statistics of the running session.
func (c *Controller) Stats() trainer.Summary {
	return c.agg.Stats()
}

// State returns the debouncer state.
func (c *Controller) State() debounce.State {
	return c.deb.State()
}

func (c *Controller) emit(e Event) {
	if c.cfg.OnEvent == nil {
		return
	}
	e.State = c.deb.State().String()
	c.cfg.OnEvent(e)
}
