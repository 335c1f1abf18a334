// Package app runs NeuroSprint training sessions. One pipeline goroutine
// reads camera frames, classifies them and drives the session controller;
// finished sessions are handed to the results sink off that goroutine.
package app

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"gocv.io/x/gocv"

	"github.com/ayusman/neurosprint/internal/capture"
	"github.com/ayusman/neurosprint/internal/gesture"
	"github.com/ayusman/neurosprint/internal/session"
	"github.com/ayusman/neurosprint/internal/sink"
	"github.com/ayusman/neurosprint/internal/store"
	"github.com/ayusman/neurosprint/internal/trainer"
)

// SaveTimeout bounds the results sink call after a session completes.
const SaveTimeout = 15 * time.Second

// ErrRunning is returned by Start while a session is in progress.
var ErrRunning = errors.New("a session is already running")

// GestureSource labels one camera frame.
type GestureSource interface {
	Classify(frame *gocv.Mat) (gesture.Gesture, error)
	Close() error
}

// Broadcaster fans controller events out to live observers.
type Broadcaster interface {
	Broadcast(v any)
}

// Config holds configuration options for the application.
type Config struct {
	Camera capture.Camera
	Source GestureSource
	// Sink receives completed sessions. Nil skips persistence.
	Sink   sink.ResultsSink
	UserID string
	// Hub, when set, receives every event as well.
	Hub Broadcaster

	Difficulty     trainer.Difficulty
	RequiredTrials int
	// Warmup precedes the first neutral prompt. Zero prompts immediately.
	Warmup time.Duration

	// OnEvent is called from Start, then from the pipeline goroutine. The
	// calls never overlap.
	OnEvent func(session.Event)
	// EngineOptions are passed to every session's round engine.
	EngineOptions []trainer.Option
}

// Result describes how the last session ended.
type Result struct {
	Outcome *session.Outcome
	Aborted bool
	Saved   *store.Session
	SaveErr error
	// Err is set when the pipeline could not run at all.
	Err error
}

// App is the main application that runs one training session at a time.
type App struct {
	config Config

	mu     sync.Mutex
	abort  func()
	doneCh chan struct{}
	result Result
}

// New creates a new App with the given configuration.
func New(config Config) (*App, error) {
	if config.Camera == nil {
		return nil, goerr.New("camera is required")
	}
	if config.Source == nil {
		return nil, goerr.New("gesture source is required")
	}
	if config.RequiredTrials == 0 {
		config.RequiredTrials = trainer.DefaultRequiredTrials
	}
	if config.Difficulty.Name == "" {
		d, err := trainer.Preset(trainer.DefaultDifficulty)
		if err != nil {
			return nil, err
		}
		config.Difficulty = d
	}
	return &App{config: config}, nil
}

// Start opens the camera and begins a session in the background.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.doneCh != nil {
		select {
		case <-a.doneCh:
		default:
			return ErrRunning
		}
	}

	p := newPipeline(a)
	ctrl, err := session.New(session.Config{
		Difficulty:     a.config.Difficulty,
		RequiredTrials: a.config.RequiredTrials,
		Warmup:         a.config.Warmup,
		OnEvent:        a.emit,
	}, p.scheduler(), a.config.EngineOptions...)
	if err != nil {
		return err
	}

	if err := a.config.Camera.Open(); err != nil {
		return goerr.Wrap(err, "open camera")
	}

	if err := ctrl.Start(); err != nil {
		a.config.Camera.Close()
		return err
	}

	stop := make(chan struct{})
	var once sync.Once
	a.abort = func() { once.Do(func() { close(stop) }) }
	a.doneCh = make(chan struct{})
	a.result = Result{}
	go p.run(ctrl, stop, a.doneCh)

	log.Printf("training session started (%s, %d trials)", a.config.Difficulty.Name, a.config.RequiredTrials)
	return nil
}

// Abort ends the running session without saving it. It does not wait.
func (a *App) Abort() {
	a.mu.Lock()
	abort := a.abort
	a.mu.Unlock()
	if abort != nil {
		abort()
	}
}

// Done is closed when the current session has ended and its save attempt
// has returned. It is nil before the first Start.
func (a *App) Done() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.doneCh
}

// Running reports whether a session is in progress.
func (a *App) Running() bool {
	done := a.Done()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// Wait blocks until the current session ends or ctx is done.
func (a *App) Wait(ctx context.Context) (Result, error) {
	done := a.Done()
	if done == nil {
		return Result{}, goerr.New("no session started")
	}
	select {
	case <-done:
		return a.Result(), nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Result returns how the last session ended.
func (a *App) Result() Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

// Close aborts any running session, waits for it and releases the
// gesture source.
func (a *App) Close() error {
	a.Abort()
	if done := a.Done(); done != nil {
		<-done
	}
	return a.config.Source.Close()
}

func (a *App) setResult(r Result) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.result = r
}

func (a *App) emit(e session.Event) {
	if a.config.OnEvent != nil {
		a.config.OnEvent(e)
	}
	if a.config.Hub != nil {
		a.config.Hub.Broadcast(e)
	}
}

// save hands a completed session to the sink and reports the outcome.
func (a *App) save(out *session.Outcome) (*store.Session, error) {
	if a.config.Sink == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), SaveTimeout)
	defer cancel()

	saved, err := a.config.Sink.Save(ctx, a.config.UserID, out.Summary, out.Trials)
	if err != nil {
		log.Printf("save session: %v", err)
		a.emit(session.Event{Kind: session.EventSaveFailed, State: "ended", Stats: out.Summary, Error: err.Error()})
		return nil, err
	}
	a.emit(session.Event{Kind: session.EventSaved, State: "ended", Stats: out.Summary})
	return saved, nil
}
