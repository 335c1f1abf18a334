package app

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/ayusman/neurosprint/internal/capture"
	"github.com/ayusman/neurosprint/internal/gesture"
	"github.com/ayusman/neurosprint/internal/session"
)

type pipeline struct {
	app    *App
	calls  chan func()
	exited chan struct{}
}

func newPipeline(a *App) *pipeline {
	return &pipeline{
		app:    a,
		calls:  make(chan func()),
		exited: make(chan struct{}),
	}
}

func (p *pipeline) scheduler() session.Scheduler {
	return loopScheduler{calls: p.calls, exited: p.exited}
}

// run is the frame loop. Every controller call happens here: frame ticks,
// timer callbacks and the abort request.
//
// Once the session is over the camera is released, the loop exits and the
// completed session is saved before done is closed.
func (p *pipeline) run(ctrl *session.Controller, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	cam := p.app.config.Camera
	src := p.app.config.Source

	fps := cam.FPS()
	if fps <= 0 {
		fps = capture.DefaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))

	var readFailing, classifyFailing bool
	for !ctrl.Done() {
		select {
		case <-stop:
			ctrl.Abort()

		case fn := <-p.calls:
			fn()

		case <-ticker.C:
			frame, err := cam.ReadFrame()
			if err != nil {
				if !readFailing {
					log.Printf("Error reading frame: %v", err)
				}
				readFailing = true
				continue
			}
			readFailing = false

			label, err := src.Classify(frame)
			frame.Close()
			if err != nil {
				if !classifyFailing {
					log.Printf("Error classifying frame: %v", err)
				}
				classifyFailing = true
				label = gesture.Unknown
			} else {
				classifyFailing = false
			}

			ctrl.Tick(label)
		}
	}

	ticker.Stop()
	close(p.exited)
	if err := cam.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	res := Result{Aborted: ctrl.Aborted(), Outcome: ctrl.Outcome()}
	if res.Outcome != nil {
		res.Saved, res.SaveErr = p.app.save(res.Outcome)
	}
	p.app.setResult(res)

	if res.Aborted {
		log.Println("training session aborted")
	} else {
		log.Printf("training session completed, avg %.2f ms", res.Outcome.Summary.AvgReactionMs)
	}
}

// loopScheduler delivers timer callbacks to the pipeline goroutine.
type loopScheduler struct {
	calls  chan<- func()
	exited <-chan struct{}
}

func (s loopScheduler) After(d time.Duration, fn func()) func() {
	var cancelled atomic.Bool
	t := time.AfterFunc(d, func() {
		select {
		case s.calls <- func() {
			if !cancelled.Load() {
				fn()
			}
		}:
		case <-s.exited:
		}
	})
	return func() {
		cancelled.Store(true)
		t.Stop()
	}
}
