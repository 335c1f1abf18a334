// Package tray provides a system tray front-end for headless NeuroSprint
// training.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onStart func()
	onAbort func()
	onQuit  func()
	running bool
	status  string
	mu      sync.RWMutex

	// Menu items stored for later updates
	menuSession *systray.MenuItem
	menuStatus  *systray.MenuItem
	menuLast    *systray.MenuItem
	menuSync    *systray.MenuItem
}

// New creates a new Tray instance with no session running.
func New() *Tray {
	return &Tray{status: "Idle"}
}

// OnStart sets the callback invoked when the user starts a session.
func (t *Tray) OnStart(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStart = fn
}

// OnAbort sets the callback invoked when the user aborts the running session.
func (t *Tray) OnAbort(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onAbort = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("NeuroSprint")
	systray.SetTooltip("NeuroSprint reaction trainer")

	t.mu.Lock()
	t.menuSession = systray.AddMenuItem(sessionTitle(t.running), "Start or abort a training session")
	systray.AddSeparator()

	t.menuStatus = systray.AddMenuItem(t.status, "Session status")
	t.menuStatus.Disable()
	t.menuLast = systray.AddMenuItem(lastTitle(0), "Last reaction time")
	t.menuLast.Disable()
	t.menuSync = systray.AddMenuItem(syncTitle(false, 0), "Leaderboard replica")
	t.menuSync.Disable()
	systray.AddSeparator()
	t.mu.Unlock()

	menuQuit := systray.AddMenuItem("Quit", "Quit NeuroSprint")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuSession.ClickedCh:
				t.handleSession()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleSession starts a session when idle and aborts the running one
// otherwise.
func (t *Tray) handleSession() {
	t.mu.RLock()
	callback := t.onStart
	if t.running {
		callback = t.onAbort
	}
	t.mu.RUnlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetRunning switches the session menu item between start and abort.
func (t *Tray) SetRunning(running bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = running
	if t.menuSession != nil {
		t.menuSession.SetTitle(sessionTitle(running))
	}
}

// SetStatus updates the status line, e.g. the current prompt. A status set
// before Run is shown once the menu exists.
func (t *Tray) SetStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
	if t.menuStatus != nil {
		t.menuStatus.SetTitle(status)
		systray.SetTooltip("NeuroSprint: " + status)
	}
}

// SetLastReaction updates the last reaction time display.
func (t *Tray) SetLastReaction(ms float64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.menuLast != nil {
		t.menuLast.SetTitle(lastTitle(ms))
	}
}

// SetSync shows whether the replica is reachable and how many sessions
// are waiting to be pushed.
func (t *Tray) SetSync(online bool, pending int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.menuSync != nil {
		t.menuSync.SetTitle(syncTitle(online, pending))
	}
}

// Status returns the current status line.
func (t *Tray) Status() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// IsRunning returns whether a session is in progress.
func (t *Tray) IsRunning() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.running
}

func sessionTitle(running bool) string {
	if running {
		return "■ Abort session"
	}
	return "▶ Start session"
}

func lastTitle(ms float64) string {
	if ms <= 0 {
		return "Last: none"
	}
	return fmt.Sprintf("Last: %.0f ms", ms)
}

func syncTitle(online bool, pending int) string {
	state := "offline"
	if online {
		state = "online"
	}
	if pending > 0 {
		return fmt.Sprintf("Replica: %s (%d pending)", state, pending)
	}
	return "Replica: " + state
}
