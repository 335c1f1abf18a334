// Package tui provides the Bubble Tea training interface and the terminal
// renderings of sessions and the leaderboard.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ayusman/neurosprint/internal/gesture"
	"github.com/ayusman/neurosprint/internal/session"
	"github.com/ayusman/neurosprint/internal/trainer"
)

// EventMsg carries a session event into the program.
type EventMsg session.Event

type startErrMsg struct{ err error }

type phase int

const (
	phaseStarting phase = iota
	phaseWarmup
	phaseNeutral
	phaseArming
	phaseRound
	phaseDone
	phaseAborted
	phaseFailed
)

// Options configures the training screen.
type Options struct {
	// Username is empty for guest sessions, which are not saved.
	Username   string
	Difficulty trainer.Difficulty
	Trials     int
	// Start begins a session without blocking; Abort ends it.
	Start func() error
	Abort func()
}

// Model implements the Bubble Tea training UI.
type Model struct {
	opts Options

	width  int
	height int

	phase        phase
	hand         gesture.Gesture
	round        *trainer.RoundSpec
	stats        trainer.Summary
	lastReaction float64
	feedback     string
	feedbackOK   bool
	summary      *trainer.Summary
	saveStatus   string
	saving       bool
	err          error

	spinner spinner.Model
	ticking bool
}

// NewModel constructs a training TUI model.
func NewModel(opts Options) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = mutedStyle
	return &Model{opts: opts, hand: gesture.Unknown, spinner: sp}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.start()
}

func (m *Model) start() tea.Cmd {
	start := m.opts.Start
	return func() tea.Msg {
		if start == nil {
			return nil
		}
		if err := start(); err != nil {
			return startErrMsg{err: err}
		}
		return nil
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case EventMsg:
		m.apply(session.Event(msg))
		if !m.ticking {
			m.ticking = true
			return m, m.spinner.Tick
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case startErrMsg:
		m.phase = phaseFailed
		m.err = msg.err
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		if m.running() && m.opts.Abort != nil {
			m.opts.Abort()
		}
		return m, tea.Quit
	case "r", "enter":
		if m.running() {
			return m, nil
		}
		m.reset()
		return m, m.start()
	}
	return m, nil
}

func (m *Model) running() bool {
	switch m.phase {
	case phaseDone, phaseAborted, phaseFailed:
		return false
	}
	return true
}

func (m *Model) reset() {
	m.phase = phaseStarting
	m.round = nil
	m.stats = trainer.Summary{}
	m.lastReaction = 0
	m.feedback = ""
	m.summary = nil
	m.saveStatus = ""
	m.saving = false
	m.err = nil
}

func (m *Model) apply(e session.Event) {
	switch e.Kind {
	case session.EventStarted:
		m.phase = phaseWarmup
		m.stats = e.Stats
	case session.EventNeutralPrompt:
		m.phase = phaseNeutral
		m.round = nil
	case session.EventHand:
		m.hand = e.Gesture
	case session.EventNeutralAcknowledged:
		m.phase = phaseArming
	case session.EventRoundStarted:
		m.phase = phaseRound
		m.round = e.Round
		m.stats = e.Stats
		m.feedback = ""
	case session.EventAttempt:
		m.stats = e.Stats
		m.feedbackOK = e.Correct
		if e.Correct {
			m.lastReaction = e.ReactionMs
			m.feedback = fmt.Sprintf("✓ %s in %.0f ms", e.Gesture, e.ReactionMs)
		} else {
			m.feedback = fmt.Sprintf("✗ %s, the answer was %s", e.Gesture, e.Expected)
		}
	case session.EventCompleted:
		m.phase = phaseDone
		sum := e.Stats
		m.summary = &sum
		m.stats = sum
		if m.opts.Username == "" {
			m.saveStatus = "Guest session: results are not saved."
		} else {
			m.saveStatus = "Saving..."
			m.saving = true
		}
	case session.EventAborted:
		m.phase = phaseAborted
	case session.EventSaved:
		m.saving = false
		m.saveStatus = "Saved for " + m.opts.Username + "."
	case session.EventSaveFailed:
		m.saving = false
		m.saveStatus = "Could not save the session: " + e.Error
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	sections := []string{m.renderHeader(), "", m.renderBody()}
	if m.running() {
		sections = append(sections, "", m.renderStatus())
		if m.feedback != "" {
			style := badStyle
			if m.feedbackOK {
				style = goodStyle
			}
			sections = append(sections, style.Render(m.feedback))
		}
		sections = append(sections, "", mutedStyle.Render("q: abort"))
	}

	content := boxStyle.Render(strings.Join(sections, "\n"))
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) renderHeader() string {
	user := m.opts.Username
	if user == "" {
		user = "guest"
	}
	label := m.opts.Difficulty.Label
	if label == "" {
		label = m.opts.Difficulty.Name
	}
	return titleStyle.Render("NeuroSprint") + mutedStyle.Render(" · "+user+" · "+label)
}

func (m *Model) renderBody() string {
	switch m.phase {
	case phaseStarting:
		return m.spinner.View() + " Opening the camera..."
	case phaseWarmup:
		return m.spinner.View() + " Get ready..."
	case phaseNeutral:
		return gesture.Neutral.Emoji() + "  Show the neutral pose (index finger up) to arm the next round."
	case phaseArming:
		return gesture.Neutral.Emoji() + "  Hold on, the next round is coming " + m.spinner.View()
	case phaseRound:
		if m.round == nil {
			return ""
		}
		stimulus := titleStyle.Render(m.round.Target.Emoji() + "  " + strings.ToUpper(string(m.round.Target)))
		if m.round.Polarity == gesture.Win {
			return stimulus + "\n" + goodStyle.Render("GO: show the gesture that BEATS it")
		}
		return stimulus + "\n" + badStyle.Render("NO-GO: show the gesture that LOSES to it")
	case phaseDone:
		lines := []string{titleStyle.Render("Session complete"), ""}
		if m.summary != nil {
			lines = append(lines, RenderSummary(*m.summary))
		}
		status := m.saveStatus
		if m.saving {
			status = m.spinner.View() + " " + status
		}
		lines = append(lines, "", status, "", mutedStyle.Render("r: train again · q: quit"))
		return strings.Join(lines, "\n")
	case phaseAborted:
		return "Session aborted. Partial results were discarded.\n\n" + mutedStyle.Render("r: start over · q: quit")
	case phaseFailed:
		return badStyle.Render("Could not start the session: "+errString(m.err)) + "\n\n" + mutedStyle.Render("r: retry · q: quit")
	}
	return ""
}

func (m *Model) renderStatus() string {
	required := m.stats.TrialsRequired
	if required == 0 {
		required = m.opts.Trials
	}
	segments := []string{
		handStatus(m.hand),
		fmt.Sprintf("Trial %d/%d", m.stats.TrialsCompleted, required),
		fmt.Sprintf("Avg %.0f ms", m.stats.AvgReactionMs),
		fmt.Sprintf("Wrong %d", m.stats.TotalWrong),
	}
	if m.lastReaction > 0 {
		segments = append(segments, fmt.Sprintf("Last %.0f ms", m.lastReaction))
	}
	return mutedStyle.Render(strings.Join(segments, "  "))
}

func handStatus(g gesture.Gesture) string {
	switch {
	case g == gesture.Neutral:
		return g.Emoji() + " neutral"
	case g.IsAnswerable():
		return g.Emoji() + " " + string(g)
	}
	return "no gesture"
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
