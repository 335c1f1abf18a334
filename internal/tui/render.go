package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ayusman/neurosprint/internal/store"
	"github.com/ayusman/neurosprint/internal/trainer"
)

var (
	accent      = lipgloss.Color("#74c7ec")
	good        = lipgloss.Color("#a6e3a1")
	bad         = lipgloss.Color("#f38ba8")
	muted       = lipgloss.Color("#8C8C8C")
	titleStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(muted).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(muted)
	goodStyle   = lipgloss.NewStyle().Foreground(good).Bold(true)
	badStyle    = lipgloss.NewStyle().Foreground(bad).Bold(true)
	boxStyle    = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 3)
)

const timeLayout = "2006-01-02 15:04"

// RenderSummary formats the statistics of one session.
func RenderSummary(sum trainer.Summary) string {
	label := sum.DifficultyLabel
	if label == "" {
		label = sum.Difficulty
	}
	rows := [][]string{
		{"Difficulty", label},
		{"Trials", fmt.Sprintf("%d / %d", sum.TrialsCompleted, sum.TrialsRequired)},
		{"Average", ms(sum.AvgReactionMs)},
		{"Best", ms(sum.MinReactionMs)},
		{"Worst", ms(sum.MaxReactionMs)},
		{"Std dev", ms(sum.StdDevMs)},
		{"Wrong", strconv.Itoa(sum.TotalWrong)},
		{"Accuracy", fmt.Sprintf("%.1f%%", sum.Accuracy*100)},
	}
	if !sum.StartedAt.IsZero() && !sum.EndedAt.IsZero() {
		rows = append(rows, []string{"Duration", sum.EndedAt.Sub(sum.StartedAt).Round(100 * time.Millisecond).String()})
	}
	return strings.Join(formatTable(nil, rows, map[int]bool{1: true}), "\n")
}

// RenderTrials lists the rounds of a session in order.
func RenderTrials(trials []trainer.RoundResult) string {
	if len(trials) == 0 {
		return mutedStyle.Render("No trials recorded.")
	}
	rows := make([][]string, 0, len(trials))
	for i, t := range trials {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			string(t.Target),
			string(t.Polarity),
			string(t.Response),
			ms(t.ReactionMs),
			strconv.Itoa(t.WrongAttempts),
		})
	}
	headers := []string{"#", "Target", "Goal", "Answer", "Reaction", "Wrong"}
	return strings.Join(formatTable(headers, rows, map[int]bool{0: true, 4: true, 5: true}), "\n")
}

// RenderHistory lists sessions, newest first as given.
func RenderHistory(sessions []*store.Session) string {
	if len(sessions) == 0 {
		return mutedStyle.Render("No sessions yet. Run `neurosprint train` to record one.")
	}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		sum := s.Summary
		synced := ""
		if s.Synced {
			synced = "✓"
		}
		rows = append(rows, []string{
			sum.EndedAt.Local().Format(timeLayout),
			sum.Difficulty,
			fmt.Sprintf("%d/%d", sum.TrialsCompleted, sum.TrialsRequired),
			ms(sum.AvgReactionMs),
			ms(sum.MinReactionMs),
			strconv.Itoa(sum.TotalWrong),
			fmt.Sprintf("%.0f%%", sum.Accuracy*100),
			synced,
		})
	}
	headers := []string{"Date", "Difficulty", "Trials", "Average", "Best", "Wrong", "Acc", "Synced"}
	return strings.Join(formatTable(headers, rows, map[int]bool{2: true, 3: true, 4: true, 5: true, 6: true}), "\n")
}

// RenderLeaderboard ranks users fastest first as given.
func RenderLeaderboard(entries []store.LeaderboardEntry) string {
	if len(entries) == 0 {
		return mutedStyle.Render("The leaderboard is empty.")
	}
	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		age := "-"
		if e.Age != nil {
			age = strconv.Itoa(*e.Age)
		}
		gender := e.Gender
		if gender == "" {
			gender = "-"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			e.Username,
			age,
			gender,
			ms(e.AvgReaction),
			ms(e.BestEver),
			strconv.Itoa(e.SessionsCount),
			strconv.Itoa(e.PerfectSessions),
		})
	}
	headers := []string{"#", "User", "Age", "Gender", "Average", "Best", "Sessions", "Perfect"}
	return strings.Join(formatTable(headers, rows, map[int]bool{0: true, 2: true, 4: true, 5: true, 6: true, 7: true}), "\n")
}

func ms(v float64) string {
	return fmt.Sprintf("%.2f ms", v)
}

// RenderUsers lists profiles and marks the active one.
func RenderUsers(users []*store.User, activeID string) string {
	if len(users) == 0 {
		return mutedStyle.Render("No users yet. Create one with `neurosprint user create <name>`.")
	}
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		mark := ""
		if u.ID == activeID {
			mark = "*"
		}
		age := "-"
		if u.Age != nil {
			age = strconv.Itoa(*u.Age)
		}
		gender := u.Gender
		if gender == "" {
			gender = "-"
		}
		rows = append(rows, []string{mark, u.Username, age, gender, u.CreatedAt.Local().Format(timeLayout)})
	}
	headers := []string{"", "User", "Age", "Gender", "Created"}
	return strings.Join(formatTable(headers, rows, map[int]bool{2: true}), "\n")
}
