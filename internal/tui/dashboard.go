package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/studiowebux/stampede/internal/runner"
)

// Adaptive color definitions for light/dark terminal support
var (
	colorGreen = lipgloss.AdaptiveColor{Light: "#006400", Dark: "#00ff00"}
	colorRed   = lipgloss.AdaptiveColor{Light: "#8b0000", Dark: "#ff0000"}
	colorGray  = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"}
	colorCyan  = lipgloss.AdaptiveColor{Light: "#008b8b", Dark: "#00ffff"}
)

// Style definitions
var (
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorGreen)

	styleError = lipgloss.NewStyle().
			Foreground(colorRed)

	styleSubtle = lipgloss.NewStyle().
			Foreground(colorGray)
)

const tickInterval = 250 * time.Millisecond

// tickMsg drives the periodic stats refresh
type tickMsg time.Time

// Model is the live run dashboard. It polls the runner for stats snapshots
// and never touches runner internals directly. The program is quit
// externally once the runner has drained.
type Model struct {
	runner   *runner.Runner
	tasks    viewport.Model
	width    int
	height   int
	stopping bool
}

// NewModel creates a dashboard for a started runner.
func NewModel(r *runner.Runner) *Model {
	return &Model{
		runner: r,
		tasks:  viewport.New(80, 10),
	}
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.tasks.Width = msg.Width - 8
		m.tasks.Height = msg.Height - 18
		if m.tasks.Height < 3 {
			m.tasks.Height = 3
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if !m.stopping {
				m.stopping = true
				m.runner.Cancel()
			}
			return m, nil
		case "up", "k":
			m.tasks.LineUp(1)
			return m, nil
		case "down", "j":
			m.tasks.LineDown(1)
			return m, nil
		}
		return m, nil

	case tickMsg:
		m.tasks.SetContent(m.renderTaskTable())
		return m, tick()
	}

	return m, nil
}

// View implements tea.Model
func (m *Model) View() string {
	if m.width == 0 {
		return ""
	}

	st := m.runner.GetStats()
	run := m.runner.GetRun()
	elapsed := m.runner.Elapsed()

	var content strings.Builder

	title := "stampede - running"
	if m.stopping {
		title = "stampede - stopping"
	}
	content.WriteString(styleTitle.Render(title) + "\n\n")

	content.WriteString(fmt.Sprintf("Target: %s\n", run.Host))
	content.WriteString(fmt.Sprintf("Elapsed: %s    Active users: %d\n\n", formatDuration(elapsed), st.ActiveUsers))

	// Counts
	content.WriteString(styleTitle.Render("Requests") + "\n")
	content.WriteString(fmt.Sprintf("Total:    %d\n", st.CompletedRequests))
	content.WriteString(styleSuccess.Render(fmt.Sprintf("Success:  %d (%.1f%%)", st.SuccessCount, st.SuccessRate())) + "\n")
	content.WriteString(styleError.Render(fmt.Sprintf("Failures: %d (%.1f%%)", st.FailureCount, st.FailureRate())) + "\n")
	if st.AuthFailures > 0 {
		content.WriteString(styleError.Render(fmt.Sprintf("Auth failures: %d", st.AuthFailures)) + "\n")
	}

	rps := 0.0
	if elapsed.Seconds() > 0 {
		rps = float64(st.CompletedRequests) / elapsed.Seconds()
	}
	content.WriteString(fmt.Sprintf("Requests/sec: %.2f\n\n", rps))

	// Latency
	content.WriteString(styleTitle.Render("Latency") + "\n")
	content.WriteString(fmt.Sprintf("avg %.0fms   min %dms   max %dms   p50 %dms   p95 %dms   p99 %dms\n\n",
		st.AvgDurationMs(), st.Min(), st.Max(), st.P50(), st.P95(), st.P99()))

	// Per-task breakdown
	content.WriteString(styleTitle.Render("Tasks") + "\n")
	content.WriteString(m.tasks.View() + "\n\n")

	footer := "q/esc: stop run    j/k: scroll tasks"
	if m.stopping {
		footer = "Stopping... waiting for users to drain"
	}
	content.WriteString(styleSubtle.Render(footer))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorCyan).
		Padding(1, 2).
		Width(m.width - 4)

	return box.Render(content.String())
}

// renderTaskTable renders the per-task stats rows for the viewport.
func (m *Model) renderTaskTable() string {
	st := m.runner.GetStats()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-12s %-24s %8s %8s %8s\n", "PROFILE", "TASK", "OK", "FAIL", "AVG MS"))
	for _, ts := range st.Tasks() {
		row := fmt.Sprintf("%-12s %-24s %8d %8d %8.0f", ts.Profile, ts.Task, ts.SuccessCount, ts.FailureCount, ts.AvgDurationMs())
		if ts.FailureCount > 0 {
			row = styleError.Render(row)
		}
		sb.WriteString(row + "\n")
	}
	return sb.String()
}

// formatDuration renders a duration as mm:ss or hh:mm:ss.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	min := d / time.Minute
	sec := (d - min*time.Minute) / time.Second
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, min, sec)
	}
	return fmt.Sprintf("%02d:%02d", min, sec)
}
