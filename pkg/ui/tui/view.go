package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const maxActiveShown = 8

// View renders the dashboard
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	half := (m.width - 4) / 2
	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatsPanel(half),
		m.renderActivePanel(half),
	)
	right := m.renderLogsPanel(half)

	sections := []string{
		headerStyle.Width(m.width).Render("LINKHARVEST  " + m.title),
		lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right),
	}
	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help, q to stop"))
	}

	return baseStyle.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

func (m *Model) renderStatsPanel(width int) string {
	row := func(label, value string) string {
		return fmt.Sprintf("%s %s", statsLabelStyle.Render(label), statsValueStyle.Render(value))
	}

	stats := []string{
		row("Elapsed:", formatDuration(time.Since(m.startTime))),
		row("Files:", fmt.Sprintf("%d/%d", m.Done(), m.total)),
		row("Saved:", successStyle.Render(fmt.Sprintf("%d", m.completed))),
		row("Failed:", errorStyle.Render(fmt.Sprintf("%d", m.failed))),
		row("Size:", FormatBytes(m.bytes)),
		row("ETA:", formatDuration(m.ETA())),
		m.progress.ViewAs(m.Percent()),
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(" BATCH "), strings.Join(stats, "\n")),
	)
}

func (m *Model) renderActivePanel(width int) string {
	active := m.ActiveTasks()

	var lines []string
	if len(active) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(dimWhite).Render("No active downloads"))
	}
	for i, t := range active {
		if i == maxActiveShown {
			lines = append(lines, fmt.Sprintf("  ... and %d more", len(active)-maxActiveShown))
			break
		}
		lines = append(lines, activeItemStyle.Render(fmt.Sprintf("%s #%d %s",
			m.spinner.View(), t.Worker, truncate(t.URL, width-16))))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(" ACTIVE "), strings.Join(lines, "\n")),
	)
}

func (m *Model) renderLogsPanel(width int) string {
	start := len(m.logMessages) - 12
	if start < 0 {
		start = 0
	}

	var logs []string
	for _, log := range m.logMessages[start:] {
		timestamp := logTimestampStyle.Render(log.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(log.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level))
		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, logMessageStyle.Render(truncate(log.Message, width-25))))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = lipgloss.NewStyle().Foreground(dimWhite).Render("No logs yet...")
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(" LOG "), content),
	)
}

func (m *Model) renderHelp() string {
	help := `
  q/Q      - Stop the batch and quit
  ctrl+l   - Clear the log
  ?        - Toggle this help

  ` + successStyle.Render("Green") + `  - saved
  ` + errorStyle.Render("Red") + `    - failed
`
	return panelStyle.Width(m.width).Render(help)
}

func truncate(s string, max int) string {
	if max < 4 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
