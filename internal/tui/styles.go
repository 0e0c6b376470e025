package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	sectionStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	overdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	doneStyle    = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	focusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)

	priorityStyles = map[int]lipgloss.Style{
		0: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		1: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		2: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}
)

func panel(inner string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(0, 1).
		Render(inner)
}
