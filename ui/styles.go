package ui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	Purple    = lipgloss.Color("#7C3AED")
	Cyan      = lipgloss.Color("#06B6D4")
	Green     = lipgloss.Color("#10B981")
	Amber     = lipgloss.Color("#F59E0B")
	Red       = lipgloss.Color("#EF4444")
	Gray      = lipgloss.Color("#6B7280")
	DarkGray  = lipgloss.Color("#374151")
	LightGray = lipgloss.Color("#9CA3AF")
	White     = lipgloss.Color("#F9FAFB")
)

var (
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(DarkGray)

	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Background(Purple).
			Padding(0, 1).
			Bold(true)

	// Run states
	RunRunning = lipgloss.NewStyle().
			Foreground(Green).
			Bold(true)

	RunStopping = lipgloss.NewStyle().
			Foreground(Amber).
			Bold(true)

	RunDone = lipgloss.NewStyle().
			Foreground(Cyan)

	RunFailed = lipgloss.NewStyle().
			Foreground(Red).
			Bold(true)

	// Output lines
	OutputStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	ToolStyle = lipgloss.NewStyle().
			Foreground(Cyan)

	StderrStyle = lipgloss.NewStyle().
			Foreground(Amber)

	ErrorLineStyle = lipgloss.NewStyle().
			Foreground(Red)

	// Plain CLI output
	LabelStyle = lipgloss.NewStyle().
			Foreground(Gray)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green).
			Bold(true)

	WarnStyle = lipgloss.NewStyle().
			Foreground(Amber)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(Gray)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(Cyan)
)
