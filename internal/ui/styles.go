package ui

import "github.com/charmbracelet/lipgloss"

// Styles holds the widget's styled components.
type Styles struct {
	Header     lipgloss.Style
	Footer     lipgloss.Style
	SessionBar lipgloss.Style
	Selected   lipgloss.Style

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	AgentLabel     lipgloss.Style
	Body           lipgloss.Style
	Muted          lipgloss.Style

	HumanBanner lipgloss.Style
	Escalate    lipgloss.Style
	EscalateHot lipgloss.Style

	Prompt  lipgloss.Style
	Spinner lipgloss.Style
	Error   lipgloss.Style
}

// DefaultStyles returns the widget color scheme.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Background(lipgloss.Color("#1d4ed8")).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),

		Footer: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6b7280")).
			Padding(0, 2),

		SessionBar: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9ca3af")),

		Selected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1d4ed8")).
			Bold(true),

		UserLabel: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#059669")).
			Bold(true),

		AssistantLabel: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1d4ed8")).
			Bold(true),

		AgentLabel: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d97706")).
			Bold(true),

		Body: lipgloss.NewStyle(),

		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9ca3af")),

		HumanBanner: lipgloss.NewStyle().
			Background(lipgloss.Color("#d97706")).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 1),

		Escalate: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6b7280")),

		EscalateHot: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#dc2626")).
			Bold(true),

		Prompt: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1d4ed8")),

		Spinner: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d97706")),

		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#dc2626")),
	}
}
