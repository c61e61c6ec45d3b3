package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Colors
var (
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#06B6D4") // Cyan
	Success   = lipgloss.Color("#10B981") // Green
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Error     = lipgloss.Color("#EF4444") // Red
	Muted     = lipgloss.Color("#6B7280") // Gray

	colorTextBright = lipgloss.Color("#F8FAFC")
	colorTextNormal = lipgloss.Color("#CBD5E1")
	colorTextMuted  = lipgloss.Color("#64748B")
)

// Text styles (can call .Render())
var (
	TextBright = lipgloss.NewStyle().Foreground(colorTextBright)
	TextNormal = lipgloss.NewStyle().Foreground(colorTextNormal)
	TextMuted  = lipgloss.NewStyle().Foreground(colorTextMuted)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorTextBright).
			Background(Primary).
			Padding(0, 2)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Success)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Error)

	WarningStyle = lipgloss.NewStyle().
			Foreground(Warning)

	InfoStyle = lipgloss.NewStyle().
			Foreground(Secondary)

	HelpStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	// Status indicators
	StatusOnline = lipgloss.NewStyle().
			Foreground(Success).
			SetString("●")

	StatusOffline = lipgloss.NewStyle().
			Foreground(Error).
			SetString("●")

	StatusPending = lipgloss.NewStyle().
			Foreground(Warning).
			SetString("●")
)

// Helper functions
func RenderKey(key string) string {
	return HelpKeyStyle.Render(key)
}

func RenderHelp(key, desc string) string {
	return RenderKey(key) + HelpStyle.Render(" "+desc)
}

func StatusIcon(status string) string {
	switch status {
	case "online", "connected", "completed":
		return StatusOnline.String()
	case "offline", "disconnected", "failed":
		return StatusOffline.String()
	case "pending", "queued", "printing":
		return StatusPending.String()
	default:
		return StatusPending.String()
	}
}

func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
