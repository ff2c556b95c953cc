package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorOK      = lipgloss.Color("#10B981")
	colorAccent  = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")
	colorFg      = lipgloss.Color("#F9FAFB")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)

	modeStyle = lipgloss.NewStyle().
			Background(colorPrimary).
			Foreground(colorFg).
			Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)

	labelStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	textStyle    = lipgloss.NewStyle().Foreground(colorFg)
	okStyle      = lipgloss.NewStyle().Foreground(colorOK)
	warningStyle = lipgloss.NewStyle().Foreground(colorAccent)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	helpStyle    = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)
	levelStyle   = lipgloss.NewStyle().Foreground(colorOK)
)

var stateStyles = map[string]lipgloss.Style{
	"idle":         lipgloss.NewStyle().Foreground(colorMuted),
	"recording":    lipgloss.NewStyle().Foreground(colorError).Bold(true),
	"transcribing": lipgloss.NewStyle().Foreground(colorAccent),
	"correcting":   lipgloss.NewStyle().Foreground(colorAccent),
	"injecting":    lipgloss.NewStyle().Foreground(colorOK),
	"error":        errorStyle,
}
