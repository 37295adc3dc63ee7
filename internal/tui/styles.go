package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/claude/sessiontimer/internal/notify"
	"github.com/claude/sessiontimer/internal/timer"
)

// One Dark Pro color palette
var (
	ColorFgPrimary = lipgloss.Color("#ABB2BF")
	ColorFgMuted   = lipgloss.Color("#636B78")

	ColorRed     = lipgloss.Color("#E06C75")
	ColorGreen   = lipgloss.Color("#98C379")
	ColorYellow  = lipgloss.Color("#E5C07B")
	ColorBlue    = lipgloss.Color("#61AFEF")
	ColorMagenta = lipgloss.Color("#C678DD")
	ColorCyan    = lipgloss.Color("#56B6C2")

	ColorBorder = lipgloss.Color("#3F4451")
)

// Component styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true).
			PaddingLeft(1)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(1, 3)

	ExerciseStyle = lipgloss.NewStyle().
			Foreground(ColorFgPrimary).
			Bold(true)

	DetailStyle = lipgloss.NewStyle().
			Foreground(ColorFgMuted)

	ClockStyle = lipgloss.NewStyle().
			Foreground(ColorFgPrimary).
			Bold(true)

	// Last seconds of a set or rest
	ClockUrgentStyle = lipgloss.NewStyle().
				Foreground(ColorRed).
				Bold(true)

	PausedStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Italic(true)

	SummaryStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(ColorFgMuted).
			PaddingLeft(1).
			PaddingRight(1)
)

// phaseStyle colours the phase label.
func phaseStyle(s timer.State) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch s {
	case timer.StatePreparation:
		return base.Foreground(ColorYellow)
	case timer.StateWork:
		return base.Foreground(ColorGreen)
	case timer.StateRest:
		return base.Foreground(ColorBlue)
	case timer.StateCompleted:
		return base.Foreground(ColorMagenta)
	default:
		return base.Foreground(ColorFgMuted)
	}
}

// notificationStyle colours a toast by level.
func notificationStyle(l notify.Level) lipgloss.Style {
	base := lipgloss.NewStyle().PaddingLeft(1)
	switch l {
	case notify.LevelSuccess:
		return base.Foreground(ColorGreen)
	case notify.LevelWarning:
		return base.Foreground(ColorYellow)
	case notify.LevelError:
		return base.Foreground(ColorRed)
	default:
		return base.Foreground(ColorCyan)
	}
}
