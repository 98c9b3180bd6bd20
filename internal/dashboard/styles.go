package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Dashboard color palette
const (
	ColorSurfaceBg = lipgloss.Color("#12121A")
	ColorBorder    = lipgloss.Color("#2A2A4A")

	ColorHealthy  = lipgloss.Color("#39FF14")
	ColorWarning  = lipgloss.Color("#FFAA00")
	ColorCritical = lipgloss.Color("#FF0055")

	ColorTextPrimary   = lipgloss.Color("#FFFFFF")
	ColorTextSecondary = lipgloss.Color("#B4B4D0")
	ColorTextMuted     = lipgloss.Color("#6B6B8D")

	ColorAccent = lipgloss.Color("#FF2E97")
	ColorGraph  = lipgloss.Color("#00FFFF")
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorSurfaceBg).
			Bold(true).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	ConnectedStyle = lipgloss.NewStyle().
			Foreground(ColorHealthy).
			Bold(true)

	DisconnectedStyle = lipgloss.NewStyle().
				Foreground(ColorCritical).
				Bold(true)

	NoticeInfoStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	NoticeSuccessStyle = lipgloss.NewStyle().
				Foreground(ColorHealthy).
				Bold(true)

	NoticeErrorStyle = lipgloss.NewStyle().
				Foreground(ColorCritical).
				Bold(true)

	GraphStyle = lipgloss.NewStyle().
			Foreground(ColorGraph)
)

// ConnectingSpinnerFrames are the animation frames for the connecting screen.
var ConnectingSpinnerFrames = []string{"◐", "◓", "◑", "◒"}

// Thresholds holds the latency levels, in milliseconds, at which a reading
// turns from healthy to warning and from warning to critical.
type Thresholds struct {
	Warn     float64
	Critical float64
}

// DefaultThresholds are used when the config leaves them unset.
var DefaultThresholds = Thresholds{Warn: 100, Critical: 300}

// LatencyColor returns the color for a latency reading.
func (t Thresholds) LatencyColor(ms float64) lipgloss.Color {
	switch {
	case ms < t.Warn:
		return ColorHealthy
	case ms < t.Critical:
		return ColorWarning
	default:
		return ColorCritical
	}
}

// LatencyStyle returns a bold style in the reading's color.
func (t Thresholds) LatencyStyle(ms float64) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.LatencyColor(ms)).Bold(true)
}

// SectionHeader renders a section header with the title on the left and value on the right.
// Format: ╭─ Title ────────────────────────────────────── Value ╮
func SectionHeader(title, value string, width int) string {
	if width < 10 {
		width = 10
	}

	// "╭─ " + title + " " on the left, " " + value + " ╮" on the right
	leftWidth := 3 + lipgloss.Width(title) + 1
	rightWidth := 1 + lipgloss.Width(value) + 2

	fillWidth := width - leftWidth - rightWidth
	if fillWidth < 1 {
		fillWidth = 1
	}

	borderStyle := lipgloss.NewStyle().Foreground(ColorBorder)
	titleStyle := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(ColorGraph).Bold(true)

	return borderStyle.Render("╭─ ") +
		titleStyle.Render(title) +
		borderStyle.Render(" "+strings.Repeat("─", fillWidth)+" ") +
		valueStyle.Render(value) +
		borderStyle.Render(" ╮")
}

// SectionFooter renders the bottom border of a section.
func SectionFooter(width int) string {
	if width < 2 {
		width = 2
	}
	return lipgloss.NewStyle().Foreground(ColorBorder).Render("╰" + strings.Repeat("─", width-2) + "╯")
}

// SectionContentLine renders a content line with left and right borders, padded to width.
// Format: │ content                                              │
func SectionContentLine(content string, width int) string {
	if width < 4 {
		width = 4
	}

	borderStyle := lipgloss.NewStyle().Foreground(ColorBorder)

	padding := width - 4 - lipgloss.Width(content)
	if padding < 0 {
		padding = 0
	}

	return borderStyle.Render("│") + " " + content + strings.Repeat(" ", padding) + " " + borderStyle.Render("│")
}

// truncate shortens s to at most width display cells, adding an ellipsis.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	if width == 1 {
		return "…"
	}
	for len(runes) > 0 && lipgloss.Width(string(runes)) > width-1 {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
