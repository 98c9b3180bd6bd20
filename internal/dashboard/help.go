package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/netcloak/internal/session"
)

// keyHelp is one row of the help overlay.
type keyHelp struct {
	keys   string
	action string
}

// screenKeys groups the keys a screen responds to.
type screenKeys struct {
	title string
	phase session.Phase
	keys  []keyHelp
}

// helpScreens mirrors the dispatch in HandleKeyMsg, one group per phase.
var helpScreens = []screenKeys{
	{"Configuration list", session.SelectingConfig, []keyHelp{
		{"up/k down/j", "move"},
		{"home end", "first / last"},
		{"enter", "connect"},
	}},
	{"Connected", session.Monitoring, []keyHelp{
		{"r", "reconnect with the same configuration"},
		{"d", "disconnect"},
	}},
	{"Disconnect menu", session.DisconnectMenu, []keyHelp{
		{"up/k down/j", "move"},
		{"enter", "confirm"},
	}},
}

// globalKeys work on every screen.
var globalKeys = []keyHelp{
	{"q ctrl+c", "quit (waits for the current poll while connecting)"},
	{"? esc", "close this help"},
}

var (
	helpBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent).
			Background(ColorSurfaceBg).
			Padding(1, 2)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true).
			Width(14)
)

// renderHelpOverlay shows every screen's keys and highlights the current one.
func (m Model) renderHelpOverlay() string {
	current := m.machine.Phase()

	var b strings.Builder
	b.WriteString(HeaderStyle.Render("Keyboard Shortcuts"))
	for _, screen := range helpScreens {
		title := MutedStyle.Render(screen.title)
		if screen.phase == current {
			title = SelectedStyle.Render(screen.title + " (this screen)")
		}
		b.WriteString("\n\n" + title)
		writeKeys(&b, screen.keys)
	}
	b.WriteString("\n\n" + LabelStyle.Render("Anywhere"))
	writeKeys(&b, globalKeys)

	box := helpBoxStyle.Render(b.String())
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func writeKeys(b *strings.Builder, keys []keyHelp) {
	for _, k := range keys {
		b.WriteString("\n" + helpKeyStyle.Render(k.keys) + ValueStyle.Render(k.action))
	}
}
