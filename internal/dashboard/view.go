package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/netcloak/internal/session"
)

// renderDashboard renders the screen for the current phase.
func (m Model) renderDashboard() string {
	if m.showHelp {
		return m.renderHelpOverlay()
	}

	snap := m.machine.Snapshot()

	var body string
	switch snap.Phase {
	case session.SelectingConfig:
		body = m.renderSelect(snap)
	case session.Connecting:
		body = m.renderConnecting(snap)
	case session.Monitoring:
		body = m.renderMonitor(snap)
	case session.DisconnectMenu:
		body = m.renderMenu(snap)
	default:
		body = MutedStyle.Render("Shutting down...")
	}

	var b strings.Builder
	b.WriteString(m.renderHeader(snap))
	b.WriteString("\n\n")
	b.WriteString(body)
	if notice := m.renderNotice(snap.Notice); notice != "" {
		b.WriteString("\n\n")
		b.WriteString(notice)
	}
	b.WriteString("\n\n")
	b.WriteString(m.renderFooter(snap.Phase))
	return b.String()
}

// renderHeader renders the title bar.
func (m Model) renderHeader(snap session.Snapshot) string {
	titles := map[session.Phase]string{
		session.SelectingConfig: "Select VPN Configuration",
		session.Connecting:      "Connecting to VPN",
		session.Monitoring:      "NetCloak Monitor",
		session.DisconnectMenu:  "VPN Disconnected",
	}
	title, ok := titles[snap.Phase]
	if !ok {
		title = "NetCloak"
	}

	text := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true).Render(title)
	if snap.Ref != "" && snap.Phase != session.SelectingConfig {
		text += LabelStyle.Render(" | " + snap.Ref.Name())
	}

	header := HeaderStyle.Render(text)
	if m.width > 0 {
		header = HeaderStyle.Width(m.width).Render(text)
	}
	return header
}

// renderSelect renders the scrolling configuration list.
func (m Model) renderSelect(snap session.Snapshot) string {
	var lines []string
	lines = append(lines, LabelStyle.Render(fmt.Sprintf("  Choose a configuration (%d found):", len(snap.Configs))))
	lines = append(lines, "")

	start, end := visibleWindow(len(snap.Configs), m.cursor, m.listRows())
	if start > 0 {
		lines = append(lines, MutedStyle.Render("    ↑ more"))
	}
	for i := start; i < end; i++ {
		name := snap.Configs[i].Name()
		if i == m.cursor {
			lines = append(lines, SelectedStyle.Render("  > "+name))
		} else {
			lines = append(lines, ValueStyle.Render("    "+name))
		}
	}
	if end < len(snap.Configs) {
		lines = append(lines, MutedStyle.Render("    ↓ more"))
	}
	return strings.Join(lines, "\n")
}

// listRows is how many config entries fit on screen.
func (m Model) listRows() int {
	if m.height == 0 {
		return 20
	}
	rows := m.height - 10
	if rows < 3 {
		rows = 3
	}
	return rows
}

// visibleWindow returns the [start, end) slice of a list of n entries that
// keeps cursor visible in a window of size rows.
func visibleWindow(n, cursor, rows int) (int, int) {
	if n <= rows {
		return 0, n
	}
	start := cursor - rows/2
	if start < 0 {
		start = 0
	}
	if start+rows > n {
		start = n - rows
	}
	return start, start + rows
}

// renderConnecting renders the convergence progress.
func (m Model) renderConnecting(snap session.Snapshot) string {
	var lines []string
	lines = append(lines, "  "+m.spinner.View()+" "+ValueStyle.Render("Connecting with "+snap.Ref.Name()))
	lines = append(lines, "")
	lines = append(lines, LabelStyle.Render(fmt.Sprintf("  Attempt %d/%d", snap.Attempt, snap.MaxAttempts)))

	if snap.LastLine != "" {
		width := m.width - 4
		if m.width == 0 {
			width = 76
		}
		lines = append(lines, "")
		lines = append(lines, "  "+MutedStyle.Render(truncate(snap.LastLine, width)))
	}
	return strings.Join(lines, "\n")
}

// renderMonitor renders connection status, the current reading, and the graph.
func (m Model) renderMonitor(snap session.Snapshot) string {
	var lines []string

	status := DisconnectedStyle.Render("DISCONNECTED")
	if snap.Healthy {
		status = ConnectedStyle.Render("CONNECTED")
	}
	lines = append(lines, "  "+LabelStyle.Render("Status:  ")+status)
	lines = append(lines, "  "+LabelStyle.Render("Config:  ")+ValueStyle.Render(snap.Ref.Name()))
	lines = append(lines, "  "+LabelStyle.Render("Uptime:  ")+ValueStyle.Render(formatUptime(snap.Uptime)))
	lines = append(lines, "  "+LabelStyle.Render("Latency: ")+m.renderReading(snap))
	if snap.Current.MappedAddr != "" {
		lines = append(lines, "  "+LabelStyle.Render("Public:  ")+ValueStyle.Render(snap.Current.MappedAddr))
	}

	if snap.Stats.Valid() {
		lines = append(lines, "  "+LabelStyle.Render("Stats:   ")+ValueStyle.Render(
			fmt.Sprintf("avg %.2f ms | min %.2f ms | max %.2f ms", snap.Stats.Avg, snap.Stats.Min, snap.Stats.Max)))
	}

	graphWidth := GraphWidth(m.width, m.graphMaxWidth)
	lines = append(lines, "")
	lines = append(lines, SectionHeader("Latency", fmt.Sprintf("%d samples", snap.Stats.Count), graphWidth+4))

	series := snap.Series(graphWidth, m.graphHeight)
	if len(series) == 0 {
		lines = append(lines, SectionContentLine(MutedStyle.Render("waiting for samples..."), graphWidth+4))
	} else {
		visible := snap.Samples
		if len(visible) > graphWidth {
			visible = visible[len(visible)-graphWidth:]
		}
		for _, row := range strings.Split(RenderGraph(series, visible, graphWidth, m.graphHeight), "\n") {
			lines = append(lines, SectionContentLine(row, graphWidth+4))
		}
	}
	lines = append(lines, SectionFooter(graphWidth+4))

	return strings.Join(lines, "\n")
}

// renderReading renders the instantaneous latency colored by threshold.
func (m Model) renderReading(snap session.Snapshot) string {
	if !snap.HasSample {
		return MutedStyle.Render("measuring...")
	}
	if !snap.Current.Reachable {
		return DisconnectedStyle.Render(snap.Current.String())
	}
	return m.thresholds.LatencyStyle(snap.Current.Avg).Render(snap.Current.String())
}

// renderMenu renders the disconnect menu.
func (m Model) renderMenu(_ session.Snapshot) string {
	var lines []string
	lines = append(lines, LabelStyle.Render("  What would you like to do?"))
	lines = append(lines, "")
	for i, choice := range session.Choices {
		if i == m.menuCursor {
			lines = append(lines, SelectedStyle.Render("  > "+choice.String()))
		} else {
			lines = append(lines, ValueStyle.Render("    "+choice.String()))
		}
	}
	return strings.Join(lines, "\n")
}

// renderNotice renders the transient notice, if any.
func (m Model) renderNotice(n session.Notice) string {
	if n.Empty() {
		return ""
	}
	style := NoticeInfoStyle
	switch n.Level {
	case session.NoticeSuccess:
		style = NoticeSuccessStyle
	case session.NoticeError:
		style = NoticeErrorStyle
	}
	return "  " + style.Render(n.Text)
}

// renderFooter renders the keyboard hints for the phase.
func (m Model) renderFooter(phase session.Phase) string {
	var hints []string
	switch phase {
	case session.SelectingConfig:
		hints = []string{"↑↓ select", "enter connect", "q quit"}
	case session.Connecting:
		hints = []string{"q quit"}
	case session.Monitoring:
		hints = []string{"r reconnect", "d disconnect", "q quit", "? help"}
	case session.DisconnectMenu:
		hints = []string{"↑↓ select", "enter confirm", "q quit"}
	}
	return FooterStyle.Render(strings.Join(hints, " | "))
}

// formatUptime renders whole seconds, e.g. "42s", "3m 07s", "1h 02m 03s".
func formatUptime(d time.Duration) string {
	secs := int(d / time.Second)
	if secs < 0 {
		secs = 0
	}
	h, mnt, s := secs/3600, (secs%3600)/60, secs%60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm %02ds", h, mnt, s)
	case mnt > 0:
		return fmt.Sprintf("%dm %02ds", mnt, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
