package dashboard

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/netcloak/internal/latency"
	"github.com/rileyhilliard/netcloak/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewSelect(t *testing.T) {
	env := newTestEnv(t)
	view := env.model.View()

	assert.Contains(t, view, "Select VPN Configuration")
	assert.Contains(t, view, "3 found")
	assert.Contains(t, view, "> alpha.ovpn")
	assert.Contains(t, view, "beta.ovpn")
	assert.Contains(t, view, "enter connect")
}

func TestViewConnecting(t *testing.T) {
	env := newTestEnv(t)
	env.press("enter")
	require.NoError(t, env.writeLog("TLS: Initial packet from [AF_INET]203.0.113.7:1194\n"))
	env.send(pollMsg{gen: 1})

	view := env.model.View()
	assert.Contains(t, view, "Connecting to VPN")
	assert.Contains(t, view, "Connecting with alpha.ovpn")
	assert.Contains(t, view, "Attempt 1/5")
	assert.Contains(t, view, "TLS: Initial packet from")
}

func TestViewMonitoring(t *testing.T) {
	env := newTestEnv(t)
	env.connect(t)

	view := env.model.View()
	assert.Contains(t, view, "NetCloak Monitor")
	assert.Contains(t, view, "DISCONNECTED", "no health verdict yet")
	assert.Contains(t, view, "measuring...")
	assert.Contains(t, view, "waiting for samples...")

	for _, v := range []float64{20, 30, 25} {
		env.send(sampleMsg{gen: 1, result: latency.Result{Min: v, Avg: v, Max: v, Reachable: true}, healthy: true})
	}

	view = env.model.View()
	assert.Contains(t, view, "CONNECTED")
	assert.NotContains(t, view, "DISCONNECTED")
	assert.Contains(t, view, "25.00 ms")
	assert.Contains(t, view, "avg 25.00 ms | min 20.00 ms | max 30.00 ms")
	assert.Contains(t, view, "3 samples")
	assert.Contains(t, view, GraphGlyph)
	assert.Contains(t, view, "20ms")
	assert.Contains(t, view, "30ms")
}

func TestViewMonitoring_Unreachable(t *testing.T) {
	env := newTestEnv(t)
	env.connect(t)
	env.send(sampleMsg{gen: 1, result: latency.Unreachable(), healthy: false})

	view := env.model.View()
	assert.Contains(t, view, "N/A")
	assert.Contains(t, view, "DISCONNECTED")
}

func TestGraphWidth(t *testing.T) {
	tests := []struct {
		cols, max, expect int
	}{
		{0, 60, 60},
		{50, 60, 40},
		{200, 60, 60},
		{70, 60, 60},
		{5, 60, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expect, GraphWidth(tt.cols, tt.max), "cols=%d", tt.cols)
	}
}

func TestRenderGraph(t *testing.T) {
	out := RenderGraph([]int{7}, []float64{42}, 10, 8)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 9, "8 rows plus labels")

	assert.Contains(t, lines[7], GraphGlyph, "single sample on the bottom row")
	for _, line := range lines[:7] {
		assert.NotContains(t, line, GraphGlyph)
	}
	assert.Contains(t, lines[8], "42ms")
}

func TestRenderGraph_TopAndBottom(t *testing.T) {
	out := RenderGraph([]int{7, 0}, []float64{10, 90}, 10, 8)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 9)

	assert.Equal(t, " "+GraphGlyph, stripANSI(lines[0]))
	assert.Equal(t, GraphGlyph+" ", stripANSI(lines[7]))
	assert.Contains(t, lines[8], "10ms")
	assert.Contains(t, lines[8], "90ms")
}

func TestRenderGraph_Empty(t *testing.T) {
	assert.Empty(t, RenderGraph(nil, nil, 10, 8))
	assert.Empty(t, RenderGraph([]int{1}, []float64{1}, 0, 8))
}

func TestRenderSparkline(t *testing.T) {
	out := stripANSI(RenderSparkline([]float64{10, 20, 30}, 10, DefaultThresholds))
	assert.Equal(t, "▁▄█", out)

	flat := stripANSI(RenderSparkline([]float64{5, 5}, 10, DefaultThresholds))
	assert.Equal(t, "▁▁", flat)

	assert.Equal(t, 2, lipgloss.Width(RenderSparkline([]float64{1, 2, 3, 4}, 2, DefaultThresholds)))
	assert.Empty(t, RenderSparkline(nil, 10, DefaultThresholds))
}

func TestLatencyColor(t *testing.T) {
	tests := []struct {
		ms     float64
		expect lipgloss.Color
	}{
		{5, ColorHealthy},
		{99.9, ColorHealthy},
		{100, ColorWarning},
		{299, ColorWarning},
		{300, ColorCritical},
		{1200, ColorCritical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expect, DefaultThresholds.LatencyColor(tt.ms), "%.1fms", tt.ms)
	}
}

func TestVisibleWindow(t *testing.T) {
	tests := []struct {
		name             string
		n, cursor, rows  int
		expStart, expEnd int
	}{
		{"fits", 3, 1, 10, 0, 3},
		{"cursor at top", 30, 0, 10, 0, 10},
		{"cursor in middle", 30, 15, 10, 10, 20},
		{"cursor at end", 30, 29, 10, 20, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := visibleWindow(tt.n, tt.cursor, tt.rows)
			assert.Equal(t, tt.expStart, start)
			assert.Equal(t, tt.expEnd, end)
			assert.True(t, tt.cursor >= start && tt.cursor < end)
		})
	}
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "0s", formatUptime(0))
	assert.Equal(t, "42s", formatUptime(42*time.Second+900*time.Millisecond))
	assert.Equal(t, "3m 07s", formatUptime(3*time.Minute+7*time.Second))
	assert.Equal(t, "1h 02m 03s", formatUptime(time.Hour+2*time.Minute+3*time.Second))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "", truncate("abc", 0))
}

func TestSectionLines(t *testing.T) {
	assert.Equal(t, 40, lipgloss.Width(SectionHeader("Latency", "3 samples", 40)))
	assert.Equal(t, 40, lipgloss.Width(SectionFooter(40)))
	assert.Equal(t, 40, lipgloss.Width(SectionContentLine("x", 40)))
	assert.Contains(t, stripANSI(SectionHeader("Latency", "3 samples", 40)), "Latency")
}

func TestNoticeStyles(t *testing.T) {
	m := newTestEnv(t).model
	assert.Empty(t, m.renderNotice(session.Notice{}))
	assert.Contains(t, m.renderNotice(session.Notice{Text: "boom", Level: session.NoticeError}), "boom")
}

// stripANSI removes escape sequences so rendered text can be compared.
func stripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEscape = true
		case inEscape:
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
