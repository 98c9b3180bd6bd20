package dashboard

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/netcloak/internal/config"
	"github.com/rileyhilliard/netcloak/internal/latency"
	"github.com/rileyhilliard/netcloak/internal/logger"
	"github.com/rileyhilliard/netcloak/internal/session"
)

// HealthChecker reports whether the VPN tunnel is up.
type HealthChecker interface {
	IsHealthy(ctx context.Context) bool
}

// HealthFunc adapts a function to HealthChecker.
type HealthFunc func(ctx context.Context) bool

// IsHealthy implements HealthChecker.
func (f HealthFunc) IsHealthy(ctx context.Context) bool {
	return f(ctx)
}

// Model is the Bubble Tea model for the netcloak dashboard.
type Model struct {
	machine *session.Machine
	sampler latency.Sampler
	health  HealthChecker
	log     logger.Logger

	pollInterval   time.Duration
	sampleInterval time.Duration
	probeTimeout   time.Duration
	noticeDuration time.Duration
	graphHeight    int
	graphMaxWidth  int
	thresholds     Thresholds

	width      int
	height     int
	cursor     int // config list selection
	menuCursor int // disconnect menu selection
	showHelp   bool
	quitting   bool

	spinner spinner.Model
}

// pollMsg triggers one connect poll for the given generation.
type pollMsg struct{ gen int }

// sampleTickMsg triggers one latency sample for the given generation.
type sampleTickMsg struct{ gen int }

// sampleMsg carries a finished latency sample and health check.
type sampleMsg struct {
	gen     int
	result  latency.Result
	healthy bool
}

// noticeExpiredMsg forces a redraw once a notice has timed out.
type noticeExpiredMsg struct{}

// NewModel creates the dashboard around machine. Begin must already have
// been called on the machine.
func NewModel(machine *session.Machine, sampler latency.Sampler, health HealthChecker, cfg *config.Config, log logger.Logger) Model {
	if log == nil {
		log = logger.Noop()
	}

	thresholds := Thresholds{Warn: cfg.Monitor.WarnMs, Critical: cfg.Monitor.CriticalMs}
	if thresholds.Warn <= 0 || thresholds.Critical <= 0 {
		thresholds = DefaultThresholds
	}

	graphHeight := cfg.UI.GraphHeight
	if graphHeight < 2 {
		graphHeight = 8
	}
	graphWidth := cfg.UI.GraphWidth
	if graphWidth < 1 {
		graphWidth = 60
	}

	s := spinner.New(
		spinner.WithSpinner(spinner.Spinner{Frames: ConnectingSpinnerFrames, FPS: 150 * time.Millisecond}),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(ColorAccent)),
	)

	return Model{
		machine:        machine,
		sampler:        sampler,
		health:         health,
		log:            logger.With(log, "dashboard"),
		pollInterval:   cfg.Connect.Interval,
		sampleInterval: cfg.Monitor.Interval,
		probeTimeout:   cfg.Probe.Timeout,
		noticeDuration: cfg.UI.NoticeDuration,
		graphHeight:    graphHeight,
		graphMaxWidth:  graphWidth,
		thresholds:     thresholds,
		spinner:        s,
	}
}

// Init starts the spinner animation.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		handled, cmd := m.HandleKeyMsg(msg)
		if handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case pollMsg:
		return m, m.handlePoll(msg)

	case sampleTickMsg:
		if !m.current(msg.gen) {
			return m, nil
		}
		return m, m.sampleCmd(msg.gen)

	case sampleMsg:
		if !m.current(msg.gen) {
			m.log.Debug("dropping stale sample from generation %d", msg.gen)
			return m, nil
		}
		m.machine.ApplySample(msg.result, msg.healthy)
		return m, m.sampleTickCmd(msg.gen)

	case noticeExpiredMsg:
		return m, nil
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.renderDashboard()
}

// Machine returns the session machine the dashboard drives.
func (m Model) Machine() *session.Machine {
	return m.machine
}

// handlePoll runs one connect poll and schedules whatever comes next.
func (m *Model) handlePoll(msg pollMsg) tea.Cmd {
	snap := m.machine.Snapshot()
	if snap.Phase != session.Connecting || snap.Generation != msg.gen {
		return nil
	}

	switch m.machine.PollConnection() {
	case session.Connecting:
		return m.pollTickCmd(msg.gen)
	case session.Monitoring:
		return tea.Batch(m.sampleCmd(msg.gen), m.noticeCmd())
	case session.Terminated:
		return m.quit()
	default:
		m.clampCursor()
		return m.noticeCmd()
	}
}

// current reports whether a message for gen still applies.
func (m Model) current(gen int) bool {
	snap := m.machine.Snapshot()
	return snap.Phase == session.Monitoring && snap.Generation == gen
}

func (m *Model) quit() tea.Cmd {
	m.quitting = true
	return tea.Quit
}

// pollNowCmd issues the first poll of a new connection immediately.
func (m Model) pollNowCmd() tea.Cmd {
	gen := m.machine.Snapshot().Generation
	return func() tea.Msg {
		return pollMsg{gen: gen}
	}
}

// pollTickCmd schedules the next connect poll.
func (m Model) pollTickCmd(gen int) tea.Cmd {
	return tea.Tick(m.pollInterval, func(time.Time) tea.Msg {
		return pollMsg{gen: gen}
	})
}

// sampleTickCmd schedules the next latency sample.
func (m Model) sampleTickCmd(gen int) tea.Cmd {
	return tea.Tick(m.sampleInterval, func(time.Time) tea.Msg {
		return sampleTickMsg{gen: gen}
	})
}

// sampleCmd takes one latency sample plus a health check. It only touches
// the sampler and health checker, never the machine.
func (m Model) sampleCmd(gen int) tea.Cmd {
	sampler, health, timeout := m.sampler, m.health, m.probeTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout+time.Second)
		defer cancel()

		res := sampler.Sample(ctx)
		healthy := health != nil && health.IsHealthy(ctx)
		return sampleMsg{gen: gen, result: res, healthy: healthy}
	}
}

// noticeCmd redraws once the current notice has expired.
func (m Model) noticeCmd() tea.Cmd {
	return tea.Tick(m.noticeDuration, func(time.Time) tea.Msg {
		return noticeExpiredMsg{}
	})
}

func (m *Model) clampCursor() {
	n := len(m.machine.Snapshot().Configs)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}
