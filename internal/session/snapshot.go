package session

import (
	"time"

	"github.com/rileyhilliard/netcloak/internal/latency"
	"github.com/rileyhilliard/netcloak/internal/telemetry"
	"github.com/rileyhilliard/netcloak/internal/vpnconfig"
)

// Snapshot is a read-only view of the session for rendering.
type Snapshot struct {
	Phase   Phase
	Configs []vpnconfig.Ref
	Ref     vpnconfig.Ref
	LogPath string

	Attempt     int
	MaxAttempts int
	LastLine    string

	Uptime    time.Duration
	Current   latency.Result
	HasSample bool
	Stats     telemetry.Stats
	Samples   []float64
	Healthy   bool

	Generation int
	Notice     Notice
}

// Snapshot copies the session into a view model. An expired notice is left
// out.
func (m *Machine) Snapshot() Snapshot {
	now := m.opts.Now()
	snap := Snapshot{
		Phase:       m.s.Phase,
		Configs:     append([]vpnconfig.Ref(nil), m.s.Configs...),
		Ref:         m.s.Ref,
		LogPath:     m.s.Handle.LogPath,
		Attempt:     m.s.Attempt,
		MaxAttempts: m.opts.Schedule.Attempts,
		LastLine:    m.s.LastLine,
		Current:     m.s.Current,
		HasSample:   m.s.HasSample,
		Stats:       m.s.History.Stats(),
		Samples:     m.s.History.Values(),
		Healthy:     m.s.Healthy,
		Generation:  m.s.Generation,
	}
	if m.s.Phase == Monitoring {
		snap.Uptime = now.Sub(m.s.StartedAt)
	}
	if !m.s.Notice.Empty() && now.Sub(m.s.NoticeAt) < m.opts.NoticeDuration {
		snap.Notice = m.s.Notice
	}
	return snap
}

// Series scales the most recent samples for a graph of the given size.
func (s Snapshot) Series(width, height int) []int {
	if width <= 0 {
		return nil
	}
	values := s.Samples
	if len(values) > width {
		values = values[len(values)-width:]
	}
	return telemetry.Scale(values, height)
}

// Session returns a copy of the aggregate, for tests and diagnostics.
func (m *Machine) Session() Session {
	return m.s
}
