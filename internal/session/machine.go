// Package session holds the lifecycle of one netcloak run: picking a
// configuration, connecting, monitoring, and the disconnect menu.
//
// The Machine is a plain state machine. It does no scheduling and no
// blocking I/O beyond what its Supervisor does, and it must be driven from a
// single goroutine: the dashboard's update loop or the headless connect loop.
package session

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rileyhilliard/netcloak/internal/errors"
	"github.com/rileyhilliard/netcloak/internal/latency"
	"github.com/rileyhilliard/netcloak/internal/logger"
	"github.com/rileyhilliard/netcloak/internal/supervisor"
	"github.com/rileyhilliard/netcloak/internal/telemetry"
	"github.com/rileyhilliard/netcloak/internal/vpnconfig"
)

// Supervisor is the part of supervisor.Supervisor the machine drives.
type Supervisor interface {
	Start(ref vpnconfig.Ref) (supervisor.Handle, error)
	Poll() supervisor.PollResult
	Stop()
	DiscardLog()
	Handle() supervisor.Handle
}

// ConfigSource enumerates the selectable client configurations.
type ConfigSource interface {
	Discover() ([]vpnconfig.Ref, error)
}

// Options tune the machine.
type Options struct {
	// Schedule bounds the connecting phase.
	Schedule supervisor.Schedule
	// HistorySize is the telemetry capacity.
	HistorySize int
	// NoticeDuration is how long a notice stays visible.
	NoticeDuration time.Duration
	// Now is the clock; time.Now when nil.
	Now    func() time.Time
	Logger logger.Logger
}

// Session is the mutable aggregate for one run. Only the Machine writes it.
type Session struct {
	Phase   Phase
	Configs []vpnconfig.Ref
	Ref     vpnconfig.Ref
	Handle  supervisor.Handle

	// StartedAt is when the current connection converged.
	StartedAt time.Time
	History   *telemetry.History
	Current   latency.Result
	HasSample bool
	Healthy   bool

	// Attempt and LastLine track the connecting phase.
	Attempt  int
	LastLine string

	// Generation increments on every launch so late results from a previous
	// connection can be recognised and dropped.
	Generation int

	Notice   Notice
	NoticeAt time.Time

	QuitRequested bool
}

// Machine applies transitions to a Session.
type Machine struct {
	s      Session
	sup    Supervisor
	source ConfigSource
	opts   Options
	log    logger.Logger

	shutdown       bool
	stoppedOnClose bool
}

// NewMachine creates a machine in SelectingConfig.
func NewMachine(sup Supervisor, source ConfigSource, opts Options) *Machine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}
	if opts.Schedule.Attempts <= 0 {
		opts.Schedule.Attempts = 30
	}
	if opts.Schedule.Interval <= 0 {
		opts.Schedule.Interval = time.Second
	}
	if opts.NoticeDuration <= 0 {
		opts.NoticeDuration = 2 * time.Second
	}
	return &Machine{
		s: Session{
			Phase:   SelectingConfig,
			History: telemetry.NewHistory(opts.HistorySize),
		},
		sup:    sup,
		source: source,
		opts:   opts,
		log:    logger.With(opts.Logger, "session"),
	}
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	return m.s.Phase
}

// Schedule returns the connect schedule the machine enforces.
func (m *Machine) Schedule() supervisor.Schedule {
	return m.opts.Schedule
}

// Begin enumerates the available configurations. An empty directory is a
// fatal ErrConfig error.
func (m *Machine) Begin() error {
	refs, err := m.source.Discover()
	if err != nil {
		return err
	}
	m.s.Configs = refs
	m.log.Info("found %d configurations", len(refs))
	return nil
}

// Select starts connecting with ref. A launch failure leaves the machine in
// SelectingConfig with an error notice and is returned to the caller.
func (m *Machine) Select(ref vpnconfig.Ref) error {
	if m.s.Phase != SelectingConfig {
		return m.wrongPhase("select a configuration")
	}
	if !m.known(ref) {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown configuration %s", ref),
			"Pick one of the discovered configurations.")
	}
	return m.launch(ref)
}

// PollConnection performs one convergence poll. A pending quit request is
// honored before polling. It returns the phase after the poll.
func (m *Machine) PollConnection() Phase {
	if m.s.Phase != Connecting {
		return m.s.Phase
	}
	if m.s.QuitRequested {
		m.log.Info("quit requested while connecting")
		m.Shutdown()
		return m.s.Phase
	}

	m.s.Attempt++
	res := m.sup.Poll()
	if res.LastLine != "" {
		m.s.LastLine = res.LastLine
	}

	switch res.Status {
	case supervisor.Converged:
		m.s.Phase = Monitoring
		m.s.StartedAt = m.opts.Now()
		m.s.History.Clear()
		m.s.Current = latency.Unreachable()
		m.s.HasSample = false
		m.s.Healthy = false
		m.notify(NoticeSuccess, "Connected successfully!")
		m.log.Info("connected with %s after %d polls", m.s.Ref.Name(), m.s.Attempt)

	case supervisor.Failed:
		m.log.Warn("connection failed: %s", res.Reason)
		m.abandon(fmt.Sprintf("Connection failed! Check %s", m.s.Handle.LogPath))

	default:
		if m.s.Attempt >= m.opts.Schedule.Attempts {
			total := time.Duration(m.opts.Schedule.Attempts) * m.opts.Schedule.Interval
			m.log.Warn("no marker after %d polls", m.s.Attempt)
			m.abandon("Connection timeout after " + FormatSeconds(total) + " seconds")
		}
	}
	return m.s.Phase
}

// ApplySample records a latency sample and the matching health verdict.
// Samples outside Monitoring are ignored.
func (m *Machine) ApplySample(res latency.Result, healthy bool) {
	if m.s.Phase != Monitoring {
		return
	}
	m.s.Current = res
	m.s.HasSample = true
	m.s.History.Record(res)
	m.s.Healthy = healthy
}

// Reconnect stops the client and connects again with the same configuration.
func (m *Machine) Reconnect() error {
	if m.s.Phase != Monitoring {
		return m.wrongPhase("reconnect")
	}
	m.log.Info("reconnecting %s", m.s.Ref.Name())
	m.stop()
	m.s.Phase = SelectingConfig
	return m.launch(m.s.Ref)
}

// Disconnect stops the client and opens the disconnect menu.
func (m *Machine) Disconnect() error {
	if m.s.Phase != Monitoring {
		return m.wrongPhase("disconnect")
	}
	m.log.Info("disconnecting %s", m.s.Ref.Name())
	m.stop()
	m.s.Phase = DisconnectMenu
	return nil
}

// Choose applies a disconnect menu choice.
func (m *Machine) Choose(c Choice) error {
	if m.s.Phase != DisconnectMenu {
		return m.wrongPhase("choose a menu option")
	}
	switch c {
	case ReconnectSame:
		m.s.Phase = SelectingConfig
		return m.launch(m.s.Ref)
	case ChooseAnother:
		m.enterSelection()
		return nil
	case Exit:
		m.Shutdown()
		return nil
	default:
		return errors.New(errors.ErrState,
			fmt.Sprintf("Unknown menu choice %d", c),
			"This shouldn't happen - please report this bug!")
	}
}

// RequestQuit asks the session to end. While connecting the flag is only
// recorded and honored by the next PollConnection; in every other phase the
// session terminates immediately.
func (m *Machine) RequestQuit() {
	if m.s.Phase == Connecting {
		m.s.QuitRequested = true
		return
	}
	m.Shutdown()
}

// Fail reports an unexpected error and terminates.
func (m *Machine) Fail(err error) {
	if err == nil {
		return
	}
	m.log.Error("fatal: %v", err)
	m.notify(NoticeError, "Error: "+errors.Summary(err))
	m.Shutdown()
}

// Shutdown stops the supervisor and moves to Terminated. Only the first
// call does anything; it reports whether a running client was stopped.
func (m *Machine) Shutdown() bool {
	m.s.Phase = Terminated
	if m.shutdown {
		return false
	}
	m.shutdown = true

	wasRunning := m.sup.Handle().Valid()
	m.sup.Stop()
	m.s.Handle = supervisor.Handle{}
	m.stoppedOnClose = wasRunning
	m.log.Info("shut down (client running: %t)", wasRunning)
	return wasRunning
}

// StoppedOnShutdown reports whether Shutdown had a running client to stop.
func (m *Machine) StoppedOnShutdown() bool {
	return m.stoppedOnClose
}

// launch starts the client for ref from SelectingConfig.
func (m *Machine) launch(ref vpnconfig.Ref) error {
	h, err := m.sup.Start(ref)
	if err != nil {
		m.notify(NoticeError, "Failed to start VPN: "+errors.Summary(err))
		m.enterSelection()
		return err
	}

	m.s.Ref = ref
	m.s.Handle = h
	m.s.Phase = Connecting
	m.s.Attempt = 0
	m.s.LastLine = ""
	m.s.QuitRequested = false
	m.s.Generation++
	return nil
}

// abandon gives up on the current connection attempt.
func (m *Machine) abandon(message string) {
	m.sup.DiscardLog()
	m.stop()
	m.notify(NoticeError, message)
	m.enterSelection()
}

// enterSelection moves to SelectingConfig with a freshly discovered list.
// Losing every configuration ends the session the same way Begin would.
func (m *Machine) enterSelection() {
	m.s.Phase = SelectingConfig
	refs, err := m.source.Discover()
	if err != nil {
		m.s.Configs = nil
		m.Fail(err)
		return
	}
	m.s.Configs = refs
}

func (m *Machine) stop() {
	m.sup.Stop()
	m.s.Handle = supervisor.Handle{}
	m.s.Healthy = false
}

func (m *Machine) notify(level NoticeLevel, text string) {
	m.s.Notice = Notice{Text: text, Level: level}
	m.s.NoticeAt = m.opts.Now()
}

func (m *Machine) known(ref vpnconfig.Ref) bool {
	for _, r := range m.s.Configs {
		if r == ref {
			return true
		}
	}
	return false
}

// FormatSeconds renders d in seconds without trailing zeros: "30", "0.5".
func FormatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

func (m *Machine) wrongPhase(action string) error {
	return errors.New(errors.ErrState,
		fmt.Sprintf("Can't %s while %s", action, m.s.Phase),
		"")
}
