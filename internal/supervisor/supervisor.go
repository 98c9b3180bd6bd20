// Package supervisor owns the VPN client subprocess: launching it detached,
// watching its log artifact for the success and failure markers, checking
// that it is still alive, and terminating it.
//
// At most one client is tracked at a time. All methods are safe for
// concurrent use; the handle is guarded by a mutex so a start and a stop
// never interleave.
package supervisor

import (
	"fmt"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rileyhilliard/netcloak/internal/config"
	"github.com/rileyhilliard/netcloak/internal/errors"
	"github.com/rileyhilliard/netcloak/internal/exec"
	"github.com/rileyhilliard/netcloak/internal/logger"
	"github.com/rileyhilliard/netcloak/internal/vpnconfig"
	"github.com/spf13/afero"
)

// State is the supervisor's view of the client process.
type State int

const (
	Idle     State = iota // nothing started yet
	Starting              // spawned, waiting for a marker
	Running               // success marker seen
	Stopped               // terminated (or never converged and stopped)
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Handle identifies one launched client process.
type Handle struct {
	PID       int
	LogPath   string
	Ref       vpnconfig.Ref
	StartedAt time.Time
	Sudo      bool
}

// Valid reports whether the handle refers to a launched process.
func (h Handle) Valid() bool {
	return h.PID > 0
}

// Supervisor launches and tracks a single VPN client process.
type Supervisor struct {
	mu     sync.Mutex
	handle Handle
	state  State

	client         config.ClientConfig
	markers        config.MarkerConfig
	tunnelPrefixes []string
	removeFailed   bool

	runner exec.Runner
	fs     afero.Fs
	log    logger.Logger

	// Interfaces lists network interface names for IsHealthy.
	Interfaces InterfaceLister
	// Now is the clock used for handle timestamps and log names.
	Now func() time.Time
}

// New creates a Supervisor for the client described by cfg. Log artifacts
// are read through fs, which should be the OS filesystem outside tests.
func New(cfg *config.Config, runner exec.Runner, fs afero.Fs, log logger.Logger) *Supervisor {
	if log == nil {
		log = logger.Noop()
	}
	return &Supervisor{
		state:          Idle,
		client:         cfg.Client,
		markers:        cfg.Markers,
		tunnelPrefixes: cfg.Monitor.TunnelPrefixes,
		removeFailed:   cfg.Connect.RemoveFailedLogs,
		runner:         runner,
		fs:             fs,
		log:            logger.With(log, "supervisor"),
		Interfaces:     SystemInterfaces,
		Now:            time.Now,
	}
}

// Start launches the client for ref and returns immediately. It fails with
// an ErrState error, leaving the current handle untouched, when a client is
// already tracked.
func (s *Supervisor) Start(ref vpnconfig.Ref) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle.Valid() {
		return Handle{}, errors.NewAlreadyRunning(s.handle.PID)
	}

	now := s.Now()
	logPath := s.logPathFor(now)
	name, args := s.command(ref)

	if err := s.fs.MkdirAll(s.client.LogDir, 0o755); err != nil {
		return Handle{}, errors.WrapWithCode(err, errors.ErrLaunch,
			"Couldn't create log directory "+s.client.LogDir,
			"Check client.log_dir in your config.")
	}

	s.log.Info("starting %s for %s (log %s)", s.client.Binary, ref.Name(), logPath)
	pid, err := s.runner.StartDetached(name, args, logPath)
	if err != nil {
		s.log.Error("launch failed: %v", err)
		if errors.IsCode(err, errors.ErrLaunch) {
			return Handle{}, err
		}
		return Handle{}, errors.WrapWithCode(err, errors.ErrLaunch,
			"Couldn't start "+s.client.Binary,
			"Make sure the VPN client is installed and on your PATH.")
	}

	s.handle = Handle{
		PID:       pid,
		LogPath:   logPath,
		Ref:       ref,
		StartedAt: now,
		Sudo:      s.client.Sudo,
	}
	s.state = Starting
	s.log.Debug("client started with pid %d", pid)
	return s.handle, nil
}

// Stop terminates the tracked client, if any. The handle is always cleared
// and the state moves to Stopped; termination errors are logged, not returned.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle.Valid() {
		if err := s.terminate(s.handle); err != nil {
			s.log.Warn("failed to terminate pid %d: %v", s.handle.PID, err)
		} else {
			s.log.Info("terminated pid %d", s.handle.PID)
		}
	}
	s.handle = Handle{}
	s.state = Stopped
}

// Handle returns the current handle. It is the zero Handle when nothing runs.
func (s *Supervisor) Handle() Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle
}

// State returns the current supervisor state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// terminate signals the client. A client started through sudo runs as root,
// so it has to be signalled through sudo too.
func (s *Supervisor) terminate(h Handle) error {
	if !h.Sudo {
		return s.runner.Terminate(h.PID)
	}

	// Stop runs on the way out of the program; don't let a sudo password
	// prompt hang it forever.
	ctx, cancel := stopContext()
	defer cancel()

	out, code, err := s.runner.Capture(ctx, "sudo", "kill", "-TERM", strconv.Itoa(h.PID))
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("sudo kill exited with %d: %s", code, trimOutput(out))
	}
	return nil
}

// command builds the launch command line for ref.
func (s *Supervisor) command(ref vpnconfig.Ref) (string, []string) {
	args := make([]string, 0, len(s.client.Args)+4)
	args = append(args, s.client.Args...)
	args = append(args, "--config", ref.String())
	if s.client.Sudo {
		return "sudo", append([]string{s.client.Binary}, args...)
	}
	return s.client.Binary, args
}

// logPathFor names the log artifact <logdir>/<client>_<unix-ts>.log. A
// reconnect within the same second gets a numeric suffix so the previous
// attempt's markers are never read back.
func (s *Supervisor) logPathFor(t time.Time) string {
	base := filepath.Base(s.client.Binary)
	path := filepath.Join(s.client.LogDir, fmt.Sprintf("%s_%d.log", base, t.Unix()))
	for n := 2; ; n++ {
		if exists, _ := afero.Exists(s.fs, path); !exists {
			return path
		}
		path = filepath.Join(s.client.LogDir, fmt.Sprintf("%s_%d_%d.log", base, t.Unix(), n))
	}
}
