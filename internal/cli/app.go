package cli

import (
	"github.com/rileyhilliard/netcloak/internal/config"
	"github.com/rileyhilliard/netcloak/internal/exec"
	"github.com/rileyhilliard/netcloak/internal/latency"
	"github.com/rileyhilliard/netcloak/internal/logger"
	"github.com/rileyhilliard/netcloak/internal/session"
	"github.com/rileyhilliard/netcloak/internal/supervisor"
	"github.com/rileyhilliard/netcloak/internal/vpnconfig"
	"github.com/spf13/afero"
)

// Seams for tests
var (
	newRunner = func() exec.Runner { return exec.NewOSRunner() }
	newFs     = afero.NewOsFs
)

// app holds the collaborators every command is built from.
type app struct {
	cfg        *config.Config
	cfgPath    string
	log        logger.Logger
	closeLog   func() error
	runner     exec.Runner
	fs         afero.Fs
	discoverer *vpnconfig.Discoverer
	sup        *supervisor.Supervisor
}

// loadApp reads config, applies global flag overrides, and opens the log file.
func loadApp() (*app, error) {
	cfg, path, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if dirFlag != "" {
		cfg.Discovery.Dir = dirFlag
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	log, closeLog, err := logger.NewFile(cfg.Log.File, logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		// Logging is diagnostics only; run without it rather than refuse to start
		log, closeLog = logger.Noop(), func() error { return nil }
	}
	logger.SetDefault(log)
	if path != "" {
		log.Debug("loaded config from %s", path)
	}

	fs := newFs()
	runner := newRunner()
	return &app{
		cfg:        cfg,
		cfgPath:    path,
		log:        log,
		closeLog:   closeLog,
		runner:     runner,
		fs:         fs,
		discoverer: vpnconfig.NewDiscoverer(fs, cfg.Discovery.Dir, cfg.Discovery.Extension),
		sup:        supervisor.New(cfg, runner, fs, log),
	}, nil
}

// Close flushes and closes the log file.
func (a *app) Close() {
	if a.closeLog != nil {
		_ = a.closeLog()
	}
}

// sampler builds the configured latency probe.
func (a *app) sampler() (latency.Sampler, error) {
	return latency.New(a.cfg.Probe, a.runner)
}

// schedule is the connect schedule from config.
func (a *app) schedule() supervisor.Schedule {
	return supervisor.Schedule{Attempts: a.cfg.Connect.Attempts, Interval: a.cfg.Connect.Interval}
}

// machine builds a session machine over the app's supervisor.
func (a *app) machine() *session.Machine {
	return session.NewMachine(a.sup, a.discoverer, session.Options{
		Schedule:       a.schedule(),
		HistorySize:    a.cfg.Monitor.HistorySize,
		NoticeDuration: a.cfg.UI.NoticeDuration,
		Logger:         a.log,
	})
}
