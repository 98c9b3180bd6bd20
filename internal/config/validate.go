package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rileyhilliard/netcloak/internal/errors"
)

// MinInterval is the smallest poll or sample interval accepted.
const MinInterval = 100 * time.Millisecond

// Validate checks the config for values the supervisor and dashboard can't work with.
func Validate(cfg *Config) error {
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but netcloak only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade netcloak or lower the version field.")
	}

	if strings.TrimSpace(cfg.Client.Binary) == "" {
		return errors.New(errors.ErrConfig,
			"client.binary is empty",
			"Set it to the VPN client executable, e.g. openvpn.")
	}

	if cfg.Markers.Success == "" || cfg.Markers.Failure == "" {
		return errors.New(errors.ErrConfig,
			"Both markers.success and markers.failure must be set",
			"The defaults are \"Initialization Sequence Completed\" and \"ERROR\".")
	}

	if cfg.Connect.Attempts < 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("connect.attempts must be at least 1 (got %d)", cfg.Connect.Attempts),
			"The default is 30 attempts.")
	}

	if err := validateInterval("connect.interval", cfg.Connect.Interval); err != nil {
		return err
	}
	if err := validateInterval("monitor.interval", cfg.Monitor.Interval); err != nil {
		return err
	}

	switch cfg.Probe.Method {
	case ProbePing, ProbeICMP, ProbeSTUN:
	default:
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown probe.method %q", cfg.Probe.Method),
			"Use one of: ping, icmp, stun.")
	}

	if cfg.Probe.Method == ProbeSTUN && cfg.Probe.STUNServer == "" {
		return errors.New(errors.ErrConfig,
			"probe.stun_server is required when probe.method is stun",
			"For example stun.l.google.com:19302.")
	}
	if cfg.Probe.Method != ProbeSTUN && cfg.Probe.Target == "" {
		return errors.New(errors.ErrConfig,
			"probe.target is empty",
			"Set it to a reachable address, e.g. 8.8.8.8.")
	}

	if cfg.Probe.Timeout <= 0 {
		return errors.New(errors.ErrConfig,
			"probe.timeout must be positive",
			"Try something like 5s.")
	}

	if cfg.Monitor.HistorySize < 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("monitor.history_size must be at least 1 (got %d)", cfg.Monitor.HistorySize),
			"The default keeps 100 samples.")
	}

	if cfg.Monitor.WarnMs <= 0 || cfg.Monitor.CriticalMs < cfg.Monitor.WarnMs {
		return errors.New(errors.ErrConfig,
			"monitor.warn_ms must be positive and no larger than monitor.critical_ms",
			"The defaults are 100 and 300.")
	}

	if cfg.UI.GraphHeight < 2 {
		return errors.New(errors.ErrConfig,
			"ui.graph_height must be at least 2",
			"The default is 8 rows.")
	}

	return nil
}

func validateInterval(key string, d time.Duration) error {
	if d < MinInterval {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("%s is too short (%s)", key, d),
			fmt.Sprintf("Minimum is %s.", MinInterval))
	}
	return nil
}
