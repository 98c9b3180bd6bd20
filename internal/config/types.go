package config

import (
	"os"
	"time"
)

// CurrentConfigVersion is the schema version for the config file.
const CurrentConfigVersion = 1

// Config represents the complete .netcloak.yaml configuration file.
type Config struct {
	Version   int             `yaml:"version" mapstructure:"version"`
	Client    ClientConfig    `yaml:"client" mapstructure:"client"`
	Discovery DiscoveryConfig `yaml:"discovery" mapstructure:"discovery"`
	Markers   MarkerConfig    `yaml:"markers" mapstructure:"markers"`
	Connect   ConnectConfig   `yaml:"connect" mapstructure:"connect"`
	Probe     ProbeConfig     `yaml:"probe" mapstructure:"probe"`
	Monitor   MonitorConfig   `yaml:"monitor" mapstructure:"monitor"`
	UI        UIConfig        `yaml:"ui" mapstructure:"ui"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// ClientConfig describes how the VPN client is launched.
type ClientConfig struct {
	// Binary is the client executable (looked up in PATH).
	Binary string `yaml:"binary" mapstructure:"binary"`

	// Sudo runs the client (and its termination) through sudo.
	Sudo bool `yaml:"sudo" mapstructure:"sudo"`

	// Args are extra arguments placed before --config.
	Args []string `yaml:"args" mapstructure:"args"`

	// LogDir is where per-attempt log artifacts are written.
	LogDir string `yaml:"log_dir" mapstructure:"log_dir"`
}

// DiscoveryConfig controls how client configuration files are found.
type DiscoveryConfig struct {
	Dir       string `yaml:"dir" mapstructure:"dir"`
	Extension string `yaml:"extension" mapstructure:"extension"`
}

// MarkerConfig holds the substrings scanned for in the client log.
type MarkerConfig struct {
	Success string `yaml:"success" mapstructure:"success"`
	Failure string `yaml:"failure" mapstructure:"failure"`
}

// ConnectConfig bounds the convergence wait.
type ConnectConfig struct {
	// Attempts is the number of log polls before giving up.
	Attempts int `yaml:"attempts" mapstructure:"attempts"`

	// Interval is the delay between polls.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`

	// RemoveFailedLogs deletes the log artifact of a failed attempt.
	RemoveFailedLogs bool `yaml:"remove_failed_logs" mapstructure:"remove_failed_logs"`
}

// Probe methods.
const (
	ProbePing = "ping" // system ping binary, summary line parsed
	ProbeICMP = "icmp" // native ICMP echo
	ProbeSTUN = "stun" // STUN binding request round trip
)

// ProbeConfig controls latency sampling.
type ProbeConfig struct {
	Method     string        `yaml:"method" mapstructure:"method"`
	Target     string        `yaml:"target" mapstructure:"target"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	STUNServer string        `yaml:"stun_server" mapstructure:"stun_server"`

	// Privileged makes the icmp method use raw sockets (root or CAP_NET_RAW)
	// instead of unprivileged ping sockets.
	Privileged bool `yaml:"privileged" mapstructure:"privileged"`
}

// MonitorConfig controls the monitoring phase.
type MonitorConfig struct {
	Interval       time.Duration `yaml:"interval" mapstructure:"interval"`
	HistorySize    int           `yaml:"history_size" mapstructure:"history_size"`
	TunnelPrefixes []string      `yaml:"tunnel_prefixes" mapstructure:"tunnel_prefixes"`
	WarnMs         float64       `yaml:"warn_ms" mapstructure:"warn_ms"`
	CriticalMs     float64       `yaml:"critical_ms" mapstructure:"critical_ms"`
}

// UIConfig controls dashboard layout.
type UIConfig struct {
	NoticeDuration time.Duration `yaml:"notice_duration" mapstructure:"notice_duration"`
	GraphHeight    int           `yaml:"graph_height" mapstructure:"graph_height"`
	GraphWidth     int           `yaml:"graph_width" mapstructure:"graph_width"`
}

// LogConfig controls netcloak's own log file.
type LogConfig struct {
	File   string `yaml:"file" mapstructure:"file"`
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultConfig returns a Config with the defaults used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Client: ClientConfig{
			Binary: "openvpn",
			Sudo:   true,
			LogDir: os.TempDir(),
		},
		Discovery: DiscoveryConfig{
			Dir:       ".",
			Extension: ".ovpn",
		},
		Markers: MarkerConfig{
			Success: "Initialization Sequence Completed",
			Failure: "ERROR",
		},
		Connect: ConnectConfig{
			Attempts: 30,
			Interval: time.Second,
		},
		Probe: ProbeConfig{
			Method:     ProbePing,
			Target:     "8.8.8.8",
			Timeout:    5 * time.Second,
			STUNServer: "stun.l.google.com:19302",
		},
		Monitor: MonitorConfig{
			Interval:       time.Second,
			HistorySize:    100,
			TunnelPrefixes: []string{"tun", "tap"},
			WarnMs:         100,
			CriticalMs:     300,
		},
		UI: UIConfig{
			NoticeDuration: 2 * time.Second,
			GraphHeight:    8,
			GraphWidth:     60,
		},
		Log: LogConfig{
			File:   "",
			Level:  "info",
			Format: "json",
		},
	}
}
