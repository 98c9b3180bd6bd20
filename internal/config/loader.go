package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/netcloak/internal/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = ".netcloak.yaml"
	// GlobalConfigDir is the directory for global config.
	GlobalConfigDir = ".config/netcloak"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. NETCLOAK_PROBE_TARGET.
	EnvPrefix = "NETCLOAK"
)

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. .netcloak.yaml in current directory
// 3. ~/.config/netcloak/config.yaml
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Specified config file not found: "+explicit,
				"Check the path is correct")
		}
		return explicit, nil
	}

	if _, err := os.Stat(ConfigFileName); err == nil {
		abs, absErr := filepath.Abs(ConfigFileName)
		if absErr != nil {
			return ConfigFileName, nil
		}
		return abs, nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		global := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(global); err == nil {
			return global, nil
		}
	}

	return "", nil
}

// Load finds and reads the config, falling back to defaults when no file
// exists. Environment variables override file values. The returned path is
// empty when defaults were used.
func Load(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, "", errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read config file",
				"Check "+path+" is valid YAML")
		}
	}

	cfg, err := parseConfig(v, path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+path)
	}

	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(os.TempDir(), "netcloak.log")
	}
	if cfg.Client.LogDir == "" {
		cfg.Client.LogDir = os.TempDir()
	}
	if cfg.Discovery.Extension != "" && !strings.HasPrefix(cfg.Discovery.Extension, ".") {
		cfg.Discovery.Extension = "." + cfg.Discovery.Extension
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key with viper so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("version", d.Version)
	v.SetDefault("client.binary", d.Client.Binary)
	v.SetDefault("client.sudo", d.Client.Sudo)
	v.SetDefault("client.args", d.Client.Args)
	v.SetDefault("client.log_dir", d.Client.LogDir)
	v.SetDefault("discovery.dir", d.Discovery.Dir)
	v.SetDefault("discovery.extension", d.Discovery.Extension)
	v.SetDefault("markers.success", d.Markers.Success)
	v.SetDefault("markers.failure", d.Markers.Failure)
	v.SetDefault("connect.attempts", d.Connect.Attempts)
	v.SetDefault("connect.interval", d.Connect.Interval.String())
	v.SetDefault("connect.remove_failed_logs", d.Connect.RemoveFailedLogs)
	v.SetDefault("probe.method", d.Probe.Method)
	v.SetDefault("probe.target", d.Probe.Target)
	v.SetDefault("probe.timeout", d.Probe.Timeout.String())
	v.SetDefault("probe.stun_server", d.Probe.STUNServer)
	v.SetDefault("probe.privileged", d.Probe.Privileged)
	v.SetDefault("monitor.interval", d.Monitor.Interval.String())
	v.SetDefault("monitor.history_size", d.Monitor.HistorySize)
	v.SetDefault("monitor.tunnel_prefixes", d.Monitor.TunnelPrefixes)
	v.SetDefault("monitor.warn_ms", d.Monitor.WarnMs)
	v.SetDefault("monitor.critical_ms", d.Monitor.CriticalMs)
	v.SetDefault("ui.notice_duration", d.UI.NoticeDuration.String())
	v.SetDefault("ui.graph_height", d.UI.GraphHeight)
	v.SetDefault("ui.graph_width", d.UI.GraphWidth)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Marshal renders cfg as YAML. Durations are written as strings ("1s") so
// the file reads back through Load unchanged.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(document(cfg))
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't encode config",
			"This shouldn't happen - please report this bug!")
	}
	return data, nil
}

// Save writes cfg to path as YAML. It refuses to overwrite an existing file
// unless force is set.
func Save(path string, cfg *Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return errors.New(errors.ErrConfig,
				path+" already exists",
				"Use --force to overwrite it.")
		}
	}

	data, err := Marshal(cfg)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Couldn't create config directory",
				"Check permissions on "+dir)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't write config file",
			"Check permissions on "+path)
	}
	return nil
}

// document mirrors Config as nested maps with human-readable durations.
func document(cfg *Config) map[string]interface{} {
	return map[string]interface{}{
		"version": cfg.Version,
		"client": map[string]interface{}{
			"binary":  cfg.Client.Binary,
			"sudo":    cfg.Client.Sudo,
			"args":    cfg.Client.Args,
			"log_dir": cfg.Client.LogDir,
		},
		"discovery": map[string]interface{}{
			"dir":       cfg.Discovery.Dir,
			"extension": cfg.Discovery.Extension,
		},
		"markers": map[string]interface{}{
			"success": cfg.Markers.Success,
			"failure": cfg.Markers.Failure,
		},
		"connect": map[string]interface{}{
			"attempts":           cfg.Connect.Attempts,
			"interval":           cfg.Connect.Interval.String(),
			"remove_failed_logs": cfg.Connect.RemoveFailedLogs,
		},
		"probe": map[string]interface{}{
			"method":      cfg.Probe.Method,
			"target":      cfg.Probe.Target,
			"timeout":     cfg.Probe.Timeout.String(),
			"stun_server": cfg.Probe.STUNServer,
			"privileged":  cfg.Probe.Privileged,
		},
		"monitor": map[string]interface{}{
			"interval":        cfg.Monitor.Interval.String(),
			"history_size":    cfg.Monitor.HistorySize,
			"tunnel_prefixes": cfg.Monitor.TunnelPrefixes,
			"warn_ms":         cfg.Monitor.WarnMs,
			"critical_ms":     cfg.Monitor.CriticalMs,
		},
		"ui": map[string]interface{}{
			"notice_duration": cfg.UI.NoticeDuration.String(),
			"graph_height":    cfg.UI.GraphHeight,
			"graph_width":     cfg.UI.GraphWidth,
		},
		"log": map[string]interface{}{
			"file":   cfg.Log.File,
			"level":  cfg.Log.Level,
			"format": cfg.Log.Format,
		},
	}
}
