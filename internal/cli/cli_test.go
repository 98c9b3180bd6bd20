package cli

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rileyhilliard/netcloak/internal/config"
	"github.com/rileyhilliard/netcloak/internal/dashboard"
	"github.com/rileyhilliard/netcloak/internal/errors"
	"github.com/rileyhilliard/netcloak/internal/exec"
	exectesting "github.com/rileyhilliard/netcloak/internal/exec/testing"
	"github.com/rileyhilliard/netcloak/internal/latency"
	"github.com/rileyhilliard/netcloak/internal/vpnconfig"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const linuxPing = `PING 8.8.8.8 (8.8.8.8) 56(84) bytes of data.
64 bytes from 8.8.8.8: icmp_seq=1 ttl=117 time=21.4 ms

--- 8.8.8.8 ping statistics ---
1 packets transmitted, 1 received, 0% packet loss, time 0ms
rtt min/avg/max/mdev = 21.400/21.400/21.400/0.000 ms
`

// testApp isolates config loading and swaps the runner and filesystem for
// fakes. Configurations a.ovpn and b.ovpn live in /vpn on the fake fs.
func testApp(t *testing.T) (*app, *exectesting.FakeRunner, afero.Fs) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("NETCLOAK_LOG_FILE", filepath.Join(t.TempDir(), "netcloak.log"))
	t.Setenv("NETCLOAK_CLIENT_LOG_DIR", "/logs")
	t.Setenv("NETCLOAK_CLIENT_SUDO", "false")
	t.Setenv("NETCLOAK_CONNECT_ATTEMPTS", "3")
	t.Setenv("NETCLOAK_CONNECT_INTERVAL", "100ms")
	t.Setenv("NETCLOAK_MONITOR_INTERVAL", "100ms")

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/vpn", 0o755))
	for _, name := range []string{"b.ovpn", "a.ovpn", "notes.txt"} {
		require.NoError(t, afero.WriteFile(fs, "/vpn/"+name, []byte("client\n"), 0o644))
	}
	runner := exectesting.NewFakeRunner()

	oldRunner, oldFs, oldDir := newRunner, newFs, dirFlag
	newRunner = func() exec.Runner { return runner }
	newFs = func() afero.Fs { return fs }
	dirFlag = "/vpn"
	t.Cleanup(func() {
		newRunner, newFs, dirFlag = oldRunner, oldFs, oldDir
	})

	a, err := loadApp()
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a, runner, fs
}

func TestLoadApp(t *testing.T) {
	a, _, _ := testApp(t)

	assert.Equal(t, "/vpn", a.cfg.Discovery.Dir)
	assert.Equal(t, "/logs", a.cfg.Client.LogDir)
	assert.False(t, a.cfg.Client.Sudo)
	assert.Equal(t, 3, a.schedule().Attempts)
	assert.Equal(t, 100*time.Millisecond, a.schedule().Interval)
}

func TestListCommand(t *testing.T) {
	a, _, _ := testApp(t)

	var out bytes.Buffer
	require.NoError(t, listCommand(a, false, &out))
	assert.Equal(t, "a.ovpn\nb.ovpn\n", out.String())

	out.Reset()
	require.NoError(t, listCommand(a, true, &out))
	assert.Equal(t, "/vpn/a.ovpn\n/vpn/b.ovpn\n", out.String())
}

func TestListCommand_NoConfigurations(t *testing.T) {
	a, _, fs := testApp(t)
	require.NoError(t, fs.RemoveAll("/vpn"))
	require.NoError(t, fs.MkdirAll("/vpn", 0o755))

	err := listCommand(a, false, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	assert.Equal(t, 1, exitCode(err, &bytes.Buffer{}))
}

func TestConnectCommand_Converges(t *testing.T) {
	a, runner, fs := testApp(t)
	runner.Respond("ping", linuxPing, 0)
	runner.OnStart = func(pid int, logPath string) {
		_ = afero.WriteFile(fs, logPath, []byte("Initialization Sequence Completed\n"), 0o644)
	}

	var out bytes.Buffer
	err := connectCommand(context.Background(), a, "a", 2, &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Connecting with a.ovpn")
	assert.Contains(t, text, "Attempt 1/3")
	assert.Contains(t, text, "Connected successfully!")
	assert.Contains(t, text, "latency 21.40 ms")
	assert.Contains(t, text, "2 samples: avg 21.40 ms")
	assert.True(t, strings.HasSuffix(text, "VPN disconnected\n"))

	require.Len(t, runner.Starts, 1)
	assert.Equal(t, "openvpn --config /vpn/a.ovpn", runner.Starts[0].String())
	assert.Len(t, runner.Terminated, 1, "client stopped on the way out")
	assert.Equal(t, 2, runner.CaptureCount("ping"))
}

func TestConnectCommand_Failed(t *testing.T) {
	a, runner, fs := testApp(t)
	runner.OnStart = func(pid int, logPath string) {
		_ = afero.WriteFile(fs, logPath, []byte("ERROR: AUTH_FAILED\n"), 0o644)
	}

	var out bytes.Buffer
	err := connectCommand(context.Background(), a, "b.ovpn", 1, &out)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConnect))
	assert.Contains(t, err.Error(), "Connection failed! Check /logs/openvpn_")
	assert.Contains(t, err.Error(), "ERROR: AUTH_FAILED")
	assert.NotContains(t, out.String(), "VPN disconnected")
	assert.Len(t, runner.Terminated, 1)
}

func TestConnectCommand_TimedOut(t *testing.T) {
	a, runner, _ := testApp(t)

	var out bytes.Buffer
	err := connectCommand(context.Background(), a, "a.ovpn", 1, &out)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrTimeout))
	assert.Contains(t, err.Error(), "Connection timeout after 0.3 seconds")
	assert.Contains(t, out.String(), "Attempt 3/3")
	assert.NotContains(t, out.String(), "Attempt 4/3")
	assert.Len(t, runner.Terminated, 1)
}

func TestConnectCommand_Cancelled(t *testing.T) {
	a, runner, _ := testApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := connectCommand(ctx, a, "a.ovpn", 1, &bytes.Buffer{})
	assert.NoError(t, err)
	assert.Len(t, runner.Terminated, 1)
}

func TestConnectCommand_LaunchFailure(t *testing.T) {
	a, runner, _ := testApp(t)
	runner.StartErr = fmt.Errorf("exec: \"openvpn\": executable file not found in $PATH")

	err := connectCommand(context.Background(), a, "a.ovpn", 1, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrLaunch))
}

func TestPickConfig(t *testing.T) {
	refs := []vpnconfig.Ref{"/vpn/home.ovpn", "/vpn/work.ovpn"}

	tests := []struct {
		name    string
		refs    []vpnconfig.Ref
		arg     string
		want    vpnconfig.Ref
		wantErr bool
	}{
		{"by path", refs, "/vpn/work.ovpn", "/vpn/work.ovpn", false},
		{"by file name", refs, "home.ovpn", "/vpn/home.ovpn", false},
		{"by stem", refs, "work", "/vpn/work.ovpn", false},
		{"unknown", refs, "office", "", true},
		{"single config needs no argument", refs[:1], "", "/vpn/home.ovpn", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pickConfig(tt.refs, tt.arg, ".ovpn")
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCode(err, errors.ErrConfig))
				assert.Contains(t, err.Error(), "home.ovpn, work.ovpn")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPingCommand(t *testing.T) {
	values := []latency.Result{
		{Min: 10, Avg: 10, Max: 10, Reachable: true},
		latency.Unreachable(),
		{Min: 30, Avg: 30, Max: 30, Reachable: true},
	}
	i := 0
	sampler := latency.SamplerFunc(func(context.Context) latency.Result {
		r := values[i%len(values)]
		i++
		return r
	})

	var out bytes.Buffer
	err := pingCommand(context.Background(), sampler, time.Second, time.Millisecond, 3, dashboard.DefaultThresholds, &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "1/3  10.00 ms")
	assert.Contains(t, text, "2/3  N/A")
	assert.Contains(t, text, "3/3  30.00 ms")
	assert.Contains(t, text, "2 samples: avg 20.00 ms | min 10.00 ms | max 30.00 ms")
}

func TestPingCommand_AllUnreachable(t *testing.T) {
	sampler := latency.SamplerFunc(func(context.Context) latency.Result { return latency.Unreachable() })

	var out bytes.Buffer
	require.NoError(t, pingCommand(context.Background(), sampler, time.Second, time.Millisecond, 2, dashboard.DefaultThresholds, &out))
	assert.Contains(t, out.String(), "No successful samples")
}

func TestConfigShowCommand(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, configShowCommand(config.DefaultConfig(), "", &out))

	text := out.String()
	assert.Contains(t, text, "# source: defaults")
	assert.Contains(t, text, "attempts: 30")
	assert.Contains(t, text, "interval: 1s")
}

func TestConfigInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.ConfigFileName)

	var out bytes.Buffer
	require.NoError(t, configInitCommand(path, false, &out))
	assert.Contains(t, out.String(), "Wrote "+path)

	err := configInitCommand(path, false, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	assert.NoError(t, configInitCommand(path, true, &out))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   int
		output string
	}{
		{"success", nil, 0, ""},
		{"explicit exit code", errors.NewExitError(3), 3, ""},
		{"structured error", errors.NewNoConfigurations(".", ".ovpn"), 1, "✗ No OpenVPN (.ovpn) files found in ."},
		{"plain error", fmt.Errorf("boom"), 1, "boom\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			assert.Equal(t, tt.code, exitCode(tt.err, &buf))
			assert.Contains(t, buf.String(), tt.output)
		})
	}
}

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"dev", "dev"},
		{"1.2.3", "v1.2.3"},
		{"v1.2.3", "v1.2.3"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatVersion(tt.in))
	}
}

func TestCompletionGeneration(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, rootCmd.GenBashCompletion(&buf))
	assert.Contains(t, buf.String(), "# bash completion for netcloak")

	buf.Reset()
	require.NoError(t, rootCmd.GenZshCompletion(&buf))
	assert.Contains(t, buf.String(), "#compdef netcloak")
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"connect", "list", "ping", "config", "version", "completion"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	t.Cleanup(func() { versionCmd.SetOut(nil) })

	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, buf.String(), "netcloak dev")
	assert.Contains(t, buf.String(), "os/arch:")
}
