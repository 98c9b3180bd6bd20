package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Setenv(DebugEnv, "")

	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestParseLevel_DebugEnvOverrides(t *testing.T) {
	t.Setenv(DebugEnv, "1")
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("error"))
}

func TestNew_JSON(t *testing.T) {
	t.Setenv(DebugEnv, "")

	var buf bytes.Buffer
	l := New(&buf, Options{Level: "info", Format: "json", Component: "supervisor"})

	l.Debug("hidden %d", 1)
	l.Info("started pid %d", 4242)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "debug should be filtered at info level")

	var event map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &event))
	assert.Equal(t, "info", event["level"])
	assert.Equal(t, "started pid 4242", event["message"])
	assert.Equal(t, "supervisor", event["component"])
}

func TestNew_Console(t *testing.T) {
	t.Setenv(DebugEnv, "")

	var buf bytes.Buffer
	l := New(&buf, Options{Level: "debug", Format: "console"})

	l.Warn("probe %s unreachable", "8.8.8.8")
	l.Error("boom")

	out := buf.String()
	assert.Contains(t, out, "probe 8.8.8.8 unreachable")
	assert.Contains(t, out, "WRN")
	assert.Contains(t, out, "ERR")
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	l := With(New(&buf, Options{Level: "info"}), "session")
	l.Info("hello")
	assert.Contains(t, buf.String(), `"component":"session"`)

	b := NewBufferLogger()
	assert.Equal(t, Logger(b), With(b, "session"), "non-zerolog loggers pass through")
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netcloak.log")

	l, closeFn, err := NewFile(path, Options{Level: "info"})
	require.NoError(t, err)
	l.Info("written to file")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestNewFile_BadPath(t *testing.T) {
	_, _, err := NewFile(filepath.Join(t.TempDir(), "missing", "dir", "x.log"), Options{})
	assert.Error(t, err)
}

func TestBufferLogger(t *testing.T) {
	l := NewBufferLogger()

	l.Debug("debug %s", "msg")
	l.Info("info %s", "msg")
	l.Warn("warn %s", "msg")
	l.Error("error %s", "msg")

	require.Len(t, l.Messages, 4)
	assert.Equal(t, LogMessage{Level: "debug", Message: "debug msg"}, l.Messages[0])
	assert.Equal(t, LogMessage{Level: "error", Message: "error msg"}, l.Messages[3])

	assert.True(t, l.HasLevel("warn"))
	assert.True(t, l.Contains("info m"))
	assert.False(t, l.Contains("nope"))
}

func TestNoopLogger(t *testing.T) {
	l := Noop()
	l.Debug("debug")
	l.Info("info")
	l.Warn("warn")
	l.Error("error")
}

func TestDefault(t *testing.T) {
	original := defaultLogger
	defer func() { defaultLogger = original }()

	assert.NotNil(t, Default())

	buf := NewBufferLogger()
	SetDefault(buf)
	assert.Equal(t, Logger(buf), Default())
}
