//go:build unix

// Package exec runs the external tools netcloak depends on: the VPN client,
// the system ping binary, and sudo. Everything goes through the Runner
// interface so the supervisor and sampler can be tested with FakeRunner.
package exec

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"syscall"

	"github.com/rileyhilliard/netcloak/internal/errors"
)

// Runner abstracts command execution.
type Runner interface {
	// Capture runs a command to completion and returns its combined output and
	// exit code. A non-zero exit is not an error; err is set only when the
	// command couldn't run at all or ctx expired.
	Capture(ctx context.Context, name string, args ...string) (output []byte, exitCode int, err error)

	// StartDetached spawns a command in its own process group with stdout and
	// stderr appended to logPath, and returns without waiting for it.
	StartDetached(name string, args []string, logPath string) (pid int, err error)

	// Alive reports whether a process with the given pid exists.
	Alive(pid int) bool

	// Terminate sends SIGTERM to pid.
	Terminate(pid int) error
}

// OSRunner executes commands on the host via os/exec.
type OSRunner struct{}

// NewOSRunner returns a Runner backed by the operating system.
func NewOSRunner() *OSRunner {
	return &OSRunner{}
}

// Capture implements Runner.
func (r *OSRunner) Capture(ctx context.Context, name string, args ...string) ([]byte, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	runErr := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return buf.Bytes(), -1, ctxErr
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if stderrors.As(runErr, &exitErr) {
			return buf.Bytes(), exitErr.ExitCode(), nil
		}
		return buf.Bytes(), -1, errors.WrapWithCode(runErr, errors.ErrLaunch,
			"Couldn't run "+name,
			"Make sure the command exists and is executable.")
	}
	return buf.Bytes(), 0, nil
}

// StartDetached implements Runner.
func (r *OSRunner) StartDetached(name string, args []string, logPath string) (int, error) {
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrLaunch,
			"Couldn't create log file "+logPath,
			"Check that the log directory exists and is writable.")
	}
	// The child holds its own descriptor once started.
	defer logFile.Close()

	cmd := exec.Command(name, args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrLaunch,
			"Couldn't start "+name,
			"Make sure the VPN client is installed and on your PATH.")
	}

	// Reap the child when it exits so Alive stops reporting it.
	go func() { _ = cmd.Wait() }()

	return cmd.Process.Pid, nil
}

// Alive implements Runner. EPERM means the process exists but belongs to
// another user, which is the normal case for a client started through sudo.
func (r *OSRunner) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || stderrors.Is(err, syscall.EPERM)
}

// Terminate implements Runner.
func (r *OSRunner) Terminate(pid int) error {
	if pid <= 0 {
		return syscall.ESRCH
	}
	return syscall.Kill(pid, syscall.SIGTERM)
}
