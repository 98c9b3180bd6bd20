// Package testing provides test doubles for the exec package.
package testing

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Call records a single invocation made through the FakeRunner.
type Call struct {
	Name    string
	Args    []string
	LogPath string // set for StartDetached calls
}

// String renders the call as a shell-like command line.
func (c Call) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// CaptureResult is the canned response for a Capture call.
type CaptureResult struct {
	Output   string
	ExitCode int
	Err      error
}

// FakeRunner simulates command execution for testing.
// Processes it "starts" get sequential pids beginning at 1001 and stay alive
// until terminated or killed with Kill.
type FakeRunner struct {
	mu sync.Mutex

	// Capture responses keyed by command name; Default is used otherwise.
	Responses map[string]CaptureResult
	Default   CaptureResult

	// StartErr makes StartDetached fail.
	StartErr error
	// TerminateErr makes Terminate fail (the process is still marked dead).
	TerminateErr error
	// OnStart runs after a successful StartDetached, e.g. to write a log file.
	OnStart func(pid int, logPath string)

	nextPid int
	alive   map[int]bool

	// Tracking for assertions
	Captures   []Call
	Starts     []Call
	Terminated []int
}

// NewFakeRunner creates a FakeRunner with no canned responses.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		Responses: make(map[string]CaptureResult),
		nextPid:   1000,
		alive:     make(map[int]bool),
	}
}

// Respond sets the canned result for Capture calls of the named command.
func (r *FakeRunner) Respond(name, output string, exitCode int) *FakeRunner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Responses[name] = CaptureResult{Output: output, ExitCode: exitCode}
	return r
}

// Capture implements exec.Runner.
func (r *FakeRunner) Capture(ctx context.Context, name string, args ...string) ([]byte, int, error) {
	r.mu.Lock()
	r.Captures = append(r.Captures, Call{Name: name, Args: args})
	res, ok := r.Responses[name]
	if !ok {
		res = r.Default
	}
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, -1, err
	}
	if res.Err != nil {
		return []byte(res.Output), -1, res.Err
	}
	return []byte(res.Output), res.ExitCode, nil
}

// StartDetached implements exec.Runner.
func (r *FakeRunner) StartDetached(name string, args []string, logPath string) (int, error) {
	r.mu.Lock()
	r.Starts = append(r.Starts, Call{Name: name, Args: args, LogPath: logPath})
	if r.StartErr != nil {
		err := r.StartErr
		r.mu.Unlock()
		return 0, err
	}
	r.nextPid++
	pid := r.nextPid
	r.alive[pid] = true
	onStart := r.OnStart
	r.mu.Unlock()

	if onStart != nil {
		onStart(pid, logPath)
	}
	return pid, nil
}

// Alive implements exec.Runner.
func (r *FakeRunner) Alive(pid int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.alive[pid]
}

// Terminate implements exec.Runner.
func (r *FakeRunner) Terminate(pid int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Terminated = append(r.Terminated, pid)
	if !r.alive[pid] {
		return fmt.Errorf("no such process: %d", pid)
	}
	delete(r.alive, pid)
	return r.TerminateErr
}

// Kill marks pid as dead without recording a Terminate call, simulating a
// client that exited on its own.
func (r *FakeRunner) Kill(pid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.alive, pid)
}

// CaptureCount returns the number of Capture calls made for the named command.
func (r *FakeRunner) CaptureCount(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.Captures {
		if c.Name == name {
			n++
		}
	}
	return n
}
