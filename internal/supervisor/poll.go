package supervisor

import (
	"bytes"
	"context"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// stopTimeout bounds the sudo kill issued by Stop.
const stopTimeout = 10 * time.Second

func stopContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), stopTimeout)
}

// PollStatus is the classification of one log poll.
type PollStatus int

const (
	Pending   PollStatus = iota // no marker yet (or no artifact yet)
	Converged                   // success marker present
	Failed                      // failure marker present
)

func (p PollStatus) String() string {
	switch p {
	case Pending:
		return "pending"
	case Converged:
		return "converged"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// PollResult is the outcome of a single Poll.
type PollResult struct {
	Status PollStatus
	// Reason is the log line holding the failure marker.
	Reason string
	// LastLine is the last non-empty line of the log, for progress display.
	LastLine string
}

// Poll reads the log artifact of the tracked client once and classifies it.
// The success marker wins when both markers appear.
func (s *Supervisor) Poll() PollResult {
	h := s.Handle()
	if !h.Valid() {
		return PollResult{Status: Pending}
	}

	data, err := afero.ReadFile(s.fs, h.LogPath)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Debug("reading %s: %v", h.LogPath, err)
		}
		return PollResult{Status: Pending}
	}

	res := PollResult{Status: Pending, LastLine: lastLine(data)}
	text := string(data)

	switch {
	case strings.Contains(text, s.markers.Success):
		res.Status = Converged
		s.mu.Lock()
		if s.handle.PID == h.PID {
			s.state = Running
		}
		s.mu.Unlock()
	case strings.Contains(text, s.markers.Failure):
		res.Status = Failed
		res.Reason = lineContaining(data, s.markers.Failure)
	}
	return res
}

// Schedule bounds AwaitConvergence.
type Schedule struct {
	Attempts int
	Interval time.Duration
}

// OutcomeKind classifies how a convergence wait ended.
type OutcomeKind int

const (
	OutcomeConverged OutcomeKind = iota
	OutcomeFailed
	OutcomeTimedOut
	OutcomeCancelled
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeConverged:
		return "converged"
	case OutcomeFailed:
		return "failed"
	case OutcomeTimedOut:
		return "timed out"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome is the result of AwaitConvergence.
type Outcome struct {
	Kind OutcomeKind
	// Polls is the number of polls performed.
	Polls int
	// Reason carries the failure line for OutcomeFailed.
	Reason string
}

// AttemptFunc observes each poll; attempt counts from 1.
type AttemptFunc func(attempt int, res PollResult)

// AwaitConvergence polls the log until a marker appears, the attempts run
// out, or ctx is cancelled. ctx is checked before every poll. There is no
// wait after the final poll, so a timeout is reported after exactly
// sched.Attempts polls.
func (s *Supervisor) AwaitConvergence(ctx context.Context, sched Schedule, onAttempt AttemptFunc) Outcome {
	for attempt := 1; attempt <= sched.Attempts; attempt++ {
		if ctx.Err() != nil {
			return Outcome{Kind: OutcomeCancelled, Polls: attempt - 1}
		}

		res := s.Poll()
		if onAttempt != nil {
			onAttempt(attempt, res)
		}

		switch res.Status {
		case Converged:
			return Outcome{Kind: OutcomeConverged, Polls: attempt}
		case Failed:
			s.DiscardLog()
			return Outcome{Kind: OutcomeFailed, Polls: attempt, Reason: res.Reason}
		}

		if attempt == sched.Attempts {
			break
		}

		timer := time.NewTimer(sched.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Outcome{Kind: OutcomeCancelled, Polls: attempt}
		case <-timer.C:
		}
	}

	s.DiscardLog()
	return Outcome{Kind: OutcomeTimedOut, Polls: sched.Attempts}
}

// DiscardLog removes the log artifact of the tracked attempt when
// connect.remove_failed_logs is set. Callers use it after a failed or
// timed-out attempt, before Stop.
func (s *Supervisor) DiscardLog() {
	if !s.removeFailed {
		return
	}
	h := s.Handle()
	if h.LogPath == "" {
		return
	}
	if err := s.fs.Remove(h.LogPath); err != nil && !os.IsNotExist(err) {
		s.log.Warn("couldn't remove %s: %v", h.LogPath, err)
	}
}

func lastLine(data []byte) string {
	lines := bytes.Split(data, []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(string(lines[i])); line != "" {
			return line
		}
	}
	return ""
}

func lineContaining(data []byte, marker string) string {
	for _, line := range strings.Split(string(data), "\n") {
		if strings.Contains(line, marker) {
			return strings.TrimSpace(line)
		}
	}
	return marker
}

func trimOutput(out []byte) string {
	s := strings.TrimSpace(string(out))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
