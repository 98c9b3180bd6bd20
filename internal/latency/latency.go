// Package latency takes single round-trip-time samples toward a fixed target.
//
// A Sampler never returns an error: anything that prevents a measurement
// (spawn failure, timeout, no reply, unparseable output) produces an
// Unreachable result, which the dashboard shows as "N/A". Retrying is the
// caller's job; the monitor loop simply samples again on its next tick.
package latency

import (
	"context"
	"fmt"
	"time"

	"github.com/rileyhilliard/netcloak/internal/config"
	"github.com/rileyhilliard/netcloak/internal/errors"
	"github.com/rileyhilliard/netcloak/internal/exec"
)

// Result is one latency sample in milliseconds.
type Result struct {
	Min       float64
	Avg       float64
	Max       float64
	Reachable bool

	// MappedAddr is the public address observed by a STUN server, when the
	// sampler knows it.
	MappedAddr string
}

// Unreachable returns the failure result.
func Unreachable() Result {
	return Result{}
}

// String formats the result the way the dashboard shows the current reading.
func (r Result) String() string {
	if !r.Reachable {
		return "N/A"
	}
	return fmt.Sprintf("%.2f ms", r.Avg)
}

// Sampler issues one probe per call.
type Sampler interface {
	Sample(ctx context.Context) Result
}

// SamplerFunc adapts a function to the Sampler interface.
type SamplerFunc func(ctx context.Context) Result

// Sample implements Sampler.
func (f SamplerFunc) Sample(ctx context.Context) Result {
	return f(ctx)
}

// New builds the sampler selected by cfg.Method.
func New(cfg config.ProbeConfig, runner exec.Runner) (Sampler, error) {
	switch cfg.Method {
	case config.ProbePing, "":
		return NewPingSampler(runner, cfg.Target, cfg.Timeout), nil
	case config.ProbeICMP:
		s := NewICMPSampler(cfg.Target, cfg.Timeout)
		s.Privileged = cfg.Privileged
		return s, nil
	case config.ProbeSTUN:
		return NewSTUNSampler(cfg.STUNServer, cfg.Timeout), nil
	default:
		return nil, errors.New(errors.ErrProbe,
			fmt.Sprintf("Unknown probe method %q", cfg.Method),
			"Use one of: ping, icmp, stun.")
	}
}

// ms converts a duration to fractional milliseconds.
func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
