package latency

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/rileyhilliard/netcloak/internal/exec"
)

// summaryPattern matches the iputils summary line
// ("rtt min/avg/max/mdev = 9.1/9.1/9.1/0.0 ms") and the BSD/macOS form
// ("round-trip min/avg/max/stddev = ...").
var summaryPattern = regexp.MustCompile(`(?:rtt|round-trip) min/avg/max/(?:mdev|stddev) = ([\d.]+)/([\d.]+)/([\d.]+)/([\d.]+) ms`)

// PingSampler shells out to the system ping binary for a single echo request.
type PingSampler struct {
	runner  exec.Runner
	binary  string
	target  string
	timeout time.Duration
}

// NewPingSampler creates a sampler that runs "ping -c 1 <target>". The
// timeout bounds the whole invocation.
func NewPingSampler(runner exec.Runner, target string, timeout time.Duration) *PingSampler {
	return &PingSampler{
		runner:  runner,
		binary:  "ping",
		target:  target,
		timeout: timeout,
	}
}

// Sample implements Sampler.
func (s *PingSampler) Sample(ctx context.Context) Result {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	out, code, err := s.runner.Capture(ctx, s.binary, "-c", "1", s.target)
	if err != nil || code != 0 {
		return Unreachable()
	}

	result, ok := ParsePingOutput(string(out))
	if !ok {
		return Unreachable()
	}
	return result
}

// ParsePingOutput extracts min/avg/max from ping's summary line. The fourth
// statistic (mdev/stddev) is validated but dropped.
func ParsePingOutput(output string) (Result, bool) {
	m := summaryPattern.FindStringSubmatch(output)
	if m == nil {
		return Unreachable(), false
	}

	var vals [4]float64
	for i := range vals {
		v, err := strconv.ParseFloat(m[i+1], 64)
		if err != nil || v < 0 {
			return Unreachable(), false
		}
		vals[i] = v
	}

	return Result{
		Min:       vals[0],
		Avg:       vals[1],
		Max:       vals[2],
		Reachable: true,
	}, true
}
