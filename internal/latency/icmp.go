package latency

import (
	"context"
	"time"

	"github.com/go-ping/ping"
)

// ICMPSampler sends one ICMP echo without spawning a process. Unprivileged
// mode uses UDP "ping sockets", which Linux only allows when
// net.ipv4.ping_group_range covers the user; Privileged switches to raw
// sockets (root or CAP_NET_RAW).
type ICMPSampler struct {
	target     string
	timeout    time.Duration
	Privileged bool
}

// NewICMPSampler creates a native ICMP sampler.
func NewICMPSampler(target string, timeout time.Duration) *ICMPSampler {
	return &ICMPSampler{target: target, timeout: timeout}
}

// Sample implements Sampler.
func (s *ICMPSampler) Sample(ctx context.Context) Result {
	pinger, err := ping.NewPinger(s.target)
	if err != nil {
		return Unreachable()
	}
	pinger.Count = 1
	if s.timeout > 0 {
		pinger.Timeout = s.timeout
	}
	pinger.SetPrivileged(s.Privileged)

	done := make(chan error, 1)
	go func() { done <- pinger.Run() }()

	select {
	case err = <-done:
	case <-ctx.Done():
		pinger.Stop()
		<-done
		return Unreachable()
	}
	if err != nil {
		return Unreachable()
	}

	stats := pinger.Statistics()
	if stats == nil || stats.PacketsRecv == 0 {
		return Unreachable()
	}

	return Result{
		Min:       ms(stats.MinRtt),
		Avg:       ms(stats.AvgRtt),
		Max:       ms(stats.MaxRtt),
		Reachable: true,
	}
}
