package latency

import (
	"context"
	"strings"
	"time"

	"github.com/pion/stun/v3"
)

// STUNSampler measures the round trip of a STUN binding request. Besides
// latency it reports the public address the server saw, which shows whether
// traffic leaves through the tunnel.
type STUNSampler struct {
	server  string
	timeout time.Duration
}

// NewSTUNSampler creates a sampler against server ("host:port", with or
// without the "stun:" scheme).
func NewSTUNSampler(server string, timeout time.Duration) *STUNSampler {
	return &STUNSampler{server: server, timeout: timeout}
}

// Sample implements Sampler.
func (s *STUNSampler) Sample(ctx context.Context) Result {
	uriStr := strings.TrimSpace(s.server)
	if uriStr == "" {
		return Unreachable()
	}
	if !strings.HasPrefix(uriStr, "stun:") {
		uriStr = "stun:" + uriStr
	}

	uri, err := stun.ParseURI(uriStr)
	if err != nil {
		return Unreachable()
	}

	client, err := stun.DialURI(uri, &stun.DialConfig{})
	if err != nil {
		return Unreachable()
	}
	defer client.Close()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	type reply struct {
		addr string
		rtt  time.Duration
		err  error
	}
	replies := make(chan reply, 1)

	msg := stun.MustBuild(stun.TransactionID, stun.BindingRequest)
	start := time.Now()
	go func() {
		err := client.Do(msg, func(res stun.Event) {
			rtt := time.Since(start)
			if res.Error != nil {
				replies <- reply{err: res.Error}
				return
			}
			var addr stun.XORMappedAddress
			if err := addr.GetFrom(res.Message); err != nil {
				replies <- reply{err: err}
				return
			}
			replies <- reply{addr: addr.String(), rtt: rtt}
		})
		if err != nil {
			select {
			case replies <- reply{err: err}:
			default:
			}
		}
	}()

	select {
	case r := <-replies:
		if r.err != nil {
			return Unreachable()
		}
		v := ms(r.rtt)
		return Result{Min: v, Avg: v, Max: v, Reachable: true, MappedAddr: r.addr}
	case <-ctx.Done():
		return Unreachable()
	}
}
