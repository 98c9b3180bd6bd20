package supervisor

import (
	"context"
	"net"
	"strings"
)

// InterfaceLister returns the names of the host's network interfaces.
type InterfaceLister func() ([]string, error)

// SystemInterfaces lists interfaces through the net package.
func SystemInterfaces() ([]string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ifaces))
	for _, iface := range ifaces {
		names = append(names, iface.Name)
	}
	return names, nil
}

// IsHealthy reports whether the tracked client is alive and a tunnel
// interface exists. The two checks are not atomic with respect to each other
// and the answer can be stale by the time it is used.
func (s *Supervisor) IsHealthy(ctx context.Context) bool {
	h := s.Handle()
	if !h.Valid() || ctx.Err() != nil {
		return false
	}
	if !s.runner.Alive(h.PID) {
		s.log.Debug("pid %d is gone", h.PID)
		return false
	}
	return s.hasTunnel()
}

func (s *Supervisor) hasTunnel() bool {
	if s.Interfaces == nil {
		return false
	}
	names, err := s.Interfaces()
	if err != nil {
		s.log.Debug("listing interfaces: %v", err)
		return false
	}
	for _, name := range names {
		for _, prefix := range s.tunnelPrefixes {
			if prefix != "" && strings.HasPrefix(name, prefix) {
				return true
			}
		}
	}
	return false
}
