package notifier

import (
	"context"
	"fmt"
	"net"
	"time"
)

// NetworkChecker reports whether a TCP address can be reached.
type NetworkChecker interface {
	Check(ctx context.Context, address string, timeout time.Duration) error
}

// NetworkProbe dials a TCP address and closes the connection at once.
type NetworkProbe struct {
	dial func(ctx context.Context, network, address string) (net.Conn, error) // injectable for tests
}

// NewNetworkProbe returns a NetworkProbe using net.Dialer.
func NewNetworkProbe() *NetworkProbe {
	var d net.Dialer
	return &NetworkProbe{dial: d.DialContext}
}

// Check dials address, giving up after timeout.
func (p *NetworkProbe) Check(ctx context.Context, address string, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	conn, err := p.dial(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("notifier: network unreachable: %w", err)
	}
	return conn.Close()
}
