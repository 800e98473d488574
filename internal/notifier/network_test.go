package notifier

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkProbe_Reachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	p := NewNetworkProbe()
	assert.NoError(t, p.Check(context.Background(), ln.Addr().String(), time.Second))
}

func TestNetworkProbe_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	p := NewNetworkProbe()
	err = p.Check(context.Background(), addr, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network unreachable")
}

func TestNetworkProbe_Timeout(t *testing.T) {
	p := &NetworkProbe{dial: func(ctx context.Context, _, _ string) (net.Conn, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}

	start := time.Now()
	err := p.Check(context.Background(), "192.0.2.1:80", 50*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
