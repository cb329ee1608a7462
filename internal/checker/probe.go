package checker

import (
	"context"
	"net"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

const DefaultProbeTimeout = 3 * time.Second

// Prober answers whether host:port accepts TCP connections.
type Prober interface {
	Reachable(ctx context.Context, host string, port int) bool
}

// TCPProber performs a bare TCP connect. No payload is exchanged and a
// failed connect is not retried.
//
// Dials go through proxy.FromEnvironmentUsing, so ALL_PROXY / NO_PROXY are
// honored; without them the dial is direct.
type TCPProber struct {
	Timeout time.Duration
	dialer  proxy.Dialer
}

func NewTCPProber(timeout time.Duration) *TCPProber {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &TCPProber{
		Timeout: timeout,
		dialer:  proxy.FromEnvironmentUsing(&net.Dialer{Timeout: timeout}),
	}
}

func (p *TCPProber) Reachable(ctx context.Context, host string, port int) bool {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	conn, err := p.dial(ctx, net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func (p *TCPProber) dial(ctx context.Context, addr string) (net.Conn, error) {
	if cd, ok := p.dialer.(proxy.ContextDialer); ok {
		return cd.DialContext(ctx, "tcp", addr)
	}

	// plain proxy.Dialer has no context; race the dial against ctx
	type result struct {
		conn net.Conn
		err  error
	}
	done := make(chan result, 1)
	go func() {
		c, err := p.dialer.Dial("tcp", addr)
		done <- result{c, err}
	}()

	select {
	case <-ctx.Done():
		go func() {
			if r := <-done; r.conn != nil {
				_ = r.conn.Close()
			}
		}()
		return nil, ctx.Err()
	case r := <-done:
		return r.conn, r.err
	}
}
