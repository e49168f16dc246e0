// Package netcheck answers "is the network usable right now".
package netcheck

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// Modes accepted by FromMode.
const (
	ModeAuto    = "auto"
	ModeOnline  = "online"
	ModeOffline = "offline"
)

// Static reports a fixed connectivity state.
type Static bool

// Online returns the fixed state.
func (s Static) Online(context.Context) bool { return bool(s) }

// Probe reports online when a TCP connection to Addr succeeds within Timeout.
type Probe struct {
	Addr    string
	Timeout time.Duration
	dial    func(ctx context.Context, network, addr string) (net.Conn, error)
}

// NewProbe builds a probe against the host of rawURL.
func NewProbe(rawURL string, timeout time.Duration) (*Probe, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("netcheck: parse %q: %w", rawURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("netcheck: %q has no host", rawURL)
	}
	addr := u.Host
	if u.Port() == "" {
		port := "80"
		if u.Scheme == "https" {
			port = "443"
		}
		addr = net.JoinHostPort(u.Hostname(), port)
	}
	d := &net.Dialer{}
	return &Probe{Addr: addr, Timeout: timeout, dial: d.DialContext}, nil
}

// Online dials Addr once.
func (p *Probe) Online(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	conn, err := p.dial(ctx, "tcp", p.Addr)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// Checker is satisfied by Static and *Probe.
type Checker interface {
	Online(ctx context.Context) bool
}

// FromMode maps a configured mode to a Checker. "auto" probes rawURL.
func FromMode(mode, rawURL string, timeout time.Duration) (Checker, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ModeOnline:
		return Static(true), nil
	case ModeOffline:
		return Static(false), nil
	case "", ModeAuto:
		return NewProbe(rawURL, timeout)
	default:
		return nil, fmt.Errorf("netcheck: unknown mode %q", mode)
	}
}
