// Package netcheck holds the startup connection sequence: wait for a usable
// link with bounded attempts, then probe a well known host.
package netcheck

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/charmbracelet/log"

	"sensoralert/device"
)

var ErrLinkDown = errors.New("network link down")

const (
	DefaultAttempts   = 3
	DefaultRetryDelay = 5 * time.Second
	DefaultProbeWait  = 3 * time.Second
)

type Options struct {
	Interface  string
	Attempts   int
	RetryDelay time.Duration
	// Check reports whether the link is usable; LinkUp when nil.
	Check func(iface string) error
	// Fault is told when the link fault indication should change.
	Fault func(on bool)
}

// LinkUp succeeds when iface (or the primary interface) is up and has an
// IPv4 address.
func LinkUp(iface string) error {
	ifc, err := device.PrimaryInterface(iface)
	if err != nil {
		return err
	}
	if ifc.Flags&net.FlagUp == 0 {
		return fmt.Errorf("%s is down", ifc.Name)
	}
	if _, err := device.IPv4(ifc); err != nil {
		return fmt.Errorf("%s has no IPv4 address", ifc.Name)
	}
	return nil
}

// WaitLink checks the link up to Attempts times, RetryDelay apart. It
// returns ErrLinkDown when every attempt failed; the caller restarts.
func WaitLink(ctx context.Context, opts Options) error {
	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	check := opts.Check
	if check == nil {
		check = LinkUp
	}
	fault := opts.Fault
	if fault == nil {
		fault = func(bool) {}
	}

	for attempt := 1; ; attempt++ {
		err := check(opts.Interface)
		if err == nil {
			fault(false)
			log.Info("network link up", "attempt", attempt)
			return nil
		}
		log.Warnf("network not ready (attempt %d/%d): %v", attempt, attempts, err)
		if attempt == 1 {
			fault(true)
		}
		if attempt >= attempts {
			return fmt.Errorf("%w after %d attempts: %v", ErrLinkDown, attempts, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(opts.RetryDelay):
		}
	}
}

// Probe dials host ("host:port") over TCP. Unprivileged processes cannot
// send ICMP, so a TCP connect stands in for ping.
func Probe(ctx context.Context, host string, timeout time.Duration) (time.Duration, error) {
	if timeout <= 0 {
		timeout = DefaultProbeWait
	}
	d := net.Dialer{Timeout: timeout}
	start := time.Now()
	conn, err := d.DialContext(ctx, "tcp", host)
	if err != nil {
		return 0, err
	}
	rtt := time.Since(start)
	_ = conn.Close()
	return rtt, nil
}
