// Package portbind implements the Port Binder (§4.D): claim one
// loopback-only TCP port out of the reserved range, trying a preferred
// port first and then walking the range until one is free.
package portbind

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"syscall"

	"github.com/DNGriffin/clankercontext/pkg/sdk/defaults"
)

// ErrPortRangeExhausted is returned when every port in the reserved range
// is already bound by something else.
var ErrPortRangeExhausted = errors.New("portbind: no free port in reserved range")

// Bind listens on 127.0.0.1, trying preferred first (if it falls inside
// the reserved range) and then every port in
// [defaults.PortRangeBase, defaults.PortRangeBase+defaults.PortRangeSize).
// It never binds any address but loopback: the fabric is never reachable
// off-host (§9 Non-goals).
func Bind(preferred int) (net.Listener, error) {
	tried := make(map[int]bool)

	if preferred >= defaults.PortRangeBase && preferred < defaults.PortRangeBase+defaults.PortRangeSize {
		if ln, err := tryBind(preferred); err == nil {
			return ln, nil
		}
		tried[preferred] = true
	}

	for p := defaults.PortRangeBase; p < defaults.PortRangeBase+defaults.PortRangeSize; p++ {
		if tried[p] {
			continue
		}
		ln, err := tryBind(p)
		if err == nil {
			return ln, nil
		}
		if !isAddrInUse(err) {
			return nil, fmt.Errorf("portbind: bind 127.0.0.1:%d: %w", p, err)
		}
	}

	return nil, ErrPortRangeExhausted
}

func tryBind(port int) (net.Listener, error) {
	return net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
}

// isAddrInUse reports whether err represents the port already being bound,
// as opposed to some other, non-retriable failure (permission denied,
// invalid address, ...).
func isAddrInUse(err error) bool {
	return errors.Is(err, syscall.EADDRINUSE)
}
