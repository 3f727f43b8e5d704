// Package clockhealth implements the optional clock-skew diagnostic
// (§4.K): a periodic NTP query surfaced through the HTTP Surface's
// /health response, because the stale-threshold invariant is a wall-clock
// comparison that a skewed system clock silently defeats.
package clockhealth

import (
	"context"
	"sync"
	"time"

	"github.com/beevik/ntp"

	"github.com/DNGriffin/clankercontext/internal/check"
	"github.com/DNGriffin/clankercontext/internal/fabric/clock"
	"github.com/DNGriffin/clankercontext/pkg/sdk/types"
)

const (
	defaultPool      = "pool.ntp.org"
	defaultInterval  = 60 * time.Second
	defaultThreshold = 500 * time.Millisecond
)

// Status is the clock-health snapshot at CheckedAt.
type Status struct {
	Offset    time.Duration
	Healthy   bool
	Error     string
	CheckedAt time.Time
}

// Checker periodically queries an NTP pool for the local clock's offset.
type Checker struct {
	mu        sync.RWMutex
	status    Status
	pool      string
	interval  time.Duration
	threshold time.Duration
	clock     clock.Clock

	// CheckFunc overrides the real NTP query, for deterministic tests.
	CheckFunc func() Status
}

// New builds a Checker against the default NTP pool and interval.
func New(c clock.Clock) *Checker {
	check.Assert(c != nil, "clockhealth.New: clock must not be nil")
	return &Checker{
		pool:      defaultPool,
		interval:  defaultInterval,
		threshold: defaultThreshold,
		clock:     c,
	}
}

// Run performs an immediate check, then one every interval, until ctx is
// canceled.
func (c *Checker) Run(ctx context.Context) {
	c.check()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.check()
		}
	}
}

func (c *Checker) check() {
	if c.CheckFunc != nil {
		c.mu.Lock()
		c.status = c.CheckFunc()
		c.mu.Unlock()
		return
	}

	resp, err := ntp.Query(c.pool)
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.status = Status{Error: err.Error(), Healthy: false, CheckedAt: now}
		return
	}
	c.status = Status{
		Offset:    resp.ClockOffset,
		Healthy:   resp.ClockOffset.Abs() < c.threshold,
		CheckedAt: now,
	}
}

// Status returns the most recent snapshot.
func (c *Checker) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// HTTPField converts the current status into the wire shape the HTTP
// Surface embeds in /health, suitable as an httpapi.ClockHealthFunc.
func (c *Checker) HTTPField() *types.ClockHealth {
	s := c.Status()
	return &types.ClockHealth{
		OffsetMs: float64(s.Offset.Milliseconds()),
		Healthy:  s.Healthy,
		Error:    s.Error,
	}
}
