// Package heartbeat runs the periodic liveness refresh described in §4.C:
// as long as an instance is up, it rewrites its own lastHeartbeat in the
// Registry Store often enough to stay inside the stale threshold, and
// reinserts itself if another writer's stale sweep purged it in a race.
package heartbeat

import (
	"context"
	"log/slog"
	"time"

	"github.com/DNGriffin/clankercontext/internal/fabric/clock"
	"github.com/DNGriffin/clankercontext/internal/fabric/identity"
	"github.com/DNGriffin/clankercontext/pkg/sdk/defaults"
	"github.com/DNGriffin/clankercontext/pkg/sdk/types"
)

// maxConsecutiveFailuresBeforeWarn bounds how many silent retries a
// transient Modify failure (lock contention, a slow disk) gets before it
// is promoted to a warning log; the loop itself never stops retrying.
const maxConsecutiveFailuresBeforeWarn = 5

// Store is the subset of registry.Store the loop needs, so tests can
// substitute an in-memory fake instead of a real on-disk registry.
type Store interface {
	Modify(f func([]types.InstanceRecord) []types.InstanceRecord) error
}

// Loop owns one instance's recurring heartbeat writes.
type Loop struct {
	store    Store
	id       identity.Identity
	clock    clock.Clock
	interval time.Duration
}

// New builds a Loop for id against store, using defaults.HeartbeatInterval
// unless interval is overridden below zero meaning "use the default".
func New(store Store, id identity.Identity, c clock.Clock, interval time.Duration) *Loop {
	if c == nil {
		c = clock.Real{}
	}
	if interval <= 0 {
		interval = defaults.HeartbeatInterval
	}
	return &Loop{store: store, id: id, clock: c, interval: interval}
}

// Run bumps the heartbeat immediately, then on every tick, until ctx is
// canceled. It never returns an error: a bump failure is logged and
// retried on the next tick, because a single missed bump should not bring
// the instance down while it is otherwise healthy.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	var consecutiveFailures int
	l.bump(&consecutiveFailures)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.bump(&consecutiveFailures)
		}
	}
}

// bump rewrites this instance's lastHeartbeat, reinserting the record if a
// concurrent stale sweep removed it before this write landed.
func (l *Loop) bump(consecutiveFailures *int) {
	now := l.clock.Now().UnixMilli()
	err := l.store.Modify(func(records []types.InstanceRecord) []types.InstanceRecord {
		for i := range records {
			if records[i].ID == l.id.ID {
				records[i].LastHeartbeat = now
				records[i].Port = l.id.Port
				return records
			}
		}
		return append(records, l.id.Record(now))
	})

	if err != nil {
		*consecutiveFailures++
		if *consecutiveFailures == maxConsecutiveFailuresBeforeWarn {
			slog.Warn("heartbeat bump failing repeatedly", "instance", l.id.ID, "failures", *consecutiveFailures, "err", err)
		}
		return
	}
	*consecutiveFailures = 0
}
