// Package lifecycle coordinates the Lifecycle component (§4.G): the
// startup and shutdown sequencing that ties Port Binder, HTTP Surface,
// Registry Store, and Heartbeat Loop together for one instance, plus the
// pause/resume control the embedding host may invoke.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/DNGriffin/clankercontext/internal/fabric/clock"
	"github.com/DNGriffin/clankercontext/internal/fabric/heartbeat"
	"github.com/DNGriffin/clankercontext/internal/fabric/httpapi"
	"github.com/DNGriffin/clankercontext/internal/fabric/identity"
	"github.com/DNGriffin/clankercontext/internal/fabric/portbind"
	"github.com/DNGriffin/clankercontext/internal/fabric/registry"
	"github.com/DNGriffin/clankercontext/pkg/sdk/types"
)

// shutdownGrace bounds how long Stop waits for in-flight HTTP requests to
// drain before forcing the listener closed.
const shutdownGrace = 5 * time.Second

// Config describes one instance to bring up.
type Config struct {
	Name          string
	WorkspacePath string
	PreferredPort int
	RegistryDir   string
	Send          httpapi.SendFunc
	ClockHealth   httpapi.ClockHealthFunc
	Clock         clock.Clock
}

// Instance is one fully started fabric instance: Identity, Registry
// Store, HTTP Surface, and the Heartbeat Loop, joined by a single
// cancellation so that stopping any one of them brings the rest down in
// order.
type Instance struct {
	identity identity.Identity
	store    *registry.Store
	server   *httpapi.Server
	loop     *heartbeat.Loop
	listener net.Listener

	cancel context.CancelFunc
	group  *errgroup.Group
}

// Start runs the startup sequence of §4.G: build identity, bind a port,
// transition the HTTP Surface to Listening, insert the registry record,
// start the heartbeat loop. It returns once the instance is fully up; the
// HTTP-serve and heartbeat goroutines keep running until Stop is called
// or ctx is canceled.
func Start(ctx context.Context, cfg Config) (*Instance, error) {
	c := cfg.Clock
	if c == nil {
		c = clock.Real{}
	}

	id := identity.New(cfg.Name, cfg.WorkspacePath)

	ln, err := portbind.Bind(cfg.PreferredPort)
	if err != nil {
		return nil, fmt.Errorf("lifecycle: %w", err)
	}
	id = id.WithPort(ln.Addr().(*net.TCPAddr).Port)

	store, err := registry.New(cfg.RegistryDir, registry.WithClock(c))
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("lifecycle: open registry: %w", err)
	}

	server := httpapi.New(id, store, cfg.Send,
		httpapi.WithClock(c),
		httpapi.WithClockHealth(cfg.ClockHealth),
	)

	now := c.Now().UnixMilli()
	if err := store.Modify(func(records []types.InstanceRecord) []types.InstanceRecord {
		return append(records, id.Record(now))
	}); err != nil {
		ln.Close()
		return nil, fmt.Errorf("lifecycle: register instance: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	g, runCtx := errgroup.WithContext(runCtx)

	loop := heartbeat.New(store, id, c, 0)
	g.Go(func() error {
		loop.Run(runCtx)
		return nil
	})
	g.Go(func() error {
		if err := server.Serve(ln); err != nil {
			slog.Error("http surface exited", "component", "lifecycle", "err", err)
			return err
		}
		return nil
	})

	inst := &Instance{
		identity: id,
		store:    store,
		server:   server,
		loop:     loop,
		listener: ln,
		cancel:   cancel,
		group:    g,
	}
	slog.Info("instance started", "component", "lifecycle", "id", id.ID, "port", id.Port)
	return inst, nil
}

// Stop runs the shutdown sequence of §4.G: cancel the heartbeat loop,
// remove the registry record (best-effort — failures are logged, never
// propagated, because the stale threshold is the safety net of last
// resort), then drain and stop the HTTP Surface.
func (i *Instance) Stop(ctx context.Context) error {
	i.cancel()

	if err := i.store.Modify(func(records []types.InstanceRecord) []types.InstanceRecord {
		out := records[:0]
		for _, r := range records {
			if r.ID != i.identity.ID {
				out = append(out, r)
			}
		}
		return out
	}); err != nil {
		slog.Warn("failed to unregister instance on shutdown", "component", "lifecycle", "id", i.identity.ID, "err", err)
	}

	drainCtx, drainCancel := context.WithTimeout(ctx, shutdownGrace)
	defer drainCancel()
	if err := i.server.Shutdown(drainCtx); err != nil {
		slog.Warn("http surface shutdown error", "component", "lifecycle", "err", err)
	}

	return i.group.Wait()
}

// Pause suspends only the downstream callback the HTTP Surface invokes on
// send; the instance stays registered and discoverable (§4.G pause/resume).
func (i *Instance) Pause() { i.server.Pause() }

// Resume re-enables the downstream callback.
func (i *Instance) Resume() { i.server.Resume() }

// Status reports the embedding-surface snapshot described in §6.
func (i *Instance) Status() types.Status {
	return types.Status{
		Listening:     i.server.State() == httpapi.Listening,
		Port:          i.identity.Port,
		PID:           i.identity.PID,
		InstanceID:    i.identity.ID,
		UptimeSeconds: i.server.UptimeSeconds(),
	}
}

// Identity returns the instance's identity, for callers that need the id
// or bound port directly.
func (i *Instance) Identity() identity.Identity { return i.identity }
