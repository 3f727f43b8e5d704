// Package httpapi implements the HTTP Surface (§4.E): the per-instance
// loopback endpoint that serves /health, /instances, and
// /instance/{id}/send under a strict origin policy.
package httpapi

import (
	"context"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/DNGriffin/clankercontext/internal/fabric/clock"
	"github.com/DNGriffin/clankercontext/internal/fabric/identity"
	"github.com/DNGriffin/clankercontext/pkg/sdk/defaults"
	"github.com/DNGriffin/clankercontext/pkg/sdk/types"
)

// Version is surfaced in /health. It is a build-time constant rather than
// anything derived from VCS state, matching the teacher's plain string
// version field.
const Version = "0.1.0"

// RegistrySnapshotter is the subset of registry.Store the HTTP Surface
// needs to serve /instances.
type RegistrySnapshotter interface {
	Snapshot() ([]types.InstanceRecord, error)
}

// SendFunc realizes the semantic effect of a send: the host process
// decides what "deliver this payload" means. Returning
// ErrDownstreamUnavailable maps to 503; any other non-nil error maps to
// 500; nil maps to 200.
type SendFunc func(ctx context.Context, content string) error

// ClockHealthFunc returns the current clock-health snapshot, or nil if
// clock-health diagnostics are not wired in. Called once per /health
// request.
type ClockHealthFunc func() *types.ClockHealth

// Server is one instance's HTTP Surface.
type Server struct {
	identity    identity.Identity
	registry    RegistrySnapshotter
	send        SendFunc
	clockHealth ClockHealthFunc
	clock       clock.Clock
	tracer      trace.Tracer

	startedAt time.Time
	state     stateBox
	paused    atomic.Bool

	httpServer *http.Server
}

// Option configures a Server at construction time.
type Option func(*Server)

// WithClockHealth wires an optional clock-health diagnostic into /health.
func WithClockHealth(f ClockHealthFunc) Option {
	return func(s *Server) { s.clockHealth = f }
}

// WithClock overrides the clock used to compute uptime, for deterministic
// tests.
func WithClock(c clock.Clock) Option {
	return func(s *Server) { s.clock = c }
}

// WithTracer overrides the tracer used for modify/send spans. Defaults to
// the global no-op tracer provider's tracer, so tracing is ambient and
// opt-in: a host must install a real TracerProvider for spans to export
// anywhere.
func WithTracer(t trace.Tracer) Option {
	return func(s *Server) { s.tracer = t }
}

// New builds a Server for id, serving registry snapshots from reg and
// delegating send payloads to send.
func New(id identity.Identity, reg RegistrySnapshotter, send SendFunc, opts ...Option) *Server {
	s := &Server{
		identity: id,
		registry: reg,
		send:     send,
		clock:    clock.Real{},
		tracer:   otel.Tracer("clankercontext/fabric/httpapi"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state.set(Starting)
	s.httpServer = &http.Server{Handler: s.routes()}
	return s
}

// Pause suspends only the downstream callback: the surface stays
// Listening and discoverable, but send requests return 503 until Resume
// (§4.G pause/resume).
func (s *Server) Pause() { s.paused.Store(true) }

// Resume re-enables the downstream callback.
func (s *Server) Resume() { s.paused.Store(false) }

// State reports the current lifecycle state.
func (s *Server) State() State { return s.state.get() }

// Serve transitions to Listening and blocks serving ln until the server
// is shut down. Listening is loopback-only by construction: ln must come
// from portbind.Bind, which never binds any other interface.
func (s *Server) Serve(ln net.Listener) error {
	s.startedAt = s.clock.Now()
	s.state.set(Listening)
	err := s.httpServer.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown transitions to Draining, waits for in-flight requests to
// finish or ctx to expire, then Stopped.
func (s *Server) Shutdown(ctx context.Context) error {
	s.state.set(Draining)
	err := s.httpServer.Shutdown(ctx)
	s.state.set(Stopped)
	return err
}

func (s *Server) uptime() float64 {
	if s.startedAt.IsZero() {
		return 0
	}
	return s.clock.Now().Sub(s.startedAt).Seconds()
}

// UptimeSeconds exposes the same uptime computation /health uses, for
// hosts that want it without parsing the HTTP response (e.g. Lifecycle's
// Status()).
func (s *Server) UptimeSeconds() float64 { return s.uptime() }

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.withCORS(s.handleHealth))
	mux.HandleFunc("/instances", s.withCORS(s.handleInstances))
	mux.HandleFunc("/instance/", s.withCORS(s.handleSend))
	return http.MaxBytesHandler(mux, defaults.MaxSendBodyBytes)
}
