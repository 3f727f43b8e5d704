package httpapi

import "sync/atomic"

// State is one value in the HTTP Surface's Starting → Listening →
// Draining → Stopped state machine (§4.E).
type State int32

const (
	Starting State = iota
	Listening
	Draining
	Stopped
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Listening:
		return "listening"
	case Draining:
		return "draining"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

type stateBox struct {
	v atomic.Int32
}

func (b *stateBox) set(s State) { b.v.Store(int32(s)) }
func (b *stateBox) get() State  { return State(b.v.Load()) }
