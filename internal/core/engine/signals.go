package engine

import "github.com/google/uuid"

// SignalType enumerates the lifecycle notifications an agent host can
// receive. Delivery is asynchronous: signals raised during a tick are
// queued and flushed at the end of that tick, so handlers never observe
// the engine mid-mutation.
type SignalType uint8

const (
	SignalPathFound SignalType = iota
	SignalBlocked
	SignalDestinationReached
	SignalInvalidated
	SignalRecalculated
	SignalStuck
	SignalUnstuck
)

func (s SignalType) String() string {
	switch s {
	case SignalPathFound:
		return "path_found"
	case SignalBlocked:
		return "blocked"
	case SignalDestinationReached:
		return "destination_reached"
	case SignalInvalidated:
		return "invalidated"
	case SignalRecalculated:
		return "recalculated"
	case SignalStuck:
		return "stuck"
	case SignalUnstuck:
		return "unstuck"
	default:
		return "unknown"
	}
}

// Signal is one queued notification.
type Signal struct {
	Agent   AgentHandle
	Type    SignalType
	Path    Path      // set for path_found and recalculated
	Request uuid.UUID // set for path_found and blocked resolved from a request
}

// SignalHandler receives an agent's signals at the end of each tick.
// Handlers run on the ticking goroutine and must not call back into the
// engine's mutating methods.
type SignalHandler func(Signal)

// maxQueuedEvents bounds the pull-based event queue when no one drains it.
const maxQueuedEvents = 1024

func (e *Engine) raise(s Signal) {
	e.pending = append(e.pending, s)
}

// flushSignals delivers queued signals to per-agent handlers and the
// drainable event queue. Called at a single defined point in Tick.
func (e *Engine) flushSignals() {
	for _, s := range e.pending {
		if st, ok := e.agents.get(s.Agent.Handle); ok && st.handler != nil {
			st.handler(s)
		}
		e.events = append(e.events, s)
	}
	e.pending = e.pending[:0]

	if over := len(e.events) - maxQueuedEvents; over > 0 {
		e.events = e.events[over:]
		e.stats.EventsDropped += uint64(over)
	}
}

// DrainEvents returns all signals flushed since the previous drain. The
// queue is bounded; the oldest entries are discarded on overflow.
func (e *Engine) DrainEvents() []Signal {
	if len(e.events) == 0 {
		return nil
	}
	out := make([]Signal, len(e.events))
	copy(out, e.events)
	e.events = e.events[:0]
	return out
}
