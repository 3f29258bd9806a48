package engine

import (
	"github.com/google/uuid"

	"github.com/navgrid/navgrid/internal/core/geometry"
)

// AgentSource is the host side of an agent: the engine pulls the current
// position and pushes signals; movement itself belongs to the host.
type AgentSource interface {
	Position() geometry.Point
	// Alive reports whether the host still exists; a dead agent is
	// treated as unregistered on the next pass.
	Alive() bool
}

// AgentOptions describes an agent's footprint and wiring at registration.
type AgentOptions struct {
	// Radius plus Buffer is the full size: the effective exclusion
	// radius used in every safety check.
	Radius float64
	Buffer float64
	// Mask selects which obstacle layers the agent respects.
	Mask uint32
	// Handler receives the agent's signals; may be nil when the host
	// prefers DrainEvents.
	Handler SignalHandler
}

type agentPhase uint8

const (
	phaseIdle agentPhase = iota
	phaseMoving
	phaseInvalidated
	phasePaused
)

type agentState struct {
	src     AgentSource
	radius  float64
	buffer  float64
	mask    uint32
	handler SignalHandler

	path            Path
	pathIndex       int
	pathFingerprint uint64
	destination     geometry.Point
	hasDestination  bool

	phase          agentPhase
	failedRecalcs  int
	cooldown       float64
	validateTimer  float64
	revalidate     bool
	pendingRequest uuid.UUID

	stuckTimer float64
	stuckRef   geometry.Point
	stuckRefOK bool
	stuck      bool
}

func (st *agentState) fullSize() float64 { return st.radius + st.buffer }

func (st *agentState) clearPath() {
	st.path = nil
	st.pathIndex = 0
	st.pathFingerprint = 0
	st.hasDestination = false
	st.phase = phaseIdle
	st.failedRecalcs = 0
	st.cooldown = 0
	st.revalidate = false
	st.stuck = false
	st.stuckRefOK = false
}

func (st *agentState) setPath(p Path, dest geometry.Point) {
	st.path = p
	st.pathIndex = 1 // path[0] is the current position
	if len(p) < 2 {
		st.pathIndex = 0
	}
	st.pathFingerprint = p.Fingerprint()
	st.destination = dest
	st.hasDestination = true
	st.phase = phaseMoving
	st.failedRecalcs = 0
	st.cooldown = 0
	st.revalidate = false
}

// remainingIntersects reports whether any part of the path still ahead of
// the agent crosses r.
func (st *agentState) remainingIntersects(pos geometry.Point, r geometry.Rect) bool {
	if len(st.path) == 0 || st.pathIndex >= len(st.path) {
		return false
	}
	prev := pos
	for i := st.pathIndex; i < len(st.path); i++ {
		if r.IntersectsSegment(prev, st.path[i]) {
			return true
		}
		prev = st.path[i]
	}
	return false
}
