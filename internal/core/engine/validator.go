package engine

import (
	"github.com/navgrid/navgrid/internal/core/geometry"
	"github.com/navgrid/navgrid/internal/core/observability/log"
)

// updateAgents runs the per-agent state machine: waypoint tracking,
// arrival, periodic path validation, recalculation and stuck detection.
// Movement itself is the host's job; the engine only observes positions.
func (e *Engine) updateAgents(dt float64) {
	e.agents.each(func(h Handle, st *agentState) bool {
		ah := AgentHandle{h}
		pos := st.src.Position()
		e.partition.UpdateAgent(ah.key(), pos, st.fullSize())

		switch st.phase {
		case phaseIdle:
			return true
		case phasePaused:
			e.tickPaused(ah, st, pos, dt)
			return true
		}

		e.advanceWaypoints(st, pos)
		if e.arrived(ah, st, pos) {
			return true
		}
		e.tickValidation(ah, st, pos, dt)
		e.tickStuck(ah, st, pos, dt)
		return true
	})
}

// advanceWaypoints consumes waypoints the agent has reached. The last
// waypoint is left for the arrival check.
func (e *Engine) advanceWaypoints(st *agentState, pos geometry.Point) {
	for st.pathIndex < len(st.path)-1 &&
		pos.Distance(st.path[st.pathIndex]) <= e.cfg.ArriveTolerance {
		st.pathIndex++
	}
}

func (e *Engine) arrived(ah AgentHandle, st *agentState, pos geometry.Point) bool {
	if !st.hasDestination || pos.Distance(st.destination) > e.cfg.ArriveTolerance {
		return false
	}
	st.clearPath()
	e.stats.Arrivals++
	e.raise(Signal{Agent: ah, Type: SignalDestinationReached})
	return true
}

// tickValidation re-checks the next few path segments on the validation
// interval, or immediately when an obstacle change flagged this agent.
// The interval tightens while any dynamic obstacle exists.
func (e *Engine) tickValidation(ah AgentHandle, st *agentState, pos geometry.Point, dt float64) {
	st.validateTimer += dt
	interval := e.cfg.ValidationInterval
	if e.anyDynamic {
		interval = e.cfg.DynamicValidationInterval
	}
	if !st.revalidate && st.validateTimer < interval {
		return
	}
	st.validateTimer = 0
	st.revalidate = false

	if e.lookaheadSafe(st, pos) {
		if st.phase == phaseInvalidated {
			st.phase = phaseMoving
		}
		return
	}

	if st.phase != phaseInvalidated {
		st.phase = phaseInvalidated
		e.stats.Invalidations++
		e.raise(Signal{Agent: ah, Type: SignalInvalidated})
	}
	e.recalc(ah, st, pos)
}

// lookaheadSafe checks the next ValidationLookahead segments of the path
// for circle safety. Segments beyond the window are trusted until the
// agent gets closer.
func (e *Engine) lookaheadSafe(st *agentState, pos geometry.Point) bool {
	if st.pathIndex >= len(st.path) {
		return true
	}
	prev := pos
	end := st.pathIndex + e.cfg.ValidationLookahead
	if end > len(st.path) {
		end = len(st.path)
	}
	for i := st.pathIndex; i < end; i++ {
		if !e.planner.SegmentSafe(prev, st.path[i], st.fullSize(), st.mask) {
			return false
		}
		prev = st.path[i]
	}
	return true
}

// recalc attempts a fresh path to the stored destination. On repeated
// failure the agent keeps following the still-safe prefix until the retry
// cap, then pauses and waits out the cooldown.
func (e *Engine) recalc(ah AgentHandle, st *agentState, pos geometry.Point) {
	pts := e.planner.FindPath(pos, st.destination, st.fullSize(), st.mask)
	if pts == nil {
		st.failedRecalcs++
		if st.failedRecalcs < e.cfg.MaxRecalcRetries {
			// Follow the safe prefix; the next validation pass retries.
			st.revalidate = true
			return
		}
		st.phase = phasePaused
		st.cooldown = e.cfg.RetryCooldown
		e.stats.Blocked++
		e.raise(Signal{Agent: ah, Type: SignalBlocked})
		e.log.Debug("agent paused after failed recalcs",
			log.Uint64("agent", ah.key()),
			log.Int("attempts", st.failedRecalcs),
		)
		return
	}

	dest := st.destination
	oldPrint := st.pathFingerprint
	st.setPath(Path(pts), dest)
	e.stats.Recalculations++
	if st.pathFingerprint == oldPrint {
		// Identical route; no point announcing it.
		return
	}
	e.raise(Signal{Agent: ah, Type: SignalRecalculated, Path: st.path})
}

// tickPaused waits out the retry cooldown, then retries with a reset
// failure counter.
func (e *Engine) tickPaused(ah AgentHandle, st *agentState, pos geometry.Point, dt float64) {
	st.cooldown -= dt
	if st.cooldown > 0 {
		return
	}
	st.failedRecalcs = 0
	st.phase = phaseInvalidated
	e.recalc(ah, st, pos)
}

// tickStuck watches for an agent that has a path but stopped making
// progress, typically wedged against a corner the smoothed path clips.
// The fix is a detour waypoint pushed away from the nearest blockage.
func (e *Engine) tickStuck(ah AgentHandle, st *agentState, pos geometry.Point, dt float64) {
	if st.phase != phaseMoving && st.phase != phaseInvalidated {
		return
	}
	if !st.stuckRefOK {
		st.stuckRef = pos
		st.stuckRefOK = true
		st.stuckTimer = 0
		return
	}
	st.stuckTimer += dt
	if st.stuckTimer < e.cfg.StuckCheckInterval {
		return
	}
	st.stuckTimer = 0

	moved := pos.Distance(st.stuckRef)
	st.stuckRef = pos
	if moved >= e.cfg.StuckEpsilon {
		if st.stuck {
			st.stuck = false
			e.raise(Signal{Agent: ah, Type: SignalUnstuck})
		}
		return
	}

	if !st.stuck {
		st.stuck = true
		e.stats.StuckEvents++
		e.raise(Signal{Agent: ah, Type: SignalStuck})
	}
	e.unwedge(ah, st, pos)
}

// unwedge inserts a reachable detour waypoint near the agent, or falls
// back to a full recalculation when no safe point exists nearby.
func (e *Engine) unwedge(ah AgentHandle, st *agentState, pos geometry.Point) {
	if st.pathIndex < len(st.path) {
		probe, ok := e.planner.FindSafeNear(pos, st.fullSize(), st.mask)
		if ok && probe.Distance(pos) > e.cfg.StuckEpsilon &&
			e.planner.SegmentSafe(probe, st.path[st.pathIndex], st.fullSize(), st.mask) {
			detour := make(Path, 0, len(st.path)-st.pathIndex+1)
			detour = append(detour, probe)
			detour = append(detour, st.path[st.pathIndex:]...)
			st.path = detour
			st.pathIndex = 0
			st.pathFingerprint = st.path.Fingerprint()
			return
		}
	}
	e.recalc(ah, st, pos)
}
