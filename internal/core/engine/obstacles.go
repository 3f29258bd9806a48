package engine

import (
	"github.com/navgrid/navgrid/internal/core/observability/log"
)

// transition is a queued obstacle mutation. Hosts that toggle or reshape
// obstacles often do so in bursts; batching through the queue coalesces
// the grid refreshes instead of paying one per call.
type transition struct {
	obstacle ObstacleHandle
}

// NotifyObstacleChanged tells the engine an obstacle mutated (moved,
// rotated, reshaped or toggled) without waiting for the poll interval.
// The change is applied on the next transition flush.
func (e *Engine) NotifyObstacleChanged(oh ObstacleHandle) error {
	if _, ok := e.obstacles.get(oh.Handle); !ok {
		return ErrNotRegistered
	}
	e.transitions = append(e.transitions, transition{obstacle: oh})
	if len(e.transitions) >= e.cfg.TransitionQueueCap {
		e.flushTransitions(0, true)
	}
	return nil
}

// flushTransitions applies queued obstacle changes, either on the flush
// interval or immediately when forced by a full queue.
func (e *Engine) flushTransitions(dt float64, force bool) {
	e.transitionTimer += dt
	if !force {
		if len(e.transitions) == 0 {
			e.transitionTimer = 0
			return
		}
		if e.transitionTimer < e.cfg.TransitionFlushInterval {
			return
		}
	}
	e.transitionTimer = 0

	for _, tr := range e.transitions {
		st, ok := e.obstacles.get(tr.obstacle.Handle)
		if !ok {
			continue
		}
		// Sub-threshold nudges are not worth a refresh; class-specific
		// thresholds, same as the poll path.
		threshold := e.cfg.DynamicMoveThreshold
		if st.static {
			threshold = e.cfg.StaticMoveThreshold
		}
		if !st.drifted(threshold, e.cfg.RotationThreshold) && st.static == st.src.Static() {
			continue
		}
		e.applyObstacleChange(tr.obstacle, st)
	}
	e.transitions = e.transitions[:0]
}

// pollDynamic runs change detection over the dynamic obstacle set on the
// poll interval. Static obstacles are never polled; they change only
// through NotifyObstacleChanged.
func (e *Engine) pollDynamic(dt float64) {
	if !e.anyDynamic {
		return
	}
	e.pollTimer += dt
	if e.pollTimer < e.cfg.ObstaclePollInterval {
		return
	}
	e.pollTimer = 0

	for _, oh := range e.dynamic {
		st, ok := e.obstacles.get(oh.Handle)
		if !ok {
			continue
		}
		if st.drifted(e.cfg.DynamicMoveThreshold, e.cfg.RotationThreshold) {
			e.applyObstacleChange(oh, st)
		}
	}
}

// applyObstacleChange re-snapshots the obstacle, reindexes it and
// refreshes the lattice over the union of the old and new footprints, so
// both the vacated and the newly covered cells are corrected in one pass.
func (e *Engine) applyObstacleChange(oh ObstacleHandle, st *obstacleState) {
	oldBounds := st.bounds
	wasIndexed := st.indexed
	st.snapshot()

	// Static-dynamic class transitions move the obstacle between the
	// notify-only and polled sets.
	if newStatic := st.src.Static(); newStatic != st.static {
		st.static = newStatic
		if newStatic {
			e.dropDynamic(oh)
		} else {
			e.dynamic = append(e.dynamic, oh)
			e.anyDynamic = true
		}
	}

	blocks := st.worldPolygon.Valid() && !st.disabled
	switch {
	case blocks && wasIndexed:
		e.partition.UpdateObstacle(oh.key(), st.bounds, st.layer)
	case blocks && !wasIndexed:
		e.partition.InsertObstacle(oh.key(), st.bounds, st.layer)
	case !blocks && wasIndexed:
		e.partition.RemoveObstacle(oh.key())
	}
	st.indexed = blocks

	region := oldBounds.Union(st.bounds).Expand(e.clearanceMargin())
	e.refreshGrid(region)
	e.markAffectedAgents(region, st.layer)
	e.stats.ObstacleChanges++

	e.log.Debug("obstacle changed",
		log.Uint64("obstacle", oh.key()),
		log.Bool("blocks", blocks),
	)
}

// refreshLiveness sweeps the liveness cache on its staleness interval:
// between sweeps Alive() results are trusted as-cached, bounding both the
// per-frame cost and how long a dead obstacle can keep blocking.
func (e *Engine) refreshLiveness(dt float64) {
	e.cacheTimer += dt
	if e.cacheTimer < e.cfg.ObstacleCacheInterval {
		return
	}
	e.cacheTimer = 0

	var dead []ObstacleHandle
	e.obstacles.each(func(h Handle, st *obstacleState) bool {
		alive := st.src.Alive()
		if st.alive && !alive {
			dead = append(dead, ObstacleHandle{h})
		}
		st.alive = alive
		return true
	})
	for _, oh := range dead {
		if st, ok := e.obstacles.get(oh.Handle); ok {
			e.removeObstacle(oh, st)
		}
	}

	e.agents.each(func(h Handle, st *agentState) bool {
		if !st.src.Alive() {
			e.partition.RemoveAgent(AgentHandle{h}.key())
			e.agents.release(h)
		}
		return true
	})
}
