package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/navgrid/navgrid/internal/core/geometry"
	"github.com/navgrid/navgrid/internal/core/observability/log"
)

// pathRequest is one queued search. Requests are served FIFO; an agent's
// newest request id is recorded on the agent, so a superseded result is
// recognized and dropped when it completes.
type pathRequest struct {
	id    uuid.UUID
	agent AgentHandle
	dest  geometry.Point
}

// processRequests drains the request queue under two caps: a fixed count
// per tick and a wall-clock budget. Whichever trips first ends the tick's
// search work; the rest of the queue waits for the next tick.
func (e *Engine) processRequests() {
	if e.requests.Len() == 0 {
		return
	}
	budget := time.Duration(e.cfg.TickBudgetMS * float64(time.Millisecond))
	deadline := time.Now().Add(budget)

	served := 0
	for served < e.cfg.MaxRequestsPerTick && e.requests.Len() > 0 {
		if served > 0 && time.Now().After(deadline) {
			e.stats.BudgetExhausted++
			break
		}
		req, _ := e.requests.Dequeue()
		served++
		e.serveRequest(req)
	}
	e.stats.QueueDepth = e.requests.Len()
}

func (e *Engine) serveRequest(req pathRequest) {
	st, ok := e.agents.get(req.agent.Handle)
	if !ok || st.pendingRequest != req.id {
		// Agent gone or a newer request superseded this one.
		e.stats.DroppedResults++
		return
	}
	st.pendingRequest = uuid.Nil

	pts := e.planner.FindPath(st.src.Position(), req.dest, st.fullSize(), st.mask)
	if pts == nil {
		e.stats.Blocked++
		// The request replaced whatever the agent was doing; a path the
		// validator no longer watches must not stay visible to the host.
		st.clearPath()
		e.raise(Signal{
			Agent:   req.agent,
			Type:    SignalBlocked,
			Request: req.id,
		})
		e.log.Debug("path request blocked",
			log.Uint64("agent", req.agent.key()),
		)
		return
	}

	st.setPath(Path(pts), req.dest)
	e.stats.PathsFound++
	e.raise(Signal{
		Agent:   req.agent,
		Type:    SignalPathFound,
		Path:    st.path,
		Request: req.id,
	})
}
