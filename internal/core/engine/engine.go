package engine

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/navgrid/navgrid/internal/core/geometry"
	"github.com/navgrid/navgrid/internal/core/grid"
	"github.com/navgrid/navgrid/internal/core/observability/log"
	"github.com/navgrid/navgrid/internal/core/search"
	"github.com/navgrid/navgrid/internal/core/spatial"
	"github.com/navgrid/navgrid/pkg/sequence"
)

// Engine is the pathfinding engine. It exclusively owns the spatial
// partition, the clearance grid, the planner and all pools; obstacles and
// agents belong to their hosts and are reached through handles.
//
// The engine is single-threaded and tick-driven: all work happens inside
// Tick, invoked by the host loop. No method blocks.
type Engine struct {
	cfg Config
	log log.Log

	partition *spatial.Partition
	clearance *grid.Clearance
	planner   *search.Planner

	obstacles arena[obstacleState]
	agents    arena[agentState]

	dynamic         []ObstacleHandle
	transitions     []transition
	transitionTimer float64
	pollTimer       float64
	cacheTimer      float64
	anyDynamic      bool

	requests *sequence.Ring[pathRequest]
	pending  []Signal
	events   []Signal

	scratchIDs []uint64
	stats      Stats
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithLogger sets the engine's log sink. The default discards everything.
func WithLogger(l log.Log) Option {
	return func(e *Engine) { e.log = l }
}

// New builds an engine over the configured bounds polygon, including the
// full initial clearance-grid build.
func New(cfg Config, opts ...Option) (*Engine, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		log:      log.NewNop(),
		requests: sequence.NewRing[pathRequest](64),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.partition = spatial.NewPartition(
		cfg.SectorSize,
		cfg.QuadtreeMaxObjects,
		cfg.QuadtreeMaxDepth,
		cfg.GridSize*0.5,
	)
	e.clearance = grid.New(cfg.Bounds, cfg.GridSize)
	e.planner = search.NewPlanner(e, search.Config{
		GridSize:      cfg.GridSize,
		MaxIterations: cfg.SearchIterationCap,
		SafetyMargin:  cfg.SafetyMargin,
	})

	// Initial build scans the (usually still empty) obstacle arena
	// directly: the closure must be safe for the build's parallel row
	// bands, and the arena is read-only here.
	if err := e.clearance.Build(e.blockingLayersLinear); err != nil {
		return nil, fmt.Errorf("build clearance grid: %w", err)
	}

	e.log.Info("engine ready",
		log.Float64("grid_size", cfg.GridSize),
		log.Float64("sector_size", cfg.SectorSize),
		log.Int("lattice_points", e.clearance.Len()),
	)
	return e, nil
}

// Tick advances the engine by dt seconds of host time. Order inside one
// tick: obstacle transitions and change detection first, then the request
// queue, then agent validation, then signal delivery — so an agent never
// observes a half-applied obstacle update.
func (e *Engine) Tick(dt float64) {
	e.flushTransitions(dt, false)
	e.pollDynamic(dt)
	e.refreshLiveness(dt)
	e.processRequests()
	e.updateAgents(dt)
	e.flushSignals()
}

// ---- search.Field ----

// InBounds reports whether p lies inside the arena bounds polygon.
func (e *Engine) InBounds(p geometry.Point) bool {
	return e.clearance.InBounds(p)
}

// Blocked reports whether any enabled obstacle matching mask comes within
// radius of p. radius <= 0 degenerates to point containment.
func (e *Engine) Blocked(p geometry.Point, radius float64, mask uint32) bool {
	if radius < 0 {
		radius = 0
	}
	e.scratchIDs = e.partition.QueryCircle(p, radius, mask, e.scratchIDs[:0])
	for _, id := range e.scratchIDs {
		st, ok := e.obstacleByKey(id)
		if !ok || st.disabled || !st.alive || !st.worldPolygon.Valid() {
			continue
		}
		if radius == 0 {
			if geometry.PointInPolygon(p, st.worldPolygon) {
				return true
			}
			continue
		}
		if geometry.DistancePointToPolygonWithin(p, st.worldPolygon, radius) < radius {
			return true
		}
	}
	return false
}

// CoarseClear exposes the clearance grid to the planner.
func (e *Engine) CoarseClear(p geometry.Point, mask uint32) (clear, known bool) {
	return e.clearance.IsClear(p, mask)
}

// blockingLayers is the single-threaded lattice predicate used by
// incremental refreshes: the OR of layers of obstacles containing p.
func (e *Engine) blockingLayers(p geometry.Point) uint32 {
	var layers uint32
	e.scratchIDs = e.partition.QueryCircle(p, 0, ^uint32(0), e.scratchIDs[:0])
	for _, id := range e.scratchIDs {
		st, ok := e.obstacleByKey(id)
		if !ok || st.disabled || !st.alive || !st.worldPolygon.Valid() {
			continue
		}
		if geometry.PointInPolygon(p, st.worldPolygon) {
			layers |= st.layer
		}
	}
	return layers
}

// blockingLayersLinear is the concurrency-safe variant for the initial
// build: a plain scan, no partition scratch state.
func (e *Engine) blockingLayersLinear(p geometry.Point) uint32 {
	var layers uint32
	e.obstacles.each(func(_ Handle, st *obstacleState) bool {
		if st.disabled || !st.alive || !st.worldPolygon.Valid() {
			return true
		}
		if geometry.PointInPolygon(p, st.worldPolygon) {
			layers |= st.layer
		}
		return true
	})
	return layers
}

// ---- registration ----

// RegisterObstacle adds an obstacle to the engine. The handle stays valid
// until UnregisterObstacle or until the liveness cache notices the host
// died.
func (e *Engine) RegisterObstacle(src ObstacleSource) (ObstacleHandle, error) {
	if src == nil {
		return ObstacleHandle{}, ErrNilSource
	}
	h, st := e.obstacles.alloc()
	st.src = src
	st.static = src.Static()
	st.layer = src.Layer()
	st.alive = true
	st.snapshot()

	oh := ObstacleHandle{h}
	if !st.static {
		e.dynamic = append(e.dynamic, oh)
		e.anyDynamic = true
	}
	e.indexObstacle(oh, st)

	e.log.Debug("obstacle registered",
		log.Uint64("obstacle", oh.key()),
		log.Bool("static", st.static),
		log.Uint32("layer", st.layer),
	)
	return oh, nil
}

// UnregisterObstacle removes an obstacle, rebuilds the sectors it touched
// and refreshes the lattice region it occupied.
func (e *Engine) UnregisterObstacle(oh ObstacleHandle) error {
	st, ok := e.obstacles.get(oh.Handle)
	if !ok {
		return ErrNotRegistered
	}
	e.removeObstacle(oh, st)
	return nil
}

func (e *Engine) removeObstacle(oh ObstacleHandle, st *obstacleState) {
	region := st.bounds.Expand(e.clearanceMargin())
	layer := st.layer
	if st.indexed {
		e.partition.RemoveObstacle(oh.key())
	}
	e.dropDynamic(oh)
	e.obstacles.release(oh.Handle)

	e.refreshGrid(region)
	e.markAffectedAgents(region, layer)
	e.log.Debug("obstacle removed", log.Uint64("obstacle", oh.key()))
}

func (e *Engine) indexObstacle(oh ObstacleHandle, st *obstacleState) {
	if st.worldPolygon.Valid() && !st.disabled {
		e.partition.InsertObstacle(oh.key(), st.bounds, st.layer)
		st.indexed = true
	} else {
		st.indexed = false
	}
	region := st.bounds.Expand(e.clearanceMargin())
	e.refreshGrid(region)
	e.markAffectedAgents(region, st.layer)
}

// RegisterAgent adds an agent. A zero Mask means "respect every layer".
func (e *Engine) RegisterAgent(src AgentSource, opts AgentOptions) (AgentHandle, error) {
	if src == nil {
		return AgentHandle{}, ErrNilSource
	}
	if opts.Mask == 0 {
		opts.Mask = ^uint32(0)
	}
	h, st := e.agents.alloc()
	st.src = src
	st.radius = opts.Radius
	st.buffer = opts.Buffer
	st.mask = opts.Mask
	st.handler = opts.Handler
	st.phase = phaseIdle

	ah := AgentHandle{h}
	e.partition.UpdateAgent(ah.key(), src.Position(), st.fullSize())
	e.log.Debug("agent registered",
		log.Uint64("agent", ah.key()),
		log.Float64("full_size", st.fullSize()),
	)
	return ah, nil
}

// UnregisterAgent removes an agent; a still-pending request result is
// silently dropped when it completes.
func (e *Engine) UnregisterAgent(ah AgentHandle) error {
	if _, ok := e.agents.get(ah.Handle); !ok {
		return ErrNotRegistered
	}
	e.partition.RemoveAgent(ah.key())
	e.agents.release(ah.Handle)
	return nil
}

// ---- agent API ----

// RequestPath queues a pathfinding request toward dest. The result arrives
// asynchronously as a path_found or blocked signal carrying the returned
// request id. A newer request supersedes an older in-flight one.
func (e *Engine) RequestPath(ah AgentHandle, dest geometry.Point) (uuid.UUID, error) {
	st, ok := e.agents.get(ah.Handle)
	if !ok {
		return uuid.Nil, ErrNotRegistered
	}
	id := uuid.New()
	st.pendingRequest = id
	e.requests.Enqueue(pathRequest{id: id, agent: ah, dest: dest})
	e.stats.Requests++
	return id, nil
}

/// StopAgent halts the agent: its path is discarded and any in-flight
// request result will be dropped, not delivered.
func (e *Engine) StopAgent(ah AgentHandle) error {
	st, ok := e.agents.get(ah.Handle)
	if !ok {
		return ErrNotRegistered
	}
	st.clearPath()
	st.pendingRequest = uuid.Nil
	return nil
}

// AgentPath returns the agent's current path, if any.
func (e *Engine) AgentPath(ah AgentHandle) (Path, bool) {
	st, ok := e.agents.get(ah.Handle)
	if !ok || len(st.path) == 0 {
		return nil, false
	}
	return st.path, true
}

// AgentsNear returns the agents whose tracked footprint overlaps the
// circle around p. Useful for host-side crowd logic; positions are as of
// the last tick.
func (e *Engine) AgentsNear(p geometry.Point, radius float64) []AgentHandle {
	r := geometry.Rect{Min: p, Max: p}.Expand(radius)
	e.scratchIDs = e.partition.AgentsInRect(r, e.scratchIDs[:0])
	out := make([]AgentHandle, 0, len(e.scratchIDs))
	for _, id := range e.scratchIDs {
		h := Handle{index: uint32(id >> 32), generation: uint32(id)}
		if _, ok := e.agents.get(h); ok {
			out = append(out, AgentHandle{h})
		}
	}
	return out
}

// AgentMoving reports whether the agent currently follows a path.
func (e *Engine) AgentMoving(ah AgentHandle) bool {
	st, ok := e.agents.get(ah.Handle)
	return ok && (st.phase == phaseMoving || st.phase == phaseInvalidated)
}

// ---- shared helpers ----

func (e *Engine) obstacleByKey(key uint64) (*obstacleState, bool) {
	h := Handle{index: uint32(key >> 32), generation: uint32(key)}
	return e.obstacles.get(h)
}

func (e *Engine) clearanceMargin() float64 {
	return e.cfg.ClearanceMultiplier * e.cfg.GridSize
}

func (e *Engine) refreshGrid(region geometry.Rect) {
	e.clearance.RefreshRect(region, e.blockingLayers)
	e.stats.GridRefreshes++
}

// markAffectedAgents flags for revalidation exactly the agents whose
// remaining path crosses region and whose mask matches layer. Never a
// global revalidate broadcast.
func (e *Engine) markAffectedAgents(region geometry.Rect, layer uint32) {
	e.agents.each(func(_ Handle, st *agentState) bool {
		if st.phase != phaseMoving && st.phase != phaseInvalidated {
			return true
		}
		if st.mask&layer == 0 {
			return true
		}
		if st.remainingIntersects(st.src.Position(), region) {
			st.revalidate = true
		}
		return true
	})
}

func (e *Engine) dropDynamic(oh ObstacleHandle) {
	for i, d := range e.dynamic {
		if d == oh {
			e.dynamic[i] = e.dynamic[len(e.dynamic)-1]
			e.dynamic = e.dynamic[:len(e.dynamic)-1]
			break
		}
	}
	e.anyDynamic = len(e.dynamic) > 0
}
