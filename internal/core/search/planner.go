package search

import (
	"math"

	"github.com/navgrid/navgrid/internal/core/geometry"
	"github.com/navgrid/navgrid/pkg/generic"
	"github.com/navgrid/navgrid/pkg/sequence"
)

// Field provides the world queries the planner needs. The engine implements
// it on top of the spatial partition and the clearance grid.
type Field interface {
	// InBounds reports whether p lies inside the arena bounds polygon.
	InBounds(p geometry.Point) bool
	// Blocked reports whether any obstacle matching mask lies within
	// radius of p. This is the exact geometric check.
	Blocked(p geometry.Point, radius float64, mask uint32) bool
	// CoarseClear reports the clearance-grid state of the lattice point
	// nearest p for an agent respecting mask; known is false outside the
	// lattice.
	CoarseClear(p geometry.Point, mask uint32) (clear, known bool)
}

// Config tunes the planner. Zero values are replaced by defaults.
type Config struct {
	GridSize          float64
	MaxIterations     int
	SafetyMargin      float64
	MinSegmentSamples int
}

func (c Config) withDefaults() Config {
	if c.GridSize <= 0 {
		c.GridSize = 16
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = 4000
	}
	if c.MinSegmentSamples <= 0 {
		c.MinSegmentSamples = 4
	}
	return c
}

// node is the pooled per-search record. Never escapes a FindPath call.
type node struct {
	pos    geometry.Point
	g      float64
	h      float64
	f      float64
	parent *node
	item   *sequence.PriorityItem[*node]
}

// Planner runs A* over positions generated on the fly (no precomputed
// graph). All transient state lives on the planner and is reset at the
// start and returned to the pools at the end of every search; a Planner is
// single-owner, like everything else the engine holds.
type Planner struct {
	field Field
	cfg   Config

	open       *sequence.PriorityQueue[*node]
	openByCell map[uint64]*node
	closed     map[uint64]struct{}
	nodes      *generic.FreeList[node]
	taken      []*node

	searches   uint64
	directHits uint64
}

func NewPlanner(field Field, cfg Config) *Planner {
	cfg = cfg.withDefaults()
	return &Planner{
		field:      field,
		cfg:        cfg,
		open:       sequence.NewPriorityQueue[*node](),
		openByCell: make(map[uint64]*node, 256),
		closed:     make(map[uint64]struct{}, 256),
		nodes:      generic.NewFreeList[node](256),
		taken:      make([]*node, 0, 256),
	}
}

// Outstanding exposes the node pool balance for tests.
func (pl *Planner) Outstanding() int { return pl.nodes.Outstanding() }

// Searches returns how many FindPath calls have run.
func (pl *Planner) Searches() uint64 { return pl.searches }

// DirectHits returns how many searches resolved via the straight-segment
// shortcut without expanding a single node.
func (pl *Planner) DirectHits() uint64 { return pl.directHits }

// FindPath searches from start to goal for a circular agent of the given
// full size (radius+buffer) respecting mask. An empty result means no path
// was found within the configured limits; that is a normal outcome.
func (pl *Planner) FindPath(start, goal geometry.Point, fullSize float64, mask uint32) []geometry.Point {
	defer pl.reset()
	pl.searches++

	// Unsafe endpoints are snapped to the nearest safe position first.
	if pl.PositionUnsafe(start, fullSize, mask) {
		snapped, ok := pl.FindSafeNear(start, fullSize, mask)
		if !ok {
			return nil
		}
		start = snapped
	}
	if pl.PositionUnsafe(goal, fullSize, mask) {
		snapped, ok := pl.FindSafeNear(goal, fullSize, mask)
		if !ok {
			return nil
		}
		goal = snapped
	}

	// Common case: nothing between here and there.
	if pl.SegmentSafe(start, goal, fullSize, mask) {
		pl.directHits++
		return []geometry.Point{start, goal}
	}

	step := pl.stepFor(fullSize)
	goalTol := pl.goalTolerance(step, fullSize)
	offsets := neighborOffsets(step, fullSize > step)

	startNode := pl.takeNode(start, 0, start.Distance(goal), nil)
	startNode.item = pl.open.Enqueue(startNode, startNode.f)
	pl.openByCell[pl.cellKey(start, step)] = startNode

	var goalNode *node
	iterations := 0

	for !pl.open.IsEmpty() {
		iterations++
		if iterations > pl.cfg.MaxIterations {
			break
		}

		current, _ := pl.open.Dequeue()
		key := pl.cellKey(current.pos, step)
		delete(pl.openByCell, key)
		if _, done := pl.closed[key]; done {
			continue
		}
		pl.closed[key] = struct{}{}

		if current.pos.Distance(goal) <= goalTol {
			goalNode = current
			break
		}

		pl.expand(current, goal, offsets, step, fullSize, mask)
	}

	if goalNode == nil {
		return nil
	}

	path := pl.reconstruct(goalNode, goal, fullSize, mask)
	return pl.Smooth(path, fullSize, mask)
}

func (pl *Planner) expand(current *node, goal geometry.Point, offsets []geometry.Point, step, fullSize float64, mask uint32) {
	for _, off := range offsets {
		next := current.pos.Add(off)

		key := pl.cellKey(next, step)
		if _, done := pl.closed[key]; done {
			continue
		}
		if pl.PositionUnsafe(next, fullSize, mask) {
			continue
		}
		if !pl.SegmentSafe(current.pos, next, fullSize, mask) {
			continue
		}

		tentativeG := current.g + current.pos.Distance(next)
		if existing, ok := pl.openByCell[key]; ok {
			if tentativeG >= existing.g {
				continue
			}
			existing.g = tentativeG
			existing.f = tentativeG + existing.h
			existing.parent = current
			pl.open.Update(existing.item, existing, existing.f)
			continue
		}

		n := pl.takeNode(next, tentativeG, next.Distance(goal), current)
		n.item = pl.open.Enqueue(n, n.f)
		pl.openByCell[key] = n
	}
}

func (pl *Planner) reconstruct(goalNode *node, goal geometry.Point, fullSize float64, mask uint32) []geometry.Point {
	count := 0
	for n := goalNode; n != nil; n = n.parent {
		count++
	}
	path := make([]geometry.Point, count)
	for n := goalNode; n != nil; n = n.parent {
		count--
		path[count] = n.pos
	}
	// Close the gap between the tolerance hit and the exact goal.
	last := path[len(path)-1]
	if last != goal && pl.SegmentSafe(last, goal, fullSize, mask) {
		path = append(path, goal)
	}
	return path
}

// stepFor adapts the neighbor step: agents large relative to the lattice
// use a reduced step so narrow gaps stay routable.
func (pl *Planner) stepFor(fullSize float64) float64 {
	if fullSize > pl.cfg.GridSize*0.5 {
		return pl.cfg.GridSize * 0.5
	}
	return pl.cfg.GridSize
}

func (pl *Planner) goalTolerance(step, fullSize float64) float64 {
	return math.Max(step, fullSize*0.5)
}

// cellKey quantizes a position at half-step resolution so nearby float
// positions collapse into one search node. Exact float equality is unsafe
// here; positions are generated, not indexed.
func (pl *Planner) cellKey(p geometry.Point, step float64) uint64 {
	q := step * 0.5
	ix := int32(math.Round(p.X / q))
	iy := int32(math.Round(p.Y / q))
	return uint64(uint32(ix))<<32 | uint64(uint32(iy))
}

func (pl *Planner) takeNode(pos geometry.Point, g, h float64, parent *node) *node {
	n := pl.nodes.Get()
	n.pos = pos
	n.g = g
	n.h = h
	n.f = g + h
	n.parent = parent
	n.item = nil
	pl.taken = append(pl.taken, n)
	return n
}

func (pl *Planner) reset() {
	for _, n := range pl.taken {
		pl.nodes.Put(n)
	}
	pl.taken = pl.taken[:0]
	pl.open.Reset()
	clear(pl.openByCell)
	clear(pl.closed)
}

// PositionUnsafe is the circle-safety check with the coarse grid gate in
// front of the exact geometric test.
func (pl *Planner) PositionUnsafe(p geometry.Point, fullSize float64, mask uint32) bool {
	if !pl.field.InBounds(p) {
		return true
	}
	if clear, known := pl.field.CoarseClear(p, mask); known && !clear {
		return true
	}
	return pl.field.Blocked(p, fullSize-pl.cfg.SafetyMargin, mask)
}

// SegmentSafe samples the straight segment a-b at a resolution
// proportional to its length in grid units, with a minimum sample count.
func (pl *Planner) SegmentSafe(a, b geometry.Point, fullSize float64, mask uint32) bool {
	dist := a.Distance(b)
	samples := int(math.Ceil(dist/pl.cfg.GridSize)) * 2
	if samples < pl.cfg.MinSegmentSamples {
		samples = pl.cfg.MinSegmentSamples
	}
	for i := 0; i <= samples; i++ {
		t := float64(i) / float64(samples)
		if pl.PositionUnsafe(a.Lerp(b, t), fullSize, mask) {
			return false
		}
	}
	return true
}

// FindSafeNear searches for a safe position near p: the grid-snapped point
// first, then expanding rings at a π/8 angular step, out to a bound scaled
// from the grid size and agent size. ok is false when nothing safe exists
// within the bound.
func (pl *Planner) FindSafeNear(p geometry.Point, fullSize float64, mask uint32) (geometry.Point, bool) {
	snapped := geometry.Point{
		X: math.Round(p.X/pl.cfg.GridSize) * pl.cfg.GridSize,
		Y: math.Round(p.Y/pl.cfg.GridSize) * pl.cfg.GridSize,
	}
	if !pl.PositionUnsafe(snapped, fullSize, mask) {
		return snapped, true
	}

	maxRadius := pl.cfg.GridSize*4 + fullSize*2
	angularStep := math.Pi / 8
	for r := pl.cfg.GridSize; r <= maxRadius; r += pl.cfg.GridSize {
		for a := 0.0; a < 2*math.Pi; a += angularStep {
			candidate := geometry.Point{
				X: p.X + math.Cos(a)*r,
				Y: p.Y + math.Sin(a)*r,
			}
			if !pl.PositionUnsafe(candidate, fullSize, mask) {
				return candidate, true
			}
		}
	}
	return geometry.Point{}, false
}

// neighborOffsets returns the 8-way step offsets, plus half-step diagonals
// for agents larger than the step so tight corners stay reachable.
func neighborOffsets(step float64, large bool) []geometry.Point {
	d := step
	offsets := []geometry.Point{
		{X: d}, {X: -d}, {Y: d}, {Y: -d},
		{X: d, Y: d}, {X: d, Y: -d}, {X: -d, Y: d}, {X: -d, Y: -d},
	}
	if large {
		h := d * 0.5
		offsets = append(offsets,
			geometry.Point{X: h, Y: h},
			geometry.Point{X: h, Y: -h},
			geometry.Point{X: -h, Y: h},
			geometry.Point{X: -h, Y: -h},
		)
	}
	return offsets
}
