package spatial

import (
	"math"

	"github.com/navgrid/navgrid/internal/core/geometry"
	"github.com/navgrid/navgrid/pkg/generic"
)

// Coord identifies a sector by integer grid coordinates.
type Coord struct {
	X int
	Y int
}

// Sector is one fixed-size square region of the world. Its quadtree is
// created lazily on first obstacle insertion. Agents use a flat list.
type Sector struct {
	coord     Coord
	bounds    geometry.Rect
	tree      *Quadtree
	obstacles map[uint64]struct{}
	agents    []uint64
}

type agentRecord struct {
	pos        geometry.Point
	half       float64
	coords     []Coord
	indexedPos geometry.Point
}

// Partition is the engine's spatial index: a uniform grid of sectors, each
// backed by a quadtree of obstacle entries, plus agent-to-sector tracking.
// Not safe for concurrent use; the engine owns it exclusively.
type Partition struct {
	sectorSize       float64
	maxObjects       int
	maxDepth         int
	reindexThreshold float64

	sectors     map[Coord]*Sector
	obstacles   map[uint64]Entry
	memberships map[uint64][]Coord
	agents      map[uint64]*agentRecord

	// Sector rebuilds discard and recreate trees often; recycle the roots.
	trees *generic.Pool[*Quadtree]

	seen map[uint64]struct{} // query scratch, cleared per query
}

// NewPartition creates a partition with the given sector edge length and
// quadtree limits. reindexThreshold is the distance an agent must move
// before its sector membership is recomputed.
func NewPartition(sectorSize float64, maxObjects, maxDepth int, reindexThreshold float64) *Partition {
	if sectorSize <= 0 {
		sectorSize = 64
	}
	return &Partition{
		sectorSize:       sectorSize,
		maxObjects:       maxObjects,
		maxDepth:         maxDepth,
		reindexThreshold: reindexThreshold,
		sectors:          make(map[Coord]*Sector),
		obstacles:        make(map[uint64]Entry),
		memberships:      make(map[uint64][]Coord),
		agents:           make(map[uint64]*agentRecord),
		trees:            generic.NewHotPool(func() *Quadtree { return new(Quadtree) }, 8),
		seen:             make(map[uint64]struct{}, 64),
	}
}

func (p *Partition) takeTree(bounds geometry.Rect) *Quadtree {
	t := p.trees.Get()
	t.Reset(bounds, p.maxObjects, p.maxDepth)
	return t
}

func (p *Partition) coordAt(pt geometry.Point) Coord {
	return Coord{
		X: int(math.Floor(pt.X / p.sectorSize)),
		Y: int(math.Floor(pt.Y / p.sectorSize)),
	}
}

func (p *Partition) coordRange(r geometry.Rect) (min, max Coord) {
	return p.coordAt(r.Min), p.coordAt(r.Max)
}

func (p *Partition) sectorBounds(c Coord) geometry.Rect {
	return geometry.NewRect(
		float64(c.X)*p.sectorSize,
		float64(c.Y)*p.sectorSize,
		float64(c.X+1)*p.sectorSize,
		float64(c.Y+1)*p.sectorSize,
	)
}

func (p *Partition) sector(c Coord) *Sector {
	s, ok := p.sectors[c]
	if !ok {
		s = &Sector{
			coord:     c,
			bounds:    p.sectorBounds(c),
			obstacles: make(map[uint64]struct{}),
		}
		p.sectors[c] = s
	}
	return s
}

// InsertObstacle indexes an obstacle into every sector its bounds overlap.
func (p *Partition) InsertObstacle(id uint64, bounds geometry.Rect, layer uint32) {
	e := Entry{ID: id, Bounds: bounds, Layer: layer}
	p.obstacles[id] = e

	min, max := p.coordRange(bounds)
	coords := make([]Coord, 0, (max.X-min.X+1)*(max.Y-min.Y+1))
	for y := min.Y; y <= max.Y; y++ {
		for x := min.X; x <= max.X; x++ {
			c := Coord{X: x, Y: y}
			s := p.sector(c)
			s.obstacles[id] = struct{}{}
			if s.tree == nil {
				s.tree = p.takeTree(s.bounds)
			}
			s.tree.Insert(e)
			coords = append(coords, c)
		}
	}
	p.memberships[id] = coords
}

// RemoveObstacle drops an obstacle and rebuilds the sectors it touched.
// Rebuild-from-scratch keeps the quadtree invariant trivial; sectors are
// small so the cost is bounded.
func (p *Partition) RemoveObstacle(id uint64) {
	coords, ok := p.memberships[id]
	if !ok {
		return
	}
	delete(p.memberships, id)
	delete(p.obstacles, id)

	for _, c := range coords {
		s, ok := p.sectors[c]
		if !ok {
			continue
		}
		delete(s.obstacles, id)
		p.rebuildSector(s)
	}
}

// UpdateObstacle reindexes an obstacle whose bounds (or layer) changed.
func (p *Partition) UpdateObstacle(id uint64, bounds geometry.Rect, layer uint32) {
	p.RemoveObstacle(id)
	p.InsertObstacle(id, bounds, layer)
}

func (p *Partition) rebuildSector(s *Sector) {
	if len(s.obstacles) == 0 {
		if s.tree != nil {
			p.trees.Put(s.tree)
			s.tree = nil
		}
		return
	}
	if s.tree != nil {
		s.tree.Reset(s.bounds, p.maxObjects, p.maxDepth)
	} else {
		s.tree = p.takeTree(s.bounds)
	}
	for id := range s.obstacles {
		s.tree.Insert(p.obstacles[id])
	}
}

// QueryRect appends the ids of obstacles whose bounds overlap r and whose
// layer matches mask. An obstacle spanning several sectors is returned
// exactly once.
func (p *Partition) QueryRect(r geometry.Rect, mask uint32, out []uint64) []uint64 {
	clear(p.seen)
	min, max := p.coordRange(r)
	for y := min.Y; y <= max.Y; y++ {
		for x := min.X; x <= max.X; x++ {
			s, ok := p.sectors[Coord{X: x, Y: y}]
			if !ok || s.tree == nil {
				continue
			}
			s.tree.Query(r, func(e Entry) {
				if e.Layer&mask == 0 {
					return
				}
				if _, dup := p.seen[e.ID]; dup {
					return
				}
				p.seen[e.ID] = struct{}{}
				out = append(out, e.ID)
			})
		}
	}
	return out
}

// QueryCircle is QueryRect over the circle's bounding box. Callers do the
// exact distance check; the partition only narrows candidates.
func (p *Partition) QueryCircle(center geometry.Point, radius float64, mask uint32, out []uint64) []uint64 {
	r := geometry.Rect{Min: center, Max: center}.Expand(radius)
	return p.QueryRect(r, mask, out)
}

// ObstacleBounds returns the indexed bounds for an obstacle id.
func (p *Partition) ObstacleBounds(id uint64) (geometry.Rect, bool) {
	e, ok := p.obstacles[id]
	return e.Bounds, ok
}

// ObstacleCount returns the number of indexed obstacles.
func (p *Partition) ObstacleCount() int { return len(p.obstacles) }

// SectorCount returns the number of materialized sectors.
func (p *Partition) SectorCount() int { return len(p.sectors) }

// UpdateAgent tracks an agent's footprint box for locality queries.
// Membership is recomputed only when the agent has drifted beyond the
// reindex threshold since it was last indexed.
func (p *Partition) UpdateAgent(id uint64, pos geometry.Point, half float64) {
	rec, ok := p.agents[id]
	if ok {
		rec.pos = pos
		rec.half = half
		// Larger footprints span more sectors and tolerate more drift
		// before membership actually changes, so the footprint widens
		// the grid-scale base threshold.
		if pos.Distance(rec.indexedPos) < p.reindexThreshold+half*0.5 {
			return
		}
		p.dropAgentFromSectors(id, rec)
	} else {
		rec = &agentRecord{pos: pos, half: half}
		p.agents[id] = rec
	}

	box := geometry.Rect{Min: pos, Max: pos}.Expand(half)
	min, max := p.coordRange(box)
	rec.coords = rec.coords[:0]
	for y := min.Y; y <= max.Y; y++ {
		for x := min.X; x <= max.X; x++ {
			c := Coord{X: x, Y: y}
			s := p.sector(c)
			s.agents = append(s.agents, id)
			rec.coords = append(rec.coords, c)
		}
	}
	rec.indexedPos = pos
}

// RemoveAgent drops an agent from all sector lists.
func (p *Partition) RemoveAgent(id uint64) {
	rec, ok := p.agents[id]
	if !ok {
		return
	}
	p.dropAgentFromSectors(id, rec)
	delete(p.agents, id)
}

func (p *Partition) dropAgentFromSectors(id uint64, rec *agentRecord) {
	for _, c := range rec.coords {
		s, ok := p.sectors[c]
		if !ok {
			continue
		}
		for i, a := range s.agents {
			if a == id {
				s.agents[i] = s.agents[len(s.agents)-1]
				s.agents = s.agents[:len(s.agents)-1]
				break
			}
		}
	}
	rec.coords = rec.coords[:0]
}

// AgentsInRect appends the ids of agents indexed into sectors overlapping
// r, each exactly once. The result is coarse: membership is by footprint
// box and refreshed lazily, so callers re-check exact positions.
func (p *Partition) AgentsInRect(r geometry.Rect, out []uint64) []uint64 {
	clear(p.seen)
	min, max := p.coordRange(r)
	for y := min.Y; y <= max.Y; y++ {
		for x := min.X; x <= max.X; x++ {
			s, ok := p.sectors[Coord{X: x, Y: y}]
			if !ok {
				continue
			}
			for _, id := range s.agents {
				if _, dup := p.seen[id]; dup {
					continue
				}
				p.seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	return out
}
