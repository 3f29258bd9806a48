package grid

import (
	"math"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/navgrid/navgrid/internal/core/geometry"
)

// Clearance is the coarse navigation lattice: for every grid point inside
// the bounds polygon it caches which obstacle layers block the point (0
// means free). Storing the layer mask rather than a bool keeps the lattice
// usable as a cheap gate for agents that ignore some layers. It sits in
// front of exact circle-safety checks and seeds A* start/goal handling.
//
// The full build runs once at engine construction; afterwards only the
// regions around changed obstacles are re-evaluated.
type Clearance struct {
	gridSize   float64
	bounds     geometry.Polygon
	boundsRect geometry.Rect
	cells      map[uint64]uint32
}

func New(bounds geometry.Polygon, gridSize float64) *Clearance {
	return &Clearance{
		gridSize:   gridSize,
		bounds:     bounds,
		boundsRect: bounds.Bounds(),
		cells:      make(map[uint64]uint32),
	}
}

func (c *Clearance) GridSize() float64         { return c.gridSize }
func (c *Clearance) BoundsRect() geometry.Rect { return c.boundsRect }
func (c *Clearance) Bounds() geometry.Polygon  { return c.bounds }
func (c *Clearance) Len() int                  { return len(c.cells) }

// InBounds tests p against the bounds polygon (vacuously true when the
// polygon has no area).
func (c *Clearance) InBounds(p geometry.Point) bool {
	return geometry.PointInPolygon(p, c.bounds)
}

// Snap returns the nearest lattice point.
func (c *Clearance) Snap(p geometry.Point) geometry.Point {
	return geometry.Point{
		X: math.Round(p.X/c.gridSize) * c.gridSize,
		Y: math.Round(p.Y/c.gridSize) * c.gridSize,
	}
}

func (c *Clearance) cellIndex(p geometry.Point) (int32, int32) {
	return int32(math.Round(p.X / c.gridSize)), int32(math.Round(p.Y / c.gridSize))
}

func (c *Clearance) floorIndex(p geometry.Point) (int32, int32) {
	return int32(math.Floor(p.X / c.gridSize)), int32(math.Floor(p.Y / c.gridSize))
}

func (c *Clearance) ceilIndex(p geometry.Point) (int32, int32) {
	return int32(math.Ceil(p.X / c.gridSize)), int32(math.Ceil(p.Y / c.gridSize))
}

func cellKey(ix, iy int32) uint64 {
	return uint64(uint32(ix))<<32 | uint64(uint32(iy))
}

// IsClear reports the cached state of the lattice point nearest p for an
// agent respecting mask. known is false for points outside the bounds
// polygon (no cell is stored there).
func (c *Clearance) IsClear(p geometry.Point, mask uint32) (clear, known bool) {
	ix, iy := c.cellIndex(p)
	layers, known := c.cells[cellKey(ix, iy)]
	return layers&mask == 0, known
}

// Build evaluates the whole lattice. blockers returns the layer mask of
// obstacles covering a point and must be safe for concurrent calls; rows
// are split into bands and evaluated with an errgroup, and the per-band
// results merged after the group finishes. The engine is not yet shared
// at construction time, so this is the only parallel section.
func (c *Clearance) Build(blockers func(geometry.Point) uint32) error {
	minIX, minIY := c.floorIndex(c.boundsRect.Min)
	maxIX, maxIY := c.ceilIndex(c.boundsRect.Max)

	rows := int(maxIY-minIY) + 1
	if rows <= 0 {
		return nil
	}
	bands := runtime.NumCPU()
	if bands > rows {
		bands = rows
	}
	rowsPerBand := (rows + bands - 1) / bands

	var mu sync.Mutex
	var g errgroup.Group
	for b := 0; b < bands; b++ {
		first := minIY + int32(b*rowsPerBand)
		last := first + int32(rowsPerBand) - 1
		if last > maxIY {
			last = maxIY
		}
		g.Go(func() error {
			part := make(map[uint64]uint32)
			for iy := first; iy <= last; iy++ {
				for ix := minIX; ix <= maxIX; ix++ {
					p := geometry.Point{
						X: float64(ix) * c.gridSize,
						Y: float64(iy) * c.gridSize,
					}
					if !geometry.PointInPolygon(p, c.bounds) {
						continue
					}
					part[cellKey(ix, iy)] = blockers(p)
				}
			}
			mu.Lock()
			for k, v := range part {
				c.cells[k] = v
			}
			mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

// RefreshRect re-evaluates only the lattice points inside r (clamped to
// the bounds rect) and returns how many were touched. Callers expand r by
// their clearance margin before calling.
func (c *Clearance) RefreshRect(r geometry.Rect, blockers func(geometry.Point) uint32) int {
	if !r.Intersects(c.boundsRect) {
		return 0
	}
	minIX, minIY := c.floorIndex(maxPoint(r.Min, c.boundsRect.Min))
	maxIX, maxIY := c.ceilIndex(minPoint(r.Max, c.boundsRect.Max))

	touched := 0
	for iy := minIY; iy <= maxIY; iy++ {
		for ix := minIX; ix <= maxIX; ix++ {
			p := geometry.Point{
				X: float64(ix) * c.gridSize,
				Y: float64(iy) * c.gridSize,
			}
			if !geometry.PointInPolygon(p, c.bounds) {
				continue
			}
			c.cells[cellKey(ix, iy)] = blockers(p)
			touched++
		}
	}
	return touched
}

func maxPoint(a, b geometry.Point) geometry.Point {
	return geometry.Point{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y)}
}

func minPoint(a, b geometry.Point) geometry.Point {
	return geometry.Point{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y)}
}
