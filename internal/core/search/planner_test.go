package search

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/navgrid/navgrid/internal/core/geometry"
)

// stubField is a brute-force Field over a list of polygon obstacles.
type stubField struct {
	bounds    geometry.Polygon
	obstacles []geometry.Polygon
	coarse    map[[2]int]bool // optional lattice override
	gridSize  float64
}

func (f *stubField) InBounds(p geometry.Point) bool {
	return geometry.PointInPolygon(p, f.bounds)
}

func (f *stubField) Blocked(p geometry.Point, radius float64, mask uint32) bool {
	for _, o := range f.obstacles {
		if geometry.DistancePointToPolygonWithin(p, o, radius) < radius {
			return true
		}
	}
	return false
}

func (f *stubField) CoarseClear(p geometry.Point, _ uint32) (bool, bool) {
	if f.coarse == nil {
		return false, false
	}
	ix := int(math.Round(p.X / f.gridSize))
	iy := int(math.Round(p.Y / f.gridSize))
	clear, known := f.coarse[[2]int{ix, iy}]
	return clear, known
}

func arena(half float64) geometry.Polygon {
	return geometry.Polygon{
		{X: -half, Y: -half}, {X: half, Y: -half},
		{X: half, Y: half}, {X: -half, Y: half},
	}
}

func square(cx, cy, half float64) geometry.Polygon {
	return geometry.Polygon{
		{X: cx - half, Y: cy - half},
		{X: cx + half, Y: cy - half},
		{X: cx + half, Y: cy + half},
		{X: cx - half, Y: cy + half},
	}
}

func TestDirectPathNoObstacles(t *testing.T) {
	field := &stubField{bounds: arena(200)}
	pl := NewPlanner(field, Config{GridSize: 8})

	path := pl.FindPath(geometry.Point{}, geometry.Point{X: 100}, 10, 1)
	require.Equal(t, []geometry.Point{{X: 0, Y: 0}, {X: 100, Y: 0}}, path)
	require.Equal(t, 0, pl.Outstanding())
}

func TestPathRoutesAroundObstacle(t *testing.T) {
	obstacle := square(50, 0, 20)
	field := &stubField{bounds: arena(200), obstacles: []geometry.Polygon{obstacle}}

	const gridSize = 8.0
	const fullSize = 12.0 // radius 10 + buffer 2
	pl := NewPlanner(field, Config{GridSize: gridSize, SafetyMargin: 0})

	start := geometry.Point{}
	goal := geometry.Point{X: 100}
	path := pl.FindPath(start, goal, fullSize, 1)
	require.NotEmpty(t, path)
	require.Equal(t, start, path[0])
	require.Equal(t, goal, path[len(path)-1])
	require.Equal(t, 0, pl.Outstanding())

	// Every segment, sampled at the configured resolution, keeps full
	// clearance from the obstacle boundary.
	for i := 0; i+1 < len(path); i++ {
		a, b := path[i], path[i+1]
		samples := int(math.Ceil(a.Distance(b)/gridSize)) * 2
		if samples < 4 {
			samples = 4
		}
		for s := 0; s <= samples; s++ {
			p := a.Lerp(b, float64(s)/float64(samples))
			d := geometry.DistancePointToPolygon(p, obstacle)
			require.GreaterOrEqual(t, d, fullSize-1e-9,
				"segment %d sample %d at %+v too close", i, s, p)
		}
	}
}

func TestUnsafeGoalRedirectsToNearestSafePoint(t *testing.T) {
	obstacle := square(50, 0, 20)
	field := &stubField{bounds: arena(200), obstacles: []geometry.Polygon{obstacle}}
	pl := NewPlanner(field, Config{GridSize: 8, SafetyMargin: 0})

	path := pl.FindPath(geometry.Point{}, geometry.Point{X: 50}, 12, 1)
	require.NotEmpty(t, path)

	end := path[len(path)-1]
	require.GreaterOrEqual(t, geometry.DistancePointToPolygon(end, obstacle), 12.0-1e-9)
	// Redirection stays local to the requested destination.
	require.Less(t, end.Distance(geometry.Point{X: 50}), 8*4+12*2+1.0)
}

func TestGoalInsideHugeObstacleFails(t *testing.T) {
	obstacle := square(0, 0, 200)
	field := &stubField{bounds: arena(400), obstacles: []geometry.Polygon{obstacle}}
	pl := NewPlanner(field, Config{GridSize: 8})

	path := pl.FindPath(geometry.Point{X: -350}, geometry.Point{}, 12, 1)
	require.Empty(t, path)
	require.Equal(t, 0, pl.Outstanding())
}

func TestUnreachableGoalExhaustsIterations(t *testing.T) {
	// A closed courtyard: four walls around the goal.
	walls := []geometry.Polygon{
		{{X: -40, Y: -40}, {X: -30, Y: -40}, {X: -30, Y: 40}, {X: -40, Y: 40}}, // left
		{{X: 30, Y: -40}, {X: 40, Y: -40}, {X: 40, Y: 40}, {X: 30, Y: 40}},     // right
		{{X: -40, Y: 30}, {X: 40, Y: 30}, {X: 40, Y: 40}, {X: -40, Y: 40}},     // top
		{{X: -40, Y: -40}, {X: 40, Y: -40}, {X: 40, Y: -30}, {X: -40, Y: -30}}, // bottom
	}
	field := &stubField{bounds: arena(200), obstacles: walls}
	pl := NewPlanner(field, Config{GridSize: 8, MaxIterations: 600})

	path := pl.FindPath(geometry.Point{X: -150}, geometry.Point{}, 6, 1)
	require.Empty(t, path)
	require.Equal(t, 0, pl.Outstanding())
}

func TestSmoothingIsIdempotent(t *testing.T) {
	obstacle := square(50, 0, 20)
	field := &stubField{bounds: arena(200), obstacles: []geometry.Polygon{obstacle}}
	pl := NewPlanner(field, Config{GridSize: 8, SafetyMargin: 0})

	path := pl.FindPath(geometry.Point{}, geometry.Point{X: 100}, 12, 1)
	require.NotEmpty(t, path)

	again := pl.Smooth(path, 12, 1)
	require.Equal(t, path, again)
}

func TestCoarseGateShortCircuits(t *testing.T) {
	field := &stubField{
		bounds:   arena(200),
		gridSize: 8,
		coarse:   map[[2]int]bool{{0, 0}: false},
	}
	pl := NewPlanner(field, Config{GridSize: 8})

	// Blocked() never fires, yet the lattice says the origin cell is
	// occupied, so the gate rejects it.
	require.True(t, pl.PositionUnsafe(geometry.Point{}, 4, 1))
	require.False(t, pl.PositionUnsafe(geometry.Point{X: 40}, 4, 1))
}

func TestSegmentSafeMinimumSamples(t *testing.T) {
	obstacle := square(5, 0, 2)
	field := &stubField{bounds: arena(200), obstacles: []geometry.Polygon{obstacle}}
	pl := NewPlanner(field, Config{GridSize: 100, SafetyMargin: 0})

	// The segment is short relative to the grid, so only the minimum
	// sample count stands between it and the obstacle.
	require.False(t, pl.SegmentSafe(geometry.Point{}, geometry.Point{X: 10}, 1, 1))
	require.True(t, pl.SegmentSafe(geometry.Point{Y: 50}, geometry.Point{X: 10, Y: 50}, 1, 1))
}

func BenchmarkFindPathAroundObstacle(b *testing.B) {
	obstacle := square(50, 0, 20)
	field := &stubField{bounds: arena(400), obstacles: []geometry.Polygon{obstacle}}
	pl := NewPlanner(field, Config{GridSize: 8})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if path := pl.FindPath(geometry.Point{}, geometry.Point{X: 100}, 12, 1); len(path) == 0 {
			b.Fatal("no path")
		}
	}
}
