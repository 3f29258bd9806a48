package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func square(cx, cy, half float64) Polygon {
	return Polygon{
		{X: cx - half, Y: cy - half},
		{X: cx + half, Y: cy - half},
		{X: cx + half, Y: cy + half},
		{X: cx - half, Y: cy + half},
	}
}

func TestPointInPolygon(t *testing.T) {
	sq := square(0, 0, 10)

	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"center", Point{0, 0}, true},
		{"near edge inside", Point{9.9, 9.9}, true},
		{"outside right", Point{10.1, 0}, false},
		{"far outside", Point{100, 100}, false},
		{"outside below", Point{0, -11}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, PointInPolygon(tt.p, sq))
		})
	}
}

func TestPointInConcavePolygon(t *testing.T) {
	// A "U" shape opening upward.
	u := Polygon{
		{X: 0, Y: 0}, {X: 30, Y: 0}, {X: 30, Y: 30},
		{X: 20, Y: 30}, {X: 20, Y: 10}, {X: 10, Y: 10},
		{X: 10, Y: 30}, {X: 0, Y: 30},
	}
	require.True(t, PointInPolygon(Point{5, 20}, u))   // left arm
	require.True(t, PointInPolygon(Point{15, 5}, u))   // base
	require.False(t, PointInPolygon(Point{15, 20}, u)) // notch
}

func TestDegeneratePolygonContainsEverything(t *testing.T) {
	require.True(t, PointInPolygon(Point{1234, -5678}, Polygon{}))
	require.True(t, PointInPolygon(Point{0, 0}, Polygon{{X: 1, Y: 1}, {X: 2, Y: 2}}))
}

func TestDistancePointToSegment(t *testing.T) {
	a := Point{0, 0}
	b := Point{10, 0}

	require.InDelta(t, 5, DistancePointToSegment(Point{5, 5}, a, b), 1e-9)
	require.InDelta(t, 5, DistancePointToSegment(Point{-5, 0}, a, b), 1e-9)
	require.InDelta(t, 5, DistancePointToSegment(Point{15, 0}, a, b), 1e-9)
	require.InDelta(t, 0, DistancePointToSegment(Point{7, 0}, a, b), 1e-9)

	// Degenerate segment collapses to point distance.
	require.InDelta(t, math.Sqrt2, DistancePointToSegment(Point{1, 1}, a, a), 1e-9)
}

func TestDistancePointToPolygon(t *testing.T) {
	sq := square(0, 0, 10)

	require.Equal(t, 0.0, DistancePointToPolygon(Point{0, 0}, sq))
	require.InDelta(t, 5, DistancePointToPolygon(Point{15, 0}, sq), 1e-9)
	require.InDelta(t, math.Sqrt2*5, DistancePointToPolygon(Point{15, 15}, sq), 1e-9)
}

func TestDistancePointToPolygonWithin(t *testing.T) {
	sq := square(0, 0, 10)

	// Deep inside shrunk bounds short-circuits to 0.
	require.Equal(t, 0.0, DistancePointToPolygonWithin(Point{0, 0}, sq, 3))
	// Outside keeps the exact distance.
	require.InDelta(t, 5, DistancePointToPolygonWithin(Point{15, 0}, sq, 3), 1e-9)
}

func TestSegmentsIntersect(t *testing.T) {
	require.True(t, SegmentsIntersect(
		Point{0, 0}, Point{10, 10},
		Point{0, 10}, Point{10, 0},
	))
	require.False(t, SegmentsIntersect(
		Point{0, 0}, Point{10, 0},
		Point{0, 1}, Point{10, 1},
	))
	// Shared endpoint does not count.
	require.False(t, SegmentsIntersect(
		Point{0, 0}, Point{10, 0},
		Point{10, 0}, Point{10, 10},
	))
}

func TestSegmentIntersectsPolygon(t *testing.T) {
	sq := square(50, 0, 20)

	require.True(t, SegmentIntersectsPolygon(Point{0, 0}, Point{100, 0}, sq))
	require.False(t, SegmentIntersectsPolygon(Point{0, 30}, Point{100, 30}, sq))
}

func TestPolygonBounds(t *testing.T) {
	pg := Polygon{{X: -3, Y: 2}, {X: 7, Y: -1}, {X: 4, Y: 9}}
	b := pg.Bounds()
	require.Equal(t, NewRect(-3, -1, 7, 9), b)
	require.Equal(t, 10.0, b.Width())
	require.Equal(t, 10.0, b.Height())
}

func TestPolygonTransform(t *testing.T) {
	sq := square(0, 0, 1)
	moved := sq.Transform(Point{10, 5}, 0, 2)
	require.Equal(t, NewRect(8, 3, 12, 7), moved.Bounds())

	rotated := Polygon{{X: 1, Y: 0}}.Transform(Point{}, math.Pi/2, 1)
	require.InDelta(t, 0, rotated[0].X, 1e-9)
	require.InDelta(t, 1, rotated[0].Y, 1e-9)
}

func TestRectIntersectsSegment(t *testing.T) {
	r := NewRect(10, -5, 20, 5)

	require.True(t, r.IntersectsSegment(Point{0, 0}, Point{30, 0}))
	require.True(t, r.IntersectsSegment(Point{15, 0}, Point{15, 100}))
	require.False(t, r.IntersectsSegment(Point{0, 10}, Point{30, 10}))
	require.False(t, r.IntersectsSegment(Point{0, 0}, Point{5, 0}))
}

func TestRectOps(t *testing.T) {
	a := NewRect(0, 0, 10, 10)
	b := NewRect(5, 5, 15, 15)

	require.True(t, a.Intersects(b))
	require.Equal(t, NewRect(0, 0, 15, 15), a.Union(b))
	require.Equal(t, NewRect(-2, -2, 12, 12), a.Expand(2))
	require.True(t, a.ContainsRect(NewRect(1, 1, 9, 9)))
	require.False(t, a.ContainsRect(b))
	require.Equal(t, Point{5, 5}, a.Center())
}
