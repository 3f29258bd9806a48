package geometry

import "math"

// segmentEpsilon collapses near-degenerate segments to a point so the
// projection below never divides by ~0.
const segmentEpsilon = 1e-9

// DistancePointToSegment returns the distance from p to the segment a-b
// using a clamped projection.
func DistancePointToSegment(p, a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lengthSq := dx*dx + dy*dy
	if lengthSq < segmentEpsilon {
		return p.Distance(a)
	}

	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lengthSq
	t = math.Max(0, math.Min(1, t))

	closest := Point{X: a.X + t*dx, Y: a.Y + t*dy}
	return p.Distance(closest)
}

// SegmentsIntersect reports whether segments a1-a2 and b1-b2 cross.
// Segments that merely share an endpoint are not considered intersecting.
func SegmentsIntersect(a1, a2, b1, b2 Point) bool {
	if (a1 == b1 && a2 == b2) || (a1 == b2 && a2 == b1) {
		return false
	}
	if a1 == b1 || a1 == b2 || a2 == b1 || a2 == b2 {
		return false
	}

	d1 := cross(b1, b2, a1)
	d2 := cross(b1, b2, a2)
	d3 := cross(a1, a2, b1)
	d4 := cross(a1, a2, b2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	// Collinear overlap cases.
	if d1 == 0 && onSegment(b1, b2, a1) {
		return true
	}
	if d2 == 0 && onSegment(b1, b2, a2) {
		return true
	}
	if d3 == 0 && onSegment(a1, a2, b1) {
		return true
	}
	if d4 == 0 && onSegment(a1, a2, b2) {
		return true
	}
	return false
}

// cross returns the orientation of p3 relative to the line p1-p2.
func cross(p1, p2, p3 Point) float64 {
	return (p3.X-p1.X)*(p2.Y-p1.Y) - (p2.X-p1.X)*(p3.Y-p1.Y)
}

// onSegment checks if collinear point q lies within the bounds of segment p-r.
func onSegment(p, r, q Point) bool {
	return q.X <= math.Max(p.X, r.X) && q.X >= math.Min(p.X, r.X) &&
		q.Y <= math.Max(p.Y, r.Y) && q.Y >= math.Min(p.Y, r.Y)
}
