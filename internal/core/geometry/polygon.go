package geometry

// Polygon is an ordered loop of vertices; the last vertex implicitly
// connects back to the first. Fewer than 3 vertices is "no geometry".
type Polygon []Point

// Valid reports whether the polygon encloses any area.
func (pg Polygon) Valid() bool { return len(pg) >= 3 }

// Clone returns an independent copy.
func (pg Polygon) Clone() Polygon {
	if pg == nil {
		return nil
	}
	out := make(Polygon, len(pg))
	copy(out, pg)
	return out
}

// Bounds returns the axis-aligned bounding box. A polygon with no vertices
// yields the zero Rect.
func (pg Polygon) Bounds() Rect {
	if len(pg) == 0 {
		return Rect{}
	}
	r := Rect{Min: pg[0], Max: pg[0]}
	for _, v := range pg[1:] {
		if v.X < r.Min.X {
			r.Min.X = v.X
		}
		if v.X > r.Max.X {
			r.Max.X = v.X
		}
		if v.Y < r.Min.Y {
			r.Min.Y = v.Y
		}
		if v.Y > r.Max.Y {
			r.Max.Y = v.Y
		}
	}
	return r
}

// Transform returns the polygon translated, rotated and uniformly scaled
// into world space.
func (pg Polygon) Transform(position Point, rotation, scale float64) Polygon {
	out := make(Polygon, len(pg))
	for i, v := range pg {
		out[i] = v.Scale(scale).Rotate(rotation).Add(position)
	}
	return out
}

// PointInPolygon tests p against pg with ray casting. A polygon with fewer
// than 3 vertices vacuously contains everything, so an absent bounds
// polygon never rejects a point.
func PointInPolygon(p Point, pg Polygon) bool {
	n := len(pg)
	if n < 3 {
		return true
	}

	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi, vj := pg[i], pg[j]
		if (vi.Y > p.Y) != (vj.Y > p.Y) {
			xCross := (vj.X-vi.X)*(p.Y-vi.Y)/(vj.Y-vi.Y) + vi.X
			if p.X < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

// DistancePointToPolygon returns 0 when p is inside pg, otherwise the
// minimum distance from p to any edge.
func DistancePointToPolygon(p Point, pg Polygon) float64 {
	if !pg.Valid() {
		return 0
	}
	if PointInPolygon(p, pg) {
		return 0
	}
	return distanceToEdges(p, pg)
}

// DistancePointToPolygonWithin is the radius-aware variant used by safety
// checks: a point inside the polygon's bounds shrunk by radius is treated
// as distance 0 without touching the edges. Conservative for querying
// "is this point closer than radius".
func DistancePointToPolygonWithin(p Point, pg Polygon, radius float64) float64 {
	if !pg.Valid() {
		return 0
	}
	if radius > 0 && pg.Bounds().Expand(-radius).ContainsPoint(p) {
		return 0
	}
	return DistancePointToPolygon(p, pg)
}

func distanceToEdges(p Point, pg Polygon) float64 {
	n := len(pg)
	best := p.Distance(pg[0])
	for i := 0; i < n; i++ {
		d := DistancePointToSegment(p, pg[i], pg[(i+1)%n])
		if d < best {
			best = d
		}
	}
	return best
}

// SegmentIntersectsPolygon reports whether segment a-b crosses any edge
// of pg.
func SegmentIntersectsPolygon(a, b Point, pg Polygon) bool {
	n := len(pg)
	for i := 0; i < n; i++ {
		if SegmentsIntersect(a, b, pg[i], pg[(i+1)%n]) {
			return true
		}
	}
	return false
}
