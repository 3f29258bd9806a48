package geometry

// Rect is an axis-aligned bounding rectangle.
type Rect struct {
	Min Point `json:"min" yaml:"min"`
	Max Point `json:"max" yaml:"max"`
}

func NewRect(minX, minY, maxX, maxY float64) Rect {
	return Rect{Min: Point{X: minX, Y: minY}, Max: Point{X: maxX, Y: maxY}}
}

func (r Rect) Width() float64  { return r.Max.X - r.Min.X }
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

func (r Rect) Center() Point {
	return Point{X: (r.Min.X + r.Max.X) / 2, Y: (r.Min.Y + r.Max.Y) / 2}
}

func (r Rect) ContainsPoint(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// ContainsRect reports whether other lies entirely within r.
func (r Rect) ContainsRect(other Rect) bool {
	return other.Min.X >= r.Min.X && other.Max.X <= r.Max.X &&
		other.Min.Y >= r.Min.Y && other.Max.Y <= r.Max.Y
}

func (r Rect) Intersects(other Rect) bool {
	return r.Min.X <= other.Max.X && r.Max.X >= other.Min.X &&
		r.Min.Y <= other.Max.Y && r.Max.Y >= other.Min.Y
}

// Expand grows (or shrinks, for negative d) the rect by d on every side.
func (r Rect) Expand(d float64) Rect {
	return Rect{
		Min: Point{X: r.Min.X - d, Y: r.Min.Y - d},
		Max: Point{X: r.Max.X + d, Y: r.Max.Y + d},
	}
}

func (r Rect) Union(other Rect) Rect {
	out := r
	if other.Min.X < out.Min.X {
		out.Min.X = other.Min.X
	}
	if other.Min.Y < out.Min.Y {
		out.Min.Y = other.Min.Y
	}
	if other.Max.X > out.Max.X {
		out.Max.X = other.Max.X
	}
	if other.Max.Y > out.Max.Y {
		out.Max.Y = other.Max.Y
	}
	return out
}

// IntersectsSegment reports whether the segment a-b touches the rect.
// Uses a slab test; degenerate segments fall back to point containment.
func (r Rect) IntersectsSegment(a, b Point) bool {
	if r.ContainsPoint(a) || r.ContainsPoint(b) {
		return true
	}
	dx := b.X - a.X
	dy := b.Y - a.Y
	tMin, tMax := 0.0, 1.0

	for _, axis := range [2][3]float64{
		{dx, r.Min.X - a.X, r.Max.X - a.X},
		{dy, r.Min.Y - a.Y, r.Max.Y - a.Y},
	} {
		d, lo, hi := axis[0], axis[1], axis[2]
		if d == 0 {
			if lo > 0 || hi < 0 {
				return false
			}
			continue
		}
		t1, t2 := lo/d, hi/d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tMin {
			tMin = t1
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return false
		}
	}
	return true
}
