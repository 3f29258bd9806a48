package spatial

import "github.com/navgrid/navgrid/internal/core/geometry"

// Entry is one obstacle record as stored by the partition: an opaque id,
// its world bounds and its layer bits.
type Entry struct {
	ID     uint64
	Bounds geometry.Rect
	Layer  uint32
}

// Quadtree subdivides a sector. An entry is pushed into a child only when
// it fits entirely inside that child's bounds; straddlers stay at the
// current node, so no entry is ever stored twice.
type Quadtree struct {
	bounds     geometry.Rect
	level      int
	maxObjects int
	maxDepth   int
	entries    []Entry
	children   [4]*Quadtree
}

func NewQuadtree(bounds geometry.Rect, maxObjects, maxDepth int) *Quadtree {
	if maxObjects < 1 {
		maxObjects = 1
	}
	if maxDepth < 0 {
		maxDepth = 0
	}
	return &Quadtree{
		bounds:     bounds,
		maxObjects: maxObjects,
		maxDepth:   maxDepth,
	}
}

// Reset turns a recycled node back into an empty root over bounds,
// keeping the entries backing array. Child nodes are dropped; only the
// root is worth recycling.
func (q *Quadtree) Reset(bounds geometry.Rect, maxObjects, maxDepth int) {
	if maxObjects < 1 {
		maxObjects = 1
	}
	if maxDepth < 0 {
		maxDepth = 0
	}
	q.bounds = bounds
	q.level = 0
	q.maxObjects = maxObjects
	q.maxDepth = maxDepth
	q.entries = q.entries[:0]
	q.children = [4]*Quadtree{}
}

func (q *Quadtree) Insert(e Entry) {
	if q.children[0] != nil {
		if child := q.childContaining(e.Bounds); child != nil {
			child.Insert(e)
			return
		}
		q.entries = append(q.entries, e)
		return
	}

	q.entries = append(q.entries, e)

	if len(q.entries) > q.maxObjects && q.level < q.maxDepth {
		q.split()
	}
}

func (q *Quadtree) split() {
	cx := (q.bounds.Min.X + q.bounds.Max.X) / 2
	cy := (q.bounds.Min.Y + q.bounds.Max.Y) / 2

	quads := [4]geometry.Rect{
		geometry.NewRect(q.bounds.Min.X, q.bounds.Min.Y, cx, cy),
		geometry.NewRect(cx, q.bounds.Min.Y, q.bounds.Max.X, cy),
		geometry.NewRect(q.bounds.Min.X, cy, cx, q.bounds.Max.Y),
		geometry.NewRect(cx, cy, q.bounds.Max.X, q.bounds.Max.Y),
	}
	for i, r := range quads {
		child := NewQuadtree(r, q.maxObjects, q.maxDepth)
		child.level = q.level + 1
		q.children[i] = child
	}

	kept := q.entries[:0]
	for _, e := range q.entries {
		if child := q.childContaining(e.Bounds); child != nil {
			child.Insert(e)
		} else {
			kept = append(kept, e)
		}
	}
	q.entries = kept
}

func (q *Quadtree) childContaining(r geometry.Rect) *Quadtree {
	for _, child := range q.children {
		if child != nil && child.bounds.ContainsRect(r) {
			return child
		}
	}
	return nil
}

// Query visits every entry whose bounds intersect r.
func (q *Quadtree) Query(r geometry.Rect, visit func(Entry)) {
	if !q.bounds.Intersects(r) {
		return
	}
	for _, e := range q.entries {
		if e.Bounds.Intersects(r) {
			visit(e)
		}
	}
	for _, child := range q.children {
		if child != nil {
			child.Query(r, visit)
		}
	}
}

// Len counts entries across the whole subtree.
func (q *Quadtree) Len() int {
	n := len(q.entries)
	for _, child := range q.children {
		if child != nil {
			n += child.Len()
		}
	}
	return n
}
