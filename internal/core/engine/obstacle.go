package engine

import "github.com/navgrid/navgrid/internal/core/geometry"

// ObstacleSource is the host side of an obstacle. The engine holds a
// non-owning reference and polls it; everything is supplied on demand.
type ObstacleSource interface {
	// WorldPolygon returns the current world-space outline. A polygon
	// with fewer than 3 vertices means "no geometry" and never blocks.
	WorldPolygon() geometry.Polygon
	// Position and Rotation describe the owning transform; they feed
	// drift detection, not geometry (WorldPolygon is authoritative).
	Position() geometry.Point
	Rotation() float64
	// Static obstacles are polled with looser drift thresholds.
	Static() bool
	Layer() uint32
	Enabled() bool
	// Alive reports whether the host still exists. Checked on the
	// liveness-cache interval, not every frame.
	Alive() bool
}

// obstacleState is the engine-side record: cached derived geometry plus
// the last-known snapshot used for change detection.
type obstacleState struct {
	src    ObstacleSource
	static bool
	layer  uint32

	worldPolygon geometry.Polygon
	bounds       geometry.Rect
	indexed      bool // currently present in the spatial partition

	lastPosition geometry.Point
	lastRotation float64
	lastPolygon  geometry.Polygon

	alive    bool
	disabled bool
}

// snapshot refreshes cached geometry and the change-detection baseline
// from the source.
func (st *obstacleState) snapshot() {
	st.worldPolygon = st.src.WorldPolygon().Clone()
	st.bounds = st.worldPolygon.Bounds()
	st.lastPosition = st.src.Position()
	st.lastRotation = st.src.Rotation()
	st.lastPolygon = st.worldPolygon
	st.disabled = !st.src.Enabled()
}

// drifted reports whether the source moved beyond the given thresholds
// since the last snapshot.
func (st *obstacleState) drifted(moveThreshold, rotationThreshold float64) bool {
	if st.src.Position().Distance(st.lastPosition) > moveThreshold {
		return true
	}
	if abs(st.src.Rotation()-st.lastRotation) > rotationThreshold {
		return true
	}
	current := st.src.WorldPolygon()
	if len(current) != len(st.lastPolygon) {
		return true
	}
	for i, v := range current {
		if v.Distance(st.lastPolygon[i]) > moveThreshold {
			return true
		}
	}
	if st.disabled == st.src.Enabled() { // enabled flag flipped
		return true
	}
	return false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
