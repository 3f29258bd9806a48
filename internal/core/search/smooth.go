package search

import "github.com/navgrid/navgrid/internal/core/geometry"

// Smooth compresses a waypoint sequence by greedy string-pulling: from each
// kept waypoint, jump to the farthest later waypoint still reachable by a
// circle-safe straight segment. Smoothing an already-smoothed path returns
// it unchanged.
func (pl *Planner) Smooth(path []geometry.Point, fullSize float64, mask uint32) []geometry.Point {
	if len(path) <= 2 {
		return path
	}

	out := make([]geometry.Point, 0, len(path))
	out = append(out, path[0])

	i := 0
	for i < len(path)-1 {
		next := i + 1
		for j := len(path) - 1; j > i+1; j-- {
			if pl.SegmentSafe(path[i], path[j], fullSize, mask) {
				next = j
				break
			}
		}
		out = append(out, path[next])
		i = next
	}
	return out
}
