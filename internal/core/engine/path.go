package engine

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/navgrid/navgrid/internal/core/geometry"
)

// Path is an ordered waypoint list handed to agents. The engine replaces
// paths wholesale; callers must not mutate a delivered path.
type Path []geometry.Point

// Fingerprint hashes the waypoints. Used to suppress redundant
// Recalculated signals when a recalculation reproduces the same route.
func (p Path) Fingerprint() uint64 {
	if len(p) == 0 {
		return 0
	}
	d := xxhash.New()
	var buf [16]byte
	for _, pt := range p {
		binary.LittleEndian.PutUint64(buf[0:8], math.Float64bits(pt.X))
		binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(pt.Y))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

// Clone returns an independent copy.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Length returns the total polyline length.
func (p Path) Length() float64 {
	total := 0.0
	for i := 0; i+1 < len(p); i++ {
		total += p[i].Distance(p[i+1])
	}
	return total
}
