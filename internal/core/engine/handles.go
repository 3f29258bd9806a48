package engine

// Handle is a generation-checked index into an arena. A stale handle (its
// slot was freed or reused) fails the generation compare, so "is this
// obstacle/agent still alive" is O(1) with no runtime probing.
type Handle struct {
	index      uint32
	generation uint32
}

// IsZero reports whether the handle was never assigned.
func (h Handle) IsZero() bool { return h.generation == 0 }

// key packs the handle for use as an opaque spatial-partition id.
func (h Handle) key() uint64 {
	return uint64(h.index)<<32 | uint64(h.generation)
}

// ObstacleHandle identifies a registered obstacle.
type ObstacleHandle struct{ Handle }

// AgentHandle identifies a registered agent.
type AgentHandle struct{ Handle }

type slot[T any] struct {
	generation uint32
	live       bool
	value      T
}

// arena is a slot store addressed by Handle. Freed slots are recycled with
// a bumped generation so stale handles never alias a new occupant.
type arena[T any] struct {
	slots []slot[T]
	free  []uint32
	count int
}

func (a *arena[T]) alloc() (Handle, *T) {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, slot[T]{})
		idx = uint32(len(a.slots) - 1)
	}
	s := &a.slots[idx]
	s.generation++
	s.live = true
	var zero T
	s.value = zero
	a.count++
	return Handle{index: idx, generation: s.generation}, &s.value
}

func (a *arena[T]) get(h Handle) (*T, bool) {
	if int(h.index) >= len(a.slots) {
		return nil, false
	}
	s := &a.slots[h.index]
	if !s.live || s.generation != h.generation {
		return nil, false
	}
	return &s.value, true
}

func (a *arena[T]) release(h Handle) bool {
	if int(h.index) >= len(a.slots) {
		return false
	}
	s := &a.slots[h.index]
	if !s.live || s.generation != h.generation {
		return false
	}
	s.live = false
	var zero T
	s.value = zero
	a.free = append(a.free, h.index)
	a.count--
	return true
}

func (a *arena[T]) len() int { return a.count }

// each visits every live slot; returning false stops the walk.
func (a *arena[T]) each(fn func(Handle, *T) bool) {
	for i := range a.slots {
		s := &a.slots[i]
		if !s.live {
			continue
		}
		if !fn(Handle{index: uint32(i), generation: s.generation}, &s.value) {
			return
		}
	}
}
