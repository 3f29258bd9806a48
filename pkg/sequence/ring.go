package sequence

// Ring is a growable FIFO queue backed by a circular buffer. Enqueue and
// Dequeue are amortized O(1) with no per-element allocation.
type Ring[T any] struct {
	buf   []T
	head  int
	count int
}

func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

func (r *Ring[T]) Enqueue(value T) {
	if r.count == len(r.buf) {
		r.grow()
	}
	r.buf[(r.head+r.count)%len(r.buf)] = value
	r.count++
}

func (r *Ring[T]) Dequeue() (T, bool) {
	var zero T
	if r.count == 0 {
		return zero, false
	}
	v := r.buf[r.head]
	r.buf[r.head] = zero
	r.head = (r.head + 1) % len(r.buf)
	r.count--
	return v, true
}

func (r *Ring[T]) Peek() (T, bool) {
	if r.count == 0 {
		var zero T
		return zero, false
	}
	return r.buf[r.head], true
}

func (r *Ring[T]) Len() int { return r.count }

func (r *Ring[T]) grow() {
	next := make([]T, len(r.buf)*2)
	for i := 0; i < r.count; i++ {
		next[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	r.buf = next
	r.head = 0
}
