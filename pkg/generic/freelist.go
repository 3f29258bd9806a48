package generic

// FreeList is a free list over a preallocated buffer. Unlike Pool it is not
// thread-safe: it assumes single-owner take-then-return discipline, and it
// tracks outstanding objects so misuse is observable.
//
// Values handed out are pointers into the backing buffer; they remain valid
// until returned. The buffer grows in blocks when exhausted so Get never
// fails, but existing pointers are never invalidated (blocks are appended,
// not reallocated).
type FreeList[T any] struct {
	blocks      [][]T
	free        []*T
	blockSize   int
	created     int
	outstanding int
}

// NewFreeList creates a free list with one preallocated block of the given
// size. blockSize values below 1 are clamped to 1.
func NewFreeList[T any](blockSize int) *FreeList[T] {
	if blockSize < 1 {
		blockSize = 1
	}
	fl := &FreeList[T]{
		blockSize: blockSize,
		free:      make([]*T, 0, blockSize),
	}
	fl.grow()
	return fl
}

func (fl *FreeList[T]) grow() {
	block := make([]T, fl.blockSize)
	fl.blocks = append(fl.blocks, block)
	for i := range block {
		fl.free = append(fl.free, &block[i])
	}
	fl.created += fl.blockSize
}

// Get takes a value from the list, growing the backing buffer if empty.
// The value retains whatever state it had when returned; callers reset it.
func (fl *FreeList[T]) Get() *T {
	if len(fl.free) == 0 {
		fl.grow()
	}
	v := fl.free[len(fl.free)-1]
	fl.free = fl.free[:len(fl.free)-1]
	fl.outstanding++
	return v
}

// Put returns a value to the list. Returning a value twice corrupts the
// list; the outstanding counter lets tests assert the discipline held.
func (fl *FreeList[T]) Put(v *T) {
	if v == nil {
		return
	}
	fl.free = append(fl.free, v)
	fl.outstanding--
}

// Outstanding reports how many values are currently taken and not returned.
func (fl *FreeList[T]) Outstanding() int { return fl.outstanding }

// Created reports the total number of values ever allocated.
func (fl *FreeList[T]) Created() int { return fl.created }
