package generic

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPool(t *testing.T) {
	p := NewHotPool(func() *[]int {
		s := make([]int, 0, 8)
		return &s
	}, 4)

	s := p.Get()
	*s = append(*s, 1, 2, 3)
	p.Put(s)

	s2 := p.Get()
	require.NotNil(t, s2)
}

func TestFreeListReuse(t *testing.T) {
	fl := NewFreeList[int](4)
	require.Equal(t, 4, fl.Created())
	require.Equal(t, 0, fl.Outstanding())

	a := fl.Get()
	*a = 42
	require.Equal(t, 1, fl.Outstanding())

	fl.Put(a)
	require.Equal(t, 0, fl.Outstanding())

	// The most recently returned value is handed out again.
	b := fl.Get()
	require.Same(t, a, b)
	fl.Put(b)
}

func TestFreeListGrowKeepsPointersValid(t *testing.T) {
	fl := NewFreeList[int](2)

	taken := make([]*int, 0, 8)
	for i := 0; i < 8; i++ {
		v := fl.Get()
		*v = i
		taken = append(taken, v)
	}
	require.Equal(t, 8, fl.Outstanding())
	require.GreaterOrEqual(t, fl.Created(), 8)

	for i, v := range taken {
		require.Equal(t, i, *v)
		fl.Put(v)
	}
	require.Equal(t, 0, fl.Outstanding())
	require.LessOrEqual(t, fl.Outstanding(), fl.Created())
}
