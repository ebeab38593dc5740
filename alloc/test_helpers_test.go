package alloc

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

const testCapacity Size = 10_000_000

// newTestAllocator creates an allocator with live tracking so that Validate
// also checks the tiling invariant.
func newTestAllocator(t testing.TB, capacity Size, opts ...Option) *Allocator {
	t.Helper()
	opts = append([]Option{WithLiveTracking()}, opts...)
	a, err := New(capacity, opts...)
	require.NoError(t, err)
	require.NoError(t, a.Validate())
	return a
}

// mustAlloc allocates or fails the test.
func mustAlloc(t testing.TB, a *Allocator, size Size) Allocation {
	t.Helper()
	got, ok := a.Alloc(size)
	require.True(t, ok, "Alloc(%d) failed with %d available, largest %d",
		size, a.TotalAvailable(), a.LargestAvailable())
	require.Equal(t, size, got.Size())
	return got
}

// regionsByLocation collects the free regions in location order.
func regionsByLocation(a *Allocator) []Region {
	return slices.Collect(a.FreeRegionsByLocation())
}

// shadow mirrors the live allocations of an allocator under test.
type shadow struct {
	capacity Size
	live     map[Location]Allocation
}

func newShadow(capacity Size) *shadow {
	return &shadow{capacity: capacity, live: make(map[Location]Allocation)}
}

func (s *shadow) add(t testing.TB, got Allocation) {
	t.Helper()
	require.LessOrEqual(t, uint64(got.End()), uint64(s.capacity), "%s past capacity", got)
	for _, other := range s.live {
		overlap := got.Offset() < other.End() && other.Offset() < got.End()
		require.False(t, overlap, "%s overlaps live %s", got, other)
	}
	s.live[got.Offset()] = got
}

func (s *shadow) remove(a Allocation) {
	delete(s.live, a.Offset())
}

func (s *shadow) liveBytes() uint64 {
	var n uint64
	for _, a := range s.live {
		n += uint64(a.Size())
	}
	return n
}

// pick returns an arbitrary live allocation in deterministic order.
func (s *shadow) pick(n int) (Allocation, bool) {
	if len(s.live) == 0 {
		return Allocation{}, false
	}
	keys := make([]Location, 0, len(s.live))
	for k := range s.live {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return s.live[keys[n%len(keys)]], true
}

// assertInvariants checks the allocator against the shadow model.
func assertInvariants(t testing.TB, a *Allocator, s *shadow) {
	t.Helper()
	require.NoError(t, a.Validate())
	require.Equal(t, uint64(a.Capacity()), uint64(a.TotalAvailable())+s.liveBytes(),
		"free + live must equal capacity")
	require.Equal(t, len(s.live), a.LiveCount())

	var free uint64
	for r := range a.FreeRegions() {
		free += uint64(r.Size)
		for _, live := range s.live {
			overlap := r.Location < live.End() && live.Offset() < r.End()
			require.False(t, overlap, "free region [%d, %d) overlaps live %s", r.Location, r.End(), live)
		}
	}
	require.Equal(t, uint64(a.TotalAvailable()), free)
}
