package alloc

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreeRegions_OrderAndSnapshot(t *testing.T) {
	a := newTestAllocator(t, 1000)

	// [x:100][free:50][y:100][free:10][z:100][free:640]
	mustAlloc(t, a, 100)
	hole50 := mustAlloc(t, a, 50)
	mustAlloc(t, a, 100)
	hole10 := mustAlloc(t, a, 10)
	mustAlloc(t, a, 100)
	a.Free(hole50)
	a.Free(hole10)

	regions := a.FreeRegions()
	want := []Region{
		{Location: 250, Size: 10},
		{Location: 100, Size: 50},
		{Location: 360, Size: 640},
	}
	assert.Equal(t, want, slices.Collect(regions), "ordered by size, then location")

	// Mutations after the call are not visible through the sequence.
	mustAlloc(t, a, 10)
	mustAlloc(t, a, 600)
	assert.Equal(t, want, slices.Collect(regions), "sequence is a restartable snapshot")

	assert.Equal(t, []Region{
		{Location: 100, Size: 50},
		{Location: 960, Size: 40},
	}, slices.Collect(a.FreeRegionsByLocation()))
}

func TestFreeRegions_EarlyStop(t *testing.T) {
	a := newTestAllocator(t, 100)
	mustAlloc(t, a, 10)
	hole := mustAlloc(t, a, 10)
	mustAlloc(t, a, 10)
	a.Free(hole)

	n := 0
	for range a.FreeRegions() {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestLargestAvailable_Full(t *testing.T) {
	a := newTestAllocator(t, 64)
	mustAlloc(t, a, 64)
	assert.Zero(t, a.LargestAvailable())
	assert.Zero(t, a.Fragmentation())
}

func TestFragmentation(t *testing.T) {
	a := newTestAllocator(t, 400)
	assert.Zero(t, a.Fragmentation())

	// [free:100][x:100][free:100][y:100]
	first := mustAlloc(t, a, 100)
	mustAlloc(t, a, 100)
	third := mustAlloc(t, a, 100)
	mustAlloc(t, a, 100)
	a.Free(first)
	a.Free(third)

	assert.InDelta(t, 0.5, a.Fragmentation(), 1e-9)
}

func TestStats_Counts(t *testing.T) {
	a := newTestAllocator(t, 1000)

	x := mustAlloc(t, a, 10)
	_, ok := a.Alloc(5000)
	require.False(t, ok)
	_, ok = a.AllocWithAlign(10, 16)
	require.True(t, ok)
	a.Free(x)
	_, err := a.TryReallocate(x, 0)
	require.Error(t, err)

	st := a.Stats()
	assert.Equal(t, 3, st.AllocCalls)
	assert.Equal(t, 1, st.AllocFailures)
	assert.Equal(t, 1, st.FreeCalls)
	assert.Equal(t, 2, st.Splits)
	assert.Equal(t, 1, st.PaddingRegions)
	assert.Equal(t, 1, st.ReallocCalls)
	assert.Equal(t, 1, st.ReallocFailures)
}

func TestValidate_DetectsCorruption(t *testing.T) {
	a := newTestAllocator(t, 1000)
	mustAlloc(t, a, 100)
	require.NoError(t, a.Validate())

	a.available++
	err := a.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available")
	a.available--

	// A live allocation the free map does not know about.
	a.live[500] = 10
	require.Error(t, a.Validate())
	delete(a.live, 500)
	require.NoError(t, a.Validate())
}

func TestAllocation_String(t *testing.T) {
	a := newTestAllocator(t, 100)
	mustAlloc(t, a, 7)
	got := mustAlloc(t, a, 5)
	assert.Equal(t, "[7, 12)", got.String())
	assert.Equal(t, Location(12), got.End())
	assert.False(t, got.IsZero())
}
