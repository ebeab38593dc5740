package alloc

import (
	"fmt"

	"github.com/joshuapare/orderly/internal/freeset"
)

// Size is a length in pool units (usually bytes).
type Size = uint32

// Location is an offset into the pool, in [0, capacity).
type Location = uint32

// Region is a contiguous run of free space, as reported by FreeRegions.
type Region = freeset.Region

// Allocation is a handle to a live range of the pool. It carries no
// reference to the Allocator that produced it; it is valid until passed to
// Free or replaced by TryReallocate.
type Allocation struct {
	offset Location
	size   Size
}

// Offset returns the first location of the allocation.
func (a Allocation) Offset() Location { return a.offset }

// Size returns the length of the allocation. It is never zero for a handle
// returned by an Allocator.
func (a Allocation) Size() Size { return a.size }

// End returns the first location past the allocation.
func (a Allocation) End() Location { return a.offset + a.size }

// IsZero reports whether a is the zero value, which no Allocator returns.
func (a Allocation) IsZero() bool { return a.size == 0 }

func (a Allocation) String() string {
	return fmt.Sprintf("[%d, %d)", a.offset, a.End())
}

// region converts the allocation's extent to a free-set region.
func (a Allocation) region() Region {
	return Region{Location: a.offset, Size: a.size}
}

// Stats holds allocator counters.
type Stats struct {
	AllocCalls       int    // Alloc and AllocWithAlign calls
	AllocFailures    int    // allocations that found no region
	FreeCalls        int    // Free calls, including internal ones from shrink and grow
	Splits           int    // allocations that left a tail region behind
	PaddingRegions   int    // alignment padding regions re-registered as free
	CoalesceBackward int    // merges with the preceding free region
	CoalesceForward  int    // merges with the following free region
	GrowCalls        int    // successful GrowCapacity calls with additional > 0
	GrowBytes        uint64 // total capacity added
	ReallocCalls     int    // TryReallocate calls
	ReallocFailures  int    // TryReallocate calls that returned an error
	Resets           int    // Reset calls
}
