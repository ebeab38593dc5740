package alloc

import (
	"log/slog"
	"math"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/orderly/internal/bounds"
	"github.com/joshuapare/orderly/internal/freeset"
)

// maxSize is the largest representable Size.
const maxSize = math.MaxUint32

// Allocator tracks free space in a linear pool of fixed (but growable)
// capacity.
//
//   - free: dual-indexed set of maximal free regions (by size and by location)
//   - available: sum of the free region sizes
//   - live: optional table of live allocations (WithLiveTracking)
type Allocator struct {
	free      *freeset.Set
	capacity  Size
	available Size

	live map[Location]Size

	log   *slog.Logger
	stats Stats
}

// New creates an allocator over a pool of the given capacity. The whole
// pool starts out as a single free region.
func New(capacity Size, opts ...Option) (*Allocator, error) {
	if capacity == 0 {
		return nil, ErrZeroCapacity
	}

	cfg := newConfig(opts)
	a := &Allocator{
		free:      freeset.New(cfg.degree),
		capacity:  capacity,
		available: capacity,
		log:       cfg.logger,
	}
	if cfg.liveTracking {
		a.live = make(map[Location]Size)
	}

	a.free.Insert(Region{Location: 0, Size: capacity})
	return a, nil
}

// Alloc reserves size contiguous units using best-fit placement.
// It returns false if size is zero or no free region is large enough.
func (a *Allocator) Alloc(size Size) (Allocation, bool) {
	return a.AllocWithAlign(size, 1)
}

// AllocWithAlign reserves size contiguous units starting at a multiple of
// align. Any positive align is accepted, not only powers of two.
//
// The search asks for size+align-1 units so that an aligned window is
// guaranteed to fit in whatever region is found. A region that would fit the
// request exactly but not the over-estimate is therefore passed over, which
// can leave more fragmentation than the unaligned path. It returns false if
// size or align is zero, size+align-1 overflows, or no region is large
// enough; in every such case the allocator is unchanged.
func (a *Allocator) AllocWithAlign(size, align Size) (Allocation, bool) {
	a.stats.AllocCalls++

	span, ok := bounds.AlignedSpan(size, align)
	if size == 0 || !ok {
		a.stats.AllocFailures++
		return Allocation{}, false
	}

	region, ok := a.free.FindAtLeast(span)
	if !ok {
		a.stats.AllocFailures++
		a.log.Debug("alloc: no region large enough",
			"size", size, "align", align,
			"available", a.available, "largest", a.LargestAvailable())
		return Allocation{}, false
	}

	a.free.Remove(region)
	loc, remaining := region.Location, region.Size

	// Re-register the bytes skipped to reach alignment.
	if misalignment := bounds.Misalignment(loc, align); misalignment != 0 {
		a.free.Insert(Region{Location: loc, Size: misalignment})
		a.stats.PaddingRegions++
		loc += misalignment
		remaining -= misalignment
	}

	if tail := remaining - size; tail > 0 {
		a.free.Insert(Region{Location: loc + size, Size: tail})
		a.stats.Splits++
	}

	a.available -= size
	out := Allocation{offset: loc, size: size}
	a.trackLive(out)
	return out, true
}

// Free returns an allocation's range to the pool, merging it with any free
// region that touches it on either side.
//
// Freeing a handle twice panics when the handle's start coincides with the
// start of a free region. A stale handle whose range was since absorbed into
// a larger free region goes unnoticed unless live tracking is enabled.
func (a *Allocator) Free(alloc Allocation) {
	a.mustBeInRange("free", alloc)
	a.untrackLive(alloc)
	a.release(alloc.region())
}

// mustBeInRange panics on handles no allocator could have issued: the zero
// Allocation and extents past the current capacity.
func (a *Allocator) mustBeInRange(op string, alloc Allocation) {
	if alloc.size == 0 {
		panic(errors.AssertionFailedf("alloc: %s of zero allocation", op))
	}
	if _, err := bounds.CheckExtent(a.capacity, alloc.offset, alloc.size); err != nil {
		panic(errors.NewAssertionErrorWithWrappedErrf(err, "alloc: %s of %s beyond capacity %d", op, alloc, a.capacity))
	}
}

// release inserts r into the free set, coalescing with its neighbors, and
// credits its size to available. A region already starting at r.Location
// panics before anything is touched, so the allocator stays consistent for
// a caller that recovers.
func (a *Allocator) release(r Region) {
	if prev, ok := a.free.At(r.Location); ok {
		panic(errors.AssertionFailedf(
			"alloc: region [%d, %d) collides with free region [%d, %d) (double free?)",
			r.Location, r.End(), prev.Location, prev.End(),
		))
	}
	a.stats.FreeCalls++
	merged := r

	if prev, ok := a.free.Before(r.Location); ok && prev.End() == r.Location {
		a.free.Remove(prev)
		merged.Location = prev.Location
		merged.Size += prev.Size
		a.stats.CoalesceBackward++
	}

	if next, ok := a.free.After(r.Location); ok && merged.End() == next.Location {
		a.free.Remove(next)
		merged.Size += next.Size
		a.stats.CoalesceForward++
	}

	a.free.Insert(merged)
	a.available += r.Size
}

// Reset frees every allocation at once, returning to a single free region
// spanning the whole capacity. Handles obtained before Reset must not be used
// afterwards.
func (a *Allocator) Reset() {
	a.stats.Resets++
	a.free.Clear()
	a.available = a.capacity
	a.free.Insert(Region{Location: 0, Size: a.capacity})
	if a.live != nil {
		clear(a.live)
	}
	a.log.Debug("alloc: reset", "capacity", a.capacity)
}

func (a *Allocator) trackLive(alloc Allocation) {
	if a.live != nil {
		a.live[alloc.offset] = alloc.size
	}
}

// untrackLive removes alloc from the live table, panicking if it is not
// exactly a live allocation.
func (a *Allocator) untrackLive(alloc Allocation) {
	if a.live == nil {
		return
	}
	a.mustBeLive(alloc)
	delete(a.live, alloc.offset)
}

func (a *Allocator) mustBeLive(alloc Allocation) {
	if a.live == nil {
		return
	}
	size, ok := a.live[alloc.offset]
	if !ok {
		panic(errors.AssertionFailedf("alloc: %s is not a live allocation (double free or stale handle)", alloc))
	}
	if size != alloc.size {
		panic(errors.AssertionFailedf("alloc: %s does not match live allocation of size %d", alloc, size))
	}
}
