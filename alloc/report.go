package alloc

import (
	"iter"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/orderly/internal/bounds"
)

// Capacity returns the total size of the pool.
func (a *Allocator) Capacity() Size {
	return a.capacity
}

// TotalAvailable returns the number of free units. Free space may be
// fragmented, so an allocation of this size can still fail; see
// LargestAvailable.
func (a *Allocator) TotalAvailable() Size {
	return a.available
}

// LargestAvailable returns the size of the largest free region, or 0 when
// the pool is full.
func (a *Allocator) LargestAvailable() Size {
	r, ok := a.free.Largest()
	if !ok {
		return 0
	}
	return r.Size
}

// IsEmpty reports whether nothing is allocated.
func (a *Allocator) IsEmpty() bool {
	return a.available == a.capacity
}

// FreeRegionCount returns the number of disjoint free regions.
func (a *Allocator) FreeRegionCount() int {
	return a.free.Len()
}

// LiveCount returns the number of live allocations, or 0 when live tracking
// is disabled.
func (a *Allocator) LiveCount() int {
	return len(a.live)
}

// Fragmentation returns 1 - LargestAvailable/TotalAvailable: 0 when all free
// space is a single region (or there is none), approaching 1 as free space
// splinters.
func (a *Allocator) Fragmentation() float64 {
	if a.available == 0 {
		return 0
	}
	return 1 - float64(a.LargestAvailable())/float64(a.available)
}

// Stats returns a copy of the allocator's counters.
func (a *Allocator) Stats() Stats {
	return a.stats
}

// FreeRegions returns the current free regions ordered by size, then
// location. The sequence is a snapshot: it reflects the allocator at the
// time of the call, may be ranged over any number of times, and is not
// affected by later calls. It is meant for diagnostics; do not pick
// allocation targets from it.
func (a *Allocator) FreeRegions() iter.Seq[Region] {
	snap := a.free.Snapshot()
	return func(yield func(Region) bool) {
		snap.Ascend(yield)
	}
}

// FreeRegionsByLocation is FreeRegions ordered by location.
func (a *Allocator) FreeRegionsByLocation() iter.Seq[Region] {
	snap := a.free.Snapshot()
	return func(yield func(Region) bool) {
		snap.AscendByLocation(yield)
	}
}

// Validate checks the allocator's internal consistency and returns the first
// violation found:
//
//   - both free-region views hold the same regions
//   - free regions lie inside the pool, do not overlap and do not touch
//   - available equals the sum of free region sizes
//
// With live tracking it also checks that free regions and live allocations
// tile the pool exactly.
func (a *Allocator) Validate() error {
	if err := a.free.Check(); err != nil {
		return err
	}

	var (
		err      error
		sum      uint64
		prev     Region
		havePrev bool
	)
	a.free.AscendByLocation(func(r Region) bool {
		_, berr := bounds.CheckExtent(a.capacity, r.Location, r.Size)
		switch {
		case r.Size == 0:
			err = errors.Newf("free region at %d is empty", r.Location)
		case berr != nil:
			err = errors.Wrapf(berr, "free region at %d size %d exceeds capacity %d",
				r.Location, r.Size, a.capacity)
		case havePrev && prev.End() > r.Location:
			err = errors.Newf("free regions [%d, %d) and [%d, %d) overlap",
				prev.Location, prev.End(), r.Location, r.End())
		case havePrev && prev.End() == r.Location:
			err = errors.Newf("free regions [%d, %d) and [%d, %d) were not coalesced",
				prev.Location, prev.End(), r.Location, r.End())
		}
		sum += uint64(r.Size)
		prev, havePrev = r, true
		return err == nil
	})
	if err != nil {
		return err
	}
	if sum != uint64(a.available) {
		return errors.Newf("available is %d but free regions sum to %d", a.available, sum)
	}

	if a.live != nil {
		return a.validateTiling()
	}
	return nil
}

// validateTiling checks that live allocations and free regions, taken
// together in location order, cover [0, capacity) with no gap or overlap.
func (a *Allocator) validateTiling() error {
	var liveSum uint64
	for _, size := range a.live {
		liveSum += uint64(size)
	}
	if liveSum+uint64(a.available) != uint64(a.capacity) {
		return errors.Newf("live %d + free %d != capacity %d", liveSum, a.available, a.capacity)
	}

	var err error
	cursor := Location(0)
	advanceLive := func(limit Location) {
		for cursor < limit && err == nil {
			size, ok := a.live[cursor]
			if !ok {
				err = errors.Newf("location %d is neither free nor allocated", cursor)
				return
			}
			cursor += size
		}
		if err == nil && cursor != limit {
			err = errors.Newf("allocation ending at %d overlaps free region at %d", cursor, limit)
		}
	}

	a.free.AscendByLocation(func(r Region) bool {
		advanceLive(r.Location)
		cursor = r.End()
		return err == nil
	})
	if err == nil && cursor != a.capacity {
		advanceLive(a.capacity)
	}
	return err
}
