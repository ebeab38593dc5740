package alloc

import "github.com/joshuapare/orderly/internal/bounds"

// GrowCapacity extends the pool by additional units at its high end. The new
// space is freed like any other range, so it merges with a free region that
// touches the old end of the pool.
//
// Growing by zero is a no-op. If the new capacity would not fit in a Size,
// GrowCapacity returns an *OverflowError and changes nothing.
func (a *Allocator) GrowCapacity(additional Size) error {
	if additional == 0 {
		return nil
	}

	newCapacity, ok := bounds.AddOverflowSafe(a.capacity, additional)
	if !ok {
		a.log.Debug("alloc: grow overflow", "capacity", a.capacity, "additional", additional)
		return &OverflowError{Capacity: a.capacity, Additional: additional}
	}

	oldCapacity := a.capacity
	a.capacity = newCapacity
	a.release(Region{Location: oldCapacity, Size: additional})

	a.stats.GrowCalls++
	a.stats.GrowBytes += uint64(additional)
	a.log.Debug("alloc: grew", "from", oldCapacity, "to", a.capacity)
	return nil
}

// TryReallocate resizes alloc in place; the returned allocation always has
// the same offset.
//
//   - newSize == 0: ErrInvalid
//   - newSize == alloc.Size(): alloc is returned unchanged
//   - shrinking: the tail is freed (and coalesces) and the call succeeds
//   - growing: succeeds only if a free region starts exactly at alloc.End()
//     and holds at least newSize-alloc.Size() units; otherwise an
//     *InsufficientSpaceError reports what was needed and what was there
//
// Like Free, it panics on the zero Allocation or one extending past the
// capacity. On error the allocator is unchanged and alloc remains valid. On
// success alloc is consumed and only the returned handle may be used.
func (a *Allocator) TryReallocate(alloc Allocation, newSize Size) (Allocation, error) {
	a.stats.ReallocCalls++

	a.mustBeInRange("realloc", alloc)
	if newSize == 0 {
		a.stats.ReallocFailures++
		return alloc, ErrInvalid
	}
	a.mustBeLive(alloc)

	switch {
	case newSize == alloc.size:
		return alloc, nil

	case newSize < alloc.size:
		shrunk := Allocation{offset: alloc.offset, size: newSize}
		a.release(Region{Location: shrunk.End(), Size: alloc.size - newSize})
		a.trackLive(shrunk)
		return shrunk, nil
	}

	required := newSize - alloc.size
	next, ok := a.free.At(alloc.End())
	if !ok {
		a.stats.ReallocFailures++
		return alloc, &InsufficientSpaceError{Required: required}
	}
	if next.Size < required {
		a.stats.ReallocFailures++
		return alloc, &InsufficientSpaceError{Required: required, Available: next.Size}
	}

	a.free.Remove(next)
	if rest := next.Size - required; rest > 0 {
		a.free.Insert(Region{Location: next.Location + required, Size: rest})
	}
	a.available -= required

	grown := Allocation{offset: alloc.offset, size: newSize}
	a.trackLive(grown)
	return grown, nil
}
