// Package alloc provides an offset allocator for externally-owned linear pools.
//
// # Overview
//
// An Allocator hands out (offset, size) ranges of a pool it never touches:
// a GPU buffer, a memory-mapped file, an arena owned by someone else. It
// only keeps the bookkeeping: which extents are free and how large the
// pool is.
//
// Free space is indexed twice, by (size, location) and by location, using
// B-trees. That gives:
//
//   - best-fit placement: the tightest free region that can hold a request
//   - immediate coalescing: a freed range merges with free neighbors on
//     both sides before Free returns
//   - O(log n) Alloc, Free, TryReallocate and GrowCapacity
//
// # Usage Example
//
//	a, err := alloc.New(64 << 20)
//	if err != nil {
//	    return err
//	}
//
//	vb, ok := a.AllocWithAlign(4096, 256)
//	if !ok {
//	    return errPoolFull
//	}
//	upload(buffer, vb.Offset(), vertices)
//
//	// Grow in place if the range after vb is free.
//	vb, err = a.TryReallocate(vb, 8192)
//
//	a.Free(vb)
//
// # Results and Errors
//
// Alloc and AllocWithAlign report failure with a false second result. Running
// out of space is an ordinary outcome for a fixed pool, not an error.
//
// GrowCapacity and TryReallocate return errors that leave the allocator
// unchanged: ErrOverflow (as *OverflowError), ErrInvalid and
// ErrInsufficientSpace (as *InsufficientSpaceError).
//
// Misuse that would corrupt the free map panics with a cockroachdb/errors
// assertion failure. Freeing an allocation twice is caught when its start
// coincides with the start of a free region; New(capacity, WithLiveTracking())
// catches every stale or forged handle at the cost of a map lookup per
// operation.
//
// # Thread Safety
//
// Allocator instances are not safe for concurrent use. There is no internal
// locking: callers sharing an Allocator between goroutines must serialize
// every call, including the read-only accessors, with their own mutex or
// by confining the Allocator to a single goroutine.
package alloc
