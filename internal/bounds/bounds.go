// Package bounds contains overflow-checked arithmetic for 32-bit pool
// offsets.
package bounds

import (
	"fmt"
	"math"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would
// not fit in a uint32.
func AddOverflowSafe(a, b uint32) (uint32, bool) {
	if a > math.MaxUint32-b {
		return 0, false
	}
	return a + b, true
}

// AlignedSpan returns size+align-1, the number of units a region must hold
// to contain size units at some multiple of align. ok is false when align is
// zero or the span overflows.
func AlignedSpan(size, align uint32) (uint32, bool) {
	if align == 0 {
		return 0, false
	}
	return AddOverflowSafe(size, align-1)
}

// CheckExtent validates that [offset, offset+size) lies within [0, limit).
// It returns the end offset if valid, or an error describing the specific
// failure (overflow or out of bounds).
//
//	end, err := bounds.CheckExtent(capacity, r.Location, r.Size)
//	if err != nil {
//	    return fmt.Errorf("region: %w", err)
//	}
func CheckExtent(limit, offset, size uint32) (uint32, error) {
	end, ok := AddOverflowSafe(offset, size)
	if !ok {
		return 0, fmt.Errorf("overflow: offset=%d + size=%d", offset, size)
	}
	if end > limit {
		return 0, fmt.Errorf("bounds: end=%d > limit=%d", end, limit)
	}
	return end, nil
}

// Misalignment returns how far loc must advance to reach a multiple of
// align. align must be positive.
func Misalignment(loc, align uint32) uint32 {
	return (align - loc%align) % align
}
