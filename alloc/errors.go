package alloc

import (
	"errors"
	"fmt"
)

var (
	// ErrZeroCapacity indicates an attempt to create an allocator over an empty pool.
	ErrZeroCapacity = errors.New("alloc: capacity must be greater than zero")

	// ErrInvalid indicates a reallocation to size zero.
	ErrInvalid = errors.New("alloc: invalid reallocation size")

	// ErrOverflow indicates that growing the pool would exceed the Size domain.
	ErrOverflow = errors.New("alloc: capacity overflow")

	// ErrInsufficientSpace indicates that an allocation cannot grow in place.
	ErrInsufficientSpace = errors.New("alloc: insufficient contiguous space")
)

// OverflowError is returned by GrowCapacity when capacity+additional does
// not fit in a Size.
type OverflowError struct {
	Capacity   Size
	Additional Size
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("alloc: capacity overflow: %d + %d exceeds %d",
		e.Capacity, e.Additional, uint32(maxSize))
}

// Is reports whether target is ErrOverflow.
func (e *OverflowError) Is(target error) bool {
	return target == ErrOverflow
}

// InsufficientSpaceError is returned by TryReallocate when the free region
// following an allocation is missing or too small. Available is 0 when no
// free region starts at the allocation's end.
type InsufficientSpaceError struct {
	Required  Size
	Available Size
}

func (e *InsufficientSpaceError) Error() string {
	return fmt.Sprintf("alloc: insufficient contiguous space: need %d more, %d available",
		e.Required, e.Available)
}

// Is reports whether target is ErrInsufficientSpace.
func (e *InsufficientSpaceError) Is(target error) bool {
	return target == ErrInsufficientSpace
}
