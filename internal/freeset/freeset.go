// Package freeset keeps the set of free extents of a linear pool in two
// orderings at once: by (size, location) for best-fit lookups, and by
// location for neighbor lookups while coalescing.
//
// Both orderings live in github.com/google/btree trees and every mutation
// goes through Insert or Remove, which update the two trees as a pair. A
// Set never exposes a state where one view has been updated and the other
// has not.
//
// Structural violations (inserting over an existing start location, removing
// a region that is not present) are programming errors and panic with a
// cockroachdb/errors assertion failure.
package freeset

import (
	"github.com/cockroachdb/errors"
	"github.com/google/btree"
)

// DefaultDegree is the B-tree degree used when New is given a degree < 2.
const DefaultDegree = 32

// Region is a maximal contiguous run of free space.
type Region struct {
	Location uint32
	Size     uint32
}

// End returns the first location past the region.
func (r Region) End() uint32 {
	return r.Location + r.Size
}

// bySize orders regions by size, then location.
func bySize(a, b Region) bool {
	if a.Size != b.Size {
		return a.Size < b.Size
	}
	return a.Location < b.Location
}

// byLocation orders regions by start location only. Size is ignored, so a
// Region{Location: x} works as a lookup key.
func byLocation(a, b Region) bool {
	return a.Location < b.Location
}

// Set is the dual-indexed free-region set. The zero value is not usable;
// call New.
type Set struct {
	sized   *btree.BTreeG[Region]
	located *btree.BTreeG[Region]
}

// New creates an empty set whose trees have the given degree.
func New(degree int) *Set {
	if degree < 2 {
		degree = DefaultDegree
	}
	return &Set{
		sized:   btree.NewG(degree, bySize),
		located: btree.NewG(degree, byLocation),
	}
}

// Len returns the number of free regions.
func (s *Set) Len() int {
	return s.sized.Len()
}

// Insert adds r to both views.
func (s *Set) Insert(r Region) {
	if r.Size == 0 {
		panic(errors.AssertionFailedf("freeset: insert of empty region at %d", r.Location))
	}
	if prev, found := s.located.ReplaceOrInsert(r); found {
		// Put the original back so the views stay paired for anyone who
		// recovers from the panic.
		s.located.ReplaceOrInsert(prev)
		panic(errors.AssertionFailedf(
			"freeset: region [%d, %d) collides with free region [%d, %d) (double free?)",
			r.Location, r.End(), prev.Location, prev.End(),
		))
	}
	s.sized.ReplaceOrInsert(r)
}

// Remove deletes r from both views. r must match a stored region exactly.
func (s *Set) Remove(r Region) {
	stored, ok := s.located.Get(r)
	if !ok || stored.Size != r.Size || !s.sized.Has(r) {
		panic(errors.AssertionFailedf(
			"freeset: remove of unknown region [%d, %d)", r.Location, r.End(),
		))
	}
	s.located.Delete(r)
	s.sized.Delete(r)
}

// FindAtLeast returns the smallest region whose size is >= minSize, ties
// broken toward the lowest location.
func (s *Set) FindAtLeast(minSize uint32) (Region, bool) {
	var (
		out   Region
		found bool
	)
	s.sized.AscendGreaterOrEqual(Region{Size: minSize}, func(r Region) bool {
		out, found = r, true
		return false
	})
	return out, found
}

// At returns the region starting exactly at loc.
func (s *Set) At(loc uint32) (Region, bool) {
	return s.located.Get(Region{Location: loc})
}

// Before returns the free region with the greatest start strictly below loc.
func (s *Set) Before(loc uint32) (Region, bool) {
	var (
		out   Region
		found bool
	)
	s.located.DescendLessOrEqual(Region{Location: loc}, func(r Region) bool {
		if r.Location == loc {
			return true
		}
		out, found = r, true
		return false
	})
	return out, found
}

// After returns the free region with the smallest start strictly above loc.
func (s *Set) After(loc uint32) (Region, bool) {
	var (
		out   Region
		found bool
	)
	s.located.AscendGreaterOrEqual(Region{Location: loc}, func(r Region) bool {
		if r.Location == loc {
			return true
		}
		out, found = r, true
		return false
	})
	return out, found
}

// Largest returns the biggest region (highest location among equals).
func (s *Set) Largest() (Region, bool) {
	return s.sized.Max()
}

// Clear drops every region from both views.
func (s *Set) Clear() {
	s.sized.Clear(false)
	s.located.Clear(false)
}

// Ascend calls fn for each region in (size, location) order until fn
// returns false.
func (s *Set) Ascend(fn func(Region) bool) {
	s.sized.Ascend(fn)
}

// AscendByLocation calls fn for each region in location order until fn
// returns false.
func (s *Set) AscendByLocation(fn func(Region) bool) {
	s.located.Ascend(fn)
}

// Snapshot returns a read-only copy of the set. The copy shares nodes with
// s lazily, so taking it is O(1); later mutations of s are not visible
// through it.
func (s *Set) Snapshot() *Snapshot {
	return &Snapshot{
		sized:   s.sized.Clone(),
		located: s.located.Clone(),
	}
}

// Snapshot is a point-in-time view of a Set.
type Snapshot struct {
	sized   *btree.BTreeG[Region]
	located *btree.BTreeG[Region]
}

// Len returns the number of regions captured.
func (s *Snapshot) Len() int {
	return s.sized.Len()
}

// Ascend walks the captured regions in (size, location) order.
func (s *Snapshot) Ascend(fn func(Region) bool) {
	s.sized.Ascend(fn)
}

// AscendByLocation walks the captured regions in location order.
func (s *Snapshot) AscendByLocation(fn func(Region) bool) {
	s.located.Ascend(fn)
}

// Check verifies that the two views describe the same regions. It returns
// the first mismatch found.
func (s *Set) Check() error {
	if s.sized.Len() != s.located.Len() {
		return errors.Newf("freeset: size view has %d regions, location view has %d",
			s.sized.Len(), s.located.Len())
	}
	var err error
	s.located.Ascend(func(r Region) bool {
		if !s.sized.Has(r) {
			err = errors.Newf("freeset: region [%d, %d) missing from size view",
				r.Location, r.End())
			return false
		}
		return true
	})
	return err
}
