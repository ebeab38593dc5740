// Package workload drives suballocators through the synthetic churn patterns
// used to compare allocator throughput.
package workload

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/orderly/alloc"
)

// ErrExhausted is returned when a workload's allocation request fails.
var ErrExhausted = errors.New("workload: allocator exhausted")

// Suballocator is the minimal surface a workload needs.
type Suballocator interface {
	Allocate(size uint32) (alloc.Allocation, bool)
	Deallocate(a alloc.Allocation)
}

// Orderly adapts *alloc.Allocator to Suballocator.
type Orderly struct {
	*alloc.Allocator
}

// NewOrderly creates an adapted allocator with the given capacity.
func NewOrderly(capacity uint32, opts ...alloc.Option) (*Orderly, error) {
	a, err := alloc.New(capacity, opts...)
	if err != nil {
		return nil, err
	}
	return &Orderly{Allocator: a}, nil
}

func (o *Orderly) Allocate(size uint32) (alloc.Allocation, bool) { return o.Alloc(size) }

func (o *Orderly) Deallocate(a alloc.Allocation) { o.Free(a) }

// Report summarizes one workload run.
type Report struct {
	Name    string        `json:"name"`
	Allocs  int           `json:"allocs"`
	Frees   int           `json:"frees"`
	Elapsed time.Duration `json:"elapsed"`
}

// OpsPerSecond returns the combined alloc+free rate.
func (r Report) OpsPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Allocs+r.Frees) / r.Elapsed.Seconds()
}

// ErrInvalidCount is returned by FillFree for a count outside
// [1, MaxFillCount].
var ErrInvalidCount = errors.New("workload: invalid allocation count")

// MaxFillCount is the largest n whose FillFreeCapacity fits in a uint32.
const MaxFillCount = math.MaxUint32 / 2

// FillFreeCapacity is the pool size FillFree expects for n allocations.
// n must be in [1, MaxFillCount].
func FillFreeCapacity(n int) uint32 {
	return uint32(n) * 2
}

// FillFree makes n one-unit allocations, then frees them in allocation
// order. The allocator should have at least FillFreeCapacity(n) units.
func FillFree(s Suballocator, n int) (Report, error) {
	rep := Report{Name: "fill-free"}
	if n <= 0 || n > MaxFillCount {
		return rep, errors.Wrapf(ErrInvalidCount, "fill-free: %d", n)
	}
	live := make([]alloc.Allocation, 0, n)

	start := time.Now()
	for range n {
		a, ok := s.Allocate(1)
		if !ok {
			return rep, errors.Wrapf(ErrExhausted, "fill-free: allocation %d of %d", len(live), n)
		}
		live = append(live, a)
		rep.Allocs++
	}
	for _, a := range live {
		s.Deallocate(a)
		rep.Frees++
	}
	rep.Elapsed = time.Since(start)
	return rep, nil
}

// RandomCapacity is the pool size the Random workload was tuned for.
const RandomCapacity = 1_000_000

// Random runs rounds of churn: each round allocates 1-9 blocks of 1-999
// units, then frees up to 1-9 randomly chosen live blocks. Remaining blocks
// are freed at the end. The same seed always produces the same sequence.
func Random(s Suballocator, seed uint64, rounds int) (Report, error) {
	rep := Report{Name: "random"}
	rng := rand.New(rand.NewPCG(seed, seed))
	var live []alloc.Allocation

	start := time.Now()
	for round := range rounds {
		for range 1 + rng.IntN(9) {
			size := uint32(1 + rng.IntN(999))
			a, ok := s.Allocate(size)
			if !ok {
				return rep, errors.Wrapf(ErrExhausted, "random: round %d, size %d", round, size)
			}
			live = append(live, a)
			rep.Allocs++
		}

		for range min(1+rng.IntN(9), len(live)) {
			idx := rng.IntN(len(live))
			a := live[idx]
			live[idx] = live[len(live)-1]
			live = live[:len(live)-1]
			s.Deallocate(a)
			rep.Frees++
		}
	}
	for _, a := range live {
		s.Deallocate(a)
		rep.Frees++
	}
	rep.Elapsed = time.Since(start)
	return rep, nil
}
