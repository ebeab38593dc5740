package trace

import (
	"context"
	"io"
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/orderly/alloc"
)

// ErrUnexpected is wrapped when a step's outcome differs from the trace's
// expectation.
var ErrUnexpected = errors.New("trace: unexpected outcome")

// Record is the outcome of one replayed step.
type Record struct {
	Index      int              `json:"index"`
	Op         Op               `json:"op"`
	Name       string           `json:"name,omitempty"`
	Allocation alloc.Allocation `json:"-"`
	Offset     uint32           `json:"offset"`
	Size       uint32           `json:"size,omitempty"`
	OK         bool             `json:"ok"`
	Err        string           `json:"error,omitempty"`
	Available  uint32           `json:"available"`
	Largest    uint32           `json:"largest"`
}

// Result is the outcome of a replay.
type Result struct {
	Records   []Record
	Allocator *alloc.Allocator
	// Live maps trace names to the allocations still held at the end.
	Live map[string]alloc.Allocation
}

type replayConfig struct {
	logger *slog.Logger
}

// ReplayOption configures Replay.
type ReplayOption func(*replayConfig)

// WithLogger logs each step at debug level to l.
func WithLogger(l *slog.Logger) ReplayOption {
	return func(c *replayConfig) {
		c.logger = l
	}
}

// Replay runs tr against a fresh allocator. It stops at the first step whose
// outcome contradicts the trace, returning the partial result along with an
// error wrapping ErrUnexpected. Cancelling ctx stops the replay between
// steps.
func Replay(ctx context.Context, tr *Trace, opts ...ReplayOption) (*Result, error) {
	cfg := replayConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := tr.Check(); err != nil {
		return nil, err
	}

	allocOpts := []alloc.Option{alloc.WithLogger(cfg.logger)}
	if tr.Strict {
		allocOpts = append(allocOpts, alloc.WithLiveTracking())
	}
	a, err := alloc.New(tr.Capacity, allocOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "trace: replay")
	}

	res := &Result{
		Allocator: a,
		Live:      make(map[string]alloc.Allocation),
	}
	for i, st := range tr.Steps {
		if err := ctx.Err(); err != nil {
			return res, errors.Wrapf(err, "trace: replay stopped before step %d", i)
		}

		rec, err := res.apply(i, st)
		rec.Available = a.TotalAvailable()
		rec.Largest = a.LargestAvailable()
		res.Records = append(res.Records, rec)
		if err != nil {
			return res, errors.Wrapf(err, "step %d (%s %s)", i, st.Op, st.Name)
		}

		cfg.logger.Debug("trace step",
			"index", i, "op", st.Op, "name", st.Name,
			"ok", rec.OK, "available", rec.Available, "largest", rec.Largest)

		if tr.Validate {
			if err := a.Validate(); err != nil {
				return res, errors.Wrapf(err, "step %d (%s %s): invariant violated", i, st.Op, st.Name)
			}
		}
	}
	return res, nil
}

func (res *Result) apply(i int, st Step) (Record, error) {
	a := res.Allocator
	rec := Record{Index: i, Op: st.Op, Name: st.Name}

	switch st.Op {
	case OpAlloc:
		align := st.Align
		if align == 0 {
			align = 1
		}
		got, ok := a.AllocWithAlign(st.Size, align)
		rec.OK = ok
		if ok {
			rec.setAllocation(got)
		}
		if ok == st.Fail {
			return rec, errors.Wrapf(ErrUnexpected, "alloc of %d (align %d): got ok=%t", st.Size, align, ok)
		}
		if ok {
			res.Live[st.Name] = got
		}

	case OpFree:
		victim := res.Live[st.Name]
		a.Free(victim)
		delete(res.Live, st.Name)
		rec.OK = true
		rec.setAllocation(victim)

	case OpRealloc:
		got, err := a.TryReallocate(res.Live[st.Name], st.Size)
		rec.OK = err == nil
		if err != nil {
			rec.Err = err.Error()
		}
		rec.setAllocation(got)
		if rec.OK == st.Fail {
			return rec, errors.Wrapf(ErrUnexpected, "realloc to %d: %v", st.Size, err)
		}
		if err == nil {
			res.Live[st.Name] = got
		}

	case OpGrow:
		if err := a.GrowCapacity(st.Size); err != nil {
			rec.Err = err.Error()
			return rec, err
		}
		rec.OK = true

	case OpReset:
		a.Reset()
		clear(res.Live)
		rec.OK = true

	case OpExpect:
		if err := expect(a, st); err != nil {
			rec.Err = err.Error()
			return rec, err
		}
		rec.OK = true
	}
	return rec, nil
}

func (rec *Record) setAllocation(a alloc.Allocation) {
	rec.Allocation = a
	rec.Offset = a.Offset()
	rec.Size = a.Size()
}

func expect(a *alloc.Allocator, st Step) error {
	check := func(what string, want *uint32, got uint32) error {
		if want != nil && *want != got {
			return errors.Wrapf(ErrUnexpected, "%s: want %d, got %d", what, *want, got)
		}
		return nil
	}
	if err := check("total", st.Total, a.TotalAvailable()); err != nil {
		return err
	}
	if err := check("largest", st.Largest, a.LargestAvailable()); err != nil {
		return err
	}
	if err := check("capacity", st.Capacity, a.Capacity()); err != nil {
		return err
	}
	if st.Regions != nil && *st.Regions != a.FreeRegionCount() {
		return errors.Wrapf(ErrUnexpected, "regions: want %d, got %d", *st.Regions, a.FreeRegionCount())
	}
	return nil
}
