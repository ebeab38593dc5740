// Package trace describes allocator workloads as YAML documents and replays
// them step by step against an alloc.Allocator.
//
// A trace names its allocations so later steps can refer to them:
//
//	capacity: 10000000
//	strict: true
//	validate: true
//	steps:
//	  - {op: alloc, name: large, size: 5000000}
//	  - {op: alloc, name: small, size: 3000, align: 8}
//	  - {op: free, name: small}
//	  - {op: realloc, name: large, size: 6000000}
//	  - {op: grow, size: 1000}
//	  - {op: expect, total: 4001000}
package trace

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Op names a trace step.
type Op string

const (
	OpAlloc   Op = "alloc"
	OpFree    Op = "free"
	OpRealloc Op = "realloc"
	OpGrow    Op = "grow"
	OpReset   Op = "reset"
	OpExpect  Op = "expect"
)

// ErrMalformed is wrapped by every structural problem found in a trace.
var ErrMalformed = errors.New("trace: malformed")

// Trace is a replayable allocator workload.
type Trace struct {
	Capacity uint32 `yaml:"capacity"`
	// Strict enables live tracking, so stale handles panic instead of being
	// silently accepted.
	Strict bool `yaml:"strict,omitempty"`
	// Validate runs Allocator.Validate after every step.
	Validate bool   `yaml:"validate,omitempty"`
	Steps    []Step `yaml:"steps"`
}

// Step is one operation. Which fields apply depends on Op.
type Step struct {
	Op    Op     `yaml:"op"`
	Name  string `yaml:"name,omitempty"`
	Size  uint32 `yaml:"size,omitempty"`
	Align uint32 `yaml:"align,omitempty"`
	// Fail marks an alloc or realloc that is expected not to succeed.
	Fail bool `yaml:"fail,omitempty"`

	// Expectations, checked by OpExpect. Nil means "don't care".
	Total    *uint32 `yaml:"total,omitempty"`
	Largest  *uint32 `yaml:"largest,omitempty"`
	Capacity *uint32 `yaml:"capacity,omitempty"`
	Regions  *int    `yaml:"regions,omitempty"`
}

// Parse decodes a trace and checks its structure.
func Parse(r io.Reader) (*Trace, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var tr Trace
	if err := dec.Decode(&tr); err != nil {
		return nil, errors.Wrap(err, "trace: decode")
	}
	if err := tr.Check(); err != nil {
		return nil, err
	}
	return &tr, nil
}

// Load reads and parses the trace at path.
func Load(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "trace: open %s", path)
	}
	defer f.Close()

	tr, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "trace: %s", path)
	}
	return tr, nil
}

// Encode writes tr as YAML.
func (tr *Trace) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(tr); err != nil {
		return errors.Wrap(err, "trace: encode")
	}
	return enc.Close()
}

// Check verifies that every step is well formed and that names are used
// consistently: allocated before they are freed or resized, and not
// allocated twice while live.
func (tr *Trace) Check() error {
	if tr.Capacity == 0 {
		return errors.Wrap(ErrMalformed, "capacity must be greater than zero")
	}

	live := make(map[string]bool)
	for i, st := range tr.Steps {
		bad := func(format string, args ...any) error {
			return errors.Wrapf(ErrMalformed, "step %d (%s): %s", i, st.Op, errors.Newf(format, args...))
		}

		switch st.Op {
		case OpAlloc:
			if st.Name == "" && !st.Fail {
				return bad("alloc needs a name")
			}
			if st.Size == 0 && !st.Fail {
				return bad("alloc needs a size")
			}
			if !st.Fail {
				if live[st.Name] {
					return bad("%q is already live", st.Name)
				}
				live[st.Name] = true
			}

		case OpFree:
			if !live[st.Name] {
				return bad("%q is not live", st.Name)
			}
			delete(live, st.Name)

		case OpRealloc:
			if !live[st.Name] {
				return bad("%q is not live", st.Name)
			}

		case OpGrow:
			// Growing by zero is a valid no-op.

		case OpReset:
			clear(live)

		case OpExpect:
			if st.Total == nil && st.Largest == nil && st.Capacity == nil && st.Regions == nil {
				return bad("expect has nothing to check")
			}

		default:
			return bad("unknown op")
		}
	}
	return nil
}
