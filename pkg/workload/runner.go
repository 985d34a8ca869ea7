package workload

import (
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/joshuapare/tagalloc/pool"
)

var (
	// ErrUnknownName indicates a free of a name that was never allocated.
	ErrUnknownName = errors.New("workload: unknown block name")

	// ErrNameInUse indicates an alloc reusing the name of a live block.
	ErrNameInUse = errors.New("workload: name already allocated")

	// ErrPayloadMismatch indicates a payload that no longer holds the
	// pattern written into it at allocation time.
	ErrPayloadMismatch = errors.New("workload: payload clobbered")
)

// Result is the outcome of one op.
type Result struct {
	Op  Op
	Ref pool.Ref // Allocated or freed reference, 0 if none
	Err error
}

// Report summarises a run.
type Report struct {
	Results []Result

	Allocs          int // Successful allocations
	Frees           int // Successful frees
	Checks          int // Consistency checks that passed
	OutOfSpace      int
	DoubleFrees     int
	InvalidRefs     int
	UnknownNames    int
	CorruptPayloads int

	Stats pool.Stats // Pool statistics after the last op
}

// Failed returns the results that carry an error.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

type block struct {
	ref   pool.Ref
	size  int
	seed  uint64
	freed bool
}

// Runner replays ops against an allocator.
//
// Each allocation is filled with a pattern derived from its name and the
// pattern is verified before the block is freed. Recoverable outcomes
// (out of space, double free, unknown names, clobbered payloads) are recorded
// in the Report; corruption stops the run.
type Runner struct {
	Alloc pool.Allocator

	// CheckEach runs Check after every op, not only on explicit check ops.
	CheckEach bool

	// Logger receives one debug line per op. Nil means no logging.
	Logger log.Logger

	blocks map[string]*block
	owners map[pool.Ref]string // live ref -> name
}

// NewRunner returns a runner for a.
func NewRunner(a pool.Allocator) *Runner {
	return &Runner{Alloc: a, Logger: log.NewNopLogger()}
}

// Run executes ops in order. The returned report is never nil; the error is
// non-nil only when the pool reported corruption.
func (r *Runner) Run(ops []Op) (*Report, error) {
	if r.Logger == nil {
		r.Logger = log.NewNopLogger()
	}
	if r.blocks == nil {
		r.blocks = make(map[string]*block)
	}
	if r.owners == nil {
		r.owners = make(map[pool.Ref]string)
	}

	rep := &Report{Results: make([]Result, 0, len(ops))}
	for _, op := range ops {
		res := r.step(op, rep)
		if res.Err == nil && r.CheckEach && op.Kind != OpCheck {
			res.Err = r.Alloc.Check()
		}
		rep.Results = append(rep.Results, res)

		level.Debug(r.Logger).Log("msg", "op", "op", op.String(), "line", op.Line, "ref", res.Ref, "err", res.Err)
		if errors.Is(res.Err, pool.ErrCorruption) {
			rep.Stats = r.Alloc.Stats()
			return rep, fmt.Errorf("%s (line %d): %w", op, op.Line, res.Err)
		}
	}
	rep.Stats = r.Alloc.Stats()
	return rep, nil
}

func (r *Runner) step(op Op, rep *Report) Result {
	res := Result{Op: op}
	switch op.Kind {
	case OpAlloc:
		if b, ok := r.blocks[op.Name]; ok && !b.freed {
			res.Err = fmt.Errorf("%w: %q", ErrNameInUse, op.Name)
			return res
		}
		ref, payload, err := r.Alloc.Alloc(op.Size)
		if err != nil {
			if errors.Is(err, pool.ErrOutOfSpace) {
				rep.OutOfSpace++
			}
			res.Err = err
			return res
		}
		b := &block{ref: ref, size: op.Size, seed: xxhash.Sum64String(op.Name)}
		fill(payload, b.seed)
		r.blocks[op.Name] = b
		r.owners[ref] = op.Name
		res.Ref = ref
		rep.Allocs++

	case OpFree:
		b, ok := r.blocks[op.Name]
		if !ok {
			rep.UnknownNames++
			res.Err = fmt.Errorf("%w: %q", ErrUnknownName, op.Name)
			return res
		}
		res.Ref = b.ref
		if owner, live := r.owners[b.ref]; b.freed && live {
			// The address now belongs to another block; freeing it would
			// release that block instead.
			rep.DoubleFrees++
			res.Err = fmt.Errorf("%w: %q (ref %d reused by %q)", pool.ErrDoubleFree, op.Name, b.ref, owner)
			return res
		}
		if !b.freed {
			if err := r.verifyPayload(b); err != nil {
				rep.CorruptPayloads++
				res.Err = err
			}
		}
		if err := r.Alloc.Free(b.ref); err != nil {
			switch {
			case errors.Is(err, pool.ErrDoubleFree):
				rep.DoubleFrees++
			case errors.Is(err, pool.ErrInvalidReference):
				rep.InvalidRefs++
			}
			res.Err = errors.Join(res.Err, err)
			return res
		}
		b.freed = true
		delete(r.owners, b.ref)
		rep.Frees++

	case OpCheck:
		if err := r.Alloc.Check(); err != nil {
			res.Err = err
			return res
		}
		rep.Checks++

	default:
		res.Err = fmt.Errorf("workload: unknown op kind %v", op.Kind)
	}
	return res
}

func (r *Runner) verifyPayload(b *block) error {
	payload, err := r.Alloc.Payload(b.ref)
	if err != nil {
		return err
	}
	if len(payload) < b.size {
		return fmt.Errorf("%w: ref %d holds %d bytes, want %d", ErrPayloadMismatch, b.ref, len(payload), b.size)
	}
	if i := mismatch(payload[:b.size], b.seed); i >= 0 {
		return fmt.Errorf("%w: ref %d byte %d", ErrPayloadMismatch, b.ref, i)
	}
	return nil
}

// fill writes the pattern for seed into p.
func fill(p []byte, seed uint64) {
	for i := range p {
		p[i] = patternByte(seed, i)
	}
}

// mismatch returns the first index where p deviates from the pattern, or -1.
func mismatch(p []byte, seed uint64) int {
	for i := range p {
		if p[i] != patternByte(seed, i) {
			return i
		}
	}
	return -1
}

func patternByte(seed uint64, i int) byte {
	return byte(seed>>(uint(i%8)*8)) ^ byte(i)
}
