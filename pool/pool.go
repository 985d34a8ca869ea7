package pool

import (
	"fmt"
	"math"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/joshuapare/tagalloc/internal/buf"
	"github.com/joshuapare/tagalloc/internal/format"
	"github.com/joshuapare/tagalloc/internal/reserve"
	"github.com/joshuapare/tagalloc/pool/verify"
)

// Pool is a best-fit allocator over a single fixed-size arena.
//
// Every block is framed by a header and a footer tag (see internal/format),
// free blocks are threaded on an explicit doubly-linked list through their
// header tags, and freeing coalesces with both neighbours in O(1).
//
// A Pool is not safe for concurrent use; wrap it in Locked to share it.
type Pool struct {
	region *reserve.Region
	data   []byte // nil once closed

	// Free list, as header offsets (format.NoLink when empty).
	head int64
	tail int64

	opts   Options
	logger log.Logger
	stats  allocatorStats
}

// New reserves an arena of exactly size bytes and formats it as one free block.
//
// Parameters:
//   - size: arena size in bytes, at least format.MinPoolSize (48)
//   - opts: allocator options (use nil for DefaultOptions)
func New(size int, opts *Options) (*Pool, error) {
	o := DefaultOptions
	if opts != nil {
		o = *opts
	}
	if err := o.normalize(); err != nil {
		return nil, err
	}
	if size < format.MinPoolSize {
		return nil, fmt.Errorf("%w: %d-byte pool cannot hold %d bytes of tags",
			ErrInvalidSize, size, format.MinPoolSize)
	}

	region, err := reserve.Reserve(size, o.Backing)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOutOfMemory, err)
	}
	data, err := region.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOutOfMemory, err)
	}

	p := &Pool{
		region: region,
		data:   data,
		head:   format.NoLink,
		tail:   format.NoLink,
		opts:   o,
		logger: o.Logger,
	}

	if err := format.PutBlock(data, 0, int64(size-format.BlockOverhead), false); err != nil {
		_ = region.Release()
		return nil, err
	}
	p.pushBack(0)

	level.Debug(p.logger).Log("msg", "pool initialized", "size", size, "backing", o.Backing,
		"split_threshold", o.SplitThreshold, "alignment", o.Alignment)
	p.afterMutation("init")
	return p, nil
}

// Alloc returns a reference to at least size payload bytes together with a
// slice of exactly size bytes over them.
func (p *Pool) Alloc(size int) (Ref, []byte, error) {
	if p.data == nil {
		return 0, nil, ErrClosed
	}
	p.stats.AllocCalls++

	if size <= 0 {
		return 0, nil, fmt.Errorf("%w: request of %d bytes", ErrInvalidSize, size)
	}
	need := format.AlignTo(size, p.opts.Alignment)
	if need < size {
		p.stats.FailedAllocs++
		return 0, nil, ErrOutOfSpace
	}

	off, capacity, err := p.bestFit(int64(need))
	if err != nil {
		return 0, nil, p.corrupt("alloc", err)
	}
	if off == format.NoLink {
		p.stats.FailedAllocs++
		level.Debug(p.logger).Log("msg", "no free block large enough",
			"request", size, "need", need, "free_blocks", p.stats.FreeBlocks)
		return 0, nil, ErrOutOfSpace
	}

	if err := p.unlink(off); err != nil {
		return 0, nil, p.corrupt("alloc", err)
	}

	header := int(off)
	if capacity > int64(need)+int64(p.opts.SplitThreshold) {
		// Split: allocate the head, return the tail to the free list.
		rest := capacity - int64(need) - format.BlockOverhead
		tailOff := format.NextHeaderOffset(header, int64(need))
		if err := format.PutBlock(p.data, header, int64(need), true); err != nil {
			return 0, nil, p.corrupt("alloc", err)
		}
		if err := format.PutBlock(p.data, tailOff, rest, false); err != nil {
			return 0, nil, p.corrupt("alloc", err)
		}
		p.pushBack(int64(tailOff))
		p.stats.SplitCount++
		level.Debug(p.logger).Log("msg", "split", "block", header, "capacity", capacity,
			"need", need, "remainder", rest)
		capacity = int64(need)
	} else {
		// Use entire block (absorb slack below the threshold).
		if err := format.PutBlock(p.data, header, capacity, true); err != nil {
			return 0, nil, p.corrupt("alloc", err)
		}
	}

	p.stats.AllocatedBlocks++
	p.stats.BytesInUse += capacity

	ref := Ref(format.PayloadOffset(header))
	payload, _ := buf.Clipped(p.data, int(ref), size)
	p.afterMutation("alloc")
	return ref, payload, nil
}

// Free returns the block at ref to the pool, merging it with free neighbours.
//
// A ref whose block is already free is reported with ErrDoubleFree and a ref
// that does not frame a block with ErrInvalidReference; both leave the pool
// untouched.
func (p *Pool) Free(ref Ref) error {
	if p.data == nil {
		return ErrClosed
	}
	p.stats.FreeCalls++

	off, err := p.headerOf(ref)
	if err != nil {
		p.stats.InvalidRefs++
		level.Warn(p.logger).Log("msg", "free of invalid reference", "ref", ref, "err", err)
		return err
	}
	h, err := format.ReadTag(p.data, off)
	if err != nil {
		p.stats.InvalidRefs++
		return fmt.Errorf("%w: %w", ErrInvalidReference, err)
	}
	if !h.Allocated && h.Size == 0 && len(p.data) > format.MinPoolSize {
		// Only a minimum-size pool can hold an empty free block; anywhere
		// else a zero tag is untouched payload.
		p.stats.InvalidRefs++
		level.Warn(p.logger).Log("msg", "free of invalid reference", "ref", ref)
		return fmt.Errorf("%w: ref %d does not frame a block", ErrInvalidReference, ref)
	}
	if !h.Allocated {
		p.stats.DoubleFrees++
		level.Warn(p.logger).Log("msg", "double free", "ref", ref)
		return fmt.Errorf("%w: ref %d", ErrDoubleFree, ref)
	}
	if _, err := format.ParseBlock(p.data, off); err != nil {
		p.stats.InvalidRefs++
		level.Warn(p.logger).Log("msg", "free of invalid reference", "ref", ref, "err", err)
		return fmt.Errorf("%w: %w", ErrInvalidReference, err)
	}

	size := h.Size
	p.stats.AllocatedBlocks--
	p.stats.BytesInUse -= size
	if err := format.PutBlock(p.data, off, size, false); err != nil {
		return p.corrupt("free", err)
	}

	// Forward coalesce: the next header sits right after our footer.
	if next := format.NextHeaderOffset(off, size); next < len(p.data) {
		nt, err := format.ReadTag(p.data, next)
		if err != nil {
			return p.corrupt("free", err)
		}
		if !nt.Allocated {
			if err := p.unlink(int64(next)); err != nil {
				return p.corrupt("free", err)
			}
			size += nt.Size + format.BlockOverhead
			if err := format.PutBlock(p.data, off, size, false); err != nil {
				return p.corrupt("free", err)
			}
			p.stats.CoalesceForward++
		}
	}

	// Backward coalesce: the previous footer sits right before our header.
	if off > 0 {
		pf := off - format.TagSize
		pt, err := format.ReadTag(p.data, pf)
		if err != nil {
			return p.corrupt("free", err)
		}
		if !pt.Allocated {
			prev := pf - int(pt.Size) - format.TagSize
			if err := p.unlink(int64(prev)); err != nil {
				return p.corrupt("free", err)
			}
			size += pt.Size + format.BlockOverhead
			off = prev
			if err := format.PutBlock(p.data, off, size, false); err != nil {
				return p.corrupt("free", err)
			}
			p.stats.CoalesceBackward++
		}
	}

	p.pushBack(int64(off))
	p.afterMutation("free")
	return nil
}

// Payload returns the full-capacity payload of the allocated block at ref.
// The slice may be longer than the size originally requested.
func (p *Pool) Payload(ref Ref) ([]byte, error) {
	if p.data == nil {
		return nil, ErrClosed
	}
	off, err := p.headerOf(ref)
	if err != nil {
		return nil, err
	}
	bl, err := format.ParseBlock(p.data, off)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidReference, err)
	}
	if !bl.Allocated {
		return nil, fmt.Errorf("%w: ref %d is free", ErrInvalidReference, ref)
	}
	payload, _ := buf.Clipped(p.data, bl.Payload(), int(bl.Size))
	return payload, nil
}

// Check walks the whole arena and the free list and reports the first
// inconsistency as ErrCorruption wrapping a *verify.ValidationError. It is a
// diagnostic: O(n) in the number of blocks and never repairs anything.
func (p *Pool) Check() error {
	if p.data == nil {
		return ErrClosed
	}
	if err := verify.AllInvariants(p.data, p.head, p.tail); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruption, err)
	}
	return nil
}

// Close releases the arena. Outstanding references and payload slices must
// not be used afterwards. Closing twice is a no-op.
func (p *Pool) Close() error {
	if p.data == nil {
		return nil
	}
	err := p.region.Release()
	p.data = nil
	p.region = nil
	p.head, p.tail = format.NoLink, format.NoLink
	level.Debug(p.logger).Log("msg", "pool closed", "err", err)
	return err
}

// Size returns the arena size in bytes, or 0 after Close.
func (p *Pool) Size() int {
	return len(p.data)
}

// Options returns the options the pool was built with.
func (p *Pool) Options() Options {
	return p.opts
}

// headerOf maps ref to its header offset after checking that both tags of
// at least an empty block fit.
func (p *Pool) headerOf(ref Ref) (int, error) {
	off := format.HeaderOffset(int(ref))
	if int(ref) < format.TagSize || !buf.Has(p.data, off, format.BlockOverhead) {
		return 0, fmt.Errorf("%w: ref %d outside arena of %d bytes", ErrInvalidReference, ref, len(p.data))
	}
	return off, nil
}

// bestFit scans the free list for the smallest block of at least need bytes.
// Ties go to the block found first, i.e. the earliest inserted. Returns
// (NoLink, 0, nil) when nothing fits.
func (p *Pool) bestFit(need int64) (int64, int64, error) {
	best := format.NoLink
	bestSize := int64(math.MaxInt64)

	steps := 0
	for cur := p.head; cur != format.NoLink; steps++ {
		if steps > p.stats.FreeBlocks {
			return format.NoLink, 0, fmt.Errorf("free list longer than %d entries", p.stats.FreeBlocks)
		}
		t, err := format.ReadTag(p.data, int(cur))
		if err != nil {
			return format.NoLink, 0, err
		}
		if t.Allocated {
			return format.NoLink, 0, fmt.Errorf("allocated block %d on free list", cur)
		}
		if t.Size >= need && t.Size < bestSize {
			best, bestSize = cur, t.Size
			if t.Size == need {
				break // nothing later can beat an exact fit
			}
		}
		cur = t.Next
	}
	if best == format.NoLink {
		return format.NoLink, 0, nil
	}
	return best, bestSize, nil
}

// corrupt records a structural failure met on the allocation path.
func (p *Pool) corrupt(op string, err error) error {
	p.stats.CorruptionReports++
	level.Error(p.logger).Log("msg", "arena corrupt", "op", op, "err", err)
	return fmt.Errorf("%w: %s: %w", ErrCorruption, op, err)
}

// afterMutation runs the consistency checker in verification mode.
func (p *Pool) afterMutation(op string) {
	if !p.opts.Verify {
		return
	}
	if err := p.Check(); err != nil {
		p.stats.CorruptionReports++
		level.Error(p.logger).Log("msg", "consistency check failed", "op", op, "err", err)
	}
}
