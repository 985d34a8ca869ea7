package pool

import (
	"errors"
	"fmt"

	"github.com/joshuapare/tagalloc/internal/format"
)

var errFreeListCycle = errors.New("cycle in free list")

// allocatorStats holds internal allocator statistics.
type allocatorStats struct {
	AllocCalls        int   // Total Alloc() calls
	FreeCalls         int   // Total Free() calls
	FailedAllocs      int   // Alloc() calls that found no fitting block
	DoubleFrees       int   // Free() calls on an already free block
	InvalidRefs       int   // Free() calls on something that is not a block
	SplitCount        int   // Number of block splits
	CoalesceForward   int   // Forward coalesce operations
	CoalesceBackward  int   // Backward coalesce operations
	CorruptionReports int   // Consistency failures seen (verify mode or allocation path)
	AllocatedBlocks   int   // Blocks currently allocated
	FreeBlocks        int   // Blocks currently on the free list
	BytesInUse        int64 // Payload capacity of allocated blocks
}

// Stats is a snapshot of a pool's counters and gauges.
type Stats struct {
	Capacity        int   // Arena size in bytes
	InUseBytes      int64 // Payload capacity held by allocated blocks
	FreeBytes       int64 // Payload capacity held by free blocks
	OverheadBytes   int64 // Bytes spent on boundary tags
	AllocatedBlocks int
	FreeBlocks      int
	LargestFree     int64 // Capacity of the largest free block

	AllocCalls        int
	FreeCalls         int
	FailedAllocs      int
	DoubleFrees       int
	InvalidRefs       int
	Splits            int
	CoalesceForward   int
	CoalesceBackward  int
	CorruptionReports int
}

// Stats returns current allocator statistics. LargestFree walks the free list.
func (p *Pool) Stats() Stats {
	s := p.stats
	out := Stats{
		Capacity:          len(p.data),
		InUseBytes:        s.BytesInUse,
		AllocatedBlocks:   s.AllocatedBlocks,
		FreeBlocks:        s.FreeBlocks,
		AllocCalls:        s.AllocCalls,
		FreeCalls:         s.FreeCalls,
		FailedAllocs:      s.FailedAllocs,
		DoubleFrees:       s.DoubleFrees,
		InvalidRefs:       s.InvalidRefs,
		Splits:            s.SplitCount,
		CoalesceForward:   s.CoalesceForward,
		CoalesceBackward:  s.CoalesceBackward,
		CorruptionReports: s.CorruptionReports,
	}
	if p.data == nil {
		return out
	}
	out.OverheadBytes = int64(format.BlockOverhead) * int64(s.AllocatedBlocks+s.FreeBlocks)
	out.FreeBytes = int64(len(p.data)) - out.OverheadBytes - s.BytesInUse

	if free, err := p.freeList(); err == nil {
		for _, b := range free {
			if int64(b.Size) > out.LargestFree {
				out.LargestFree = int64(b.Size)
			}
		}
	}
	return out
}

// Blocks walks the arena in address order. On a corrupt arena it returns the
// blocks decoded so far together with the error.
func (p *Pool) Blocks() ([]Block, error) {
	if p.data == nil {
		return nil, ErrClosed
	}
	var out []Block
	for off := 0; off < len(p.data); {
		bl, next, err := format.NextBlock(p.data, off)
		if err != nil {
			return out, p.corrupt("walk", err)
		}
		out = append(out, toBlock(bl))
		off = next
	}
	return out, nil
}

// FreeBlocks returns the free list in list (insertion) order.
func (p *Pool) FreeBlocks() ([]Block, error) {
	if p.data == nil {
		return nil, ErrClosed
	}
	out, err := p.freeList()
	if err != nil {
		return out, p.corrupt("walk", err)
	}
	return out, nil
}

func (p *Pool) freeList() ([]Block, error) {
	out := make([]Block, 0, p.stats.FreeBlocks)
	for cur := p.head; cur != format.NoLink; {
		if len(out) > p.stats.FreeBlocks {
			return out, errFreeListCycle
		}
		bl, err := format.ParseBlock(p.data, int(cur))
		if err != nil {
			return out, err
		}
		if bl.Allocated {
			return out, fmt.Errorf("allocated block %d on free list", cur)
		}
		out = append(out, toBlock(bl))
		cur = format.ReadI64(p.data, int(cur)+format.TagNextOffset)
	}
	return out, nil
}

func toBlock(bl format.Block) Block {
	return Block{
		Offset: bl.Offset,
		Ref:    Ref(bl.Payload()),
		Size:   int(bl.Size),
		Free:   !bl.Allocated,
	}
}
