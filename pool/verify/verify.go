package verify

import (
	"fmt"

	"github.com/joshuapare/tagalloc/internal/buf"
	"github.com/joshuapare/tagalloc/internal/format"
)

// Error categories reported in ValidationError.Type.
const (
	TypeArena      = "Arena"
	TypeFreeList   = "FreeList"
	TypeCoalescing = "Coalescing"
)

// ValidationError describes the first invariant violation found.
type ValidationError struct {
	Type    string
	Message string
	Offset  int // Arena offset where the problem was found, -1 if N/A
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset %d: %s", e.Type, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// AllInvariants validates the arena partition and the free list in one call.
// Returns the first error encountered, or nil if all checks pass.
func AllInvariants(data []byte, head, tail int64) error {
	blocks, err := walk(data)
	if err != nil {
		return err
	}
	return checkFreeList(data, blocks, head, tail)
}

// Arena walks data block by block and checks that each header agrees with its
// footer and that the walk terminates exactly at len(data).
func Arena(data []byte) error {
	_, err := walk(data)
	return err
}

func walk(data []byte) ([]format.Block, error) {
	if len(data) < format.MinPoolSize {
		return nil, &ValidationError{
			Type:    TypeArena,
			Message: fmt.Sprintf("arena too small: %d bytes (need %d)", len(data), format.MinPoolSize),
			Offset:  -1,
		}
	}

	var blocks []format.Block
	pos := 0
	for pos < len(data) {
		if !buf.Has(data, pos, format.TagSize) {
			return nil, &ValidationError{
				Type:    TypeArena,
				Message: fmt.Sprintf("walk overran arena: header needs %d bytes, %d left", format.TagSize, len(data)-pos),
				Offset:  pos,
			}
		}
		h, err := format.ReadTag(data, pos)
		if err != nil {
			return nil, &ValidationError{Type: TypeArena, Message: err.Error(), Offset: pos}
		}
		foot, ok := buf.AddOverflowSafe(pos+format.TagSize, int(h.Size))
		if !ok || h.Size < 0 || !buf.Has(data, foot, format.TagSize) {
			return nil, &ValidationError{
				Type:    TypeArena,
				Message: fmt.Sprintf("block of size %d extends beyond arena end %d", h.Size, len(data)),
				Offset:  pos,
			}
		}
		f, err := format.ReadTag(data, foot)
		if err != nil {
			return nil, &ValidationError{Type: TypeArena, Message: err.Error(), Offset: foot}
		}
		if f.Size != h.Size || f.Allocated != h.Allocated {
			return nil, &ValidationError{
				Type:    TypeArena,
				Message: fmt.Sprintf("footer size %d does not match header size %d", f.Raw(), h.Raw()),
				Offset:  foot,
			}
		}
		blocks = append(blocks, format.Block{Offset: pos, Size: h.Size, Allocated: h.Allocated})
		pos = foot + format.TagSize
	}

	if pos != len(data) {
		return nil, &ValidationError{
			Type:    TypeArena,
			Message: fmt.Sprintf("walk ended at %d, arena is %d bytes", pos, len(data)),
			Offset:  pos,
		}
	}
	return blocks, nil
}

func checkFreeList(data []byte, blocks []format.Block, head, tail int64) error {
	free := make(map[int64]bool)
	for i, bl := range blocks {
		if bl.Allocated {
			continue
		}
		free[int64(bl.Offset)] = true
		if i > 0 && !blocks[i-1].Allocated {
			return &ValidationError{
				Type:    TypeCoalescing,
				Message: fmt.Sprintf("free block follows free block at %d", blocks[i-1].Offset),
				Offset:  bl.Offset,
			}
		}
	}

	seen := make(map[int64]bool, len(free))
	prev := format.NoLink
	for cur := head; cur != format.NoLink; {
		if len(seen) > len(free) || seen[cur] {
			return &ValidationError{
				Type:    TypeFreeList,
				Message: "cycle in free list",
				Offset:  int(cur),
			}
		}
		if !free[cur] {
			return &ValidationError{
				Type:    TypeFreeList,
				Message: "listed block is not a free block",
				Offset:  int(cur),
			}
		}
		t, err := format.ReadTag(data, int(cur))
		if err != nil {
			return &ValidationError{Type: TypeFreeList, Message: err.Error(), Offset: int(cur)}
		}
		if t.Prev != prev {
			return &ValidationError{
				Type:    TypeFreeList,
				Message: fmt.Sprintf("prev link %d, expected %d", t.Prev, prev),
				Offset:  int(cur),
			}
		}
		seen[cur] = true
		prev = cur
		cur = t.Next
	}

	if prev != tail {
		return &ValidationError{
			Type:    TypeFreeList,
			Message: fmt.Sprintf("tail is %d, last listed block is %d", tail, prev),
			Offset:  -1,
		}
	}

	if len(seen) != len(free) {
		for _, bl := range blocks {
			if !bl.Allocated && !seen[int64(bl.Offset)] {
				return &ValidationError{
					Type:    TypeFreeList,
					Message: "free block missing from free list",
					Offset:  bl.Offset,
				}
			}
		}
	}
	return nil
}
