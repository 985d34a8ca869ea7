package verify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/tagalloc/internal/format"
)

// layout describes one block for buildArena: positive size = free, negative = allocated.
type layout []int64

// buildArena writes blocks back to back and links the free ones in address
// order. It returns the arena plus the head/tail offsets of the free list.
func buildArena(t *testing.T, blocks layout) ([]byte, int64, int64) {
	t.Helper()

	total := 0
	for _, sz := range blocks {
		if sz < 0 {
			sz = -sz
		}
		total += format.BlockOverhead + int(sz)
	}
	data := make([]byte, total)

	var free []int
	off := 0
	for _, sz := range blocks {
		allocated := sz < 0
		if allocated {
			sz = -sz
		}
		require.NoError(t, format.PutBlock(data, off, sz, allocated))
		if !allocated {
			free = append(free, off)
		}
		off = format.NextHeaderOffset(off, sz)
	}

	head, tail := format.NoLink, format.NoLink
	for i, o := range free {
		prev, next := format.NoLink, format.NoLink
		if i > 0 {
			prev = int64(free[i-1])
		}
		if i < len(free)-1 {
			next = int64(free[i+1])
		}
		format.PutI64(data, o+format.TagPrevOffset, prev)
		format.PutI64(data, o+format.TagNextOffset, next)
	}
	if len(free) > 0 {
		head = int64(free[0])
		tail = int64(free[len(free)-1])
	}
	return data, head, tail
}

func requireValidationType(t *testing.T, err error, typ string) *ValidationError {
	t.Helper()
	require.Error(t, err)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %T", err)
	require.Equal(t, typ, verr.Type, "unexpected category: %v", err)
	return verr
}

func TestAllInvariants_Valid(t *testing.T) {
	data, head, tail := buildArena(t, layout{-32, 64, -8, 200})
	require.NoError(t, AllInvariants(data, head, tail))
	require.NoError(t, Arena(data))
}

func TestAllInvariants_SingleFreeBlock(t *testing.T) {
	data, head, tail := buildArena(t, layout{1000})
	require.NoError(t, AllInvariants(data, head, tail))
	require.Equal(t, int64(0), head)
	require.Equal(t, int64(0), tail)
}

func TestAllInvariants_NoFreeBlocks(t *testing.T) {
	data, head, tail := buildArena(t, layout{-16, -16})
	require.Equal(t, format.NoLink, head)
	require.NoError(t, AllInvariants(data, head, tail))
}

func TestArena_TooSmall(t *testing.T) {
	err := Arena(make([]byte, format.MinPoolSize-1))
	verr := requireValidationType(t, err, TypeArena)
	require.Equal(t, -1, verr.Offset)
	require.Contains(t, err.Error(), "arena too small")
}

func TestArena_FooterMismatch(t *testing.T) {
	data, _, _ := buildArena(t, layout{-32, 64})
	// Simulate a caller writing one word past its 32-byte payload.
	format.PutI64(data, format.FooterOffset(0, 32), 0x4141414141414141)

	verr := requireValidationType(t, Arena(data), TypeArena)
	require.Equal(t, format.FooterOffset(0, 32), verr.Offset)
	require.Contains(t, verr.Message, "does not match header")
}

func TestArena_StatusMismatch(t *testing.T) {
	data, _, _ := buildArena(t, layout{-32, 64})
	format.PutI64(data, format.FooterOffset(0, 32), 32)

	requireValidationType(t, Arena(data), TypeArena)
}

func TestArena_WalkOverrun(t *testing.T) {
	data, _, _ := buildArena(t, layout{-32, 64})
	second := format.NextHeaderOffset(0, 32)
	format.PutI64(data, second, 4096)

	verr := requireValidationType(t, Arena(data), TypeArena)
	require.Equal(t, second, verr.Offset)
	require.Contains(t, verr.Message, "extends beyond arena")
}

func TestArena_TrailingBytes(t *testing.T) {
	data, _, _ := buildArena(t, layout{-32})
	data = append(data, make([]byte, 10)...)

	verr := requireValidationType(t, Arena(data), TypeArena)
	require.Contains(t, verr.Message, "walk overran arena")
}

func TestFreeList_MissingBlock(t *testing.T) {
	data, head, _ := buildArena(t, layout{64, -8, 128})
	// Unlink the second free block: the list now ends at head.
	format.PutI64(data, int(head)+format.TagNextOffset, format.NoLink)

	verr := requireValidationType(t, AllInvariants(data, head, head), TypeFreeList)
	require.Equal(t, format.NextHeaderOffset(format.NextHeaderOffset(0, 64), 8), verr.Offset)
}

func TestFreeList_ListedAllocatedBlock(t *testing.T) {
	data, head, tail := buildArena(t, layout{64, -8, 128})
	allocated := int64(format.NextHeaderOffset(0, 64))
	format.PutI64(data, int(head)+format.TagNextOffset, allocated)

	verr := requireValidationType(t, AllInvariants(data, head, tail), TypeFreeList)
	require.Equal(t, int(allocated), verr.Offset)
	require.Contains(t, verr.Message, "not a free block")
}

func TestFreeList_BrokenPrevLink(t *testing.T) {
	data, head, tail := buildArena(t, layout{64, -8, 128})
	format.PutI64(data, int(tail)+format.TagPrevOffset, format.NoLink)

	verr := requireValidationType(t, AllInvariants(data, head, tail), TypeFreeList)
	require.Contains(t, verr.Message, "prev link")
}

func TestFreeList_Cycle(t *testing.T) {
	data, head, tail := buildArena(t, layout{64, -8, 128})
	format.PutI64(data, int(tail)+format.TagNextOffset, head)

	verr := requireValidationType(t, AllInvariants(data, head, tail), TypeFreeList)
	require.Contains(t, verr.Message, "cycle")
}

func TestFreeList_WrongTail(t *testing.T) {
	data, head, _ := buildArena(t, layout{64, -8, 128})

	requireValidationType(t, AllInvariants(data, head, head), TypeFreeList)
}

func TestArena_IgnoresFreeList(t *testing.T) {
	data, head, tail := buildArena(t, layout{64, -8, 128})
	format.PutI64(data, int(tail)+format.TagNextOffset, head)

	require.NoError(t, Arena(data), "partition is intact")
	requireValidationType(t, AllInvariants(data, head, tail), TypeFreeList)
}

func TestCoalescing_AdjacentFreeBlocks(t *testing.T) {
	data, head, tail := buildArena(t, layout{64, 128})

	verr := requireValidationType(t, AllInvariants(data, head, tail), TypeCoalescing)
	require.Equal(t, format.NextHeaderOffset(0, 64), verr.Offset)
}
