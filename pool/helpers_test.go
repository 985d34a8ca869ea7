package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestPool creates a heap-backed pool and closes it when the test ends.
func newTestPool(t *testing.T, size int, opts *Options) *Pool {
	t.Helper()
	p, err := New(size, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

// unaligned returns options that reproduce byte-granular requests.
func unaligned() *Options {
	o := DefaultOptions
	o.Alignment = 1
	return &o
}

// mustAlloc allocates size bytes or fails the test.
func mustAlloc(t *testing.T, p *Pool, size int) Ref {
	t.Helper()
	ref, payload, err := p.Alloc(size)
	require.NoError(t, err, "alloc %d", size)
	require.Len(t, payload, size)
	return ref
}

// assertInvariants fails the test if the arena or free list is inconsistent
// or the cached counters disagree with a fresh walk.
func assertInvariants(t *testing.T, p *Pool) {
	t.Helper()
	require.NoError(t, p.Check())

	blocks, err := p.Blocks()
	require.NoError(t, err)

	var freeCount, allocCount int
	var inUse int64
	for i, b := range blocks {
		if b.Free {
			freeCount++
			if i > 0 {
				require.False(t, blocks[i-1].Free, "adjacent free blocks at %d and %d", blocks[i-1].Offset, b.Offset)
			}
		} else {
			allocCount++
			inUse += int64(b.Size)
		}
	}

	st := p.Stats()
	require.Equal(t, freeCount, st.FreeBlocks, "free block count")
	require.Equal(t, allocCount, st.AllocatedBlocks, "allocated block count")
	require.Equal(t, inUse, st.InUseBytes, "bytes in use")
	require.Equal(t, int64(p.Size()), st.InUseBytes+st.FreeBytes+st.OverheadBytes, "byte accounting")
}

// blockSizes returns the capacities of bs in order.
func blockSizes(bs []Block) []int {
	out := make([]int, len(bs))
	for i, b := range bs {
		out[i] = b.Size
	}
	return out
}

func freeSizes(t *testing.T, p *Pool) []int {
	t.Helper()
	free, err := p.FreeBlocks()
	require.NoError(t, err)
	return blockSizes(free)
}
