package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/tagalloc/internal/format"
)

// TestSplit_RemainderOnFreeList verifies that a block with more slack than the
// threshold is split and the remainder is listed with the expected capacity.
func TestSplit_RemainderOnFreeList(t *testing.T) {
	p := newTestPool(t, 1024, nil)

	ref := mustAlloc(t, p, 100) // rounds to 104

	blocks, err := p.Blocks()
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, Block{Offset: 0, Ref: ref, Size: 104}, blocks[0])

	want := 976 - 104 - format.BlockOverhead
	assert.Equal(t, Block{Offset: 152, Ref: 176, Size: want, Free: true}, blocks[1])
	assert.Equal(t, []int{want}, freeSizes(t, p))
	assert.Equal(t, 1, p.Stats().Splits)
	assertInvariants(t, p)
}

// TestSplit_BelowThresholdConsumesBlock verifies that slack under the threshold
// stays with the allocation and no remainder block appears.
func TestSplit_BelowThresholdConsumesBlock(t *testing.T) {
	p := newTestPool(t, 1024, nil)

	a := mustAlloc(t, p, 152)
	mustAlloc(t, p, 8)
	require.NoError(t, p.Free(a))
	require.Equal(t, []int{720, 152}, freeSizes(t, p))
	splits := p.Stats().Splits

	ref, payload, err := p.Alloc(100)
	require.NoError(t, err)
	assert.Equal(t, a, ref)
	assert.Len(t, payload, 100)

	full, err := p.Payload(ref)
	require.NoError(t, err)
	assert.Len(t, full, 152, "whole block should be handed out")
	assert.Equal(t, []int{720}, freeSizes(t, p))
	assert.Equal(t, splits, p.Stats().Splits)
	assertInvariants(t, p)
}

// TestSplit_Boundary exercises capacities on both sides of need+threshold.
func TestSplit_Boundary(t *testing.T) {
	tests := []struct {
		name      string
		capacity  int
		wantSplit bool
		remainder int
	}{
		{"exactly threshold", 200, false, 0},
		{"one byte over", 201, true, 201 - 100 - format.BlockOverhead},
		{"exact fit", 100, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPool(t, 1024, unaligned())
			a := mustAlloc(t, p, tt.capacity)
			mustAlloc(t, p, 8)
			require.NoError(t, p.Free(a))

			ref := mustAlloc(t, p, 100)
			require.Equal(t, a, ref)

			full, err := p.Payload(ref)
			require.NoError(t, err)
			free := freeSizes(t, p)
			if tt.wantSplit {
				assert.Len(t, full, 100)
				require.Len(t, free, 2)
				assert.Equal(t, tt.remainder, free[1])
			} else {
				assert.Len(t, full, tt.capacity)
				assert.Len(t, free, 1)
			}
			assertInvariants(t, p)
		})
	}
}

// TestSplit_CustomThreshold verifies the threshold option is honoured.
func TestSplit_CustomThreshold(t *testing.T) {
	opts := DefaultOptions
	opts.SplitThreshold = 1024
	p := newTestPool(t, 1024, &opts)

	ref := mustAlloc(t, p, 8)
	full, err := p.Payload(ref)
	require.NoError(t, err)
	assert.Len(t, full, 976, "no split below a 1024-byte threshold")
	assert.Empty(t, freeSizes(t, p))
	assertInvariants(t, p)
}
