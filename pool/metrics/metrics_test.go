package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/tagalloc/pool"
)

func TestCollector(t *testing.T) {
	l, err := pool.NewLocked(1024, nil)
	require.NoError(t, err)
	defer l.Close()

	a, _, err := l.Alloc(64)
	require.NoError(t, err)
	b, _, err := l.Alloc(64)
	require.NoError(t, err)
	_, _, err = l.Alloc(64)
	require.NoError(t, err)
	require.NoError(t, l.Free(b))
	require.NoError(t, l.Free(a))
	require.ErrorIs(t, l.Free(a), pool.ErrDoubleFree)

	c := NewCollector(l, prometheus.Labels{"pool": "test"})
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))

	expected := `
# HELP tagalloc_pool_allocs_total Total allocation requests.
# TYPE tagalloc_pool_allocs_total counter
tagalloc_pool_allocs_total{pool="test"} 3
# HELP tagalloc_pool_blocks Number of blocks by state.
# TYPE tagalloc_pool_blocks gauge
tagalloc_pool_blocks{pool="test",state="allocated"} 1
tagalloc_pool_blocks{pool="test",state="free"} 2
# HELP tagalloc_pool_capacity_bytes Size of the arena in bytes.
# TYPE tagalloc_pool_capacity_bytes gauge
tagalloc_pool_capacity_bytes{pool="test"} 1024
# HELP tagalloc_pool_coalesces_total Free blocks merged with a neighbour.
# TYPE tagalloc_pool_coalesces_total counter
tagalloc_pool_coalesces_total{direction="backward",pool="test"} 0
tagalloc_pool_coalesces_total{direction="forward",pool="test"} 1
# HELP tagalloc_pool_double_frees_total Free requests on blocks that were already free.
# TYPE tagalloc_pool_double_frees_total counter
tagalloc_pool_double_frees_total{pool="test"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"tagalloc_pool_allocs_total",
		"tagalloc_pool_blocks",
		"tagalloc_pool_capacity_bytes",
		"tagalloc_pool_coalesces_total",
		"tagalloc_pool_double_frees_total",
	))

	require.Equal(t, 16, testutil.CollectAndCount(c))
}
