// Package metrics exports pool statistics as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/joshuapare/tagalloc/pool"
)

// StatsSource is anything that can snapshot pool statistics.
// Both *pool.Pool and *pool.Locked satisfy it; share a Pool with a scraper
// only through Locked.
type StatsSource interface {
	Stats() pool.Stats
}

// Collector reads a StatsSource on every scrape.
type Collector struct {
	src StatsSource

	capacity        *prometheus.Desc
	bytes           *prometheus.Desc
	blocks          *prometheus.Desc
	largestFree     *prometheus.Desc
	allocs          *prometheus.Desc
	frees           *prometheus.Desc
	failedAllocs    *prometheus.Desc
	doubleFrees     *prometheus.Desc
	invalidRefs     *prometheus.Desc
	splits          *prometheus.Desc
	coalesces       *prometheus.Desc
	corruptionTotal *prometheus.Desc
}

// NewCollector returns a collector for src. constLabels distinguish pools
// registered side by side and may be nil.
func NewCollector(src StatsSource, constLabels prometheus.Labels) *Collector {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName("tagalloc", "pool", name), help, labels, constLabels)
	}
	return &Collector{
		src:             src,
		capacity:        desc("capacity_bytes", "Size of the arena in bytes."),
		bytes:           desc("bytes", "Arena bytes by use: payload in allocated blocks, payload in free blocks, or boundary tags.", "state"),
		blocks:          desc("blocks", "Number of blocks by state.", "state"),
		largestFree:     desc("largest_free_bytes", "Capacity of the largest free block."),
		allocs:          desc("allocs_total", "Total allocation requests."),
		frees:           desc("frees_total", "Total free requests."),
		failedAllocs:    desc("failed_allocs_total", "Allocation requests that found no fitting block."),
		doubleFrees:     desc("double_frees_total", "Free requests on blocks that were already free."),
		invalidRefs:     desc("invalid_refs_total", "Free requests on references that do not frame a block."),
		splits:          desc("splits_total", "Free blocks split to serve a request."),
		coalesces:       desc("coalesces_total", "Free blocks merged with a neighbour.", "direction"),
		corruptionTotal: desc("corruption_reports_total", "Consistency failures detected."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.capacity, c.bytes, c.blocks, c.largestFree, c.allocs, c.frees,
		c.failedAllocs, c.doubleFrees, c.invalidRefs, c.splits, c.coalesces, c.corruptionTotal,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stats()

	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}
	counter := func(d *prometheus.Desc, v int, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}

	gauge(c.capacity, float64(s.Capacity))
	gauge(c.bytes, float64(s.InUseBytes), "in_use")
	gauge(c.bytes, float64(s.FreeBytes), "free")
	gauge(c.bytes, float64(s.OverheadBytes), "overhead")
	gauge(c.blocks, float64(s.AllocatedBlocks), "allocated")
	gauge(c.blocks, float64(s.FreeBlocks), "free")
	gauge(c.largestFree, float64(s.LargestFree))

	counter(c.allocs, s.AllocCalls)
	counter(c.frees, s.FreeCalls)
	counter(c.failedAllocs, s.FailedAllocs)
	counter(c.doubleFrees, s.DoubleFrees)
	counter(c.invalidRefs, s.InvalidRefs)
	counter(c.splits, s.Splits)
	counter(c.coalesces, s.CoalesceForward, "forward")
	counter(c.coalesces, s.CoalesceBackward, "backward")
	counter(c.corruptionTotal, s.CorruptionReports)
}
