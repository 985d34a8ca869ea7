package pool

import (
	"fmt"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/joshuapare/tagalloc/internal/format"
	"github.com/joshuapare/tagalloc/internal/reserve"
)

// Runtime diagnostics switches, read once at startup.
var (
	// logAlloc routes pool diagnostics to stderr (TAGALLOC_LOG).
	logAlloc = os.Getenv("TAGALLOC_LOG") != ""

	// verifyAlloc runs Check after every mutating call (TAGALLOC_VERIFY).
	verifyAlloc = os.Getenv("TAGALLOC_VERIFY") != ""
)

// Backing selects where arena bytes come from.
type Backing = reserve.Backing

const (
	// BackingHeap backs the arena with a Go byte slice.
	BackingHeap = reserve.Heap
	// BackingMmap backs the arena with an anonymous mapping where available.
	BackingMmap = reserve.Mmap
)

// ParseBacking parses "heap" or "mmap".
func ParseBacking(s string) (Backing, error) {
	return reserve.ParseBacking(s)
}

// Options configures a Pool.
type Options struct {
	// SplitThreshold is the slack a free block may carry before it is split:
	// a block of capacity C serving a request of n bytes is split only when
	// C > n + SplitThreshold. Must be at least the cost of one block's tags.
	SplitThreshold int

	// Alignment rounds every request up to a multiple of this power of two
	// (1 to 8). Zero means 8, which keeps every tag word-aligned.
	Alignment int

	// Backing selects the arena reservation.
	Backing Backing

	// Verify runs Check after every mutating call and logs failures.
	Verify bool

	// Logger receives diagnostics. Nil means stderr when TAGALLOC_LOG is
	// set and a no-op logger otherwise.
	Logger log.Logger
}

// DefaultOptions is used when New is passed nil.
var DefaultOptions = Options{
	SplitThreshold: 100,
	Alignment:      format.WordSize,
	Backing:        BackingHeap,
}

func (o *Options) normalize() error {
	if o.Alignment == 0 {
		o.Alignment = format.WordSize
	}
	if !format.IsPowerOfTwo(o.Alignment) || o.Alignment > format.WordSize {
		return fmt.Errorf("%w: alignment %d must be a power of two between 1 and %d",
			ErrBadOption, o.Alignment, format.WordSize)
	}
	if o.SplitThreshold < format.BlockOverhead {
		return fmt.Errorf("%w: split threshold %d is below the %d-byte block overhead",
			ErrBadOption, o.SplitThreshold, format.BlockOverhead)
	}
	if verifyAlloc {
		o.Verify = true
	}
	if o.Logger == nil {
		o.Logger = defaultLogger()
	}
	return nil
}

func defaultLogger() log.Logger {
	if !logAlloc {
		return log.NewNopLogger()
	}
	l := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	l = level.NewFilter(l, level.AllowDebug())
	return log.With(l, "ts", log.DefaultTimestampUTC, "component", "tagalloc")
}
