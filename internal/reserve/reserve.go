// Package reserve obtains the backing bytes for an arena from the host and
// hands them back on release.
package reserve

import (
	"errors"
	"fmt"
	"strings"
)

// Backing selects where arena bytes come from.
type Backing uint8

const (
	// Heap backs the arena with a Go byte slice.
	Heap Backing = iota
	// Mmap backs the arena with an anonymous private mapping. On platforms
	// without mmap it behaves like Heap.
	Mmap
)

// String returns the flag spelling of b.
func (b Backing) String() string {
	switch b {
	case Heap:
		return "heap"
	case Mmap:
		return "mmap"
	default:
		return fmt.Sprintf("backing(%d)", uint8(b))
	}
}

// ParseBacking parses "heap" or "mmap".
func ParseBacking(s string) (Backing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "heap", "":
		return Heap, nil
	case "mmap":
		return Mmap, nil
	default:
		return 0, fmt.Errorf("reserve: unknown backing %q (want heap or mmap)", s)
	}
}

// ErrReleased is returned by Bytes after Release.
var ErrReleased = errors.New("reserve: region released")

// Region is a reserved, zero-filled span of bytes.
type Region struct {
	data    []byte
	backing Backing
	release func([]byte) error
}

// Reserve obtains n zeroed bytes from the given backing.
func Reserve(n int, backing Backing) (*Region, error) {
	if n <= 0 {
		return nil, fmt.Errorf("reserve: size must be positive, got %d", n)
	}
	switch backing {
	case Heap:
		return reserveHeap(n)
	case Mmap:
		return reserveMmap(n)
	default:
		return nil, fmt.Errorf("reserve: unknown backing %d", backing)
	}
}

// Bytes returns the reserved bytes.
func (r *Region) Bytes() ([]byte, error) {
	if r == nil || r.data == nil {
		return nil, ErrReleased
	}
	return r.data, nil
}

// Len returns the size of the region, or 0 once released.
func (r *Region) Len() int {
	if r == nil {
		return 0
	}
	return len(r.data)
}

// Backing reports where the region's bytes came from.
func (r *Region) Backing() Backing { return r.backing }

// Release returns the bytes to the host. Releasing twice is a no-op.
func (r *Region) Release() error {
	if r == nil || r.data == nil {
		return nil
	}
	data := r.data
	r.data = nil
	if r.release == nil {
		return nil
	}
	return r.release(data)
}

func reserveHeap(n int) (r *Region, err error) {
	// make panics (rather than returning) when n is beyond what the runtime
	// can address; surface that as an error.
	defer func() {
		if p := recover(); p != nil {
			r = nil
			err = fmt.Errorf("reserve: heap reservation of %d bytes failed: %v", n, p)
		}
	}()
	return &Region{data: make([]byte, n), backing: Heap}, nil
}
