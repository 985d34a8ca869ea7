package pool

// Ref is a payload reference: the arena-relative offset of the first payload
// byte of an allocated block. Zero is never a valid reference.
type Ref int

// Block describes one block found by walking the arena or the free list.
type Block struct {
	Offset int  // Header offset within the arena
	Ref    Ref  // Payload offset
	Size   int  // Payload capacity in bytes
	Free   bool // True when the block is on the free list
}

// Allocator defines the operations shared by Pool and its locked wrapper.
//
// Implementations:
//   - *Pool: single-threaded allocator
//   - *Locked: mutex-guarded wrapper for shared use
type Allocator interface {
	// Alloc reserves at least size bytes and returns the payload reference
	// plus a slice of exactly size bytes aliasing the arena.
	Alloc(size int) (Ref, []byte, error)

	// Free returns a block to the pool. Freeing twice reports ErrDoubleFree.
	Free(ref Ref) error

	// Payload returns the full-capacity payload of an allocated block.
	Payload(ref Ref) ([]byte, error)

	// Check audits the arena and free list.
	Check() error

	// Stats returns a snapshot of counters and gauges.
	Stats() Stats

	// Close releases the arena.
	Close() error
}

var (
	_ Allocator = (*Pool)(nil)
	_ Allocator = (*Locked)(nil)
)
