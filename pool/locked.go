package pool

import "sync"

// Locked is a mutex-protected wrapper around Pool for concurrent access.
// Every call holds the lock for its whole duration.
type Locked struct {
	mu sync.Mutex
	p  *Pool
}

// NewLocked creates a pool like New and wraps it.
func NewLocked(size int, opts *Options) (*Locked, error) {
	p, err := New(size, opts)
	if err != nil {
		return nil, err
	}
	return &Locked{p: p}, nil
}

// Wrap guards an existing pool. The caller must stop using p directly.
func Wrap(p *Pool) *Locked {
	return &Locked{p: p}
}

// Alloc thread-safely allocates size bytes.
func (l *Locked) Alloc(size int) (Ref, []byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.Alloc(size)
}

// Free thread-safely returns a block to the pool.
func (l *Locked) Free(ref Ref) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.Free(ref)
}

// Payload thread-safely looks up the payload of an allocated block.
func (l *Locked) Payload(ref Ref) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.Payload(ref)
}

// Check thread-safely audits the arena.
func (l *Locked) Check() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.Check()
}

// Stats thread-safely snapshots the pool statistics.
func (l *Locked) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.Stats()
}

// Blocks thread-safely walks the arena.
func (l *Locked) Blocks() ([]Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.Blocks()
}

// FreeBlocks thread-safely walks the free list.
func (l *Locked) FreeBlocks() ([]Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.FreeBlocks()
}

// Close thread-safely releases the arena.
func (l *Locked) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.Close()
}
