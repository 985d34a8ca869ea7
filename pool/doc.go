// Package pool provides a boundary-tag allocator over a single fixed-size arena.
//
// # Overview
//
// A Pool reserves one contiguous byte arena when it is created and serves
// every later allocation from it without touching the Go heap. The arena is
// always partitioned, left to right with no gaps, into blocks. Each block is
// framed by a 24-byte header and a matching 24-byte footer recording the
// payload capacity and whether the block is allocated:
//
//	| header | payload ........ | footer | header | payload | footer | ...
//	  ^ Block.Offset           ^ Block.Offset + 24 + Size
//	         ^ Ref
//
// Free blocks are chained on an explicit doubly-linked list whose links live
// in their header tags, in insertion order.
//
// # Allocation
//
// Alloc performs a best-fit search over the free list: the smallest block
// whose capacity covers the (aligned) request wins, ties going to the block
// inserted first. If the winner exceeds the request by more than
// Options.SplitThreshold it is split and the remainder goes back on the free
// list; otherwise the caller gets the whole block.
//
//	p, err := pool.New(64*1024, nil)
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	ref, buf, err := p.Alloc(256)
//	if err != nil {
//	    return err
//	}
//	copy(buf, payload)
//
//	// Later, free the block
//	err = p.Free(ref)
//
// # Deallocation
//
// Free flips the block's tags to free, merges it with the following block and
// then the preceding block when those are free (both found in O(1) through the
// neighbouring tags), and appends the result to the free list. Freeing a free
// block reports ErrDoubleFree and changes nothing.
//
// # Consistency Checking
//
// Check walks the arena and free list (see package verify). It is not part of
// the allocation path. Options.Verify, or TAGALLOC_VERIFY=1 in the
// environment, runs it after every mutating call and logs failures.
//
// # Diagnostics
//
// Diagnostics go to Options.Logger (a go-kit logger). Setting TAGALLOC_LOG
// routes them to stderr when no logger is supplied.
//
// # Thread Safety
//
// Pool instances are not thread-safe. Callers must synchronize access
// externally or use Locked.
package pool
