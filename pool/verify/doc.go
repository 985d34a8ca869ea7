// Package verify audits the block structure of a raw arena.
//
// # Overview
//
// The checks decode the arena independently of any allocator state, so they
// can be pointed at a live pool's bytes or at a hand-built buffer in a test.
// Nothing here repairs an arena; a failure only describes the first problem
// found.
//
// Validation categories:
//   - Arena: every block's header matches its footer and the walk ends exactly
//     at the end of the arena
//   - FreeList: links are symmetric and acyclic, every listed block is free
//     and every free block is listed once
//   - Coalescing: no two free blocks are adjacent
//
// Arena checks the partition alone. AllInvariants walks once and runs all
// three categories against that walk.
//
// # Quick Start
//
//	if err := verify.AllInvariants(data, head, tail); err != nil {
//	    fmt.Printf("arena corrupt: %v\n", err)
//	}
//
// # ValidationError
//
// All validation functions return *ValidationError on failure:
//
//	var verr *verify.ValidationError
//	if errors.As(err, &verr) {
//	    fmt.Printf("Type: %s\n", verr.Type)
//	    fmt.Printf("Offset: %d\n", verr.Offset)
//	}
package verify
