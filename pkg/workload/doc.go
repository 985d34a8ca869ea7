// Package workload describes, generates and replays allocation workloads
// against a pool.Allocator.
//
// A workload script is line oriented; blank lines and lines starting with
// '#' are ignored:
//
//	# two blocks, one freed
//	alloc a 128
//	alloc b 64
//	free a
//	check
//
// Names tie a free to the allocation it releases. Freeing a name twice
// replays a double free against the pool, unless the address has since been
// handed to another name; the runner then reports the double free itself and
// leaves the live block alone.
package workload
