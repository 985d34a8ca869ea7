package pool

import "errors"

var (
	// ErrInvalidSize indicates a pool too small to hold one block's tags, or a
	// non-positive allocation request.
	ErrInvalidSize = errors.New("pool: invalid size")

	// ErrOutOfMemory indicates the arena itself could not be reserved from the host.
	ErrOutOfMemory = errors.New("pool: arena reservation failed")

	// ErrOutOfSpace indicates that no free block large enough was found.
	ErrOutOfSpace = errors.New("pool: no free block large enough")

	// ErrDoubleFree indicates an attempt to free a block that is already free.
	ErrDoubleFree = errors.New("pool: block already free")

	// ErrInvalidReference indicates a reference that is not the payload start of a block.
	ErrInvalidReference = errors.New("pool: bad reference")

	// ErrCorruption indicates the arena's block structure no longer holds.
	ErrCorruption = errors.New("pool: arena corrupt")

	// ErrClosed indicates use of a pool after Close.
	ErrClosed = errors.New("pool: closed")

	// ErrBadOption indicates invalid Options.
	ErrBadOption = errors.New("pool: bad option")
)
