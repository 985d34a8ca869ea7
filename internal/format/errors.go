package format

import "errors"

var (
	// ErrTruncated indicates the arena lacked the bytes required for a tag or block.
	ErrTruncated = errors.New("format: truncated arena")
	// ErrTagMismatch indicates a block's header and footer disagree.
	ErrTagMismatch = errors.New("format: header/footer mismatch")
)
