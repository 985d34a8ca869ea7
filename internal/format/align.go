package format

// AlignWord returns n aligned up to the next 8-byte boundary.
//
// Example:
//
//	AlignWord(1)  = 8
//	AlignWord(8)  = 8
//	AlignWord(9)  = 16
func AlignWord(n int) int {
	return (n + WordAlignmentMask) & ^WordAlignmentMask
}

// AlignTo returns n aligned up to a multiple of align, which must be a power of two.
// An align of 0 or 1 leaves n unchanged.
func AlignTo(n, align int) int {
	switch {
	case align <= 1:
		return n
	case align == WordSize:
		return AlignWord(n)
	}
	mask := align - 1
	return (n + mask) & ^mask
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
