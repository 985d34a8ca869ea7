package format

import "encoding/binary"

// Binary encoding utilities for little-endian integers.
//
// Tags are read and written through encoding/binary rather than by casting
// arena bytes to structs, so the layout does not depend on host endianness,
// pointer width or the alignment of the backing slice.

// PutI64 writes an int64 value to the buffer at the specified offset in little-endian format.
func PutI64(b []byte, off int, v int64) {
	binary.LittleEndian.PutUint64(b[off:off+8], uint64(v))
}

// ReadI64 reads an int64 value from the buffer at the specified offset in little-endian format.
func ReadI64(b []byte, off int) int64 {
	return int64(binary.LittleEndian.Uint64(b[off : off+8]))
}
