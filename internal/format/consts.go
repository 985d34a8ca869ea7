// Package format houses the low-level block layout used inside an arena: the
// boundary tag codec and the offset arithmetic that frames every block. It is
// kept independent from the allocator so the checker in pool/verify can decode
// a raw arena without reaching into allocator state.
package format

const (
	// TagSize is the size of one boundary tag (header or footer) in bytes.
	//
	// Tag layout (little-endian):
	//
	//	Offset  Size  Description
	//	0x00    8     Signed payload size. Negative => allocated, positive => free.
	//	0x08    8     Header offset of the previous free block (NoLink if none).
	//	0x10    8     Header offset of the next free block (NoLink if none).
	TagSize = 24

	// TagSizeOffset is the offset of the signed size field within a tag.
	TagSizeOffset = 0x00

	// TagPrevOffset is the offset of the previous-free link within a tag.
	TagPrevOffset = 0x08

	// TagNextOffset is the offset of the next-free link within a tag.
	TagNextOffset = 0x10

	// BlockOverhead is the metadata cost of one block: a header plus a footer.
	BlockOverhead = 2 * TagSize

	// MinPoolSize is the smallest arena that can hold a single (empty) block.
	MinPoolSize = BlockOverhead

	// NoLink marks the end of the free list in a prev/next field.
	NoLink int64 = -1

	// WordSize is the natural alignment of tag fields.
	WordSize = 8

	// WordAlignmentMask is used by AlignWord.
	WordAlignmentMask = WordSize - 1
)
