package format

import (
	"fmt"

	"github.com/joshuapare/tagalloc/internal/buf"
)

// Tag is a decoded boundary tag.
//
// The same record is written at both ends of a block. Only the header's
// Prev/Next fields are meaningful; footers always carry NoLink.
type Tag struct {
	Size      int64 // Payload capacity in bytes (never negative once decoded)
	Allocated bool  // True when the block is owned by a caller
	Prev      int64 // Header offset of the previous free block, or NoLink
	Next      int64 // Header offset of the next free block, or NoLink
}

// Raw returns the signed on-arena encoding of the size field.
func (t Tag) Raw() int64 {
	if t.Allocated {
		return -t.Size
	}
	return t.Size
}

// ReadTag decodes the tag at off.
func ReadTag(b []byte, off int) (Tag, error) {
	if !buf.Has(b, off, TagSize) {
		return Tag{}, fmt.Errorf("tag at %d: %w", off, ErrTruncated)
	}
	raw := ReadI64(b, off+TagSizeOffset)
	t := Tag{
		Size: raw,
		Prev: ReadI64(b, off+TagPrevOffset),
		Next: ReadI64(b, off+TagNextOffset),
	}
	if raw < 0 {
		t.Size = -raw
		t.Allocated = true
	}
	return t, nil
}

// PutTag encodes t at off.
func PutTag(b []byte, off int, t Tag) error {
	if !buf.Has(b, off, TagSize) {
		return fmt.Errorf("tag at %d: %w", off, ErrTruncated)
	}
	PutI64(b, off+TagSizeOffset, t.Raw())
	PutI64(b, off+TagPrevOffset, t.Prev)
	PutI64(b, off+TagNextOffset, t.Next)
	return nil
}

// PayloadOffset returns the payload offset of the block whose header is at header.
func PayloadOffset(header int) int { return header + TagSize }

// HeaderOffset returns the header offset of the block whose payload is at payload.
func HeaderOffset(payload int) int { return payload - TagSize }

// FooterOffset returns the footer offset of a block with the given header and capacity.
func FooterOffset(header int, size int64) int { return header + TagSize + int(size) }

// NextHeaderOffset returns the offset just past the block, which is where the
// following block's header starts.
func NextHeaderOffset(header int, size int64) int { return header + BlockOverhead + int(size) }

// Block is a decoded block: header offset, capacity and status.
type Block struct {
	Offset    int   // Header offset within the arena
	Size      int64 // Payload capacity in bytes
	Allocated bool
}

// Payload returns the payload offset of the block.
func (bl Block) Payload() int { return PayloadOffset(bl.Offset) }

// End returns the offset just past the block's footer.
func (bl Block) End() int { return NextHeaderOffset(bl.Offset, bl.Size) }

// ParseBlock decodes the header at off and cross-checks it against the footer
// it points at. It fails when either tag falls outside b or the two disagree.
func ParseBlock(b []byte, off int) (Block, error) {
	h, err := ReadTag(b, off)
	if err != nil {
		return Block{}, err
	}
	if h.Size < 0 || h.Size > int64(len(b)) {
		return Block{}, fmt.Errorf("block at %d: declared size %d: %w", off, h.Size, ErrTruncated)
	}
	foot, ok := buf.AddOverflowSafe(off+TagSize, int(h.Size))
	if !ok {
		return Block{}, fmt.Errorf("block at %d: %w", off, ErrTruncated)
	}
	f, err := ReadTag(b, foot)
	if err != nil {
		return Block{}, fmt.Errorf("block at %d: footer: %w", off, err)
	}
	if f.Size != h.Size || f.Allocated != h.Allocated {
		return Block{}, fmt.Errorf(
			"block at %d: header %d, footer %d: %w", off, h.Raw(), f.Raw(), ErrTagMismatch,
		)
	}
	return Block{Offset: off, Size: h.Size, Allocated: h.Allocated}, nil
}

// NextBlock decodes the block at off and returns it together with the offset
// of the following block.
func NextBlock(b []byte, off int) (Block, int, error) {
	bl, err := ParseBlock(b, off)
	if err != nil {
		return Block{}, 0, err
	}
	return bl, bl.End(), nil
}

// PutBlock writes matching header and footer tags for a block. Links are
// cleared in both; free-list code sets the header links afterwards.
func PutBlock(b []byte, off int, size int64, allocated bool) error {
	t := Tag{Size: size, Allocated: allocated, Prev: NoLink, Next: NoLink}
	if err := PutTag(b, off, t); err != nil {
		return err
	}
	return PutTag(b, FooterOffset(off, size), t)
}
