package pool

import (
	"fmt"

	"github.com/joshuapare/tagalloc/internal/buf"
	"github.com/joshuapare/tagalloc/internal/format"
)

// The free list is threaded through the prev/next fields of free blocks'
// header tags. Offsets, not pointers, so the list survives being copied or
// remapped and can be audited from the raw bytes alone.

// pushBack appends the free block at off to the tail of the list.
// off must be a header this pool has just written.
func (p *Pool) pushBack(off int64) {
	p.setLinks(off, p.tail, format.NoLink)
	if p.tail == format.NoLink {
		p.head = off
	} else {
		format.PutI64(p.data, int(p.tail)+format.TagNextOffset, off)
	}
	p.tail = off
	p.stats.FreeBlocks++
}

// unlink removes the free block at off from the list and clears its links.
func (p *Pool) unlink(off int64) error {
	if !p.linkable(off) {
		return fmt.Errorf("free-list entry %d outside arena", off)
	}
	prev := format.ReadI64(p.data, int(off)+format.TagPrevOffset)
	next := format.ReadI64(p.data, int(off)+format.TagNextOffset)

	if prev == format.NoLink {
		if p.head != off {
			return fmt.Errorf("free-list entry %d has no prev but head is %d", off, p.head)
		}
		p.head = next
	} else {
		if !p.linkable(prev) {
			return fmt.Errorf("free-list entry %d: prev %d outside arena", off, prev)
		}
		format.PutI64(p.data, int(prev)+format.TagNextOffset, next)
	}

	if next == format.NoLink {
		if p.tail != off {
			return fmt.Errorf("free-list entry %d has no next but tail is %d", off, p.tail)
		}
		p.tail = prev
	} else {
		if !p.linkable(next) {
			return fmt.Errorf("free-list entry %d: next %d outside arena", off, next)
		}
		format.PutI64(p.data, int(next)+format.TagPrevOffset, prev)
	}

	p.setLinks(off, format.NoLink, format.NoLink)
	p.stats.FreeBlocks--
	return nil
}

func (p *Pool) setLinks(off, prev, next int64) {
	format.PutI64(p.data, int(off)+format.TagPrevOffset, prev)
	format.PutI64(p.data, int(off)+format.TagNextOffset, next)
}

func (p *Pool) linkable(off int64) bool {
	return off >= 0 && off <= int64(len(p.data)) && buf.Has(p.data, int(off), format.TagSize)
}
