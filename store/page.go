package store

import (
	"encoding/binary"
	"os"

	"github.com/edsrzf/mmap-go"
)

// PageSize is the fixed compile-time page size of the on-disk format
// (spec.md §6.1). It never varies between store versions.
const PageSize = 16384

// pagedFile is a read-only file divided into fixed PageSize pages and backed
// by a single memory mapping for the lifetime of the Store.
type pagedFile struct {
	f   *os.File
	m   mmap.MMap
	len int64
}

func openPagedFile(path string) (*pagedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &pagedFile{f: f, m: m, len: fi.Size()}, nil
}

func (p *pagedFile) close() error {
	if err := p.m.Unmap(); err != nil {
		p.f.Close()
		return err
	}
	return p.f.Close()
}

// page returns the byte offset of the first byte of page number n.
func (p *pagedFile) page(n uint32) int64 {
	return int64(n) * PageSize
}

// cursorAt returns a cursor positioned at the start of page n.
func (p *pagedFile) cursorAt(n uint32) *cursor {
	return &cursor{pf: p, off: p.page(n)}
}

// cursorAtOffset returns a cursor positioned at an arbitrary byte offset
// (used by the string heap, whose records are not page-aligned).
func (p *pagedFile) cursorAtOffset(off int64) *cursor {
	return &cursor{pf: p, off: off}
}

// cursor is pointer + offset arithmetic over the mapping with strictly typed
// reads (spec.md §4.1). All multi-byte reads are big-endian.
type cursor struct {
	pf  *pagedFile
	off int64
}

func (c *cursor) ensure(n int) error {
	if c.off < 0 || c.off+int64(n) > c.pf.len {
		return corruptf("read past end of mapping at offset %d (+%d bytes, file len %d)", c.off, n, c.pf.len)
	}
	return nil
}

func (c *cursor) readByte() (byte, error) {
	if err := c.ensure(1); err != nil {
		return 0, err
	}
	b := c.pf.m[c.off]
	c.off++
	return b, nil
}

func (c *cursor) readShort() (uint16, error) {
	if err := c.ensure(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(c.pf.m[c.off : c.off+2])
	c.off += 2
	return v, nil
}

func (c *cursor) readInt() (uint32, error) {
	if err := c.ensure(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(c.pf.m[c.off : c.off+4])
	c.off += 4
	return v, nil
}

func (c *cursor) readLong() (uint64, error) {
	if err := c.ensure(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(c.pf.m[c.off : c.off+8])
	c.off += 8
	return v, nil
}

// peekInt reads a big-endian uint32 at an absolute offset without advancing
// the cursor.
func (p *pagedFile) peekInt(off int64) (uint32, error) {
	if off < 0 || off+4 > p.len {
		return 0, corruptf("peekInt past end of mapping at offset %d", off)
	}
	return binary.BigEndian.Uint32(p.m[off : off+4]), nil
}

// readVarInt decodes a 7-bit-continuation little-endian-group varint
// (spec.md §4.1), up to 10 bytes (enough for 64 bits).
func (c *cursor) readVarInt() (uint64, error) {
	var v uint64
	var shift uint
	for i := 0; i < 10; i++ {
		b, err := c.readByte()
		if err != nil {
			return 0, err
		}
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, nil
		}
		shift += 7
	}
	return 0, corruptf("varint longer than 10 bytes")
}

// readDelta reads an n-byte (1..4) unsigned big-endian quantity, used for
// compressed triple-leaf deltas.
func (c *cursor) readDelta(n int) (uint32, error) {
	if n < 1 || n > 4 {
		return 0, corruptf("invalid delta width %d", n)
	}
	if err := c.ensure(n); err != nil {
		return 0, err
	}
	var v uint32
	for i := 0; i < n; i++ {
		v = v<<8 | uint32(c.pf.m[c.off])
		c.off++
	}
	return v, nil
}

func (c *cursor) readBytes(n int) ([]byte, error) {
	if err := c.ensure(n); err != nil {
		return nil, err
	}
	b := c.pf.m[c.off : c.off+int64(n)]
	c.off += int64(n)
	return b, nil
}
