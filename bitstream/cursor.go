// Package bitstream provides a read/write cursor over a byte buffer at bit granularity.
//
// Fields are stored least significant bit first: bit k of a field written at
// stream position p lands in byte (p+k)/8 at bit (p+k)%8. This is the order used
// by every bit-packed region of the save formats, and it has the useful property
// that a byte-aligned 8/16/32-bit field reads identically to a little-endian
// integer.
//
// # Basic Usage
//
//	cur := bitstream.NewCursor(data)
//	id, err := cur.ReadBits(9)
//	if err != nil {
//	    return err
//	}
//
// Writers start from an empty (or pre-filled) buffer and grow it on demand:
//
//	cur := bitstream.NewCursor(nil)
//	_ = cur.WriteBits(9, 511)
//	cur.AlignWrite()
//	out := cur.Bytes()
//
// A Cursor is not safe for concurrent use.
package bitstream

import (
	"fmt"

	"github.com/arloliu/d2s/errs"
)

// MaxWidth is the widest field a single ReadBits/WriteBits call accepts.
const MaxWidth = 64

const noLimit = -1

// Cursor tracks a bit offset into a borrowed byte buffer.
//
// Invariant: 0 <= pos <= len(buf)*8. Reads never move past the end of the buffer
// (or past the limit, when one is set); writes grow the buffer with zero bytes.
type Cursor struct {
	buf   []byte
	pos   int // bit offset
	limit int // bit offset reads may not cross, noLimit when unset
}

// NewCursor creates a cursor positioned at bit 0 of buf.
//
// The cursor borrows buf: writes inside its current length modify it in place,
// writes past the end append to it. Use Bytes to retrieve the possibly
// reallocated buffer after writing.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf, limit: noLimit}
}

// NewWriter creates an empty cursor with capacity for sizeHint bytes.
func NewWriter(sizeHint int) *Cursor {
	return &Cursor{buf: make([]byte, 0, sizeHint), limit: noLimit}
}

// Bytes returns the underlying buffer, including any bytes grown by writes.
func (c *Cursor) Bytes() []byte {
	return c.buf
}

// Len returns the buffer length in bytes.
func (c *Cursor) Len() int {
	return len(c.buf)
}

// BitPos returns the current offset in bits.
func (c *Cursor) BitPos() int {
	return c.pos
}

// BytePos returns the current offset in whole bytes, rounded down.
func (c *Cursor) BytePos() int {
	return c.pos >> 3
}

// Remaining returns the number of readable bits before the end or the limit.
func (c *Cursor) Remaining() int {
	end := len(c.buf) * 8
	if c.limit != noLimit && c.limit < end {
		end = c.limit
	}

	if end < c.pos {
		return 0
	}

	return end - c.pos
}

// Aligned reports whether the cursor sits on a byte boundary.
func (c *Cursor) Aligned() bool {
	return c.pos&7 == 0
}

// BitsToAlign returns how many bits separate the cursor from the next byte boundary.
func (c *Cursor) BitsToAlign() int {
	return (8 - c.pos&7) & 7
}

// SetLimit installs a stop position in bits. Reads that would cross it fail with
// errs.ErrTruncatedInput. Passing a negative value clears the limit.
func (c *Cursor) SetLimit(bitPos int) {
	if bitPos < 0 {
		c.limit = noLimit
		return
	}
	c.limit = bitPos
}

// Limit returns the current stop position, or -1 when none is set.
func (c *Cursor) Limit() int {
	return c.limit
}

// Seek moves the cursor to an absolute bit offset. Seeking past the end of the
// buffer grows it with zero bytes, so a writer may reserve space for fields it
// patches later.
func (c *Cursor) Seek(bitPos int) {
	if bitPos < 0 {
		bitPos = 0
	}
	c.ensure(bitPos)
	c.pos = bitPos
}

// ReadBits reads an n-bit field (0 <= n <= 64) and advances the cursor.
//
// Returns errs.ErrTruncatedInput when fewer than n bits remain. The cursor does
// not move on error.
func (c *Cursor) ReadBits(n int) (uint64, error) {
	v, err := c.PeekBits(n)
	if err != nil {
		return 0, err
	}
	c.pos += n

	return v, nil
}

// PeekBits reads an n-bit field without advancing the cursor.
func (c *Cursor) PeekBits(n int) (uint64, error) {
	if n < 0 || n > MaxWidth {
		return 0, fmt.Errorf("%w: %d", errs.ErrInvalidBitWidth, n)
	}

	if n == 0 {
		return 0, nil
	}

	if c.Remaining() < n {
		return 0, fmt.Errorf("%w: need %d bits at bit %d, have %d", errs.ErrTruncatedInput, n, c.pos, c.Remaining())
	}

	var v uint64
	pos := c.pos
	got := 0
	for got < n {
		bitOff := pos & 7
		take := 8 - bitOff
		if take > n-got {
			take = n - got
		}
		b := uint64(c.buf[pos>>3]>>bitOff) & (1<<take - 1)
		v |= b << got
		got += take
		pos += take
	}

	return v, nil
}

// SkipBits advances a reading cursor by n bits without decoding them.
func (c *Cursor) SkipBits(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d", errs.ErrInvalidBitWidth, n)
	}

	if c.Remaining() < n {
		return fmt.Errorf("%w: cannot skip %d bits at bit %d", errs.ErrTruncatedInput, n, c.pos)
	}
	c.pos += n

	return nil
}

// ReadBool reads a single bit.
func (c *Cursor) ReadBool() (bool, error) {
	v, err := c.ReadBits(1)
	return v == 1, err
}

// WriteBits writes the low n bits of value at the cursor and advances it.
//
// The buffer grows as needed; bits that are skipped over by Seek or AlignWrite are
// left zero. Returns errs.ErrValueOverflow if value has bits set above n.
func (c *Cursor) WriteBits(n int, value uint64) error {
	if n < 0 || n > MaxWidth {
		return fmt.Errorf("%w: %d", errs.ErrInvalidBitWidth, n)
	}

	if n < MaxWidth && value>>n != 0 {
		return fmt.Errorf("%w: %d in %d bits", errs.ErrValueOverflow, value, n)
	}

	if n == 0 {
		return nil
	}

	c.ensure(c.pos + n)

	done := 0
	for done < n {
		bitOff := c.pos & 7
		take := 8 - bitOff
		if take > n-done {
			take = n - done
		}
		mask := byte((1<<take - 1) << bitOff)
		b := byte((value>>done)&(1<<take-1)) << bitOff
		idx := c.pos >> 3
		c.buf[idx] = c.buf[idx]&^mask | b
		done += take
		c.pos += take
	}

	return nil
}

// WriteBool writes a single bit.
func (c *Cursor) WriteBool(v bool) error {
	if v {
		return c.WriteBits(1, 1)
	}

	return c.WriteBits(1, 0)
}

// AlignToByte advances a reading cursor to the next byte boundary and returns the
// skipped bits so callers that must reproduce them can keep them.
func (c *Cursor) AlignToByte() (uint64, int, error) {
	n := c.BitsToAlign()
	v, err := c.ReadBits(n)

	return v, n, err
}

// AlignWrite pads the written stream with zero bits up to the next byte boundary.
func (c *Cursor) AlignWrite() {
	n := c.BitsToAlign()
	if n == 0 {
		return
	}
	_ = c.WriteBits(n, 0)
}

// ReadBytes reads n whole bytes from a byte-aligned cursor. The returned slice
// aliases the underlying buffer.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if !c.Aligned() {
		return nil, fmt.Errorf("%w: at bit %d", errs.ErrUnaligned, c.pos)
	}

	if n < 0 || c.Remaining() < n*8 {
		return nil, fmt.Errorf("%w: need %d bytes at byte %d", errs.ErrTruncatedInput, n, c.BytePos())
	}

	start := c.BytePos()
	c.pos += n * 8

	return c.buf[start : start+n], nil
}

// WriteBytes writes whole bytes at a byte-aligned cursor.
func (c *Cursor) WriteBytes(data []byte) error {
	if !c.Aligned() {
		return fmt.Errorf("%w: at bit %d", errs.ErrUnaligned, c.pos)
	}

	end := c.pos + len(data)*8
	c.ensure(end)
	copy(c.buf[c.BytePos():], data)
	c.pos = end

	return nil
}

// ReadUint8 reads an aligned byte.
func (c *Cursor) ReadUint8() (uint8, error) {
	v, err := c.readAligned(8)
	return uint8(v), err //nolint:gosec
}

// ReadUint16 reads an aligned little-endian uint16.
func (c *Cursor) ReadUint16() (uint16, error) {
	v, err := c.readAligned(16)
	return uint16(v), err //nolint:gosec
}

// ReadUint32 reads an aligned little-endian uint32.
func (c *Cursor) ReadUint32() (uint32, error) {
	v, err := c.readAligned(32)
	return uint32(v), err //nolint:gosec
}

// ExpectBytes reads len(marker) aligned bytes and reports whether they equal marker.
// The cursor only advances when they match.
func (c *Cursor) ExpectBytes(marker []byte) (bool, error) {
	if !c.Aligned() {
		return false, fmt.Errorf("%w: at bit %d", errs.ErrUnaligned, c.pos)
	}

	if c.Remaining() < len(marker)*8 {
		return false, fmt.Errorf("%w: need %d bytes at byte %d", errs.ErrTruncatedInput, len(marker), c.BytePos())
	}

	start := c.BytePos()
	for i, b := range marker {
		if c.buf[start+i] != b {
			return false, nil
		}
	}
	c.pos += len(marker) * 8

	return true, nil
}

func (c *Cursor) readAligned(n int) (uint64, error) {
	if !c.Aligned() {
		return 0, fmt.Errorf("%w: at bit %d", errs.ErrUnaligned, c.pos)
	}

	return c.ReadBits(n)
}

// ensure grows the buffer with zero bytes so that bitEnd is addressable.
func (c *Cursor) ensure(bitEnd int) {
	need := (bitEnd + 7) >> 3
	if need <= len(c.buf) {
		return
	}

	if need <= cap(c.buf) {
		old := len(c.buf)
		c.buf = c.buf[:need]
		clear(c.buf[old:])

		return
	}

	grown := make([]byte, need, need+need/4+16)
	copy(grown, c.buf)
	c.buf = grown
}
