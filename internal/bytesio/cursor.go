// Package bytesio provides a cursor-backed byte reader/writer for the
// fixed-size wire buffers used by the DIRCON and mDNS codecs.
package bytesio

import (
	"encoding/binary"
	"errors"
)

// ErrShortBuffer is returned when a read or write would run past the end
// of the underlying buffer.
var ErrShortBuffer = errors.New("bytesio: short buffer")

// ByteOrder selects the endianness used by Read/Write operations.
type ByteOrder int

const (
	BigEndian ByteOrder = iota
	LittleEndian
)

func (o ByteOrder) impl() binary.ByteOrder {
	if o == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// Cursor is a position-tracking view over a fixed byte slice. It never
// grows the slice; every operation checks bounds before advancing.
type Cursor struct {
	buf    []byte
	offset int
	order  ByteOrder
}

// NewCursor wraps buf for reading and writing with the given byte order.
func NewCursor(buf []byte, order ByteOrder) *Cursor {
	return &Cursor{buf: buf, order: order}
}

// Len returns the number of unread/unwritten bytes remaining.
func (c *Cursor) Len() int { return len(c.buf) - c.offset }

// Offset returns the current cursor position.
func (c *Cursor) Offset() int { return c.offset }

// Bytes returns the entire underlying buffer.
func (c *Cursor) Bytes() []byte { return c.buf }

func (c *Cursor) checkAndAdvance(n int) (int, error) {
	if c.offset+n > len(c.buf) {
		return 0, ErrShortBuffer
	}
	start := c.offset
	c.offset += n
	return start, nil
}

// ReadU8 reads one unsigned byte.
func (c *Cursor) ReadU8() (uint8, error) {
	start, err := c.checkAndAdvance(1)
	if err != nil {
		return 0, err
	}
	return c.buf[start], nil
}

// ReadI8 reads one signed byte.
func (c *Cursor) ReadI8() (int8, error) {
	v, err := c.ReadU8()
	return int8(v), err
}

// ReadU16 reads a 16-bit unsigned value in the cursor's byte order.
func (c *Cursor) ReadU16() (uint16, error) {
	start, err := c.checkAndAdvance(2)
	if err != nil {
		return 0, err
	}
	return c.order.impl().Uint16(c.buf[start:]), nil
}

// ReadI16 reads a 16-bit signed value.
func (c *Cursor) ReadI16() (int16, error) {
	v, err := c.ReadU16()
	return int16(v), err
}

// ReadU24 reads a 24-bit unsigned value packed into a uint32.
func (c *Cursor) ReadU24() (uint32, error) {
	start, err := c.checkAndAdvance(3)
	if err != nil {
		return 0, err
	}
	b := c.buf[start : start+3]
	if c.order == LittleEndian {
		return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16, nil
	}
	return uint32(b[2]) | uint32(b[1])<<8 | uint32(b[0])<<16, nil
}

// ReadI24 reads a 24-bit signed value, sign-extended into an int32.
func (c *Cursor) ReadI24() (int32, error) {
	v, err := c.ReadU24()
	if err != nil {
		return 0, err
	}
	if v&0x800000 != 0 {
		v |= 0xFF000000
	}
	return int32(v), nil
}

// ReadU32 reads a 32-bit unsigned value.
func (c *Cursor) ReadU32() (uint32, error) {
	start, err := c.checkAndAdvance(4)
	if err != nil {
		return 0, err
	}
	return c.order.impl().Uint32(c.buf[start:]), nil
}

// ReadI32 reads a 32-bit signed value.
func (c *Cursor) ReadI32() (int32, error) {
	v, err := c.ReadU32()
	return int32(v), err
}

// ReadU64 reads a 64-bit unsigned value.
func (c *Cursor) ReadU64() (uint64, error) {
	start, err := c.checkAndAdvance(8)
	if err != nil {
		return 0, err
	}
	return c.order.impl().Uint64(c.buf[start:]), nil
}

// ReadBytes copies n raw bytes out of the cursor.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	start, err := c.checkAndAdvance(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, c.buf[start:start+n])
	return out, nil
}

// WriteU8 writes one unsigned byte.
func (c *Cursor) WriteU8(v uint8) error {
	start, err := c.checkAndAdvance(1)
	if err != nil {
		return err
	}
	c.buf[start] = v
	return nil
}

// WriteI8 writes one signed byte.
func (c *Cursor) WriteI8(v int8) error { return c.WriteU8(uint8(v)) }

// WriteU16 writes a 16-bit unsigned value.
func (c *Cursor) WriteU16(v uint16) error {
	start, err := c.checkAndAdvance(2)
	if err != nil {
		return err
	}
	c.order.impl().PutUint16(c.buf[start:], v)
	return nil
}

// WriteI16 writes a 16-bit signed value.
func (c *Cursor) WriteI16(v int16) error { return c.WriteU16(uint16(v)) }

// WriteU24 writes a 24-bit unsigned value carried in a uint32; the top
// byte of v is discarded.
func (c *Cursor) WriteU24(v uint32) error {
	start, err := c.checkAndAdvance(3)
	if err != nil {
		return err
	}
	b := c.buf[start : start+3]
	if c.order == LittleEndian {
		b[0] = byte(v)
		b[1] = byte(v >> 8)
		b[2] = byte(v >> 16)
	} else {
		b[0] = byte(v >> 16)
		b[1] = byte(v >> 8)
		b[2] = byte(v)
	}
	return nil
}

// WriteI24 writes a 24-bit signed value.
func (c *Cursor) WriteI24(v int32) error { return c.WriteU24(uint32(v) & 0xFFFFFF) }

// WriteU32 writes a 32-bit unsigned value.
func (c *Cursor) WriteU32(v uint32) error {
	start, err := c.checkAndAdvance(4)
	if err != nil {
		return err
	}
	c.order.impl().PutUint32(c.buf[start:], v)
	return nil
}

// WriteI32 writes a 32-bit signed value.
func (c *Cursor) WriteI32(v int32) error { return c.WriteU32(uint32(v)) }

// WriteU64 writes a 64-bit unsigned value.
func (c *Cursor) WriteU64(v uint64) error {
	start, err := c.checkAndAdvance(8)
	if err != nil {
		return err
	}
	c.order.impl().PutUint64(c.buf[start:], v)
	return nil
}

// WriteBytes copies raw bytes into the cursor.
func (c *Cursor) WriteBytes(b []byte) error {
	start, err := c.checkAndAdvance(len(b))
	if err != nil {
		return err
	}
	copy(c.buf[start:], b)
	return nil
}

// HexCopy renders buf as a space-separated uppercase hex string, the
// format used by the dissector's hex dump.
func HexCopy(buf []byte) string {
	const hexDigits = "0123456789ABCDEF"
	out := make([]byte, 0, len(buf)*3)
	for i, b := range buf {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, hexDigits[b>>4], hexDigits[b&0x0F])
	}
	return string(out)
}
