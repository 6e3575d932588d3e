package types

import (
	"encoding/binary"
	"errors"
	"io"
)

// maxSliceLen caps decoded slice lengths so a corrupted stream cannot ask for
// gigabytes of allocation.
const maxSliceLen = 1 << 26

// ErrSliceTooLarge is returned when a decoded length prefix exceeds the
// allocation cap.
var ErrSliceTooLarge = errors.New("encoded slice is too large to be decoded")

// Writer wraps an io.Writer with sticky-error little-endian primitives. The
// first error wins; every later call is a no-op, so call sites can chain
// writes and check Err once.
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter returns a sticky-error writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Err returns the first error encountered while writing.
func (e *Writer) Err() error { return e.err }

// Write writes raw bytes.
func (e *Writer) Write(p []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(p)
}

// WriteUint8 writes a single byte.
func (e *Writer) WriteUint8(v uint8) {
	e.Write([]byte{v})
}

// WriteBool writes a bool as one byte.
func (e *Writer) WriteBool(v bool) {
	if v {
		e.WriteUint8(1)
	} else {
		e.WriteUint8(0)
	}
}

// WriteUint32 writes a little-endian uint32.
func (e *Writer) WriteUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.Write(b[:])
}

// WriteInt32 writes a little-endian int32.
func (e *Writer) WriteInt32(v int32) {
	e.WriteUint32(uint32(v))
}

// WriteUint64 writes a little-endian uint64.
func (e *Writer) WriteUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.Write(b[:])
}

// WriteInt64 writes a little-endian int64.
func (e *Writer) WriteInt64(v int64) {
	e.WriteUint64(uint64(v))
}

// WriteBytes writes a uint64 length prefix followed by the raw bytes.
func (e *Writer) WriteBytes(p []byte) {
	e.WriteUint64(uint64(len(p)))
	e.Write(p)
}

// WriteString writes a length-prefixed string.
func (e *Writer) WriteString(s string) {
	e.WriteBytes([]byte(s))
}

// WriteCompactSize writes a bitcoin-style variable length integer.
func (e *Writer) WriteCompactSize(v uint64) {
	switch {
	case v < 0xfd:
		e.WriteUint8(uint8(v))
	case v <= 0xffff:
		e.WriteUint8(0xfd)
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(v))
		e.Write(b[:])
	case v <= 0xffffffff:
		e.WriteUint8(0xfe)
		e.WriteUint32(uint32(v))
	default:
		e.WriteUint8(0xff)
		e.WriteUint64(v)
	}
}

// Reader wraps an io.Reader with sticky-error little-endian primitives
// mirroring Writer.
type Reader struct {
	r   io.Reader
	err error
}

// NewReader returns a sticky-error reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Err returns the first error encountered while reading.
func (d *Reader) Err() error { return d.err }

// Fail marks the reader as failed if it has not failed already. Decoders use
// it to reject structurally invalid values.
func (d *Reader) Fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

// Read fills p entirely.
func (d *Reader) Read(p []byte) {
	if d.err != nil {
		return
	}
	_, d.err = io.ReadFull(d.r, p)
}

// ReadUint8 reads one byte.
func (d *Reader) ReadUint8() uint8 {
	var b [1]byte
	d.Read(b[:])
	return b[0]
}

// ReadBool reads a one-byte bool, rejecting values other than 0 and 1.
func (d *Reader) ReadBool() bool {
	v := d.ReadUint8()
	if d.err == nil && v > 1 {
		d.err = errors.New("boolean byte is not 0 or 1")
	}
	return v == 1
}

// ReadUint32 reads a little-endian uint32.
func (d *Reader) ReadUint32() uint32 {
	var b [4]byte
	d.Read(b[:])
	return binary.LittleEndian.Uint32(b[:])
}

// ReadInt32 reads a little-endian int32.
func (d *Reader) ReadInt32() int32 {
	return int32(d.ReadUint32())
}

// ReadUint64 reads a little-endian uint64.
func (d *Reader) ReadUint64() uint64 {
	var b [8]byte
	d.Read(b[:])
	return binary.LittleEndian.Uint64(b[:])
}

// ReadInt64 reads a little-endian int64.
func (d *Reader) ReadInt64() int64 {
	return int64(d.ReadUint64())
}

// ReadBytes reads a uint64 length prefix followed by that many bytes.
func (d *Reader) ReadBytes() []byte {
	n := d.ReadUint64()
	if d.err != nil {
		return nil
	}
	if n > maxSliceLen {
		d.err = ErrSliceTooLarge
		return nil
	}
	p := make([]byte, n)
	d.Read(p)
	if d.err != nil {
		return nil
	}
	return p
}

// ReadString reads a length-prefixed string.
func (d *Reader) ReadString() string {
	return string(d.ReadBytes())
}

// ReadCompactSize reads a bitcoin-style variable length integer.
func (d *Reader) ReadCompactSize() uint64 {
	tag := d.ReadUint8()
	switch tag {
	case 0xfd:
		var b [2]byte
		d.Read(b[:])
		return uint64(binary.LittleEndian.Uint16(b[:]))
	case 0xfe:
		return uint64(d.ReadUint32())
	case 0xff:
		return d.ReadUint64()
	default:
		return uint64(tag)
	}
}
