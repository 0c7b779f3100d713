// Package bufreader provides bounds-checked fixed-width integer reads over
// an immutable byte slice, in both big- and little-endian order. It is the
// shared primitive every capture-file iterator and protocol decoder reads
// through; no component in this module parses a multi-byte field without
// going through here.
package bufreader

import (
	"encoding/binary"

	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/perr"
)

// Reader walks a byte slice with a cursor, failing with a bounds error
// rather than panicking whenever a read would run past the end.
type Reader struct {
	data []byte
	pos  int
}

// New wraps data for sequential reading starting at offset 0.
func New(data []byte) *Reader {
	return &Reader{data: data}
}

// Bytes returns the entire underlying slice, unaffected by the cursor.
func (r *Reader) Bytes() []byte { return r.data }

// Len returns the total length of the underlying slice.
func (r *Reader) Len() int { return len(r.data) }

// Position returns the current cursor offset.
func (r *Reader) Position() int { return r.pos }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.pos }

// Rest returns the unread tail of the slice without advancing the cursor.
func (r *Reader) Rest() []byte { return r.data[r.pos:] }

// SeekTo moves the cursor to an absolute offset, bounds-checked. DNS name
// compression pointers are the only consumer that needs this; every other
// decoder reads purely sequentially.
func (r *Reader) SeekTo(pos int) error {
	if pos < 0 || pos > len(r.data) {
		return perr.Boundsf(pos, "seek target out of range [0, %d]", len(r.data))
	}
	r.pos = pos
	return nil
}

// Skip advances the cursor by n bytes without returning them.
func (r *Reader) Skip(n int) error {
	if n < 0 || r.pos+n > len(r.data) {
		return perr.Boundsf(r.pos, "cannot skip %d bytes, only %d remain", n, r.Remaining())
	}
	r.pos += n
	return nil
}

// Peek returns the next n bytes without advancing the cursor.
func (r *Reader) Peek(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, perr.Boundsf(r.pos, "cannot peek %d bytes, only %d remain", n, r.Remaining())
	}
	return r.data[r.pos : r.pos+n], nil
}

// ReadBytes returns the next n bytes and advances the cursor past them. The
// returned slice aliases the underlying buffer (zero-copy).
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	b, err := r.Peek(n)
	if err != nil {
		return nil, err
	}
	r.pos += n
	return b, nil
}

// ReadUint8 reads a single byte.
func (r *Reader) ReadUint8() (uint8, error) {
	b, err := r.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadUint16BE reads a big-endian 16-bit unsigned integer.
func (r *Reader) ReadUint16BE() (uint16, error) {
	b, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadUint16LE reads a little-endian 16-bit unsigned integer.
func (r *Reader) ReadUint16LE() (uint16, error) {
	b, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadUint32BE reads a big-endian 32-bit unsigned integer.
func (r *Reader) ReadUint32BE() (uint32, error) {
	b, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadUint32LE reads a little-endian 32-bit unsigned integer.
func (r *Reader) ReadUint32LE() (uint32, error) {
	b, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadUint64BE reads a big-endian 64-bit unsigned integer.
func (r *Reader) ReadUint64BE() (uint64, error) {
	b, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// ReadUint64LE reads a little-endian 64-bit unsigned integer.
func (r *Reader) ReadUint64LE() (uint64, error) {
	b, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Endian selects byte order for a Reader's 16/32/64-bit reads.
type Endian int

const (
	BigEndian Endian = iota
	LittleEndian
)

// ReadUint16 reads a 16-bit value in the given byte order.
func (r *Reader) ReadUint16(e Endian) (uint16, error) {
	if e == LittleEndian {
		return r.ReadUint16LE()
	}
	return r.ReadUint16BE()
}

// ReadUint32 reads a 32-bit value in the given byte order.
func (r *Reader) ReadUint32(e Endian) (uint32, error) {
	if e == LittleEndian {
		return r.ReadUint32LE()
	}
	return r.ReadUint32BE()
}

// ReadUint64 reads a 64-bit value in the given byte order.
func (r *Reader) ReadUint64(e Endian) (uint64, error) {
	if e == LittleEndian {
		return r.ReadUint64LE()
	}
	return r.ReadUint64BE()
}

// Uint16At reads a big-endian 16-bit value at an absolute offset without
// disturbing any Reader's cursor. Used by decoders (DNS pointer chains) that
// need random access into a buffer they don't otherwise own sequentially.
func Uint16At(data []byte, offset int) (uint16, error) {
	if offset < 0 || offset+2 > len(data) {
		return 0, perr.Boundsf(offset, "cannot read 2 bytes, buffer is %d bytes", len(data))
	}
	return binary.BigEndian.Uint16(data[offset : offset+2]), nil
}

// Uint32At reads a big-endian 32-bit value at an absolute offset.
func Uint32At(data []byte, offset int) (uint32, error) {
	if offset < 0 || offset+4 > len(data) {
		return 0, perr.Boundsf(offset, "cannot read 4 bytes, buffer is %d bytes", len(data))
	}
	return binary.BigEndian.Uint32(data[offset : offset+4]), nil
}
