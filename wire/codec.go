package wire

import (
	"errors"
	"fmt"
)

// Encoding primitives shared by every request/response type.
//
// Integers are unsigned LEB128 varints, byte strings are varint
// length-prefixed, enums are a single discriminant byte. The encoding is
// self-describing: a decoder always knows where a field ends without a
// schema lookup, which matters because the transport is a raw byte
// stream with no structural framing of its own.

var (
	// ErrTruncated is returned when the input ends mid-field.
	ErrTruncated = errors.New("wire: truncated input")
	// ErrOverflow is returned when a varint exceeds its target width.
	ErrOverflow = errors.New("wire: varint overflow")
)

// Encoder appends fields to a byte slice.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an Encoder appending to buf (may be nil).
func NewEncoder(buf []byte) *Encoder { return &Encoder{buf: buf} }

// Bytes returns the encoded output.
func (e *Encoder) Bytes() []byte { return e.buf }

// U8 appends a single byte.
func (e *Encoder) U8(v uint8) { e.buf = append(e.buf, v) }

// Uvarint appends an unsigned LEB128 varint.
func (e *Encoder) Uvarint(v uint64) {
	for v >= 0x80 {
		e.buf = append(e.buf, byte(v)|0x80)
		v >>= 7
	}
	e.buf = append(e.buf, byte(v))
}

// U16 appends v as a varint.
func (e *Encoder) U16(v uint16) { e.Uvarint(uint64(v)) }

// U32 appends v as a varint.
func (e *Encoder) U32(v uint32) { e.Uvarint(uint64(v)) }

// Blob appends a varint length prefix followed by the raw bytes.
func (e *Encoder) Blob(b []byte) {
	e.Uvarint(uint64(len(b)))
	e.buf = append(e.buf, b...)
}

// Decoder consumes fields from a byte slice. It never reads past the end
// of its input; every accessor returns ErrTruncated instead.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder returns a Decoder over buf. The decoder borrows buf; Blob
// results alias it.
func NewDecoder(buf []byte) *Decoder { return &Decoder{buf: buf} }

// Remaining reports how many bytes are left unread.
func (d *Decoder) Remaining() int { return len(d.buf) - d.pos }

// U8 consumes a single byte.
func (d *Decoder) U8() (uint8, error) {
	if d.pos >= len(d.buf) {
		return 0, ErrTruncated
	}
	v := d.buf[d.pos]
	d.pos++
	return v, nil
}

// Uvarint consumes an unsigned LEB128 varint of at most 64 bits.
func (d *Decoder) Uvarint() (uint64, error) {
	var v uint64
	var shift uint
	for {
		if d.pos >= len(d.buf) {
			return 0, ErrTruncated
		}
		b := d.buf[d.pos]
		d.pos++
		if shift >= 64 || (shift == 63 && b > 1) {
			return 0, ErrOverflow
		}
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, nil
		}
		shift += 7
	}
}

// U16 consumes a varint and range-checks it against uint16.
func (d *Decoder) U16() (uint16, error) {
	v, err := d.Uvarint()
	if err != nil {
		return 0, err
	}
	if v > 0xffff {
		return 0, fmt.Errorf("%w: %d exceeds uint16", ErrOverflow, v)
	}
	return uint16(v), nil
}

// U32 consumes a varint and range-checks it against uint32.
func (d *Decoder) U32() (uint32, error) {
	v, err := d.Uvarint()
	if err != nil {
		return 0, err
	}
	if v > 0xffffffff {
		return 0, fmt.Errorf("%w: %d exceeds uint32", ErrOverflow, v)
	}
	return uint32(v), nil
}

// Blob consumes a varint length prefix and returns a view of that many
// bytes. The returned slice aliases the decoder's input and is only
// valid as long as the input buffer is.
func (d *Decoder) Blob() ([]byte, error) {
	n, err := d.Uvarint()
	if err != nil {
		return nil, err
	}
	if n > uint64(len(d.buf)-d.pos) {
		return nil, ErrTruncated
	}
	b := d.buf[d.pos : d.pos+int(n)]
	d.pos += int(n)
	return b, nil
}
