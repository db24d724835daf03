package record

import (
	"bytes"
	"encoding/binary"
)

// Encoder writes fixed-width fields into a record buffer in order.
type Encoder struct {
	buf []byte
	pos int
}

// NewEncoder returns an Encoder positioned at the start of buf.
func NewEncoder(buf []byte) *Encoder {
	return &Encoder{buf: buf}
}

// String writes s as a NUL-padded field of the given width. At most
// width-1 bytes are kept so the field always ends in a terminator.
func (e *Encoder) String(s string, width int) {
	field := e.buf[e.pos : e.pos+width]
	clear(field)
	if len(s) > width-1 {
		s = s[:width-1]
	}
	copy(field, s)
	e.pos += width
}

// Int64 writes v little-endian.
func (e *Encoder) Int64(v int64) {
	binary.LittleEndian.PutUint64(e.buf[e.pos:], uint64(v))
	e.pos += 8
}

// Int32 writes v little-endian.
func (e *Encoder) Int32(v int32) {
	binary.LittleEndian.PutUint32(e.buf[e.pos:], uint32(v))
	e.pos += 4
}

// Bool writes v as a single byte.
func (e *Encoder) Bool(v bool) {
	if v {
		e.buf[e.pos] = 1
	} else {
		e.buf[e.pos] = 0
	}
	e.pos++
}

// Decoder reads fixed-width fields from a record buffer in order.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder returns a Decoder positioned at the start of buf.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// String reads a NUL-padded field of the given width.
func (d *Decoder) String(width int) string {
	field := d.buf[d.pos : d.pos+width]
	d.pos += width
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	return string(field)
}

// Int64 reads a little-endian int64.
func (d *Decoder) Int64() int64 {
	v := int64(binary.LittleEndian.Uint64(d.buf[d.pos:]))
	d.pos += 8
	return v
}

// Int32 reads a little-endian int32.
func (d *Decoder) Int32() int32 {
	v := int32(binary.LittleEndian.Uint32(d.buf[d.pos:]))
	d.pos += 4
	return v
}

// Bool reads a single byte; any non-zero value is true.
func (d *Decoder) Bool() bool {
	v := d.buf[d.pos] != 0
	d.pos++
	return v
}
