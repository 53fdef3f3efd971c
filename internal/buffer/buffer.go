// Package buffer implements a small random-access byte cursor used to
// decode the fixed-width dogtag record carried in GetRecordAsMap responses.
package buffer

import (
	"encoding/binary"
	"math"

	"github.com/cetteup/bfbc2-statsd-go/bferrors"
)

// Direction selects which end of the buffer subsequent reads consume from.
type Direction int

const (
	Forward Direction = iota
	Reverse
)

// Endian selects the byte order typed reads decode with. PlayStation
// dogtag records are big-endian; PC records are little-endian.
type Endian int

const (
	LittleEndian Endian = iota
	BigEndian
)

func (e Endian) order() binary.ByteOrder {
	if e == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Buffer is a byte cursor over a fixed data slice. It never grows; all
// reads are bounds-checked and return bferrors.Protocol (Not: none) via
// OutOfBounds semantics.
type Buffer struct {
	data   []byte
	pos    int
	dir    Direction
	endian Endian
}

// New creates a Buffer reading forward from the start of data, using the
// given endianness for typed reads.
func New(data []byte, endian Endian) *Buffer {
	return &Buffer{data: data, pos: 0, dir: Forward, endian: endian}
}

// Len returns the total length of the underlying data.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Remaining returns the number of bytes available in the current
// direction before a read would go out of bounds.
func (b *Buffer) Remaining() int {
	if b.dir == Forward {
		return len(b.data) - b.pos
	}
	return b.pos
}

// outOfBounds reports a read that would underflow/overflow the buffer.
func outOfBounds(msg string) error {
	return bferrors.New(bferrors.Protocol, "buffer: "+msg)
}

// Read consumes and returns n bytes from the current position, advancing
// in the current direction.
func (b *Buffer) Read(n int) ([]byte, error) {
	out, err := b.Peek(n)
	if err != nil {
		return nil, err
	}
	if b.dir == Forward {
		b.pos += n
	} else {
		b.pos -= n
	}
	return out, nil
}

// Peek returns the next n bytes without advancing the cursor. The bytes
// are always returned in forward (increasing-address) order regardless
// of direction.
func (b *Buffer) Peek(n int) ([]byte, error) {
	if n < 0 {
		return nil, outOfBounds("negative read length")
	}
	if b.dir == Forward {
		if b.pos+n > len(b.data) {
			return nil, outOfBounds("attempt to read beyond buffer length")
		}
		return b.data[b.pos : b.pos+n], nil
	}
	if b.pos-n < 0 {
		return nil, outOfBounds("attempt to read before buffer start")
	}
	return b.data[b.pos-n : b.pos], nil
}

// Skip advances the cursor by n bytes in the current direction without
// returning the skipped data.
func (b *Buffer) Skip(n int) error {
	_, err := b.Read(n)
	return err
}

// Reverse flips the read direction and resets the cursor to the opposite
// end of the buffer: switching to Reverse moves the cursor to the end,
// switching back to Forward moves it to the start.
func (b *Buffer) Reverse() {
	if b.dir == Forward {
		b.dir = Reverse
		b.pos = len(b.data)
	} else {
		b.dir = Forward
		b.pos = 0
	}
}

// ReadUchar reads a single unsigned byte.
func (b *Buffer) ReadUchar() (byte, error) {
	data, err := b.Read(1)
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

// ReadUshort reads an unsigned 16-bit integer using the buffer's
// configured endianness.
func (b *Buffer) ReadUshort() (uint16, error) {
	data, err := b.Read(2)
	if err != nil {
		return 0, err
	}
	return b.endian.order().Uint16(data), nil
}

// ReadFloat reads a 32-bit IEEE-754 float using the buffer's configured
// endianness.
func (b *Buffer) ReadFloat() (float32, error) {
	data, err := b.Read(4)
	if err != nil {
		return 0, err
	}
	bits := b.endian.order().Uint32(data)
	return math.Float32frombits(bits), nil
}
