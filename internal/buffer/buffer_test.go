package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadForward(t *testing.T) {
	b := New([]byte{0x01, 0x02, 0x03, 0x04}, LittleEndian)
	got, err := b.Read(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, got)
	assert.Equal(t, 2, b.Remaining())
}

func TestPeekDoesNotAdvance(t *testing.T) {
	b := New([]byte{0xAA, 0xBB}, LittleEndian)
	got, err := b.Peek(1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA}, got)
	assert.Equal(t, 2, b.Remaining())
}

func TestReadOutOfBounds(t *testing.T) {
	b := New([]byte{0x01}, LittleEndian)
	_, err := b.Read(2)
	require.Error(t, err)
}

func TestSkip(t *testing.T) {
	b := New([]byte{0x01, 0x02, 0x03}, LittleEndian)
	require.NoError(t, b.Skip(1))
	got, err := b.Read(1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02}, got)
}

func TestReverse(t *testing.T) {
	b := New([]byte{0x01, 0x02, 0x03}, LittleEndian)
	b.Reverse()
	assert.Equal(t, 3, b.Remaining())
	got, err := b.Read(1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x03}, got, "reverse-direction read returns the trailing byte")
	b.Reverse()
	got, err = b.Read(1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, got, "switching back to forward resets to the start")
}

func TestReadUcharUshortFloatLittleEndian(t *testing.T) {
	// float32(1.5) little-endian bytes: 00 00 C0 3F
	data := []byte{0x2A, 0x34, 0x12, 0x00, 0x00, 0xC0, 0x3F}
	b := New(data, LittleEndian)
	c, err := b.ReadUchar()
	require.NoError(t, err)
	assert.Equal(t, byte(0x2A), c)

	us, err := b.ReadUshort()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), us)

	f, err := b.ReadFloat()
	require.NoError(t, err)
	assert.InDelta(t, 1.5, f, 0.0001)
}

func TestReadUshortBigEndian(t *testing.T) {
	b := New([]byte{0x12, 0x34}, BigEndian)
	us, err := b.ReadUshort()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), us)
}
