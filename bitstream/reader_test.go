package bitstream

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestReader(data []byte) *Reader {
	return NewReader(bufio.NewReader(bytes.NewReader(data)), 0)
}

func TestPeekConsumeSignedValue(t *testing.T) {
	r := newTestReader([]byte{0xFF, 0x00, 0xAA, 0x00, 0xFF, 0xAA})

	v, err := r.peek(7)
	require.NoError(t, err)
	require.Equal(t, uint32(0b1111111), v)

	v, err = r.peek(16)
	require.NoError(t, err)
	require.Equal(t, uint32(0b1111111110101010), v)

	r.consume(4)
	v, err = r.peek(16)
	require.NoError(t, err)
	require.Equal(t, uint32(0b1111101010100000), v)

	r.consume(4)
	v, err = r.peek(16)
	require.NoError(t, err)
	require.Equal(t, uint32(0b1010101000000000), v)

	s, err := r.DecodeSignedValue(3)
	require.NoError(t, err)
	require.Equal(t, int16(5), s)

	s, err = r.DecodeSignedValue(2)
	require.NoError(t, err)
	require.Equal(t, int16(-2), s)

	v, err = r.peek(11)
	require.NoError(t, err)
	require.Equal(t, uint32(0b01000000000), v)
}

func TestRefillHandlesByteStuffing(t *testing.T) {
	r := newTestReader([]byte{0xFF, 0x00, 0x01})
	v, err := r.peek(16)
	require.NoError(t, err)
	require.Equal(t, uint32(0xFF01), v)
}

func TestRefillStopsAtRestartMarker(t *testing.T) {
	r := newTestReader([]byte{0x01, 0xFF, 0xD0, 0x02})
	v, err := r.peek(16)
	require.NoError(t, err)
	// the byte after the implicit restart marker is padded with zero
	// bits, not the stream's next raw byte.
	require.Equal(t, uint32(0x0100), v)
	require.True(t, r.AtEOI())
}

func TestResetRejectsNonRestartMarker(t *testing.T) {
	r := newTestReader([]byte{0xFF, 0xD9})
	err := r.Reset()
	require.Error(t, err)
}
