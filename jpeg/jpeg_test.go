package jpeg

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corvidae/bjpeg/jpegerr"
)

func u16(v int) []byte { return []byte{byte(v >> 8), byte(v)} }

// buildMinimalJPEG assembles, byte by byte, the smallest legal baseline
// stream this decoder accepts: one 8x8 4:4:4 MCU whose three components
// are each an immediate EOB block (DC delta 0), which reconstructs to a
// flat mid-grey 8x8 image.
func buildMinimalJPEG() []byte {
	dqt := []byte{0x00}
	for i := 0; i < 64; i++ {
		dqt = append(dqt, 1)
	}
	dqtSeg := append([]byte{0xFF, 0xDB}, u16(len(dqt)+2)...)
	dqtSeg = append(dqtSeg, dqt...)

	dht := []byte{0x00}
	counts0 := make([]byte, 16)
	counts0[0] = 1
	dht = append(dht, counts0...)
	dht = append(dht, 0x00) // DC category 0
	dht = append(dht, 0x10)
	counts1 := make([]byte, 16)
	counts1[0] = 1
	dht = append(dht, counts1...)
	dht = append(dht, 0x00) // AC: EOB
	dhtSeg := append([]byte{0xFF, 0xC4}, u16(len(dht)+2)...)
	dhtSeg = append(dhtSeg, dht...)

	sof := []byte{8}
	sof = append(sof, u16(8)...) // height
	sof = append(sof, u16(8)...) // width
	sof = append(sof, 3)
	sof = append(sof, 1, 0x11, 0, 2, 0x11, 0, 3, 0x11, 0)
	sofSeg := append([]byte{0xFF, 0xC0}, u16(len(sof)+2)...)
	sofSeg = append(sofSeg, sof...)

	sos := []byte{3, 1, 0x00, 2, 0x00, 3, 0x00, 0x00, 0x3F, 0x00}
	sosSeg := append([]byte{0xFF, 0xDA}, u16(len(sos)+2)...)
	sosSeg = append(sosSeg, sos...)

	// six Huffman-coded bits (DC=0, AC=EOB for each of 3 components),
	// padded to a byte, followed by EOI.
	entropy := []byte{0x03, 0xFF, 0xD9}

	full := append([]byte{0xFF, 0xD8}, dqtSeg...)
	full = append(full, dhtSeg...)
	full = append(full, sofSeg...)
	full = append(full, sosSeg...)
	full = append(full, entropy...)
	return full
}

func TestDecodeAllMinimalImage(t *testing.T) {
	img, err := DecodeAll(bytes.NewReader(buildMinimalJPEG()))
	require.NoError(t, err)
	require.Equal(t, 8, img.Width)
	require.Equal(t, 8, img.Height)
	require.Len(t, img.Pix, 8*8*3)
	for i, b := range img.Pix {
		require.Equalf(t, byte(128), b, "byte %d", i)
	}
}

func TestNewDecoderRejectsMissingSOI(t *testing.T) {
	_, err := NewDecoder(bytes.NewReader([]byte{0xFF, 0xC0, 0x00, 0x02}))
	require.Error(t, err)
}

func TestNewDecoderRejectsProgressiveSOF2(t *testing.T) {
	data := append([]byte{0xFF, 0xD8}, 0xFF, 0xC2, 0x00, 0x02)
	_, err := NewDecoder(bytes.NewReader(data))
	require.Error(t, err)
	require.Equal(t, jpegerr.UnsupportedFormat, jpegerr.KindOf(err))
}

func TestNewDecoderRejectsUnknownMarker(t *testing.T) {
	data := append([]byte{0xFF, 0xD8}, 0xFF, 0x02, 0x00, 0x02)
	_, err := NewDecoder(bytes.NewReader(data))
	require.Error(t, err)
	require.Equal(t, jpegerr.MalformedStream, jpegerr.KindOf(err))
}

func TestNewDecoderSkipsAPPnAndCOM(t *testing.T) {
	appn := append([]byte{0xFF, 0xE0}, u16(6)...)
	appn = append(appn, 0x01, 0x02, 0x03, 0x04)
	com := append([]byte{0xFF, 0xFE}, u16(5)...)
	com = append(com, 'h', 'i', 'x')

	data := append([]byte{0xFF, 0xD8}, appn...)
	data = append(data, com...)
	data = append(data, buildMinimalJPEG()[2:]...)

	img, err := DecodeAll(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 8, img.Width)
	require.Equal(t, 8, img.Height)
}
