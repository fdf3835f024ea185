package segment

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corvidae/bjpeg/bitstream"
	"github.com/corvidae/bjpeg/huffman"
)

func TestParseDQTEightBit(t *testing.T) {
	payload := append([]byte{0x00}, make([]byte, 64)...)
	for i := range payload[1:] {
		payload[1+i] = byte(i + 1)
	}
	sc := bitstream.NewScanner(bytes.NewReader(payload))
	var tables [4]*QuantTable
	require.NoError(t, ParseDQT(sc, len(payload), &tables))
	require.NotNil(t, tables[0])
	require.Equal(t, uint8(0), tables[0].Precision)
	require.Equal(t, uint16(1), tables[0].Values[0])
	require.Equal(t, uint16(64), tables[0].Values[63])
}

func TestParseDQTRejectsBadPrecision(t *testing.T) {
	payload := append([]byte{0x20}, make([]byte, 64)...)
	sc := bitstream.NewScanner(bytes.NewReader(payload))
	var tables [4]*QuantTable
	require.Error(t, ParseDQT(sc, len(payload), &tables))
}

func TestParseDHTBuildsTable(t *testing.T) {
	payload := []byte{0x00} // class 0, id 0
	counts := make([]byte, 16)
	counts[1] = 2 // two codes of length 2
	payload = append(payload, counts...)
	payload = append(payload, 0x05, 0x06) // symbols
	sc := bitstream.NewScanner(bytes.NewReader(payload))
	var tables [4]*huffman.Table
	require.NoError(t, ParseDHT(sc, len(payload), &tables))
	require.NotNil(t, tables[huffSlot(0, 0)])
	require.Equal(t, uint8(2), tables[huffSlot(0, 0)].Counts[1])
	require.Equal(t, []uint8{0x05, 0x06}, tables[huffSlot(0, 0)].Symbols)
}

func TestParseSOF0Baseline444(t *testing.T) {
	payload := []byte{
		8,
		0x00, 0x10, // height 16
		0x00, 0x20, // width 32
		3,
		1, 0x11, 0,
		2, 0x11, 0,
		3, 0x11, 0,
	}
	sc := bitstream.NewScanner(bytes.NewReader(payload))
	frame, err := ParseSOF0(sc, len(payload))
	require.NoError(t, err)
	require.EqualValues(t, 16, frame.Height)
	require.EqualValues(t, 32, frame.Width)
	require.Equal(t, uint8(1), frame.MaxH)
	require.Equal(t, uint8(1), frame.MaxV)
	require.Equal(t, 4, frame.MCUsAcross())
	require.Equal(t, 2, frame.MCUsDown())
}

func TestParseSOF0Baseline420(t *testing.T) {
	payload := []byte{
		8,
		0x00, 0x0C, // height 12
		0x00, 0x0C, // width 12
		3,
		1, 0x22, 0,
		2, 0x11, 0,
		3, 0x11, 0,
	}
	sc := bitstream.NewScanner(bytes.NewReader(payload))
	frame, err := ParseSOF0(sc, len(payload))
	require.NoError(t, err)
	require.Equal(t, uint8(2), frame.MaxH)
	require.Equal(t, uint8(2), frame.MaxV)
	require.Equal(t, 1, frame.MCUsAcross())
	require.Equal(t, 1, frame.MCUsDown())
}

func TestParseSOF0RejectsUnsupportedSubsampling(t *testing.T) {
	payload := []byte{
		8,
		0x00, 0x08,
		0x00, 0x08,
		3,
		1, 0x21, 0, // 4:2:2
		2, 0x11, 0,
		3, 0x11, 0,
	}
	sc := bitstream.NewScanner(bytes.NewReader(payload))
	_, err := ParseSOF0(sc, len(payload))
	require.Error(t, err)
}

func TestParseSOSBaseline(t *testing.T) {
	frame := &FrameInfo{
		Components: [3]ComponentInfo{
			{ID: 1, H: 1, V: 1},
			{ID: 2, H: 1, V: 1},
			{ID: 3, H: 1, V: 1},
		},
	}
	payload := []byte{
		3,
		1, 0x00,
		2, 0x11,
		3, 0x11,
		0x00, 0x3F, 0x00,
	}
	sc := bitstream.NewScanner(bytes.NewReader(payload))
	scan, err := ParseSOS(sc, len(payload), frame)
	require.NoError(t, err)
	require.Equal(t, ScanComponentInfo{DCTable: 0, ACTable: 0}, scan.Components[0])
	require.Equal(t, ScanComponentInfo{DCTable: 1, ACTable: 1}, scan.Components[1])
}

func TestParseSOSRejectsWrongLength(t *testing.T) {
	frame := &FrameInfo{
		Components: [3]ComponentInfo{
			{ID: 1, H: 1, V: 1},
			{ID: 2, H: 1, V: 1},
			{ID: 3, H: 1, V: 1},
		},
	}
	payload := []byte{3, 1, 0x00, 2, 0x11, 3, 0x11, 0x00, 0x3F, 0x00, 0xAA}
	sc := bitstream.NewScanner(bytes.NewReader(payload))
	_, err := ParseSOS(sc, len(payload), frame)
	require.Error(t, err)
}

func TestParseDRI(t *testing.T) {
	payload := []byte{0x00, 0x08}
	sc := bitstream.NewScanner(bytes.NewReader(payload))
	interval, err := ParseDRI(sc, len(payload))
	require.NoError(t, err)
	require.EqualValues(t, 8, interval)
}
