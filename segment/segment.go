// Package segment interprets the JPEG header segments a baseline decoder
// needs: quantization tables (DQT), Huffman tables (DHT), the frame
// header (SOF0), the scan header (SOS) and the restart interval (DRI).
// Each parser consumes exactly the bytes its segment's length field
// promises and reports a structured error (via jpegerr) otherwise.
package segment

import (
	"github.com/corvidae/bjpeg/bitstream"
	"github.com/corvidae/bjpeg/huffman"
	"github.com/corvidae/bjpeg/jpegerr"
)

// QuantTable is one DQT table: 64 values in file (zig-zag) order, never
// reordered here — zig-zag reordering is a block-reconstruction step,
// not a table-parsing one.
type QuantTable struct {
	Precision uint8 // 0 = 8-bit values, 1 = 16-bit values
	Values    [64]uint16
}

// ComponentInfo is one SOF0 component entry.
type ComponentInfo struct {
	ID      uint8
	H, V    uint8 // horizontal/vertical sampling factors, each in {1,2}
	QuantID uint8
}

// FrameInfo is the parsed SOF0 frame header: precision, dimensions, and
// the three components in declaration order (Y, Cb, Cr).
type FrameInfo struct {
	Precision      uint8
	Height, Width  uint16
	Components     [3]ComponentInfo
	MaxH, MaxV     uint8
}

// MCUsAcross and MCUsDown give the MCU grid dimensions implied by the
// frame's size and maximum sampling factors.
func (f *FrameInfo) MCUsAcross() int {
	return ceilDiv(int(f.Width), 8*int(f.MaxH))
}
func (f *FrameInfo) MCUsDown() int {
	return ceilDiv(int(f.Height), 8*int(f.MaxV))
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }

// ScanComponentInfo is one SOS component entry: which DC/AC Huffman
// table destination (0 or 1) this component's entropy data uses.
type ScanComponentInfo struct {
	DCTable, ACTable uint8
}

// ScanInfo is the parsed SOS scan header, one entry per frame component
// in frame declaration order.
type ScanInfo struct {
	Components [3]ScanComponentInfo
}

// ParseDQT reads a DQT segment of the given payload length (excluding
// the two length bytes) and fills tables[id] for each table found.
func ParseDQT(sc *bitstream.Scanner, length int, tables *[4]*QuantTable) error {
	remaining := length
	for remaining > 0 {
		pq, err := sc.ReadByte()
		if err != nil {
			return err
		}
		remaining--
		precision := pq >> 4
		id := pq & 0x0F
		if precision > 1 {
			return jpegerr.New(jpegerr.MalformedStream, sc.Offset(), "DQT precision nibble %d is neither 0 nor 1", precision)
		}
		if id > 3 {
			return jpegerr.New(jpegerr.MalformedStream, sc.Offset(), "DQT destination id %d is out of range", id)
		}
		qt := &QuantTable{Precision: precision}
		for i := 0; i < 64; i++ {
			if precision == 0 {
				v, err := sc.ReadByte()
				if err != nil {
					return err
				}
				qt.Values[i] = uint16(v)
				remaining--
			} else {
				v, err := sc.ReadUint16()
				if err != nil {
					return err
				}
				qt.Values[i] = v
				remaining -= 2
			}
		}
		tables[id] = qt
	}
	if remaining != 0 {
		return jpegerr.New(jpegerr.MalformedStream, sc.Offset(), "DQT segment length does not divide evenly into tables")
	}
	return nil
}

// huffman table slot indexing: class 0 = DC, class 1 = AC; id 0 or 1.
func huffSlot(class, id uint8) int { return int(class)*2 + int(id) }

// ParseDHT reads a DHT segment of the given payload length and fills
// tables[class*2+id] with the canonical Huffman table found, for each
// table in the segment.
func ParseDHT(sc *bitstream.Scanner, length int, tables *[4]*huffman.Table) error {
	remaining := length
	for remaining > 0 {
		tc, err := sc.ReadByte()
		if err != nil {
			return err
		}
		remaining--
		class := tc >> 4
		id := tc & 0x0F
		if class > 1 || id > 1 {
			return jpegerr.New(jpegerr.MalformedStream, sc.Offset(), "DHT class/destination 0x%02x is out of range", tc)
		}
		var counts [16]uint8
		for i := 0; i < 16; i++ {
			c, err := sc.ReadByte()
			if err != nil {
				return err
			}
			counts[i] = c
			remaining--
		}
		var total int
		for _, c := range counts {
			total += int(c)
		}
		symbols, err := sc.ReadN(total)
		if err != nil {
			return err
		}
		remaining -= total
		table, err := huffman.NewTable(counts, symbols)
		if err != nil {
			return err
		}
		tables[huffSlot(class, id)] = table
	}
	if remaining != 0 {
		return jpegerr.New(jpegerr.MalformedStream, sc.Offset(), "DHT segment length does not divide evenly into tables")
	}
	return nil
}

// ParseSOF0 reads a baseline frame header. Only 8-bit precision and
// exactly 3 components are accepted; sampling factors outside {1,2}, or
// a chroma component with (h,v) != (1,1), are rejected as unsupported.
func ParseSOF0(sc *bitstream.Scanner, length int) (*FrameInfo, error) {
	precision, err := sc.ReadByte()
	if err != nil {
		return nil, err
	}
	if precision != 8 {
		return nil, jpegerr.New(jpegerr.UnsupportedFormat, sc.Offset(), "sample precision %d is not supported, only 8", precision)
	}
	height, err := sc.ReadUint16()
	if err != nil {
		return nil, err
	}
	width, err := sc.ReadUint16()
	if err != nil {
		return nil, err
	}
	nComp, err := sc.ReadByte()
	if err != nil {
		return nil, err
	}
	if nComp != 3 {
		return nil, jpegerr.New(jpegerr.UnsupportedFormat, sc.Offset(), "%d components is not supported, only 3 (YCbCr)", nComp)
	}
	expected := 6 + 3*int(nComp)
	if length != expected {
		return nil, jpegerr.New(jpegerr.MalformedStream, sc.Offset(), "SOF0 length %d does not match %d components", length, nComp)
	}

	frame := &FrameInfo{Precision: precision, Height: height, Width: width}
	for i := 0; i < int(nComp); i++ {
		id, err := sc.ReadByte()
		if err != nil {
			return nil, err
		}
		hv, err := sc.ReadByte()
		if err != nil {
			return nil, err
		}
		qid, err := sc.ReadByte()
		if err != nil {
			return nil, err
		}
		h, v := hv>>4, hv&0x0F
		if h < 1 || h > 2 || v < 1 || v > 2 {
			return nil, jpegerr.New(jpegerr.UnsupportedFormat, sc.Offset(), "component %d sampling factors %d x %d are out of range", id, h, v)
		}
		slot := int(id) - 1
		if slot < 0 || slot >= 3 {
			return nil, jpegerr.New(jpegerr.MalformedStream, sc.Offset(), "component id %d is out of range", id)
		}
		frame.Components[slot] = ComponentInfo{ID: id, H: h, V: v, QuantID: qid}
		if h > frame.MaxH {
			frame.MaxH = h
		}
		if v > frame.MaxV {
			frame.MaxV = v
		}
	}
	for i := 1; i < 3; i++ {
		c := frame.Components[i]
		if c.H != 1 || c.V != 1 {
			return nil, jpegerr.New(jpegerr.UnsupportedFormat, sc.Offset(),
				"chroma component %d has sampling %dx%d, only 1x1 is supported", c.ID, c.H, c.V)
		}
	}
	if !(frame.MaxH == 1 && frame.MaxV == 1) && !(frame.MaxH == 2 && frame.MaxV == 2) {
		return nil, jpegerr.New(jpegerr.UnsupportedFormat, sc.Offset(),
			"chroma subsampling %dx%d is not 4:4:4 or 4:2:0", frame.MaxH, frame.MaxV)
	}
	return frame, nil
}

// ParseSOS reads a baseline scan header. frame must already be parsed
// (SOF0 precedes SOS).
func ParseSOS(sc *bitstream.Scanner, length int, frame *FrameInfo) (*ScanInfo, error) {
	nComp, err := sc.ReadByte()
	if err != nil {
		return nil, err
	}
	if nComp != 3 {
		return nil, jpegerr.New(jpegerr.UnsupportedFormat, sc.Offset(), "SOS with %d components is not supported, only 3", nComp)
	}
	expected := 1 + 2*int(nComp) + 3
	if length != expected {
		return nil, jpegerr.New(jpegerr.MalformedStream, sc.Offset(), "SOS length %d does not match %d components", length, nComp)
	}
	scan := &ScanInfo{}
	for i := 0; i < int(nComp); i++ {
		id, err := sc.ReadByte()
		if err != nil {
			return nil, err
		}
		sel, err := sc.ReadByte()
		if err != nil {
			return nil, err
		}
		slot := -1
		for j, c := range frame.Components {
			if c.ID == id {
				slot = j
			}
		}
		if slot < 0 {
			return nil, jpegerr.New(jpegerr.MalformedStream, sc.Offset(), "SOS references unknown component id %d", id)
		}
		scan.Components[slot] = ScanComponentInfo{DCTable: sel >> 4, ACTable: sel & 0x0F}
	}
	ss, err := sc.ReadByte()
	if err != nil {
		return nil, err
	}
	se, err := sc.ReadByte()
	if err != nil {
		return nil, err
	}
	ah, err := sc.ReadByte()
	if err != nil {
		return nil, err
	}
	if ss != 0x00 || se != 0x3F || ah != 0x00 {
		return nil, jpegerr.New(jpegerr.UnsupportedFormat, sc.Offset(),
			"spectral selection %d..%d / approximation 0x%02x is not baseline sequential", ss, se, ah)
	}
	return scan, nil
}

// ParseDRI reads a DRI segment and returns the restart interval (0
// disables restarts).
func ParseDRI(sc *bitstream.Scanner, length int) (uint16, error) {
	if length != 2 {
		return 0, jpegerr.New(jpegerr.MalformedStream, sc.Offset(), "DRI length %d, expected 2", length)
	}
	return sc.ReadUint16()
}
