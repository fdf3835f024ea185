// Package mcu is the entropy-coded segment reader: it drives a
// bitstream.Reader with the Huffman LUTs and per-component DC predictors
// to produce one MCU's worth of coefficient blocks at a time (spec
// §4.4), transparently resetting at restart-interval boundaries.
package mcu

import (
	"github.com/corvidae/bjpeg/bitstream"
	"github.com/corvidae/bjpeg/coeff"
	"github.com/corvidae/bjpeg/huffman"
	"github.com/corvidae/bjpeg/jpegerr"
	"github.com/corvidae/bjpeg/segment"
)

// ComponentBlocks groups the blocks decoded for one scan component
// within a single MCU, in row-major (v, h) order.
type ComponentBlocks struct {
	Blocks []coeff.Block
	Rows   int // vertical sampling factor
	Cols   int // horizontal sampling factor
}

// MCU is one Minimum Coded Unit: one ComponentBlocks per frame
// component, in declaration order (Y, Cb, Cr).
type MCU struct {
	Components [3]ComponentBlocks
}

// Reader decodes successive MCUs from a scan's entropy-coded data. It
// owns the bit reader and the restart counter exclusively: nothing else
// may touch them during a scan. The three DC predictors are not held by
// the Reader; the caller passes them to every ReadMCU call, which updates
// them in place.
type Reader struct {
	bits            *bitstream.Reader
	huff            [4]*huffman.LUT // slot = class*2+id, same layout as segment.ParseDHT
	frame           *segment.FrameInfo
	scan            *segment.ScanInfo
	restartInterval uint16
	mcuCount        uint
	onBlock         func(component, blockIndex int)
}

// NewReader builds an MCU reader over bits, using huff (built from the
// tables gathered by DHT segments) and the frame/scan headers already
// parsed. restartInterval is the DRI value, 0 if none was seen.
func NewReader(bits *bitstream.Reader, huff [4]*huffman.LUT, frame *segment.FrameInfo, scan *segment.ScanInfo, restartInterval uint16) *Reader {
	return &Reader{bits: bits, huff: huff, frame: frame, scan: scan, restartInterval: restartInterval}
}

// SetBlockTrace installs a callback invoked once per data unit decoded
// (component index, block index within that component's h*v blocks),
// for diagnostic tracing. A nil callback disables tracing.
func (r *Reader) SetBlockTrace(fn func(component, blockIndex int)) {
	r.onBlock = fn
}

func huffSlot(class, id uint8) int { return int(class)*2 + int(id) }

const (
	dcClass = 0
	acClass = 1
)

// DCPredictors holds the three DPCM DC predictors, zero at scan start
// (the caller starts from a zero value or NewDCPredictors) and reset to
// zero by ReadMCU at every restart marker.
type DCPredictors [3]int16

func (r *Reader) readBlock(compIdx int, pred *int16) (coeff.Block, error) {
	sc := r.scan.Components[compIdx]
	dcLUT := r.huff[huffSlot(dcClass, sc.DCTable)]
	acLUT := r.huff[huffSlot(acClass, sc.ACTable)]
	if dcLUT == nil || acLUT == nil {
		return coeff.Block{}, jpegerr.New(jpegerr.MalformedStream, r.bits.Offset(),
			"component %d references a Huffman table that was never defined", compIdx)
	}

	var blk coeff.Block

	s, err := r.bits.DecodeHuffmanSymbol(dcLUT)
	if err != nil {
		return blk, err
	}
	if s > 11 {
		return blk, jpegerr.New(jpegerr.MalformedStream, r.bits.Offset(), "DC coefficient bit length %d exceeds 11", s)
	}
	diff, err := r.bits.DecodeSignedValue(uint(s))
	if err != nil {
		return blk, err
	}
	*pred += diff
	blk[0] = *pred

	i := 1
	for i < 64 {
		rs, err := r.bits.DecodeHuffmanSymbol(acLUT)
		if err != nil {
			return blk, err
		}
		if rs == 0x00 { // EOB
			break
		}
		if rs == 0xF0 { // ZRL: 16 zero coefficients
			i += 16
			if i > 64 {
				return blk, jpegerr.New(jpegerr.MalformedStream, r.bits.Offset(), "ZRL run overruns block at position %d", i)
			}
			continue
		}
		run := int(rs >> 4)
		size := int(rs & 0x0F)
		i += run
		if i >= 64 {
			return blk, jpegerr.New(jpegerr.MalformedStream, r.bits.Offset(), "AC run overruns block at position %d", i)
		}
		val, err := r.bits.DecodeSignedValue(uint(size))
		if err != nil {
			return blk, err
		}
		blk[i] = val
		i++
	}
	return blk, nil
}

// ReadMCU decodes the next MCU: for each of the three components in
// declaration order, h_c*v_c blocks in row-major order, handling the
// restart interval boundary (DC predictor reset, bit-reader resync)
// after the MCU completes.
func (r *Reader) ReadMCU(dc *DCPredictors) (*MCU, error) {
	var out MCU
	for ci, comp := range r.frame.Components {
		rows, cols := int(comp.V), int(comp.H)
		cb := ComponentBlocks{Blocks: make([]coeff.Block, 0, rows*cols), Rows: rows, Cols: cols}
		for row := 0; row < rows; row++ {
			for col := 0; col < cols; col++ {
				blk, err := r.readBlock(ci, &dc[ci])
				if err != nil {
					return nil, err
				}
				if r.onBlock != nil {
					r.onBlock(ci, len(cb.Blocks))
				}
				cb.Blocks = append(cb.Blocks, blk)
			}
		}
		out.Components[ci] = cb
	}

	r.mcuCount++
	if r.restartInterval > 0 && r.mcuCount%uint(r.restartInterval) == 0 {
		if err := r.bits.Reset(); err != nil {
			return nil, err
		}
		*dc = DCPredictors{}
	}
	return &out, nil
}

// NewDCPredictors returns a fresh, zeroed set of DC predictors for the
// start of a scan.
func NewDCPredictors() DCPredictors { return DCPredictors{} }
