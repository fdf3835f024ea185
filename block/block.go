// Package block implements block reconstruction (spec §4.5): dequantize,
// zig-zag reordering, the fixed-point 2-D IDCT, chroma upsampling and
// YCbCr->RGB conversion, turning one MCU's worth of decoded coefficient
// blocks into a packed-RGB Cell.
package block

import (
	"github.com/corvidae/bjpeg/coeff"
	"github.com/corvidae/bjpeg/jpegerr"
	"github.com/corvidae/bjpeg/mcu"
	"github.com/corvidae/bjpeg/segment"
)

// Dequantize multiplies each coefficient by the matching quantization
// table entry. Both blk and q are indexed in zig-zag scan order at this
// point, so this is a plain element-wise multiply (spec §4.5
// "Dequantize").
func Dequantize(blk coeff.Block, q *segment.QuantTable) coeff.Block {
	var out coeff.Block
	for i := 0; i < 64; i++ {
		out[i] = blk[i] * int16(q.Values[i])
	}
	return out
}

// ZigzagReorder permutes a zig-zag-ordered block into natural row-major
// order using the fixed 8x8 permutation from spec §4.5.
func ZigzagReorder(blk coeff.Block) coeff.Block {
	var out coeff.Block
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			out[r*8+c] = blk[coeff.ZigZag[r][c]]
		}
	}
	return out
}

// YCbCrToRGB converts one pixel's signed, spatial-domain Y/Cb/Cr samples
// to 8-bit RGB, combining the level shift and clamp in one step (spec
// §4.5 "YCbCr -> RGB").
func YCbCrToRGB(y, cb, cr int16) (r, g, b byte) {
	Y, Cb, Cr := int32(y), int32(cb), int32(cr)
	r = clampShift(Y*1024 + 1436*Cr)
	g = clampShift(Y*1024 - 352*Cb - 731*Cr)
	b = clampShift(Y*1024 + 1815*Cb)
	return
}

func clampShift(v int32) byte {
	v >>= 10
	switch {
	case v < -128:
		v = -128
	case v > 127:
		v = 127
	}
	return byte(v) ^ 0x80
}

// Cell is one MCU's reconstructed RGB pixels: Height rows of Width
// packed RGB triples (spec §6 pixel row sink contract).
type Cell struct {
	Width, Height int
	pix           []byte
}

// Line returns the packed R,G,B bytes for row h (0 <= h < Height).
func (c *Cell) Line(h int) []byte {
	stride := c.Width * 3
	return c.pix[h*stride : (h+1)*stride]
}

func reconstructComponent(cb mcu.ComponentBlocks, q *segment.QuantTable) []spatialBlock {
	out := make([]spatialBlock, len(cb.Blocks))
	for i, blk := range cb.Blocks {
		d := Dequantize(blk, q)
		z := ZigzagReorder(d)
		out[i] = idct((*[64]int16)(&z))
	}
	return out
}

func ySample(blocks []spatialBlock, cols, row, col int) int16 {
	blockRow, blockCol := row/8, col/8
	return blocks[blockRow*cols+blockCol][(row%8)*8+col%8]
}

// chromaSample implements the nearest-neighbour replication of spec
// §4.5 "Chroma upsampling": for a chroma component with (h,v)=(1,1),
// the sample covering global Y pixel (row,col) is found by scaling the
// coordinates down by the frame's max sampling factors. At 4:4:4
// (maxH=maxV=1) this reduces to a direct 1:1 lookup; at 4:2:0
// (maxH=maxV=2) it is exactly the spec's 2x2 replication formula.
func chromaSample(block spatialBlock, row, col int, maxH, maxV uint8) int16 {
	return block[(row/int(maxV))*8+(col/int(maxH))]
}

// Reconstruct builds the RGB Cell for one decoded MCU.
func Reconstruct(frame *segment.FrameInfo, quant [4]*segment.QuantTable, m *mcu.MCU) (*Cell, error) {
	var qt [3]*segment.QuantTable
	for i, c := range frame.Components {
		qt[i] = quant[c.QuantID]
		if qt[i] == nil {
			return nil, jpegerr.New(jpegerr.MalformedStream, -1, "component %d references a quantization table that was never defined", c.ID)
		}
	}

	yBlocks := reconstructComponent(m.Components[0], qt[0])
	cbBlocks := reconstructComponent(m.Components[1], qt[1])
	crBlocks := reconstructComponent(m.Components[2], qt[2])

	width := 8 * int(frame.MaxH)
	height := 8 * int(frame.MaxV)
	yCols := m.Components[0].Cols

	cell := &Cell{Width: width, Height: height, pix: make([]byte, width*height*3)}
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			y := ySample(yBlocks, yCols, row, col)
			cb := chromaSample(cbBlocks[0], row, col, frame.MaxH, frame.MaxV)
			cr := chromaSample(crBlocks[0], row, col, frame.MaxH, frame.MaxV)
			r, g, b := YCbCrToRGB(y, cb, cr)
			idx := (row*width + col) * 3
			cell.pix[idx] = r
			cell.pix[idx+1] = g
			cell.pix[idx+2] = b
		}
	}
	return cell, nil
}
