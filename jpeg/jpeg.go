// Package jpeg ties the marker scanner, segment parsers, entropy-coded
// MCU reader and block reconstruction together into a single baseline
// (SOF0) decoder, exposed as a pull-based MCU iterator plus an
// Image/DecodeAll convenience wrapper.
package jpeg

import (
	"io"

	"github.com/corvidae/bjpeg/bitstream"
	"github.com/corvidae/bjpeg/block"
	"github.com/corvidae/bjpeg/huffman"
	"github.com/corvidae/bjpeg/jpegerr"
	"github.com/corvidae/bjpeg/mcu"
	"github.com/corvidae/bjpeg/segment"
)

// Marker ids, the second byte of a 0xFF-prefixed marker.
const (
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOF0 = 0xC0
	markerSOF2 = 0xC2
	markerDHT  = 0xC4
	markerDQT  = 0xDB
	markerDRI  = 0xDD
	markerSOS  = 0xDA
	markerRST0 = 0xD0
	markerRST7 = 0xD7
	markerAPP0 = 0xE0
	markerAPPF = 0xEF
	markerCOM  = 0xFE
)

func isRST(m byte) bool { return m >= markerRST0 && m <= markerRST7 }

func isAPPn(m byte) bool { return m >= markerAPP0 && m <= markerAPPF }

// standalone markers carry no length field and no payload.
func standalone(m byte) bool {
	return m == markerSOI || m == markerEOI || isRST(m) || m == 0x01
}

// skippable markers carry a length field whose payload this decoder does
// not interpret (spec §4.1: APPn, COM).
func skippable(m byte) bool {
	return isAPPn(m) || m == markerCOM
}

// Trace lets a caller observe decoding as it happens, the way the
// teacher's analysis tooling does, without forcing every caller to pay
// for it. A nil field is simply not called.
type Trace struct {
	Warn    func(format string, args ...interface{})
	Markers bool // log each header marker as NewDecoder encounters it
	Mcu     bool // log each MCU index as it is decoded
	Du      bool // log each data unit (component, block) as it is decoded
}

func (t *Trace) warn(format string, args ...interface{}) {
	if t != nil && t.Warn != nil {
		t.Warn(format, args...)
	}
}

// Option configures a Decoder at construction time.
type Option func(*Decoder)

// WithTrace attaches a Trace for diagnostic callbacks.
func WithTrace(tr *Trace) Option {
	return func(d *Decoder) { d.trace = tr }
}

// Decoder reads the headers of one JPEG stream and then yields MCUs one
// at a time via NextMCU. It is single-use: construct a new Decoder per
// image.
type Decoder struct {
	trace *Trace

	frame *segment.FrameInfo
	scan  *segment.ScanInfo

	quant      [4]*segment.QuantTable
	huffTables [4]*huffman.Table
	huff       [4]*huffman.LUT

	restartInterval uint16

	reader *mcu.Reader
	dc     mcu.DCPredictors

	mcusAcross, mcusDown int
	nextMCU              int
}

// Frame exposes the decoded dimensions and subsampling, valid once
// NewDecoder has returned successfully.
func (d *Decoder) Frame() *segment.FrameInfo { return d.frame }

// NewDecoder reads markers from r up to and including the SOS header,
// parsing every DQT/DHT/SOF0/DRI segment it encounters along the way,
// then returns a Decoder positioned at the start of the entropy-coded
// scan data. Only a single-scan baseline (SOF0) sequential stream is
// accepted; any other frame type (SOF1..SOF15) is reported as
// jpegerr.UnsupportedFormat, an unrecognised marker as
// jpegerr.MalformedStream.
func NewDecoder(r io.Reader, opts ...Option) (*Decoder, error) {
	d := &Decoder{}
	for _, opt := range opts {
		opt(d)
	}

	sc := bitstream.NewScanner(r)
	m, err := sc.NextMarker()
	if err != nil {
		return nil, err
	}
	if m != markerSOI {
		return nil, jpegerr.New(jpegerr.MalformedStream, sc.Offset(), "stream does not start with SOI, found marker 0x%02X", m)
	}

	for {
		m, err := sc.NextMarker()
		if err != nil {
			return nil, err
		}
		if d.trace != nil && d.trace.Markers {
			d.trace.warn("marker 0xFF%02X at offset 0x%x", m, sc.Offset())
		}
		if standalone(m) {
			d.trace.warn("unexpected standalone marker 0xFF%02X before SOS", m)
			continue
		}

		length, err := sc.ReadUint16()
		if err != nil {
			return nil, err
		}
		payload := int(length) - 2
		if payload < 0 {
			return nil, jpegerr.New(jpegerr.MalformedStream, sc.Offset(), "segment length %d is too small to contain its own length field", length)
		}

		switch m {
		case markerDQT:
			if err := segment.ParseDQT(sc, payload, &d.quant); err != nil {
				return nil, err
			}
		case markerDHT:
			if err := segment.ParseDHT(sc, payload, &d.huffTables); err != nil {
				return nil, err
			}
		case markerSOF0:
			d.frame, err = segment.ParseSOF0(sc, payload)
			if err != nil {
				return nil, err
			}
		case markerDRI:
			d.restartInterval, err = segment.ParseDRI(sc, payload)
			if err != nil {
				return nil, err
			}
		case markerSOS:
			if d.frame == nil {
				return nil, jpegerr.New(jpegerr.MalformedStream, sc.Offset(), "SOS encountered before SOF0")
			}
			d.scan, err = segment.ParseSOS(sc, payload, d.frame)
			if err != nil {
				return nil, err
			}
			return d.startScan(sc)
		case markerSOF2:
			return nil, jpegerr.New(jpegerr.UnsupportedFormat, sc.Offset(), "progressive (SOF2) JPEG is not supported, only baseline SOF0")
		default:
			// 0xC1..0xCF are the other frame types, except DHT (0xC4),
			// JPG (0xC8) and DAC (0xCC) which share that range.
			if m >= 0xC1 && m <= 0xCF && m != markerDHT && m != 0xC8 && m != 0xCC {
				return nil, jpegerr.New(jpegerr.UnsupportedFormat, sc.Offset(), "frame type SOF%d (marker 0xFF%02X) is not supported, only baseline SOF0", m-0xC0, m)
			}
			if !skippable(m) {
				return nil, jpegerr.New(jpegerr.MalformedStream, sc.Offset(), "unrecognised marker 0xFF%02X", m)
			}
			// APPn, COM: skip the payload this decoder does not interpret.
			if err := sc.Skip(payload); err != nil {
				return nil, err
			}
		}
	}
}

func (d *Decoder) startScan(sc *bitstream.Scanner) (*Decoder, error) {
	for i, t := range d.huffTables {
		if t != nil {
			d.huff[i] = t.BuildLUT()
		}
	}
	offset := sc.Offset()
	bits := bitstream.NewReader(sc.Underlying(), offset)
	d.reader = mcu.NewReader(bits, d.huff, d.frame, d.scan, d.restartInterval)
	if d.trace != nil && d.trace.Du {
		d.reader.SetBlockTrace(func(component, blockIndex int) {
			d.trace.warn("component %d block %d decoded", component, blockIndex)
		})
	}
	d.mcusAcross = d.frame.MCUsAcross()
	d.mcusDown = d.frame.MCUsDown()
	return d, nil
}

// NextMCU decodes and reconstructs the next MCU in raster order,
// returning its pixel Cell. It returns io.EOF once every MCU the frame's
// dimensions imply has been produced.
func (d *Decoder) NextMCU() (*block.Cell, error) {
	total := d.mcusAcross * d.mcusDown
	if d.nextMCU >= total {
		return nil, io.EOF
	}
	m, err := d.reader.ReadMCU(&d.dc)
	if err != nil {
		return nil, err
	}
	if d.trace != nil && d.trace.Mcu {
		d.trace.warn("MCU %d/%d decoded", d.nextMCU, total)
	}
	cell, err := block.Reconstruct(d.frame, d.quant, m)
	if err != nil {
		return nil, err
	}
	d.nextMCU++
	return cell, nil
}

// MCUsAcross and MCUsDown expose the MCU grid dimensions so a caller
// can assemble rows of cells into a full image without recomputing
// sampling arithmetic itself.
func (d *Decoder) MCUsAcross() int { return d.mcusAcross }
func (d *Decoder) MCUsDown() int   { return d.mcusDown }

// Image is a fully decoded, packed-RGB picture: Height rows of Width
// pixels, each three bytes, trimmed to the frame's declared dimensions
// (MCU padding at the right/bottom edge is discarded).
type Image struct {
	Width, Height int
	Pix           []byte // row-major, Width*Height*3 bytes
}

// At returns the packed R,G,B bytes at (x,y).
func (im *Image) At(x, y int) (r, g, b byte) {
	i := (y*im.Width + x) * 3
	return im.Pix[i], im.Pix[i+1], im.Pix[i+2]
}

// DecodeAll decodes every MCU of r's JPEG stream and assembles a single
// Image, cropped to the frame's declared width and height.
func DecodeAll(r io.Reader, opts ...Option) (*Image, error) {
	d, err := NewDecoder(r, opts...)
	if err != nil {
		return nil, err
	}
	frame := d.Frame()
	width, height := int(frame.Width), int(frame.Height)
	img := &Image{Width: width, Height: height, Pix: make([]byte, width*height*3)}

	cellW := 8 * int(frame.MaxH)
	cellH := 8 * int(frame.MaxV)

	for my := 0; my < d.MCUsDown(); my++ {
		for mx := 0; mx < d.MCUsAcross(); mx++ {
			cell, err := d.NextMCU()
			if err != nil {
				return nil, err
			}
			baseY := my * cellH
			baseX := mx * cellW
			for row := 0; row < cellH; row++ {
				y := baseY + row
				if y >= height {
					break
				}
				line := cell.Line(row)
				for col := 0; col < cellW; col++ {
					x := baseX + col
					if x >= width {
						break
					}
					si := col * 3
					di := (y*width + x) * 3
					img.Pix[di] = line[si]
					img.Pix[di+1] = line[si+1]
					img.Pix[di+2] = line[si+2]
				}
			}
		}
	}
	return img, nil
}
