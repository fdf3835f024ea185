package bitstream

import (
	"bufio"

	"github.com/corvidae/bjpeg/huffman"
	"github.com/corvidae/bjpeg/jpegerr"
)

// Reader is the bit-level reader over an entropy-coded segment (spec
// §4.3). It owns the raw byte stream exclusively from the moment it is
// created until the scan completes: the accumulator is a 32-bit word
// holding `count` valid low bits (bits above count are always zero, per
// the BitReaderState invariant), refilled 8 bits at a time with
// byte-stuffing and restart-marker handling folded into the refill path.
type Reader struct {
	src          *bufio.Reader
	offset       int64
	acc          uint32
	count        uint
	resetPending bool
}

// NewReader creates a bit reader continuing from src at the given byte
// offset (normally bitstream.Scanner.Underlying() and Scanner.Offset()
// right after the SOS header has been consumed).
func NewReader(src *bufio.Reader, offset int64) *Reader {
	return &Reader{src: src, offset: offset}
}

// Offset returns the approximate byte offset of the reader's cursor, for
// error reporting.
func (r *Reader) Offset() int64 { return r.offset }

// rawByte reads one byte directly from the stream, with no stuffing
// interpretation.
func (r *Reader) rawByte() (byte, error) {
	b, err := r.src.ReadByte()
	if err != nil {
		return 0, jpegerr.Wrap(ioKind(err), r.offset, err, "reading entropy-coded data")
	}
	r.offset++
	return b, nil
}

// refill appends one unstuffed byte's worth of bits to the accumulator.
// Once a restart or EOI marker has been seen mid-stream, further refills
// yield zero bytes without touching the underlying reader, so a decode
// in flight can still be satisfied (spec §4.3 "Byte refill with
// stuffing").
func (r *Reader) refill() error {
	if r.resetPending {
		r.acc = (r.acc << 8)
		r.count += 8
		return nil
	}
	b, err := r.rawByte()
	if err != nil {
		return err
	}
	if b != 0xFF {
		r.acc = (r.acc << 8) | uint32(b)
		r.count += 8
		return nil
	}
	c, err := r.rawByte()
	if err != nil {
		return err
	}
	switch {
	case c == 0x00:
		r.acc = (r.acc << 8) | 0xFF
		r.count += 8
		return nil
	case c >= 0xD0 && c <= 0xD7, c == 0xD9:
		// RSTn or EOI: the rest of the current (final) MCU is padded
		// with zero bits until reset() resynchronises the reader.
		r.resetPending = true
		r.acc = (r.acc << 8)
		r.count += 8
		return nil
	default:
		return jpegerr.New(jpegerr.MalformedStream, r.offset, "unexpected marker 0xFF%02X in entropy-coded data", c)
	}
}

// peek returns the top n bits (1 <= n <= 16) of the accumulator as a
// right-aligned unsigned integer, refilling as needed. It does not
// consume.
func (r *Reader) peek(n uint) (uint32, error) {
	for r.count < n {
		if err := r.refill(); err != nil {
			return 0, err
		}
	}
	return (r.acc >> (r.count - n)) & ((1 << n) - 1), nil
}

// consume discards n bits already returned by peek.
func (r *Reader) consume(n uint) {
	r.count -= n
	r.acc &= (1 << r.count) - 1
}

// DecodeHuffmanSymbol decodes one symbol using lut, per spec §4.3
// "Decode-one-Huffman-symbol": peek(16), look up (length, symbol),
// consume(length).
func (r *Reader) DecodeHuffmanSymbol(lut *huffman.LUT) (byte, error) {
	window, err := r.peek(16)
	if err != nil {
		return 0, err
	}
	length, symbol := lut.Lookup(uint16(window))
	if length == 0 {
		return 0, jpegerr.New(jpegerr.MalformedStream, r.offset, "no Huffman code matches bit window 0x%04x", window)
	}
	r.consume(uint(length))
	return symbol, nil
}

// DecodeSignedValue decodes a JPEG signed magnitude-category value of the
// given bit length, per spec §4.3 "Decode-signed-value(len)".
func (r *Reader) DecodeSignedValue(length uint) (int16, error) {
	if length == 0 {
		return 0, nil
	}
	raw, err := r.peek(length)
	if err != nil {
		return 0, err
	}
	r.consume(length)
	if raw&(1<<(length-1)) != 0 {
		return int16(raw), nil
	}
	return int16(int32(raw) - (1<<length - 1)), nil
}

// Reset resynchronises the reader at a restart interval boundary (spec
// §4.3 "Reset"). If a restart or EOI marker was not already observed
// during refilling, it advances the raw stream to the next 0xFF-prefixed
// RSTn marker and consumes it. The accumulator is always cleared.
func (r *Reader) Reset() error {
	if !r.resetPending {
		for {
			b, err := r.rawByte()
			if err != nil {
				return err
			}
			if b != 0xFF {
				continue
			}
			c, err := r.rawByte()
			if err != nil {
				return err
			}
			if c == 0x00 {
				continue
			}
			if c >= 0xD0 && c <= 0xD7 {
				break
			}
			return jpegerr.New(jpegerr.MalformedStream, r.offset, "expected restart marker, found 0xFF%02X", c)
		}
	}
	r.acc = 0
	r.count = 0
	r.resetPending = false
	return nil
}

// AtEOI reports whether the reader has already consumed a trailing EOI
// or RSTn marker while refilling without a matching Reset; from then on
// refills yield zero bits until Reset is called.
func (r *Reader) AtEOI() bool { return r.resetPending }
