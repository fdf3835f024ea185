// Package bitstream implements the two byte-oriented layers of JPEG
// framing described by the spec: a marker Scanner that walks the
// length-prefixed segments between SOI and SOS, and a bit-level Reader
// that turns the entropy-coded segment following SOS into an unstuffed
// stream of bits, transparently resynchronising on restart markers.
//
// Neither type knows anything about Huffman tables, quantization or
// pixels; they are the plumbing everything else in this module sits on
// top of.
package bitstream

import (
	"bufio"
	"io"

	"github.com/corvidae/bjpeg/jpegerr"
)

// Scanner reads the marker-delimited segments of a JPEG file: SOI, APPn,
// DQT, DHT, SOF0, DRI, SOS headers and so on. It stops being useful the
// moment SOS's header has been consumed — from there on, Reader owns the
// same underlying *bufio.Reader.
type Scanner struct {
	r      *bufio.Reader
	offset int64
}

// NewScanner wraps r for marker-oriented reading. r is buffered
// internally; the caller's reader need not support io.ByteReader.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReaderSize(r, 32*1024)}
}

// Offset returns the number of bytes consumed so far, for error reporting.
func (s *Scanner) Offset() int64 { return s.offset }

// Underlying exposes the buffered reader so a bit-level Reader can
// continue reading from exactly where the Scanner left off, with no
// re-buffering or byte loss.
func (s *Scanner) Underlying() *bufio.Reader { return s.r }

func ioKind(err error) jpegerr.Kind {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return jpegerr.Truncated
	}
	return jpegerr.IoFailure
}

// ReadByte reads a single raw byte (no stuffing interpretation — this is
// for segment headers, not entropy data).
func (s *Scanner) ReadByte() (byte, error) {
	b, err := s.r.ReadByte()
	if err != nil {
		return 0, jpegerr.Wrap(ioKind(err), s.offset, err, "reading byte")
	}
	s.offset++
	return b, nil
}

// ReadUint16 reads a big-endian 16-bit field, as used throughout JPEG
// segment headers.
func (s *Scanner) ReadUint16() (uint16, error) {
	hi, err := s.ReadByte()
	if err != nil {
		return 0, err
	}
	lo, err := s.ReadByte()
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

// ReadN reads exactly n raw bytes.
func (s *Scanner) ReadN(n int) ([]byte, error) {
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		b, err := s.ReadByte()
		if err != nil {
			return nil, err
		}
		buf[i] = b
	}
	return buf, nil
}

// Skip discards n raw bytes (used for APPn/COM payloads this decoder
// does not interpret).
func (s *Scanner) Skip(n int) error {
	for i := 0; i < n; i++ {
		if _, err := s.ReadByte(); err != nil {
			return err
		}
	}
	return nil
}

// NextMarker resynchronises on the next marker and returns its second
// byte (the marker id M in 0xFF M). Per spec §4.1: bytes are read until
// 0xFF is seen; the following byte, if 0x00, is a stuffed no-op outside
// entropy data and scanning continues; runs of 0xFF padding between
// markers are tolerated by looping on additional 0xFF bytes.
func (s *Scanner) NextMarker() (byte, error) {
	for {
		b, err := s.ReadByte()
		if err != nil {
			return 0, err
		}
		if b != 0xFF {
			continue
		}
		for {
			m, err := s.ReadByte()
			if err != nil {
				return 0, err
			}
			if m == 0xFF {
				continue // padding fill byte, keep looking for the marker id
			}
			if m == 0x00 {
				break // stuffed zero seen outside entropy data: a no-op, resume
			}
			return m, nil
		}
	}
}
