// Package huffman builds canonical JPEG Huffman tables from a DHT
// segment's (counts, symbols) pair and derives the flat 2^16-entry
// lookup table the bit reader uses to decode one symbol per 16-bit peek
// (spec §4.2 DHT, §9 "Huffman representation").
package huffman

import "github.com/corvidae/bjpeg/jpegerr"

// Table is a canonical Huffman code table as defined by counts[l-1] =
// number of codes of length l (1..16) and symbols = the concatenated
// symbol bytes in code order.
type Table struct {
	Counts  [16]uint8
	Symbols []uint8
}

// NewTable validates and wraps counts/symbols into a Table. Per spec
// §4.2: the sum of counts must equal len(symbols) and must not exceed
// 256.
func NewTable(counts [16]uint8, symbols []uint8) (*Table, error) {
	var total int
	for _, c := range counts {
		total += int(c)
	}
	if total != len(symbols) {
		return nil, jpegerr.New(jpegerr.MalformedStream, -1,
			"Huffman table declares %d codes but carries %d symbols", total, len(symbols))
	}
	if total > 256 {
		return nil, jpegerr.New(jpegerr.MalformedStream, -1,
			"Huffman table declares %d codes, more than the 256 possible symbols", total)
	}
	return &Table{Counts: counts, Symbols: symbols}, nil
}

// entry walks the canonical code assignment described by spec §4.2:
// code starts at 0; for each length l from 1 to 16, code is doubled and
// then Counts[l-1] consecutive code values are assigned, in order, to
// the next Counts[l-1] symbols.
func (t *Table) entries(emit func(code uint16, length uint8, symbol uint8)) {
	var code uint16
	idx := 0
	for l := 1; l <= 16; l++ {
		code <<= 1
		n := int(t.Counts[l-1])
		for i := 0; i < n; i++ {
			emit(code, uint8(l), t.Symbols[idx])
			idx++
			code++
		}
	}
}

// lutEntry is one slot of the flat lookup table: the bit length of the
// code that matched this 16-bit window, and the symbol it decodes to.
// A zero Length marks a window that is not a valid code prefix.
type lutEntry struct {
	Length uint8
	Symbol uint8
}

// LUT is the 2^16-entry direct lookup table mandated by spec §9: every
// possible 16-bit lookahead window maps directly to a (length, symbol)
// pair, turning Huffman decode into one peek and one slice index.
type LUT struct {
	entries [65536]lutEntry
}

// BuildLUT derives the flat lookup table for t. Each canonical code of
// length l is expanded to fill every one of the 2^(16-l) windows whose
// top l bits equal the code.
func (t *Table) BuildLUT() *LUT {
	lut := &LUT{}
	t.entries(func(code uint16, length uint8, symbol uint8) {
		shift := 16 - uint(length)
		start := uint32(code) << shift
		span := uint32(1) << shift
		e := lutEntry{Length: length, Symbol: symbol}
		for i := uint32(0); i < span; i++ {
			lut.entries[start+i] = e
		}
	})
	return lut
}

// Lookup returns the (length, symbol) pair for a 16-bit lookahead
// window. A returned length of 0 means no valid code is a prefix of
// this window.
func (l *LUT) Lookup(window uint16) (length uint8, symbol uint8) {
	e := l.entries[window]
	return e.Length, e.Symbol
}
