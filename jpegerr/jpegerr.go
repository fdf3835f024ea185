// Package jpegerr defines the error taxonomy shared by every stage of the
// baseline JPEG decoder: the marker scanner, the segment parsers, the bit
// reader and the block reconstruction pipeline all report failures through
// a single *Error type so a caller can branch on Kind without parsing
// strings.
package jpegerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies why decoding stopped.
type Kind int

const (
	// Truncated means the byte source ran out before a required field
	// completed.
	Truncated Kind = iota
	// MalformedStream means the bytes present are not a legal JPEG:
	// bad marker, impossible length, broken Huffman table, AC overrun...
	MalformedStream
	// UnsupportedFormat means the bytes are a legal JPEG variant this
	// decoder does not implement (progressive, 12-bit, 4:2:2, ...).
	UnsupportedFormat
	// IoFailure means the underlying reader returned an error other
	// than io.EOF.
	IoFailure
)

func (k Kind) String() string {
	switch k {
	case Truncated:
		return "truncated"
	case MalformedStream:
		return "malformed stream"
	case UnsupportedFormat:
		return "unsupported format"
	case IoFailure:
		return "i/o failure"
	}
	return "unknown error"
}

// Error wraps a pkg/errors chain with the Kind and byte offset at which
// decoding failed.
type Error struct {
	Kind   Kind
	Offset int64
	cause  error
}

func (e *Error) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("jpeg: %s at offset 0x%x: %v", e.Kind, e.Offset, e.cause)
	}
	return fmt.Sprintf("jpeg: %s: %v", e.Kind, e.cause)
}

// Unwrap lets errors.Is/errors.As (and pkg/errors.Cause) reach the
// underlying cause.
func (e *Error) Unwrap() error { return e.cause }

// Cause implements the pkg/errors causer interface.
func (e *Error) Cause() error { return e.cause }

// New builds an *Error of the given kind at the given offset.
func New(kind Kind, offset int64, format string, args ...interface{}) error {
	return &Error{Kind: kind, Offset: offset, cause: errors.Errorf(format, args...)}
}

// Wrap attaches a Kind and offset to an existing error, preserving it as
// the cause.
func Wrap(kind Kind, offset int64, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Offset: offset, cause: errors.Wrap(err, msg)}
}

// KindOf reports the Kind of err, or IoFailure if err was not produced by
// this package (a conservative default: an un-tagged error is treated as
// an environment failure, not a format one).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return IoFailure
}
