// Package mtsverrors defines the error kinds shared by the index builder,
// binner, and collapser, mirroring the MtsvError enum of the original
// mtsv_tools implementation. Each kind carries a stable Error() string so
// that CLI mains can map failures to the exit codes in the specification.
package mtsverrors

import (
	"errors"
	"fmt"
)

// Kind discriminates the category of a mtsv-tools error.
type Kind int

const (
	// Io wraps an arbitrary I/O failure.
	Io Kind = iota
	// InvalidHeader marks a FASTA header or result line that doesn't match
	// the expected grammar.
	InvalidHeader
	// InvalidInteger marks a numeric parse failure.
	InvalidInteger
	// MissingFile marks a required path that could not be found.
	MissingFile
	// MissingHeader marks an empty FASTA header encountered during a build.
	MissingHeader
	// Serialize marks an index encode/decode failure.
	Serialize
	// Utf8 marks invalid UTF-8 in a header or read id.
	Utf8
	// FastqReadError marks an upstream record-decoder failure.
	FastqReadError
)

func (k Kind) String() string {
	switch k {
	case Io:
		return "Io"
	case InvalidHeader:
		return "InvalidHeader"
	case InvalidInteger:
		return "InvalidInteger"
	case MissingFile:
		return "MissingFile"
	case MissingHeader:
		return "MissingHeader"
	case Serialize:
		return "Serialize"
	case Utf8:
		return "Utf8"
	case FastqReadError:
		return "FastqReadError"
	default:
		return "Unknown"
	}
}

// Error is a typed mtsv-tools error: a Kind plus a human-readable detail.
type Error struct {
	Kind   Kind
	Detail string
	cause  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case Io:
		return fmt.Sprintf("I/O problem: %s", e.Detail)
	case InvalidHeader:
		return fmt.Sprintf("incorrectly formatted FASTA header or result line: %s", e.Detail)
	case InvalidInteger:
		return fmt.Sprintf("unable to parse %q as integer", e.Detail)
	case MissingFile:
		return fmt.Sprintf("unable to find file %s", e.Detail)
	case MissingHeader:
		return "empty header found in FASTA file"
	case Serialize:
		return fmt.Sprintf("unable to serialize/deserialize item: %s", e.Detail)
	case Utf8:
		return fmt.Sprintf("found invalid UTF-8 input (%s)", e.Detail)
	case FastqReadError:
		return "error reading FASTQ file"
	default:
		return e.Detail
	}
}

// Cause returns the wrapped error, if any, satisfying github.com/pkg/errors'
// causer interface.
func (e *Error) Cause() error { return e.cause }

// New constructs an Error of the given kind with a detail message.
func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Wrap constructs an Error of the given kind around an underlying cause.
func Wrap(kind Kind, cause error, detail string) *Error {
	return &Error{Kind: kind, Detail: detail, cause: cause}
}

// FromIo wraps a plain I/O error.
func FromIo(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: Io, Detail: err.Error(), cause: err}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
