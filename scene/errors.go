package scene

import (
	"errors"
	"fmt"
)

// Kind classifies load failures.
type Kind int

const (
	KindIO Kind = iota + 1
	KindLexical
	KindSchema
	KindRange
	KindStructural
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindLexical:
		return "lexical"
	case KindSchema:
		return "schema"
	case KindRange:
		return "range"
	case KindStructural:
		return "structural"
	default:
		return "unknown"
	}
}

var (
	ErrUnexpectedEOF    = errors.New("unexpected end of input")
	ErrUnexpectedChar   = errors.New("unexpected character")
	ErrExpectedString   = errors.New("expected string")
	ErrStringTooLong    = errors.New("strings longer than 128 characters are not supported")
	ErrStringEscape     = errors.New("strings with escape codes are not supported")
	ErrStringNonASCII   = errors.New("strings may contain only printable ascii characters")
	ErrBadNumber        = errors.New("malformed number")
	ErrMissingType      = errors.New(`expected "type" key`)
	ErrUnknownType      = errors.New("unknown type")
	ErrFieldNotAllowed  = errors.New("improper object field")
	ErrUnknownField     = errors.New("unknown field")
	ErrOutOfRange       = errors.New("value out of range")
	ErrDuplicateCamera  = errors.New("there should only be one camera per scene")
	ErrMissingCamera    = errors.New("scene must contain a camera")
	ErrIncompleteCamera = errors.New("camera must define width and height")
	ErrMissingNormal    = errors.New("plane must define a normal")
	ErrEmptyScene       = errors.New("scene contains no entries")
	ErrTrailingComma    = errors.New("trailing comma before ']'")
	ErrTooManyObjects   = errors.New("too many objects")
	ErrTooManyLights    = errors.New("too many lights")
)

// Error is returned for every load failure. Err is one of the package
// sentinels (or the underlying I/O error for KindIO) and is reachable
// through errors.Is.
type Error struct {
	Kind   Kind
	Line   int // 1-based; 0 when the failure has no input position
	Err    error
	Detail string
}

func (e *Error) Error() string {
	msg := e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of a scene error anywhere in err's chain, or 0.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}
