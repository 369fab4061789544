package protocol

import (
	"errors"
	"fmt"
)

// Decode errors. Each is wrapped with the offending detail.
var (
	ErrSimpleString    = errors.New("malformed simple string")
	ErrInteger         = errors.New("malformed integer")
	ErrBool            = errors.New("malformed boolean")
	ErrDouble          = errors.New("malformed double")
	ErrVerbatimString  = errors.New("malformed verbatim string")
	ErrUnknownDataType = errors.New("unknown data type")
)

// ErrNesting is returned when aggregates are nested too deeply to decode.
var ErrNesting = errors.New("aggregate nesting too deep")

// ErrNaNKey is returned when a NaN double is used as a Map key or Set element.
var ErrNaNKey = errors.New("NaN double cannot be used as a map key or set element")

// UnknownTypeError carries the tag byte that could not be decoded.
type UnknownTypeError struct {
	Tag byte
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownDataType, e.Tag)
}

func (e *UnknownTypeError) Is(target error) bool {
	return target == ErrUnknownDataType
}
