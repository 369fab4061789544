package protocol

import (
	"bufio"
	"io"
)

// ByteSource is what a decoder reads from: blocking reads of a caller-chosen
// length plus a peek used to check that the peer is still there.
// *bufio.Reader satisfies it.
type ByteSource interface {
	io.Reader
	io.ByteReader
	Peek(n int) ([]byte, error)
}

type Protocol interface {
	Parse(src ByteSource) (Value, error)
	Encode(writer *bufio.Writer, value Value) error
	Version() string
}
