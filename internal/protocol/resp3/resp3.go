// Package resp3 implements the RESP3 wire format: a recursive decoder over a
// blocking byte source and an encoder that reproduces the exact framing of
// every protocol.Value variant.
package resp3

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/andrelcunha/oxidedb/internal/protocol"
)

// RESP3Protocol implements protocol.Protocol. It is stateless and safe for
// concurrent use.
type RESP3Protocol struct{}

var _ protocol.Protocol = (*RESP3Protocol)(nil)

// Parse reads exactly one value from src.
func (r3 *RESP3Protocol) Parse(src protocol.ByteSource) (protocol.Value, error) {
	return r3.parse(src, 0)
}

// parse reads one value nested depth aggregates deep.
func (r3 *RESP3Protocol) parse(src protocol.ByteSource, depth int) (protocol.Value, error) {
	if depth > MaxNestingDepth {
		return nil, fmt.Errorf("%w: deeper than %d levels", protocol.ErrNesting, MaxNestingDepth)
	}
	prefix, err := src.ReadByte()
	if err != nil {
		return nil, err
	}

	switch prefix {
	case protocol.TagSimpleString:
		return r3.parseSimpleString(src)
	case protocol.TagError:
		return r3.parseErrorString(src)
	case protocol.TagInteger:
		return r3.parseInteger(src)
	case protocol.TagBulkString:
		return r3.parseBulkString(src)
	case protocol.TagArray:
		return r3.parseArray(src, depth)
	case protocol.TagNull:
		return r3.parseNull(src)
	case protocol.TagBool:
		return r3.parseBool(src)
	case protocol.TagDouble:
		return r3.parseDouble(src)
	case protocol.TagBigNumber:
		return r3.parseBigNumber(src)
	case protocol.TagBulkError:
		return r3.parseBulkError(src)
	case protocol.TagVerbatimString:
		return r3.parseVerbatimString(src)
	case protocol.TagMap:
		return r3.parseMap(src, depth)
	case protocol.TagSet:
		return r3.parseSet(src, depth)
	case protocol.TagPush:
		return r3.parsePush(src, depth)
	default:
		return nil, &protocol.UnknownTypeError{Tag: prefix}
	}
}

// Encode writes value to writer. It only fails when writer does.
func (r3 *RESP3Protocol) Encode(writer *bufio.Writer, value protocol.Value) error {
	switch value := value.(type) {
	case protocol.SimpleString:
		return r3.encodeLine(writer, protocol.TagSimpleString, string(value))
	case protocol.Error:
		return r3.encodeLine(writer, protocol.TagError, string(value))
	case protocol.Integer:
		return r3.encodeLine(writer, protocol.TagInteger, value.String())
	case protocol.BulkString:
		return r3.encodeBulk(writer, protocol.TagBulkString, string(value))
	case protocol.Array:
		return r3.encodeAggregate(writer, protocol.TagArray, value)
	case protocol.Null:
		return r3.encodeNull(writer)
	case protocol.Bool:
		return r3.encodeBool(writer, value)
	case protocol.Double:
		return r3.encodeLine(writer, protocol.TagDouble, value.String())
	case protocol.BigNumber:
		return r3.encodeLine(writer, protocol.TagBigNumber, string(value))
	case protocol.BulkError:
		return r3.encodeBulk(writer, protocol.TagBulkError, string(value))
	case protocol.VerbatimString:
		return r3.encodeBulk(writer, protocol.TagVerbatimString, value.String())
	case protocol.Map:
		return r3.encodeMap(writer, value)
	case protocol.Set:
		return r3.encodeSet(writer, value)
	case protocol.Push:
		return r3.encodeAggregate(writer, protocol.TagPush, value)
	}
	return fmt.Errorf("encoding for type %T not implemented", value)
}

func (r3 *RESP3Protocol) Version() string {
	return "RESP3"
}

// NewSource adapts r for Parse, reusing it when it already buffers.
func NewSource(r io.Reader) protocol.ByteSource {
	if src, ok := r.(protocol.ByteSource); ok {
		return src
	}
	return bufio.NewReader(r)
}

// Marshal returns the wire bytes of v.
func Marshal(v protocol.Value) []byte {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	var r3 RESP3Protocol
	// bytes.Buffer never fails, so neither does the encoder.
	_ = r3.Encode(w, v)
	_ = w.Flush()
	return buf.Bytes()
}

// Unmarshal decodes the first value in b.
func Unmarshal(b []byte) (protocol.Value, error) {
	var r3 RESP3Protocol
	return r3.Parse(bufio.NewReader(bytes.NewReader(b)))
}
