package resp3

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/andrelcunha/oxidedb/internal/protocol"
)

// MaxBulkLen bounds a single length-prefixed body, matching the server's
// default proto-max-bulk-len.
const MaxBulkLen = 512 * 1024 * 1024

// MaxNestingDepth bounds how many aggregates may enclose a value.
const MaxNestingDepth = 512

// preallocLimit caps the capacity reserved up front for an aggregate, so a
// bogus count cannot force a huge allocation before any element arrives.
const preallocLimit = 1024

// truncated turns a clean EOF inside a frame into io.ErrUnexpectedEOF.
func truncated(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// readLine reads up to a bare CR and then consumes one more byte, assumed to
// be LF. The byte is deliberately not checked.
func (*RESP3Protocol) readLine(src protocol.ByteSource) (string, error) {
	var line []byte
	for {
		b, err := src.ReadByte()
		if err != nil {
			return "", truncated(err)
		}
		if b == '\r' {
			break
		}
		line = append(line, b)
	}
	if _, err := src.ReadByte(); err != nil {
		return "", truncated(err)
	}
	if !utf8.Valid(line) {
		return "", fmt.Errorf("%w: invalid UTF-8 %q", protocol.ErrSimpleString, line)
	}
	return string(line), nil
}

func (r3 *RESP3Protocol) readInteger(src protocol.ByteSource) (int64, error) {
	line, err := r3.readLine(src)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(line, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", protocol.ErrInteger, line)
	}
	return n, nil
}

// readLength reads a length or count prefix. -1 marks a null frame.
func (r3 *RESP3Protocol) readLength(src protocol.ByteSource) (int64, error) {
	n, err := r3.readInteger(src)
	if err != nil {
		return 0, err
	}
	if n < -1 {
		return 0, fmt.Errorf("%w: invalid length %d", protocol.ErrInteger, n)
	}
	return n, nil
}

// readBulk reads a length-prefixed body. ok is false for a null frame.
func (r3 *RESP3Protocol) readBulk(src protocol.ByteSource) (body string, ok bool, err error) {
	n, err := r3.readLength(src)
	if err != nil {
		return "", false, err
	}
	if n == -1 {
		return "", false, nil
	}
	if n > MaxBulkLen {
		return "", false, fmt.Errorf("%w: bulk length %d exceeds limit", protocol.ErrInteger, n)
	}
	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, src, n); err != nil {
		return "", false, truncated(err)
	}
	// consume the terminator
	if _, err := r3.readLine(src); err != nil {
		return "", false, err
	}
	return buf.String(), true, nil
}

func (r3 *RESP3Protocol) readElements(src protocol.ByteSource, depth int) ([]protocol.Value, bool, error) {
	n, err := r3.readLength(src)
	if err != nil {
		return nil, false, err
	}
	if n == -1 {
		return nil, false, nil
	}
	elems := make([]protocol.Value, 0, min(n, preallocLimit))
	for i := int64(0); i < n; i++ {
		v, err := r3.parse(src, depth+1)
		if err != nil {
			return nil, false, truncated(err)
		}
		elems = append(elems, v)
	}
	return elems, true, nil
}

func (r3 *RESP3Protocol) parseSimpleString(src protocol.ByteSource) (protocol.Value, error) {
	line, err := r3.readLine(src)
	if err != nil {
		return nil, err
	}
	return protocol.SimpleString(line), nil
}

func (r3 *RESP3Protocol) parseErrorString(src protocol.ByteSource) (protocol.Value, error) {
	line, err := r3.readLine(src)
	if err != nil {
		return nil, err
	}
	return protocol.Error(line), nil
}

func (r3 *RESP3Protocol) parseInteger(src protocol.ByteSource) (protocol.Value, error) {
	n, err := r3.readInteger(src)
	if err != nil {
		return nil, err
	}
	return protocol.Integer(n), nil
}

func (r3 *RESP3Protocol) parseBulkString(src protocol.ByteSource) (protocol.Value, error) {
	body, ok, err := r3.readBulk(src)
	if err != nil {
		return nil, err
	}
	if !ok {
		return protocol.Null{}, nil // Null Bulk String
	}
	return protocol.BulkString(body), nil
}

func (r3 *RESP3Protocol) parseArray(src protocol.ByteSource, depth int) (protocol.Value, error) {
	elems, ok, err := r3.readElements(src, depth)
	if err != nil {
		return nil, err
	}
	if !ok {
		return protocol.Null{}, nil // Null Array
	}
	return protocol.Array(elems), nil
}

func (*RESP3Protocol) parseNull(src protocol.ByteSource) (protocol.Value, error) {
	if err := skip(src, 2); err != nil {
		return nil, err
	}
	return protocol.Null{}, nil
}

func (*RESP3Protocol) parseBool(src protocol.ByteSource) (protocol.Value, error) {
	b, err := src.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", protocol.ErrBool, truncated(err))
	}
	if err := skip(src, 2); err != nil {
		return nil, fmt.Errorf("%w: %w", protocol.ErrBool, err)
	}
	return protocol.Bool(b == 't'), nil
}

func (r3 *RESP3Protocol) parseDouble(src protocol.ByteSource) (protocol.Value, error) {
	line, err := r3.readLine(src)
	if err != nil {
		return nil, err
	}
	f, err := strconv.ParseFloat(line, 64)
	// Out of range values come back as ±Inf, which RESP3 can carry.
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return nil, fmt.Errorf("%w: %q", protocol.ErrDouble, line)
	}
	return protocol.NewDouble(f), nil
}

func (r3 *RESP3Protocol) parseBigNumber(src protocol.ByteSource) (protocol.Value, error) {
	line, err := r3.readLine(src)
	if err != nil {
		return nil, err
	}
	return protocol.BigNumber(line), nil
}

func (r3 *RESP3Protocol) parseBulkError(src protocol.ByteSource) (protocol.Value, error) {
	body, ok, err := r3.readBulk(src)
	if err != nil {
		return nil, err
	}
	if !ok {
		return protocol.Null{}, nil
	}
	return protocol.BulkError(body), nil
}

func (r3 *RESP3Protocol) parseVerbatimString(src protocol.ByteSource) (protocol.Value, error) {
	body, ok, err := r3.readBulk(src)
	if err != nil {
		return nil, err
	}
	if !ok {
		return protocol.Null{}, nil
	}
	enc, data, found := strings.Cut(body, ":")
	if !found {
		return nil, fmt.Errorf("%w: no ':' between encoding and data", protocol.ErrVerbatimString)
	}
	if enc == "" || data == "" {
		return nil, fmt.Errorf("%w: empty encoding or data in %q", protocol.ErrVerbatimString, body)
	}
	return protocol.VerbatimString{Encoding: enc, Data: data}, nil
}

func (r3 *RESP3Protocol) parseMap(src protocol.ByteSource, depth int) (protocol.Value, error) {
	n, err := r3.readLength(src)
	if err != nil {
		return nil, err
	}
	if n == -1 {
		return protocol.Null{}, nil
	}
	var m protocol.Map
	for i := int64(0); i < n; i++ {
		key, err := r3.parse(src, depth+1)
		if err != nil {
			return nil, truncated(err)
		}
		val, err := r3.parse(src, depth+1)
		if err != nil {
			return nil, truncated(err)
		}
		if err := m.Put(key, val); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (r3 *RESP3Protocol) parseSet(src protocol.ByteSource, depth int) (protocol.Value, error) {
	n, err := r3.readLength(src)
	if err != nil {
		return nil, err
	}
	if n == -1 {
		return protocol.Null{}, nil
	}
	var s protocol.Set
	for i := int64(0); i < n; i++ {
		v, err := r3.parse(src, depth+1)
		if err != nil {
			return nil, truncated(err)
		}
		if err := s.Add(v); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (r3 *RESP3Protocol) parsePush(src protocol.ByteSource, depth int) (protocol.Value, error) {
	elems, ok, err := r3.readElements(src, depth)
	if err != nil {
		return nil, err
	}
	if !ok {
		return protocol.Null{}, nil
	}
	return protocol.Push(elems), nil
}

func skip(src protocol.ByteSource, n int) error {
	for i := 0; i < n; i++ {
		if _, err := src.ReadByte(); err != nil {
			return truncated(err)
		}
	}
	return nil
}
