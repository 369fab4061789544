package resp3

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/andrelcunha/oxidedb/internal/protocol"
)

const crlf = "\r\n"

// lineBreaks replaces CR and LF in line frames, which cannot carry them.
var lineBreaks = strings.NewReplacer("\r", " ", "\n", " ")

func (*RESP3Protocol) encodeLine(writer *bufio.Writer, tag byte, text string) error {
	if err := writer.WriteByte(tag); err != nil {
		return err
	}
	if strings.ContainsAny(text, "\r\n") {
		text = lineBreaks.Replace(text)
	}
	_, err := writer.WriteString(text + crlf)
	return err
}

func (r3 *RESP3Protocol) encodeHeader(writer *bufio.Writer, tag byte, n int) error {
	return r3.encodeLine(writer, tag, strconv.Itoa(n))
}

func (r3 *RESP3Protocol) encodeBulk(writer *bufio.Writer, tag byte, body string) error {
	if err := r3.encodeHeader(writer, tag, len(body)); err != nil {
		return err
	}
	_, err := writer.WriteString(body + crlf)
	return err
}

func (*RESP3Protocol) encodeNull(writer *bufio.Writer) error {
	_, err := writer.WriteString("_" + crlf)
	return err
}

func (*RESP3Protocol) encodeBool(writer *bufio.Writer, value protocol.Bool) error {
	if value {
		_, err := writer.WriteString("#t" + crlf)
		return err
	}
	_, err := writer.WriteString("#f" + crlf)
	return err
}

func (r3 *RESP3Protocol) encodeAggregate(writer *bufio.Writer, tag byte, elems []protocol.Value) error {
	if err := r3.encodeHeader(writer, tag, len(elems)); err != nil {
		return err
	}
	for _, item := range elems {
		if err := r3.Encode(writer, item); err != nil {
			return err
		}
	}
	return nil
}

func (r3 *RESP3Protocol) encodeMap(writer *bufio.Writer, value protocol.Map) error {
	if err := r3.encodeHeader(writer, protocol.TagMap, value.Len()); err != nil {
		return err
	}
	var err error
	value.Ascend(func(k, v protocol.Value) bool {
		if err = r3.Encode(writer, k); err != nil {
			return false
		}
		err = r3.Encode(writer, v)
		return err == nil
	})
	return err
}

func (r3 *RESP3Protocol) encodeSet(writer *bufio.Writer, value protocol.Set) error {
	if err := r3.encodeHeader(writer, protocol.TagSet, value.Len()); err != nil {
		return err
	}
	var err error
	value.Ascend(func(v protocol.Value) bool {
		err = r3.Encode(writer, v)
		return err == nil
	})
	return err
}
