package protocol

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies a Value variant. The declaration order is the variant rank
// used by Compare.
type Kind byte

const (
	KindSimpleString Kind = iota
	KindError
	KindInteger
	KindBulkString
	KindArray
	KindNull
	KindBool
	KindDouble
	KindBigNumber
	KindBulkError
	KindVerbatimString
	KindMap
	KindSet
	KindPush
)

// Wire tag bytes
const (
	TagSimpleString   = '+'
	TagError          = '-'
	TagInteger        = ':'
	TagBulkString     = '$'
	TagArray          = '*'
	TagNull           = '_'
	TagBool           = '#'
	TagDouble         = ','
	TagBigNumber      = '('
	TagBulkError      = '!'
	TagVerbatimString = '='
	TagMap            = '%'
	TagSet            = '~'
	TagPush           = '>'
)

var kindTags = [...]byte{
	KindSimpleString:   TagSimpleString,
	KindError:          TagError,
	KindInteger:        TagInteger,
	KindBulkString:     TagBulkString,
	KindArray:          TagArray,
	KindNull:           TagNull,
	KindBool:           TagBool,
	KindDouble:         TagDouble,
	KindBigNumber:      TagBigNumber,
	KindBulkError:      TagBulkError,
	KindVerbatimString: TagVerbatimString,
	KindMap:            TagMap,
	KindSet:            TagSet,
	KindPush:           TagPush,
}

var kindNames = [...]string{
	KindSimpleString:   "simple-string",
	KindError:          "error",
	KindInteger:        "integer",
	KindBulkString:     "bulk-string",
	KindArray:          "array",
	KindNull:           "null",
	KindBool:           "bool",
	KindDouble:         "double",
	KindBigNumber:      "big-number",
	KindBulkError:      "bulk-error",
	KindVerbatimString: "verbatim-string",
	KindMap:            "map",
	KindSet:            "set",
	KindPush:           "push",
}

// Tag returns the wire tag byte for the kind.
func (k Kind) Tag() byte {
	return kindTags[k]
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is any RESP3 value. The set of implementations is closed.
type Value interface {
	Kind() Kind
	String() string
	isValue()
}

// RESP2 types
type SimpleString string
type Error string
type Integer int64
type BulkString string
type Array []Value

// RESP3 types
type Null struct{}
type Bool bool
type BigNumber string
type BulkError string
type Push []Value

// Double is a real number or the NaN sentinel.
type Double struct {
	Float float64
	NaN   bool
}

// VerbatimString is a text payload tagged with a three letter encoding such as
// "txt" or "mkd".
type VerbatimString struct {
	Encoding string
	Data     string
}

// NewDouble builds a Double, mapping an IEEE NaN onto the NaN sentinel.
func NewDouble(f float64) Double {
	if math.IsNaN(f) {
		return Double{NaN: true}
	}
	return Double{Float: f}
}

func (SimpleString) Kind() Kind   { return KindSimpleString }
func (Error) Kind() Kind          { return KindError }
func (Integer) Kind() Kind        { return KindInteger }
func (BulkString) Kind() Kind     { return KindBulkString }
func (Array) Kind() Kind          { return KindArray }
func (Null) Kind() Kind           { return KindNull }
func (Bool) Kind() Kind           { return KindBool }
func (Double) Kind() Kind         { return KindDouble }
func (BigNumber) Kind() Kind      { return KindBigNumber }
func (BulkError) Kind() Kind      { return KindBulkError }
func (VerbatimString) Kind() Kind { return KindVerbatimString }
func (Map) Kind() Kind            { return KindMap }
func (Set) Kind() Kind            { return KindSet }
func (Push) Kind() Kind           { return KindPush }

func (SimpleString) isValue()   {}
func (Error) isValue()          {}
func (Integer) isValue()        {}
func (BulkString) isValue()     {}
func (Array) isValue()          {}
func (Null) isValue()           {}
func (Bool) isValue()           {}
func (Double) isValue()         {}
func (BigNumber) isValue()      {}
func (BulkError) isValue()      {}
func (VerbatimString) isValue() {}
func (Map) isValue()            {}
func (Set) isValue()            {}
func (Push) isValue()           {}

func (v SimpleString) String() string { return string(v) }
func (v Error) String() string        { return string(v) }
func (v Integer) String() string      { return strconv.FormatInt(int64(v), 10) }
func (v BulkString) String() string   { return string(v) }
func (v Array) String() string        { return joinValues(v) }
func (Null) String() string           { return "" }
func (v BigNumber) String() string    { return string(v) }
func (v BulkError) String() string    { return string(v) }
func (v Push) String() string         { return joinValues(v) }

func (v Bool) String() string {
	if v {
		return "true"
	}
	return "false"
}

// String renders the double the way it is written on the wire. Very large and
// very small magnitudes use exponent notation.
func (v Double) String() string {
	switch {
	case v.NaN:
		return "0.0"
	case math.IsInf(v.Float, 1):
		return "inf"
	case math.IsInf(v.Float, -1):
		return "-inf"
	}
	if abs := math.Abs(v.Float); abs != 0 && (abs >= 1e21 || abs < 1e-6) {
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	}
	return strconv.FormatFloat(v.Float, 'f', -1, 64)
}

func (v VerbatimString) String() string {
	return v.Encoding + ":" + v.Data
}

func joinValues(vals []Value) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Text returns the payload of the textual variants a command may accept as a
// key or name.
func Text(v Value) (string, bool) {
	switch v := v.(type) {
	case BulkString:
		return string(v), true
	case SimpleString:
		return string(v), true
	}
	return "", false
}
