package protocol

import (
	"cmp"
	"strings"
)

// Compare orders two values: first by Kind, then by payload. It returns -1, 0
// or +1.
//
// Doubles compare numerically, except that the NaN sentinel compares equal to
// every Double. That makes the order non-transitive once a NaN is involved,
// which is why Map and Set refuse NaN keys.
func Compare(a, b Value) int {
	if c := cmp.Compare(a.Kind(), b.Kind()); c != 0 {
		return c
	}
	switch a := a.(type) {
	case SimpleString:
		return strings.Compare(string(a), string(b.(SimpleString)))
	case Error:
		return strings.Compare(string(a), string(b.(Error)))
	case Integer:
		return cmp.Compare(a, b.(Integer))
	case BulkString:
		return strings.Compare(string(a), string(b.(BulkString)))
	case Array:
		return compareSlices(a, b.(Array))
	case Null:
		return 0
	case Bool:
		return compareBool(bool(a), bool(b.(Bool)))
	case Double:
		return compareDouble(a, b.(Double))
	case BigNumber:
		return strings.Compare(string(a), string(b.(BigNumber)))
	case BulkError:
		return strings.Compare(string(a), string(b.(BulkError)))
	case VerbatimString:
		bv := b.(VerbatimString)
		if c := strings.Compare(a.Encoding, bv.Encoding); c != 0 {
			return c
		}
		return strings.Compare(a.Data, bv.Data)
	case Map:
		return compareEntries(a.Entries(), b.(Map).Entries())
	case Set:
		return compareSlices(a.Values(), b.(Set).Values())
	case Push:
		return compareSlices(a, b.(Push))
	}
	return 0
}

// Equal reports whether Compare(a, b) == 0.
func Equal(a, b Value) bool {
	return Compare(a, b) == 0
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}

// compareDouble treats "neither greater nor less" as equal, so NaN is equal to
// everything.
func compareDouble(a, b Double) int {
	if a.NaN || b.NaN {
		return 0
	}
	switch {
	case a.Float < b.Float:
		return -1
	case a.Float > b.Float:
		return 1
	}
	return 0
}

func compareSlices(a, b []Value) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

func compareEntries(a, b []MapEntry) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := Compare(a[i].Key, b[i].Key); c != 0 {
			return c
		}
		if c := Compare(a[i].Value, b[i].Value); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}
