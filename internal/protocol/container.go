package protocol

import (
	"fmt"
	"strings"

	"github.com/google/btree"
)

const btreeDegree = 8

// MapEntry is one key/value pair of a Map.
type MapEntry struct {
	Key   Value
	Value Value
}

// Map is an ordered mapping from Value to Value. Keys are unique under
// Compare and traversal is ascending. The zero Map is empty and ready to use.
//
// Copies of a Map share storage, so a Map must not be modified once it has
// been handed to another component.
type Map struct {
	tree *btree.BTreeG[MapEntry]
}

// Set is an ordered set of Values under Compare. The zero Set is empty and
// ready to use; copies share storage like Map.
type Set struct {
	tree *btree.BTreeG[Value]
}

func lessEntry(a, b MapEntry) bool { return Compare(a.Key, b.Key) < 0 }
func lessValue(a, b Value) bool    { return Compare(a, b) < 0 }

// NewMap builds a Map from entries; later duplicates overwrite earlier ones.
func NewMap(entries ...MapEntry) (Map, error) {
	var m Map
	for _, e := range entries {
		if err := m.Put(e.Key, e.Value); err != nil {
			return Map{}, err
		}
	}
	return m, nil
}

// Put inserts or replaces the entry for key.
func (m *Map) Put(key, val Value) error {
	if ContainsNaN(key) {
		return fmt.Errorf("%w: map key %s", ErrNaNKey, key)
	}
	if m.tree == nil {
		m.tree = btree.NewG[MapEntry](btreeDegree, lessEntry)
	}
	m.tree.ReplaceOrInsert(MapEntry{Key: key, Value: val})
	return nil
}

// Get returns the value stored under key.
func (m Map) Get(key Value) (Value, bool) {
	if m.tree == nil {
		return nil, false
	}
	e, ok := m.tree.Get(MapEntry{Key: key})
	if !ok {
		return nil, false
	}
	return e.Value, true
}

func (m Map) Len() int {
	if m.tree == nil {
		return 0
	}
	return m.tree.Len()
}

// Ascend calls fn for each entry in key order until fn returns false.
func (m Map) Ascend(fn func(key, val Value) bool) {
	if m.tree == nil {
		return
	}
	m.tree.Ascend(func(e MapEntry) bool {
		return fn(e.Key, e.Value)
	})
}

// Entries returns the entries in key order.
func (m Map) Entries() []MapEntry {
	out := make([]MapEntry, 0, m.Len())
	m.Ascend(func(k, v Value) bool {
		out = append(out, MapEntry{Key: k, Value: v})
		return true
	})
	return out
}

func (m Map) String() string {
	var b strings.Builder
	b.WriteByte('{')
	m.Ascend(func(k, v Value) bool {
		if b.Len() > 1 {
			b.WriteByte(' ')
		}
		b.WriteString(k.String())
		b.WriteString(": ")
		b.WriteString(v.String())
		return true
	})
	b.WriteByte('}')
	return b.String()
}

// NewSet builds a Set from elems; duplicates collapse.
func NewSet(elems ...Value) (Set, error) {
	var s Set
	for _, v := range elems {
		if err := s.Add(v); err != nil {
			return Set{}, err
		}
	}
	return s, nil
}

// Add inserts v unless an equal element is already present.
func (s *Set) Add(v Value) error {
	if ContainsNaN(v) {
		return fmt.Errorf("%w: set element %s", ErrNaNKey, v)
	}
	if s.tree == nil {
		s.tree = btree.NewG[Value](btreeDegree, lessValue)
	}
	s.tree.ReplaceOrInsert(v)
	return nil
}

func (s Set) Has(v Value) bool {
	if s.tree == nil {
		return false
	}
	return s.tree.Has(v)
}

func (s Set) Len() int {
	if s.tree == nil {
		return 0
	}
	return s.tree.Len()
}

// Ascend calls fn for each element in order until fn returns false.
func (s Set) Ascend(fn func(v Value) bool) {
	if s.tree == nil {
		return
	}
	s.tree.Ascend(btree.ItemIteratorG[Value](fn))
}

// Values returns the elements in order.
func (s Set) Values() []Value {
	out := make([]Value, 0, s.Len())
	s.Ascend(func(v Value) bool {
		out = append(out, v)
		return true
	})
	return out
}

func (s Set) String() string {
	return joinValues(s.Values())
}

// ContainsNaN reports whether v is, or holds anywhere inside it, a NaN
// sentinel Double. Such values have no consistent position in the order.
func ContainsNaN(v Value) bool {
	switch v := v.(type) {
	case Double:
		return v.NaN
	case Array:
		return anyNaN(v)
	case Push:
		return anyNaN(v)
	case Map:
		found := false
		v.Ascend(func(k, val Value) bool {
			found = ContainsNaN(k) || ContainsNaN(val)
			return !found
		})
		return found
	case Set:
		found := false
		v.Ascend(func(e Value) bool {
			found = ContainsNaN(e)
			return !found
		})
		return found
	}
	return false
}

func anyNaN(vals []Value) bool {
	for _, v := range vals {
		if ContainsNaN(v) {
			return true
		}
	}
	return false
}
