// Package store holds the keyspace shared by every client connection.
package store

import (
	"errors"
	"math"
	"strconv"
	"sync"

	"github.com/andrelcunha/oxidedb/internal/protocol"
)

var ErrNotInteger = errors.New("ERR value is not an integer or out of range")
var ErrOverflow = errors.New("ERR increment or decrement would overflow")

// Store maps keys to protocol values. Every method takes the single exclusive
// lock for its in-memory work only, so operations on the same key are
// linearizable and the lock is never held across network I/O.
type Store struct {
	data map[string]protocol.Value
	mu   sync.Mutex
}

// New creates an empty store. Build one at startup and hand the pointer to
// every connection.
func New() *Store {
	return &Store{
		data: make(map[string]protocol.Value),
	}
}

// Get gets the value for a key
func (s *Store) Get(key string) (protocol.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.data[key]
	return value, ok
}

// Set stores value under key, replacing any previous entry.
func (s *Store) Set(key string, value protocol.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Del removes the given keys and returns how many existed.
func (s *Store) Del(keys ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, key := range keys {
		if _, ok := s.data[key]; ok {
			delete(s.data, key)
			count++
		}
	}
	return count
}

// IncrBy adds delta to the integer held at key and returns the result. A
// missing key counts as 0. The new value is stored as a bulk string of digits.
// On error the entry is left untouched.
func (s *Store) IncrBy(key string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current int64
	if value, ok := s.data[key]; ok {
		n, err := strconv.ParseInt(value.String(), 10, 64)
		if err != nil {
			return 0, ErrNotInteger
		}
		current = n
	}
	if (delta > 0 && current > math.MaxInt64-delta) || (delta < 0 && current < math.MinInt64-delta) {
		return 0, ErrOverflow
	}
	current += delta
	s.data[key] = protocol.BulkString(strconv.FormatInt(current, 10))
	return current, nil
}

// Len returns the number of keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
