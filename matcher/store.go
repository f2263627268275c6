package matcher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Destination receives the captures of a successful match.
type Destination interface {
	Set(key string, value any)
}

// Source provides the values used to render a template.
type Source interface {
	Get(key string) (any, bool)
}

// Store is an ordered, string keyed value store. It is the generic
// destination of matches and the result type of MatchAll. Keys keep
// the position of their first insertion.
type Store struct {
	keys   []string
	values map[string]any
}

// Values is an unordered destination and template source.
type Values map[string]any

type discard struct{}

func (discard) Set(string, any) {}

func (v Values) Set(key string, value any) { v[key] = value }

func (v Values) Get(key string) (any, bool) {
	value, ok := v[key]
	return value, ok
}

func NewStore() *Store {
	return &Store{values: make(map[string]any)}
}

// Set stores value under key. An existing key keeps its position.
func (s *Store) Set(key string, value any) {
	if s.values == nil {
		s.values = make(map[string]any)
	}

	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}

	s.values[key] = value
}

func (s *Store) Get(key string) (any, bool) {
	if s == nil {
		return nil, false
	}

	v, ok := s.values[key]
	return v, ok
}

// Has tells whether key is present.
func (s *Store) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Append stores value under the next free positional key, "0", "1", and
// so on.
func (s *Store) Append(value any) {
	n := len(s.keys)
	for s.Has(strconv.Itoa(n)) {
		n++
	}

	s.Set(strconv.Itoa(n), value)
}

// Delete removes key and reports whether it was present.
func (s *Store) Delete(key string) bool {
	if !s.Has(key) {
		return false
	}

	delete(s.values, key)
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}

	return true
}

func (s *Store) Len() int {
	if s == nil {
		return 0
	}

	return len(s.keys)
}

// Keys returns the keys in insertion order.
func (s *Store) Keys() []string {
	if s == nil {
		return nil
	}

	return append([]string(nil), s.keys...)
}

// Values returns the values in insertion order.
func (s *Store) Values() []any {
	if s == nil {
		return nil
	}

	values := make([]any, len(s.keys))
	for i, k := range s.keys {
		values[i] = s.values[k]
	}

	return values
}

// Range calls f for every entry in insertion order until f returns false.
func (s *Store) Range(f func(key string, value any) bool) {
	if s == nil {
		return
	}

	for _, k := range s.keys {
		if !f(k, s.values[k]) {
			return
		}
	}
}

// Map returns an unordered copy. Nested stores are converted, too.
func (s *Store) Map() map[string]any {
	m := make(map[string]any, s.Len())
	s.Range(func(k string, v any) bool {
		if sub, ok := v.(*Store); ok {
			v = sub.Map()
		}

		m[k] = v
		return true
	})

	return m
}

func (s *Store) copyTo(dst Destination) {
	s.Range(func(k string, v any) bool {
		dst.Set(k, v)
		return true
	})
}

// MarshalJSON renders the store as a JSON object preserving key order.
func (s *Store) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range s.Keys() {
		if i > 0 {
			b.WriteByte(',')
		}

		kj, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}

		vj, err := json.Marshal(s.values[k])
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %q: %w", k, err)
		}

		b.Write(kj)
		b.WriteByte(':')
		b.Write(vj)
	}

	b.WriteByte('}')
	return b.Bytes(), nil
}

func (s *Store) String() string {
	b, err := s.MarshalJSON()
	if err != nil {
		return fmt.Sprint(s.Map())
	}

	return string(b)
}
