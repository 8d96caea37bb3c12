package treetable

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ToMap returns a built-in map holding a snapshot of all entries.
func (m *Map[K, V]) ToMap() map[K]V {
	result := make(map[K]V, m.count)
	it := m.Iter()
	for it.Next() {
		result[it.Key()] = it.Value()
	}
	return result
}

// FromMap inserts every entry of source into the table.
func (m *Map[K, V]) FromMap(source map[K]V) {
	for k, v := range source {
		m.Put(k, v)
	}
}

// Clone returns a table with the same configuration, hasher and entries.
func (m *Map[K, V]) Clone() *Map[K, V] {
	clone := &Map[K, V]{
		buckets:     make([]bucket[K, V], m.minCapacity),
		keyHash:     m.keyHash,
		keyEqual:    m.keyEqual,
		seed:        m.seed,
		loadFactor:  m.loadFactor,
		minCapacity: m.minCapacity,
	}
	clone.threshold = growThreshold(m.minCapacity, m.loadFactor)
	it := m.Iter()
	for it.Next() {
		clone.Put(it.Key(), it.Value())
	}
	return clone
}

// String implements the formatting output interface fmt.Stringer.
func (m *Map[K, V]) String() string {
	return strings.Replace(fmt.Sprint(m.ToMap()), "map[", "Map[", 1)
}

// MarshalJSON encodes the table as a JSON object, one member per entry.
func (m *Map[K, V]) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.ToMap())
}

// UnmarshalJSON decodes a JSON object into the table, inserting each member
// on top of whatever the table already holds.
func (m *Map[K, V]) UnmarshalJSON(data []byte) error {
	var a map[K]V
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	m.FromMap(a)
	return nil
}
