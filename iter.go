package treetable

import (
	"iter"

	"golang.org/x/exp/rand"
)

// Iterator walks a Map bucket by bucket, then entry by entry within each
// bucket. The walk starts at a random bucket so callers cannot come to rely
// on any particular order. The iterator snapshots the table's modification
// counter at creation and re-checks it on every step; a structural change to
// the table kills the iterator with ErrConcurrentChange. Value replacement
// on an existing key is not structural and does not invalidate iterators.
//
// An Iterator is finite and not restartable; call Iter again for a fresh
// walk.
type Iterator[K comparable, V any] struct {
	m       *Map[K, V]
	snap    uint64
	start   int
	visited int
	cur     []*entry[K, V]
	pos     int
	key     K
	value   V
	err     error
}

// Iter returns an iterator over the table's entries.
func (m *Map[K, V]) Iter() *Iterator[K, V] {
	return &Iterator[K, V]{
		m:     m,
		snap:  m.modCount,
		start: int(rand.Uint64()) & (len(m.buckets) - 1),
	}
}

// Next advances to the next entry, reporting false at the end of the walk or
// on failure. After Next returns false, Err distinguishes normal exhaustion
// from a detected structural change.
func (it *Iterator[K, V]) Next() bool {
	if it.err != nil || it.m == nil {
		return false
	}
	if it.snap != it.m.modCount {
		it.err = ErrConcurrentChange
		return false
	}
	for {
		if it.pos < len(it.cur) {
			e := it.cur[it.pos]
			it.pos++
			it.key, it.value = e.key, e.value
			return true
		}
		if it.visited == len(it.m.buckets) {
			it.m = nil
			return false
		}
		b := &it.m.buckets[(it.start+it.visited)&(len(it.m.buckets)-1)]
		it.visited++
		it.cur, it.pos = b.entries(it.cur[:0]), 0
	}
}

// Key returns the key of the entry Next last advanced to.
func (it *Iterator[K, V]) Key() K {
	return it.key
}

// Value returns the value of the entry Next last advanced to.
func (it *Iterator[K, V]) Value() V {
	return it.value
}

// Err returns ErrConcurrentChange if the walk was cut short by a structural
// change, and nil otherwise.
func (it *Iterator[K, V]) Err() error {
	return it.err
}

// Range calls yield for each entry until yield returns false or the walk
// ends. It returns ErrConcurrentChange if the table was structurally changed
// mid-walk (including by yield itself).
func (m *Map[K, V]) Range(yield func(key K, value V) bool) error {
	it := m.Iter()
	for it.Next() {
		if !yield(it.key, it.value) {
			return nil
		}
	}
	return it.Err()
}

// All returns a range-over-func sequence of the table's entries. Unlike
// Range it has no error channel, so a structural change during the walk
// panics with ErrConcurrentChange, mirroring the built-in map's fail-fast
// behavior.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		it := m.Iter()
		for it.Next() {
			if !yield(it.key, it.value) {
				return
			}
		}
		if err := it.Err(); err != nil {
			panic(err)
		}
	}
}

// Keys returns a sequence of the table's keys. See All.
func (m *Map[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range m.All() {
			if !yield(k) {
				return
			}
		}
	}
}

// Values returns a sequence of the table's values. See All.
func (m *Map[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, v := range m.All() {
			if !yield(v) {
				return
			}
		}
	}
}
