// Package treetable implements a hash table whose buckets adapt their
// collision handling to their population: a sparsely populated bucket keeps
// its entries in a short insertion-ordered chain, while a heavily collided
// bucket is promoted to a balanced search tree ordered by hash. Promotion
// and demotion happen automatically as entries come and go, so pathological
// key sets degrade lookups to O(log n) per bucket instead of O(n).
//
// The table is a plain single-threaded data structure. It performs no
// internal locking; concurrent use without external synchronization is a
// caller error. Mutating the table while iterating it is detected and
// reported via ErrConcurrentChange.
package treetable

import (
	"fmt"
	"hash/maphash"

	"golang.org/x/exp/rand"
)

const (
	// defaultCapacity is the bucket count used when no capacity option is given.
	defaultCapacity = 16
	// defaultLoadFactor is the fill fraction that triggers growth when no
	// load factor option is given.
	defaultLoadFactor = 0.75
	// maxCapacity bounds the bucket array; once reached the table stops
	// growing and buckets absorb further load.
	maxCapacity = 1 << 30

	// treeifyThreshold is the chain length at which a bucket is promoted to
	// a tree, provided the table is at least minTreeifyCapacity buckets.
	treeifyThreshold = 8
	// untreeifyThreshold is the tree population at or below which a bucket
	// is demoted back to a chain after a removal or a resize split.
	untreeifyThreshold = 6
	// minTreeifyCapacity is the smallest bucket array for which chains are
	// promoted to trees. Below it an overlong chain grows the table instead;
	// collisions at small capacities are an addressing problem, not a
	// bucket-structure problem.
	minTreeifyCapacity = 64
)

// Map is a hash table from K to V with adaptive per-bucket collision
// handling. The zero value is not usable; construct instances with New or
// NewWithHasher.
//
// Key hashes are mixed once (high bits folded into low bits) and cached per
// entry, so neither growth nor bucket promotion ever re-invokes the hash
// function. Lookup equality is decided by the key-equivalence predicate,
// never by hash equality alone.
//
// A Map must not be mutated from multiple goroutines. The modification
// counter exists to make single-threaded mutate-while-iterating mistakes
// fail deterministically, not to provide any concurrency safety.
type Map[K comparable, V any] struct {
	buckets []bucket[K, V]

	count    int    // live entries across all buckets
	modCount uint64 // bumped on every structural change
	seq      uint64 // insertion sequence, tree tie-break source

	keyHash  func(key K, seed uint64) uint64
	keyEqual func(a, b K) bool
	seed     uint64

	loadFactor  float64
	threshold   int // count above which the next Put grows the table
	minCapacity int // Clear resets the bucket array to this length
	growths     uint64
}

// MapConfig defines configurable Map options.
type MapConfig struct {
	capacity   int
	loadFactor float64
}

// WithCapacity configures a new Map with enough buckets for the given
// capacity. The value is rounded up to the next power of two and also serves
// as the floor Clear shrinks back to. Zero is ignored.
func WithCapacity(capacity int) func(*MapConfig) {
	return func(c *MapConfig) {
		c.capacity = capacity
	}
}

// WithLoadFactor configures the fill fraction that triggers growth. Must be
// in (0, 1]; the constructor rejects anything else.
func WithLoadFactor(loadFactor float64) func(*MapConfig) {
	return func(c *MapConfig) {
		c.loadFactor = loadFactor
	}
}

// New creates a Map using the built-in maphash-based hasher and == equality.
//
// Parameters:
//   - WithCapacity option for initial capacity
//   - WithLoadFactor option for the growth threshold
func New[K comparable, V any](options ...func(*MapConfig)) (*Map[K, V], error) {
	return NewWithHasher[K, V](nil, nil, options...)
}

// NewWithHasher creates a Map with caller-supplied hashing and key
// equivalence. Both functions may be nil, in which case the built-ins are
// used.
//
// The pairing must satisfy the usual contract: equal(a, b) implies
// hash(a, seed) == hash(b, seed). A pairing that violates it leaves entries
// stranded in buckets where lookups cannot find them; that is a caller
// defect the table does not detect.
func NewWithHasher[K comparable, V any](
	keyHash func(key K, seed uint64) uint64,
	keyEqual func(a, b K) bool,
	options ...func(*MapConfig),
) (*Map[K, V], error) {
	c := &MapConfig{}
	for _, opt := range options {
		opt(c)
	}
	if c.capacity < 0 {
		return nil, fmt.Errorf("%w: negative capacity %d", ErrInvalidConfiguration, c.capacity)
	}
	if c.loadFactor == 0 {
		c.loadFactor = defaultLoadFactor
	}
	if !(c.loadFactor > 0) || c.loadFactor > 1 {
		return nil, fmt.Errorf("%w: load factor %v outside (0, 1]", ErrInvalidConfiguration, c.loadFactor)
	}
	if c.capacity == 0 {
		c.capacity = defaultCapacity
	}
	capacity := nextPowOf2(c.capacity)
	if capacity > maxCapacity {
		capacity = maxCapacity
	}

	if keyHash == nil {
		keyHash = defaultHasher[K]()
	}
	if keyEqual == nil {
		keyEqual = func(a, b K) bool { return a == b }
	}
	m := &Map[K, V]{
		buckets:     make([]bucket[K, V], capacity),
		keyHash:     keyHash,
		keyEqual:    keyEqual,
		seed:        rand.Uint64(),
		loadFactor:  c.loadFactor,
		minCapacity: capacity,
	}
	m.threshold = growThreshold(capacity, c.loadFactor)
	return m, nil
}

// defaultHasher builds the built-in hash function for K. Each call carries
// its own maphash seed, so distinct tables hash the same key differently.
func defaultHasher[K comparable]() func(key K, seed uint64) uint64 {
	mseed := maphash.MakeSeed()
	return func(key K, _ uint64) uint64 {
		return maphash.Comparable(mseed, key)
	}
}

// spread folds the high half of a hash into the low half. Bucket indices
// only consume the low bits of the hash while the array is small; without
// the fold, keys whose hashes differ only high up would pile into one
// bucket.
func spread(h uint64) uint64 {
	return h ^ (h >> 32)
}

// hashOf returns the spread hash for key. Callers cache the result in the
// entry; it is never recomputed for the key's lifetime in the table.
func (m *Map[K, V]) hashOf(key K) uint64 {
	return spread(m.keyHash(key, m.seed))
}

func (m *Map[K, V]) bucketFor(hash uint64) *bucket[K, V] {
	return &m.buckets[hash&uint64(len(m.buckets)-1)]
}

// Get returns the value stored under key. The second result reports whether
// the key was present. Get never mutates the table.
func (m *Map[K, V]) Get(key K) (value V, ok bool) {
	hash := m.hashOf(key)
	if e := m.bucketFor(hash).find(hash, key, m.keyEqual); e != nil {
		return e.value, true
	}
	return value, false
}

// HasKey reports whether key is present.
func (m *Map[K, V]) HasKey(key K) bool {
	hash := m.hashOf(key)
	return m.bucketFor(hash).find(hash, key, m.keyEqual) != nil
}

// Put stores value under key and returns the value it displaced, if any.
// Replacing the value of an existing key is not a structural change: no
// counters move, no thresholds are checked, iterators stay valid.
func (m *Map[K, V]) Put(key K, value V) (previous V, replaced bool) {
	hash := m.hashOf(key)
	b := m.bucketFor(hash)
	if e := b.find(hash, key, m.keyEqual); e != nil {
		previous, replaced = e.value, true
		e.value = value
		return
	}

	m.seq++
	b.insert(&entry[K, V]{key: key, value: value, hash: hash, seq: m.seq})
	m.count++
	m.modCount++

	if b.kind == kindChain && len(b.chain) >= treeifyThreshold {
		if len(m.buckets) >= minTreeifyCapacity {
			b.treeify()
		} else {
			// Too small a table to justify tree overhead; more buckets
			// will spread the chain out instead.
			m.grow()
		}
	}
	for m.count > m.threshold {
		if !m.grow() {
			break
		}
	}
	return
}

// Remove deletes key and returns the value that was stored under it.
// Removing an absent key is not an error and not a structural change.
func (m *Map[K, V]) Remove(key K) (value V, removed bool) {
	hash := m.hashOf(key)
	b := m.bucketFor(hash)
	e := b.remove(hash, key, m.keyEqual)
	if e == nil {
		return value, false
	}
	m.count--
	m.modCount++
	if b.kind == kindTree && b.tree.size <= untreeifyThreshold {
		b.untreeify()
	}
	return e.value, true
}

// Size returns the number of live entries.
func (m *Map[K, V]) Size() int {
	return m.count
}

// IsEmpty reports whether the table holds no entries.
func (m *Map[K, V]) IsEmpty() bool {
	return m.count == 0
}

// Capacity returns the current bucket count.
func (m *Map[K, V]) Capacity() int {
	return len(m.buckets)
}

// Clear discards every entry and shrinks the bucket array back to the
// table's initial capacity. Outstanding iterators are invalidated.
func (m *Map[K, V]) Clear() {
	m.buckets = make([]bucket[K, V], m.minCapacity)
	m.count = 0
	m.modCount++
	m.threshold = growThreshold(m.minCapacity, m.loadFactor)
}

func growThreshold(capacity int, loadFactor float64) int {
	return int(float64(capacity) * loadFactor)
}

// nextPowOf2 rounds n up to the nearest power of two, minimum 1.
func nextPowOf2(n int) int {
	if n <= 0 {
		return 1
	}
	v := uint64(n)
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v |= v >> 32
	v++
	return int(v)
}
