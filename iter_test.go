package treetable

import (
	"errors"
	"testing"
)

func TestIterVisitsEveryEntryOnce(t *testing.T) {
	m := mustNew[string, int](t)
	for i, k := range testData {
		m.Put(k, i)
	}
	seen := make(map[string]int)
	it := m.Iter()
	for it.Next() {
		seen[it.Key()]++
		if seen[it.Key()] > 1 {
			t.Fatalf("key %q yielded twice", it.Key())
		}
		if want := m.ToMap()[it.Key()]; it.Value() != want {
			t.Fatalf("key %q value %d, want %d", it.Key(), it.Value(), want)
		}
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iteration failed: %v", err)
	}
	if len(seen) != len(testData) {
		t.Fatalf("visited %d keys, want %d", len(seen), len(testData))
	}
	// Exhausted iterators stay exhausted.
	if it.Next() {
		t.Fatal("Next true after exhaustion")
	}
}

func TestIterCoversTreeBuckets(t *testing.T) {
	m, err := NewWithHasher[int, int](collideHasher, nil, WithCapacity(minTreeifyCapacity), WithLoadFactor(1))
	if err != nil {
		t.Fatal(err)
	}
	const n = 20
	for i := 0; i < n; i++ {
		m.Put(i, i)
	}
	if bucketOf(m, 0).kind != kindTree {
		t.Fatal("precondition: bucket not a tree")
	}
	count := 0
	it := m.Iter()
	for it.Next() {
		if it.Value() != it.Key() {
			t.Fatalf("entry %d carries value %d", it.Key(), it.Value())
		}
		count++
	}
	if it.Err() != nil || count != n {
		t.Fatalf("tree iteration: %d entries, err %v", count, it.Err())
	}
}

func TestIterEmptyMap(t *testing.T) {
	m := mustNew[string, int](t)
	it := m.Iter()
	if it.Next() {
		t.Fatal("Next true on empty map")
	}
	if it.Err() != nil {
		t.Fatalf("empty iteration errored: %v", it.Err())
	}
}

func TestIterDetectsPutDuringIteration(t *testing.T) {
	m := mustNew[string, int](t)
	for i, k := range testData {
		m.Put(k, i)
	}
	it := m.Iter()
	if !it.Next() {
		t.Fatal("no first entry")
	}
	m.Put("brand-new-key", 1)
	if it.Next() {
		t.Fatal("Next true after structural change")
	}
	if !errors.Is(it.Err(), ErrConcurrentChange) {
		t.Fatalf("Err() = %v, want ErrConcurrentChange", it.Err())
	}
	// A fresh iterator recovers.
	it = m.Iter()
	n := 0
	for it.Next() {
		n++
	}
	if it.Err() != nil || n != len(testData)+1 {
		t.Fatalf("fresh iterator: %d entries, err %v", n, it.Err())
	}
}

func TestIterDetectsRemoveAndClear(t *testing.T) {
	m := mustNew[string, int](t)
	for i, k := range testData {
		m.Put(k, i)
	}
	it := m.Iter()
	it.Next()
	m.Remove(testData[0])
	if it.Next() || !errors.Is(it.Err(), ErrConcurrentChange) {
		t.Fatalf("remove not detected: %v", it.Err())
	}

	it = m.Iter()
	it.Next()
	m.Clear()
	if it.Next() || !errors.Is(it.Err(), ErrConcurrentChange) {
		t.Fatalf("clear not detected: %v", it.Err())
	}
}

func TestIterToleratesValueReplacement(t *testing.T) {
	// Replacing an existing key's value is not a structural change and must
	// not kill iterators.
	m := mustNew[string, int](t)
	for i, k := range testData {
		m.Put(k, i)
	}
	it := m.Iter()
	n := 0
	for it.Next() {
		m.Put(it.Key(), it.Value()+1000)
		n++
	}
	if err := it.Err(); err != nil {
		t.Fatalf("value replacement killed the iterator: %v", err)
	}
	if n != len(testData) {
		t.Fatalf("visited %d entries, want %d", n, len(testData))
	}
}

func TestIterRemoveMissingDoesNotInvalidate(t *testing.T) {
	m := mustNew[string, int](t)
	m.Put("a", 1)
	m.Put("b", 2)
	it := m.Iter()
	it.Next()
	m.Remove("no-such-key")
	if !it.Next() {
		t.Fatalf("no-op removal invalidated iterator: %v", it.Err())
	}
}

func TestRange(t *testing.T) {
	m := mustNew[string, int](t)
	for i, k := range testData {
		m.Put(k, i)
	}
	n := 0
	if err := m.Range(func(k string, v int) bool {
		n++
		return true
	}); err != nil {
		t.Fatal(err)
	}
	if n != len(testData) {
		t.Fatalf("Range visited %d, want %d", n, len(testData))
	}

	// Early stop is not an error.
	n = 0
	if err := m.Range(func(k string, v int) bool {
		n++
		return n < 10
	}); err != nil {
		t.Fatal(err)
	}
	if n != 10 {
		t.Fatalf("early stop visited %d, want 10", n)
	}

	// Structural mutation from inside yield is detected.
	err := m.Range(func(k string, v int) bool {
		m.Remove(k)
		return true
	})
	if !errors.Is(err, ErrConcurrentChange) {
		t.Fatalf("Range error = %v, want ErrConcurrentChange", err)
	}
}

func TestAllKeysValues(t *testing.T) {
	m := mustNew[int, int](t)
	for i := 0; i < 100; i++ {
		m.Put(i, i*2)
	}
	var sumK, sumV int
	for k, v := range m.All() {
		sumK += k
		sumV += v
	}
	if sumK != 4950 || sumV != 9900 {
		t.Fatalf("All sums = %d/%d, want 4950/9900", sumK, sumV)
	}
	sumK = 0
	for k := range m.Keys() {
		sumK += k
	}
	if sumK != 4950 {
		t.Fatalf("Keys sum = %d", sumK)
	}
	sumV = 0
	for v := range m.Values() {
		sumV += v
	}
	if sumV != 9900 {
		t.Fatalf("Values sum = %d", sumV)
	}
	// Early break must not panic or error.
	for range m.All() {
		break
	}
}

func TestAllPanicsOnStructuralChange(t *testing.T) {
	m := mustNew[int, int](t)
	for i := 0; i < 100; i++ {
		m.Put(i, i)
	}
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrConcurrentChange) {
			t.Fatalf("recovered %v, want ErrConcurrentChange", r)
		}
	}()
	for k := range m.All() {
		m.Remove(k)
	}
	t.Fatal("mutation during All went undetected")
}
