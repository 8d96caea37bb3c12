package treetable

// The operations in this file are conveniences layered on the public
// surface: each is a straight composition of Get, Put and Remove, with no
// reach into bucket internals.

// PutIfAbsent stores value under key only if the key is absent. It returns
// the value left in the table and whether that value was already present.
func (m *Map[K, V]) PutIfAbsent(key K, value V) (actual V, loaded bool) {
	if existing, ok := m.Get(key); ok {
		return existing, true
	}
	m.Put(key, value)
	return value, false
}

// GetOrCompute returns the value stored under key, computing and storing it
// first if the key is absent. compute runs only on a miss.
func (m *Map[K, V]) GetOrCompute(key K, compute func() V) (actual V, loaded bool) {
	if existing, ok := m.Get(key); ok {
		return existing, true
	}
	value := compute()
	m.Put(key, value)
	return value, false
}

// Compute remaps the value under key. remap receives the current value (or
// the zero value) and whether the key was present; it returns the new value
// and whether the mapping should remain. Returning keep=false removes the
// key. Compute returns the value now in the table and whether the key is
// still present.
func (m *Map[K, V]) Compute(
	key K,
	remap func(old V, loaded bool) (next V, keep bool),
) (actual V, ok bool) {
	old, loaded := m.Get(key)
	next, keep := remap(old, loaded)
	if !keep {
		if loaded {
			m.Remove(key)
		}
		var zero V
		return zero, false
	}
	m.Put(key, next)
	return next, true
}

// Merge stores value under an absent key, or replaces an existing value with
// combine(existing, value). It returns the value now in the table.
func (m *Map[K, V]) Merge(key K, value V, combine func(existing, given V) V) V {
	if existing, ok := m.Get(key); ok {
		value = combine(existing, value)
	}
	m.Put(key, value)
	return value
}
