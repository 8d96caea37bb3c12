package treetable

// grow doubles the bucket array and redistributes every entry. It reports
// false once the table has hit maxCapacity, at which point the threshold is
// lifted so inserts stop retrying.
//
// No hash is recomputed: with capacity doubling, the mask gains exactly one
// bit, so every entry of old bucket i belongs to new bucket i or new bucket
// i+oldCapacity depending on that single bit of its cached hash. Each old
// bucket is partitioned into a low and a high half accordingly.
func (m *Map[K, V]) grow() bool {
	oldCap := len(m.buckets)
	if oldCap >= maxCapacity {
		m.threshold = int(^uint(0) >> 1)
		return false
	}
	newCap := oldCap * 2
	next := make([]bucket[K, V], newCap)
	moved := 0
	for i := range m.buckets {
		moved += m.splitBucket(&m.buckets[i], &next[i], &next[i+oldCap], uint64(oldCap), newCap)
	}
	if moved != m.count {
		panic("treetable: resize lost entries")
	}
	m.buckets = next
	m.threshold = growThreshold(newCap, m.loadFactor)
	m.growths++
	return true
}

// splitBucket moves old's entries into lo or hi by testing the new mask bit
// (hash & oldCap). A half that came out of a tree stays a tree only while
// its population remains above untreeifyThreshold; otherwise it is relinked
// as a chain. A half that came out of a chain and has itself reached
// treeifyThreshold is promoted immediately when the grown table is large
// enough, keeping the chain-length bound intact across resizes.
func (m *Map[K, V]) splitBucket(old, lo, hi *bucket[K, V], bit uint64, newCap int) int {
	all := old.entries(nil)
	for _, e := range all {
		if e.hash&bit == 0 {
			lo.chain = append(lo.chain, e)
		} else {
			hi.chain = append(hi.chain, e)
		}
	}
	for _, half := range [2]*bucket[K, V]{lo, hi} {
		n := len(half.chain)
		switch {
		case old.kind == kindTree && n > untreeifyThreshold:
			half.treeify()
		case n >= treeifyThreshold && newCap >= minTreeifyCapacity:
			half.treeify()
		}
	}
	return len(all)
}
