package treetable

// entry is an owned (key, value) record plus the key's cached spread hash
// and the insertion sequence number that breaks ties in tree ordering.
// Entries move between structures (chain to tree, old bucket array to new);
// they are never copied, so a value written through one reference is seen by
// all of them.
type entry[K comparable, V any] struct {
	key   K
	value V
	hash  uint64
	seq   uint64
}

type bucketKind uint8

const (
	kindChain bucketKind = iota
	kindTree
)

// bucket is one slot of the bucket array: a tagged variant holding its
// entries either as an insertion-ordered chain or as a balanced tree.
// Variant switches are driven exclusively by the Map during insert, remove
// and resize; a bucket never converts itself.
type bucket[K comparable, V any] struct {
	kind  bucketKind
	chain []*entry[K, V]
	tree  *tree[K, V]
}

// find returns the entry matching key, or nil. The cached hash is a
// pre-filter only; the match is decided by the equivalence predicate.
func (b *bucket[K, V]) find(hash uint64, key K, equal func(a, b K) bool) *entry[K, V] {
	switch b.kind {
	case kindChain:
		for _, e := range b.chain {
			if e.hash == hash && equal(e.key, key) {
				return e
			}
		}
		return nil
	case kindTree:
		return b.tree.find(hash, key, equal)
	}
	panic("treetable: corrupt bucket kind")
}

// insert adds e to the bucket. The caller has already established that no
// existing entry matches e's key. Chains append at the tail, preserving the
// relative insertion order of colliding entries.
func (b *bucket[K, V]) insert(e *entry[K, V]) {
	switch b.kind {
	case kindChain:
		b.chain = append(b.chain, e)
	case kindTree:
		b.tree.insert(e)
	default:
		panic("treetable: corrupt bucket kind")
	}
}

// remove unlinks and returns the entry matching key, or nil if absent.
// Demotion of an underpopulated tree is the Map's job, not remove's.
func (b *bucket[K, V]) remove(hash uint64, key K, equal func(a, b K) bool) *entry[K, V] {
	switch b.kind {
	case kindChain:
		for i, e := range b.chain {
			if e.hash == hash && equal(e.key, key) {
				b.chain = append(b.chain[:i], b.chain[i+1:]...)
				if len(b.chain) == 0 {
					b.chain = nil
				}
				return e
			}
		}
		return nil
	case kindTree:
		e := b.tree.find(hash, key, equal)
		if e != nil {
			b.tree.delete(e)
		}
		return e
	}
	panic("treetable: corrupt bucket kind")
}

// size returns the bucket's entry count.
func (b *bucket[K, V]) size() int {
	if b.kind == kindTree {
		return b.tree.size
	}
	return len(b.chain)
}

// entries appends the bucket's entries to dst in intra-bucket order: chain
// order for chains, (hash, seq) order for trees.
func (b *bucket[K, V]) entries(dst []*entry[K, V]) []*entry[K, V] {
	if b.kind == kindTree {
		return b.tree.appendEntries(dst)
	}
	return append(dst, b.chain...)
}

// treeify promotes a chain bucket to a tree, moving every entry. Each
// entry's original sequence number rides along, so ordering among equal
// hashes stays the order they were first inserted in.
func (b *bucket[K, V]) treeify() {
	t := newTree[K, V](len(b.chain))
	for _, e := range b.chain {
		t.insert(e)
	}
	if t.size != len(b.chain) {
		panic("treetable: treeify lost entries")
	}
	b.kind = kindTree
	b.tree = t
	b.chain = nil
}

// untreeify demotes a tree bucket back to a chain. Entries are relinked in
// tree order, which need not match their original insertion order.
func (b *bucket[K, V]) untreeify() {
	n := b.tree.size
	b.chain = b.tree.appendEntries(make([]*entry[K, V], 0, n))
	if len(b.chain) != n {
		panic("treetable: untreeify lost entries")
	}
	b.kind = kindChain
	b.tree = nil
}
