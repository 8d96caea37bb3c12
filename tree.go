package treetable

import "unsafe"

// nilNode marks an absent child or an empty root.
const nilNode = int32(-1)

// treeNode is one slot of a tree bucket's arena. Children are arena indices,
// not pointers, so rotations are plain index reassignments and a node's
// lifetime is the arena's.
type treeNode[K comparable, V any] struct {
	e      *entry[K, V]
	left   int32
	right  int32
	height int32
}

// tree is the balanced (AVL) representation of a heavily collided bucket.
// Entries are ordered by spread hash; entries sharing a hash are ordered by
// insertion sequence number, which is unique per table, so the order is
// total and insertion never meets an equal element.
type tree[K comparable, V any] struct {
	nodes []treeNode[K, V]
	root  int32
	free  int32 // free-list head, threaded through left links
	size  int
}

func newTree[K comparable, V any](sizeHint int) *tree[K, V] {
	return &tree[K, V]{
		nodes: make([]treeNode[K, V], 0, arenaCap[K, V](sizeHint, 0)),
		root:  nilNode,
		free:  nilNode,
	}
}

// arenaCap picks an arena capacity holding at least need nodes: grown
// geometrically from the current capacity and rounded up to whole cache
// lines worth of nodes.
func arenaCap[K comparable, V any](need, current int) int {
	if c := current * 2; c > need {
		need = c
	}
	nodeSize := int(unsafe.Sizeof(treeNode[K, V]{}))
	perLine := int(CacheLineSize) / nodeSize
	if perLine < 1 {
		perLine = 1
	}
	return (need + perLine - 1) / perLine * perLine
}

func entryLess[K comparable, V any](a, b *entry[K, V]) bool {
	return a.hash < b.hash || (a.hash == b.hash && a.seq < b.seq)
}

// alloc places e in a fresh node and returns its index. Reuses freed slots
// before growing the arena. Growing relocates the backing array, so callers
// must not hold *treeNode across an alloc.
func (t *tree[K, V]) alloc(e *entry[K, V]) int32 {
	if t.free != nilNode {
		idx := t.free
		t.free = t.nodes[idx].left
		t.nodes[idx] = treeNode[K, V]{e: e, left: nilNode, right: nilNode, height: 1}
		return idx
	}
	if len(t.nodes) == cap(t.nodes) {
		grown := make([]treeNode[K, V], len(t.nodes), arenaCap[K, V](len(t.nodes)+1, cap(t.nodes)))
		copy(grown, t.nodes)
		t.nodes = grown
	}
	t.nodes = append(t.nodes, treeNode[K, V]{e: e, left: nilNode, right: nilNode, height: 1})
	return int32(len(t.nodes) - 1)
}

// release returns node i to the free list and clears its entry reference.
func (t *tree[K, V]) release(i int32) {
	t.nodes[i] = treeNode[K, V]{left: t.free, right: nilNode}
	t.free = i
}

func (t *tree[K, V]) height(i int32) int32 {
	if i == nilNode {
		return 0
	}
	return t.nodes[i].height
}

func (t *tree[K, V]) reheight(i int32) {
	t.nodes[i].height = max(t.height(t.nodes[i].left), t.height(t.nodes[i].right)) + 1
}

func (t *tree[K, V]) rotateLeft(i int32) int32 {
	r := t.nodes[i].right
	t.nodes[i].right = t.nodes[r].left
	t.nodes[r].left = i
	t.reheight(i)
	t.reheight(r)
	return r
}

func (t *tree[K, V]) rotateRight(i int32) int32 {
	l := t.nodes[i].left
	t.nodes[i].left = t.nodes[l].right
	t.nodes[l].right = i
	t.reheight(i)
	t.reheight(l)
	return l
}

// rebalance restores the AVL height bound at i and returns the index of the
// subtree's new root.
func (t *tree[K, V]) rebalance(i int32) int32 {
	t.reheight(i)
	switch bf := t.height(t.nodes[i].left) - t.height(t.nodes[i].right); {
	case bf > 1:
		l := t.nodes[i].left
		if t.height(t.nodes[l].left) < t.height(t.nodes[l].right) {
			t.nodes[i].left = t.rotateLeft(l)
		}
		return t.rotateRight(i)
	case bf < -1:
		r := t.nodes[i].right
		if t.height(t.nodes[r].right) < t.height(t.nodes[r].left) {
			t.nodes[i].right = t.rotateRight(r)
		}
		return t.rotateLeft(i)
	}
	return i
}

func (t *tree[K, V]) insert(e *entry[K, V]) {
	t.root = t.insertAt(t.root, e)
	t.size++
}

func (t *tree[K, V]) insertAt(i int32, e *entry[K, V]) int32 {
	if i == nilNode {
		return t.alloc(e)
	}
	if entryLess(e, t.nodes[i].e) {
		left := t.insertAt(t.nodes[i].left, e)
		t.nodes[i].left = left
	} else {
		right := t.insertAt(t.nodes[i].right, e)
		t.nodes[i].right = right
	}
	return t.rebalance(i)
}

// find locates the entry whose key matches under the equivalence predicate.
// The hash narrows the descent; once a node with an equal hash is reached,
// matching entries may sit in either subtree (equal hashes differ only in
// their sequence numbers, which the caller does not know), so both sides are
// searched. Cost is O(log n) plus the size of the equal-hash cluster.
func (t *tree[K, V]) find(hash uint64, key K, equal func(a, b K) bool) *entry[K, V] {
	return t.findAt(t.root, hash, key, equal)
}

func (t *tree[K, V]) findAt(i int32, hash uint64, key K, equal func(a, b K) bool) *entry[K, V] {
	if i == nilNode {
		return nil
	}
	e := t.nodes[i].e
	if hash < e.hash {
		return t.findAt(t.nodes[i].left, hash, key, equal)
	}
	if hash > e.hash {
		return t.findAt(t.nodes[i].right, hash, key, equal)
	}
	if equal(e.key, key) {
		return e
	}
	if found := t.findAt(t.nodes[i].left, hash, key, equal); found != nil {
		return found
	}
	return t.findAt(t.nodes[i].right, hash, key, equal)
}

// delete unlinks e, which must be an entry previously returned by find.
func (t *tree[K, V]) delete(e *entry[K, V]) {
	t.root = t.deleteAt(t.root, e.hash, e.seq)
	t.size--
}

func (t *tree[K, V]) deleteAt(i int32, hash, seq uint64) int32 {
	if i == nilNode {
		panic("treetable: entry missing from tree bucket")
	}
	e := t.nodes[i].e
	switch {
	case hash < e.hash || (hash == e.hash && seq < e.seq):
		left := t.deleteAt(t.nodes[i].left, hash, seq)
		t.nodes[i].left = left
	case e.hash < hash || (e.hash == hash && e.seq < seq):
		right := t.deleteAt(t.nodes[i].right, hash, seq)
		t.nodes[i].right = right
	default:
		l, r := t.nodes[i].left, t.nodes[i].right
		if l == nilNode || r == nilNode {
			child := l
			if child == nilNode {
				child = r
			}
			t.release(i)
			return child
		}
		// Two children: adopt the in-order successor's entry, then delete
		// the successor node from the right subtree.
		s := t.minOf(r)
		se := t.nodes[s].e
		t.nodes[i].e = se
		right := t.deleteAt(r, se.hash, se.seq)
		t.nodes[i].right = right
	}
	return t.rebalance(i)
}

func (t *tree[K, V]) minOf(i int32) int32 {
	for t.nodes[i].left != nilNode {
		i = t.nodes[i].left
	}
	return i
}

// appendEntries appends the tree's entries to dst in (hash, seq) order.
func (t *tree[K, V]) appendEntries(dst []*entry[K, V]) []*entry[K, V] {
	return t.appendAt(t.root, dst)
}

func (t *tree[K, V]) appendAt(i int32, dst []*entry[K, V]) []*entry[K, V] {
	if i == nilNode {
		return dst
	}
	dst = t.appendAt(t.nodes[i].left, dst)
	dst = append(dst, t.nodes[i].e)
	return t.appendAt(t.nodes[i].right, dst)
}
