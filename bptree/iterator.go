package bptree

import (
	"fmt"

	"github.com/ryogrid/go-bplustree-index/bptree/page"
	"github.com/ryogrid/go-bplustree-index/bufferpool"
	"github.com/ryogrid/go-bplustree-index/pageid"
)

// Iterator walks the leaf chain in key order. It holds a read guard on
// at most one leaf at a time, released before advancing to the next.
type Iterator struct {
	tree   *Tree
	guard  bufferpool.ReadGuard
	leaf   page.Leaf
	idx    int
	closed bool
}

// Begin returns an iterator positioned at the tree's first key.
func (t *Tree) Begin() (*Iterator, error) {
	return t.beginDescend(nil, false)
}

// BeginAt returns an iterator positioned at the first key >= key.
func (t *Tree) BeginAt(key []byte) (*Iterator, error) {
	return t.beginDescend(key, true)
}

// End returns an already-exhausted iterator, for range loops written as
// `for it := t.Begin(); it != t.End(); it.Next()`-style comparisons are
// not meaningful across instances; End exists so callers have an
// explicit terminal value to check Valid() against without special
// casing.
func (t *Tree) End() *Iterator {
	return &Iterator{tree: t, closed: true}
}

func (t *Tree) beginDescend(key []byte, byKey bool) (*Iterator, error) {
	hg, err := t.pool.FetchRead(t.headerPageID)
	if err != nil {
		return nil, fmt.Errorf("bptree: fetch header: %w", err)
	}
	root := page.NewHeader(hg.Data()).RootPageID()
	hg.Release()
	if !root.IsValid() {
		return t.End(), nil
	}

	cur, err := t.pool.FetchRead(root)
	if err != nil {
		return nil, fmt.Errorf("bptree: fetch root: %w", err)
	}
	for page.KindOf(cur.Data()) != page.KindLeaf {
		ip := page.NewInternal(cur.Data(), t.layout)
		var childID pageid.PageID
		if byKey {
			childID = ip.ChildAt(internalRouteImpl(ip, key, t.cmp))
		} else {
			childID = ip.ChildAt(0)
		}
		child, err := t.pool.FetchRead(childID)
		if err != nil {
			cur.Release()
			return nil, fmt.Errorf("bptree: fetch child: %w", err)
		}
		cur.Release()
		cur = child
	}

	lp := page.NewLeaf(cur.Data(), t.layout)
	idx := 0
	if byKey {
		idx = t.leafLowerBound(lp, key)
	}
	it := &Iterator{tree: t, guard: cur, leaf: lp, idx: idx}
	it.skipToValid()
	return it, nil
}

// skipToValid advances across empty/exhausted leaves until it or
// positioned on a real entry, or the chain ends.
func (it *Iterator) skipToValid() {
	for !it.closed && it.idx >= it.leaf.Size() {
		next := it.leaf.NextPageID()
		it.guard.Release()
		it.guard = nil
		if !next.IsValid() {
			it.closed = true
			return
		}
		g, err := it.tree.pool.FetchRead(next)
		if err != nil {
			it.closed = true
			return
		}
		it.guard = g
		it.leaf = page.NewLeaf(g.Data(), it.tree.layout)
		it.idx = 0
	}
}

// Valid reports whether the iterator is positioned on a live entry.
func (it *Iterator) Valid() bool {
	return !it.closed
}

// Key returns the current entry's key. Valid must be true.
func (it *Iterator) Key() []byte {
	return append([]byte{}, it.leaf.KeyAt(it.idx)...)
}

// Value returns the current entry's value. Valid must be true.
func (it *Iterator) Value() []byte {
	return append([]byte{}, it.leaf.ValueAt(it.idx)...)
}

// Next advances to the following entry.
func (it *Iterator) Next() error {
	if it.closed {
		return nil
	}
	it.idx++
	it.skipToValid()
	return nil
}

// Close releases any guard the iterator is holding. Safe to call more
// than once, and safe to skip if the iterator already ran to exhaustion.
func (it *Iterator) Close() {
	if it.guard != nil {
		it.guard.Release()
		it.guard = nil
	}
	it.closed = true
}
