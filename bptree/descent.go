package bptree

import (
	"fmt"

	"github.com/ryogrid/go-bplustree-index/bptree/page"
	"github.com/ryogrid/go-bplustree-index/bufferpool"
	"github.com/ryogrid/go-bplustree-index/pageid"
)

// descendRead walks from the root to the leaf that would hold key,
// holding only a single read latch at a time: once a child is latched,
// its parent is released immediately. The caller owns the returned
// guard and must Release it.
func (t *Tree) descendRead(key []byte) (bufferpool.ReadGuard, error) {
	hg, err := t.pool.FetchRead(t.headerPageID)
	if err != nil {
		return nil, fmt.Errorf("bptree: fetch header: %w", err)
	}
	root := page.NewHeader(hg.Data()).RootPageID()
	hg.Release()
	if !root.IsValid() {
		return nil, ErrKeyNotFound
	}

	cur, err := t.pool.FetchRead(root)
	if err != nil {
		return nil, fmt.Errorf("bptree: fetch root: %w", err)
	}
	for {
		if page.KindOf(cur.Data()) == page.KindLeaf {
			return cur, nil
		}
		ip := page.NewInternal(cur.Data(), t.layout)
		idx := internalRouteImpl(ip, key, t.cmp)
		childID := ip.ChildAt(idx)
		child, err := t.pool.FetchRead(childID)
		if err != nil {
			cur.Release()
			return nil, fmt.Errorf("bptree: fetch child: %w", err)
		}
		cur.Release()
		cur = child
	}
}

// ancestor is one write-latched page held while descending for a
// mutation, kept around only until the node below it is proven safe.
type ancestor struct {
	id pageid.PageID
	wg bufferpool.WriteGuard
}

// writeDescent tracks the write latches held during an insert or
// remove. headerGuard and any entry in ancestors still held when the
// leaf is reached means propagation (split or merge) may need to walk
// back up through them.
type writeDescent struct {
	pool        bufferpool.Manager
	headerGuard bufferpool.WriteGuard
	root        pageid.PageID
	ancestors   []ancestor
	leafID      pageid.PageID
	leafGuard   bufferpool.WriteGuard
}

// releaseAncestors drops every guard still held except the leaf guard,
// LIFO (child latches were acquired after parent latches, so they
// release first).
func (d *writeDescent) releaseAncestors() {
	for i := len(d.ancestors) - 1; i >= 0; i-- {
		d.ancestors[i].wg.Release()
	}
	d.ancestors = nil
	if d.headerGuard != nil {
		d.headerGuard.Release()
		d.headerGuard = nil
	}
}

// releaseAll releases everything, including the leaf guard.
func (d *writeDescent) releaseAll() {
	if d.leafGuard != nil {
		d.leafGuard.Release()
		d.leafGuard = nil
	}
	d.releaseAncestors()
}

// safeFn decides whether the node just write-latched is "safe": an
// ancestor held above a safe node can never be needed for propagation,
// so it is released immediately.
type safeFn func(data []byte) bool

func (t *Tree) safeForInsert(data []byte) bool {
	if page.KindOf(data) == page.KindLeaf {
		return isSafeLeafForInsert(page.NewLeaf(data, t.layout))
	}
	return isSafeInternalForInsert(page.NewInternal(data, t.layout))
}

func (t *Tree) safeForDelete(data []byte) bool {
	if page.KindOf(data) == page.KindLeaf {
		return t.isSafeLeafForDelete(page.NewLeaf(data, t.layout))
	}
	return t.isSafeInternalForDelete(page.NewInternal(data, t.layout))
}

// safeRootForDelete applies the root's looser underflow exemption,
// used only for the pre-descent root safety test: insert has no such
// exemption, so it reuses safeForInsert directly there.
func (t *Tree) safeRootForDelete(data []byte) bool {
	if page.KindOf(data) == page.KindLeaf {
		return t.isSafeRootLeafForDelete(page.NewLeaf(data, t.layout))
	}
	return t.isSafeRootInternalForDelete(page.NewInternal(data, t.layout))
}

// descendWrite performs the shared latch-crabbing walk for insert and
// remove, deciding safety with isSafe; isSafeRoot is consulted only for
// the one-time pre-descent test on the root page itself, since a root's
// safety threshold can differ from every other page's (remove exempts
// the root from the ordinary min_size floor). The header page is
// write-latched first, since a root split/collapse mutates it; it is
// released as soon as the root page has been latched and found safe, or
// otherwise together with the other ancestors (releaseAncestors) once a
// page below the root is found safe.
func (t *Tree) descendWrite(key []byte, isSafe, isSafeRoot safeFn) (*writeDescent, error) {
	hg, err := t.pool.FetchWrite(t.headerPageID)
	if err != nil {
		return nil, fmt.Errorf("bptree: fetch header: %w", err)
	}
	root := page.NewHeader(hg.Data()).RootPageID()
	d := &writeDescent{pool: t.pool, headerGuard: hg, root: root}

	if !root.IsValid() {
		return d, nil
	}

	cur, err := t.pool.FetchWrite(root)
	if err != nil {
		d.releaseAll()
		return nil, fmt.Errorf("bptree: fetch root: %w", err)
	}
	curID := root

	// The root itself has no ancestor besides the header; if it is
	// already safe, the header can be dropped before any child is even
	// looked at.
	if isSafeRoot(cur.Data()) {
		d.headerGuard.Release()
		d.headerGuard = nil
	}

	for {
		if page.KindOf(cur.Data()) == page.KindLeaf {
			d.leafID = curID
			d.leafGuard = cur
			return d, nil
		}
		ip := page.NewInternal(cur.Data(), t.layout)
		idx := internalRouteImpl(ip, key, t.cmp)
		childID := ip.ChildAt(idx)

		child, err := t.pool.FetchWrite(childID)
		if err != nil {
			cur.Release()
			d.releaseAncestors()
			return nil, fmt.Errorf("bptree: fetch child: %w", err)
		}

		// Latch acquired child-before-ancestor-release: only now, with
		// the child already write-latched, do we decide whether cur
		// (and everything still held above it) can be dropped.
		if isSafe(child.Data()) {
			d.releaseAncestors()
			cur.Release()
		} else {
			d.ancestors = append(d.ancestors, ancestor{id: curID, wg: cur})
		}
		cur = child
		curID = childID
	}
}
