package bptree

import (
	"fmt"

	"github.com/ryogrid/go-bplustree-index/bptree/page"
	"github.com/ryogrid/go-bplustree-index/bufferpool"
	"github.com/ryogrid/go-bplustree-index/pageid"
)

// Insert adds key/value to the tree. It returns ErrDuplicateKey if key
// is already present.
func (t *Tree) Insert(key, value []byte) error {
	d, err := t.descendWrite(key, t.safeForInsert, t.safeForInsert)
	if err != nil {
		return err
	}

	if !d.root.IsValid() {
		return t.insertIntoEmptyTree(d, key, value)
	}

	lp := page.NewLeaf(d.leafGuard.DataMut(), t.layout)
	idx := t.leafLowerBound(lp, key)
	assert(idx >= 0 && idx <= lp.Size(), "leaf lower bound out of range")
	if idx < lp.Size() && t.cmp(lp.KeyAt(idx), key) == 0 {
		d.releaseAll()
		return ErrDuplicateKey
	}

	if lp.Size() < lp.MaxSize()-1 {
		lp.InsertAt(idx, key, value)
		d.releaseAll()
		return nil
	}

	return t.splitLeafAndInsertIntoParent(d, lp, idx, key, value)
}

func (t *Tree) insertIntoEmptyTree(d *writeDescent, key, value []byte) error {
	wg, id, err := t.pool.NewPage()
	if err != nil {
		d.releaseAll()
		return fmt.Errorf("bptree: allocate root leaf: %w", err)
	}
	lp := page.NewLeaf(wg.DataMut(), t.layout)
	lp.Init()
	lp.InsertAt(0, key, value)
	wg.Release()

	page.NewHeader(d.headerGuard.DataMut()).SetRootPageID(id)
	d.releaseAll()
	t.log.Debug("bptree: created root leaf", "index", t.name, "page", id.String())
	return nil
}

// splitLeafAndInsertIntoParent splits a full leaf to make room for
// key/value, then propagates the new right sibling's separator key up
// through the ancestors held in d.
func (t *Tree) splitLeafAndInsertIntoParent(d *writeDescent, lp page.Leaf, insertIdx int, key, value []byte) error {
	n := lp.Size()
	type kv struct {
		key, value []byte
	}
	merged := make([]kv, 0, n+1)
	for i := 0; i < n; i++ {
		if i == insertIdx {
			merged = append(merged, kv{key, value})
		}
		merged = append(merged, kv{append([]byte{}, lp.KeyAt(i)...), append([]byte{}, lp.ValueAt(i)...)})
	}
	if insertIdx == n {
		merged = append(merged, kv{key, value})
	}

	leftCount := len(merged) / 2

	rwg, rightID, err := t.pool.NewPage()
	if err != nil {
		d.leafGuard.Release()
		d.releaseAncestors()
		return fmt.Errorf("bptree: allocate split leaf: %w", err)
	}
	rp := page.NewLeaf(rwg.DataMut(), t.layout)
	rp.Init()
	for i := leftCount; i < len(merged); i++ {
		rp.InsertAt(rp.Size(), merged[i].key, merged[i].value)
	}
	rp.SetNextPageID(lp.NextPageID())

	lp.SetSize(0)
	for i := 0; i < leftCount; i++ {
		lp.InsertAt(i, merged[i].key, merged[i].value)
	}
	lp.SetNextPageID(rightID)

	splitKey := append([]byte{}, rp.KeyAt(0)...)
	rwg.Release()
	leftID := d.leafID
	d.leafGuard.Release()
	d.leafGuard = nil

	t.log.Debug("bptree: split leaf", "index", t.name, "left_size", lp.Size(), "right_size", rp.Size())
	return t.insertIntoParent(d, leftID, splitKey, rightID)
}

// insertIntoParent attaches rightID (with separator key) as the new
// sibling of leftID in leftID's parent, recursing into
// splitInternalAndRecurse if the parent is itself full, or creating a
// new root if leftID had no parent (it was the root). The caller must
// have already released leftID's own guard.
func (t *Tree) insertIntoParent(d *writeDescent, leftID pageid.PageID, key []byte, rightID pageid.PageID) error {
	if len(d.ancestors) == 0 {
		wg, newRootID, err := t.pool.NewPage()
		if err != nil {
			d.releaseAncestors()
			return fmt.Errorf("bptree: allocate new root: %w", err)
		}
		ip := page.NewInternal(wg.DataMut(), t.layout)
		ip.InitAsRoot(key, leftID, rightID)
		wg.Release()

		page.NewHeader(d.headerGuard.DataMut()).SetRootPageID(newRootID)
		d.headerGuard.Release()
		d.headerGuard = nil
		t.log.Debug("bptree: created new root", "index", t.name, "page", newRootID.String())
		return nil
	}

	n := len(d.ancestors)
	parent := d.ancestors[n-1]
	d.ancestors = d.ancestors[:n-1]

	ip := page.NewInternal(parent.wg.DataMut(), t.layout)
	idx := internalRouteImpl(ip, key, t.cmp)

	if ip.Size() < ip.MaxSize()-1 {
		ip.InsertAt(idx+1, key, rightID)
		parent.wg.Release()
		d.releaseAncestors()
		return nil
	}

	return t.splitInternalAndRecurse(d, parent.id, parent.wg, ip, idx+1, key, rightID)
}

// splitInternalAndRecurse splits a full internal page (backed by wg)
// after logically inserting (key, rightChild) at position insertIdx,
// then recurses into insertIntoParent with the new right internal page.
func (t *Tree) splitInternalAndRecurse(d *writeDescent, id pageid.PageID, wg bufferpool.WriteGuard, ip page.Internal, insertIdx int, key []byte, rightChild pageid.PageID) error {
	oldSize := ip.Size()
	keys := make([][]byte, 0, oldSize+1)
	children := make([]pageid.PageID, 0, oldSize+2)

	children = append(children, ip.ChildAt(0))
	for i := 1; i <= oldSize; i++ {
		if i == insertIdx {
			keys = append(keys, append([]byte{}, key...))
			children = append(children, rightChild)
		}
		keys = append(keys, append([]byte{}, ip.KeyAt(i)...))
		children = append(children, ip.ChildAt(i))
	}
	if insertIdx > oldSize {
		keys = append(keys, append([]byte{}, key...))
		children = append(children, rightChild)
	}

	leftKeyCount := len(keys) / 2

	rwg, rightID, err := t.pool.NewPage()
	if err != nil {
		wg.Release()
		d.releaseAncestors()
		return fmt.Errorf("bptree: allocate split internal: %w", err)
	}
	// Left keeps keys[0:leftKeyCount] and children[0:leftKeyCount+1].
	// keys[leftKeyCount] is promoted to the parent as the new separator
	// between left's last child and right's first child; it is not
	// stored in either page's key array.
	rp := page.NewInternal(rwg.DataMut(), t.layout)
	rp.Init()
	rightFirstChild := leftKeyCount + 1
	rightKeyCount := len(keys) - leftKeyCount - 1
	rp.SetChildAt(0, children[rightFirstChild])
	for i := rightFirstChild; i < len(keys); i++ {
		rp.SetKeyAt(i-rightFirstChild+1, keys[i])
		rp.SetChildAt(i-rightFirstChild+1, children[i+1])
	}
	rp.SetSize(rightKeyCount)

	ip.SetChildAt(0, children[0])
	for i := 0; i < leftKeyCount; i++ {
		ip.SetKeyAt(i+1, keys[i])
		ip.SetChildAt(i+1, children[i+1])
	}
	ip.SetSize(leftKeyCount)

	upKey := append([]byte{}, keys[leftKeyCount]...)
	assert(ip.Size()+rp.Size()+1 == len(keys), "internal split lost or duplicated a key")
	rwg.Release()
	wg.Release()

	t.log.Debug("bptree: split internal", "index", t.name, "left_size", ip.Size(), "right_size", rp.Size())
	return t.insertIntoParent(d, id, upKey, rightID)
}
