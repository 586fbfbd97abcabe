package bptree

import (
	"fmt"

	"github.com/ryogrid/go-bplustree-index/bptree/page"
	"github.com/ryogrid/go-bplustree-index/pageid"
)

// Remove deletes key from the tree, returning ErrKeyNotFound if it is
// absent.
func (t *Tree) Remove(key []byte) error {
	d, err := t.descendWrite(key, t.safeForDelete, t.safeRootForDelete)
	if err != nil {
		return err
	}

	if !d.root.IsValid() {
		d.releaseAll()
		return ErrKeyNotFound
	}

	lp := page.NewLeaf(d.leafGuard.DataMut(), t.layout)
	idx := t.leafLowerBound(lp, key)
	if idx >= lp.Size() || t.cmp(lp.KeyAt(idx), key) != 0 {
		d.releaseAll()
		return ErrKeyNotFound
	}
	lp.RemoveAt(idx)

	if len(d.ancestors) == 0 {
		if lp.Size() == 0 {
			d.leafGuard.Release()
			d.leafGuard = nil
			t.pool.FreePage(d.leafID)
			page.NewHeader(d.headerGuard.DataMut()).SetRootPageID(pageid.Invalid)
		}
		d.releaseAll()
		return nil
	}

	if lp.Size() >= t.leafMinSize() {
		d.releaseAll()
		return nil
	}

	return t.handleLeafUnderflow(d, lp)
}

func findChildIndex(ip page.Internal, childID pageid.PageID) (int, error) {
	for i := 0; i <= ip.Size(); i++ {
		if ip.ChildAt(i) == childID {
			return i, nil
		}
	}
	return -1, fmt.Errorf("child %s not found in parent", childID)
}

// handleLeafUnderflow resolves an under-full leaf by borrowing from, or
// merging with, a sibling, preferring the right sibling over the left.
func (t *Tree) handleLeafUnderflow(d *writeDescent, lp page.Leaf) error {
	n := len(d.ancestors)
	parent := d.ancestors[n-1]
	d.ancestors = d.ancestors[:n-1]
	pip := page.NewInternal(parent.wg.DataMut(), t.layout)

	childIdx, err := findChildIndex(pip, d.leafID)
	if err != nil {
		d.leafGuard.Release()
		parent.wg.Release()
		d.releaseAncestors()
		return fmt.Errorf("bptree: %w", err)
	}

	if childIdx < pip.Size() {
		rightID := pip.ChildAt(childIdx + 1)
		rsg, err := t.pool.FetchWrite(rightID)
		if err != nil {
			d.leafGuard.Release()
			parent.wg.Release()
			d.releaseAncestors()
			return fmt.Errorf("bptree: fetch right sibling: %w", err)
		}
		rp := page.NewLeaf(rsg.DataMut(), t.layout)

		if lp.Size()+rp.Size() <= lp.MaxSize()-1 {
			lp.CopyRangeFrom(rp, 0, rp.Size())
			lp.SetNextPageID(rp.NextPageID())
			rsg.Release()
			t.pool.FreePage(rightID)
			d.leafGuard.Release()
			d.leafGuard = nil
			t.log.Debug("bptree: merged leaf with right sibling", "index", t.name)
			return t.removeFromParent(d, parent, childIdx+1)
		}

		bk := append([]byte{}, rp.KeyAt(0)...)
		bv := append([]byte{}, rp.ValueAt(0)...)
		rp.RemoveAt(0)
		lp.InsertAt(lp.Size(), bk, bv)
		pip.SetKeyAt(childIdx+1, append([]byte{}, rp.KeyAt(0)...))
		rsg.Release()
		d.leafGuard.Release()
		d.leafGuard = nil
		parent.wg.Release()
		d.releaseAncestors()
		return nil
	}

	leftID := pip.ChildAt(childIdx - 1)
	lsg, err := t.pool.FetchWrite(leftID)
	if err != nil {
		d.leafGuard.Release()
		parent.wg.Release()
		d.releaseAncestors()
		return fmt.Errorf("bptree: fetch left sibling: %w", err)
	}
	leftp := page.NewLeaf(lsg.DataMut(), t.layout)

	if leftp.Size()+lp.Size() <= lp.MaxSize()-1 {
		leftp.CopyRangeFrom(lp, 0, lp.Size())
		leftp.SetNextPageID(lp.NextPageID())
		lsg.Release()
		d.leafGuard.Release()
		d.leafGuard = nil
		t.pool.FreePage(d.leafID)
		t.log.Debug("bptree: merged leaf into left sibling", "index", t.name)
		return t.removeFromParent(d, parent, childIdx)
	}

	bi := leftp.Size() - 1
	bk := append([]byte{}, leftp.KeyAt(bi)...)
	bv := append([]byte{}, leftp.ValueAt(bi)...)
	leftp.RemoveAt(bi)
	lp.InsertAt(0, bk, bv)
	pip.SetKeyAt(childIdx, bk)
	lsg.Release()
	d.leafGuard.Release()
	d.leafGuard = nil
	parent.wg.Release()
	d.releaseAncestors()
	return nil
}

// removeFromParent removes the key/child pair at removeIdx (the
// disappearing side of a just-completed merge) from parent, then
// checks parent itself for underflow, recursing up through
// handleInternalUnderflow or collapsing the root as needed.
func (t *Tree) removeFromParent(d *writeDescent, parent ancestor, removeIdx int) error {
	pip := page.NewInternal(parent.wg.DataMut(), t.layout)
	pip.RemoveAt(removeIdx)

	if len(d.ancestors) == 0 {
		if pip.Size() == 0 {
			onlyChild := pip.ChildAt(0)
			parent.wg.Release()
			t.pool.FreePage(parent.id)
			page.NewHeader(d.headerGuard.DataMut()).SetRootPageID(onlyChild)
			t.log.Debug("bptree: collapsed root", "index", t.name, "page", parent.id.String())
		} else {
			parent.wg.Release()
		}
		d.releaseAll()
		return nil
	}

	if pip.Size() >= t.internalMinSize() {
		parent.wg.Release()
		d.releaseAncestors()
		return nil
	}

	return t.handleInternalUnderflow(d, parent, pip)
}

// handleInternalUnderflow is handleLeafUnderflow's counterpart for
// internal pages. Borrowing across siblings has to thread the separator
// key through the grandparent rather than copy it verbatim, since an
// internal page's slot-0 key is never used: the key value that moves
// into the gaining page comes from the grandparent's current separator,
// and the key promoted back up to the grandparent comes from the
// donating page's own boundary key, captured before it is overwritten
// or shifted away.
func (t *Tree) handleInternalUnderflow(d *writeDescent, self ancestor, ip page.Internal) error {
	n := len(d.ancestors)
	parent := d.ancestors[n-1]
	d.ancestors = d.ancestors[:n-1]
	pip := page.NewInternal(parent.wg.DataMut(), t.layout)

	childIdx, err := findChildIndex(pip, self.id)
	if err != nil {
		self.wg.Release()
		parent.wg.Release()
		d.releaseAncestors()
		return fmt.Errorf("bptree: %w", err)
	}

	if childIdx < pip.Size() {
		rightID := pip.ChildAt(childIdx + 1)
		rsg, err := t.pool.FetchWrite(rightID)
		if err != nil {
			self.wg.Release()
			parent.wg.Release()
			d.releaseAncestors()
			return fmt.Errorf("bptree: fetch right sibling: %w", err)
		}
		rp := page.NewInternal(rsg.DataMut(), t.layout)
		sep := append([]byte{}, pip.KeyAt(childIdx+1)...)

		if ip.Size()+1+rp.Size() <= ip.MaxSize()-1 {
			m := ip.Size()
			ip.SetKeyAt(m+1, sep)
			ip.SetChildAt(m+1, rp.ChildAt(0))
			for i := 1; i <= rp.Size(); i++ {
				ip.SetKeyAt(m+1+i, rp.KeyAt(i))
				ip.SetChildAt(m+1+i, rp.ChildAt(i))
			}
			ip.SetSize(m + 1 + rp.Size())
			rsg.Release()
			t.pool.FreePage(rightID)
			self.wg.Release()
			t.log.Debug("bptree: merged internal with right sibling", "index", t.name)
			return t.removeFromParent(d, parent, childIdx+1)
		}

		m := ip.Size()
		movedChild := rp.ChildAt(0)
		ip.SetKeyAt(m+1, sep)
		ip.SetChildAt(m+1, movedChild)
		ip.SetSize(m + 1)

		newSep := append([]byte{}, rp.KeyAt(1)...)
		k := rp.Size()
		for i := 1; i < k; i++ {
			rp.SetKeyAt(i, rp.KeyAt(i+1))
		}
		for i := 0; i < k; i++ {
			rp.SetChildAt(i, rp.ChildAt(i+1))
		}
		rp.SetSize(k - 1)

		pip.SetKeyAt(childIdx+1, newSep)
		rsg.Release()
		self.wg.Release()
		parent.wg.Release()
		d.releaseAncestors()
		return nil
	}

	leftID := pip.ChildAt(childIdx - 1)
	lsg, err := t.pool.FetchWrite(leftID)
	if err != nil {
		self.wg.Release()
		parent.wg.Release()
		d.releaseAncestors()
		return fmt.Errorf("bptree: fetch left sibling: %w", err)
	}
	lip := page.NewInternal(lsg.DataMut(), t.layout)
	sep := append([]byte{}, pip.KeyAt(childIdx)...)

	if lip.Size()+1+ip.Size() <= ip.MaxSize()-1 {
		m := lip.Size()
		lip.SetKeyAt(m+1, sep)
		lip.SetChildAt(m+1, ip.ChildAt(0))
		for i := 1; i <= ip.Size(); i++ {
			lip.SetKeyAt(m+1+i, ip.KeyAt(i))
			lip.SetChildAt(m+1+i, ip.ChildAt(i))
		}
		lip.SetSize(m + 1 + ip.Size())
		lsg.Release()
		self.wg.Release()
		t.pool.FreePage(self.id)
		t.log.Debug("bptree: merged internal into left sibling", "index", t.name)
		return t.removeFromParent(d, parent, childIdx)
	}

	m := lip.Size()
	movedChild := lip.ChildAt(m)
	c := ip.Size()
	for i := c; i >= 1; i-- {
		ip.SetKeyAt(i+1, ip.KeyAt(i))
	}
	for i := c; i >= 0; i-- {
		ip.SetChildAt(i+1, ip.ChildAt(i))
	}
	ip.SetChildAt(0, movedChild)
	ip.SetKeyAt(1, sep)
	ip.SetSize(c + 1)

	newParentSep := append([]byte{}, lip.KeyAt(m)...)
	lip.SetSize(m - 1)

	pip.SetKeyAt(childIdx, newParentSep)
	lsg.Release()
	self.wg.Release()
	parent.wg.Release()
	d.releaseAncestors()
	return nil
}
