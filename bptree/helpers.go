package bptree

import (
	"github.com/ryogrid/go-bplustree-index/bptree/page"
	"github.com/ryogrid/go-bplustree-index/bptree/search"
)

func leafLowerBoundImpl(lp page.Leaf, key []byte, cmp Comparator) int {
	return search.LeafLowerBound(lp.Size(), lp.KeyAt, key, search.Cmp(cmp))
}

func internalRouteImpl(ip page.Internal, key []byte, cmp Comparator) int {
	return search.InternalRoute(ip.Size(), ip.KeyAt, key, search.Cmp(cmp))
}

// A page is safe for insert if it has room for one more entry without
// needing to split, i.e. without reaching the size that triggers the
// split in Insert/insertIntoParent.
func isSafeLeafForInsert(lp page.Leaf) bool {
	return lp.Size() < lp.MaxSize()-1
}

func isSafeInternalForInsert(ip page.Internal) bool {
	return ip.Size() < ip.MaxSize()-1
}

func (t *Tree) isSafeLeafForDelete(lp page.Leaf) bool {
	return lp.Size() > t.leafMinSize()
}

func (t *Tree) isSafeInternalForDelete(ip page.Internal) bool {
	return ip.Size() > t.internalMinSize()
}

// The root is exempt from the ordinary min_size floor: a root leaf may
// legally hold as few as one entry, and a root internal page may hold
// as few as two children, without triggering underflow handling. These
// looser thresholds are used only for the root pre-test that decides
// whether the header latch can be released before descent begins.
func (t *Tree) isSafeRootLeafForDelete(lp page.Leaf) bool {
	return lp.Size() > 1
}

func (t *Tree) isSafeRootInternalForDelete(ip page.Internal) bool {
	return ip.Size() > 2
}
