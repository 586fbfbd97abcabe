package bptree

import "github.com/ryogrid/go-bplustree-index/bptree/page"

// The methods below expose just enough of a Tree's configuration and
// page-view construction for internal/verify's invariant walker to
// operate without reaching into unexported fields across the package
// boundary.

// LeafView wraps data as a Leaf view using this tree's layout.
func (t *Tree) LeafView(data []byte) page.Leaf {
	return page.NewLeaf(data, t.layout)
}

// InternalView wraps data as an Internal view using this tree's layout.
func (t *Tree) InternalView(data []byte) page.Internal {
	return page.NewInternal(data, t.layout)
}

// Compare exposes the tree's key comparator.
func (t *Tree) Compare(a, b []byte) int {
	return t.cmp(a, b)
}

// LeafMinSize returns the minimum number of entries a non-root leaf
// must hold.
func (t *Tree) LeafMinSize() int { return t.leafMinSize() }

// InternalMinSize returns the minimum number of keys a non-root
// internal page must hold.
func (t *Tree) InternalMinSize() int { return t.internalMinSize() }
