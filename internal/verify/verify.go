// Package verify implements a whole-tree invariant walker used by tests
// and by the demo harness to catch structural corruption early rather
// than as a garbled lookup result later.
package verify

import (
	"fmt"

	"github.com/ryogrid/go-bplustree-index/bptree"
	"github.com/ryogrid/go-bplustree-index/bptree/page"
	"github.com/ryogrid/go-bplustree-index/bufferpool"
	"github.com/ryogrid/go-bplustree-index/pageid"
)

// Options controls which checks Walk performs. All default to enabled
// (the zero value runs every check).
type Options struct {
	SkipLeafOrdering    bool
	SkipFanOutBounds    bool
	SkipRouting         bool
	SkipUniformDepth    bool
}

// Walk traverses every page reachable from tree's root and checks:
//  1. leaf key ordering (strictly increasing within and across leaves)
//  2. every non-root page's fan-out is within [min_size, max_size]
//  3. every internal separator correctly routes to the subtree holding it
//  4. every leaf sits at the same depth from the root
//
// It returns bptree.ErrInvariantViolation wrapping a description of the
// first violation found, or nil if the tree is consistent.
func Walk(tree *bptree.Tree, pool bufferpool.Manager, opts Options) error {
	root, err := tree.RootPageID()
	if err != nil {
		return fmt.Errorf("verify: read root: %w", err)
	}
	if !root.IsValid() {
		return nil
	}

	var leafDepth = -1
	var lastKey []byte
	var lastKeySet bool

	var walk func(id pageid.PageID, depth int) error
	walk = func(id pageid.PageID, depth int) error {
		g, err := pool.FetchRead(id)
		if err != nil {
			return fmt.Errorf("verify: fetch %s: %w", id, err)
		}
		defer g.Release()

		if page.KindOf(g.Data()) == page.KindLeaf {
			lp := tree.LeafView(g.Data())
			if !opts.SkipUniformDepth {
				if leafDepth == -1 {
					leafDepth = depth
				} else if leafDepth != depth {
					return fmt.Errorf("%w: leaf %s at depth %d, expected %d", bptree.ErrInvariantViolation, id, depth, leafDepth)
				}
			}
			if !opts.SkipFanOutBounds && depth > 0 && lp.Size() < tree.LeafMinSize() {
				return fmt.Errorf("%w: leaf %s underfull (%d < %d)", bptree.ErrInvariantViolation, id, lp.Size(), tree.LeafMinSize())
			}
			if lp.Size() > lp.MaxSize() {
				return fmt.Errorf("%w: leaf %s overfull (%d > %d)", bptree.ErrInvariantViolation, id, lp.Size(), lp.MaxSize())
			}
			if !opts.SkipLeafOrdering {
				for i := 0; i < lp.Size(); i++ {
					k := lp.KeyAt(i)
					if lastKeySet && tree.Compare(lastKey, k) >= 0 {
						return fmt.Errorf("%w: leaf %s out of order at slot %d", bptree.ErrInvariantViolation, id, i)
					}
					lastKey = append([]byte{}, k...)
					lastKeySet = true
				}
			}
			return nil
		}

		ip := tree.InternalView(g.Data())
		if !opts.SkipFanOutBounds && depth > 0 && ip.Size() < tree.InternalMinSize() {
			return fmt.Errorf("%w: internal %s underfull (%d < %d)", bptree.ErrInvariantViolation, id, ip.Size(), tree.InternalMinSize())
		}
		if ip.Size() > ip.MaxSize() {
			return fmt.Errorf("%w: internal %s overfull (%d > %d)", bptree.ErrInvariantViolation, id, ip.Size(), ip.MaxSize())
		}
		for i := 0; i <= ip.Size(); i++ {
			if !opts.SkipRouting && i > 0 {
				min, err := minKey(pool, tree, ip.ChildAt(i))
				if err != nil {
					return err
				}
				if min != nil && tree.Compare(min, ip.KeyAt(i)) < 0 {
					return fmt.Errorf("%w: internal %s separator %d misroutes (child min < separator)", bptree.ErrInvariantViolation, id, i)
				}
			}
			if err := walk(ip.ChildAt(i), depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	return walk(root, 0)
}

// minKey returns the minimum key reachable under id, recursing down the
// leftmost child of internal pages, or nil if the subtree is empty.
func minKey(pool bufferpool.Manager, tree *bptree.Tree, id pageid.PageID) ([]byte, error) {
	g, err := pool.FetchRead(id)
	if err != nil {
		return nil, fmt.Errorf("verify: fetch %s: %w", id, err)
	}
	defer g.Release()

	if page.KindOf(g.Data()) == page.KindLeaf {
		lp := tree.LeafView(g.Data())
		if lp.Size() == 0 {
			return nil, nil
		}
		return append([]byte{}, lp.KeyAt(0)...), nil
	}
	ip := tree.InternalView(g.Data())
	return minKey(pool, tree, ip.ChildAt(0))
}
