// Package bptree implements a disk-backed, concurrent B+tree index over
// a bufferpool.Manager. Descent uses latch crabbing: write latches are
// acquired child-before-ancestor-release, and an ancestor is released
// early as soon as the node just latched is provably "safe" for the
// operation in flight.
package bptree

import (
	"fmt"
	"log/slog"

	"github.com/ryogrid/go-bplustree-index/bptree/page"
	"github.com/ryogrid/go-bplustree-index/bufferpool"
	"github.com/ryogrid/go-bplustree-index/pageid"
)

// Tree is a handle to one B+tree index living inside pool, rooted
// (indirectly) at headerPageID.
type Tree struct {
	name         string
	headerPageID pageid.PageID
	pool         bufferpool.Manager
	cmp          Comparator
	layout       page.Layout
	log          *slog.Logger
}

// New constructs a Tree with default 8-byte keys and values.
func New(name string, headerPageID pageid.PageID, pool bufferpool.Manager, cmp Comparator, leafMaxSize, internalMaxSize int) (*Tree, error) {
	return NewWithConfig(name, headerPageID, pool, cmp, Config{
		LeafMaxSize:     leafMaxSize,
		InternalMaxSize: internalMaxSize,
		KeySize:         DefaultKeySize,
		ValueSize:       DefaultValueSize,
	})
}

// NewWithConfig constructs a Tree from a full Config, for callers that
// need non-default key/value widths. The header page at headerPageID
// must already be allocated (e.g. via pool.NewPage); NewWithConfig
// initializes it to point at no root.
func NewWithConfig(name string, headerPageID pageid.PageID, pool bufferpool.Manager, cmp Comparator, cfg Config) (*Tree, error) {
	if cfg.LeafMaxSize < 3 || cfg.InternalMaxSize < 3 {
		return nil, fmt.Errorf("bptree: leaf_max_size and internal_max_size must be >= 3")
	}
	if cfg.KeySize <= 0 || cfg.ValueSize <= 0 {
		return nil, fmt.Errorf("bptree: key_size and value_size must be > 0")
	}

	hg, err := pool.FetchWrite(headerPageID)
	if err != nil {
		return nil, fmt.Errorf("bptree: fetch header: %w", err)
	}
	page.NewHeader(hg.DataMut()).Init()
	hg.Release()

	logger := slog.Default()
	return &Tree{
		name:         name,
		headerPageID: headerPageID,
		pool:         &loggingPool{Manager: pool, log: logger},
		cmp:          cmp,
		layout: page.Layout{
			KeySize:         cfg.KeySize,
			ValueSize:       cfg.ValueSize,
			LeafMaxSize:     cfg.LeafMaxSize,
			InternalMaxSize: cfg.InternalMaxSize,
		},
		log: logger,
	}, nil
}

// Name returns the index name the tree was constructed with.
func (t *Tree) Name() string { return t.name }

// SetLogger overrides the slog.Logger split/merge/root-mutation and
// pool-error events are logged to.
func (t *Tree) SetLogger(l *slog.Logger) {
	t.log = l
	if lp, ok := t.pool.(*loggingPool); ok {
		lp.log = l
	}
}

func (t *Tree) leafMinSize() int     { return t.layout.LeafMaxSize / 2 }
// internalMinSize counts keys: half of InternalMaxSize children, rounded
// up, is one key fewer.
func (t *Tree) internalMinSize() int { return (t.layout.InternalMaxSize+1)/2 - 1 }

// IsEmpty reports whether the tree currently has no root.
func (t *Tree) IsEmpty() bool {
	id, err := t.RootPageID()
	if err != nil {
		return true
	}
	return !id.IsValid()
}

// RootPageID returns the tree's current root page id, or pageid.Invalid
// if the tree has no entries yet.
func (t *Tree) RootPageID() (pageid.PageID, error) {
	hg, err := t.pool.FetchRead(t.headerPageID)
	if err != nil {
		return pageid.Invalid, fmt.Errorf("bptree: fetch header: %w", err)
	}
	defer hg.Release()
	return page.NewHeader(hg.Data()).RootPageID(), nil
}

// Get looks up key and returns its associated value, or ErrKeyNotFound.
func (t *Tree) Get(key []byte) ([]byte, error) {
	leaf, err := t.descendRead(key)
	if err != nil {
		return nil, err
	}
	defer leaf.Release()

	lp := page.NewLeaf(leaf.Data(), t.layout)
	idx := t.leafLowerBound(lp, key)
	if idx < lp.Size() && t.cmp(lp.KeyAt(idx), key) == 0 {
		out := make([]byte, t.layout.ValueSize)
		copy(out, lp.ValueAt(idx))
		return out, nil
	}
	return nil, ErrKeyNotFound
}

func (t *Tree) leafLowerBound(lp page.Leaf, key []byte) int {
	return leafLowerBoundImpl(lp, key, t.cmp)
}
