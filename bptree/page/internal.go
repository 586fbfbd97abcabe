package page

import (
	"encoding/binary"

	"github.com/ryogrid/go-bplustree-index/pageid"
)

// internal page layout: Kind(1) | pad(1) | Size(2) | keys[InternalMaxSize] | children[InternalMaxSize+1]
//
// Size counts keys in use; the number of live children is always
// Size+1. Slot 0's key is never read by routing: child 0 covers every
// key less than key 1. Its storage still exists so every key slot has
// the same stride.
const internalHeaderLen = 4

// Internal is the view over an internal (non-leaf, non-header) page.
type Internal struct {
	data []byte
	l    Layout
}

func NewInternal(data []byte, l Layout) Internal {
	return Internal{data: data, l: l}
}

func (p Internal) Init() {
	setKind(p.data, KindInternal)
	setSize(p.data, 0)
}

func (p Internal) Size() int     { return size(p.data) }
func (p Internal) SetSize(n int) { setSize(p.data, n) }
func (p Internal) MaxSize() int  { return p.l.InternalMaxSize }
func (p Internal) IsFull() bool  { return p.Size() >= p.l.InternalMaxSize }

func (p Internal) keysOff() int {
	return internalHeaderLen
}

func (p Internal) childrenOff() int {
	return internalHeaderLen + p.l.KeySize*p.l.InternalMaxSize
}

func (p Internal) KeyAt(i int) []byte {
	off := p.keysOff() + i*p.l.KeySize
	return p.data[off : off+p.l.KeySize]
}

func (p Internal) SetKeyAt(i int, key []byte) {
	copy(p.KeyAt(i), key)
}

func (p Internal) ChildAt(i int) pageid.PageID {
	off := p.childrenOff() + i*8
	return pageid.PageID(int64(binary.LittleEndian.Uint64(p.data[off : off+8])))
}

func (p Internal) SetChildAt(i int, id pageid.PageID) {
	off := p.childrenOff() + i*8
	binary.LittleEndian.PutUint64(p.data[off:off+8], uint64(int64(id)))
}

// InitAsRoot sets up a freshly allocated internal page as a new root with
// exactly one key and two children, produced by a leaf or internal split.
func (p Internal) InitAsRoot(key []byte, left, right pageid.PageID) {
	p.Init()
	p.SetKeyAt(1, key)
	p.SetChildAt(0, left)
	p.SetChildAt(1, right)
	p.SetSize(1)
}

// InsertAt inserts key/child at slot i, shifting slots [i, Size] right by
// one (shifting both the key array and the trailing child array). The new
// key is paired with child slot i, the child to its right.
func (p Internal) InsertAt(i int, key []byte, child pageid.PageID) {
	n := p.Size()
	for j := n + 1; j > i; j-- {
		p.SetKeyAt(j, p.KeyAt(j-1))
	}
	for j := n + 1; j > i; j-- {
		p.SetChildAt(j, p.ChildAt(j-1))
	}
	p.SetKeyAt(i, key)
	p.SetChildAt(i, child)
	p.SetSize(n + 1)
}

// RemoveAt drops key slot i and child slot i together (i must be >= 1:
// the vanishing child in a merge is always the higher-indexed, non-zero
// side, per the remove engine's left-survives policy), shifting
// subsequent key and child slots left by one.
func (p Internal) RemoveAt(i int) {
	n := p.Size()
	for j := i; j < n; j++ {
		p.SetKeyAt(j, p.KeyAt(j+1))
	}
	for j := i; j < n; j++ {
		p.SetChildAt(j, p.ChildAt(j+1))
	}
	p.SetSize(n - 1)
}

