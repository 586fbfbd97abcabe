package page

import (
	"encoding/binary"

	"github.com/ryogrid/go-bplustree-index/pageid"
)

// leaf page layout: Kind(1) | pad(1) | Size(2) | NextPageID(8) | keys[LeafMaxSize] | values[LeafMaxSize]
const leafHeaderLen = 12

// Leaf is the view over a leaf page: a sorted run of (key, value) slots
// plus a pointer to the next leaf in key order, used by the forward
// iterator.
type Leaf struct {
	data []byte
	l    Layout
}

func NewLeaf(data []byte, l Layout) Leaf {
	return Leaf{data: data, l: l}
}

func (p Leaf) Init() {
	setKind(p.data, KindLeaf)
	setSize(p.data, 0)
	p.SetNextPageID(pageid.Invalid)
}

func (p Leaf) Size() int      { return size(p.data) }
func (p Leaf) SetSize(n int)  { setSize(p.data, n) }
func (p Leaf) MaxSize() int   { return p.l.LeafMaxSize }
func (p Leaf) IsFull() bool   { return p.Size() >= p.l.LeafMaxSize }

func (p Leaf) NextPageID() pageid.PageID {
	return pageid.PageID(int64(binary.LittleEndian.Uint64(p.data[4:12])))
}

func (p Leaf) SetNextPageID(id pageid.PageID) {
	binary.LittleEndian.PutUint64(p.data[4:12], uint64(int64(id)))
}

func (p Leaf) keysOff() int {
	return leafHeaderLen
}

func (p Leaf) valuesOff() int {
	return leafHeaderLen + p.l.KeySize*p.l.LeafMaxSize
}

// KeyAt returns slot i's key, a sub-slice of the page's own bytes. Callers
// that need the bytes to outlive the guard holding this page must copy.
func (p Leaf) KeyAt(i int) []byte {
	off := p.keysOff() + i*p.l.KeySize
	return p.data[off : off+p.l.KeySize]
}

func (p Leaf) ValueAt(i int) []byte {
	off := p.valuesOff() + i*p.l.ValueSize
	return p.data[off : off+p.l.ValueSize]
}

func (p Leaf) SetKeyAt(i int, key []byte) {
	copy(p.KeyAt(i), key)
}

func (p Leaf) SetValueAt(i int, value []byte) {
	copy(p.ValueAt(i), value)
}

// InsertAt shifts slots [i, Size) right by one and writes key/value at i.
func (p Leaf) InsertAt(i int, key, value []byte) {
	n := p.Size()
	for j := n; j > i; j-- {
		p.SetKeyAt(j, p.KeyAt(j-1))
		p.SetValueAt(j, p.ValueAt(j-1))
	}
	p.SetKeyAt(i, key)
	p.SetValueAt(i, value)
	p.SetSize(n + 1)
}

// RemoveAt shifts slots (i, Size) left by one, dropping slot i.
func (p Leaf) RemoveAt(i int) {
	n := p.Size()
	for j := i; j < n-1; j++ {
		p.SetKeyAt(j, p.KeyAt(j+1))
		p.SetValueAt(j, p.ValueAt(j+1))
	}
	p.SetSize(n - 1)
}

// CopyRangeFrom appends src's slots [from, to) to the end of p, used by
// merge to absorb a sibling.
func (p Leaf) CopyRangeFrom(src Leaf, from, to int) {
	n := p.Size()
	for j := from; j < to; j++ {
		p.SetKeyAt(n, src.KeyAt(j))
		p.SetValueAt(n, src.ValueAt(j))
		n++
	}
	p.SetSize(n)
}
