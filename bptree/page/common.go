// Package page implements typed views over the raw []byte a bufferpool
// guard hands back: Header, Internal and Leaf. Every view is a thin
// wrapper around a slice it does not own; callers obtain the slice from
// a guard's Data()/DataMut() and construct the matching view on top of
// it.
package page

import "encoding/binary"

// Kind identifies which view a page's bytes should be read as. It lives
// at a fixed offset on every page, header pages included, so a fresh
// fetch can always tell what it just pinned before deciding how to
// interpret the rest of the bytes.
type Kind byte

const (
	KindHeader   Kind = 0
	KindInternal Kind = 1
	KindLeaf     Kind = 2
)

const (
	offKind = 0
	offSize = 2
)

// KindOf reads the Kind byte at the front of any page.
func KindOf(data []byte) Kind {
	return Kind(data[offKind])
}

func setKind(data []byte, k Kind) {
	data[offKind] = byte(k)
}

func size(data []byte) int {
	return int(binary.LittleEndian.Uint16(data[offSize:]))
}

func setSize(data []byte, n int) {
	binary.LittleEndian.PutUint16(data[offSize:], uint16(n))
}

// Layout carries the fixed key/value widths and the leaf/internal fan-out
// bounds a tree was constructed with. Every Leaf/Internal view needs it
// to compute slot offsets, since key and value widths are a per-tree
// configuration choice rather than a compile-time constant.
type Layout struct {
	KeySize         int
	ValueSize       int
	LeafMaxSize     int
	InternalMaxSize int
}
