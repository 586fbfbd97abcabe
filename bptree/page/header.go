package page

import (
	"encoding/binary"

	"github.com/ryogrid/go-bplustree-index/pageid"
)

// headerRootOffset is where the header page stores the current root's
// page id. The header page is fetched and latched like any other page,
// which is what lets root creation/split/collapse be handled uniformly
// by the same latch-crabbing descent as any other mutation.
const headerRootOffset = 4

// Header is the view over the well-known root-indirection page.
type Header struct {
	data []byte
}

// NewHeader wraps data as a Header view. The caller is responsible for
// calling Init on a freshly allocated page before first use.
func NewHeader(data []byte) Header {
	return Header{data: data}
}

// Init marks a freshly allocated page as a header page with no root yet.
func (h Header) Init() {
	setKind(h.data, KindHeader)
	h.SetRootPageID(pageid.Invalid)
}

func (h Header) RootPageID() pageid.PageID {
	return pageid.PageID(int64(binary.LittleEndian.Uint64(h.data[headerRootOffset:])))
}

func (h Header) SetRootPageID(id pageid.PageID) {
	binary.LittleEndian.PutUint64(h.data[headerRootOffset:], uint64(int64(id)))
}
