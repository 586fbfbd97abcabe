package page

import (
	"testing"

	"github.com/ryogrid/go-bplustree-index/pageid"
	"github.com/stretchr/testify/require"
)

func TestHeaderInitAndRoot(t *testing.T) {
	buf := make([]byte, 4096)
	h := NewHeader(buf)
	h.Init()
	require.False(t, h.RootPageID().IsValid())

	h.SetRootPageID(pageid.PageID(7))
	require.Equal(t, pageid.PageID(7), h.RootPageID())
}
