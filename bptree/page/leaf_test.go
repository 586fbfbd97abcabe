package page

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testLayout() Layout {
	return Layout{KeySize: 8, ValueSize: 8, LeafMaxSize: 4, InternalMaxSize: 4}
}

func u64(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}

func TestLeafInsertAndRemove(t *testing.T) {
	buf := make([]byte, 4096)
	lp := NewLeaf(buf, testLayout())
	lp.Init()
	require.Equal(t, 0, lp.Size())

	lp.InsertAt(0, u64(5), u64(50))
	lp.InsertAt(0, u64(3), u64(30))
	lp.InsertAt(2, u64(8), u64(80))

	require.Equal(t, 3, lp.Size())
	require.Equal(t, u64(3), lp.KeyAt(0))
	require.Equal(t, u64(5), lp.KeyAt(1))
	require.Equal(t, u64(8), lp.KeyAt(2))
	require.Equal(t, u64(80), lp.ValueAt(2))

	lp.RemoveAt(1)
	require.Equal(t, 2, lp.Size())
	require.Equal(t, u64(3), lp.KeyAt(0))
	require.Equal(t, u64(8), lp.KeyAt(1))
}

func TestLeafNextPageID(t *testing.T) {
	buf := make([]byte, 4096)
	lp := NewLeaf(buf, testLayout())
	lp.Init()
	require.False(t, lp.NextPageID().IsValid())

	lp.SetNextPageID(42)
	require.Equal(t, int64(42), int64(lp.NextPageID()))
}

func TestLeafCopyRangeFrom(t *testing.T) {
	buf1 := make([]byte, 4096)
	buf2 := make([]byte, 4096)
	src := NewLeaf(buf1, testLayout())
	src.Init()
	src.InsertAt(0, u64(1), u64(1))
	src.InsertAt(1, u64(2), u64(2))
	src.InsertAt(2, u64(3), u64(3))

	dst := NewLeaf(buf2, testLayout())
	dst.Init()
	dst.InsertAt(0, u64(0), u64(0))
	dst.CopyRangeFrom(src, 1, 3)

	require.Equal(t, 3, dst.Size())
	require.Equal(t, u64(0), dst.KeyAt(0))
	require.Equal(t, u64(2), dst.KeyAt(1))
	require.Equal(t, u64(3), dst.KeyAt(2))
}
