package page

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInternalInitAsRoot(t *testing.T) {
	buf := make([]byte, 4096)
	ip := NewInternal(buf, testLayout())
	ip.InitAsRoot(u64(10), 1, 2)

	require.Equal(t, 1, ip.Size())
	require.Equal(t, u64(10), ip.KeyAt(1))
	require.EqualValues(t, 1, ip.ChildAt(0))
	require.EqualValues(t, 2, ip.ChildAt(1))
}

func TestInternalInsertAtShiftsChildren(t *testing.T) {
	buf := make([]byte, 4096)
	ip := NewInternal(buf, testLayout())
	ip.InitAsRoot(u64(10), 1, 2)
	ip.InsertAt(2, u64(30), 4)

	ip.InsertAt(2, u64(20), 3)
	require.Equal(t, 3, ip.Size())
	require.EqualValues(t, 1, ip.ChildAt(0))
	require.EqualValues(t, 2, ip.ChildAt(1))
	require.EqualValues(t, 3, ip.ChildAt(2))
	require.EqualValues(t, 4, ip.ChildAt(3))
	require.Equal(t, u64(10), ip.KeyAt(1))
	require.Equal(t, u64(20), ip.KeyAt(2))
	require.Equal(t, u64(30), ip.KeyAt(3))
}

func TestInternalRemoveAt(t *testing.T) {
	buf := make([]byte, 4096)
	ip := NewInternal(buf, testLayout())
	ip.InitAsRoot(u64(10), 1, 2)
	ip.InsertAt(2, u64(20), 3)
	ip.InsertAt(3, u64(30), 4)
	require.Equal(t, 3, ip.Size())

	ip.RemoveAt(2)
	require.Equal(t, 2, ip.Size())
	require.EqualValues(t, 1, ip.ChildAt(0))
	require.EqualValues(t, 2, ip.ChildAt(1))
	require.EqualValues(t, 4, ip.ChildAt(2))
	require.Equal(t, u64(10), ip.KeyAt(1))
	require.Equal(t, u64(30), ip.KeyAt(2))
}
