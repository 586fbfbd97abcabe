package bptree

import (
	"encoding/binary"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ryogrid/go-bplustree-index/bufferpool"
)

func key(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func newTestTree(t *testing.T, leafMax, internalMax int) (*Tree, bufferpool.Manager) {
	pool := bufferpool.NewInMemory()
	wg, id, err := pool.NewPage()
	require.NoError(t, err)
	wg.Release()

	tree, err := New("t", id, pool, CompareUint64, leafMax, internalMax)
	require.NoError(t, err)
	return tree, pool
}

func TestInsertAndGetSingle(t *testing.T) {
	tree, _ := newTestTree(t, 4, 4)

	require.NoError(t, tree.Insert(key(1), key(100)))
	v, err := tree.Get(key(1))
	require.NoError(t, err)
	require.Equal(t, key(100), v)
}

func TestGetMissingKey(t *testing.T) {
	tree, _ := newTestTree(t, 4, 4)
	require.NoError(t, tree.Insert(key(1), key(1)))
	_, err := tree.Get(key(2))
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestInsertDuplicateKey(t *testing.T) {
	tree, _ := newTestTree(t, 4, 4)
	require.NoError(t, tree.Insert(key(1), key(1)))
	err := tree.Insert(key(1), key(2))
	require.ErrorIs(t, err, ErrDuplicateKey)
}

func TestInsertCausesLeafAndInternalSplits(t *testing.T) {
	tree, _ := newTestTree(t, 4, 4)
	for i := uint64(1); i <= 30; i++ {
		require.NoError(t, tree.Insert(key(i), key(i*10)))
	}
	for i := uint64(1); i <= 30; i++ {
		v, err := tree.Get(key(i))
		require.NoError(t, err, "key %d", i)
		require.Equal(t, key(i*10), v)
	}
}

func TestIteratorForwardScan(t *testing.T) {
	tree, _ := newTestTree(t, 4, 4)
	for i := uint64(1); i <= 10; i++ {
		require.NoError(t, tree.Insert(key(i), key(i)))
	}

	it, err := tree.Begin()
	require.NoError(t, err)
	var got []uint64
	for it.Valid() {
		got = append(got, binary.LittleEndian.Uint64(it.Key()))
		require.NoError(t, it.Next())
	}
	it.Close()

	require.Len(t, got, 10)
	for i, v := range got {
		require.Equal(t, uint64(i+1), v)
	}
}

func TestIteratorBeginAt(t *testing.T) {
	tree, _ := newTestTree(t, 4, 4)
	for i := uint64(1); i <= 10; i++ {
		require.NoError(t, tree.Insert(key(i), key(i)))
	}

	it, err := tree.BeginAt(key(5))
	require.NoError(t, err)
	var got []uint64
	for it.Valid() {
		got = append(got, binary.LittleEndian.Uint64(it.Key()))
		require.NoError(t, it.Next())
	}
	it.Close()

	require.Equal(t, []uint64{5, 6, 7, 8, 9, 10}, got)
}

func TestRemoveFromLeafWithUnderflow(t *testing.T) {
	tree, _ := newTestTree(t, 4, 4)
	for i := uint64(1); i <= 4; i++ {
		require.NoError(t, tree.Insert(key(i), key(i)))
	}
	require.NoError(t, tree.Remove(key(2)))
	_, err := tree.Get(key(2))
	require.ErrorIs(t, err, ErrKeyNotFound)

	v, err := tree.Get(key(1))
	require.NoError(t, err)
	require.Equal(t, key(1), v)
}

func TestRemoveMissingKey(t *testing.T) {
	tree, _ := newTestTree(t, 4, 4)
	require.NoError(t, tree.Insert(key(1), key(1)))
	err := tree.Remove(key(99))
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestInsertThenRemoveAllKeysEmptiesTree(t *testing.T) {
	tree, _ := newTestTree(t, 4, 4)
	const n = 50
	for i := uint64(1); i <= n; i++ {
		require.NoError(t, tree.Insert(key(i), key(i)))
	}
	for i := uint64(1); i <= n; i++ {
		require.NoError(t, tree.Remove(key(i)), "removing key %d", i)
	}
	require.True(t, tree.IsEmpty())
}

func TestRemoveTriggersMergesAndBorrows(t *testing.T) {
	tree, _ := newTestTree(t, 4, 4)
	const n = 40
	for i := uint64(1); i <= n; i++ {
		require.NoError(t, tree.Insert(key(i), key(i)))
	}
	// remove every other key to force a mix of borrows and merges
	// across both leaf and internal levels.
	for i := uint64(1); i <= n; i += 2 {
		require.NoError(t, tree.Remove(key(i)))
	}
	for i := uint64(1); i <= n; i++ {
		v, err := tree.Get(key(i))
		if i%2 == 1 {
			require.ErrorIs(t, err, ErrKeyNotFound)
		} else {
			require.NoError(t, err)
			require.Equal(t, key(i), v)
		}
	}
}

func TestConcurrentInsertDisjointRanges(t *testing.T) {
	tree, _ := newTestTree(t, 8, 8)

	const goroutines = 8
	const perGoroutine = 50

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(base uint64) {
			defer wg.Done()
			for i := uint64(0); i < perGoroutine; i++ {
				k := base*perGoroutine + i
				if err := tree.Insert(key(k), key(k)); err != nil {
					t.Errorf("insert %d: %v", k, err)
				}
			}
		}(uint64(g))
	}
	wg.Wait()

	for g := 0; g < goroutines; g++ {
		for i := uint64(0); i < perGoroutine; i++ {
			k := uint64(g)*perGoroutine + i
			v, err := tree.Get(key(k))
			require.NoError(t, err)
			require.Equal(t, key(k), v)
		}
	}
}
