package bufferpool

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiskNewPageAndFetch(t *testing.T) {
	d, err := OpenDiskMemory()
	require.NoError(t, err)
	defer d.Close()

	wg, id, err := d.NewPage()
	require.NoError(t, err)
	copy(wg.DataMut(), []byte("hello"))
	wg.Release()

	rg, err := d.FetchRead(id)
	require.NoError(t, err)
	require.Equal(t, byte('h'), rg.Data()[0])
	rg.Release()
}

func TestDiskWriteSurvivesCacheEviction(t *testing.T) {
	d, err := OpenDiskMemory()
	require.NoError(t, err)
	defer d.Close()

	wg, id, err := d.NewPage()
	require.NoError(t, err)
	copy(wg.DataMut(), []byte("persisted"))
	wg.Release()

	d.cache.Del(id)
	rg, err := d.FetchRead(id)
	require.NoError(t, err)
	require.Equal(t, []byte("persisted"), rg.Data()[:len("persisted")])
	rg.Release()
}

func TestDiskCorruptPageDetected(t *testing.T) {
	d, err := OpenDiskMemory()
	require.NoError(t, err)
	defer d.Close()

	wg, id, err := d.NewPage()
	require.NoError(t, err)
	copy(wg.DataMut(), []byte("intact"))
	wg.Release()
	d.cache.Del(id)

	buf := make([]byte, diskPageSize)
	_, err = d.store.ReadAt(buf, int64(id)*int64(diskPageSize))
	require.NoError(t, err)
	binary.LittleEndian.PutUint64(buf[PageSize:], binary.LittleEndian.Uint64(buf[PageSize:])^1)
	_, err = d.store.WriteAt(buf, int64(id)*int64(diskPageSize))
	require.NoError(t, err)

	_, err = d.FetchRead(id)
	require.ErrorIs(t, err, ErrCorruptPage)
}

func TestDiskFreePageReusesID(t *testing.T) {
	d, err := OpenDiskMemory()
	require.NoError(t, err)
	defer d.Close()

	wgA, idA, err := d.NewPage()
	require.NoError(t, err)
	wgA.Release()
	require.NoError(t, d.FreePage(idA))

	_, idB, err := d.NewPage()
	require.NoError(t, err)
	require.Equal(t, idA, idB)
}

func TestDiskOperationsAfterCloseFail(t *testing.T) {
	d, err := OpenDiskMemory()
	require.NoError(t, err)
	_, id, err := d.NewPage()
	require.NoError(t, err)
	require.NoError(t, d.Close())

	_, err = d.FetchRead(id)
	require.ErrorIs(t, err, ErrClosed)
}
