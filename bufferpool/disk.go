package bufferpool

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/ristretto/v2"
	"github.com/dsnet/golib/memfile"
	"github.com/ncw/directio"

	"github.com/ryogrid/go-bplustree-index/pageid"
)

// checksumSize is the width, in bytes, of the trailing xxhash checksum
// stored after every page's payload on disk.
const checksumSize = 8

// diskPageSize is PageSize plus its trailing checksum, rounded up to the
// nearest directio.BlockSize. O_DIRECT requires every read/write to land
// on a block-aligned offset with a block-aligned length, so padding the
// per-page unit out to a full block keeps id*diskPageSize aligned for
// every id.
var diskPageSize = alignUp(PageSize+checksumSize, directio.BlockSize)

func alignUp(n, align int) int {
	return (n + align - 1) / align * align
}

// pageStore abstracts the byte-addressable backing store under Disk: a
// real O_DIRECT file, or an in-memory memfile.File for tests that want
// durability semantics without a real file.
type pageStore interface {
	io.ReaderAt
	io.WriterAt
	io.Closer
}

type syncer interface {
	Sync() error
}

// Disk is a file-backed Manager. Page bytes are cached in a ristretto
// admission-counted cache; a miss reads diskPageSize bytes at the page's
// offset and verifies the trailing xxhash checksum. Per-page latches are
// kept independently of the cache so that eviction never invalidates a
// guard's latch identity.
type Disk struct {
	mu      sync.Mutex
	store   pageStore
	locker  *fileLock
	cache   *ristretto.Cache[pageid.PageID, []byte]
	latches map[pageid.PageID]*sync.RWMutex
	numIDs  pageid.PageID
	free    []pageid.PageID
	closed  bool
}

// OpenDiskFile opens (creating if necessary) a page file at path, takes
// an advisory exclusive lock on it for the lifetime of the pool, and
// returns a Disk reading/writing it with O_DIRECT-aligned buffers.
func OpenDiskFile(path string) (*Disk, error) {
	f, err := directio.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("bufferpool: open %s: %w", path, err)
	}
	lock, err := lockFile(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("bufferpool: lock %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		lock.unlock()
		f.Close()
		return nil, err
	}
	return newDisk(f, lock, info.Size())
}

// OpenDiskMemory returns a Disk backed by an in-memory memfile.File
// instead of a real path, for demos and tests that want the Disk code
// path without touching the filesystem.
func OpenDiskMemory() (*Disk, error) {
	mf := memfile.New(nil)
	return newDisk(memfileStore{mf}, nil, 0)
}

// memfileStore adapts *memfile.File to pageStore: memfile.File has no
// Close method since it holds no OS resource, so Close is a no-op.
type memfileStore struct {
	*memfile.File
}

func (memfileStore) Close() error { return nil }

func newDisk(store pageStore, lock *fileLock, existingSize int64) (*Disk, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[pageid.PageID, []byte]{
		NumCounters: 1e5,
		MaxCost:     64 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("bufferpool: cache init: %w", err)
	}
	d := &Disk{
		store:   store,
		locker:  lock,
		cache:   cache,
		latches: make(map[pageid.PageID]*sync.RWMutex),
		numIDs:  pageid.PageID(existingSize / int64(diskPageSize)),
	}
	return d, nil
}

func (d *Disk) latchFor(id pageid.PageID) *sync.RWMutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.latches[id]
	if !ok {
		l = &sync.RWMutex{}
		d.latches[id] = l
	}
	return l
}

func (d *Disk) readPage(id pageid.PageID) ([]byte, error) {
	if v, ok := d.cache.Get(id); ok {
		out := make([]byte, PageSize)
		copy(out, v)
		return out, nil
	}
	buf := directio.AlignedBlock(diskPageSize)
	if _, err := d.store.ReadAt(buf, int64(id)*int64(diskPageSize)); err != nil && err != io.EOF {
		return nil, fmt.Errorf("bufferpool: read %s: %w", id, err)
	}
	payload := buf[:PageSize]
	want := binary.LittleEndian.Uint64(buf[PageSize:])
	if want != 0 && xxhash.Sum64(payload) != want {
		return nil, ErrCorruptPage
	}
	out := make([]byte, PageSize)
	copy(out, payload)
	d.cache.Set(id, out, int64(PageSize))
	return out, nil
}

func (d *Disk) writePage(id pageid.PageID, data []byte) error {
	buf := directio.AlignedBlock(diskPageSize)
	copy(buf, data)
	binary.LittleEndian.PutUint64(buf[PageSize:], xxhash.Sum64(data[:PageSize]))
	if _, err := d.store.WriteAt(buf, int64(id)*int64(diskPageSize)); err != nil {
		return fmt.Errorf("bufferpool: write %s: %w", id, err)
	}
	if s, ok := d.store.(syncer); ok {
		if err := s.Sync(); err != nil {
			return fmt.Errorf("bufferpool: sync: %w", err)
		}
	}
	cp := make([]byte, PageSize)
	copy(cp, data)
	d.cache.Set(id, cp, int64(PageSize))
	return nil
}

func (d *Disk) FetchRead(id pageid.PageID) (ReadGuard, error) {
	if d.isClosed() {
		return nil, ErrClosed
	}
	l := d.latchFor(id)
	l.RLock()
	data, err := d.readPage(id)
	if err != nil {
		l.RUnlock()
		return nil, err
	}
	return &diskReadGuard{d: d, id: id, latch: l, data: data}, nil
}

func (d *Disk) FetchWrite(id pageid.PageID) (WriteGuard, error) {
	if d.isClosed() {
		return nil, ErrClosed
	}
	l := d.latchFor(id)
	l.Lock()
	data, err := d.readPage(id)
	if err != nil {
		l.Unlock()
		return nil, err
	}
	return &diskWriteGuard{d: d, id: id, latch: l, data: data}, nil
}

func (d *Disk) FetchBasic(id pageid.PageID) (BasicGuard, error) {
	if d.isClosed() {
		return nil, ErrClosed
	}
	data, err := d.readPage(id)
	if err != nil {
		return nil, err
	}
	return &diskBasicGuard{d: d, id: id, data: data}, nil
}

func (d *Disk) NewPage() (WriteGuard, pageid.PageID, error) {
	d.mu.Lock()
	var id pageid.PageID
	if n := len(d.free); n > 0 {
		id = d.free[n-1]
		d.free = d.free[:n-1]
	} else {
		id = d.numIDs
		d.numIDs++
	}
	d.mu.Unlock()

	l := d.latchFor(id)
	l.Lock()
	data := make([]byte, PageSize)
	if err := d.writePage(id, data); err != nil {
		l.Unlock()
		return nil, pageid.Invalid, err
	}
	return &diskWriteGuard{d: d, id: id, latch: l, data: data}, id, nil
}

func (d *Disk) FreePage(id pageid.PageID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.free = append(d.free, id)
	d.cache.Del(id)
	return nil
}

func (d *Disk) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Close closes the cache (pages are written through on Release, so there
// is nothing left to flush), releases the advisory lock (if any) and
// closes the backing store. No further operations may be performed afterwards.
func (d *Disk) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.cache.Close()
	if d.locker != nil {
		d.locker.unlock()
	}
	return d.store.Close()
}

type diskReadGuard struct {
	d        *Disk
	id       pageid.PageID
	latch    *sync.RWMutex
	data     []byte
	released bool
}

func (g *diskReadGuard) PageID() pageid.PageID { return g.id }
func (g *diskReadGuard) Data() []byte          { return g.data }
func (g *diskReadGuard) Release() {
	if g.released {
		return
	}
	g.released = true
	g.latch.RUnlock()
}

type diskWriteGuard struct {
	d        *Disk
	id       pageid.PageID
	latch    *sync.RWMutex
	data     []byte
	dirty    bool
	released bool
}

func (g *diskWriteGuard) PageID() pageid.PageID { return g.id }
func (g *diskWriteGuard) Data() []byte          { return g.data }
func (g *diskWriteGuard) DataMut() []byte {
	g.dirty = true
	return g.data
}
func (g *diskWriteGuard) Release() {
	if g.released {
		return
	}
	g.released = true
	if g.dirty {
		if err := g.d.writePage(g.id, g.data); err != nil {
			g.d.cache.Del(g.id)
		}
	}
	g.latch.Unlock()
}

type diskBasicGuard struct {
	d        *Disk
	id       pageid.PageID
	data     []byte
	dirty    bool
	released bool
}

func (g *diskBasicGuard) PageID() pageid.PageID { return g.id }
func (g *diskBasicGuard) Data() []byte          { return g.data }
func (g *diskBasicGuard) DataMut() []byte {
	g.dirty = true
	return g.data
}
func (g *diskBasicGuard) Release() {
	if g.released {
		return
	}
	g.released = true
	if g.dirty {
		if err := g.d.writePage(g.id, g.data); err != nil {
			g.d.cache.Del(g.id)
		}
	}
}
