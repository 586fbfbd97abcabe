package bufferpool

import (
	"sync"

	"github.com/ryogrid/go-bplustree-index/pageid"
)

// frame is the in-memory backing store for one page: its bytes plus the
// per-page latch. The mutex's identity does not depend on the frame
// still being reachable from InMemory.frames, so a guard created before a
// FreePage call can still Release safely afterwards.
type frame struct {
	latch sync.RWMutex
	data  [PageSize]byte
}

// InMemory is a map-backed Manager with no persistence, no eviction and
// no pinning limit: every live page simply stays resident. It exists for
// tests and for embedding scenarios that never need durability.
type InMemory struct {
	mu     sync.Mutex
	frames map[pageid.PageID]*frame
	nextID pageid.PageID
	freed  map[pageid.PageID]bool
}

// NewInMemory returns an empty pool. The caller is responsible for
// allocating the header page via NewPage before handing the pool to
// bptree.New.
func NewInMemory() *InMemory {
	return &InMemory{
		frames: make(map[pageid.PageID]*frame),
		freed:  make(map[pageid.PageID]bool),
	}
}

func (m *InMemory) lookup(id pageid.PageID) (*frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.freed[id] {
		return nil, ErrPageNotFound
	}
	f, ok := m.frames[id]
	if !ok {
		return nil, ErrPageNotFound
	}
	return f, nil
}

func (m *InMemory) FetchRead(id pageid.PageID) (ReadGuard, error) {
	f, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	f.latch.RLock()
	return &inMemReadGuard{id: id, f: f}, nil
}

func (m *InMemory) FetchWrite(id pageid.PageID) (WriteGuard, error) {
	f, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	f.latch.Lock()
	return &inMemWriteGuard{id: id, f: f}, nil
}

func (m *InMemory) FetchBasic(id pageid.PageID) (BasicGuard, error) {
	f, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return &inMemBasicGuard{id: id, f: f}, nil
}

func (m *InMemory) NewPage() (WriteGuard, pageid.PageID, error) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	f := &frame{}
	m.frames[id] = f
	m.mu.Unlock()

	f.latch.Lock()
	return &inMemWriteGuard{id: id, f: f}, id, nil
}

func (m *InMemory) FreePage(id pageid.PageID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.frames[id]; !ok {
		return ErrPageNotFound
	}
	delete(m.frames, id)
	m.freed[id] = true
	return nil
}

type inMemReadGuard struct {
	id       pageid.PageID
	f        *frame
	released bool
}

func (g *inMemReadGuard) PageID() pageid.PageID { return g.id }
func (g *inMemReadGuard) Data() []byte          { return g.f.data[:] }
func (g *inMemReadGuard) Release() {
	if g.released {
		return
	}
	g.released = true
	g.f.latch.RUnlock()
}

type inMemWriteGuard struct {
	id       pageid.PageID
	f        *frame
	released bool
}

func (g *inMemWriteGuard) PageID() pageid.PageID { return g.id }
func (g *inMemWriteGuard) Data() []byte          { return g.f.data[:] }
func (g *inMemWriteGuard) DataMut() []byte       { return g.f.data[:] }
func (g *inMemWriteGuard) Release() {
	if g.released {
		return
	}
	g.released = true
	g.f.latch.Unlock()
}

type inMemBasicGuard struct {
	id       pageid.PageID
	f        *frame
	released bool
}

func (g *inMemBasicGuard) PageID() pageid.PageID { return g.id }
func (g *inMemBasicGuard) Data() []byte          { return g.f.data[:] }
func (g *inMemBasicGuard) DataMut() []byte       { return g.f.data[:] }
func (g *inMemBasicGuard) Release() {
	g.released = true
}
