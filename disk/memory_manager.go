package disk

import (
	"fmt"
	"sync"

	"pagestore"
)

// MemoryManager implements Manager entirely in memory, for tests and
// for benchmarks that want to isolate the buffer pool from real I/O.
// Page ids are handed out monotonically and never reused.
type MemoryManager struct {
	mu       sync.Mutex
	pages    map[pagestore.PageID]*pagestore.Page
	nextPage pagestore.PageID
}

// NewMemoryManager creates an empty in-memory disk manager, with the
// reserved header page pre-zeroed so it can be fetched immediately.
func NewMemoryManager() *MemoryManager {
	return &MemoryManager{
		pages:    map[pagestore.PageID]*pagestore.Page{pagestore.HeaderPageID: {}},
		nextPage: pagestore.HeaderPageID + 1,
	}
}

func (m *MemoryManager) ReadPage(id pagestore.PageID, buf *pagestore.Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pages[id]
	if !ok {
		return fmt.Errorf("disk: page %d not found", id)
	}
	*buf = *p
	return nil
}

func (m *MemoryManager) WritePage(id pagestore.PageID, buf *pagestore.Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *buf
	m.pages[id] = &cp
	return nil
}

func (m *MemoryManager) AllocatePage() (pagestore.PageID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextPage
	m.nextPage++
	m.pages[id] = &pagestore.Page{}
	return id, nil
}

// DeallocatePage drops the page's bytes; the id itself is never reused.
func (m *MemoryManager) DeallocatePage(id pagestore.PageID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.pages, id)
	return nil
}

var _ Manager = (*MemoryManager)(nil)
