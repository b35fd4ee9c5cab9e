package disk

import (
	"github.com/cespare/xxhash/v2"
	"github.com/elastic/go-freelru"

	"pagestore"
)

// CachingManager wraps a Manager with a read-through cache of raw page
// bytes, the way an OS page cache sits below a DBMS buffer pool.
// Unlike the buffer pool above it, this cache holds no pins and no
// dirty bit: it is free to drop any entry at any time, and every write
// goes straight through to the wrapped Manager before the cache is
// updated. It exists so that a buffer pool eviction followed shortly
// by a re-fetch of the same page (a common pattern under LRU-K churn)
// doesn't always cost a real disk read.
//
// CachingManager is safe for concurrent use.
type CachingManager struct {
	next  Manager
	cache *freelru.SyncedLRU[pagestore.PageID, pagestore.Page]
}

func hashPageID(id pagestore.PageID) uint32 {
	var buf [8]byte
	v := uint64(id)
	for i := range buf {
		buf[i] = byte(v >> (8 * i))
	}
	return uint32(xxhash.Sum64(buf[:]))
}

// NewCachingManager wraps next with a read-through cache holding up to
// capacity pages.
func NewCachingManager(next Manager, capacity uint32) (*CachingManager, error) {
	cache, err := freelru.NewSynced[pagestore.PageID, pagestore.Page](capacity, hashPageID)
	if err != nil {
		return nil, err
	}
	return &CachingManager{next: next, cache: cache}, nil
}

func (m *CachingManager) ReadPage(id pagestore.PageID, buf *pagestore.Page) error {
	if p, ok := m.cache.Get(id); ok {
		*buf = p
		return nil
	}

	if err := m.next.ReadPage(id, buf); err != nil {
		return err
	}
	m.cache.Add(id, *buf)
	return nil
}

func (m *CachingManager) WritePage(id pagestore.PageID, buf *pagestore.Page) error {
	if err := m.next.WritePage(id, buf); err != nil {
		return err
	}
	m.cache.Add(id, *buf)
	return nil
}

func (m *CachingManager) AllocatePage() (pagestore.PageID, error) {
	return m.next.AllocatePage()
}

func (m *CachingManager) DeallocatePage(id pagestore.PageID) error {
	m.cache.Remove(id)
	return m.next.DeallocatePage(id)
}

var _ Manager = (*CachingManager)(nil)
