// Package buffer implements the fixed-size buffer pool: a bounded set
// of in-memory frames backing a much larger page store, fronted by an
// LRU-K eviction policy and an extendible hash table mapping resident
// page ids to frames (spec §4.3).
package buffer

import (
	"sync"

	"pagestore"
	"pagestore/disk"
	"pagestore/hashtable"
	"pagestore/lruk"
)

func hashPageID(id pagestore.PageID) uint64 {
	return hashtable.HashUint64(uint64(id))
}

// PoolManager is the fixed-size buffer pool: it hands out pinned pages
// backed by a disk.Manager, evicting unpinned frames via LRU-K when the
// pool is full and the free list is exhausted.
type PoolManager struct {
	mu sync.Mutex

	disk     disk.Manager
	log      pagestore.Logger
	frames   []frame
	pageTbl  *hashtable.Table[pagestore.PageID, pagestore.FrameID]
	replacer *lruk.Replacer
	freeList []pagestore.FrameID
}

// New creates a pool of poolSize frames backed by d.
func New(poolSize int, d disk.Manager, opts ...Option) *PoolManager {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	free := make([]pagestore.FrameID, poolSize)
	for i := range free {
		free[i] = pagestore.FrameID(i)
	}

	return &PoolManager{
		disk:     d,
		log:      o.logger,
		frames:   make([]frame, poolSize),
		pageTbl:  hashtable.New[pagestore.PageID, pagestore.FrameID](o.bucketSize, hashPageID),
		replacer: lruk.New(poolSize, o.replacerK),
		freeList: free,
	}
}

// victim returns a frame ready for reuse: one from the free list if
// any remain, otherwise the LRU-K replacer's pick, flushing it to disk
// first if dirty. Returns (frameID, false) if the pool has no frame to
// give — every frame is pinned and the free list is empty.
func (p *PoolManager) victim() (pagestore.FrameID, bool) {
	if n := len(p.freeList); n > 0 {
		id := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		return id, true
	}

	fid, ok := p.replacer.Evict()
	if !ok {
		return 0, false
	}

	f := &p.frames[fid]
	p.pageTbl.Remove(f.pageID)
	if f.isDirty {
		if err := p.disk.WritePage(f.pageID, &f.page); err != nil {
			p.log.Error("buffer: flush on eviction failed", "page_id", f.pageID, "err", err)
		}
	}
	f.reset()
	return pagestore.FrameID(fid), true
}

// NewPage allocates a fresh page on disk, pins it into a frame, and
// returns its id and bytes. Returns ErrBufferFull if no frame is
// available to hold it.
func (p *PoolManager) NewPage() (pagestore.PageID, *pagestore.Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, ok := p.victim()
	if !ok {
		return pagestore.InvalidPageID, nil, pagestore.ErrBufferFull
	}

	id, err := p.disk.AllocatePage()
	if err != nil {
		p.freeList = append(p.freeList, fid)
		return pagestore.InvalidPageID, nil, err
	}

	f := &p.frames[fid]
	f.pageID = id
	f.pinCount = 1

	p.pageTbl.Insert(id, fid)
	p.replacer.RecordAccess(int(fid))
	p.replacer.SetEvictable(int(fid), false)

	return id, &f.page, nil
}

// FetchPage pins the page with the given id, fetching it from disk
// into a frame if it isn't already resident. Returns ErrBufferFull if
// the page must be loaded but no frame is available.
func (p *PoolManager) FetchPage(id pagestore.PageID) (*pagestore.Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if fid, ok := p.pageTbl.Find(id); ok {
		f := &p.frames[fid]
		f.pinCount++
		p.replacer.RecordAccess(int(fid))
		p.replacer.SetEvictable(int(fid), false)
		return &f.page, nil
	}

	fid, ok := p.victim()
	if !ok {
		return nil, pagestore.ErrBufferFull
	}

	f := &p.frames[fid]
	if err := p.disk.ReadPage(id, &f.page); err != nil {
		p.freeList = append(p.freeList, fid)
		return nil, err
	}
	f.pageID = id
	f.pinCount = 1

	p.pageTbl.Insert(id, fid)
	p.replacer.RecordAccess(int(fid))
	p.replacer.SetEvictable(int(fid), false)

	return &f.page, nil
}

// Latch returns the frame-level latch for a resident page, for callers
// (the B+ tree) that need to read- or write-latch pages independently
// of pinning. It returns nil if the page isn't currently resident.
func (p *PoolManager) Latch(id pagestore.PageID) *sync.RWMutex {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, ok := p.pageTbl.Find(id)
	if !ok {
		return nil
	}
	return &p.frames[fid].latch
}

// UnpinPage decrements a page's pin count and, if it drops to zero,
// marks its frame evictable. Reports whether the page was resident
// with a positive pin count.
func (p *PoolManager) UnpinPage(id pagestore.PageID, isDirty bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, ok := p.pageTbl.Find(id)
	if !ok {
		return false
	}
	f := &p.frames[fid]
	if f.pinCount <= 0 {
		return false
	}

	f.pinCount--
	if isDirty {
		f.isDirty = true
	}
	if f.pinCount == 0 {
		p.replacer.SetEvictable(int(fid), true)
	}
	return true
}

// FlushPage writes a resident page's current bytes to disk regardless
// of pin count, clearing its dirty flag. Reports whether the page was
// resident.
func (p *PoolManager) FlushPage(id pagestore.PageID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flushLocked(id)
}

func (p *PoolManager) flushLocked(id pagestore.PageID) bool {
	fid, ok := p.pageTbl.Find(id)
	if !ok {
		return false
	}
	f := &p.frames[fid]
	if err := p.disk.WritePage(id, &f.page); err != nil {
		p.log.Error("buffer: flush failed", "page_id", id, "err", err)
		return false
	}
	f.isDirty = false
	return true
}

// FlushAllPages flushes every resident page, skipping frames that hold
// no page (InvalidPageID).
func (p *PoolManager) FlushAllPages() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.frames {
		id := p.frames[i].pageID
		if id == pagestore.InvalidPageID {
			continue
		}
		p.flushLocked(id)
	}
}

// DeletePage removes a page from the pool and the underlying disk
// manager. Returns false if the page is currently pinned; returns true
// (a no-op) if the page wasn't resident at all.
func (p *PoolManager) DeletePage(id pagestore.PageID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, ok := p.pageTbl.Find(id)
	if !ok {
		return true
	}
	f := &p.frames[fid]
	if f.pinCount > 0 {
		return false
	}

	p.pageTbl.Remove(id)
	p.replacer.Remove(int(fid))
	f.reset()
	p.freeList = append(p.freeList, fid)

	if err := p.disk.DeallocatePage(id); err != nil {
		p.log.Warn("buffer: deallocate failed", "page_id", id, "err", err)
	}
	return true
}
