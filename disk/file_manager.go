package disk

import (
	"fmt"
	"os"
	"sync"

	"pagestore"
)

// FileManager implements Manager against a single flat file, one
// PageSize-aligned block per page id, growing the file as new pages
// are allocated. Page ids are handed out monotonically and never
// reused, matching the allocator the buffer pool assumes (spec §4).
type FileManager struct {
	mu       sync.Mutex
	file     *os.File
	nextPage pagestore.PageID
}

// NewFileManager opens (creating if absent) the database file at path.
func NewFileManager(path string) (*FileManager, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	m := &FileManager{file: f}

	if info.Size() == 0 {
		// Zero the reserved header page so it can be fetched
		// immediately, matching a freshly allocated page elsewhere.
		var empty pagestore.Page
		if err := m.writePageLocked(pagestore.HeaderPageID, &empty); err != nil {
			f.Close()
			return nil, err
		}
		m.nextPage = pagestore.HeaderPageID + 1
	} else {
		m.nextPage = pagestore.PageID(info.Size() / pagestore.PageSize)
		if m.nextPage <= pagestore.HeaderPageID {
			m.nextPage = pagestore.HeaderPageID + 1
		}
	}

	return m, nil
}

// ReadPage reads the block at id's offset into buf.
func (m *FileManager) ReadPage(id pagestore.PageID, buf *pagestore.Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	offset := int64(id) * pagestore.PageSize
	n, err := m.file.ReadAt(buf.Data[:], offset)
	if err != nil {
		return err
	}
	if n != pagestore.PageSize {
		return fmt.Errorf("disk: short read for page %d: got %d bytes, want %d", id, n, pagestore.PageSize)
	}
	return nil
}

// WritePage writes buf to the block at id's offset.
func (m *FileManager) WritePage(id pagestore.PageID, buf *pagestore.Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writePageLocked(id, buf)
}

func (m *FileManager) writePageLocked(id pagestore.PageID, buf *pagestore.Page) error {
	offset := int64(id) * pagestore.PageSize
	n, err := m.file.WriteAt(buf.Data[:], offset)
	if err != nil {
		return err
	}
	if n != pagestore.PageSize {
		return fmt.Errorf("disk: short write for page %d: wrote %d bytes, want %d", id, n, pagestore.PageSize)
	}
	return nil
}

// AllocatePage grows the file by one page and returns its id.
func (m *FileManager) AllocatePage() (pagestore.PageID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextPage
	m.nextPage++

	var empty pagestore.Page
	if err := m.writePageLocked(id, &empty); err != nil {
		m.nextPage--
		return pagestore.InvalidPageID, err
	}
	return id, nil
}

// DeallocatePage is advisory: page ids are never reused, so there is
// nothing for a flat-file manager to reclaim. It exists to satisfy
// Manager and to leave a hook for a real implementation that wants to
// punch a hole in the file or track free space for compaction.
func (m *FileManager) DeallocatePage(pagestore.PageID) error {
	return nil
}

// Close releases the underlying file handle.
func (m *FileManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.file.Close()
}

var _ Manager = (*FileManager)(nil)
