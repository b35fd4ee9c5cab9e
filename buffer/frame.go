package buffer

import (
	"sync"

	"pagestore"
)

// frame is one slot of the pool's fixed-size backing array. Every page
// the pool currently holds resident lives in exactly one frame; latch
// guards the page's bytes against concurrent readers/writers the way
// the B+ tree's crabbing protocol expects (spec §5).
type frame struct {
	latch sync.RWMutex

	page      pagestore.Page
	pageID    pagestore.PageID
	pinCount  int
	isDirty   bool
}

func (f *frame) reset() {
	f.page.Reset()
	f.pageID = pagestore.InvalidPageID
	f.pinCount = 0
	f.isDirty = false
}
