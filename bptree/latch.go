package bptree

import "pagestore"

// heldLatches models a writer's stack of exclusive ancestor latches
// accumulated while descending the tree, plus the root-id latch
// sentinel (represented here by pagestore.InvalidPageID), so one release routine
// handles both (spec §4.4.3, §9).
type heldLatches struct {
	tree    *Tree
	entries []pagestore.PageID
}

const sentinelRootLatch = pagestore.InvalidPageID

func (h *heldLatches) pushRoot() {
	h.entries = append(h.entries, sentinelRootLatch)
}

func (h *heldLatches) push(id pagestore.PageID) {
	h.entries = append(h.entries, id)
}

// release unlatches and unpins every entry, FIFO, then empties the
// stack. Safe to call multiple times; a second call is a no-op.
func (h *heldLatches) release() {
	for _, id := range h.entries {
		if id == sentinelRootLatch {
			h.tree.rootLatch.Unlock()
			continue
		}
		h.tree.pool.Latch(id).Unlock()
		h.tree.pool.UnpinPage(id, false)
	}
	h.entries = h.entries[:0]
}
