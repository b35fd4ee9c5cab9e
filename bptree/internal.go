package bptree

import (
	"encoding/binary"
	"sort"

	"pagestore"
)

type internalEntry struct {
	key   int64 // slot 0's key is a placeholder; only its child pointer is meaningful
	child pagestore.PageID
}

// internalNode is the decoded, in-memory form of a B+ tree internal
// page: a sorted array of (key, child page id) pairs where slot 0's
// key carries no routing information (spec §4.4.1).
type internalNode struct {
	pageID       pagestore.PageID
	parentPageID pagestore.PageID
	maxSize      int
	entries      []internalEntry
}

func decodeInternal(p *pagestore.Page) *internalNode {
	size, maxSize := peekSizeMaxSize(p)
	n := &internalNode{
		pageID:       pagestore.PageID(int64(binary.LittleEndian.Uint64(p.Data[16:24]))),
		parentPageID: pagestore.PageID(int64(binary.LittleEndian.Uint64(p.Data[24:32]))),
		maxSize:      maxSize,
		entries:      make([]internalEntry, size),
	}
	off := headerSize
	for i := 0; i < size; i++ {
		n.entries[i].key = int64(binary.LittleEndian.Uint64(p.Data[off : off+8]))
		n.entries[i].child = pagestore.PageID(int64(binary.LittleEndian.Uint64(p.Data[off+8 : off+16])))
		off += internalEntrySize
	}
	return n
}

func encodeInternal(n *internalNode, p *pagestore.Page) {
	encodeCommonHeader(p, internalPage, len(n.entries), n.maxSize, n.pageID, n.parentPageID, pagestore.InvalidPageID)
	off := headerSize
	for _, e := range n.entries {
		binary.LittleEndian.PutUint64(p.Data[off:off+8], uint64(e.key))
		binary.LittleEndian.PutUint64(p.Data[off+8:off+16], uint64(int64(e.child)))
		off += internalEntrySize
	}
}

func (n *internalNode) keyAt(i int) int64            { return n.entries[i].key }
func (n *internalNode) setKeyAt(i int, key int64)     { n.entries[i].key = key }
func (n *internalNode) valueAt(i int) pagestore.PageID { return n.entries[i].child }

func (n *internalNode) valueIndex(child pagestore.PageID) int {
	for i, e := range n.entries {
		if e.child == child {
			return i
		}
	}
	return -1
}

// lookupChild returns the child pointer of the largest slot with key
// <= k: binary-search the first slot (within [1,size)) with key > k,
// then step back one.
func (n *internalNode) lookupChild(key int64) pagestore.PageID {
	entries := n.entries[1:]
	idx := sort.Search(len(entries), func(i int) bool { return entries[i].key > key })
	return n.entries[idx].child // idx here indexes entries[1:], so n.entries[idx] is one slot back
}

// insert places (key, child) in sorted position among entries[1:],
// rejecting duplicate keys. Returns the new size.
func (n *internalNode) insert(key int64, child pagestore.PageID) int {
	before := len(n.entries)
	rest := n.entries[1:]
	pos := sort.Search(len(rest), func(i int) bool { return rest[i].key >= key })
	idx := pos + 1
	if idx < before && n.entries[idx].key == key {
		return before
	}
	n.entries = append(n.entries, internalEntry{})
	copy(n.entries[idx+1:], n.entries[idx:before])
	n.entries[idx] = internalEntry{key: key, child: child}
	return len(n.entries)
}

func (n *internalNode) removeAt(idx int) {
	n.entries = append(n.entries[:idx], n.entries[idx+1:]...)
}

// moveHalfTo splits n at its configured min size, moving the upper
// half to a fresh sibling and reparenting the moved children.
func (n *internalNode) moveHalfTo(sibling *internalNode, pool poolManager) error {
	return n.moveHalfToAt(sibling, internalMinSize(n.maxSize), pool)
}

// moveHalfToAt is moveHalfTo with an explicit split index, used by the
// oversized-scratch path in InsertIntoParent where the scratch's
// maxSize doesn't reflect the tree's configured min size.
func (n *internalNode) moveHalfToAt(sibling *internalNode, idx int, pool poolManager) error {
	moved := append([]internalEntry(nil), n.entries[idx:]...)
	sibling.entries = append(moved, sibling.entries...)
	n.entries = n.entries[:idx]
	for _, e := range sibling.entries {
		if err := setParentPageID(pool, e.child, sibling.pageID); err != nil {
			return err
		}
	}
	return nil
}

// moveFirstToEndOf moves n's first entry to the end of receiver. The
// moved entry's key is overwritten with middleKey (the separator
// pulled down from the parent), since it becomes real routing
// information only once it leaves slot 0.
func (n *internalNode) moveFirstToEndOf(receiver *internalNode, middleKey int64, pool poolManager) error {
	n.entries[0].key = middleKey
	moved := n.entries[0]
	n.entries = n.entries[1:]
	receiver.entries = append(receiver.entries, moved)
	return setParentPageID(pool, moved.child, receiver.pageID)
}

// moveLastToFrontOf moves n's last entry to the front of receiver.
// receiver's existing slot 0 entry is given middleKey as its key
// before being shifted to slot 1, since it stops being a placeholder.
func (n *internalNode) moveLastToFrontOf(receiver *internalNode, middleKey int64, pool poolManager) error {
	last := len(n.entries) - 1
	moved := n.entries[last]
	n.entries = n.entries[:last]

	if len(receiver.entries) > 0 {
		receiver.entries[0].key = middleKey
	}
	receiver.entries = append([]internalEntry{moved}, receiver.entries...)
	return setParentPageID(pool, moved.child, receiver.pageID)
}

// moveAllTo merges n entirely into receiver (the left sibling),
// pulling middleKey down to fill n's own slot 0 before the entries
// become indistinguishable from receiver's.
func (n *internalNode) moveAllTo(receiver *internalNode, middleKey int64, pool poolManager) error {
	n.entries[0].key = middleKey
	receiver.entries = append(receiver.entries, n.entries...)
	for _, e := range n.entries {
		if err := setParentPageID(pool, e.child, receiver.pageID); err != nil {
			return err
		}
	}
	n.entries = nil
	return nil
}
