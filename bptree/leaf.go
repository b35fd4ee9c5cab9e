package bptree

import (
	"encoding/binary"
	"sort"

	"pagestore"
)

type leafEntry struct {
	key   int64
	value pagestore.RID
}

// leafNode is the decoded, in-memory form of a B+ tree leaf page: a
// sorted array of (key, RID) pairs plus the next-page pointer forming
// the ascending leaf chain (spec §4.4.1).
type leafNode struct {
	pageID       pagestore.PageID
	parentPageID pagestore.PageID
	nextPageID   pagestore.PageID
	maxSize      int
	entries      []leafEntry
}

func decodeLeaf(p *pagestore.Page) *leafNode {
	size, maxSize := peekSizeMaxSize(p)
	n := &leafNode{
		pageID:       pagestore.PageID(int64(binary.LittleEndian.Uint64(p.Data[16:24]))),
		parentPageID: pagestore.PageID(int64(binary.LittleEndian.Uint64(p.Data[24:32]))),
		nextPageID:   pagestore.PageID(int64(binary.LittleEndian.Uint64(p.Data[32:40]))),
		maxSize:      maxSize,
		entries:      make([]leafEntry, size),
	}
	off := headerSize
	for i := 0; i < size; i++ {
		n.entries[i].key = int64(binary.LittleEndian.Uint64(p.Data[off : off+8]))
		n.entries[i].value.PageID = pagestore.PageID(int64(binary.LittleEndian.Uint64(p.Data[off+8 : off+16])))
		n.entries[i].value.SlotNum = binary.LittleEndian.Uint32(p.Data[off+16 : off+20])
		off += leafEntrySize
	}
	return n
}

func encodeLeaf(n *leafNode, p *pagestore.Page) {
	encodeCommonHeader(p, leafPage, len(n.entries), n.maxSize, n.pageID, n.parentPageID, n.nextPageID)
	off := headerSize
	for _, e := range n.entries {
		binary.LittleEndian.PutUint64(p.Data[off:off+8], uint64(e.key))
		binary.LittleEndian.PutUint64(p.Data[off+8:off+16], uint64(int64(e.value.PageID)))
		binary.LittleEndian.PutUint32(p.Data[off+16:off+20], e.value.SlotNum)
		off += leafEntrySize
	}
}

// insert places (key, value) in sorted position, rejecting duplicates.
// Returns the new size; a return equal to the size before the call
// means key was already present and nothing changed (spec §4.4.1).
func (n *leafNode) insert(key int64, value pagestore.RID) int {
	before := len(n.entries)
	idx := sort.Search(before, func(i int) bool { return n.entries[i].key >= key })
	if idx < before && n.entries[idx].key == key {
		return before
	}
	n.entries = append(n.entries, leafEntry{})
	copy(n.entries[idx+1:], n.entries[idx:before])
	n.entries[idx] = leafEntry{key: key, value: value}
	return len(n.entries)
}

func (n *leafNode) lookup(key int64) (pagestore.RID, bool) {
	idx := sort.Search(len(n.entries), func(i int) bool { return n.entries[i].key >= key })
	if idx < len(n.entries) && n.entries[idx].key == key {
		return n.entries[idx].value, true
	}
	return pagestore.RID{}, false
}

// remove deletes key if present, returning the new size (unchanged if
// the key wasn't found).
func (n *leafNode) remove(key int64) int {
	idx := sort.Search(len(n.entries), func(i int) bool { return n.entries[i].key >= key })
	if idx < len(n.entries) && n.entries[idx].key == key {
		n.entries = append(n.entries[:idx], n.entries[idx+1:]...)
	}
	return len(n.entries)
}

// moveHalfTo moves the upper half of n's entries (from min_size to the
// end) onto the front of a fresh sibling.
func (n *leafNode) moveHalfTo(sibling *leafNode) {
	min := leafMinSize(n.maxSize)
	sibling.entries = append(sibling.entries, n.entries[min:]...)
	n.entries = n.entries[:min]
}

func (n *leafNode) moveFirstToEndOf(receiver *leafNode) {
	e := n.entries[0]
	n.entries = n.entries[1:]
	receiver.entries = append(receiver.entries, e)
}

func (n *leafNode) moveLastToFrontOf(receiver *leafNode) {
	last := len(n.entries) - 1
	e := n.entries[last]
	n.entries = n.entries[:last]
	receiver.entries = append([]leafEntry{e}, receiver.entries...)
}

// moveAllTo merges n entirely into receiver (the left sibling), also
// splicing n out of the leaf chain.
func (n *leafNode) moveAllTo(receiver *leafNode) {
	receiver.entries = append(receiver.entries, n.entries...)
	receiver.nextPageID = n.nextPageID
	n.entries = nil
}
