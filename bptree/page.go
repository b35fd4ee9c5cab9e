// Package bptree implements a unique-key, order-preserving B+ tree
// index stored as pages in a buffer.PoolManager, using latch-crabbing
// for concurrent descents and split/merge/redistribute for rebalancing
// (spec §4.4). Keys are int64 and values are pagestore.RID, matching
// the index's role as a secondary structure over tuple storage.
package bptree

import (
	"encoding/binary"

	"pagestore"
)

type pageType uint8

const (
	leafPage     pageType = 1
	internalPage pageType = 2
)

// Common header layout, shared by leaf and internal pages:
//
//	offset 0:  page type (1 byte)
//	offset 8:  size (int32)
//	offset 12: max size (int32)
//	offset 16: page id (int64)
//	offset 24: parent page id (int64)
//	offset 32: next page id (int64, leaf chain pointer; unused by internal pages)
const headerSize = 40

// leafEntrySize is the packed size of one (key, RID) pair: int64 key +
// int64 RID.PageID + uint32 RID.SlotNum.
const leafEntrySize = 20

// internalEntrySize is the packed size of one (key, child page id) pair.
const internalEntrySize = 16

// MaxLeafEntries and MaxInternalEntries are the physical capacity a
// single PageSize page can hold; a tree's configured leaf_max_size and
// internal_max_size must not exceed these.
const (
	MaxLeafEntries     = (pagestore.PageSize - headerSize) / leafEntrySize
	MaxInternalEntries = (pagestore.PageSize - headerSize) / internalEntrySize
)

func isLeafPage(p *pagestore.Page) bool {
	return pageType(p.Data[0]) == leafPage
}

func peekSizeMaxSize(p *pagestore.Page) (size, maxSize int) {
	size = int(int32(binary.LittleEndian.Uint32(p.Data[8:12])))
	maxSize = int(int32(binary.LittleEndian.Uint32(p.Data[12:16])))
	return
}

func peekParentPageID(p *pagestore.Page) pagestore.PageID {
	return pagestore.PageID(int64(binary.LittleEndian.Uint64(p.Data[24:32])))
}

func encodeCommonHeader(p *pagestore.Page, pt pageType, size, maxSize int, pageID, parentID, nextID pagestore.PageID) {
	b := p.Data[:]
	b[0] = byte(pt)
	binary.LittleEndian.PutUint32(b[8:12], uint32(int32(size)))
	binary.LittleEndian.PutUint32(b[12:16], uint32(int32(maxSize)))
	binary.LittleEndian.PutUint64(b[16:24], uint64(int64(pageID)))
	binary.LittleEndian.PutUint64(b[24:32], uint64(int64(parentID)))
	binary.LittleEndian.PutUint64(b[32:40], uint64(int64(nextID)))
}

// setParentPageID patches a resident page's parent pointer in place,
// the way reparenting a moved child touches only its header field
// without otherwise disturbing its entries (spec §4.4.1).
func setParentPageID(pool poolManager, child, parent pagestore.PageID) error {
	page, err := pool.FetchPage(child)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(page.Data[24:32], uint64(int64(parent)))
	pool.UnpinPage(child, true)
	return nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func leafMinSize(maxSize int) int {
	return ceilDiv(maxSize-1, 2)
}

func internalMinSize(maxSize int) int {
	return ceilDiv(maxSize, 2)
}

// poolManager is the subset of buffer.PoolManager that node-level
// helpers use: fetching and unpinning pages, nothing else.
type poolManager interface {
	FetchPage(id pagestore.PageID) (*pagestore.Page, error)
	UnpinPage(id pagestore.PageID, isDirty bool) bool
}
