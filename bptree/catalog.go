package bptree

import (
	"encoding/binary"

	"pagestore"
	"pagestore/buffer"
)

// catalogNameCap bounds a name to 56 bytes so each directory slot is
// a fixed 66 bytes: uint16 name length, the zero-padded name, int64 root.
const (
	catalogNameCap   = 56
	catalogSlotSize  = 2 + catalogNameCap + 8
	catalogMaxSlots  = pagestore.PageSize / catalogSlotSize
)

// lookupRootPageID scans HeaderPageID for name, returning its stored
// root page id, or InvalidPageID if no record exists yet.
func lookupRootPageID(pool *buffer.PoolManager, name string) (pagestore.PageID, error) {
	page, err := pool.FetchPage(pagestore.HeaderPageID)
	if err != nil {
		return pagestore.InvalidPageID, err
	}
	defer pool.UnpinPage(pagestore.HeaderPageID, false)

	for i := 0; i < catalogMaxSlots; i++ {
		off := i * catalogSlotSize
		nameLen := int(binary.LittleEndian.Uint16(page.Data[off : off+2]))
		if nameLen == 0 {
			break
		}
		if string(page.Data[off+2:off+2+nameLen]) == name {
			rootOff := off + 2 + catalogNameCap
			return pagestore.PageID(int64(binary.LittleEndian.Uint64(page.Data[rootOff : rootOff+8]))), nil
		}
	}
	return pagestore.InvalidPageID, nil
}

// updateRootPageID records root as name's current root page id,
// inserting a new directory slot if name isn't already present (spec
// §6: HEADER_PAGE_ID stores a trivial directory of named root ids).
func updateRootPageID(pool *buffer.PoolManager, name string, root pagestore.PageID) error {
	if len(name) > catalogNameCap {
		name = name[:catalogNameCap]
	}

	page, err := pool.FetchPage(pagestore.HeaderPageID)
	if err != nil {
		return err
	}
	defer pool.UnpinPage(pagestore.HeaderPageID, true)

	for i := 0; i < catalogMaxSlots; i++ {
		off := i * catalogSlotSize
		nameLen := int(binary.LittleEndian.Uint16(page.Data[off : off+2]))
		if nameLen == 0 {
			binary.LittleEndian.PutUint16(page.Data[off:off+2], uint16(len(name)))
			copy(page.Data[off+2:off+2+catalogNameCap], name)
			rootOff := off + 2 + catalogNameCap
			binary.LittleEndian.PutUint64(page.Data[rootOff:rootOff+8], uint64(int64(root)))
			return nil
		}
		if string(page.Data[off+2:off+2+nameLen]) == name {
			rootOff := off + 2 + catalogNameCap
			binary.LittleEndian.PutUint64(page.Data[rootOff:rootOff+8], uint64(int64(root)))
			return nil
		}
	}
	return pagestore.ErrOutOfMemory
}
