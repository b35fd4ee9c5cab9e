package bptree

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"pagestore"
	"pagestore/buffer"
)

// opKind distinguishes the safety predicate and latch mode used while
// descending the tree (spec §4.4.2-§4.4.4).
type opKind int

const (
	opSearch opKind = iota
	opInsert
	opDelete
)

// Tree is a concurrent, unique-key B+ tree index over a buffer pool.
// Descents use latch-crabbing: readers release a parent's latch as
// soon as a child is latched, writers hold a stack of ancestor latches
// (heldLatches) released once a node is known safe for the operation.
type Tree struct {
	name      string
	pool      *buffer.PoolManager
	log       pagestore.Logger
	rootLatch sync.RWMutex

	leafMaxSize     int
	internalMaxSize int

	mu         sync.Mutex // guards rootPageID against concurrent StartNewTree/AdjustRoot races
	rootPageID pagestore.PageID
}

// New opens (or creates) the named index backed by pool, persisting
// its root page id in the header page's catalog (spec §6).
func New(pool *buffer.PoolManager, name string, leafMaxSize, internalMaxSize int, opts ...Option) (*Tree, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if leafMaxSize > MaxLeafEntries {
		leafMaxSize = MaxLeafEntries
	}
	if internalMaxSize > MaxInternalEntries {
		internalMaxSize = MaxInternalEntries
	}

	root, err := lookupRootPageID(pool, name)
	if err != nil {
		return nil, err
	}

	return &Tree{
		name:            name,
		pool:            pool,
		log:             o.logger,
		leafMaxSize:     leafMaxSize,
		internalMaxSize: internalMaxSize,
		rootPageID:      root,
	}, nil
}

// IsEmpty reports whether the tree currently has no root.
func (t *Tree) IsEmpty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rootPageID == pagestore.InvalidPageID
}

// GetRootPageId returns the tree's current root page id, or
// InvalidPageID if the tree is empty.
func (t *Tree) GetRootPageId() pagestore.PageID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rootPageID
}

func (t *Tree) setRootPageID(id pagestore.PageID) error {
	t.mu.Lock()
	t.rootPageID = id
	t.mu.Unlock()
	return updateRootPageID(t.pool, t.name, id)
}

/*****************************************************************************
 * SEARCH
 *****************************************************************************/

// GetValue returns the value associated with key, if present.
func (t *Tree) GetValue(key int64) (pagestore.RID, bool) {
	t.rootLatch.RLock()

	root := t.GetRootPageId()
	if root == pagestore.InvalidPageID {
		t.rootLatch.RUnlock()
		return pagestore.RID{}, false
	}

	page, err := t.pool.FetchPage(root)
	if err != nil {
		t.rootLatch.RUnlock()
		return pagestore.RID{}, false
	}
	latch := t.pool.Latch(root)
	latch.RLock()
	t.rootLatch.RUnlock()

	curID, curPage, curLatch := root, page, latch
	for !isLeafPage(curPage) {
		internal := decodeInternal(curPage)
		childID := internal.lookupChild(key)

		childPage, err := t.pool.FetchPage(childID)
		if err != nil {
			curLatch.RUnlock()
			t.pool.UnpinPage(curID, false)
			return pagestore.RID{}, false
		}
		childLatch := t.pool.Latch(childID)
		childLatch.RLock()

		curLatch.RUnlock()
		t.pool.UnpinPage(curID, false)

		curID, curPage, curLatch = childID, childPage, childLatch
	}

	leaf := decodeLeaf(curPage)
	val, ok := leaf.lookup(key)
	curLatch.RUnlock()
	t.pool.UnpinPage(curID, false)
	return val, ok
}

/*****************************************************************************
 * NODE SAFETY / DESCENT
 *****************************************************************************/

func (t *Tree) nodeSafe(page *pagestore.Page, op opKind) bool {
	leaf := isLeafPage(page)
	size, maxSize := peekSizeMaxSize(page)
	switch op {
	case opInsert:
		if leaf {
			return size < maxSize-1
		}
		return size < maxSize
	case opDelete:
		var minSize int
		if leaf {
			minSize = leafMinSize(maxSize)
		} else {
			minSize = internalMinSize(maxSize)
		}
		return size > minSize
	default:
		return true
	}
}

// findLeafForWrite descends under write-crabbing for insert or delete,
// releasing held ancestor latches (and the root-id sentinel) as soon
// as a node is known safe. Returns the leaf still write-latched and
// pinned; the caller releases it.
func (t *Tree) findLeafForWrite(key int64, held *heldLatches, op opKind) (pagestore.PageID, *pagestore.Page, error) {
	root := t.GetRootPageId()
	page, err := t.pool.FetchPage(root)
	if err != nil {
		return pagestore.InvalidPageID, nil, err
	}
	latch := t.pool.Latch(root)
	latch.Lock()

	if t.nodeSafe(page, op) {
		held.release()
	}

	curID, curPage := root, page
	for !isLeafPage(curPage) {
		internal := decodeInternal(curPage)
		childID := internal.lookupChild(key)

		childPage, err := t.pool.FetchPage(childID)
		if err != nil {
			t.pool.Latch(curID).Unlock()
			t.pool.UnpinPage(curID, false)
			held.release()
			return pagestore.InvalidPageID, nil, err
		}
		childLatch := t.pool.Latch(childID)
		childLatch.Lock()

		held.push(curID)
		if t.nodeSafe(childPage, op) {
			held.release()
		}

		curID, curPage = childID, childPage
	}
	return curID, curPage, nil
}

/*****************************************************************************
 * INSERTION
 *****************************************************************************/

// Insert places (key, value) in the tree. Returns false without
// modifying the tree if key is already present.
func (t *Tree) Insert(key int64, value pagestore.RID) (bool, error) {
	t.rootLatch.Lock()
	held := &heldLatches{tree: t}
	held.pushRoot()

	if t.IsEmpty() {
		err := t.startNewTree(key, value)
		held.release()
		return err == nil, err
	}
	return t.insertIntoLeaf(key, value, held)
}

func (t *Tree) startNewTree(key int64, value pagestore.RID) error {
	id, page, err := t.pool.NewPage()
	if err != nil {
		return pagestore.ErrOutOfMemory
	}
	leaf := &leafNode{pageID: id, parentPageID: pagestore.InvalidPageID, nextPageID: pagestore.InvalidPageID, maxSize: t.leafMaxSize}
	leaf.insert(key, value)
	encodeLeaf(leaf, page)
	t.pool.UnpinPage(id, true)

	return t.setRootPageID(id)
}

func (t *Tree) insertIntoLeaf(key int64, value pagestore.RID, held *heldLatches) (bool, error) {
	leafID, leafPage, err := t.findLeafForWrite(key, held, opInsert)
	if err != nil {
		held.release()
		return false, err
	}
	leafLatch := t.pool.Latch(leafID)
	leaf := decodeLeaf(leafPage)

	before := len(leaf.entries)
	after := leaf.insert(key, value)

	if after == before {
		held.release()
		leafLatch.Unlock()
		t.pool.UnpinPage(leafID, false)
		return false, nil
	}
	if after < t.leafMaxSize {
		encodeLeaf(leaf, leafPage)
		held.release()
		leafLatch.Unlock()
		t.pool.UnpinPage(leafID, true)
		return true, nil
	}

	siblingID, siblingPage, err := t.pool.NewPage()
	if err != nil {
		t.log.Warn("bptree: leaf split failed to allocate sibling page", "leaf_id", leafID, "err", err)
		held.release()
		leafLatch.Unlock()
		t.pool.UnpinPage(leafID, false)
		return false, pagestore.ErrOutOfMemory
	}
	sibling := &leafNode{pageID: siblingID, parentPageID: leaf.parentPageID, maxSize: t.leafMaxSize, nextPageID: leaf.nextPageID}
	leaf.moveHalfTo(sibling)
	leaf.nextPageID = siblingID

	encodeLeaf(leaf, leafPage)
	encodeLeaf(sibling, siblingPage)
	t.log.Info("bptree: leaf split", "leaf_id", leafID, "sibling_id", siblingID, "separator", sibling.entries[0].key)

	err = t.insertIntoParent(leafID, siblingID, sibling.entries[0].key, leaf.parentPageID, held)

	leafLatch.Unlock()
	t.pool.UnpinPage(leafID, true)
	t.pool.UnpinPage(siblingID, true)
	return err == nil, err
}

// insertIntoParent installs a new (separator, newChild) routing entry
// into old's parent, splitting the parent (possibly cascading to the
// grandparent) if it's already full, or creating a new root if old was
// the root (spec §4.4.3).
func (t *Tree) insertIntoParent(oldID, newID pagestore.PageID, sepKey int64, parentID pagestore.PageID, held *heldLatches) error {
	if parentID == pagestore.InvalidPageID {
		rootID, rootPage, err := t.pool.NewPage()
		if err != nil {
			held.release()
			return pagestore.ErrOutOfMemory
		}
		root := &internalNode{pageID: rootID, parentPageID: pagestore.InvalidPageID, maxSize: t.internalMaxSize}
		root.entries = []internalEntry{{key: 0, child: oldID}, {key: sepKey, child: newID}}
		encodeInternal(root, rootPage)
		t.pool.UnpinPage(rootID, true)

		if err := setParentPageID(t.pool, oldID, rootID); err != nil {
			held.release()
			return err
		}
		if err := setParentPageID(t.pool, newID, rootID); err != nil {
			held.release()
			return err
		}

		err = t.setRootPageID(rootID)
		held.release()
		return err
	}

	parentPage, err := t.pool.FetchPage(parentID)
	if err != nil {
		held.release()
		return err
	}
	parent := decodeInternal(parentPage)

	if len(parent.entries) < t.internalMaxSize {
		parent.insert(sepKey, newID)
		encodeInternal(parent, parentPage)
		held.release()
		t.pool.UnpinPage(parentID, true)
		return nil
	}

	// Parent is full: grow it in an over-sized scratch copy, then split
	// the scratch at the configured min size (spec §4.4.3).
	scratch := &internalNode{pageID: parent.pageID, parentPageID: parent.parentPageID, maxSize: t.internalMaxSize + 1}
	scratch.entries = append(scratch.entries, parent.entries...)
	scratch.insert(sepKey, newID)

	siblingID, siblingPage, err := t.pool.NewPage()
	if err != nil {
		t.log.Warn("bptree: internal split failed to allocate sibling page", "node_id", parentID, "err", err)
		t.pool.UnpinPage(parentID, false)
		held.release()
		return pagestore.ErrOutOfMemory
	}
	sibling := &internalNode{pageID: siblingID, parentPageID: parent.parentPageID, maxSize: t.internalMaxSize}
	if err := scratch.moveHalfToAt(sibling, internalMinSize(t.internalMaxSize), t.pool); err != nil {
		t.pool.UnpinPage(parentID, false)
		t.pool.UnpinPage(siblingID, false)
		held.release()
		return err
	}

	parent.entries = scratch.entries
	encodeInternal(parent, parentPage)
	encodeInternal(sibling, siblingPage)
	t.log.Info("bptree: internal split", "node_id", parentID, "sibling_id", siblingID, "separator", sibling.entries[0].key)

	siblingFirstKey := sibling.entries[0].key
	err = t.insertIntoParent(parent.pageID, sibling.pageID, siblingFirstKey, parent.parentPageID, held)

	t.pool.UnpinPage(parentID, true)
	t.pool.UnpinPage(siblingID, true)
	return err
}

/*****************************************************************************
 * DELETE
 *****************************************************************************/

// Remove deletes key from the tree, rebalancing via redistribution or
// coalescing as needed. A no-op if the tree is empty or key is absent.
func (t *Tree) Remove(key int64) error {
	t.rootLatch.Lock()
	held := &heldLatches{tree: t}
	held.pushRoot()

	if t.IsEmpty() {
		held.release()
		return nil
	}

	leafID, leafPage, err := t.findLeafForWrite(key, held, opDelete)
	if err != nil {
		held.release()
		return err
	}
	leafLatch := t.pool.Latch(leafID)
	leaf := decodeLeaf(leafPage)

	before := len(leaf.entries)
	leaf.remove(key)
	if len(leaf.entries) == before {
		// key wasn't present
		held.release()
		leafLatch.Unlock()
		t.pool.UnpinPage(leafID, false)
		return nil
	}
	encodeLeaf(leaf, leafPage)

	deleteSelf, err := t.coalesceOrRedistributeLeaf(leaf, leafPage, held)
	leafLatch.Unlock()
	t.pool.UnpinPage(leafID, true)
	if err != nil {
		return err
	}
	if deleteSelf {
		t.pool.DeletePage(leafID)
	}
	return nil
}

// coalesceOrRedistributeLeaf rebalances an underflowing leaf, reporting
// whether leaf itself (not a sibling) is now garbage and must be
// deleted by the caller once it has released leaf's latch and pin
// (spec §4.4.4). Node-level merges always fold the right sibling's
// entries into the left one, so which page id survives a merge
// depends on whether the chosen sibling sits to the left or right.
func (t *Tree) coalesceOrRedistributeLeaf(leaf *leafNode, leafPage *pagestore.Page, held *heldLatches) (bool, error) {
	if leaf.parentPageID == pagestore.InvalidPageID {
		empty := len(leaf.entries) == 0
		if empty {
			if err := t.setRootPageID(pagestore.InvalidPageID); err != nil {
				held.release()
				return false, err
			}
		}
		held.release()
		return empty, nil
	}

	if len(leaf.entries) >= leafMinSize(leaf.maxSize) {
		held.release()
		return false, nil
	}

	parentPage, err := t.pool.FetchPage(leaf.parentPageID)
	if err != nil {
		held.release()
		return false, err
	}
	parent := decodeInternal(parentPage)
	idx := parent.valueIndex(leaf.pageID)

	if idx > 0 {
		siblingID := parent.valueAt(idx - 1)
		siblingPage, err := t.pool.FetchPage(siblingID)
		if err != nil {
			t.pool.UnpinPage(leaf.parentPageID, false)
			held.release()
			return false, err
		}
		siblingLatch := t.pool.Latch(siblingID)
		siblingLatch.Lock()
		sibling := decodeLeaf(siblingPage)

		if len(sibling.entries) > leafMinSize(sibling.maxSize) {
			sibling.moveLastToFrontOf(leaf)
			parent.setKeyAt(idx, leaf.entries[0].key)
			encodeLeaf(leaf, leafPage)
			encodeLeaf(sibling, siblingPage)
			encodeInternal(parent, parentPage)
			t.log.Info("bptree: leaf redistribute from left sibling", "leaf_id", leaf.pageID, "sibling_id", siblingID)
			held.release()
			t.pool.UnpinPage(leaf.parentPageID, true)
			siblingLatch.Unlock()
			t.pool.UnpinPage(siblingID, true)
			return false, nil
		}

		// leaf's entries fold into its left sibling; leaf becomes garbage.
		leaf.moveAllTo(sibling)
		parent.removeAt(idx)
		encodeLeaf(sibling, siblingPage)
		t.log.Info("bptree: leaf coalesce into left sibling", "leaf_id", leaf.pageID, "sibling_id", siblingID)
		siblingLatch.Unlock()
		t.pool.UnpinPage(siblingID, true)

		parentDeleteSelf, err := t.coalesceOrRedistributeInternal(parent, parentPage, held)
		t.pool.UnpinPage(leaf.parentPageID, true)
		if err != nil {
			return false, err
		}
		if parentDeleteSelf {
			t.pool.DeletePage(parent.pageID)
		}
		return true, nil
	}

	// idx == 0: no left sibling, borrow from or merge with the right one.
	siblingID := parent.valueAt(idx + 1)
	siblingPage, err := t.pool.FetchPage(siblingID)
	if err != nil {
		t.pool.UnpinPage(leaf.parentPageID, false)
		held.release()
		return false, err
	}
	siblingLatch := t.pool.Latch(siblingID)
	siblingLatch.Lock()
	sibling := decodeLeaf(siblingPage)

	if len(sibling.entries) > leafMinSize(sibling.maxSize) {
		sibling.moveFirstToEndOf(leaf)
		parent.setKeyAt(idx+1, sibling.entries[0].key)
		encodeLeaf(leaf, leafPage)
		encodeLeaf(sibling, siblingPage)
		encodeInternal(parent, parentPage)
		t.log.Info("bptree: leaf redistribute from right sibling", "leaf_id", leaf.pageID, "sibling_id", siblingID)
		held.release()
		t.pool.UnpinPage(leaf.parentPageID, true)
		siblingLatch.Unlock()
		t.pool.UnpinPage(siblingID, true)
		return false, nil
	}

	// the right sibling's entries fold into leaf; sibling becomes garbage.
	sibling.moveAllTo(leaf)
	parent.removeAt(idx + 1)
	encodeLeaf(leaf, leafPage)
	t.log.Info("bptree: leaf coalesce with right sibling", "leaf_id", leaf.pageID, "sibling_id", siblingID)
	siblingLatch.Unlock()
	t.pool.UnpinPage(siblingID, true)
	t.pool.DeletePage(siblingID)

	parentDeleteSelf, err := t.coalesceOrRedistributeInternal(parent, parentPage, held)
	t.pool.UnpinPage(leaf.parentPageID, true)
	if err != nil {
		return false, err
	}
	if parentDeleteSelf {
		t.pool.DeletePage(parent.pageID)
	}
	return false, nil
}

// coalesceOrRedistributeInternal mirrors coalesceOrRedistributeLeaf
// for internal nodes, handling the root specially via adjustRoot.
func (t *Tree) coalesceOrRedistributeInternal(node *internalNode, nodePage *pagestore.Page, held *heldLatches) (bool, error) {
	// The caller just removed a child's entry from node; persist that
	// before any branch below returns without touching node again.
	encodeInternal(node, nodePage)

	if node.parentPageID == pagestore.InvalidPageID {
		deleteSelf, err := t.adjustRoot(node)
		held.release()
		return deleteSelf, err
	}
	if len(node.entries) >= internalMinSize(node.maxSize) {
		held.release()
		return false, nil
	}

	parentPage, err := t.pool.FetchPage(node.parentPageID)
	if err != nil {
		held.release()
		return false, err
	}
	parent := decodeInternal(parentPage)
	idx := parent.valueIndex(node.pageID)

	if idx > 0 {
		siblingID := parent.valueAt(idx - 1)
		siblingPage, err := t.pool.FetchPage(siblingID)
		if err != nil {
			t.pool.UnpinPage(node.parentPageID, false)
			held.release()
			return false, err
		}
		siblingLatch := t.pool.Latch(siblingID)
		siblingLatch.Lock()
		sibling := decodeInternal(siblingPage)

		if len(sibling.entries) > internalMinSize(sibling.maxSize) {
			middleKey := parent.keyAt(idx)
			if err := sibling.moveLastToFrontOf(node, middleKey, t.pool); err != nil {
				siblingLatch.Unlock()
				t.pool.UnpinPage(siblingID, false)
				t.pool.UnpinPage(node.parentPageID, false)
				held.release()
				return false, err
			}
			parent.setKeyAt(idx, node.entries[0].key)
			encodeInternal(node, nodePage)
			encodeInternal(sibling, siblingPage)
			encodeInternal(parent, parentPage)
			t.log.Info("bptree: internal redistribute from left sibling", "node_id", node.pageID, "sibling_id", siblingID)
			held.release()
			t.pool.UnpinPage(node.parentPageID, true)
			siblingLatch.Unlock()
			t.pool.UnpinPage(siblingID, true)
			return false, nil
		}

		// node folds into its left sibling; node becomes garbage.
		middleKey := parent.keyAt(idx)
		if err := node.moveAllTo(sibling, middleKey, t.pool); err != nil {
			siblingLatch.Unlock()
			t.pool.UnpinPage(siblingID, false)
			t.pool.UnpinPage(node.parentPageID, false)
			held.release()
			return false, err
		}
		parent.removeAt(idx)
		encodeInternal(sibling, siblingPage)
		t.log.Info("bptree: internal coalesce into left sibling", "node_id", node.pageID, "sibling_id", siblingID)
		siblingLatch.Unlock()
		t.pool.UnpinPage(siblingID, true)

		parentDeleteSelf, err := t.coalesceOrRedistributeInternal(parent, parentPage, held)
		t.pool.UnpinPage(node.parentPageID, true)
		if err != nil {
			return false, err
		}
		if parentDeleteSelf {
			t.pool.DeletePage(parent.pageID)
		}
		return true, nil
	}

	// idx == 0: no left sibling, borrow from or merge with the right one.
	siblingID := parent.valueAt(idx + 1)
	siblingPage, err := t.pool.FetchPage(siblingID)
	if err != nil {
		t.pool.UnpinPage(node.parentPageID, false)
		held.release()
		return false, err
	}
	siblingLatch := t.pool.Latch(siblingID)
	siblingLatch.Lock()
	sibling := decodeInternal(siblingPage)

	if len(sibling.entries) > internalMinSize(sibling.maxSize) {
		middleKey := parent.keyAt(idx + 1)
		if err := sibling.moveFirstToEndOf(node, middleKey, t.pool); err != nil {
			siblingLatch.Unlock()
			t.pool.UnpinPage(siblingID, false)
			t.pool.UnpinPage(node.parentPageID, false)
			held.release()
			return false, err
		}
		parent.setKeyAt(idx+1, sibling.entries[0].key)
		encodeInternal(node, nodePage)
		encodeInternal(sibling, siblingPage)
		encodeInternal(parent, parentPage)
		t.log.Info("bptree: internal redistribute from right sibling", "node_id", node.pageID, "sibling_id", siblingID)
		held.release()
		t.pool.UnpinPage(node.parentPageID, true)
		siblingLatch.Unlock()
		t.pool.UnpinPage(siblingID, true)
		return false, nil
	}

	// the right sibling folds into node; sibling becomes garbage.
	middleKey := parent.keyAt(idx + 1)
	if err := sibling.moveAllTo(node, middleKey, t.pool); err != nil {
		siblingLatch.Unlock()
		t.pool.UnpinPage(siblingID, false)
		t.pool.UnpinPage(node.parentPageID, false)
		held.release()
		return false, err
	}
	parent.removeAt(idx + 1)
	encodeInternal(node, nodePage)
	t.log.Info("bptree: internal coalesce with right sibling", "node_id", node.pageID, "sibling_id", siblingID)
	siblingLatch.Unlock()
	t.pool.UnpinPage(siblingID, true)
	t.pool.DeletePage(siblingID)

	parentDeleteSelf, err := t.coalesceOrRedistributeInternal(parent, parentPage, held)
	t.pool.UnpinPage(node.parentPageID, true)
	if err != nil {
		return false, err
	}
	if parentDeleteSelf {
		t.pool.DeletePage(parent.pageID)
	}
	return false, nil
}

// adjustRoot handles root-specific collapse after a delete: an
// internal root with a single remaining child is replaced by that
// child (spec §4.4.4).
func (t *Tree) adjustRoot(root *internalNode) (bool, error) {
	if len(root.entries) == 1 {
		onlyChild := root.entries[0].child
		if err := setParentPageID(t.pool, onlyChild, pagestore.InvalidPageID); err != nil {
			return false, err
		}
		if err := t.setRootPageID(onlyChild); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

/*****************************************************************************
 * ITERATION
 *****************************************************************************/

// Iterator walks leaf entries in ascending key order, crabbing across
// the leaf chain one page at a time (spec §4.4.5).
type Iterator struct {
	tree  *Tree
	id    pagestore.PageID
	page  *pagestore.Page
	leaf  *leafNode
	index int
}

// Begin positions an iterator at the first key in the tree.
func (t *Tree) Begin() *Iterator {
	return t.begin(false)
}

// End positions an iterator one past the last key in the tree.
func (t *Tree) End() *Iterator {
	return t.begin(true)
}

func (t *Tree) begin(rightmost bool) *Iterator {
	t.rootLatch.RLock()
	root := t.GetRootPageId()
	if root == pagestore.InvalidPageID {
		t.rootLatch.RUnlock()
		return &Iterator{tree: t}
	}

	page, err := t.pool.FetchPage(root)
	if err != nil {
		t.rootLatch.RUnlock()
		return &Iterator{tree: t}
	}
	latch := t.pool.Latch(root)
	latch.RLock()
	t.rootLatch.RUnlock()

	curID, curPage, curLatch := root, page, latch
	for !isLeafPage(curPage) {
		internal := decodeInternal(curPage)
		var childID pagestore.PageID
		if rightmost {
			childID = internal.entries[len(internal.entries)-1].child
		} else {
			childID = internal.entries[0].child
		}
		childPage, err := t.pool.FetchPage(childID)
		if err != nil {
			curLatch.RUnlock()
			t.pool.UnpinPage(curID, false)
			return &Iterator{tree: t}
		}
		childLatch := t.pool.Latch(childID)
		childLatch.RLock()
		curLatch.RUnlock()
		t.pool.UnpinPage(curID, false)
		curID, curPage, curLatch = childID, childPage, childLatch
	}

	leaf := decodeLeaf(curPage)
	idx := 0
	if rightmost {
		idx = len(leaf.entries)
	}
	return &Iterator{tree: t, id: curID, page: curPage, leaf: leaf, index: idx}
}

// BeginAt positions an iterator at the first key >= key.
func (t *Tree) BeginAt(key int64) *Iterator {
	t.rootLatch.RLock()
	root := t.GetRootPageId()
	if root == pagestore.InvalidPageID {
		t.rootLatch.RUnlock()
		return &Iterator{tree: t}
	}

	page, err := t.pool.FetchPage(root)
	if err != nil {
		t.rootLatch.RUnlock()
		return &Iterator{tree: t}
	}
	latch := t.pool.Latch(root)
	latch.RLock()
	t.rootLatch.RUnlock()

	curID, curPage, curLatch := root, page, latch
	for !isLeafPage(curPage) {
		internal := decodeInternal(curPage)
		childID := internal.lookupChild(key)
		childPage, err := t.pool.FetchPage(childID)
		if err != nil {
			curLatch.RUnlock()
			t.pool.UnpinPage(curID, false)
			return &Iterator{tree: t}
		}
		childLatch := t.pool.Latch(childID)
		childLatch.RLock()
		curLatch.RUnlock()
		t.pool.UnpinPage(curID, false)
		curID, curPage, curLatch = childID, childPage, childLatch
	}

	leaf := decodeLeaf(curPage)
	idx := 0
	for idx < len(leaf.entries) && leaf.entries[idx].key < key {
		idx++
	}
	it := &Iterator{tree: t, id: curID, page: curPage, leaf: leaf, index: idx}
	if idx == len(leaf.entries) {
		// every key in this leaf is < key, so the first key >= key (if
		// any) opens the next leaf in the chain
		it.index = idx - 1
		it.Next()
	}
	return it
}

// Valid reports whether the iterator currently points at an entry.
func (it *Iterator) Valid() bool {
	return it.leaf != nil && it.index < len(it.leaf.entries)
}

// Key and Value return the entry the iterator currently points at.
// Only meaningful when Valid() is true.
func (it *Iterator) Key() int64           { return it.leaf.entries[it.index].key }
func (it *Iterator) Value() pagestore.RID { return it.leaf.entries[it.index].value }

// Next advances the iterator, crossing into the next leaf via its
// next_page_id pointer when the current leaf is exhausted.
func (it *Iterator) Next() {
	if it.leaf == nil {
		return
	}
	it.index++
	if it.index < len(it.leaf.entries) {
		return
	}

	next := it.leaf.nextPageID
	it.tree.pool.Latch(it.id).RUnlock()
	it.tree.pool.UnpinPage(it.id, false)

	if next == pagestore.InvalidPageID {
		it.leaf = nil
		return
	}

	page, err := it.tree.pool.FetchPage(next)
	if err != nil {
		it.leaf = nil
		return
	}
	latch := it.tree.pool.Latch(next)
	latch.RLock()

	it.id, it.page, it.leaf, it.index = next, page, decodeLeaf(page), 0
}

// Close releases the iterator's currently held latch and pin, if any.
// Safe to call after iteration has run to completion.
func (it *Iterator) Close() {
	if it.leaf == nil {
		return
	}
	it.tree.pool.Latch(it.id).RUnlock()
	it.tree.pool.UnpinPage(it.id, false)
	it.leaf = nil
}

/*****************************************************************************
 * BULK TEXT DRIVERS
 *****************************************************************************/

// InsertFromFile reads whitespace-separated "key value" pairs (one per
// line) and inserts each in turn, stopping at the first error. Keys
// and values are both parsed as int64; value is stored as an RID with
// slot number 0, matching the driver format a course grader feeds the
// tree with (spec §6 supplement).
func (t *Tree) InsertFromFile(r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return fmt.Errorf("bptree: malformed line %q: want \"key value\"", line)
		}
		key, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return fmt.Errorf("bptree: bad key %q: %w", fields[0], err)
		}
		pageID, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return fmt.Errorf("bptree: bad value %q: %w", fields[1], err)
		}
		if _, err := t.Insert(key, pagestore.RID{PageID: pagestore.PageID(pageID)}); err != nil {
			return err
		}
	}
	return sc.Err()
}

// RemoveFromFile reads whitespace-separated keys (one per line) and
// removes each in turn, stopping at the first error (spec §6
// supplement).
func (t *Tree) RemoveFromFile(r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		key, err := strconv.ParseInt(strings.Fields(line)[0], 10, 64)
		if err != nil {
			return fmt.Errorf("bptree: bad key %q: %w", line, err)
		}
		if err := t.Remove(key); err != nil {
			return err
		}
	}
	return sc.Err()
}
