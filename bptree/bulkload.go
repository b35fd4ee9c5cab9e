package bptree

import "pagestore"

// Pair is one (key, value) entry fed to BulkLoad.
type Pair struct {
	Key   int64
	Value pagestore.RID
}

// levelRef names one page built at the level below during bulk load:
// its id plus the smallest key reachable through it, used as the
// separator key when the parent level links to it.
type levelRef struct {
	pageID   pagestore.PageID
	firstKey int64
}

// BulkLoad builds the tree from pairs, which must already be in
// strictly ascending key order. It builds leaves
// back-to-back left to right, then internal levels bottom-up from
// their first-key references, which is far cheaper than repeated
// Insert calls for loading a large sorted dataset in one pass (spec
// §4.4.3 supplement). The tree must be empty; BulkLoad does not merge
// with existing data.
func (t *Tree) BulkLoad(pairs []Pair) error {
	if !t.IsEmpty() {
		return pagestore.ErrTreeNotEmpty
	}
	if len(pairs) == 0 {
		return nil
	}

	for i := 1; i < len(pairs); i++ {
		if pairs[i].Key <= pairs[i-1].Key {
			return pagestore.ErrKeysUnsorted
		}
	}

	refs, err := t.bulkBuildLeaves(pairs)
	if err != nil {
		return err
	}

	root, err := t.bulkBuildLevels(refs)
	if err != nil {
		return err
	}
	return t.setRootPageID(root)
}

// bulkBuildLeaves packs pairs into full leaves of at most leafMaxSize-1
// entries each (leaving split headroom matches ordinary inserts),
// chaining next_page_id left to right, and returns one levelRef per
// leaf for bulkBuildLevels to link. A fresh leaf always starts life
// with InvalidPageID as its parent, which is already correct for the
// single-leaf tree case (the leaf itself becomes the root); any
// multi-leaf case gets its parent set as soon as bulkBuildLevels links
// it into an internal node.
func (t *Tree) bulkBuildLeaves(pairs []Pair) ([]levelRef, error) {
	capacity := t.leafMaxSize - 1
	if capacity < 1 {
		capacity = 1
	}

	var pages []*pagestore.Page
	var nodes []*leafNode

	for start := 0; start < len(pairs); start += capacity {
		end := start + capacity
		if end > len(pairs) {
			end = len(pairs)
		}
		id, page, err := t.pool.NewPage()
		if err != nil {
			return nil, pagestore.ErrOutOfMemory
		}
		n := &leafNode{pageID: id, parentPageID: pagestore.InvalidPageID, nextPageID: pagestore.InvalidPageID, maxSize: t.leafMaxSize}
		for _, p := range pairs[start:end] {
			n.entries = append(n.entries, leafEntry{key: p.Key, value: p.Value})
		}
		pages = append(pages, page)
		nodes = append(nodes, n)
	}

	refs := make([]levelRef, len(nodes))
	for i, n := range nodes {
		if i+1 < len(nodes) {
			n.nextPageID = nodes[i+1].pageID
		}
		encodeLeaf(n, pages[i])
		t.pool.UnpinPage(n.pageID, true)
		refs[i] = levelRef{pageID: n.pageID, firstKey: n.entries[0].key}
	}
	return refs, nil
}

// bulkBuildLevels builds internal levels bottom-up from refs (one
// level's worth of child page ids and their first keys) until a single
// root remains, reparenting each level's children as it links them.
func (t *Tree) bulkBuildLevels(refs []levelRef) (pagestore.PageID, error) {
	if len(refs) == 1 {
		return refs[0].pageID, nil
	}

	capacity := t.internalMaxSize
	if capacity < 2 {
		capacity = 2
	}

	var next []levelRef
	for start := 0; start < len(refs); start += capacity {
		end := start + capacity
		if end > len(refs) {
			end = len(refs)
		}
		chunk := refs[start:end]

		id, page, err := t.pool.NewPage()
		if err != nil {
			return pagestore.InvalidPageID, pagestore.ErrOutOfMemory
		}
		n := &internalNode{pageID: id, parentPageID: pagestore.InvalidPageID, maxSize: t.internalMaxSize}
		for i, r := range chunk {
			key := int64(0)
			if i > 0 {
				key = r.firstKey
			}
			n.entries = append(n.entries, internalEntry{key: key, child: r.pageID})
			if err := setParentPageID(t.pool, r.pageID, id); err != nil {
				return pagestore.InvalidPageID, err
			}
		}
		encodeInternal(n, page)
		t.pool.UnpinPage(id, true)

		next = append(next, levelRef{pageID: id, firstKey: chunk[0].firstKey})
	}

	return t.bulkBuildLevels(next)
}
