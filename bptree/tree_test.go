package bptree

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagestore"
	"pagestore/buffer"
	"pagestore/disk"
)

func newTestTree(t *testing.T, leafMax, internalMax int) (*buffer.PoolManager, *Tree) {
	t.Helper()
	pool := buffer.New(64, disk.NewMemoryManager())
	tree, err := New(pool, "idx_test", leafMax, internalMax)
	require.NoError(t, err)
	return pool, tree
}

func TestTree_EmptyTreeHasNoValuesAndNoRoot(t *testing.T) {
	_, tree := newTestTree(t, 4, 4)
	require.True(t, tree.IsEmpty())

	_, ok := tree.GetValue(1)
	assert.False(t, ok)
}

func TestTree_InsertThenGetValueRoundTrips(t *testing.T) {
	_, tree := newTestTree(t, 4, 4)

	ok, err := tree.Insert(1, pagestore.RID{PageID: 10, SlotNum: 1})
	require.NoError(t, err)
	require.True(t, ok)

	v, found := tree.GetValue(1)
	require.True(t, found)
	assert.Equal(t, pagestore.RID{PageID: 10, SlotNum: 1}, v)
}

func TestTree_InsertDuplicateKeyFails(t *testing.T) {
	_, tree := newTestTree(t, 4, 4)

	ok, err := tree.Insert(1, pagestore.RID{PageID: 1})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = tree.Insert(1, pagestore.RID{PageID: 2})
	require.NoError(t, err)
	assert.False(t, ok)

	v, _ := tree.GetValue(1)
	assert.Equal(t, pagestore.PageID(1), v.PageID, "second insert must not overwrite the first")
}

func TestTree_InsertForcesLeafSplitAndNewRoot(t *testing.T) {
	// leaf_max=3, internal_max=3: the third insert fills the root leaf to
	// leaf_max, which splits it and creates a new internal root.
	_, tree := newTestTree(t, 3, 3)

	for _, k := range []int64{10, 20, 30, 40, 5} {
		ok, err := tree.Insert(k, pagestore.RID{PageID: pagestore.PageID(k)})
		require.NoError(t, err)
		require.True(t, ok)
	}

	for _, k := range []int64{10, 20, 30, 40, 5} {
		v, ok := tree.GetValue(k)
		require.True(t, ok, "key %d missing after splits", k)
		assert.Equal(t, pagestore.PageID(k), v.PageID)
	}
}

func TestTree_InsertManyKeysInRandomOrderAllResolve(t *testing.T) {
	_, tree := newTestTree(t, 5, 5)

	keys := rand.New(rand.NewSource(1)).Perm(200)
	for _, k := range keys {
		ok, err := tree.Insert(int64(k), pagestore.RID{PageID: pagestore.PageID(k)})
		require.NoError(t, err)
		require.True(t, ok)
	}

	for _, k := range keys {
		v, ok := tree.GetValue(int64(k))
		require.True(t, ok)
		assert.Equal(t, pagestore.PageID(k), v.PageID)
	}
}

func TestTree_RemoveTriggersRedistributeAndMerge(t *testing.T) {
	_, tree := newTestTree(t, 3, 3)

	keys := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	for _, k := range keys {
		_, err := tree.Insert(k, pagestore.RID{PageID: pagestore.PageID(k)})
		require.NoError(t, err)
	}

	// Remove a shifting subset; every remaining key must still resolve
	// and every removed key must be gone, regardless of whether the
	// rebalance took the redistribute or the merge path.
	toRemove := []int64{5, 6, 7, 1, 10}
	for _, k := range toRemove {
		require.NoError(t, tree.Remove(k))
	}

	removed := map[int64]bool{}
	for _, k := range toRemove {
		removed[k] = true
	}
	for _, k := range keys {
		v, ok := tree.GetValue(k)
		if removed[k] {
			assert.False(t, ok, "key %d should have been removed", k)
		} else {
			require.True(t, ok, "key %d should still be present", k)
			assert.Equal(t, pagestore.PageID(k), v.PageID)
		}
	}
}

func TestTree_RemoveAllKeysEmptiesTree(t *testing.T) {
	_, tree := newTestTree(t, 3, 3)

	for k := int64(1); k <= 30; k++ {
		_, err := tree.Insert(k, pagestore.RID{PageID: pagestore.PageID(k)})
		require.NoError(t, err)
	}
	for k := int64(1); k <= 30; k++ {
		require.NoError(t, tree.Remove(k))
	}

	assert.True(t, tree.IsEmpty())
	_, ok := tree.GetValue(1)
	assert.False(t, ok)
}

func TestTree_RemoveMissingKeyIsNoop(t *testing.T) {
	_, tree := newTestTree(t, 4, 4)
	_, err := tree.Insert(1, pagestore.RID{PageID: 1})
	require.NoError(t, err)

	require.NoError(t, tree.Remove(999))

	v, ok := tree.GetValue(1)
	require.True(t, ok)
	assert.Equal(t, pagestore.PageID(1), v.PageID)
}

func TestTree_IterationVisitsKeysInAscendingOrder(t *testing.T) {
	_, tree := newTestTree(t, 4, 4)

	keys := []int64{5, 1, 9, 3, 7, 2, 8, 4, 6}
	for _, k := range keys {
		_, err := tree.Insert(k, pagestore.RID{PageID: pagestore.PageID(k)})
		require.NoError(t, err)
	}

	var got []int64
	it := tree.Begin()
	for it.Valid() {
		got = append(got, it.Key())
		it.Next()
	}
	it.Close()

	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestTree_BeginAtSeeksToFirstKeyGreaterOrEqual(t *testing.T) {
	_, tree := newTestTree(t, 4, 4)
	for _, k := range []int64{10, 20, 30, 40} {
		_, err := tree.Insert(k, pagestore.RID{})
		require.NoError(t, err)
	}

	it := tree.BeginAt(25)
	require.True(t, it.Valid())
	assert.Equal(t, int64(30), it.Key())
	it.Close()
}

func TestTree_CatalogPersistsRootAcrossReopen(t *testing.T) {
	pool := buffer.New(64, disk.NewMemoryManager())

	tree1, err := New(pool, "orders", 4, 4)
	require.NoError(t, err)
	_, err = tree1.Insert(1, pagestore.RID{PageID: 1})
	require.NoError(t, err)

	tree2, err := New(pool, "orders", 4, 4)
	require.NoError(t, err)
	assert.Equal(t, tree1.GetRootPageId(), tree2.GetRootPageId())

	v, ok := tree2.GetValue(1)
	require.True(t, ok)
	assert.Equal(t, pagestore.PageID(1), v.PageID)
}

func TestTree_DistinctNamesGetIndependentRoots(t *testing.T) {
	pool := buffer.New(64, disk.NewMemoryManager())

	a, err := New(pool, "a", 4, 4)
	require.NoError(t, err)
	b, err := New(pool, "b", 4, 4)
	require.NoError(t, err)

	_, err = a.Insert(1, pagestore.RID{PageID: 1})
	require.NoError(t, err)

	assert.True(t, b.IsEmpty())
	_, ok := b.GetValue(1)
	assert.False(t, ok)
}

func TestTree_InsertFromFileAndRemoveFromFile(t *testing.T) {
	_, tree := newTestTree(t, 4, 4)

	insertData := "1 100\n2 200\n3 300\n"
	require.NoError(t, tree.InsertFromFile(strings.NewReader(insertData)))

	for _, k := range []int64{1, 2, 3} {
		_, ok := tree.GetValue(k)
		require.True(t, ok)
	}

	require.NoError(t, tree.RemoveFromFile(strings.NewReader("2\n")))
	_, ok := tree.GetValue(2)
	assert.False(t, ok)
	_, ok = tree.GetValue(1)
	assert.True(t, ok)
}

func TestTree_ConcurrentInsertWhileReading(t *testing.T) {
	_, tree := newTestTree(t, 5, 5)

	const n = 1000
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := int64(0); i < n; i++ {
			_, err := tree.Insert(i, pagestore.RID{PageID: pagestore.PageID(i)})
			assert.NoError(t, err)
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			// Values may or may not have been inserted yet; this just
			// exercises concurrent latch-crabbing descents without
			// asserting presence.
			tree.GetValue(int64(i % n))
		}
	}()

	wg.Wait()

	for i := int64(0); i < n; i++ {
		v, ok := tree.GetValue(i)
		require.True(t, ok, fmt.Sprintf("key %d missing after concurrent insert", i))
		assert.Equal(t, pagestore.PageID(i), v.PageID)
	}
}
