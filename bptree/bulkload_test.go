package bptree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagestore"
)

func TestBulkLoad_SingleLeafNeedsNoInternalLevel(t *testing.T) {
	_, tree := newTestTree(t, 8, 8)

	pairs := []Pair{
		{Key: 1, Value: pagestore.RID{PageID: 1}},
		{Key: 2, Value: pagestore.RID{PageID: 2}},
		{Key: 3, Value: pagestore.RID{PageID: 3}},
	}
	require.NoError(t, tree.BulkLoad(pairs))

	for _, p := range pairs {
		v, ok := tree.GetValue(p.Key)
		require.True(t, ok)
		assert.Equal(t, p.Value, v)
	}
}

func TestBulkLoad_ManyPairsBuildsMultiLevelTreeAndIterates(t *testing.T) {
	_, tree := newTestTree(t, 4, 4)

	var pairs []Pair
	for k := int64(0); k < 100; k++ {
		pairs = append(pairs, Pair{Key: k, Value: pagestore.RID{PageID: pagestore.PageID(k)}})
	}
	require.NoError(t, tree.BulkLoad(pairs))

	for _, p := range pairs {
		v, ok := tree.GetValue(p.Key)
		require.True(t, ok, "key %d missing after bulk load", p.Key)
		assert.Equal(t, p.Value, v)
	}

	var got []int64
	it := tree.Begin()
	for it.Valid() {
		got = append(got, it.Key())
		it.Next()
	}
	it.Close()
	require.Len(t, got, len(pairs))
	for i, k := range got {
		assert.Equal(t, int64(i), k)
	}
}

func TestBulkLoad_UnsortedInputIsRejected(t *testing.T) {
	_, tree := newTestTree(t, 4, 4)

	err := tree.BulkLoad([]Pair{
		{Key: 2, Value: pagestore.RID{PageID: 2}},
		{Key: 1, Value: pagestore.RID{PageID: 1}},
	})
	assert.ErrorIs(t, err, pagestore.ErrKeysUnsorted)
	assert.True(t, tree.IsEmpty())
}

func TestBulkLoad_DuplicateKeysAreRejectedAsUnsorted(t *testing.T) {
	_, tree := newTestTree(t, 4, 4)

	err := tree.BulkLoad([]Pair{
		{Key: 1, Value: pagestore.RID{PageID: 1}},
		{Key: 1, Value: pagestore.RID{PageID: 2}},
	})
	assert.ErrorIs(t, err, pagestore.ErrKeysUnsorted)
}

func TestBulkLoad_NonEmptyTreeIsRejected(t *testing.T) {
	_, tree := newTestTree(t, 4, 4)
	_, err := tree.Insert(5, pagestore.RID{PageID: 5})
	require.NoError(t, err)

	err = tree.BulkLoad([]Pair{{Key: 1, Value: pagestore.RID{PageID: 1}}})
	assert.ErrorIs(t, err, pagestore.ErrTreeNotEmpty)
}

func TestBulkLoad_EmptyInputIsNoop(t *testing.T) {
	_, tree := newTestTree(t, 4, 4)
	require.NoError(t, tree.BulkLoad(nil))
	assert.True(t, tree.IsEmpty())
}
