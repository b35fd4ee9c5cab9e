package hashtable

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsertFindRemove(t *testing.T) {
	tbl := New[uint64, string](4, HashUint64)

	tbl.Insert(1, "a")
	tbl.Insert(2, "b")

	v, ok := tbl.Find(1)
	require.True(t, ok)
	require.Equal(t, "a", v)

	require.True(t, tbl.Remove(1))
	_, ok = tbl.Find(1)
	require.False(t, ok)

	require.False(t, tbl.Remove(1), "removing an absent key reports false")
}

func TestInsert_OverwritesExistingKey(t *testing.T) {
	tbl := New[uint64, string](4, HashUint64)
	tbl.Insert(1, "a")
	tbl.Insert(1, "b")

	v, ok := tbl.Find(1)
	require.True(t, ok)
	require.Equal(t, "b", v)
}

// TestInsert_TriggersDirectoryDoubling mirrors spec scenario 3: inserting
// bucket_size+1 keys that all collide under a low-bit-only hash forces
// the directory to double and the keys to spread across buckets, with
// every originally-inserted key still resolvable afterward.
func TestInsert_TriggersDirectoryDoubling(t *testing.T) {
	tbl := New[uint64, int](2, func(k uint64) uint64 { return k })

	require.Equal(t, 0, tbl.GlobalDepth())

	tbl.Insert(0, 100)
	tbl.Insert(4, 104)
	tbl.Insert(8, 108)

	require.Greater(t, tbl.GlobalDepth(), 0, "a full bucket at global depth must grow the directory")
	require.GreaterOrEqual(t, tbl.NumBuckets(), 2)

	for k, want := range map[uint64]int{0: 100, 4: 104, 8: 108} {
		v, ok := tbl.Find(k)
		require.True(t, ok, "key %d must still be found after splitting", k)
		require.Equal(t, want, v)
	}
}

func TestInsert_ManyKeysAllRetrievable(t *testing.T) {
	tbl := New[uint64, uint64](3, HashUint64)

	const n = 2000
	for i := uint64(0); i < n; i++ {
		tbl.Insert(i, i*7)
	}
	for i := uint64(0); i < n; i++ {
		v, ok := tbl.Find(i)
		require.True(t, ok)
		require.Equal(t, i*7, v)
	}
}

func TestRemove_ThenReinsert(t *testing.T) {
	tbl := New[uint64, string](2, HashUint64)
	tbl.Insert(1, "a")
	tbl.Insert(2, "b")
	tbl.Insert(3, "c")

	require.True(t, tbl.Remove(2))
	tbl.Insert(2, "bb")

	v, ok := tbl.Find(2)
	require.True(t, ok)
	require.Equal(t, "bb", v)
}
