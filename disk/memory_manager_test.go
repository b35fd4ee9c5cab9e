package disk

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pagestore"
)

func TestMemoryManager_AllocateReadWrite(t *testing.T) {
	m := NewMemoryManager()

	id, err := m.AllocatePage()
	require.NoError(t, err)

	var in pagestore.Page
	in.Data[0] = 0xAB
	require.NoError(t, m.WritePage(id, &in))

	var out pagestore.Page
	require.NoError(t, m.ReadPage(id, &out))
	require.Equal(t, byte(0xAB), out.Data[0])
}

func TestMemoryManager_ReadMissingPage(t *testing.T) {
	m := NewMemoryManager()
	var out pagestore.Page
	err := m.ReadPage(pagestore.PageID(999), &out)
	require.Error(t, err)
}

func TestMemoryManager_DeallocateDropsPageButIDIsNotReused(t *testing.T) {
	m := NewMemoryManager()

	id, err := m.AllocatePage()
	require.NoError(t, err)
	require.NoError(t, m.DeallocatePage(id))

	var out pagestore.Page
	require.Error(t, m.ReadPage(id, &out))

	id2, err := m.AllocatePage()
	require.NoError(t, err)
	require.NotEqual(t, id, id2)
}

func TestMemoryManager_WriteIsolatesCaller(t *testing.T) {
	m := NewMemoryManager()
	id, err := m.AllocatePage()
	require.NoError(t, err)

	var in pagestore.Page
	require.NoError(t, m.WritePage(id, &in))
	in.Data[0] = 0xFF // mutate caller's copy after the write

	var out pagestore.Page
	require.NoError(t, m.ReadPage(id, &out))
	require.Equal(t, byte(0), out.Data[0])
}
