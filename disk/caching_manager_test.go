package disk

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pagestore"
)

// countingManager wraps a Manager and counts calls through to it, so
// tests can assert the cache actually avoids a round trip.
type countingManager struct {
	Manager
	reads int
}

func (c *countingManager) ReadPage(id pagestore.PageID, buf *pagestore.Page) error {
	c.reads++
	return c.Manager.ReadPage(id, buf)
}

func TestCachingManager_ReadThroughThenHit(t *testing.T) {
	inner := &countingManager{Manager: NewMemoryManager()}
	cm, err := NewCachingManager(inner, 16)
	require.NoError(t, err)

	id, err := cm.AllocatePage()
	require.NoError(t, err)

	var in pagestore.Page
	in.Data[0] = 7
	require.NoError(t, cm.WritePage(id, &in))

	var out pagestore.Page
	require.NoError(t, cm.ReadPage(id, &out))
	require.Equal(t, byte(7), out.Data[0])
	// WritePage seeded the cache, so this read never touched inner.
	require.Equal(t, 0, inner.reads)
}

func TestCachingManager_MissFallsThroughAndPopulates(t *testing.T) {
	inner := NewMemoryManager()
	id, err := inner.AllocatePage()
	require.NoError(t, err)

	var seed pagestore.Page
	seed.Data[1] = 42
	require.NoError(t, inner.WritePage(id, &seed))

	counting := &countingManager{Manager: inner}
	cm, err := NewCachingManager(counting, 16)
	require.NoError(t, err)

	var out pagestore.Page
	require.NoError(t, cm.ReadPage(id, &out))
	require.Equal(t, byte(42), out.Data[1])
	require.Equal(t, 1, counting.reads)

	// second read is served from cache
	require.NoError(t, cm.ReadPage(id, &out))
	require.Equal(t, 1, counting.reads)
}

func TestCachingManager_DeallocateEvictsFromCache(t *testing.T) {
	inner := NewMemoryManager()
	cm, err := NewCachingManager(inner, 16)
	require.NoError(t, err)

	id, err := cm.AllocatePage()
	require.NoError(t, err)

	var in pagestore.Page
	in.Data[0] = 9
	require.NoError(t, cm.WritePage(id, &in))
	require.NoError(t, cm.DeallocatePage(id))

	var out pagestore.Page
	err = cm.ReadPage(id, &out)
	require.Error(t, err)
}
