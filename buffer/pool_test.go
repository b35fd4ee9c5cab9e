package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pagestore"
	"pagestore/disk"
)

func TestNewPage_PinsAndReturnsWritableBytes(t *testing.T) {
	p := New(4, disk.NewMemoryManager())

	id, page, err := p.NewPage()
	require.NoError(t, err)
	require.NotEqual(t, pagestore.InvalidPageID, id)

	page.Data[0] = 0x11
	require.True(t, p.UnpinPage(id, true))

	fetched, err := p.FetchPage(id)
	require.NoError(t, err)
	require.Equal(t, byte(0x11), fetched.Data[0])
	p.UnpinPage(id, false)
}

func TestFetchPage_UnknownPageGoesToDisk(t *testing.T) {
	d := disk.NewMemoryManager()
	id, err := d.AllocatePage()
	require.NoError(t, err)

	var seed pagestore.Page
	seed.Data[2] = 0x99
	require.NoError(t, d.WritePage(id, &seed))

	p := New(4, d)
	page, err := p.FetchPage(id)
	require.NoError(t, err)
	require.Equal(t, byte(0x99), page.Data[2])
}

func TestPool_EvictsOnlyWhenUnpinnedAndFreeListExhausted(t *testing.T) {
	p := New(2, disk.NewMemoryManager())

	id1, _, err := p.NewPage()
	require.NoError(t, err)
	id2, _, err := p.NewPage()
	require.NoError(t, err)

	// Pool is full and both pages are still pinned: nothing can be evicted.
	_, _, err = p.NewPage()
	require.ErrorIs(t, err, pagestore.ErrBufferFull)

	require.True(t, p.UnpinPage(id1, false))

	// Now a frame is evictable, so a third page can be created.
	id3, _, err := p.NewPage()
	require.NoError(t, err)
	require.NotEqual(t, id1, id3)

	p.UnpinPage(id2, false)
	p.UnpinPage(id3, false)
}

func TestPool_DirtyFrameIsFlushedOnEviction(t *testing.T) {
	d := disk.NewMemoryManager()
	p := New(1, d)

	id1, page, err := p.NewPage()
	require.NoError(t, err)
	page.Data[5] = 0x7

	require.True(t, p.UnpinPage(id1, true))

	// Forces eviction of id1's frame since the pool holds only one frame.
	_, _, err = p.NewPage()
	require.NoError(t, err)

	var out pagestore.Page
	require.NoError(t, d.ReadPage(id1, &out))
	require.Equal(t, byte(0x7), out.Data[5])
}

func TestPool_UnpinUnknownPageFails(t *testing.T) {
	p := New(2, disk.NewMemoryManager())
	require.False(t, p.UnpinPage(pagestore.PageID(1234), false))
}

func TestPool_DeletePageFailsWhilePinned(t *testing.T) {
	p := New(2, disk.NewMemoryManager())
	id, _, err := p.NewPage()
	require.NoError(t, err)

	require.False(t, p.DeletePage(id))

	p.UnpinPage(id, false)
	require.True(t, p.DeletePage(id))
}

func TestPool_DeletePageOnUnknownIDIsNoop(t *testing.T) {
	p := New(2, disk.NewMemoryManager())
	require.True(t, p.DeletePage(pagestore.PageID(99)))
}

func TestPool_FlushAllPagesSkipsEmptyFrames(t *testing.T) {
	d := disk.NewMemoryManager()
	p := New(4, d)

	id, page, err := p.NewPage()
	require.NoError(t, err)
	page.Data[0] = 0x55
	p.UnpinPage(id, true)

	// Only one of the four frames is occupied; FlushAllPages must not
	// panic or attempt to flush the other three (pageID == InvalidPageID).
	p.FlushAllPages()

	var out pagestore.Page
	require.NoError(t, d.ReadPage(id, &out))
	require.Equal(t, byte(0x55), out.Data[0])
}

func TestPool_FlushPageUnknownIDFails(t *testing.T) {
	p := New(2, disk.NewMemoryManager())
	require.False(t, p.FlushPage(pagestore.PageID(42)))
}
