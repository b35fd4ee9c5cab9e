package lruk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvict_PrefersFewerThanKAccesses(t *testing.T) {
	r := New(3, 2)

	r.RecordAccess(1) // A
	r.RecordAccess(2) // B
	r.RecordAccess(3) // C
	r.RecordAccess(1) // A
	r.RecordAccess(2) // B

	for _, f := range []FrameID{1, 2, 3} {
		r.SetEvictable(f, true)
	}

	victim, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, FrameID(3), victim, "C has only one access, fewer than k=2")

	// C is fetched (and pinned) again; its history restarts but it is
	// not a candidate for eviction while pinned.
	r.RecordAccess(3)
	r.SetEvictable(3, false)
	for _, f := range []FrameID{1, 2} {
		r.SetEvictable(f, true)
	}
	victim, ok = r.Evict()
	require.True(t, ok)
	require.Equal(t, FrameID(1), victim, "A's oldest retained timestamp precedes B's")
}

func TestSetEvictable_ExcludesFromEviction(t *testing.T) {
	r := New(2, 2)
	r.RecordAccess(1)
	r.RecordAccess(2)
	r.SetEvictable(1, false)
	r.SetEvictable(2, true)

	require.Equal(t, 1, r.Size())

	victim, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, FrameID(2), victim)
}

func TestEvict_EmptyReplacer(t *testing.T) {
	r := New(4, 2)
	_, ok := r.Evict()
	require.False(t, ok)
}

func TestRemove(t *testing.T) {
	r := New(4, 2)
	r.RecordAccess(1)
	r.SetEvictable(1, true)
	require.Equal(t, 1, r.Size())

	r.Remove(1)
	require.Equal(t, 0, r.Size())

	_, ok := r.Evict()
	require.False(t, ok)
}

func TestRemove_PanicsOnPinnedFrame(t *testing.T) {
	r := New(4, 2)
	r.RecordAccess(1)
	r.SetEvictable(1, false)

	require.Panics(t, func() { r.Remove(1) })
}

func TestSize_TracksEvictableCount(t *testing.T) {
	r := New(4, 2)
	require.Equal(t, 0, r.Size())

	r.RecordAccess(1)
	require.Equal(t, 1, r.Size())

	r.SetEvictable(1, false)
	require.Equal(t, 0, r.Size())
}
