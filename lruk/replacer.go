// Package lruk implements the LRU-K page replacement policy: among
// evictable frames, a frame with fewer than k recorded accesses is
// always preferred over one with k or more, and ties within each class
// are broken by the oldest retained access timestamp.
package lruk

import "sync"

// history is a bounded FIFO of up to k access timestamps for one frame.
type history struct {
	timestamps []int64 // oldest first, length capped at k
	evictable  bool
}

// oldest returns the oldest retained timestamp, used both as the
// k-distance proxy for frames with fewer than k accesses and as the
// tie-break key within a class.
func (h *history) oldest() int64 {
	return h.timestamps[0]
}

// Replacer selects an evictable frame using the k-th most recent access
// timestamp, drawn from a monotonically increasing counter local to the
// replacer (spec §4.2).
type Replacer struct {
	mu sync.Mutex

	k            int
	clock        int64
	records      map[FrameID]*history
	numEvictable int
}

// FrameID identifies a frame in the owning buffer pool.
type FrameID = int

// New creates a replacer tracking up to replacerSize frames, each
// remembering up to k accesses.
func New(replacerSize, k int) *Replacer {
	return &Replacer{
		k:       k,
		records: make(map[FrameID]*history, replacerSize),
	}
}

// RecordAccess appends the current timestamp to the frame's history,
// dropping the oldest entry once the history exceeds k. Frames seen for
// the first time are evictable by default.
func (r *Replacer) RecordAccess(frame FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clock++
	h, ok := r.records[frame]
	if !ok {
		h = &history{evictable: true}
		r.records[frame] = h
		r.numEvictable++
	}
	h.timestamps = append(h.timestamps, r.clock)
	if len(h.timestamps) > r.k {
		h.timestamps = h.timestamps[1:]
	}
}

// SetEvictable toggles whether a frame may be chosen by Evict, adjusting
// the evictable count. Calling it for an untracked frame is a no-op.
func (r *Replacer) SetEvictable(frame FrameID, evictable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.records[frame]
	if !ok {
		return
	}
	if h.evictable == evictable {
		return
	}
	h.evictable = evictable
	if evictable {
		r.numEvictable++
	} else {
		r.numEvictable--
	}
}

// Evict selects and removes the victim frame, or returns (0, false) if
// no evictable frame exists. A frame with fewer than k accesses is
// always preferred over one with k or more; within a class the frame
// whose oldest retained timestamp is smallest (strict <) wins.
func (r *Replacer) Evict() (FrameID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		victim     FrameID
		found      bool
		victimFull bool // does the current victim have >= k accesses?
		victimOld  int64
	)

	for frame, h := range r.records {
		if !h.evictable {
			continue
		}
		full := len(h.timestamps) >= r.k
		old := h.oldest()

		switch {
		case !found:
			victim, victimFull, victimOld, found = frame, full, old, true
		case !full && victimFull:
			// an under-k frame always beats a full one
			victim, victimFull, victimOld = frame, full, old
		case full == victimFull && old < victimOld:
			victim, victimOld = frame, old
		}
	}

	if !found {
		return 0, false
	}

	delete(r.records, victim)
	r.numEvictable--
	return victim, true
}

// Remove drops all tracked state for a frame. It is forbidden to call
// Remove on a frame that is currently non-evictable (pinned); callers
// must SetEvictable(frame, true) first, or simply let eviction handle it.
func (r *Replacer) Remove(frame FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.records[frame]
	if !ok {
		return
	}
	if !h.evictable {
		panic("lruk: Remove called on a non-evictable frame")
	}
	delete(r.records, frame)
	r.numEvictable--
}

// Size returns the number of frames currently evictable.
func (r *Replacer) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.numEvictable
}
