// Package hashtable implements a concurrent extendible hash table:
// key/value pairs are grouped into fixed-capacity buckets addressed by
// the low bits of a hash, and the directory doubles in size whenever a
// full bucket at the global depth needs to split (spec §4.1).
package hashtable

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// HashFunc produces the hash used to pick a bucket for a key.
type HashFunc[K any] func(K) uint64

type pair[K comparable, V any] struct {
	key K
	val V
}

type bucket[K comparable, V any] struct {
	depth   int
	entries []pair[K, V]
}

func newBucket[K comparable, V any](size, depth int) *bucket[K, V] {
	return &bucket[K, V]{depth: depth, entries: make([]pair[K, V], 0, size)}
}

func (b *bucket[K, V]) find(key K) (V, bool) {
	for _, e := range b.entries {
		if e.key == key {
			return e.val, true
		}
	}
	var zero V
	return zero, false
}

func (b *bucket[K, V]) remove(key K) bool {
	for i, e := range b.entries {
		if e.key == key {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			return true
		}
	}
	return false
}

// overwrite sets the value for an existing key, reporting whether the
// key was present.
func (b *bucket[K, V]) overwrite(key K, val V) bool {
	for i, e := range b.entries {
		if e.key == key {
			b.entries[i].val = val
			return true
		}
	}
	return false
}

func (b *bucket[K, V]) isFull(capacity int) bool {
	return len(b.entries) >= capacity
}

// Table is a generic concurrent extendible hash table: K -> V.
type Table[K comparable, V any] struct {
	mu sync.Mutex

	globalDepth int
	bucketSize  int
	hash        HashFunc[K]
	dir         []*bucket[K, V]
}

// New creates a table with one empty bucket at global depth 0. bucketSize
// is the maximum number of entries a bucket holds before it must split.
func New[K comparable, V any](bucketSize int, hash HashFunc[K]) *Table[K, V] {
	return &Table[K, V]{
		bucketSize: bucketSize,
		hash:       hash,
		dir:        []*bucket[K, V]{newBucket[K, V](bucketSize, 0)},
	}
}

// indexOf returns the bottom globalDepth bits of the key's hash, used as
// the directory index (spec §4.1: idx = hash(k) & ((1<<depth)-1)).
func (t *Table[K, V]) indexOf(key K) uint64 {
	if t.globalDepth == 0 {
		return 0
	}
	return t.hash(key) & ((1 << uint(t.globalDepth)) - 1)
}

// Find returns the value mapped to key, if any.
func (t *Table[K, V]) Find(key K) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	b := t.dir[t.indexOf(key)]
	return b.find(key)
}

// Remove deletes key, reporting whether it was present.
func (t *Table[K, V]) Remove(key K) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	b := t.dir[t.indexOf(key)]
	return b.remove(key)
}

// Insert maps key to val, overwriting any existing mapping. Splitting
// may cascade: a split can leave the new entry's target bucket still
// full (all its keys resolved to the same half after redistribution),
// in which case Insert recurses until the entry fits.
func (t *Table[K, V]) Insert(key K, val V) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.insertLocked(key, val)
}

func (t *Table[K, V]) insertLocked(key K, val V) {
	idx := t.indexOf(key)
	b := t.dir[idx]

	if b.overwrite(key, val) {
		return
	}
	if !b.isFull(t.bucketSize) {
		b.entries = append(b.entries, pair[K, V]{key, val})
		return
	}

	t.splitBucket(idx)
	t.insertLocked(key, val) // may cascade through further splits
}

// splitBucket grows the directory if the target bucket is already at
// global depth, then divides its entries between it and a new sibling
// bucket one depth deeper, re-pointing every directory slot that used
// to alias the old bucket.
func (t *Table[K, V]) splitBucket(idx uint64) {
	old := t.dir[idx]

	if old.depth == t.globalDepth {
		t.growDirectory()
	}

	old.depth++
	sibling := newBucket[K, V](t.bucketSize, old.depth)

	// The bit that now distinguishes the two halves.
	splitBit := uint64(1) << uint(old.depth-1)

	// Re-point every directory slot whose low (old.depth-1) bits match
	// idx's to either the old bucket (bit clear) or the sibling (bit set).
	lowMask := splitBit - 1
	lowBits := idx & lowMask
	for i := range t.dir {
		if uint64(i)&lowMask != lowBits {
			continue
		}
		if t.dir[i] != old {
			continue
		}
		if uint64(i)&splitBit != 0 {
			t.dir[i] = sibling
		}
	}

	// Redistribute old's entries by re-hashing against the new depth.
	kept := old.entries[:0:0]
	for _, e := range old.entries {
		h := t.hash(e.key) & (splitBit*2 - 1)
		if h&splitBit != 0 {
			sibling.entries = append(sibling.entries, e)
		} else {
			kept = append(kept, e)
		}
	}
	old.entries = kept
}

// growDirectory doubles the directory, duplicating each existing slot
// into its new counterpart (local depths are untouched by doubling).
func (t *Table[K, V]) growDirectory() {
	doubled := make([]*bucket[K, V], len(t.dir)*2)
	copy(doubled, t.dir)
	copy(doubled[len(t.dir):], t.dir)
	t.dir = doubled
	t.globalDepth++
}

// GlobalDepth reports the current directory depth, mainly for tests.
func (t *Table[K, V]) GlobalDepth() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.globalDepth
}

// NumBuckets reports the number of distinct buckets currently
// referenced by the directory (aliased slots count once).
func (t *Table[K, V]) NumBuckets() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	seen := make(map[*bucket[K, V]]struct{})
	for _, b := range t.dir {
		seen[b] = struct{}{}
	}
	return len(seen)
}

// HashUint64 is the default HashFunc for uint64-ish keys, built on
// xxhash for speed and good bit dispersion across the low-order bits
// the directory actually indexes with.
func HashUint64(k uint64) uint64 {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(k >> (8 * i))
	}
	return xxhash.Sum64(buf[:])
}

// HashString is the default HashFunc for string keys.
func HashString(k string) uint64 {
	return xxhash.Sum64String(k)
}

// HashBytes is the default HashFunc for []byte keys.
func HashBytes(k []byte) uint64 {
	return xxhash.Sum64(k)
}
