package buffer

import (
	"encoding/binary"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// bucket holds up to bucketSize page-id/frame-index pairs plus the local
// depth of this bucket's directory slots.
type bucket struct {
	depth   int
	entries map[uint64]int
	size    int
}

func newBucket(size, depth int) *bucket {
	return &bucket{depth: depth, entries: map[uint64]int{}, size: size}
}

func (b *bucket) isFull() bool {
	return len(b.entries) >= b.size
}

// ExtendibleHashDirectory maps a resident page id to its frame index using a
// dynamically-growing directory of fixed-capacity buckets, per the
// open-addressed extendible hashing scheme in
// original_source/src/container/hash/extendible_hash_table.cpp. Page
// identifiers are hashed with xxhash rather than a language-builtin hash
// function, since the teacher's own hash-dependent collaborators (none
// ship one) leave that choice open and xxhash is the hash used elsewhere
// in the retrieved example pack for exactly this kind of directory.
type ExtendibleHashDirectory struct {
	mu          sync.Mutex
	globalDepth int
	bucketSize  int
	numBuckets  int
	dir         []*bucket
}

func NewExtendibleHashDirectory(bucketSize int) *ExtendibleHashDirectory {
	if bucketSize <= 0 {
		bucketSize = 4
	}
	d := &ExtendibleHashDirectory{
		bucketSize: bucketSize,
		numBuckets: 1,
	}
	d.dir = []*bucket{newBucket(bucketSize, 0)}
	return d
}

func hashPageId(pid uint64) uint64 {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], pid)
	return xxhash.Sum64(buf[:])
}

func (d *ExtendibleHashDirectory) indexOf(pid uint64) int {
	mask := uint64(1<<d.globalDepth) - 1
	return int(hashPageId(pid) & mask)
}

// Find returns the frame index resident for pid, if any.
func (d *ExtendibleHashDirectory) Find(pid uint64) (int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	b := d.dir[d.indexOf(pid)]
	frameIdx, ok := b.entries[pid]
	return frameIdx, ok
}

// Remove deletes pid's directory entry, if present.
func (d *ExtendibleHashDirectory) Remove(pid uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	b := d.dir[d.indexOf(pid)]
	if _, ok := b.entries[pid]; !ok {
		return false
	}
	delete(b.entries, pid)
	return true
}

// Insert maps pid to frameIdx, splitting and growing the directory as many
// times as necessary to make room.
func (d *ExtendibleHashDirectory) Insert(pid uint64, frameIdx int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	b := d.dir[d.indexOf(pid)]
	if _, exists := b.entries[pid]; exists {
		b.entries[pid] = frameIdx
		return
	}

	for d.dir[d.indexOf(pid)].isFull() {
		full := d.dir[d.indexOf(pid)]

		if full.depth == d.globalDepth {
			d.globalDepth++
			cap := len(d.dir)
			d.dir = append(d.dir, make([]*bucket, cap)...)
			for i := 0; i < cap; i++ {
				d.dir[i+cap] = d.dir[i]
			}
		}

		depth := full.depth + 1
		b0 := newBucket(d.bucketSize, depth)
		b1 := newBucket(d.bucketSize, depth)

		newMask := uint64(1) << uint(full.depth)
		for k, v := range full.entries {
			if hashPageId(k)&newMask != 0 {
				b1.entries[k] = v
			} else {
				b0.entries[k] = v
			}
		}
		d.numBuckets++

		for i := range d.dir {
			if d.dir[i] == full {
				if uint64(i)&newMask != 0 {
					d.dir[i] = b1
				} else {
					d.dir[i] = b0
				}
			}
		}
	}

	d.dir[d.indexOf(pid)].entries[pid] = frameIdx
}

func (d *ExtendibleHashDirectory) GlobalDepth() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.globalDepth
}

func (d *ExtendibleHashDirectory) NumBuckets() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.numBuckets
}

// Len returns the total number of resident page mappings across all buckets.
func (d *ExtendibleHashDirectory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	seen := map[*bucket]bool{}
	n := 0
	for _, b := range d.dir {
		if seen[b] {
			continue
		}
		seen[b] = true
		n += len(b.entries)
	}
	return n
}

// Range calls f for every resident (pageId, frameIdx) pair. f must not mutate
// the directory.
func (d *ExtendibleHashDirectory) Range(f func(pid uint64, frameIdx int)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	seen := map[*bucket]bool{}
	for _, b := range d.dir {
		if seen[b] {
			continue
		}
		seen[b] = true
		for k, v := range b.entries {
			f(k, v)
		}
	}
}
