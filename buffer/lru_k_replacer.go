package buffer

import (
	"container/list"
	"fmt"
)

// LRUKReplacer tracks frame access history and picks eviction victims using
// k-distance ordering: a frame's history begins in the young list (FIFO) and
// graduates to the old list (LRU) once it has been accessed k times.
//
// Grounded on the access-count/young-old list scheme of BusTub's
// LRUKReplacer (src/buffer/lru_k_replacer.cpp), adapted to satisfy this
// repo's IReplacer interface so BufferPool can use it as a drop-in
// replacement for ClockReplacer.
type LRUKReplacer struct {
	k int

	young      *list.List // frame ids, front = most recently inserted into young
	youngNodes map[int]*list.Element

	old      *list.List // frame ids, front = most recently accessed
	oldNodes map[int]*list.Element

	accessCount map[int]int
	evictable   map[int]bool

	curSize int
	size    int
}

var _ IReplacer = &LRUKReplacer{}

func NewLRUKReplacer(size, k int) *LRUKReplacer {
	if k <= 0 {
		k = 2
	}
	return &LRUKReplacer{
		k:           k,
		young:       list.New(),
		youngNodes:  map[int]*list.Element{},
		old:         list.New(),
		oldNodes:    map[int]*list.Element{},
		accessCount: map[int]int{},
		evictable:   map[int]bool{},
		size:        size,
	}
}

// RecordAccess increments frameId's access count and migrates it between the
// young and old lists per the k-distance rule.
func (r *LRUKReplacer) RecordAccess(frameId int) error {
	if frameId < 0 || frameId >= r.size {
		return fmt.Errorf("lruk: frame id %d out of range [0, %d)", frameId, r.size)
	}

	r.accessCount[frameId]++
	count := r.accessCount[frameId]

	switch {
	case count == 1:
		r.youngNodes[frameId] = r.young.PushFront(frameId)
	case count < r.k:
		// the young list keeps insertion order (FIFO), so further accesses below k do not move the frame
	case count == r.k:
		if e, ok := r.youngNodes[frameId]; ok {
			r.young.Remove(e)
			delete(r.youngNodes, frameId)
		}
		r.oldNodes[frameId] = r.old.PushFront(frameId)
	default:
		if e, ok := r.oldNodes[frameId]; ok {
			r.old.MoveToFront(e)
		} else {
			r.oldNodes[frameId] = r.old.PushFront(frameId)
		}
	}

	return nil
}

// SetEvictable toggles whether frameId may be chosen by Evict. It is a silent
// no-op for a frame that has never been accessed.
func (r *LRUKReplacer) SetEvictable(frameId int, evictable bool) {
	if _, tracked := r.accessCount[frameId]; !tracked {
		return
	}

	was := r.evictable[frameId]
	r.evictable[frameId] = evictable

	if evictable && !was {
		r.curSize++
	} else if !evictable && was {
		r.curSize--
	}
}

// Evict chooses the oldest evictable frame in the young list, falling back to
// the oldest evictable frame in the old list, clearing its tracked history.
func (r *LRUKReplacer) Evict() (frameId int, ok bool) {
	for e := r.young.Back(); e != nil; e = e.Prev() {
		id := e.Value.(int)
		if r.evictable[id] {
			r.clear(id)
			return id, true
		}
	}

	for e := r.old.Back(); e != nil; e = e.Prev() {
		id := e.Value.(int)
		if r.evictable[id] {
			r.clear(id)
			return id, true
		}
	}

	return 0, false
}

// Remove force-removes a tracked evictable frame from history. It panics if
// the frame is tracked but not evictable, matching the replacer's contract
// that pinned frames can never be dropped from underneath the buffer pool.
func (r *LRUKReplacer) Remove(frameId int) {
	if _, tracked := r.accessCount[frameId]; !tracked {
		return
	}
	if !r.evictable[frameId] {
		panic(fmt.Sprintf("lruk: removing frame %d which is tracked but not evictable", frameId))
	}
	r.clear(frameId)
}

func (r *LRUKReplacer) clear(frameId int) {
	if e, ok := r.youngNodes[frameId]; ok {
		r.young.Remove(e)
		delete(r.youngNodes, frameId)
	}
	if e, ok := r.oldNodes[frameId]; ok {
		r.old.Remove(e)
		delete(r.oldNodes, frameId)
	}
	delete(r.accessCount, frameId)
	if r.evictable[frameId] {
		r.curSize--
	}
	delete(r.evictable, frameId)
}

func (r *LRUKReplacer) GetSize() int {
	return r.size
}

// NumPinnedPages reports frames currently tracked but not evictable, mirroring
// ClockReplacer's notion of "pinned" for callers that introspect pool state.
func (r *LRUKReplacer) NumPinnedPages() int {
	pinned := 0
	for id := range r.accessCount {
		if !r.evictable[id] {
			pinned++
		}
	}
	return pinned
}

// Pin adapts the buffer pool's pin/unpin calling convention onto the
// evictable-flag model: pinning a frame always marks it non-evictable. The
// buffer pool is responsible for calling RecordAccess on every fetch.
func (r *LRUKReplacer) Pin(frameId int) {
	r.SetEvictable(frameId, false)
}

// Unpin marks frameId evictable again, once the buffer pool's pin count for
// it has reached zero.
func (r *LRUKReplacer) Unpin(frameId int) {
	r.SetEvictable(frameId, true)
}

// ChooseVictim adapts Evict to the buffer pool's existing IReplacer contract.
func (r *LRUKReplacer) ChooseVictim() (int, error) {
	id, ok := r.Evict()
	if !ok {
		return 0, fmt.Errorf("lruk: no evictable frame available")
	}
	return id, nil
}
