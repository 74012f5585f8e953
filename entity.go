package depot

import (
	"container/heap"
	"fmt"
	"iter"
)

// Entity is an opaque (index, generation) handle. The zero Entity is never valid.
type Entity struct {
	index      uint32
	generation uint32
}

func (e Entity) Index() uint32 {
	return e.index
}

func (e Entity) Generation() uint32 {
	return e.generation
}

func (e Entity) IsZero() bool {
	return e.generation == 0
}

func (e Entity) String() string {
	return fmt.Sprintf("%d:%d", e.index, e.generation)
}

// EntityLinkings is the current storage location of one entity
type EntityLinkings struct {
	Mask Mask
	Row  int
}

type slot struct {
	generation uint32
	alive      bool
	linkings   EntityLinkings
}

// entitySet is the generational slot table. Freed indices are reused lowest first.
type entitySet struct {
	slots []slot
	free  freeIndices
	alive int
}

func (s *entitySet) insert(l EntityLinkings) Entity {
	if s.free.Len() > 0 {
		index := heap.Pop(&s.free).(uint32)
		sl := &s.slots[index]
		sl.alive = true
		sl.linkings = l
		s.alive++
		return Entity{index: index, generation: sl.generation}
	}
	index := uint32(len(s.slots))
	s.slots = append(s.slots, slot{generation: 1, alive: true, linkings: l})
	s.alive++
	return Entity{index: index, generation: 1}
}

// remove kills the slot and bumps its generation. It reports false for handles
// that were already invalid.
func (s *entitySet) remove(e Entity) bool {
	if _, ok := s.validate(e); !ok {
		return false
	}
	sl := &s.slots[e.index]
	sl.alive = false
	sl.linkings = EntityLinkings{}
	sl.generation++
	if sl.generation == 0 {
		sl.generation = 1
	}
	heap.Push(&s.free, e.index)
	s.alive--
	return true
}

func (s *entitySet) validate(e Entity) (Entity, bool) {
	if int(e.index) >= len(s.slots) {
		return Entity{}, false
	}
	sl := s.slots[e.index]
	if !sl.alive || sl.generation != e.generation {
		return Entity{}, false
	}
	return e, true
}

func (s *entitySet) linkings(e Entity) (EntityLinkings, bool) {
	if _, ok := s.validate(e); !ok {
		return EntityLinkings{}, false
	}
	return s.slots[e.index].linkings, true
}

// relink is only called by the storage with handles it produced
func (s *entitySet) relink(e Entity, l EntityLinkings) {
	s.slots[e.index].linkings = l
}

func (s *entitySet) len() int {
	return s.alive
}

// live yields every alive handle with its linkings, in index order
func (s *entitySet) live() iter.Seq2[Entity, EntityLinkings] {
	return func(yield func(Entity, EntityLinkings) bool) {
		for i, sl := range s.slots {
			if !sl.alive {
				continue
			}
			if !yield(Entity{index: uint32(i), generation: sl.generation}, sl.linkings) {
				return
			}
		}
	}
}

// freeIndices is a min-heap of reusable slot indices
type freeIndices []uint32

func (h freeIndices) Len() int           { return len(h) }
func (h freeIndices) Less(i, j int) bool { return h[i] < h[j] }
func (h freeIndices) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *freeIndices) Push(x any) {
	*h = append(*h, x.(uint32))
}

func (h *freeIndices) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
