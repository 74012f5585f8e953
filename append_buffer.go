package depot

import (
	"iter"
	"sync/atomic"

	"github.com/TheBitDrifter/bark"
)

// AppendBuffer is an append-only container that pool workers can push into
// concurrently. Each Push reserves a unique slot from an atomic cursor before
// writing, and pages are allocated on first touch. Reading is only safe once the
// writers have been joined, e.g. after WorkerPool.Execute returns.
type AppendBuffer[T any] struct {
	pageSize int
	pages    []atomic.Pointer[[]T]
	cursor   atomic.Int64
}

func NewAppendBuffer[T any](pageSize, maxPages int) *AppendBuffer[T] {
	return &AppendBuffer[T]{
		pageSize: pageSize,
		pages:    make([]atomic.Pointer[[]T], maxPages),
	}
}

func (b *AppendBuffer[T]) Cap() int {
	return b.pageSize * len(b.pages)
}

// Push stores v and returns its index. Exceeding Cap panics with a CapacityError.
func (b *AppendBuffer[T]) Push(v T) int {
	idx := int(b.cursor.Add(1) - 1)
	p := idx / b.pageSize
	if p >= len(b.pages) {
		panic(bark.AddTrace(CapacityError{Limit: b.Cap()}))
	}
	b.page(p)[idx%b.pageSize] = v
	return idx
}

func (b *AppendBuffer[T]) page(p int) []T {
	if page := b.pages[p].Load(); page != nil {
		return *page
	}
	fresh := make([]T, b.pageSize)
	if b.pages[p].CompareAndSwap(nil, &fresh) {
		return fresh
	}
	return *b.pages[p].Load()
}

func (b *AppendBuffer[T]) Len() int {
	return min(int(b.cursor.Load()), b.Cap())
}

func (b *AppendBuffer[T]) At(i int) T {
	if i < 0 || i >= b.Len() {
		panic(bark.AddTrace(RowOutOfRangeError{Row: i, Length: b.Len()}))
	}
	return (*b.pages[i/b.pageSize].Load())[i%b.pageSize]
}

func (b *AppendBuffer[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := range b.Len() {
			if !yield(i, b.At(i)) {
				return
			}
		}
	}
}

// Reset empties the buffer, keeping its pages. It must not race with Push.
func (b *AppendBuffer[T]) Reset() {
	for i := range b.pages {
		if page := b.pages[i].Load(); page != nil {
			clear(*page)
		}
	}
	b.cursor.Store(0)
}
