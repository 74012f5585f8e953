package depot

import (
	"iter"

	"github.com/TheBitDrifter/bark"
	iter_util "github.com/TheBitDrifter/util/iter"
)

type AccessMode uint8

const (
	Shared AccessMode = iota
	Exclusive
)

// Access is one entry of a query layout
type Access struct {
	Component Component
	Mode      AccessMode
	// Optional entries are borrowed but do not restrict which archetypes match
	Optional bool
}

func Read(c Component) Access {
	return Access{Component: c, Mode: Shared}
}

func Write(c Component) Access {
	return Access{Component: c, Mode: Exclusive}
}

func Maybe(c Component) Access {
	return Access{Component: c, Mode: Shared, Optional: true}
}

func MaybeMut(c Component) Access {
	return Access{Component: c, Mode: Exclusive, Optional: true}
}

// Query is a compiled layout holding borrows on its components until Close.
// While any query is open the storage rejects structural changes.
type Query struct {
	sto      *storage
	filter   Filter
	required Mask
	reads    Mask
	writes   Mask
	closed   bool
	cache    *queryCache
}

func (sto *storage) Query(layout ...Access) (*Query, error) {
	return sto.QueryWith(nil, layout...)
}

// QueryWith compiles layout and filter and acquires the layout's borrows
func (sto *storage) QueryWith(filter Filter, layout ...Access) (*Query, error) {
	q := &Query{sto: sto, filter: filter}
	for _, access := range layout {
		if err := sto.checkRegistered(access.Component); err != nil {
			return nil, err
		}
		bit := access.Component.Bit()
		switch access.Mode {
		case Exclusive:
			if q.reads.Has(bit) || q.writes.Has(bit) {
				return nil, BorrowConflictError{Component: access.Component, Exclusive: true}
			}
			q.writes = q.writes.Or(access.Component.Mask())
		default:
			if q.writes.Has(bit) {
				return nil, BorrowConflictError{Component: access.Component, Exclusive: false}
			}
			q.reads = q.reads.Or(access.Component.Mask())
		}
		if !access.Optional {
			q.required = q.required.Or(access.Component.Mask())
		}
	}
	if err := sto.borrows.acquire(q.reads, q.writes); err != nil {
		return nil, err
	}
	return q, nil
}

// Close releases the query's borrows. Structural operations queued while the
// storage was locked run when the last borrow is released.
func (q *Query) Close() {
	if q.closed {
		return
	}
	q.closed = true
	q.cache = nil
	q.sto.borrows.release(q.reads, q.writes)
	q.sto.unlocked()
}

func (q *Query) Mask() Mask {
	return q.required
}

func (q *Query) mustBeOpen() {
	if q.closed {
		panic(bark.AddTrace(ClosedQueryError{}))
	}
}

// snapshot reuses the last cache when nothing it depends on has changed
func (q *Query) snapshot() *queryCache {
	q.mustBeOpen()
	if q.cache != nil && !q.cache.stale(q.sto) && (q.filter == nil || q.filter.Structural()) {
		return q.cache
	}
	q.cache = q.buildCache()
	return q.cache
}

func (q *Query) Cursor() *Cursor {
	return newCursor(q)
}

// Rows yields every passing row, archetype by archetype, in row order
func (q *Query) Rows() iter.Seq[Row] {
	return q.rows(q.snapshot())
}

func (q *Query) rows(cache *queryCache) iter.Seq[Row] {
	return func(yield func(Row) bool) {
		for i := range cache.chunks {
			ch := &cache.chunks[i]
			for row := ch.next(0); row >= 0; row = ch.next(row + 1) {
				if !yield(Row{query: q, chunk: ch, index: row}) {
					return
				}
			}
		}
	}
}

func (q *Query) Entities() []Entity {
	return iter_util.Collect[Entity](func(yield func(Entity) bool) {
		for row := range q.Rows() {
			if !yield(row.Entity()) {
				return
			}
		}
	})
}

// Count returns the number of rows that pass the filter
func (q *Query) Count() int {
	return q.snapshot().matched
}

func (q *Query) First() (Row, bool) {
	for row := range q.Rows() {
		return row, true
	}
	return Row{}, false
}

// ForEach calls fn for every passing row. With a pool the rows are split into
// contiguous chunks of chunkSize and fanned out to the workers; ForEach returns
// after every chunk has finished. A chunkSize of zero or less uses the configured
// default.
func (q *Query) ForEach(pool *WorkerPool, chunkSize int, fn func(Row)) error {
	cache := q.snapshot()
	if pool == nil {
		for row := range q.rows(cache) {
			fn(row)
		}
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = Config.defaultChunkSize
	}
	return pool.Execute(cache.total, chunkSize, func(start, end int) {
		for i := cache.chunkAt(start); i < len(cache.chunks) && start < end; i++ {
			ch := &cache.chunks[i]
			hi := min(end-ch.offset, ch.length)
			for row := ch.next(start - ch.offset); row >= 0 && row < hi; row = ch.next(row + 1) {
				fn(Row{query: q, chunk: ch, index: row})
			}
			start = ch.offset + ch.length
		}
	})
}
