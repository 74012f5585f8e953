package depot

import "github.com/TheBitDrifter/bark"

// AccessibleComponent is a registered Component with typed accessors for rows,
// cursors and entity views
type AccessibleComponent[T any] struct {
	Component
}

// With pairs v with the component for use in a bundle
func (c AccessibleComponent[T]) With(v T) Value {
	return componentValue[T]{component: c.Component, value: v}
}

// column resolves the typed column behind r, panicking when the query layout did
// not request the access. ok is false when the row's archetype lacks c.
func (c AccessibleComponent[T]) column(r Row, exclusive bool) (*Column[T], bool) {
	if r.chunk == nil {
		panic(bark.AddTrace(RowOutOfRangeError{Row: r.index}))
	}
	bit := c.Bit()
	q := r.query
	q.mustBeOpen()
	if exclusive && !q.writes.Has(bit) {
		panic(bark.AddTrace(AccessError{Component: c.Component, Exclusive: true}))
	}
	if !exclusive && !q.reads.Or(q.writes).Has(bit) {
		panic(bark.AddTrace(AccessError{Component: c.Component}))
	}
	col, ok := r.chunk.arch.column(bit)
	if !ok {
		return nil, false
	}
	return columnAs[T](col, c.Component), true
}

// Get returns read access to the row's value, or nil for an absent optional component
func (c AccessibleComponent[T]) Get(r Row) *T {
	col, ok := c.column(r, false)
	if !ok {
		return nil
	}
	return col.Get(r.index)
}

// GetMut returns write access and marks the row modified
func (c AccessibleComponent[T]) GetMut(r Row) *T {
	col, ok := c.column(r, true)
	if !ok {
		return nil
	}
	return col.GetMut(r.index)
}

// GetMutSilent returns write access without marking the row modified
func (c AccessibleComponent[T]) GetMutSilent(r Row) *T {
	col, ok := c.column(r, true)
	if !ok {
		return nil
	}
	return col.GetMutSilent(r.index)
}

// TryGet is Get for optional components, reporting absence as an UnlinkedTypeError
func (c AccessibleComponent[T]) TryGet(r Row) (*T, error) {
	col, ok := c.column(r, false)
	if !ok {
		return nil, UnlinkedTypeError{Component: c.Component}
	}
	return col.Get(r.index), nil
}

func (c AccessibleComponent[T]) Check(r Row) bool {
	return r.Has(c.Component)
}

func (c AccessibleComponent[T]) GetFromCursor(cursor *Cursor) *T {
	return c.Get(cursor.Row())
}

func (c AccessibleComponent[T]) GetMutFromCursor(cursor *Cursor) *T {
	return c.GetMut(cursor.Row())
}

func (c AccessibleComponent[T]) CheckCursor(cursor *Cursor) bool {
	return c.Check(cursor.Row())
}
