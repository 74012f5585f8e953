package depot

import "slices"

// EntityView is direct access to one entity outside of a query. Its accessors
// respect the borrows of every open query: reads fail while the component is
// exclusively borrowed and writes fail while it is borrowed at all.
type EntityView struct {
	sto    *storage
	entity Entity
}

func (v EntityView) Entity() Entity {
	return v.entity
}

func (v EntityView) Valid() bool {
	return v.sto != nil && v.sto.Contains(v.entity)
}

func (v EntityView) Linkings() (EntityLinkings, bool) {
	if v.sto == nil {
		return EntityLinkings{}, false
	}
	return v.sto.entities.linkings(v.entity)
}

func (v EntityView) Mask() Mask {
	l, _ := v.Linkings()
	return l.Mask
}

func (v EntityView) Has(c Component) bool {
	return v.Mask().Has(c.Bit())
}

func (c AccessibleComponent[T]) fromEntry(v EntityView, exclusive bool) (*Column[T], int, error) {
	l, ok := v.Linkings()
	if !ok {
		return nil, 0, InvalidEntityError{Entity: v.entity}
	}
	bit := c.Bit()
	if !l.Mask.Has(bit) {
		return nil, 0, UnlinkedTypeError{Component: c.Component}
	}
	if (exclusive && !v.sto.borrows.canWrite(bit)) || (!exclusive && !v.sto.borrows.canRead(bit)) {
		return nil, 0, BorrowConflictError{Component: c.Component, Exclusive: exclusive}
	}
	col, _ := v.sto.archetypeFor(l.Mask).column(bit)
	return columnAs[T](col, c.Component), l.Row, nil
}

// GetFromEntry returns read access to the entity's value. The pointer is
// invalidated by the next structural change.
func (c AccessibleComponent[T]) GetFromEntry(v EntityView) (*T, error) {
	col, row, err := c.fromEntry(v, false)
	if err != nil {
		return nil, err
	}
	return col.Get(row), nil
}

// GetMutFromEntry returns write access and marks the value modified
func (c AccessibleComponent[T]) GetMutFromEntry(v EntityView) (*T, error) {
	col, row, err := c.fromEntry(v, true)
	if err != nil {
		return nil, err
	}
	return col.GetMut(row), nil
}

func (c AccessibleComponent[T]) GetMutSilentFromEntry(v EntityView) (*T, error) {
	col, row, err := c.fromEntry(v, true)
	if err != nil {
		return nil, err
	}
	return col.GetMutSilent(row), nil
}

// Removed returns copies of the values of c dropped by removals and detaches
// since the last Prepare
func (c AccessibleComponent[T]) Removed(sto Storage) []T {
	s := sto.(*storage)
	col := s.removed[c.Bit()]
	if col == nil {
		return nil
	}
	return slices.Clone(columnAs[T](col, c.Component).values())
}
