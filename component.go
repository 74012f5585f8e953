package depot

import (
	"github.com/TheBitDrifter/table"
)

// Component represents a registered data category that can be attached to entities.
// Components are used to build bundles, query layouts and filters
type Component interface {
	table.ElementType
	Bit() uint32
	Mask() Mask
	Name() string
}

var _ Component = &componentType{}

type componentType struct {
	table.ElementType
	bit       uint32
	name      string
	newColumn func() column
}

func (c *componentType) Bit() uint32 {
	return c.bit
}

func (c *componentType) Mask() Mask {
	return MaskFromOffset(c.bit)
}

func (c *componentType) Name() string {
	return c.name
}

func (c *componentType) String() string {
	return c.name
}

// Value is one member of a bundle: a component paired with the value to store
type Value interface {
	Component() Component
	push(col column, state ChangeState)
	overwrite(col column, row int)
}

type componentValue[T any] struct {
	component Component
	value     T
}

func (v componentValue[T]) Component() Component {
	return v.component
}

func (v componentValue[T]) push(col column, state ChangeState) {
	columnAs[T](col, v.component).Push(v.value, state)
}

func (v componentValue[T]) overwrite(col column, row int) {
	*columnAs[T](col, v.component).GetMut(row) = v.value
}

// bundleMask computes the mask of a bundle, rejecting repeated components
func bundleMask(values []Value) (Mask, error) {
	var m Mask
	for _, v := range values {
		c := v.Component()
		if m.Has(c.Bit()) {
			return Mask{}, DuplicateComponentError{Component: c}
		}
		m = m.Or(c.Mask())
	}
	return m, nil
}
