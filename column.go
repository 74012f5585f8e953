package depot

import (
	"github.com/TheBitDrifter/bark"
)

// ChangeState holds the per-row change flags of a column
type ChangeState uint8

const (
	StateAdded ChangeState = 1 << iota
	StateModified
)

func (s ChangeState) Added() bool {
	return s&StateAdded != 0
}

func (s ChangeState) Modified() bool {
	return s&StateModified != 0
}

// column is the type-erased view of a Column[T] that archetypes and the storage
// work with. Typed access always goes through columnAs.
type column interface {
	component() Component
	Len() int
	State(row int) ChangeState
	SwapRemove(row int)
	Prepare()
	appendRowTo(dst column, row int)
	moveRowTo(dst column, row int)
	pushZero(state ChangeState)
	reset()
}

// Column is a dense array of one component type with a parallel array of
// per-row change states. One state byte per row keeps concurrent GetMut calls on
// distinct rows from touching the same memory.
type Column[T any] struct {
	comp   Component
	data   []T
	states []ChangeState
}

func newColumn[T any](c Component) *Column[T] {
	return &Column[T]{comp: c}
}

// columnAs is the single checked downcast from an erased column to its typed form.
// A mismatch means the storage handed out the wrong column and panics.
func columnAs[T any](col column, c Component) *Column[T] {
	typed, ok := col.(*Column[T])
	if !ok || typed.comp.ID() != c.ID() {
		panic(bark.AddTrace(columnMismatchError{want: c, got: col.component()}))
	}
	return typed
}

func (c *Column[T]) component() Component {
	return c.comp
}

func (c *Column[T]) Len() int {
	return len(c.data)
}

func (c *Column[T]) checkRow(row int) {
	if row < 0 || row >= len(c.data) {
		panic(bark.AddTrace(RowOutOfRangeError{Row: row, Length: len(c.data)}))
	}
}

// Get returns read access to row without touching its state
func (c *Column[T]) Get(row int) *T {
	c.checkRow(row)
	return &c.data[row]
}

// GetMut returns write access to row and marks it modified, whether or not the
// caller ends up changing the value
func (c *Column[T]) GetMut(row int) *T {
	c.checkRow(row)
	c.states[row] |= StateModified
	return &c.data[row]
}

// GetMutSilent returns write access to row without marking it modified
func (c *Column[T]) GetMutSilent(row int) *T {
	c.checkRow(row)
	return &c.data[row]
}

func (c *Column[T]) State(row int) ChangeState {
	c.checkRow(row)
	return c.states[row]
}

func (c *Column[T]) Push(v T, state ChangeState) {
	c.data = append(c.data, v)
	c.states = append(c.states, state)
}

// SwapRemove moves the last row into row and shrinks the column by one
func (c *Column[T]) SwapRemove(row int) {
	c.checkRow(row)
	last := len(c.data) - 1
	c.data[row] = c.data[last]
	c.states[row] = c.states[last]
	var zero T
	c.data[last] = zero
	c.data = c.data[:last]
	c.states = c.states[:last]
}

// Prepare clears every row's change flags
func (c *Column[T]) Prepare() {
	clear(c.states)
}

// appendRowTo copies row, value and state, onto the end of dst
func (c *Column[T]) appendRowTo(dst column, row int) {
	c.checkRow(row)
	columnAs[T](dst, c.comp).Push(c.data[row], c.states[row])
}

func (c *Column[T]) moveRowTo(dst column, row int) {
	c.appendRowTo(dst, row)
	c.SwapRemove(row)
}

func (c *Column[T]) pushZero(state ChangeState) {
	var zero T
	c.Push(zero, state)
}

func (c *Column[T]) reset() {
	clear(c.data)
	c.data = c.data[:0]
	c.states = c.states[:0]
}

// values exposes the live slice; callers must not retain it across structural changes
func (c *Column[T]) values() []T {
	return c.data
}
