package depot

import (
	"github.com/TheBitDrifter/bark"
)

type archetypeID uint32

// Archetype is the read-only view of one group of entities sharing a mask
type Archetype interface {
	ID() uint32
	Mask() Mask
	Len() int
	Entities() []Entity
}

var _ Archetype = &archetype{}

// archetype owns one column per bit of its mask. Every column has the length of
// entities, and row i of each column belongs to entities[i].
type archetype struct {
	id       archetypeID
	mask     Mask
	columns  [MaxComponentTypes]column
	bits     []uint32
	entities []Entity
	prepared uint64
}

func newArchetype(reg *registry, id archetypeID, m Mask) *archetype {
	arch := &archetype{id: id, mask: m}
	for bit := range m.Offsets() {
		ct := reg.componentAt(bit)
		arch.columns[bit] = ct.newColumn()
		arch.bits = append(arch.bits, bit)
	}
	return arch
}

func (a *archetype) ID() uint32 {
	return uint32(a.id)
}

func (a *archetype) Mask() Mask {
	return a.mask
}

func (a *archetype) Len() int {
	return len(a.entities)
}

// Entities returns the live entity list; it is invalidated by the next structural change
func (a *archetype) Entities() []Entity {
	return a.entities
}

func (a *archetype) column(bit uint32) (column, bool) {
	col := a.columns[bit]
	return col, col != nil
}

func (a *archetype) checkRow(row int) {
	if row < 0 || row >= len(a.entities) {
		panic(bark.AddTrace(RowOutOfRangeError{Row: row, Length: len(a.entities)}))
	}
}

// insertRow appends one row. values must cover the mask exactly; the caller
// validates that before any column is touched.
func (a *archetype) insertRow(e Entity, values []Value) int {
	for _, v := range values {
		v.push(a.columns[v.Component().Bit()], StateAdded)
	}
	a.entities = append(a.entities, e)
	return len(a.entities) - 1
}

// removeRow swap-removes row from every column and the entity list. Values are
// handed to sink first when it is non-nil. It returns the entity that now
// occupies row, if any.
func (a *archetype) removeRow(row int, sink func(col column, row int)) (displaced Entity, ok bool) {
	a.checkRow(row)
	for _, bit := range a.bits {
		col := a.columns[bit]
		if sink != nil {
			sink(col, row)
		}
		col.SwapRemove(row)
	}
	return a.swapRemoveEntity(row)
}

// moveRowTo migrates row into target. Shared components carry their values and
// flags, components missing from target go to sink, and attach values for bits
// new to target are pushed as added. Attach values for bits present in both are
// written over the carried value and marked modified.
func (a *archetype) moveRowTo(target *archetype, row int, attach []Value, sink func(col column, row int)) (newRow int, displaced Entity, ok bool) {
	a.checkRow(row)
	e := a.entities[row]
	for _, bit := range a.bits {
		col := a.columns[bit]
		if dst, shared := target.column(bit); shared {
			col.moveRowTo(dst, row)
			continue
		}
		if sink != nil {
			sink(col, row)
		}
		col.SwapRemove(row)
	}
	target.entities = append(target.entities, e)
	newRow = len(target.entities) - 1

	for _, v := range attach {
		bit := v.Component().Bit()
		dst, present := target.column(bit)
		if !present {
			continue
		}
		if a.mask.Has(bit) {
			v.overwrite(dst, newRow)
			continue
		}
		v.push(dst, StateAdded)
	}
	for _, bit := range target.bits {
		if !a.mask.Has(bit) && target.columns[bit].Len() < len(target.entities) {
			target.columns[bit].pushZero(StateAdded)
		}
	}

	displaced, ok = a.swapRemoveEntity(row)
	return newRow, displaced, ok
}

func (a *archetype) swapRemoveEntity(row int) (Entity, bool) {
	last := len(a.entities) - 1
	a.entities[row] = a.entities[last]
	a.entities = a.entities[:last]
	if row < last {
		return a.entities[row], true
	}
	return Entity{}, false
}

// prepare clears change flags once per tick
func (a *archetype) prepare(tick uint64) {
	if a.prepared == tick {
		return
	}
	for _, bit := range a.bits {
		a.columns[bit].Prepare()
	}
	a.prepared = tick
}

// verify checks column lengths against the entity list
func (a *archetype) verify() error {
	for _, bit := range a.bits {
		if n := a.columns[bit].Len(); n != len(a.entities) {
			return RowOutOfRangeError{Row: n, Length: len(a.entities)}
		}
	}
	return nil
}
