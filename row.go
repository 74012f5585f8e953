package depot

// Row is borrowed access to one entity's data inside a query traversal. It is
// valid until the query is closed.
type Row struct {
	query *Query
	chunk *queryChunk
	index int
}

func (r Row) Entity() Entity {
	return r.chunk.arch.entities[r.index]
}

// Index is the row position inside the entity's archetype
func (r Row) Index() int {
	return r.index
}

func (r Row) Archetype() Archetype {
	return r.chunk.arch
}

// Has reports whether the row's archetype holds c
func (r Row) Has(c Component) bool {
	return r.chunk.arch.mask.Has(c.Bit())
}

// State returns the change flags of c for this row, or zero when c is absent
func (r Row) State(c Component) ChangeState {
	col, ok := r.chunk.arch.column(c.Bit())
	if !ok {
		return 0
	}
	return col.State(r.index)
}
