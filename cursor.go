package depot

// Cursor walks a query's passing rows one at a time
type Cursor struct {
	query       *Query
	cache       *queryCache
	chunkIndex  int
	rowIndex    int
	initialized bool
}

func newCursor(query *Query) *Cursor {
	return &Cursor{query: query}
}

// Next advances to the next passing row. When the rows are exhausted the cursor
// resets itself, so the same cursor can be driven again on a later pass.
func (c *Cursor) Next() bool {
	if !c.initialized {
		c.initialize()
	}
	for c.chunkIndex < len(c.cache.chunks) {
		ch := &c.cache.chunks[c.chunkIndex]
		if row := ch.next(c.rowIndex + 1); row >= 0 {
			c.rowIndex = row
			return true
		}
		c.chunkIndex++
		c.rowIndex = -1
	}
	c.Reset()
	return false
}

func (c *Cursor) initialize() {
	c.cache = c.query.snapshot()
	c.chunkIndex = 0
	c.rowIndex = -1
	c.initialized = true
}

func (c *Cursor) Reset() {
	c.cache = nil
	c.chunkIndex = 0
	c.rowIndex = -1
	c.initialized = false
}

// Row returns the current row; it is only meaningful after Next returned true.
// Outside of that it returns the zero Row.
func (c *Cursor) Row() Row {
	if !c.positioned() {
		return Row{}
	}
	return Row{query: c.query, chunk: &c.cache.chunks[c.chunkIndex], index: c.rowIndex}
}

func (c *Cursor) positioned() bool {
	return c.initialized && c.chunkIndex < len(c.cache.chunks) && c.rowIndex >= 0
}

func (c *Cursor) Entity() Entity {
	if !c.positioned() {
		return Entity{}
	}
	return c.Row().Entity()
}

// RemainingInArchetype counts the passing rows after the current one in its
// archetype, or 0 when the cursor is not on a row
func (c *Cursor) RemainingInArchetype() int {
	if !c.positioned() {
		return 0
	}
	ch := &c.cache.chunks[c.chunkIndex]
	if ch.pass == nil {
		return ch.length - c.rowIndex - 1
	}
	remaining := 0
	for row := ch.next(c.rowIndex + 1); row >= 0; row = ch.next(row + 1) {
		remaining++
	}
	return remaining
}

// TotalMatched returns the number of passing rows across all archetypes
func (c *Cursor) TotalMatched() int {
	if !c.initialized {
		c.initialize()
	}
	return c.cache.matched
}
