package depot

import "sort"

// queryChunk is the slice of one matched archetype captured by a query cache
type queryChunk struct {
	arch   *archetype
	offset int
	length int
	// pass is nil when every row passes
	pass   rowBitset
	passed int
}

// next returns the first passing row at or after from, or -1
func (ch *queryChunk) next(from int) int {
	if from >= ch.length {
		return -1
	}
	if ch.pass == nil {
		return from
	}
	row := ch.pass.next(from)
	if row >= ch.length {
		return -1
	}
	return row
}

// queryCache lists every archetype matched by a query for one structural
// version and tick. Change filters force a rebuild on every traversal.
type queryCache struct {
	chunks  []queryChunk
	total   int
	matched int
	version uint64
	tick    uint64
}

func (q *Query) buildCache() *queryCache {
	cache := &queryCache{
		version: q.sto.version,
		tick:    q.sto.tick,
	}
	structural := q.filter == nil || q.filter.Structural()
	for _, arch := range q.sto.matchingArchetypes(q.required) {
		n := arch.Len()
		if n == 0 {
			continue
		}
		ch := queryChunk{arch: arch, offset: cache.total, length: n, passed: n}
		switch {
		case q.filter == nil:
		case structural:
			if !q.filter.Evaluate(arch, 0) {
				continue
			}
		default:
			ch.pass = newRowBitset(n)
			for row := range n {
				if q.filter.Evaluate(arch, row) {
					ch.pass.set(row)
				}
			}
			ch.passed = ch.pass.count()
			if ch.passed == 0 {
				continue
			}
		}
		cache.chunks = append(cache.chunks, ch)
		cache.total += n
		cache.matched += ch.passed
	}
	return cache
}

func (c *queryCache) stale(sto *storage) bool {
	return c.version != sto.version || c.tick != sto.tick
}

// chunkAt returns the index of the chunk holding the flat row position pos
func (c *queryCache) chunkAt(pos int) int {
	return sort.Search(len(c.chunks), func(i int) bool {
		return c.chunks[i].offset+c.chunks[i].length > pos
	})
}
