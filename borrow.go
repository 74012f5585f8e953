package depot

// borrowTracker enforces single-writer/multi-reader access per component type
// for every live query of one storage. Explicit lock bits freeze structure
// without borrowing any component, and so does a running event callback.
type borrowTracker struct {
	readers   [MaxComponentTypes]int32
	shared    Mask
	writers   Mask
	live      int
	locks     Mask
	notifying int
}

// acquire records the borrows of one layout or fails without recording anything
func (b *borrowTracker) acquire(reads, writes Mask) error {
	if conflict := writes.And(b.writers.Or(b.shared)); !conflict.IsEmpty() {
		return BorrowConflictError{Component: componentForMask(conflict), Exclusive: true}
	}
	if conflict := reads.And(b.writers); !conflict.IsEmpty() {
		return BorrowConflictError{Component: componentForMask(conflict), Exclusive: false}
	}
	for bit := range reads.Offsets() {
		b.readers[bit]++
	}
	b.shared = b.shared.Or(reads)
	b.writers = b.writers.Or(writes)
	b.live++
	return nil
}

func (b *borrowTracker) release(reads, writes Mask) {
	for bit := range reads.Offsets() {
		b.readers[bit]--
		if b.readers[bit] == 0 {
			b.shared = b.shared.AndNot(MaskFromOffset(bit))
		}
	}
	b.writers = b.writers.AndNot(writes)
	b.live--
}

func (b *borrowTracker) canRead(bit uint32) bool {
	return !b.writers.Has(bit)
}

func (b *borrowTracker) canWrite(bit uint32) bool {
	return !b.writers.Has(bit) && !b.shared.Has(bit)
}

func (b *borrowTracker) locked() bool {
	return b.live > 0 || b.notifying > 0 || !b.locks.IsEmpty()
}

// componentForMask names the lowest component in m for error reporting
func componentForMask(m Mask) Component {
	for bit := range m.Offsets() {
		if ct := defaultRegistry.componentAt(bit); ct != nil {
			return ct
		}
	}
	return nil
}
