package depot

import "math/bits"

// rowBitset records which rows of one archetype pass a filter
type rowBitset []uint64

func newRowBitset(rows int) rowBitset {
	return make(rowBitset, (rows+63)/64)
}

func (b rowBitset) set(row int) {
	b[row/64] |= 1 << (row % 64)
}

func (b rowBitset) has(row int) bool {
	return b[row/64]&(1<<(row%64)) != 0
}

// next returns the first set row at or after from, or -1
func (b rowBitset) next(from int) int {
	word := from / 64
	if word >= len(b) {
		return -1
	}
	w := b[word] &^ (1<<(from%64) - 1)
	for {
		if w != 0 {
			return word*64 + bits.TrailingZeros64(w)
		}
		word++
		if word >= len(b) {
			return -1
		}
		w = b[word]
	}
}

func (b rowBitset) count() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return n
}
